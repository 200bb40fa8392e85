package cf

import "sort"

// Recommender 为单个用户生成 Top-N 推荐：
// 对该用户尚未消费（无条目或分数不大于 0）的每个法案跑一次预测，
// 按预测分降序取前 n_items 个。
//
// 预测分相同的法案不施加额外次序：稳定排序保持候选集（法案 ID 升序）的原有顺序。
// 返回列表保证不含用户已消费的法案，长度不超过 nItems。
type Recommender struct {
	Matrix  Matrix
	Predict PredictFunc
}

// Recommend 返回预测分最高的 nItems 个法案 ID。
// 用户不在矩阵中（新用户）时所有预测都落到变体的默认值，仍按序返回。
func (r *Recommender) Recommend(userID string, nItems, neighborSize int) []string {
	if nItems <= 0 || r.Predict == nil {
		return nil
	}

	type scored struct {
		itemID string
		score  float64
	}
	candidates := make([]scored, 0)
	for _, itemID := range r.Matrix.Items() {
		if r.Matrix.Rated(userID, itemID) {
			continue
		}
		candidates = append(candidates, scored{
			itemID: itemID,
			score:  r.Predict(userID, itemID, neighborSize),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > nItems {
		candidates = candidates[:nItems]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.itemID)
	}
	return out
}
