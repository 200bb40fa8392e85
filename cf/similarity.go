package cf

import "math"

// Similarity 是对称的用户-用户相似度矩阵，取值 [-1, 1]，对角线恒为 1。
type Similarity map[string]map[string]float64

// Get 读取两个用户的相似度；任一用户不在矩阵中时返回 0。
func (s Similarity) Get(a, b string) float64 {
	row, ok := s[a]
	if !ok {
		return 0
	}
	return row[b]
}

// CosineSimilarity 对矩阵的每一对用户行计算余弦相似度。
//
// 缺失条目仅在本计算内部按 0 处理（等价于 fillna(0) 后点积），
// 不会写回源矩阵。全量重算，复杂度 O(users² × items)——
// 这是按需触发的批式计算，不在热路径上。
func CosineSimilarity(m Matrix) Similarity {
	users := m.Users()

	// 每个用户行的 L2 范数
	norms := make(map[string]float64, len(users))
	for _, userID := range users {
		var sum float64
		for _, score := range m[userID] {
			sum += score * score
		}
		norms[userID] = math.Sqrt(sum)
	}

	sim := make(Similarity, len(users))
	for _, userID := range users {
		sim[userID] = make(map[string]float64, len(users))
		sim[userID][userID] = 1 // 对角线按定义为 1
	}

	for i, a := range users {
		for _, b := range users[i+1:] {
			// 零填充意味着只有双方都有条目的法案贡献点积
			var dot float64
			rowA, rowB := m[a], m[b]
			if len(rowB) < len(rowA) {
				rowA, rowB = rowB, rowA
			}
			for itemID, scoreA := range rowA {
				if scoreB, ok := rowB[itemID]; ok {
					dot += scoreA * scoreB
				}
			}

			var value float64
			if norms[a] > 0 && norms[b] > 0 {
				value = dot / (norms[a] * norms[b])
			}
			sim[a][b] = value
			sim[b][a] = value
		}
	}
	return sim
}
