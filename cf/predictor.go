package cf

import "sort"

// 预测变体名称（config / recall node 中引用）
const (
	VariantSimple     = "simple"
	VariantKNN        = "knn"
	VariantKNNBias    = "knn_bias"
	VariantKNNBiasSig = "knn_bias_sig"
)

// DefaultScore 是未知用户/法案的默认预测分。
// 取值偏向“最大可信分”而非中性分，沿用线上行为；可通过 Predictor 覆盖。
const DefaultScore = 5.0

// Predictor 基于互动矩阵与相似度矩阵预测 (user, item) 的互动分。
//
// 四个变体按复杂度递增：
//   - Simple：全体评分者的相似度加权平均
//   - KNN：只取相似度最高的 neighbor_size 个评分者
//   - KNNBias：先去掉每个用户的行均值（宽容/严格偏置），预测偏差后加回
//   - KNNBiasSig：在 KNNBias 基础上按共同评分数做显著性过滤
//
// Predictor 只读矩阵，本身无状态，可对同一矩阵并发调用。
type Predictor struct {
	Matrix Matrix
	Sim    Similarity

	// Default 未知用户/法案的默认预测分，0 表示使用 DefaultScore。
	Default float64

	// SigLevel 显著性过滤阈值：与目标用户共同评分数低于此值的邻居被剔除，0 表示默认 3。
	SigLevel int

	// MinRatings 显著性过滤后至少需要的邻居数，0 表示默认 2。
	MinRatings int
}

// PredictFunc 是一个预测变体的统一形态，供 Recommender 选用。
type PredictFunc func(userID, itemID string, neighborSize int) float64

// Variant 按名称返回预测变体；未知名称返回 KNN。
func (p *Predictor) Variant(name string) PredictFunc {
	switch name {
	case VariantSimple:
		return func(userID, itemID string, _ int) float64 {
			return p.Simple(userID, itemID)
		}
	case VariantKNNBias:
		return p.KNNBias
	case VariantKNNBiasSig:
		return p.KNNBiasSig
	default:
		return p.KNN
	}
}

func (p *Predictor) defaultScore() float64 {
	if p.Default > 0 {
		return p.Default
	}
	return DefaultScore
}

func (p *Predictor) sigLevel() int {
	if p.SigLevel > 0 {
		return p.SigLevel
	}
	return 3
}

func (p *Predictor) minRatings() int {
	if p.MinRatings > 0 {
		return p.MinRatings
	}
	return 2
}

// rater 是对目标法案有互动条目的一个用户及其权重材料。
type rater struct {
	userID string
	rating float64 // 原始分或偏差分（bias 变体）
	sim    float64 // 与目标用户的相似度
}

// raters 收集对 itemID 有条目的所有用户，按 userID 升序保证确定性。
func (p *Predictor) raters(userID, itemID string) []rater {
	out := make([]rater, 0)
	for _, other := range p.Matrix.Users() {
		rating, ok := p.Matrix[other][itemID]
		if !ok {
			continue
		}
		out = append(out, rater{
			userID: other,
			rating: rating,
			sim:    p.Sim.Get(userID, other),
		})
	}
	return out
}

// takeNeighbors 按相似度升序稳定排序后取尾部 k 个（相似度最高的 k 个）。
// 相似度相同时不施加额外次序，保持稳定排序的数组顺序。
// k <= 0 视为不限制邻居数，使用全部打分用户。
func takeNeighbors(rs []rater, k int) []rater {
	if k <= 0 || k > len(rs) {
		k = len(rs)
	}
	sorted := make([]rater, len(rs))
	copy(sorted, rs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].sim < sorted[j].sim
	})
	return sorted[len(sorted)-k:]
}

// weightedAvg 计算相似度加权平均；分母为 0 时 ok 为 false。
func weightedAvg(rs []rater) (value float64, ok bool) {
	var num, den float64
	for _, r := range rs {
		num += r.sim * r.rating
		den += r.sim
	}
	if den == 0 {
		return 0, false
	}
	return num / den, true
}

// Simple 对全体评分者做相似度加权平均。
// 法案无人评分、或相似度分母为 0 时返回默认分。
func (p *Predictor) Simple(userID, itemID string) float64 {
	if !p.Matrix.HasItem(itemID) {
		return p.defaultScore()
	}
	value, ok := weightedAvg(p.raters(userID, itemID))
	if !ok {
		return p.defaultScore()
	}
	return value
}

// KNN 只取相似度最高的 neighborSize 个评分者做加权平均。
// neighborSize <= 0 时等价于 Simple 限定在实际评分者上；
// 评分者不足 2 人时返回默认分。
func (p *Predictor) KNN(userID, itemID string, neighborSize int) float64 {
	if !p.Matrix.HasItem(itemID) {
		return p.defaultScore()
	}
	rs := p.raters(userID, itemID)

	if neighborSize <= 0 {
		value, ok := weightedAvg(rs)
		if !ok {
			return p.defaultScore()
		}
		return value
	}

	if len(rs) < 2 {
		return p.defaultScore()
	}
	value, ok := weightedAvg(takeNeighbors(rs, neighborSize))
	if !ok {
		return p.defaultScore()
	}
	return value
}

// KNNBias 先减去各用户行均值、预测偏差，再把目标用户的行均值加回来。
// 法案无人评分或邻居数不满足条件时回退到目标用户行均值（而非固定默认分）；
// 目标用户没有任何互动行时回退到默认分。
func (p *Predictor) KNNBias(userID, itemID string, neighborSize int) float64 {
	userMean, hasRow := p.Matrix.RowMean(userID)
	if !hasRow {
		return p.defaultScore()
	}
	if !p.Matrix.HasItem(itemID) {
		return userMean
	}

	rs := p.biasRaters(userID, itemID)
	if neighborSize <= 0 {
		dev, ok := weightedAvg(rs)
		if !ok {
			return userMean
		}
		return dev + userMean
	}

	if len(rs) < 2 {
		return userMean
	}
	dev, ok := weightedAvg(takeNeighbors(rs, neighborSize))
	if !ok {
		return userMean
	}
	return dev + userMean
}

// KNNBiasSig 在 KNNBias 基础上做显著性过滤：
// 与目标用户共同评分数低于 SigLevel 的邻居被剔除；
// 过滤后存活邻居不足 MinRatings 时回退到目标用户行均值。
func (p *Predictor) KNNBiasSig(userID, itemID string, neighborSize int) float64 {
	userMean, hasRow := p.Matrix.RowMean(userID)
	if !hasRow {
		return p.defaultScore()
	}
	if !p.Matrix.HasItem(itemID) {
		return userMean
	}

	all := p.biasRaters(userID, itemID)
	rs := make([]rater, 0, len(all))
	for _, r := range all {
		if p.coRated(userID, r.userID) >= p.sigLevel() {
			rs = append(rs, r)
		}
	}

	if neighborSize <= 0 {
		dev, ok := weightedAvg(rs)
		if !ok {
			return userMean
		}
		return dev + userMean
	}

	if len(rs) < p.minRatings() {
		return userMean
	}
	dev, ok := weightedAvg(takeNeighbors(rs, neighborSize))
	if !ok {
		return userMean
	}
	return dev + userMean
}

// biasRaters 与 raters 相同，但 rating 换成“相对各自行均值的偏差”。
func (p *Predictor) biasRaters(userID, itemID string) []rater {
	rs := p.raters(userID, itemID)
	for i := range rs {
		mean, _ := p.Matrix.RowMean(rs[i].userID)
		rs[i].rating -= mean
	}
	return rs
}

// coRated 统计两个用户共同评分（双方条目存在且 > 0）的法案数。
func (p *Predictor) coRated(a, b string) int {
	rowA, okA := p.Matrix[a]
	rowB, okB := p.Matrix[b]
	if !okA || !okB {
		return 0
	}
	if len(rowB) < len(rowA) {
		rowA, rowB = rowB, rowA
	}
	count := 0
	for itemID, scoreA := range rowA {
		if scoreA <= 0 {
			continue
		}
		if scoreB, ok := rowB[itemID]; ok && scoreB > 0 {
			count++
		}
	}
	return count
}
