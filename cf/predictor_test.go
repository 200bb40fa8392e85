package cf

import (
	"math"
	"testing"
)

// sampleMatrix 是两用户示例矩阵：u1 {b1:5, b2:3}，u2 {b1:4, b2:5, b3:2}
func sampleMatrix() Matrix {
	return Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b1": 4, "b2": 5, "b3": 2},
	}
}

func newPredictor(m Matrix) *Predictor {
	return &Predictor{Matrix: m, Sim: CosineSimilarity(m)}
}

func TestPredictor_Simple(t *testing.T) {
	p := newPredictor(sampleMatrix())

	// b3 只有 u2 评过分：加权平均 = (sim*2)/sim = 2
	if got := p.Simple("u1", "b3"); !almostEqual(got, 2) {
		t.Errorf("Simple(u1,b3) = %v, want 2", got)
	}

	// 未知法案 → 默认分
	if got := p.Simple("u1", "ghost"); got != DefaultScore {
		t.Errorf("Simple on unknown item = %v, want %v", got, DefaultScore)
	}

	// 未知用户：所有相似度为 0，分母为 0 → 默认分
	if got := p.Simple("ghost", "b3"); got != DefaultScore {
		t.Errorf("Simple for unknown user = %v, want %v", got, DefaultScore)
	}
}

func TestPredictor_KNN_ZeroNeighborSizeEqualsSimple(t *testing.T) {
	m := Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b1": 4, "b2": 5, "b3": 2},
		"u3": {"b1": 1, "b3": 4},
	}
	p := newPredictor(m)

	for _, item := range []string{"b1", "b2", "b3"} {
		simple := p.Simple("u1", item)
		knn := p.KNN("u1", item, 0)
		if !almostEqual(simple, knn) {
			t.Errorf("item %s: KNN(k=0) = %v, Simple = %v, want equal", item, knn, simple)
		}
	}
}

func TestPredictor_NegativeNeighborSizeMeansUnlimited(t *testing.T) {
	// 配置层可能透传负的 neighbor_size，不能越界切片
	m := Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b1": 4, "b2": 5, "b3": 2},
		"u3": {"b1": 1, "b3": 4},
	}
	p := newPredictor(m)

	for _, item := range []string{"b1", "b2", "b3"} {
		want := p.KNN("u1", item, 0)
		if got := p.KNN("u1", item, -1); !almostEqual(got, want) {
			t.Errorf("item %s: KNN(k=-1) = %v, want %v (same as k=0)", item, got, want)
		}
	}
	if got, want := p.KNNBias("u1", "b3", -1), p.KNNBias("u1", "b3", 0); !almostEqual(got, want) {
		t.Errorf("KNNBias(k=-1) = %v, want %v", got, want)
	}
	if got, want := p.KNNBiasSig("u1", "b3", -1), p.KNNBiasSig("u1", "b3", 0); !almostEqual(got, want) {
		t.Errorf("KNNBiasSig(k=-1) = %v, want %v", got, want)
	}
}

func TestPredictor_KNN_SingleRaterReturnsDefault(t *testing.T) {
	p := newPredictor(sampleMatrix())

	// b3 只有一个评分者：k>0 时少于 2 人 → 默认分
	if got := p.KNN("u1", "b3", 1); got != DefaultScore {
		t.Errorf("KNN with single rater = %v, want %v", got, DefaultScore)
	}
	// k=0 时退化为限定在评分者上的加权平均 → 2
	if got := p.KNN("u1", "b3", 0); !almostEqual(got, 2) {
		t.Errorf("KNN(k=0) with single rater = %v, want 2", got)
	}
}

func TestPredictor_KNN_PicksMostSimilarNeighbor(t *testing.T) {
	// u2 与 u1 高度相似，u3 与 u1 几乎正交；k=1 时 b4 的预测应取 u2 的评分
	m := Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b1": 5, "b2": 3, "b4": 2},
		"u3": {"b3": 4, "b4": 5, "b1": 1},
	}
	p := newPredictor(m)

	if got := p.KNN("u1", "b4", 1); !almostEqual(got, 2) {
		t.Errorf("KNN(k=1) = %v, want 2 from the most similar neighbor", got)
	}
}

func TestPredictor_KNN_UnknownItem(t *testing.T) {
	p := newPredictor(sampleMatrix())
	if got := p.KNN("u1", "ghost", 3); got != DefaultScore {
		t.Errorf("KNN on unknown item = %v, want %v", got, DefaultScore)
	}
}

func TestPredictor_KNNBias_FallsBackToUserMean(t *testing.T) {
	p := newPredictor(sampleMatrix())

	userMean := 4.0 // (5+3)/2

	// 未知法案 → 行均值
	if got := p.KNNBias("u1", "ghost", 2); !almostEqual(got, userMean) {
		t.Errorf("KNNBias on unknown item = %v, want user mean %v", got, userMean)
	}
	// 评分者不足 → 行均值
	if got := p.KNNBias("u1", "b3", 1); !almostEqual(got, userMean) {
		t.Errorf("KNNBias with single rater = %v, want user mean %v", got, userMean)
	}
	// 新用户没有行均值 → 默认分
	if got := p.KNNBias("ghost", "b3", 1); got != DefaultScore {
		t.Errorf("KNNBias for unknown user = %v, want %v", got, DefaultScore)
	}
}

func TestPredictor_KNNBias_AddsBackUserMean(t *testing.T) {
	m := Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b1": 5, "b2": 3, "b4": 6},
		"u3": {"b1": 5, "b2": 3, "b4": 2},
	}
	p := newPredictor(m)

	got := p.KNNBias("u1", "b4", 0)

	// 手工复算：偏差加权平均 + u1 行均值
	var num, den float64
	for _, other := range []string{"u2", "u3"} {
		mean, _ := m.RowMean(other)
		s := p.Sim.Get("u1", other)
		num += s * (m[other]["b4"] - mean)
		den += s
	}
	want := num/den + 4.0
	if !almostEqual(got, want) {
		t.Errorf("KNNBias = %v, want %v", got, want)
	}
}

func TestPredictor_KNNBiasSig_FiltersLowSignificance(t *testing.T) {
	// u2 与 u1 共同评分 3 个（过显著性阈值），u3 只共同评分 1 个（被剔除）
	m := Matrix{
		"u1": {"b1": 5, "b2": 3, "b3": 4},
		"u2": {"b1": 4, "b2": 5, "b3": 2, "b4": 6},
		"u3": {"b1": 2, "b4": 1},
	}
	p := newPredictor(m)
	p.SigLevel = 3
	p.MinRatings = 1

	got := p.KNNBiasSig("u1", "b4", 2)

	// 只有 u2 存活：偏差 = 6 - u2 行均值，加回 u1 行均值
	u2Mean, _ := m.RowMean("u2")
	u1Mean, _ := m.RowMean("u1")
	want := (6 - u2Mean) + u1Mean
	if !almostEqual(got, want) {
		t.Errorf("KNNBiasSig = %v, want %v (only significant neighbor kept)", got, want)
	}
}

func TestPredictor_KNNBiasSig_TooFewSurvivors(t *testing.T) {
	m := Matrix{
		"u1": {"b1": 5, "b2": 3},
		"u2": {"b3": 2, "b4": 6},
	}
	p := newPredictor(m)

	// u2 与 u1 没有共同评分，被显著性过滤剔除 → 回退行均值
	if got := p.KNNBiasSig("u1", "b4", 2); !almostEqual(got, 4) {
		t.Errorf("KNNBiasSig with no survivors = %v, want user mean 4", got)
	}
}

func TestPredictor_AllVariantsHandleEmptyMatrix(t *testing.T) {
	p := newPredictor(Matrix{})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"simple", p.Simple("u1", "b1"), DefaultScore},
		{"knn", p.KNN("u1", "b1", 2), DefaultScore},
		{"knn_bias", p.KNNBias("u1", "b1", 2), DefaultScore},
		{"knn_bias_sig", p.KNNBiasSig("u1", "b1", 2), DefaultScore},
	}
	for _, tt := range tests {
		if math.Abs(tt.got-tt.want) > 1e-9 {
			t.Errorf("%s on empty matrix = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestPredictor_VariantLookup(t *testing.T) {
	p := newPredictor(sampleMatrix())

	if got := p.Variant(VariantSimple)("u1", "b3", 99); !almostEqual(got, 2) {
		t.Errorf("variant simple = %v, want 2 (neighbor size ignored)", got)
	}
	if got := p.Variant("unknown")("u1", "b3", 1); got != DefaultScore {
		t.Errorf("unknown variant should resolve to knn, got %v", got)
	}
}
