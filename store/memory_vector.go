package store

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/lawdna/billrec/core"
)

// MemoryVectorService 是内存实现的向量服务，用于测试/开发/原型。
// 法案 embedding 数量在万级，内存实现足够支撑离线相似度计算。
//
// 特点：
//   - 纯内存实现，进程重启后数据丢失
//   - 支持余弦相似度、内积两种度量
//   - 线程安全
type MemoryVectorService struct {
	mu          sync.RWMutex
	collections map[string]map[string][]float64 // collection -> id -> vector
}

var _ core.VectorService = (*MemoryVectorService)(nil)

func NewMemoryVectorService() *MemoryVectorService {
	return &MemoryVectorService{
		collections: make(map[string]map[string][]float64),
	}
}

func (m *MemoryVectorService) Upsert(ctx context.Context, collection, id string, vector []float64) error {
	if len(vector) == 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector is empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string][]float64)
	}
	// 拷贝一份，避免调用方后续修改影响已存向量
	stored := make([]float64, len(vector))
	copy(stored, vector)
	m.collections[collection][id] = stored
	return nil
}

func (m *MemoryVectorService) Search(ctx context.Context, req *core.VectorSearchRequest) (*core.VectorSearchResult, error) {
	if req == nil || len(req.Vector) == 0 {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput, "vector search request is empty")
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	col, ok := m.collections[req.Collection]
	if !ok {
		return &core.VectorSearchResult{Items: []core.VectorSearchItem{}}, nil
	}

	topK := req.TopK
	if topK <= 0 {
		topK = 10
	}

	metric := req.Metric
	if metric == "" {
		metric = "cosine"
	}

	items := make([]core.VectorSearchItem, 0, len(col))
	for id, vec := range col {
		if len(vec) != len(req.Vector) {
			continue
		}

		var score float64
		switch metric {
		case "inner_product":
			score = innerProduct(req.Vector, vec)
		default:
			score = cosineSimilarity(req.Vector, vec)
		}
		items = append(items, core.VectorSearchItem{ID: id, Score: score})
	}

	// 按分数降序排序（同分按 ID 升序，保证结果稳定）
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})

	if len(items) > topK {
		items = items[:topK]
	}
	return &core.VectorSearchResult{Items: items}, nil
}

func (m *MemoryVectorService) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections = make(map[string]map[string][]float64)
	return nil
}

func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func innerProduct(a, b []float64) float64 {
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot
}
