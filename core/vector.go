package core

import "context"

// VectorService 是向量检索服务的领域接口。
//
// 使用场景：
//   - 法案 embedding 相似度：离线批量算出 top-K 邻居后落到 SimilarityStore
//
// 实现：
//   - store.MemoryVectorService 实现此接口
type VectorService interface {
	// Upsert 写入/覆盖一个向量
	Upsert(ctx context.Context, collection, id string, vector []float64) error

	// Search 向量搜索
	Search(ctx context.Context, req *VectorSearchRequest) (*VectorSearchResult, error)

	// Close 关闭连接
	Close() error
}

// VectorSearchRequest 向量搜索请求
type VectorSearchRequest struct {
	// Collection 集合名称
	Collection string

	// Vector 查询向量
	Vector []float64

	// TopK 返回 TopK 个最相似的结果
	TopK int

	// Metric 距离度量方式：cosine / inner_product
	Metric string
}

// VectorSearchItem 单条搜索结果
type VectorSearchItem struct {
	ID    string
	Score float64
}

// VectorSearchResult 向量搜索结果（按分数降序）
type VectorSearchResult struct {
	Items []VectorSearchItem
}
