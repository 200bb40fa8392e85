// Package content 实现基于内容的法案相似度离线计算。
//
// 流程：法案 embedding 写入向量服务 -> 对每个法案检索 top-K 近邻 ->
// 相似度分数落到 SimilarityStore，线上聚合查询时不再触碰向量服务。
package content

import (
	"context"
	"sort"

	"github.com/lawdna/billrec/core"
)

const defaultTopK = 50

// Indexer 负责 embedding 的写入与相似度的批量重算。
type Indexer struct {
	// Vectors 是向量服务（embedding 存储与近邻检索）
	Vectors core.VectorService

	// Sims 是相似度分数的落地存储
	Sims core.SimilarityStore

	// Collection 是向量集合名称，默认 "bills"
	Collection string

	// TopK 是每个法案保留的近邻数量，默认 50
	TopK int
}

func (ix *Indexer) collection() string {
	if ix.Collection == "" {
		return "bills"
	}
	return ix.Collection
}

// Fit 批量写入法案 embedding（覆盖旧值）。
func (ix *Indexer) Fit(ctx context.Context, embeddings map[string][]float64) error {
	// 按 ID 升序写入，保证批量操作可重放
	ids := make([]string, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if err := ix.Vectors.Upsert(ctx, ix.collection(), id, embeddings[id]); err != nil {
			return err
		}
	}
	return nil
}

// SyncSimilarities 对每个法案检索 top-K 近邻并落地相似度分数。
// (source, target) 重算时覆盖写入，不会追加重复行。
func (ix *Indexer) SyncSimilarities(ctx context.Context, embeddings map[string][]float64) error {
	topK := ix.TopK
	if topK <= 0 {
		topK = defaultTopK
	}

	ids := make([]string, 0, len(embeddings))
	for id := range embeddings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		result, err := ix.Vectors.Search(ctx, &core.VectorSearchRequest{
			Collection: ix.collection(),
			Vector:     embeddings[id],
			TopK:       topK + 1, // 结果里会带上自身
			Metric:     "cosine",
		})
		if err != nil {
			return err
		}

		for _, item := range result.Items {
			if item.ID == id {
				continue
			}
			if err := ix.Sims.Upsert(ctx, id, item.ID, item.Score); err != nil {
				return err
			}
		}
	}
	return nil
}
