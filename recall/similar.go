package recall

import (
	"context"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// SimilarBills 是内容相似召回源：按持久化的相似度分数
// 返回与某个源法案最相似的 TopN 个法案。
//
// 相似度分数由 content.Indexer 离线批量写入 SimilarityStore，
// 这里只做读取与排名，不做任何计算。
type SimilarBills struct {
	Sims core.SimilarityStore
	TopN int
}

func (r *SimilarBills) Name() string        { return "recall.similar" }
func (r *SimilarBills) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *SimilarBills) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口；源法案从 rctx.Params["item_id"] 读取。
func (r *SimilarBills) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Sims == nil || rctx == nil || rctx.Params == nil {
		return nil, nil
	}
	itemID, ok := rctx.Params["item_id"].(string)
	if !ok || itemID == "" {
		return nil, nil
	}

	ids, err := r.Similar(ctx, itemID, requestN(rctx, r.TopN))
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "similar", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Similar 返回与 itemID 最相似的前 n 个法案 ID（分数降序）。
func (r *SimilarBills) Similar(ctx context.Context, itemID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return r.Sims.TopSimilar(ctx, itemID, n)
}
