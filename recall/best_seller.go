package recall

import (
	"context"
	"sort"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// BestSeller 是热门法案召回源：按浏览量降序取 TopN。
// - 如果配置了 KeyValueStore，优先使用 ZRange（浏览量有序集合）
// - 否则扫描 CatalogStore 按 Views 排序
// BestSeller 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type BestSeller struct {
	Catalog core.CatalogStore
	Store   core.KeyValueStore
	Key     string // 有序集合 key，例如 "catalog:views"
	TopN    int
}

func (r *BestSeller) Name() string        { return "recall.best_seller" }
func (r *BestSeller) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *BestSeller) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *BestSeller) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	n := requestN(rctx, r.TopN)
	ids, err := r.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: "best_seller", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Top 返回浏览量最高的前 n 个法案 ID。
func (r *BestSeller) Top(ctx context.Context, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}

	// 优先从有序集合读取（生产路径：浏览量 zset 已按分数维护）
	if r.Store != nil && r.Key != "" {
		members, err := r.Store.ZRange(ctx, r.Key, 0, int64(n)-1)
		if err == nil && len(members) > 0 {
			return members, nil
		}
	}

	if r.Catalog == nil {
		return nil, nil
	}
	items, err := r.Catalog.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Views > items[j].Views
	})
	if len(items) > n {
		items = items[:n]
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids, nil
}
