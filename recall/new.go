package recall

import (
	"context"
	"sort"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/utils"
)

// NewBills 提供两个独立的新内容召回排名：
//   - Newest：按本会议议决日降序取最新 n 个（未议决的法案被跳过）
//   - WorstSellers：按浏览量升序取冷门 n 个（给长尾法案曝光机会）
//
// 两者都接受调用方传入的排除集（已选中的法案不重复出现）。
type NewBills struct {
	Catalog core.CatalogStore
	TopN    int

	// Mode 决定 Recall 时走哪个排名：newest（默认）/ worst_sellers
	Mode string
}

func (r *NewBills) Name() string {
	if r.Mode == "worst_sellers" {
		return "recall.worst_sellers"
	}
	return "recall.newest"
}

func (r *NewBills) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *NewBills) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *NewBills) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	n := requestN(rctx, r.TopN)
	exclude := rctx.ExcludeSet()

	var (
		ids []string
		err error
	)
	if r.Mode == "worst_sellers" {
		ids, err = r.WorstSellers(ctx, n, exclude)
	} else {
		ids, err = r.Newest(ctx, n, exclude)
	}
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", utils.Label{Value: r.Name(), Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Newest 按议决日降序返回最新 n 个法案，跳过排除集与未议决的法案。
func (r *NewBills) Newest(ctx context.Context, n int, exclude map[string]struct{}) ([]string, error) {
	if n <= 0 || r.Catalog == nil {
		return nil, nil
	}
	items, err := r.Catalog.GetItems(ctx)
	if err != nil {
		return nil, err
	}

	dated := items[:0:0]
	for _, it := range items {
		if it.ResolvedAt.IsZero() {
			continue
		}
		dated = append(dated, it)
	}
	sort.SliceStable(dated, func(i, j int) bool {
		return dated[i].ResolvedAt.After(dated[j].ResolvedAt)
	})
	return pick(dated, n, exclude), nil
}

// WorstSellers 按浏览量升序返回冷门 n 个法案，跳过排除集。
func (r *NewBills) WorstSellers(ctx context.Context, n int, exclude map[string]struct{}) ([]string, error) {
	if n <= 0 || r.Catalog == nil {
		return nil, nil
	}
	items, err := r.Catalog.GetItems(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Views < items[j].Views
	})
	return pick(items, n, exclude), nil
}

// pick 顺序取前 n 个不在排除集中的法案 ID。
func pick(items []core.CatalogItem, n int, exclude map[string]struct{}) []string {
	out := make([]string, 0, n)
	for _, it := range items {
		if len(out) >= n {
			break
		}
		if _, skip := exclude[it.ID]; skip {
			continue
		}
		out = append(out, it.ID)
	}
	return out
}
