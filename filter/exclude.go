package filter

import (
	"context"

	"github.com/lawdna/billrec/core"
)

// ExcludeFilter 过滤掉用户已经交互过的法案，避免重复推荐。
// 排除集可以来自固定列表，也可以从 RecommendContext 的 exclude 参数动态读取。
type ExcludeFilter struct {
	// ItemIDs 是固定的排除物品 ID 列表
	ItemIDs []string

	// FromContext 为 true 时，额外合并 rctx.ExcludeSet() 中的 ID
	FromContext bool
}

var _ Filter = (*ExcludeFilter)(nil)

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}

	for _, id := range f.ItemIDs {
		if item.ID == id {
			return true, nil
		}
	}

	if f.FromContext && rctx != nil {
		if _, ok := rctx.ExcludeSet()[item.ID]; ok {
			return true, nil
		}
	}

	return false, nil
}
