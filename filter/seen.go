package filter

import (
	"context"

	"github.com/lawdna/billrec/core"
)

// SeenChecker 判断某法案是否已经推荐给过某用户。
// store.BloomExposure 实现此接口。
type SeenChecker interface {
	Seen(ctx context.Context, userID, itemID string) (bool, error)
}

// SeenFilter 过滤掉已经推荐给该用户的法案，避免列表反复出现同样内容。
type SeenFilter struct {
	Checker SeenChecker
}

var _ Filter = (*SeenFilter)(nil)

func (f *SeenFilter) Name() string {
	return "filter.seen"
}

func (f *SeenFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Checker == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}
	return f.Checker.Seen(ctx, rctx.UserID, item.ID)
}
