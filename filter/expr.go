package filter

import (
	"context"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pkg/dsl"
)

// ExprFilter 基于 CEL 表达式的过滤器。
// 表达式可以访问 item（候选物品）、label（物品标签）、rctx（请求上下文）。
// 表达式求值为 true 时物品被过滤。
//
// 示例：item.score < 1.0 || label("recall_source") == "random"
type ExprFilter struct {
	// Expr 是 CEL 表达式
	Expr string
}

var _ Filter = (*ExprFilter)(nil)

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Expr == "" {
		return false, nil
	}
	return dsl.NewEval(item, rctx).Evaluate(f.Expr)
}
