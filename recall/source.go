package recall

import (
	"context"

	"github.com/lawdna/billrec/core"
)

// Source 表示一个可复用的召回源（协同过滤/热门/最新/随机/内容相似）。
// 你可以把它理解为"可并发 fan-out 的策略单元"。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// requestN 从 rctx.Params 读取期望条数，读不到时返回 fallback。
func requestN(rctx *core.RecommendContext, fallback int) int {
	if rctx == nil || rctx.Params == nil {
		return fallback
	}
	if n, ok := rctx.Params["n"].(int); ok && n > 0 {
		return n
	}
	return fallback
}
