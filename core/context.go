package core

import "github.com/lawdna/billrec/pkg/utils"

// RecommendContext 承载用户/场景/请求级信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	// 例如：冷启动用户、重度用户等
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如：
	// - n: 期望的推荐条数
	// - exclude: 已经选中、需要排除的 bill_id 列表
	// - item_id: 内容相似推荐的源法案
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// ExcludeSet 从 Params 中提取 exclude 列表并转为 set，便于过滤。
func (rctx *RecommendContext) ExcludeSet() map[string]struct{} {
	out := make(map[string]struct{})
	if rctx == nil || rctx.Params == nil {
		return out
	}
	raw, ok := rctx.Params["exclude"]
	if !ok {
		return out
	}
	switch v := raw.(type) {
	case []string:
		for _, id := range v {
			out[id] = struct{}{}
		}
	case map[string]struct{}:
		return v
	}
	return out
}
