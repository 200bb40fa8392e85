package rerank

import (
	"context"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pipeline"
)

// DedupNode 按 Item.ID 去重，保留首个出现的物品。
// 多路召回合并后经常出现重复候选，该节点保证下游看到的候选集无重复。
type DedupNode struct{}

func (n *DedupNode) Name() string {
	return "rerank.dedup"
}

func (n *DedupNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *DedupNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) <= 1 {
		return items, nil
	}

	seen := make(map[string]struct{}, len(items))
	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}
