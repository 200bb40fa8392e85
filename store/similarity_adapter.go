package store

import (
	"context"
	"sort"

	"github.com/lawdna/billrec/core"
)

const simKeyPrefix = "sim:"

// StoreSimilarityAdapter 把 core.KeyValueStore 适配为 core.SimilarityStore。
// 每个源法案一个 zset（key 为 "sim:{source}"），member 为目标法案，
// score 为相似度。ZAdd 的覆盖语义天然满足 (source, target) 唯一。
type StoreSimilarityAdapter struct {
	store core.KeyValueStore
}

var _ core.SimilarityStore = (*StoreSimilarityAdapter)(nil)

func NewStoreSimilarityAdapter(store core.KeyValueStore) *StoreSimilarityAdapter {
	return &StoreSimilarityAdapter{store: store}
}

func (a *StoreSimilarityAdapter) Upsert(ctx context.Context, sourceID, targetID string, score float64) error {
	return a.store.ZAdd(ctx, simKeyPrefix+sourceID, score, targetID)
}

func (a *StoreSimilarityAdapter) TopSimilar(ctx context.Context, sourceID string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	return a.store.ZRange(ctx, simKeyPrefix+sourceID, 0, int64(n)-1)
}

func (a *StoreSimilarityAdapter) SumSimilar(ctx context.Context, sourceIDs []string, exclude []string, n int) ([]string, error) {
	if n <= 0 || len(sourceIDs) == 0 {
		return nil, nil
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	// 按目标法案累加各个源的相似度分数
	totals := make(map[string]float64)
	for _, sourceID := range sourceIDs {
		members, err := a.store.ZRangeWithScores(ctx, simKeyPrefix+sourceID, 0, -1)
		if err != nil {
			return nil, err
		}
		for _, zm := range members {
			if _, ok := excluded[zm.Member]; ok {
				continue
			}
			totals[zm.Member] += zm.Score
		}
	}

	candidates := make([]core.ZMember, 0, len(totals))
	for id, total := range totals {
		candidates = append(candidates, core.ZMember{Member: id, Score: total})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Member < candidates[j].Member
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	result := make([]string, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.Member)
	}
	return result, nil
}
