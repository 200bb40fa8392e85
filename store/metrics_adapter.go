package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/lawdna/billrec/core"
)

const (
	interactionsKey = "metrics:interactions"
	recentKeyPrefix = "metrics:recent:"
)

// StoreMetricsAdapter 把 core.Store 适配为 core.MetricsStore。
// 互动记录整体存为一个 JSON map，key 为 "user|item"，天然保证
// (UserID, ItemID) 唯一：同一对的后写覆盖前写。
type StoreMetricsAdapter struct {
	store core.Store

	// MinRecent 是近期互动的可信阈值：少于该值返回 RecentInsufficient
	MinRecent int

	mu sync.Mutex // 保护 read-modify-write
}

var _ core.MetricsStore = (*StoreMetricsAdapter)(nil)

func NewStoreMetricsAdapter(store core.Store, minRecent int) *StoreMetricsAdapter {
	if minRecent <= 0 {
		minRecent = 1
	}
	return &StoreMetricsAdapter{store: store, MinRecent: minRecent}
}

func (a *StoreMetricsAdapter) GetInteractions(ctx context.Context) ([]core.InteractionRecord, error) {
	byPair, err := a.load(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]core.InteractionRecord, 0, len(byPair))
	for _, r := range byPair {
		records = append(records, r)
	}
	return records, nil
}

// SaveInteraction 写入/覆盖一条互动记录（upsert 语义）。
func (a *StoreMetricsAdapter) SaveInteraction(ctx context.Context, record core.InteractionRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	byPair, err := a.load(ctx)
	if err != nil {
		return err
	}
	byPair[record.UserID+"|"+record.ItemID] = record

	data, err := json.Marshal(byPair)
	if err != nil {
		return fmt.Errorf("marshal interactions: %w", err)
	}
	return a.store.Set(ctx, interactionsKey, data)
}

func (a *StoreMetricsAdapter) GetRecent(ctx context.Context, userID string, limit int) ([]string, core.RecentState, error) {
	data, err := a.store.Get(ctx, recentKeyPrefix+userID)
	if core.IsStoreNotFound(err) {
		return nil, core.RecentEmpty, nil
	}
	if err != nil {
		return nil, core.RecentEmpty, err
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, core.RecentEmpty, fmt.Errorf("unmarshal recent: %w", err)
	}

	if len(ids) == 0 {
		return nil, core.RecentEmpty, nil
	}
	if len(ids) < a.MinRecent {
		return ids, core.RecentInsufficient, nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, core.RecentSome, nil
}

// SetRecent 写入某用户的近期互动列表（最近的在前）。
func (a *StoreMetricsAdapter) SetRecent(ctx context.Context, userID string, itemIDs []string) error {
	data, err := json.Marshal(itemIDs)
	if err != nil {
		return fmt.Errorf("marshal recent: %w", err)
	}
	return a.store.Set(ctx, recentKeyPrefix+userID, data)
}

func (a *StoreMetricsAdapter) load(ctx context.Context) (map[string]core.InteractionRecord, error) {
	byPair := make(map[string]core.InteractionRecord)

	data, err := a.store.Get(ctx, interactionsKey)
	if core.IsStoreNotFound(err) {
		return byPair, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &byPair); err != nil {
		return nil, fmt.Errorf("unmarshal interactions: %w", err)
	}
	return byPair, nil
}
