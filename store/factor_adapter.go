package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/recall"
)

const (
	factorGlobalKey  = "mf:global"
	factorUserPrefix = "mf:user:"
	factorItemPrefix = "mf:item:"
	factorItemsKey   = "mf:items"
)

// StoreFactorAdapter 把 core.Store 适配为 recall.FactorStore。
// 离线训练任务把隐向量写进来，召回侧在线查表。
//
// key 布局：
//   - mf:global     全局偏置（JSON float64）
//   - mf:user:{id}  用户隐向量与偏置
//   - mf:item:{id}  法案隐向量与偏置
//   - mf:items      全部法案 ID 列表（JSON []string）
type StoreFactorAdapter struct {
	store core.Store

	mu sync.Mutex // 保护 items 列表的 read-modify-write
}

var _ recall.FactorStore = (*StoreFactorAdapter)(nil)

func NewStoreFactorAdapter(store core.Store) *StoreFactorAdapter {
	return &StoreFactorAdapter{store: store}
}

// GlobalBias 返回全局偏置；未写入时为 0。
func (a *StoreFactorAdapter) GlobalBias(ctx context.Context) (float64, error) {
	data, err := a.store.Get(ctx, factorGlobalKey)
	if core.IsStoreNotFound(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var bias float64
	if err := json.Unmarshal(data, &bias); err != nil {
		return 0, fmt.Errorf("unmarshal global bias: %w", err)
	}
	return bias, nil
}

func (a *StoreFactorAdapter) SaveGlobalBias(ctx context.Context, bias float64) error {
	data, err := json.Marshal(bias)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, factorGlobalKey, data)
}

// UserFactors 返回某用户的隐向量；未训练到的用户返回 nil。
func (a *StoreFactorAdapter) UserFactors(ctx context.Context, userID string) (*recall.Factors, error) {
	return a.getFactors(ctx, factorUserPrefix+userID)
}

func (a *StoreFactorAdapter) SaveUserFactors(ctx context.Context, userID string, f recall.Factors) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, factorUserPrefix+userID, data)
}

// SaveItemFactors 写入某法案的隐向量，并把 ID 记入法案列表。
func (a *StoreFactorAdapter) SaveItemFactors(ctx context.Context, itemID string, f recall.Factors) error {
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if err := a.store.Set(ctx, factorItemPrefix+itemID, data); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	ids, err := a.itemIDs(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == itemID {
			return nil
		}
	}
	ids = append(ids, itemID)
	sort.Strings(ids)
	listData, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	return a.store.Set(ctx, factorItemsKey, listData)
}

// AllItemFactors 返回所有法案的隐向量；列表中有 ID 但向量缺失的跳过。
func (a *StoreFactorAdapter) AllItemFactors(ctx context.Context) (map[string]*recall.Factors, error) {
	ids, err := a.itemIDs(ctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*recall.Factors, len(ids))
	for _, id := range ids {
		f, err := a.getFactors(ctx, factorItemPrefix+id)
		if err != nil {
			return nil, err
		}
		if f != nil && len(f.Vector) > 0 {
			out[id] = f
		}
	}
	return out, nil
}

func (a *StoreFactorAdapter) getFactors(ctx context.Context, key string) (*recall.Factors, error) {
	data, err := a.store.Get(ctx, key)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var f recall.Factors
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal factors: %w", err)
	}
	return &f, nil
}

func (a *StoreFactorAdapter) itemIDs(ctx context.Context) ([]string, error) {
	data, err := a.store.Get(ctx, factorItemsKey)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("unmarshal factor items: %w", err)
	}
	return ids, nil
}
