package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lawdna/billrec/core"
)

const (
	catalogKey = "catalog:items"

	// ViewsKey 是法案浏览量的 zset key，供热门召回直接读取
	ViewsKey = "catalog:views"
)

// StoreCatalogAdapter 把 core.Store 适配为 core.CatalogStore。
// 法案目录整体存为一个 JSON 数组；写入时若底层支持有序集合，
// 同步维护浏览量 zset，热门召回可以走 ZRange 而不必全量扫描。
type StoreCatalogAdapter struct {
	store core.Store
}

var _ core.CatalogStore = (*StoreCatalogAdapter)(nil)

func NewStoreCatalogAdapter(store core.Store) *StoreCatalogAdapter {
	return &StoreCatalogAdapter{store: store}
}

func (a *StoreCatalogAdapter) GetItems(ctx context.Context) ([]core.CatalogItem, error) {
	data, err := a.store.Get(ctx, catalogKey)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []core.CatalogItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal catalog: %w", err)
	}
	return items, nil
}

// SaveItems 覆盖写入整个法案目录。
func (a *StoreCatalogAdapter) SaveItems(ctx context.Context, items []core.CatalogItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	if err := a.store.Set(ctx, catalogKey, data); err != nil {
		return err
	}

	if kv, ok := a.store.(core.KeyValueStore); ok {
		for _, item := range items {
			if err := kv.ZAdd(ctx, ViewsKey, float64(item.Views), item.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
