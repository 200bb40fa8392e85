package store

// 注意：此包只包含实现，接口定义在 core 包。
// 使用 core.Store / core.KeyValueStore 及领域数据接口
// （core.MetricsStore、core.CatalogStore、core.SimilarityStore）。
//
// 示例：
//   kv := NewMemoryStore()
//   metrics := NewStoreMetricsAdapter(kv, 3)
//   catalog := NewStoreCatalogAdapter(kv)
//   sims := NewStoreSimilarityAdapter(kv)
