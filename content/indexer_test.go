package content

import (
	"context"
	"reflect"
	"testing"

	"github.com/lawdna/billrec/store"
)

func TestIndexer_SyncSimilarities(t *testing.T) {
	kv := store.NewMemoryStore()
	defer kv.Close()
	ctx := context.Background()

	ix := &Indexer{
		Vectors: store.NewMemoryVectorService(),
		Sims:    store.NewStoreSimilarityAdapter(kv),
		TopK:    2,
	}

	embeddings := map[string][]float64{
		"b1": {1, 0},
		"b2": {0.9, 0.1}, // 与 b1 接近
		"b3": {0, 1},     // 与 b1 正交
	}
	if err := ix.Fit(ctx, embeddings); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if err := ix.SyncSimilarities(ctx, embeddings); err != nil {
		t.Fatalf("SyncSimilarities() error = %v", err)
	}

	top, err := ix.Sims.TopSimilar(ctx, "b1", 1)
	if err != nil {
		t.Fatalf("TopSimilar() error = %v", err)
	}
	if !reflect.DeepEqual(top, []string{"b2"}) {
		t.Errorf("TopSimilar(b1) = %v, want [b2]", top)
	}

	// 自身不会出现在自己的近邻里
	all, err := ix.Sims.TopSimilar(ctx, "b1", 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range all {
		if id == "b1" {
			t.Error("b1 appears in its own neighbor list")
		}
	}

	// 重算覆盖而非追加
	if err := ix.SyncSimilarities(ctx, embeddings); err != nil {
		t.Fatal(err)
	}
	again, err := ix.Sims.TopSimilar(ctx, "b1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(again, all) {
		t.Errorf("recompute changed neighbors: %v vs %v", again, all)
	}
}
