package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lawdna/billrec/config"
	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pkg/obs"
	"github.com/lawdna/billrec/store"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

// seedCatalog 写入 12 个法案：浏览量、议决日各不相同。
func seedCatalog(t *testing.T, kv *store.MemoryStore) *store.StoreCatalogAdapter {
	t.Helper()
	catalog := store.NewStoreCatalogAdapter(kv)
	items := make([]core.CatalogItem, 0, 12)
	for i := 1; i <= 12; i++ {
		items = append(items, core.CatalogItem{
			ID:         billID(i),
			Views:      int64(i * 10),
			ResolvedAt: day(i),
		})
	}
	if err := catalog.SaveItems(context.Background(), items); err != nil {
		t.Fatal(err)
	}
	return catalog
}

func billID(i int) string {
	return string(rune('a'+i-1)) + "-bill"
}

func newTestEngine(t *testing.T) (*Engine, *store.MemoryStore, *obs.Counter) {
	t.Helper()
	kv := store.NewMemoryStore()
	t.Cleanup(func() { kv.Close() })

	counter := obs.NewCounter()
	engine := NewEngine(
		store.NewStoreMetricsAdapter(kv, 2),
		seedCatalog(t, kv),
		store.NewStoreSimilarityAdapter(kv),
		config.DefaultSettings(),
		obs.NewLoggerTo(&bytes.Buffer{}, "engine"),
		counter,
	)
	return engine, kv, counter
}

func assertNoDuplicates(t *testing.T, ids []string) {
	t.Helper()
	seen := map[string]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			t.Errorf("duplicate id %s in recommendation", id)
		}
		seen[id] = struct{}{}
	}
}

func TestEngine_ColdStartComposition(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	// 没有任何近期互动的新用户
	rec, err := engine.RecommendForUser(context.Background(), "newcomer", 10, 12)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}

	if rec.NRecommendations != 12 {
		t.Errorf("NRecommendations = %d, want 12", rec.NRecommendations)
	}
	if rec.NContents != 10 {
		t.Errorf("NContents = %d, want echo of request value 10", rec.NContents)
	}
	if len(rec.RecommendedContentIDs) != 12 {
		t.Fatalf("got %d bills, want full quota of 12", len(rec.RecommendedContentIDs))
	}
	assertNoDuplicates(t, rec.RecommendedContentIDs)

	// 前 6 个是浏览量最高的（降序）
	wantTop := []string{billID(12), billID(11), billID(10), billID(9), billID(8), billID(7)}
	for i, want := range wantTop {
		if rec.RecommendedContentIDs[i] != want {
			t.Errorf("ids[%d] = %s, want %s (best sellers first)", i, rec.RecommendedContentIDs[i], want)
		}
	}
}

func TestEngine_InsufficientRecentFallsBackToColdStart(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	metrics := store.NewStoreMetricsAdapter(kv, 2)
	if err := metrics.SetRecent(context.Background(), "light", []string{billID(1)}); err != nil {
		t.Fatal(err)
	}

	rec, err := engine.RecommendForUser(context.Background(), "light", 10, 12)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	// 互动不足走冷启动：首位仍是最热门法案
	if rec.RecommendedContentIDs[0] != billID(12) {
		t.Errorf("ids[0] = %s, want %s", rec.RecommendedContentIDs[0], billID(12))
	}
	assertNoDuplicates(t, rec.RecommendedContentIDs)
}

func TestEngine_WarmPathUsesSimilarity(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	ctx := context.Background()

	metrics := store.NewStoreMetricsAdapter(kv, 2)
	if err := metrics.SetRecent(ctx, "reader", []string{billID(1), billID(2)}); err != nil {
		t.Fatal(err)
	}

	sims := store.NewStoreSimilarityAdapter(kv)
	for target, score := range map[string]float64{billID(5): 0.9, billID(6): 0.7} {
		if err := sims.Upsert(ctx, billID(1), target, score); err != nil {
			t.Fatal(err)
		}
	}
	if err := sims.Upsert(ctx, billID(2), billID(6), 0.5); err != nil {
		t.Fatal(err)
	}

	rec, err := engine.RecommendForUser(ctx, "reader", 10, 4)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if len(rec.RecommendedContentIDs) != 4 {
		t.Fatalf("got %d bills, want 4", len(rec.RecommendedContentIDs))
	}
	assertNoDuplicates(t, rec.RecommendedContentIDs)

	// n_random=2，相似度聚合占前 2 席：b6 总分 1.2 > b5 0.9
	if rec.RecommendedContentIDs[0] != billID(6) || rec.RecommendedContentIDs[1] != billID(5) {
		t.Errorf("similarity slots = %v, want [%s %s] first", rec.RecommendedContentIDs[:2], billID(6), billID(5))
	}

	// 种子法案自身不该被推荐
	for _, id := range rec.RecommendedContentIDs {
		if id == billID(1) || id == billID(2) {
			t.Errorf("recently read bill %s recommended again", id)
		}
	}
}

func TestEngine_LookbackWindowBoundsRecent(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	ctx := context.Background()

	metrics := store.NewStoreMetricsAdapter(kv, 2)
	if err := metrics.SetRecent(ctx, "reader", []string{billID(1), billID(2), billID(3)}); err != nil {
		t.Fatal(err)
	}

	sims := store.NewStoreSimilarityAdapter(kv)
	if err := sims.Upsert(ctx, billID(1), billID(5), 0.9); err != nil {
		t.Fatal(err)
	}
	// b3 的相似度更高，但 n_contents=2 时 b3 在回看窗口之外
	if err := sims.Upsert(ctx, billID(3), billID(6), 2.0); err != nil {
		t.Fatal(err)
	}

	rec, err := engine.RecommendForUser(ctx, "reader", 2, 4)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if rec.NContents != 2 {
		t.Errorf("NContents = %d, want echo of request value 2", rec.NContents)
	}
	if rec.RecommendedContentIDs[0] != billID(5) {
		t.Errorf("ids[0] = %s, want %s (seeds limited to window)", rec.RecommendedContentIDs[0], billID(5))
	}

	// n_contents <= 0 时退回配置默认窗口，b3 进入种子
	rec, err = engine.RecommendForUser(ctx, "reader", 0, 4)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if rec.NContents != 0 {
		t.Errorf("NContents = %d, want echo of request value 0", rec.NContents)
	}
	if rec.RecommendedContentIDs[0] != billID(6) {
		t.Errorf("ids[0] = %s, want %s (default window covers all seeds)", rec.RecommendedContentIDs[0], billID(6))
	}
}

func TestEngine_TopUpFillsShortfall(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	ctx := context.Background()

	metrics := store.NewStoreMetricsAdapter(kv, 2)
	if err := metrics.SetRecent(ctx, "reader", []string{billID(1), billID(2)}); err != nil {
		t.Fatal(err)
	}
	// 只有一条相似度数据：相似度位填不满，随机补齐
	sims := store.NewStoreSimilarityAdapter(kv)
	if err := sims.Upsert(ctx, billID(1), billID(5), 0.9); err != nil {
		t.Fatal(err)
	}

	rec, err := engine.RecommendForUser(ctx, "reader", 10, 6)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if len(rec.RecommendedContentIDs) != 6 {
		t.Fatalf("got %d bills, want 6 after top-up", len(rec.RecommendedContentIDs))
	}
	assertNoDuplicates(t, rec.RecommendedContentIDs)
}

func TestEngine_ResultNeverExceedsRequested(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	rec, err := engine.RecommendForUser(context.Background(), "newcomer", 10, 3)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if len(rec.RecommendedContentIDs) != 3 {
		t.Errorf("got %d bills, want 3", len(rec.RecommendedContentIDs))
	}

	rec, err = engine.RecommendForUser(context.Background(), "newcomer", 10, 0)
	if err != nil {
		t.Fatalf("RecommendForUser(0) error = %v", err)
	}
	if len(rec.RecommendedContentIDs) != 0 {
		t.Errorf("n=0 returned %v", rec.RecommendedContentIDs)
	}
}

type failingMetrics struct{}

func (failingMetrics) GetInteractions(ctx context.Context) ([]core.InteractionRecord, error) {
	return nil, errors.New("redis: connection refused")
}

func (failingMetrics) GetRecent(ctx context.Context, userID string, limit int) ([]string, core.RecentState, error) {
	return nil, core.RecentEmpty, errors.New("redis: connection refused")
}

func TestEngine_ErrorBoundary(t *testing.T) {
	var logs bytes.Buffer
	counter := obs.NewCounter()
	kv := store.NewMemoryStore()
	defer kv.Close()

	engine := NewEngine(
		failingMetrics{},
		seedCatalog(t, kv),
		store.NewStoreSimilarityAdapter(kv),
		config.DefaultSettings(),
		obs.NewLoggerTo(&logs, "engine"),
		counter,
	)

	_, err := engine.RecommendForUser(context.Background(), "u1", 10, 12)
	if !errors.Is(err, core.ErrInternal) {
		t.Fatalf("error = %v, want opaque internal error", err)
	}
	if counter.Count("recommend_for_user") != 1 {
		t.Errorf("exception count = %d, want 1", counter.Count("recommend_for_user"))
	}
	if !bytes.Contains(logs.Bytes(), []byte("connection refused")) {
		t.Error("underlying cause not logged")
	}

	_, err = engine.RecommendCollaborative(context.Background(), "u1", 5, 0)
	if !errors.Is(err, core.ErrInternal) {
		t.Fatalf("collaborative error = %v, want opaque internal error", err)
	}
	if counter.Count("recommend_collaborative") != 1 {
		t.Errorf("collaborative exception count = %d", counter.Count("recommend_collaborative"))
	}
}

func TestEngine_RecommendCollaborative(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	ctx := context.Background()

	metrics := store.NewStoreMetricsAdapter(kv, 2)
	base := day(1)
	records := []core.InteractionRecord{
		{UserID: "u1", ItemID: billID(1), Score: 5, UpdatedAt: base},
		{UserID: "u1", ItemID: billID(2), Score: 4, UpdatedAt: base},
		{UserID: "u2", ItemID: billID(1), Score: 5, UpdatedAt: base},
		{UserID: "u2", ItemID: billID(2), Score: 4, UpdatedAt: base},
		{UserID: "u2", ItemID: billID(3), Score: 2, UpdatedAt: base},
	}
	for _, r := range records {
		if err := metrics.SaveInteraction(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	rec, err := engine.RecommendCollaborative(ctx, "u1", 5, 0)
	if err != nil {
		t.Fatalf("RecommendCollaborative() error = %v", err)
	}
	if rec.NContents != 1 || rec.RecommendedContentIDs[0] != billID(3) {
		t.Errorf("RecommendCollaborative() = %v, want [%s]", rec.RecommendedContentIDs, billID(3))
	}
}

func TestEngine_SimilarItems(t *testing.T) {
	engine, kv, _ := newTestEngine(t)
	ctx := context.Background()

	sims := store.NewStoreSimilarityAdapter(kv)
	for target, score := range map[string]float64{billID(2): 0.8, billID(3): 0.4} {
		if err := sims.Upsert(ctx, billID(1), target, score); err != nil {
			t.Fatal(err)
		}
	}

	got, err := engine.SimilarItems(ctx, billID(1), 1)
	if err != nil {
		t.Fatalf("SimilarItems() error = %v", err)
	}
	if len(got) != 1 || got[0] != billID(2) {
		t.Errorf("SimilarItems() = %v, want [%s]", got, billID(2))
	}

	// 没有相似度数据时返回空列表而非错误
	got, err = engine.SimilarItems(ctx, "unknown", 5)
	if err != nil {
		t.Fatalf("SimilarItems(unknown) error = %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("SimilarItems(unknown) = %v, want empty slice", got)
	}
}
