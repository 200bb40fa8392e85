package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lawdna/billrec/recall"
	"github.com/lawdna/billrec/rerank"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Variant != "knn" {
		t.Errorf("Variant = %q, want knn", s.Variant)
	}
	if s.DefaultScore != 5.0 {
		t.Errorf("DefaultScore = %v, want 5.0", s.DefaultScore)
	}
	if s.SigLevel != 3 || s.MinRatings != 2 {
		t.Errorf("SigLevel/MinRatings = %d/%d, want 3/2", s.SigLevel, s.MinRatings)
	}
	if s.RandomSeed != 42 {
		t.Errorf("RandomSeed = %d, want 42", s.RandomSeed)
	}

	q := s.ColdStart
	if q.BestSellers != 6 || q.Newest != 2 || q.WorstSellers != 2 || q.Random != 2 {
		t.Errorf("cold start quota = %+v, want 6/2/2/2", q)
	}
}

func TestLoadSettings_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	yaml := `
variant: knn_bias_sig
neighbor_size: 20
n_random: 3
cold_start:
  best_sellers: 8
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.Variant != "knn_bias_sig" {
		t.Errorf("Variant = %q, want knn_bias_sig", s.Variant)
	}
	if s.NeighborSize != 20 {
		t.Errorf("NeighborSize = %d, want 20", s.NeighborSize)
	}
	if s.NRandom != 3 {
		t.Errorf("NRandom = %d, want 3", s.NRandom)
	}
	if s.ColdStart.BestSellers != 8 {
		t.Errorf("ColdStart.BestSellers = %d, want 8", s.ColdStart.BestSellers)
	}
	// 未覆盖的保持默认
	if s.ColdStart.Random != 2 {
		t.Errorf("ColdStart.Random = %d, want default 2", s.ColdStart.Random)
	}
}

func TestLoadSettings_EnvOverride(t *testing.T) {
	t.Setenv("BILLREC_NEIGHBOR_SIZE", "33")

	s, err := LoadSettings("")
	if err != nil {
		t.Fatalf("LoadSettings() error = %v", err)
	}
	if s.NeighborSize != 33 {
		t.Errorf("NeighborSize = %d, want 33 from env", s.NeighborSize)
	}
}

func TestDefaultFactory_BuildsNodes(t *testing.T) {
	factory := DefaultFactory(Deps{})

	node, err := factory.Build("recall.best_seller", map[string]interface{}{"topn": 6})
	if err != nil {
		t.Fatalf("Build(recall.best_seller) error = %v", err)
	}
	bs, ok := node.(*recall.BestSeller)
	if !ok {
		t.Fatalf("node type = %T", node)
	}
	if bs.TopN != 6 {
		t.Errorf("TopN = %d, want 6", bs.TopN)
	}

	node, err = factory.Build("rerank.topn", map[string]interface{}{"n": 12})
	if err != nil {
		t.Fatalf("Build(rerank.topn) error = %v", err)
	}
	if tn := node.(*rerank.TopNNode); tn.N != 12 {
		t.Errorf("N = %d, want 12", tn.N)
	}

	node, err = factory.Build("recall.factorization", map[string]interface{}{"topk": 30})
	if err != nil {
		t.Fatalf("Build(recall.factorization) error = %v", err)
	}
	if mf := node.(*recall.Factorization); mf.TopK != 30 {
		t.Errorf("TopK = %d, want 30", mf.TopK)
	}

	if _, err := factory.Build("rank.dnn", nil); err == nil {
		t.Error("unknown node type should fail")
	}
}

func TestDefaultFactory_FanoutWithSources(t *testing.T) {
	factory := DefaultFactory(Deps{})

	node, err := factory.Build("recall.fanout", map[string]interface{}{
		"dedup":          true,
		"merge_strategy": "priority",
		"sources": []interface{}{
			map[string]interface{}{"type": "best_seller", "topn": 6},
			map[string]interface{}{"type": "random", "topn": 2, "seed": 7},
		},
	})
	if err != nil {
		t.Fatalf("Build(recall.fanout) error = %v", err)
	}

	fanout := node.(*recall.Fanout)
	if len(fanout.Sources) != 2 {
		t.Fatalf("fanout has %d sources, want 2", len(fanout.Sources))
	}
	if fanout.MergeStrategy != "priority" {
		t.Errorf("MergeStrategy = %q", fanout.MergeStrategy)
	}
	if r := fanout.Sources[1].(*recall.Random); r.Seed != 7 {
		t.Errorf("random seed = %d, want 7", r.Seed)
	}
}
