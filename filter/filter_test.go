package filter

import (
	"context"
	"testing"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pkg/utils"
)

func labelValue(v string) utils.Label {
	return utils.Label{Value: v, Source: "test"}
}

func TestExcludeFilter(t *testing.T) {
	f := &ExcludeFilter{ItemIDs: []string{"b1"}, FromContext: true}
	rctx := &core.RecommendContext{
		UserID: "u1",
		Params: map[string]any{"exclude": []string{"b2"}},
	}

	tests := []struct {
		id   string
		want bool
	}{
		{"b1", true},  // 固定列表
		{"b2", true},  // 上下文排除集
		{"b3", false}, // 保留
	}
	for _, tt := range tests {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(tt.id))
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.id, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestExprFilter(t *testing.T) {
	f := &ExprFilter{Expr: `item.score < 2.0 || label.recall_source == "random"`}

	lowScore := core.NewItem("b1")
	lowScore.Score = 1.0

	random := core.NewItem("b2")
	random.Score = 9.0
	random.PutLabel("recall_source", labelValue("random"))

	keep := core.NewItem("b3")
	keep.Score = 9.0
	keep.PutLabel("recall_source", labelValue("cf"))

	rctx := &core.RecommendContext{UserID: "u1"}

	for _, tt := range []struct {
		item *core.Item
		want bool
	}{
		{lowScore, true},
		{random, true},
		{keep, false},
	} {
		got, err := f.ShouldFilter(context.Background(), rctx, tt.item)
		if err != nil {
			t.Fatalf("ShouldFilter(%s) error = %v", tt.item.ID, err)
		}
		if got != tt.want {
			t.Errorf("ShouldFilter(%s) = %v, want %v", tt.item.ID, got, tt.want)
		}
	}
}

func TestExprFilter_EmptyExprKeepsAll(t *testing.T) {
	f := &ExprFilter{}
	got, err := f.ShouldFilter(context.Background(), nil, core.NewItem("b1"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("empty expression should keep the item")
	}
}

type fakeSeen struct {
	seen map[string]bool
}

func (f *fakeSeen) Seen(ctx context.Context, userID, itemID string) (bool, error) {
	return f.seen[userID+"|"+itemID], nil
}

func TestSeenFilter(t *testing.T) {
	f := &SeenFilter{Checker: &fakeSeen{seen: map[string]bool{"u1|b1": true}}}
	rctx := &core.RecommendContext{UserID: "u1"}

	got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem("b1"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if !got {
		t.Error("already shown bill should be filtered")
	}

	got, err = f.ShouldFilter(context.Background(), rctx, core.NewItem("b2"))
	if err != nil {
		t.Fatalf("ShouldFilter() error = %v", err)
	}
	if got {
		t.Error("unseen bill should be kept")
	}
}

func TestFilterNode_LabelsFiltered(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&ExcludeFilter{ItemIDs: []string{"b2"}},
	}}

	items := []*core.Item{core.NewItem("b1"), core.NewItem("b2"), core.NewItem("b3")}
	out, err := node.Process(context.Background(), &core.RecommendContext{UserID: "u1"}, items)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("Process() kept %d items, want 2", len(out))
	}
	for _, it := range out {
		if it.ID == "b2" {
			t.Error("b2 should have been filtered")
		}
	}
	if items[1].Labels["filtered"].Source != "filter.exclude" {
		t.Errorf("filtered label source = %q, want filter.exclude", items[1].Labels["filtered"].Source)
	}
}
