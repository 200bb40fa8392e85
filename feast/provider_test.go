package feast

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/lawdna/billrec/core"
)

type fakeClient struct {
	recent string
	err    error
}

func (f *fakeClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &GetOnlineFeaturesResponse{
		FeatureVectors: []FeatureVector{
			{Values: map[string]interface{}{FeatureRecentBills: f.recent}},
		},
	}, nil
}

func (f *fakeClient) Close() error { return nil }

type fallbackMetrics struct {
	recent []string
	state  core.RecentState
}

func (f *fallbackMetrics) GetInteractions(ctx context.Context) ([]core.InteractionRecord, error) {
	return nil, nil
}

func (f *fallbackMetrics) GetRecent(ctx context.Context, userID string, limit int) ([]string, core.RecentState, error) {
	return f.recent, f.state, nil
}

func TestMetricsProvider_RecentFromFeast(t *testing.T) {
	p := &MetricsProvider{
		Client:    &fakeClient{recent: "b1, b2,b3"},
		Fallback:  &fallbackMetrics{},
		MinRecent: 2,
	}

	ids, state, err := p.GetRecent(context.Background(), "u1", 2)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if state != core.RecentSome {
		t.Errorf("state = %v, want some", state)
	}
	if !reflect.DeepEqual(ids, []string{"b1", "b2"}) {
		t.Errorf("ids = %v, want [b1 b2] (trimmed, limited)", ids)
	}
}

func TestMetricsProvider_InsufficientFromFeast(t *testing.T) {
	p := &MetricsProvider{
		Client:    &fakeClient{recent: "b1"},
		Fallback:  &fallbackMetrics{},
		MinRecent: 3,
	}

	ids, state, err := p.GetRecent(context.Background(), "u1", 5)
	if err != nil {
		t.Fatal(err)
	}
	if state != core.RecentInsufficient || len(ids) != 1 {
		t.Errorf("GetRecent() = %v, %v, want insufficient with ids", ids, state)
	}
}

func TestMetricsProvider_FallsBackOnError(t *testing.T) {
	p := &MetricsProvider{
		Client:   &fakeClient{err: errors.New("feast unavailable")},
		Fallback: &fallbackMetrics{recent: []string{"b9"}, state: core.RecentSome},
	}

	ids, state, err := p.GetRecent(context.Background(), "u1", 5)
	if err != nil {
		t.Fatalf("GetRecent() error = %v", err)
	}
	if state != core.RecentSome || !reflect.DeepEqual(ids, []string{"b9"}) {
		t.Errorf("fallback not used: %v, %v", ids, state)
	}
}
