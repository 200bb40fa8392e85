package feast

import (
	"context"
	"strings"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/pkg/conv"
)

const (
	// FeatureRecentBills 是近期互动法案列表特征（逗号分隔的 bill ID 串，最近的在前）
	FeatureRecentBills = "user_activity:recent_bill_ids"
)

// MetricsProvider 把 Feast 在线特征叠加到一个基础 core.MetricsStore 之上。
//
// 全量互动记录走基础存储（矩阵重建需要批量数据，不适合在线点查）；
// 近期互动列表优先读 Feast 在线特征（离线任务物化，延迟更低），
// 读取失败或特征缺失时回退到基础存储。
type MetricsProvider struct {
	// Client 是 Feast 客户端
	Client Client

	// Fallback 是基础互动存储
	Fallback core.MetricsStore

	// MinRecent 是近期互动的可信阈值：少于该值返回 RecentInsufficient
	MinRecent int
}

var _ core.MetricsStore = (*MetricsProvider)(nil)

func (p *MetricsProvider) GetInteractions(ctx context.Context) ([]core.InteractionRecord, error) {
	return p.Fallback.GetInteractions(ctx)
}

func (p *MetricsProvider) GetRecent(ctx context.Context, userID string, limit int) ([]string, core.RecentState, error) {
	ids, ok := p.recentFromFeast(ctx, userID)
	if !ok {
		return p.Fallback.GetRecent(ctx, userID, limit)
	}

	if len(ids) == 0 {
		return nil, core.RecentEmpty, nil
	}
	minRecent := p.MinRecent
	if minRecent <= 0 {
		minRecent = 1
	}
	if len(ids) < minRecent {
		return ids, core.RecentInsufficient, nil
	}
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, core.RecentSome, nil
}

func (p *MetricsProvider) recentFromFeast(ctx context.Context, userID string) ([]string, bool) {
	if p.Client == nil {
		return nil, false
	}

	resp, err := p.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{FeatureRecentBills},
		EntityRows: []map[string]interface{}{{"user_id": userID}},
	})
	if err != nil || len(resp.FeatureVectors) == 0 {
		return nil, false
	}

	raw, exists := resp.FeatureVectors[0].Values[FeatureRecentBills]
	if !exists {
		return nil, false
	}

	joined, ok := conv.ToString(raw)
	if !ok {
		return nil, false
	}
	if joined == "" {
		return []string{}, true
	}

	parts := strings.Split(joined, ",")
	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		id := strings.TrimSpace(part)
		if id != "" {
			ids = append(ids, id)
		}
	}
	return ids, true
}
