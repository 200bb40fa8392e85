// Package cf 实现基于记忆的协同过滤核心：
// 用户-法案互动矩阵、用户余弦相似度、KNN 评分预测与 Top-N 推荐。
//
// 所有阶段都是显式的纯函数/值传递：每次推荐调用从存储全量重建矩阵，
// 不存在增量更新路径，正确性只依赖读取时存储是唯一事实来源。
package cf

import (
	"math"
	"sort"
	"time"

	"github.com/lawdna/billrec/core"
)

// Matrix 是用户-法案互动矩阵：user_id -> item_id -> score。
// 条目缺失表示“未互动”，与 0 分在语义上严格区分——
// 只有相似度计算内部才把缺失当 0，缺失判断永远基于条目是否存在。
type Matrix map[string]map[string]float64

// Builder 控制矩阵构建：去重策略固定为 (user, item) 取最新 UpdatedAt，
// DecayRate > 0 时在透视之前对每条记录施加指数时间衰减。
type Builder struct {
	// DecayRate 每天的衰减率，0 表示不衰减。常用默认 0.01/day。
	DecayRate float64

	// Now 衰减的基准时间，零值时取 time.Now()。
	Now time.Time
}

// Build 从原始互动记录构建矩阵。
// 同一 (user, item) 出现多条时保留 UpdatedAt 最新的一条（upsert 语义）。
func (b Builder) Build(records []core.InteractionRecord) Matrix {
	now := b.Now
	if now.IsZero() {
		now = time.Now()
	}

	// 先按 (user, item) 去重，取最新
	latest := make(map[string]map[string]core.InteractionRecord)
	for _, rec := range records {
		if rec.UserID == "" || rec.ItemID == "" {
			continue
		}
		row := latest[rec.UserID]
		if row == nil {
			row = make(map[string]core.InteractionRecord)
			latest[rec.UserID] = row
		}
		if old, ok := row[rec.ItemID]; ok && old.UpdatedAt.After(rec.UpdatedAt) {
			continue
		}
		row[rec.ItemID] = rec
	}

	m := make(Matrix, len(latest))
	for userID, row := range latest {
		cells := make(map[string]float64, len(row))
		for itemID, rec := range row {
			score := rec.Score
			if b.DecayRate > 0 {
				age := now.Sub(rec.UpdatedAt).Hours() / 24
				if age < 0 {
					age = 0
				}
				score = score * math.Exp(-b.DecayRate*age)
			}
			cells[itemID] = score
		}
		m[userID] = cells
	}
	return m
}

// Users 返回矩阵中全部用户 ID（升序，保证遍历确定性）。
func (m Matrix) Users() []string {
	out := make([]string, 0, len(m))
	for userID := range m {
		out = append(out, userID)
	}
	sort.Strings(out)
	return out
}

// Items 返回矩阵中出现过的全部法案 ID（升序）。
func (m Matrix) Items() []string {
	seen := make(map[string]struct{})
	for _, row := range m {
		for itemID := range row {
			seen[itemID] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for itemID := range seen {
		out = append(out, itemID)
	}
	sort.Strings(out)
	return out
}

// Has 判断该用户对该法案是否存在互动条目（0 分也算存在）。
func (m Matrix) Has(userID, itemID string) bool {
	row, ok := m[userID]
	if !ok {
		return false
	}
	_, ok = row[itemID]
	return ok
}

// Rated 判断该用户是否已消费该法案（存在条目且分数 > 0）。
// 推荐候选集的排除规则按此判断。
func (m Matrix) Rated(userID, itemID string) bool {
	row, ok := m[userID]
	if !ok {
		return false
	}
	score, ok := row[itemID]
	return ok && score > 0
}

// RowMean 返回该用户已有条目的平均分；用户没有任何条目时 ok 为 false。
func (m Matrix) RowMean(userID string) (mean float64, ok bool) {
	row, exists := m[userID]
	if !exists || len(row) == 0 {
		return 0, false
	}
	var sum float64
	for _, score := range row {
		sum += score
	}
	return sum / float64(len(row)), true
}

// HasItem 判断是否有任何用户与该法案互动过（是否存在该列）。
func (m Matrix) HasItem(itemID string) bool {
	for _, row := range m {
		if _, ok := row[itemID]; ok {
			return true
		}
	}
	return false
}
