package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Settings 是推荐引擎的运行参数。
// 加载优先级：默认值 < YAML 配置文件 < 环境变量（BILLREC_ 前缀）。
type Settings struct {
	// CF 预测参数
	Variant      string  `koanf:"variant"`       // simple / knn / knn_bias / knn_bias_sig
	NeighborSize int     `koanf:"neighbor_size"` // KNN 邻居数，0 表示全部评分者
	DecayRate    float64 `koanf:"decay_rate"`    // 互动分时间衰减率（每天）
	DefaultScore float64 `koanf:"default_score"` // 未知用户/法案的默认预测分
	SigLevel     int     `koanf:"sig_level"`     // 显著性过滤的共同评分阈值
	MinRatings   int     `koanf:"min_ratings"`   // 过滤后继续预测所需的最少评分者数

	// 组合策略参数
	NRandom     int   `koanf:"n_random"`     // 每次推荐中的随机探索名额
	MinRecent   int   `koanf:"min_recent"`   // 近期互动的可信阈值
	RecentLimit int   `koanf:"recent_limit"` // 相似度聚合使用的近期互动条数上限
	RandomSeed  int64 `koanf:"random_seed"`

	// 冷启动组合配额
	ColdStart ColdStartQuota `koanf:"cold_start"`
}

// ColdStartQuota 是冷启动组合中各召回源的名额。
type ColdStartQuota struct {
	BestSellers  int `koanf:"best_sellers"`
	Newest       int `koanf:"newest"`
	WorstSellers int `koanf:"worst_sellers"`
	Random       int `koanf:"random"`
}

// DefaultSettings 返回默认运行参数。
func DefaultSettings() Settings {
	return Settings{
		Variant:      "knn",
		NeighborSize: 10,
		DecayRate:    0,
		DefaultScore: 5.0,
		SigLevel:     3,
		MinRatings:   2,
		NRandom:      2,
		MinRecent:    2,
		RecentLimit:  10,
		RandomSeed:   42,
		ColdStart: ColdStartQuota{
			BestSellers:  6,
			Newest:       2,
			WorstSellers: 2,
			Random:       2,
		},
	}
}

// LoadSettings 加载运行参数。path 为空时只用默认值 + 环境变量。
//
// 环境变量命名：BILLREC_ 前缀，下划线映射到嵌套 key，
// 例如 BILLREC_NEIGHBOR_SIZE=20、BILLREC_COLD_START.RANDOM 不支持嵌套段，
// 嵌套配额建议走配置文件。
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return settings, fmt.Errorf("load settings file: %w", err)
		}
	}

	if err := k.Load(env.Provider("BILLREC_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "BILLREC_"))
	}), nil); err != nil {
		return settings, fmt.Errorf("load settings env: %w", err)
	}

	if err := k.Unmarshal("", &settings); err != nil {
		return settings, fmt.Errorf("unmarshal settings: %w", err)
	}
	return settings, nil
}
