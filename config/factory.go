package config

import (
	"fmt"
	"time"

	"github.com/lawdna/billrec/core"
	"github.com/lawdna/billrec/filter"
	"github.com/lawdna/billrec/pipeline"
	"github.com/lawdna/billrec/pkg/conv"
	"github.com/lawdna/billrec/recall"
	"github.com/lawdna/billrec/rerank"
)

// Deps 是配置驱动构建 Node 时注入的外部依赖。
// 召回源需要的存储无法写进 YAML，只能在装配时注入。
type Deps struct {
	Metrics core.MetricsStore
	Catalog core.CatalogStore
	Sims    core.SimilarityStore
	Store   core.KeyValueStore
	Factors recall.FactorStore
}

// DefaultFactory 返回一个包含所有内置 Node 的工厂。
func DefaultFactory(deps Deps) *pipeline.NodeFactory {
	factory := pipeline.NewNodeFactory()

	// 注册 Recall Nodes
	factory.Register("recall.fanout", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFanoutNode(deps, cfg)
	})
	factory.Register("recall.best_seller", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildBestSellerNode(deps, cfg)
	})
	factory.Register("recall.newest", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildNewBillsNode(deps, cfg, "newest")
	})
	factory.Register("recall.worst_sellers", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildNewBillsNode(deps, cfg, "worst_sellers")
	})
	factory.Register("recall.random", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildRandomNode(deps, cfg)
	})
	factory.Register("recall.similar", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildSimilarNode(deps, cfg)
	})
	factory.Register("recall.cf", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildCollaborativeNode(deps, cfg)
	})
	factory.Register("recall.factorization", func(cfg map[string]interface{}) (pipeline.Node, error) {
		return buildFactorizationNode(deps, cfg)
	})

	// 注册 Filter Nodes
	factory.Register("filter", buildFilterNode)

	// 注册 ReRank Nodes
	factory.Register("rerank.topn", buildTopNNode)
	factory.Register("rerank.dedup", buildDedupNode)

	return factory
}

func buildBestSellerNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.BestSeller{
		Catalog: deps.Catalog,
		Store:   deps.Store,
		Key:     conv.ConfigGet[string](cfg, "key", ""),
		TopN:    conv.ConfigGetInt(cfg, "topn", 10),
	}, nil
}

func buildNewBillsNode(deps Deps, cfg map[string]interface{}, mode string) (pipeline.Node, error) {
	return &recall.NewBills{
		Catalog: deps.Catalog,
		TopN:    conv.ConfigGetInt(cfg, "topn", 10),
		Mode:    mode,
	}, nil
}

func buildRandomNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.Random{
		Catalog: deps.Catalog,
		TopN:    conv.ConfigGetInt(cfg, "topn", 10),
		Seed:    int64(conv.ConfigGetInt(cfg, "seed", 0)),
	}, nil
}

func buildSimilarNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.SimilarBills{
		Sims: deps.Sims,
		TopN: conv.ConfigGetInt(cfg, "topn", 10),
	}, nil
}

func buildCollaborativeNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.Collaborative{
		Metrics:      deps.Metrics,
		Variant:      conv.ConfigGet[string](cfg, "variant", "knn"),
		NeighborSize: conv.ConfigGetInt(cfg, "neighbor_size", 0),
		TopN:         conv.ConfigGetInt(cfg, "topn", 10),
		DecayRate:    conv.ConfigGetFloat(cfg, "decay_rate", 0),
		DefaultScore: conv.ConfigGetFloat(cfg, "default_score", 0),
		SigLevel:     conv.ConfigGetInt(cfg, "sig_level", 0),
		MinRatings:   conv.ConfigGetInt(cfg, "min_ratings", 0),
	}, nil
}

func buildFactorizationNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	return &recall.Factorization{
		Store: deps.Factors,
		TopK:  conv.ConfigGetInt(cfg, "topk", 0),
	}, nil
}

func buildFanoutNode(deps Deps, cfg map[string]interface{}) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]interface{})
		if !ok {
			continue
		}
		sourceType := conv.ConfigGet[string](sourceMap, "type", "")
		node, err := buildSource(deps, sourceType, sourceMap)
		if err != nil {
			return nil, err
		}
		sources = append(sources, node)
	}

	fanout := &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](cfg, "dedup", true),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		MergeStrategy: conv.ConfigGet[string](cfg, "merge_strategy", ""),
	}
	if sec := conv.ConfigGetInt(cfg, "timeout", 0); sec > 0 {
		fanout.Timeout = time.Duration(sec) * time.Second
	}
	return fanout, nil
}

func buildSource(deps Deps, sourceType string, cfg map[string]interface{}) (recall.Source, error) {
	switch sourceType {
	case "best_seller":
		node, _ := buildBestSellerNode(deps, cfg)
		return node.(*recall.BestSeller), nil
	case "newest":
		node, _ := buildNewBillsNode(deps, cfg, "newest")
		return node.(*recall.NewBills), nil
	case "worst_sellers":
		node, _ := buildNewBillsNode(deps, cfg, "worst_sellers")
		return node.(*recall.NewBills), nil
	case "random":
		node, _ := buildRandomNode(deps, cfg)
		return node.(*recall.Random), nil
	case "similar":
		node, _ := buildSimilarNode(deps, cfg)
		return node.(*recall.SimilarBills), nil
	case "cf":
		node, _ := buildCollaborativeNode(deps, cfg)
		return node.(*recall.Collaborative), nil
	case "factorization":
		node, _ := buildFactorizationNode(deps, cfg)
		return node.(*recall.Factorization), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}

func buildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, _ := cfg["filters"].([]interface{})

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet[string](filterMap, "type", "")
		switch filterType {
		case "exclude":
			filters = append(filters, &filter.ExcludeFilter{
				ItemIDs:     conv.ToStringSlice(filterMap["item_ids"]),
				FromContext: conv.ConfigGet[bool](filterMap, "from_context", true),
			})
		case "expr":
			filters = append(filters, &filter.ExprFilter{
				Expr: conv.ConfigGet[string](filterMap, "expr", ""),
			})
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}

	return &filter.FilterNode{Filters: filters}, nil
}

func buildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func buildDedupNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &rerank.DedupNode{}, nil
}
