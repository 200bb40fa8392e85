// Package billrec 是一个法案推荐引擎（Legislative Bill Recommender）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → ReRank）
// - Labels-first: labels 全链路透传与标准化 merge，支持 explain / 观测 / 策略驱动
// - 组合策略: service.Engine 按用户互动状态在协同过滤、内容相似度聚合与
//   冷启动兜底（热门/最新/冷门/随机）之间切换
package billrec

import "github.com/lawdna/billrec/pipeline"

// 轻量 facade：便于用户直接 import "billrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
