// Package obs 提供推荐引擎的观测能力：结构化日志与异常计数。
//
// 异常计数器按注入方式传入组合边界（service.Engine），
// 而不是进程级全局变量，便于测试与多实例隔离。
package obs

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// NewLogger 创建一个 zerolog 日志器，component 会附加到每条日志。
func NewLogger(component string) zerolog.Logger {
	return NewLoggerTo(os.Stderr, component)
}

// NewLoggerTo 创建写入指定 writer 的日志器（测试时传 io.Discard）。
func NewLoggerTo(w io.Writer, component string) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Str("component", component).Logger()
}

// ExceptionCounter 是异常计数的注入点。
// 组合边界每捕获一次失败就 Inc 一次；scope 用于区分失败来源。
type ExceptionCounter interface {
	Inc(scope string)
}

// Counter 是 ExceptionCounter 的进程内实现，线程安全。
type Counter struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func NewCounter() *Counter {
	return &Counter{counts: make(map[string]uint64)}
}

func (c *Counter) Inc(scope string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[scope]++
}

// Count 返回某个 scope 的累计异常次数。
func (c *Counter) Count(scope string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[scope]
}

// NopCounter 丢弃所有计数，用于不关心观测的调用方。
type NopCounter struct{}

func (NopCounter) Inc(string) {}

var _ ExceptionCounter = (*Counter)(nil)
var _ ExceptionCounter = NopCounter{}
