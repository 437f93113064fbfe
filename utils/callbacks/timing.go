// Package callbacks 提供开箱即用的回调处理器。
package callbacks

import (
	"context"
	"sync"
	"time"

	"github.com/favbox/flowgraph/callbacks"
)

// ComponentInfo 单个节点一次执行的耗时记录。
type ComponentInfo struct {
	Graph   string
	Node    string
	Label   string
	Elapsed time.Duration
}

// ExecutionLog 执行日志：记录一次调用中各节点的耗时、整体耗时与成败。
//
// 用法：
//
//	log := callbackutils.NewExecutionLog()
//	out, err := r.Invoke(ctx, in, compose.WithCallbacks(log.Handler()))
//	for _, c := range log.Components() { ... }
//
// 一个 ExecutionLog 对应一次调用；并发 Invoke 各自创建独立实例。
type ExecutionLog struct {
	mu         sync.Mutex
	components []ComponentInfo
	firstStart time.Time
	lastEvent  time.Time
	err        error
}

// NewExecutionLog 创建空的执行日志。
func NewExecutionLog() *ExecutionLog {
	return &ExecutionLog{}
}

// startTimeKey 在 OnStart 与 OnEnd 之间经由 context 传递节点起始时间。
// 执行的栈式嵌套保证内层取到内层的值。
type startTimeKey struct{}

// Handler 返回挂载用的回调处理器。
func (l *ExecutionLog) Handler() callbacks.Handler {
	return callbacks.NewHandlerBuilder().
		OnStartFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackInput) context.Context {
			now := time.Now()
			l.mu.Lock()
			if l.firstStart.IsZero() {
				l.firstStart = now
			}
			l.mu.Unlock()
			return context.WithValue(ctx, startTimeKey{}, now)
		}).
		OnEndFn(func(ctx context.Context, info *callbacks.RunInfo, _ callbacks.CallbackOutput) context.Context {
			now := time.Now()
			start, _ := ctx.Value(startTimeKey{}).(time.Time)

			l.mu.Lock()
			l.lastEvent = now
			l.components = append(l.components, ComponentInfo{
				Graph:   info.Graph,
				Node:    info.Node,
				Label:   info.Label,
				Elapsed: now.Sub(start),
			})
			l.mu.Unlock()
			return ctx
		}).
		OnErrorFn(func(ctx context.Context, info *callbacks.RunInfo, err error) context.Context {
			l.mu.Lock()
			l.lastEvent = time.Now()
			l.err = err
			l.mu.Unlock()
			return ctx
		}).
		Build()
}

// Components 返回各节点的耗时记录，按执行完成顺序。
// 子图节点的记录覆盖其内层全部节点的耗时，且排在内层记录之后。
func (l *ExecutionLog) Components() []ComponentInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]ComponentInfo(nil), l.components...)
}

// Success 报告是否没有任何节点执行失败。
func (l *ExecutionLog) Success() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err == nil
}

// Err 返回首个失败节点的错误（逐层包装后的最外层形态），成功时为 nil。
func (l *ExecutionLog) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.err
}

// Elapsed 返回从首个节点开始到最后一个回调事件的整体耗时。
func (l *ExecutionLog) Elapsed() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.firstStart.IsZero() {
		return 0
	}
	return l.lastEvent.Sub(l.firstStart)
}
