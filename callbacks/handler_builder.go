package callbacks

import "context"

// HandlerBuilder 回调处理器构建器。
//
// 通过函数式风格按需设置各时机的处理逻辑，未设置的时机为空操作，
// 免去为只关心单个时机的场景实现完整 Handler 接口。
type HandlerBuilder struct {
	onStartFn func(ctx context.Context, info *RunInfo, input CallbackInput) context.Context
	onEndFn   func(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context
	onErrorFn func(ctx context.Context, info *RunInfo, err error) context.Context
}

// NewHandlerBuilder 创建新的回调处理器构建器。
func NewHandlerBuilder() *HandlerBuilder {
	return &HandlerBuilder{}
}

// OnStartFn 设置节点开始执行时的回调函数，支持链式调用。
func (hb *HandlerBuilder) OnStartFn(
	fn func(ctx context.Context, info *RunInfo, input CallbackInput) context.Context) *HandlerBuilder {

	hb.onStartFn = fn
	return hb
}

// OnEndFn 设置节点正常结束时的回调函数，支持链式调用。
func (hb *HandlerBuilder) OnEndFn(
	fn func(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context) *HandlerBuilder {

	hb.onEndFn = fn
	return hb
}

// OnErrorFn 设置节点执行失败时的回调函数，支持链式调用。
func (hb *HandlerBuilder) OnErrorFn(
	fn func(ctx context.Context, info *RunInfo, err error) context.Context) *HandlerBuilder {

	hb.onErrorFn = fn
	return hb
}

// Build 返回构建完成的回调处理器。
func (hb *HandlerBuilder) Build() Handler {
	return &handlerImpl{*hb}
}

// handlerImpl 构建器产出的处理器实现，未设置的时机直接透传 context。
type handlerImpl struct {
	HandlerBuilder
}

func (h *handlerImpl) OnStart(ctx context.Context, info *RunInfo, input CallbackInput) context.Context {
	if h.onStartFn == nil {
		return ctx
	}
	return h.onStartFn(ctx, info, input)
}

func (h *handlerImpl) OnEnd(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context {
	if h.onEndFn == nil {
		return ctx
	}
	return h.onEndFn(ctx, info, output)
}

func (h *handlerImpl) OnError(ctx context.Context, info *RunInfo, err error) context.Context {
	if h.onErrorFn == nil {
		return ctx
	}
	return h.onErrorFn(ctx, info, err)
}
