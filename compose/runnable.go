package compose

/*
 * runnable.go - 执行引擎
 *
 * Runnable 是 Build 产出的不可变已编译图：
 *   - 按存储的拓扑计划单遍同步执行，每个节点恰好求值一次
 *   - 执行前整体校验输入绑定（MissingInput / UnexpectedInput）
 *   - 每次调用分配独立的端口值暂存表，结构本身只读，可并发 Invoke
 *   - 任一节点失败则整个运行原子失败，不暴露部分结果
 *   - 用户函数的 error 与 panic 统一包装为 NodeRunError 并携带节点路径
 *
 * 子图节点递归调用内层 Runnable，仅把暴露的输出写回外层暂存表，
 * 未暴露的内层输出对外层执行不可见。
 */

import (
	"context"
	"runtime/debug"

	"github.com/favbox/flowgraph/callbacks"
	"github.com/favbox/flowgraph/internal/gmap"
	"github.com/favbox/flowgraph/internal/safe"
)

// Runnable 已编译的可执行图。
//
// 由 Graph.Build 产出后不再变化：可被任意次 Invoke，也可作为子图节点
// 按引用嵌入多个外层图。并发调用安全，前提是每次调用使用独立的输入绑定。
type Runnable struct {
	name string

	nodes   map[string]*graphNode
	plan    []*graphNode // 拓扑序执行计划
	edges   []edge       // 添加序，供图导出
	inEdges map[PortRef]PortRef

	inputs  []string // Input 节点，插入序
	outputs []string // Output 节点，插入序
}

// Name 返回图名称。
func (r *Runnable) Name() string {
	return r.name
}

// Inputs 返回全部 Input 节点名，按插入顺序。
func (r *Runnable) Inputs() []string {
	return append([]string(nil), r.inputs...)
}

// Outputs 返回全部 Output 节点名，按插入顺序。
func (r *Runnable) Outputs() []string {
	return append([]string(nil), r.outputs...)
}

func (r *Runnable) node(key string) (*graphNode, bool) {
	n, ok := r.nodes[key]
	return n, ok
}

// Option 单次调用的可选配置。
type Option func(*invokeOptions)

type invokeOptions struct {
	handlers []callbacks.Handler
}

// WithCallbacks 为本次调用挂载回调处理器。
// 处理器在每个函数节点与子图节点（含嵌套内层）的执行前后触发。
func WithCallbacks(handlers ...callbacks.Handler) Option {
	return func(o *invokeOptions) {
		o.handlers = append(o.handlers, handlers...)
	}
}

// Invoke 以给定的输入绑定同步执行图，返回全部 Output 节点名到结果值的映射。
//
// in 必须恰好覆盖每个已声明的 Input 节点：缺失报 MissingInputError，
// 多余报 UnexpectedInputError，两者都在任何函数执行之前检出。相同绑定
// 在同一 Runnable 上的重复调用产生相同的结果与相同的函数调用顺序。
func (r *Runnable) Invoke(ctx context.Context, in map[string]any, opts ...Option) (map[string]any, error) {
	o := &invokeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return r.invoke(ctx, in, o.handlers)
}

func (r *Runnable) invoke(ctx context.Context, in map[string]any, handlers []callbacks.Handler) (map[string]any, error) {
	if err := r.checkBindings(in); err != nil {
		return nil, err
	}

	// 快照输入绑定，调用方在执行期间改动原 Map 不影响本次运行。
	in = gmap.Clone(in)

	// 本次运行私有的端口值暂存表。
	values := make(map[PortRef]any, len(r.plan))
	out := make(map[string]any, len(r.outputs))

	for _, n := range r.plan {
		switch n.kind {
		case NodeKindInput:
			values[PortRef{Node: n.key, Port: n.key}] = in[n.key]

		case NodeKindOutput:
			src := r.inEdges[PortRef{Node: n.key, Port: n.key}]
			out[n.key] = values[src]

		case NodeKindFunction:
			args := r.gatherArgs(n, values)

			nodeCtx := onStart(ctx, handlers, r.runInfo(n), args)
			results, err := callFunction(nodeCtx, n, args)
			if err != nil {
				onError(nodeCtx, handlers, r.runInfo(n), err)
				return nil, wrapNodeRunError(n.key, err)
			}
			onEnd(nodeCtx, handlers, r.runInfo(n), results)

			for i, p := range n.outputs {
				values[PortRef{Node: n.key, Port: p.Name}] = results[i]
			}

		case NodeKindSubgraph:
			innerIn := make(map[string]any, len(n.inputs))
			for _, p := range n.inputs {
				innerIn[p.Name] = values[r.inEdges[PortRef{Node: n.key, Port: p.Name}]]
			}

			nodeCtx := onStart(ctx, handlers, r.runInfo(n), nil)
			innerOut, err := n.sub.invoke(nodeCtx, innerIn, handlers)
			if err != nil {
				onError(nodeCtx, handlers, r.runInfo(n), err)
				return nil, wrapNodeRunError(n.key, err)
			}
			onEnd(nodeCtx, handlers, r.runInfo(n), nil)

			// 仅暴露声明的内层输出，未声明的对外层不可见。
			for _, name := range n.exposed {
				values[PortRef{Node: n.key, Port: name}] = innerOut[name]
			}
		}
	}

	return out, nil
}

// checkBindings 在任何函数执行前整体校验输入绑定。
func (r *Runnable) checkBindings(in map[string]any) error {
	var missing []string
	for _, name := range r.inputs {
		if _, ok := in[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return &MissingInputError{Graph: r.name, Inputs: missing}
	}

	if len(in) > len(r.inputs) {
		declared := make(map[string]bool, len(r.inputs))
		for _, name := range r.inputs {
			declared[name] = true
		}
		unexpected := make(map[string]struct{}, len(in)-len(r.inputs))
		for name := range in {
			if !declared[name] {
				unexpected[name] = struct{}{}
			}
		}
		return &UnexpectedInputError{Graph: r.name, Inputs: gmap.SortedKeys(unexpected)}
	}
	return nil
}

// gatherArgs 按声明的输入端口顺序收集入参。
// 拓扑序保证每个来源值此刻都已产出。
func (r *Runnable) gatherArgs(n *graphNode, values map[PortRef]any) []any {
	args := make([]any, len(n.inputs))
	for i, p := range n.inputs {
		args[i] = values[r.inEdges[PortRef{Node: n.key, Port: p.Name}]]
	}
	return args
}

func (r *Runnable) runInfo(n *graphNode) *callbacks.RunInfo {
	return &callbacks.RunInfo{
		Graph: r.name,
		Node:  n.key,
		Kind:  string(n.kind),
		Label: n.label,
	}
}

// callFunction 调用用户函数：panic 转换为 error，返回值个数与声明端口数核对。
func callFunction(ctx context.Context, n *graphNode, args []any) (results []any, err error) {
	defer func() {
		if panicInfo := recover(); panicInfo != nil {
			results = nil
			err = safe.NewPanicErr(panicInfo, debug.Stack())
		}
	}()

	results, err = n.callable.Call(ctx, args)
	if err != nil {
		return nil, err
	}
	if len(results) != len(n.outputs) {
		return nil, &OutputArityMismatchError{Node: n.key, Want: len(n.outputs), Got: len(results)}
	}
	return results, nil
}

// ====== 回调分发 ======

func onStart(ctx context.Context, handlers []callbacks.Handler, info *callbacks.RunInfo, input callbacks.CallbackInput) context.Context {
	for _, h := range handlers {
		ctx = h.OnStart(ctx, info, input)
	}
	return ctx
}

// onEnd 与 onError 按挂载顺序的逆序触发，与 onStart 形成栈式配对。
func onEnd(ctx context.Context, handlers []callbacks.Handler, info *callbacks.RunInfo, output callbacks.CallbackOutput) context.Context {
	for i := len(handlers) - 1; i >= 0; i-- {
		ctx = handlers[i].OnEnd(ctx, info, output)
	}
	return ctx
}

func onError(ctx context.Context, handlers []callbacks.Handler, info *callbacks.RunInfo, err error) context.Context {
	for i := len(handlers) - 1; i >= 0; i-- {
		ctx = handlers[i].OnError(ctx, info, err)
	}
	return ctx
}
