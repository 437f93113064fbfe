package callbacks

import "context"

// RunInfo 回调运行时信息。
// 标识当前正在执行的节点：所属图、节点键、节点种类与展示名称。
type RunInfo struct {
	Graph string
	Node  string
	Kind  string
	Label string
}

// CallbackInput 节点开始执行时的实际入参，按声明的输入端口顺序排列。
type CallbackInput = []any

// CallbackOutput 节点执行完成后的实际出参，按声明的输出端口顺序排列。
type CallbackOutput = []any

// Handler 回调处理器接口。
//
// 执行器在每个函数节点与子图节点的执行前后触发回调，处理器可以通过
// 返回的 context 在 OnStart 与 OnEnd 之间传递数据（如起始时间）。
// 执行是同步的，OnStart / OnEnd 严格成对、按栈序嵌套：子图节点的
// OnStart 先于其内部节点的全部回调，OnEnd 晚于它们。
type Handler interface {
	// OnStart 节点开始执行时触发。
	OnStart(ctx context.Context, info *RunInfo, input CallbackInput) context.Context

	// OnEnd 节点正常结束时触发。
	OnEnd(ctx context.Context, info *RunInfo, output CallbackOutput) context.Context

	// OnError 节点执行失败时触发，与 OnEnd 互斥。
	OnError(ctx context.Context, info *RunInfo, err error) context.Context
}
