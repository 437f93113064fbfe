package compose

// graphNode 图的原子单元。
//
// 四种变体共用一个结构体，以 kind 区分：
//   - input: inputs 为空，outputs 恰一个与节点同名的端口
//   - output: inputs 恰一个与节点同名的端口，outputs 为空
//   - function: 端口由调用方声明，callable 为包装的可调用对象
//   - subgraph: sub 指向嵌入的已编译图，输入端口镜像其全部 Input 节点，
//     输出端口镜像 exposed 声明的 Output 子集
type graphNode struct {
	key     string
	kind    NodeKind
	label   string
	inputs  []Port
	outputs []Port

	callable Callable  // 仅 function 节点
	sub      *Runnable // 仅 subgraph 节点，按引用共享，编译后不可变
	exposed  []string  // 仅 subgraph 节点
}

func (n *graphNode) inputPort(name string) (Port, bool) {
	for _, p := range n.inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

func (n *graphNode) outputPort(name string) (Port, bool) {
	for _, p := range n.outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}
