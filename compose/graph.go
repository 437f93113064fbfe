package compose

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Graph 可变的草稿图。
//
// 通过 Add* 系列方法增量构建，节点与边的添加顺序不受约束：边可以引用
// 尚未添加的节点，只要在 Build 调用前补齐。生命周期分两段：草稿期可变，
// Build 成功后冻结为不可变的 Runnable，再修改返回 ErrGraphCompiled。
//
// 节点按插入顺序登记，该顺序决定拓扑排序的平局打破规则，保证执行顺序
// 与图导出跨运行可复现。
type Graph struct {
	name string

	nodes *orderedmap.OrderedMap[string, *graphNode]
	edges []edge

	// wiredDst 已占用的目标输入端口，扇入上限 1 在添加时即生效。
	wiredDst map[PortRef]bool

	compiled *Runnable
}

// NewGraph 创建指定名称的空图。
func NewGraph(name string) *Graph {
	return &Graph{
		name:     name,
		nodes:    orderedmap.New[string, *graphNode](),
		wiredDst: make(map[PortRef]bool),
	}
}

// Name 返回图名称。
func (g *Graph) Name() string {
	return g.name
}

// GraphAddNodeOpt 添加节点的可选配置。
type GraphAddNodeOpt func(*graphAddNodeOpts)

type graphAddNodeOpts struct {
	nodeName string
}

// WithNodeName 设置节点的展示名称，用于图导出与回调信息，默认为节点键。
func WithNodeName(name string) GraphAddNodeOpt {
	return func(o *graphAddNodeOpts) {
		o.nodeName = name
	}
}

func getGraphAddNodeOpts(opts ...GraphAddNodeOpt) *graphAddNodeOpts {
	o := &graphAddNodeOpts{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// addNode 节点登记的公共路径：冻结检查、键唯一性。
// 失败的调用不落任何状态，图保持先前的合法形态。
func (g *Graph) addNode(key string, node *graphNode) error {
	if g.compiled != nil {
		return ErrGraphCompiled
	}

	if key == "" {
		return fmt.Errorf("graph '%s': node key cannot be empty", g.name)
	}
	if _, ok := g.nodes.Get(key); ok {
		return &DuplicateNodeError{Graph: g.name, Node: key}
	}

	g.nodes.Set(key, node)
	return nil
}

// AddInput 添加输入节点。
// 输入节点没有输入端口，唯一的输出端口与节点同名，承载执行时外部绑定的值。
// t 为 nil 时按 AnyType 处理。
func (g *Graph) AddInput(name string, t TypeDesc) error {
	if t == nil {
		t = AnyType
	}
	return g.addNode(name, &graphNode{
		key:     name,
		kind:    NodeKindInput,
		label:   name,
		outputs: []Port{{Name: name, Type: t}},
	})
}

// AddOutput 添加终端输出节点。
// 唯一的输入端口与节点同名，其接线值以节点名作为图的命名结果返回。
func (g *Graph) AddOutput(name string, t TypeDesc) error {
	if t == nil {
		t = AnyType
	}
	return g.addNode(name, &graphNode{
		key:    name,
		kind:   NodeKindOutput,
		label:  name,
		inputs: []Port{{Name: name, Type: t}},
	})
}

// AddFunction 添加函数节点。
//
// callable 的入参按 inputs 声明顺序传递，返回值按 outputs 声明顺序位置
// 分发。输入端口数即函数的元数，输出端口至少一个。端口类型为 nil 时按
// AnyType 处理。
func (g *Graph) AddFunction(name string, callable Callable, inputs, outputs []Port, opts ...GraphAddNodeOpt) error {
	if g.compiled != nil {
		return ErrGraphCompiled
	}

	if callable == nil {
		return fmt.Errorf("graph '%s': function node '%s' needs a non-nil callable", g.name, name)
	}
	if len(outputs) == 0 {
		return fmt.Errorf("graph '%s': function node '%s' needs at least one output port", g.name, name)
	}
	if err := checkPorts(g.name, name, inputs); err != nil {
		return err
	}
	if err := checkPorts(g.name, name, outputs); err != nil {
		return err
	}

	o := getGraphAddNodeOpts(opts...)
	label := o.nodeName
	if label == "" {
		label = name
	}

	return g.addNode(name, &graphNode{
		key:      name,
		kind:     NodeKindFunction,
		label:    label,
		inputs:   normalizePorts(inputs),
		outputs:  normalizePorts(outputs),
		callable: callable,
	})
}

// AddSubgraph 添加子图节点，按引用嵌入一个已编译图。
//
// 输入端口镜像内层图的全部 Input 节点（同名同类型），输出端口镜像
// exposed 声明的 Output 子集，未声明的内层输出对外不可见。同一个
// Runnable 可被多个外层图安全共享，编译后不再变化。
func (g *Graph) AddSubgraph(name string, inner *Runnable, exposed ...string) error {
	if g.compiled != nil {
		return ErrGraphCompiled
	}

	if inner == nil {
		return fmt.Errorf("graph '%s': subgraph node '%s' needs a non-nil inner graph", g.name, name)
	}
	if len(exposed) == 0 {
		return fmt.Errorf("graph '%s': subgraph node '%s' must expose at least one output", g.name, name)
	}

	inputs := make([]Port, 0, len(inner.inputs))
	for _, in := range inner.inputs {
		n, _ := inner.node(in)
		inputs = append(inputs, Port{Name: in, Type: n.outputs[0].Type})
	}

	seen := make(map[string]bool, len(exposed))
	outputs := make([]Port, 0, len(exposed))
	for _, out := range exposed {
		if seen[out] {
			return fmt.Errorf("graph '%s': subgraph node '%s' exposes output '%s' twice", g.name, name, out)
		}
		seen[out] = true

		n, ok := inner.node(out)
		if !ok || n.kind != NodeKindOutput {
			return &UnknownPortError{Graph: g.name, Ref: PortRef{Node: name, Port: out}}
		}
		outputs = append(outputs, Port{Name: out, Type: n.inputs[0].Type})
	}

	return g.addNode(name, &graphNode{
		key:     name,
		kind:    NodeKindSubgraph,
		label:   inner.name,
		inputs:  inputs,
		outputs: outputs,
		sub:     inner,
		exposed: append([]string(nil), exposed...),
	})
}

// AddEdge 添加从源节点输出端口到目标节点输入端口的有向连线。
//
// 已存在的节点立即校验端口；尚未添加的节点允许先行引用，Build 时统一
// 解析，届时仍未补齐的引用聚合在 BuildError 中报告。目标输入端口最多
// 一条入边，重复接线立即失败。
func (g *Graph) AddEdge(srcNode, srcPort, dstNode, dstPort string) error {
	if g.compiled != nil {
		return ErrGraphCompiled
	}

	src := PortRef{Node: srcNode, Port: srcPort}
	dst := PortRef{Node: dstNode, Port: dstPort}

	if g.wiredDst[dst] {
		return &PortAlreadyWiredError{Graph: g.name, Dst: dst}
	}

	if n, ok := g.nodes.Get(srcNode); ok {
		if _, ok = n.outputPort(srcPort); !ok {
			return &UnknownPortError{Graph: g.name, Ref: src}
		}
	}
	if n, ok := g.nodes.Get(dstNode); ok {
		if _, ok = n.inputPort(dstPort); !ok {
			return &UnknownPortError{Graph: g.name, Ref: dst, Input: true}
		}
	}

	g.wiredDst[dst] = true
	g.edges = append(g.edges, edge{src: src, dst: dst})
	return nil
}

// checkPorts 校验端口声明：名称非空且节点内唯一。
func checkPorts(graphName, nodeKey string, ports []Port) error {
	seen := make(map[string]bool, len(ports))
	for _, p := range ports {
		if p.Name == "" {
			return fmt.Errorf("graph '%s': node '%s' declares a port with empty name", graphName, nodeKey)
		}
		if seen[p.Name] {
			return fmt.Errorf("graph '%s': node '%s' declares port '%s' twice", graphName, nodeKey, p.Name)
		}
		seen[p.Name] = true
	}
	return nil
}

// normalizePorts 拷贝端口声明并将 nil 类型归一为 AnyType。
func normalizePorts(ports []Port) []Port {
	out := make([]Port, len(ports))
	for i, p := range ports {
		if p.Type == nil {
			p.Type = AnyType
		}
		out[i] = p
	}
	return out
}
