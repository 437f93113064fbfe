package compose

import "github.com/bytedance/sonic"

// PortInfo 端口的只读描述。
type PortInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// NodeInfo 节点的只读描述。
// 子图节点额外携带内层图的完整结构、对外暴露与隐藏的输出名单。
type NodeInfo struct {
	Key     string     `json:"key"`
	Kind    NodeKind   `json:"kind"`
	Label   string     `json:"label"`
	Inputs  []PortInfo `json:"inputs,omitempty"`
	Outputs []PortInfo `json:"outputs,omitempty"`

	Subgraph *GraphInfo `json:"subgraph,omitempty"`
	Exposed  []string   `json:"exposed,omitempty"`
	Hidden   []string   `json:"hidden,omitempty"`
}

// EdgeInfo 连线的只读描述。
type EdgeInfo struct {
	SrcNode string `json:"src_node"`
	SrcPort string `json:"src_port"`
	DstNode string `json:"dst_node"`
	DstPort string `json:"dst_port"`
}

// GraphInfo 已编译图的只读结构信息。
//
// 为图导出（如 mermaid 渲染）提供全部所需数据：拓扑序的节点列表（含
// 种类、展示名、端口），连线列表，以及子图节点指向的内层结构与暴露
// 子集。只含拷贝出的描述数据，不暴露任何修改图的能力。
type GraphInfo struct {
	Name    string     `json:"name"`
	Nodes   []NodeInfo `json:"nodes"` // 拓扑序
	Edges   []EdgeInfo `json:"edges"` // 添加序
	Inputs  []string   `json:"inputs"`
	Outputs []string   `json:"outputs"`
}

// Info 导出图的只读结构信息。每次调用构建全新拷贝。
func (r *Runnable) Info() *GraphInfo {
	gi := &GraphInfo{
		Name:    r.name,
		Nodes:   make([]NodeInfo, 0, len(r.plan)),
		Edges:   make([]EdgeInfo, 0, len(r.edges)),
		Inputs:  r.Inputs(),
		Outputs: r.Outputs(),
	}

	for _, n := range r.plan {
		ni := NodeInfo{
			Key:     n.key,
			Kind:    n.kind,
			Label:   n.label,
			Inputs:  portInfos(n.inputs),
			Outputs: portInfos(n.outputs),
		}
		if n.kind == NodeKindSubgraph {
			ni.Subgraph = n.sub.Info()
			ni.Exposed = append([]string(nil), n.exposed...)
			ni.Hidden = hiddenOutputs(n.sub, n.exposed)
		}
		gi.Nodes = append(gi.Nodes, ni)
	}

	for _, e := range r.edges {
		gi.Edges = append(gi.Edges, EdgeInfo{
			SrcNode: e.src.Node,
			SrcPort: e.src.Port,
			DstNode: e.dst.Node,
			DstPort: e.dst.Port,
		})
	}
	return gi
}

// JSON 将图结构信息序列化为 JSON 字符串。
func (gi *GraphInfo) JSON() (string, error) {
	return sonic.MarshalString(gi)
}

func portInfos(ports []Port) []PortInfo {
	if len(ports) == 0 {
		return nil
	}
	infos := make([]PortInfo, len(ports))
	for i, p := range ports {
		infos[i] = PortInfo{Name: p.Name, Type: p.Type.Name()}
	}
	return infos
}

// hiddenOutputs 内层图声明但未对外暴露的输出，按内层声明顺序。
func hiddenOutputs(inner *Runnable, exposed []string) []string {
	exposedSet := make(map[string]bool, len(exposed))
	for _, name := range exposed {
		exposedSet[name] = true
	}

	var hidden []string
	for _, name := range inner.outputs {
		if !exposedSet[name] {
			hidden = append(hidden, name)
		}
	}
	return hidden
}
