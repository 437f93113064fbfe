package compose

/*
 * graph_compile.go - 编译校验
 *
 * Build 将草稿图一次性校验并冻结为可执行的 Runnable：
 *   1. 解析全部边引用（允许先引用后添加，此处兜底）
 *   2. 逐边类型兼容性检查，只累积不短路
 *   3. 逐端口布线完整性检查
 *   4. 节点级 DFS 环检测，在栈标记法，报出成环的节点序列
 *   5. 无违规时计算拓扑执行计划，平局按节点插入顺序打破
 *
 * 子图节点在外层视角是不透明的单节点：其内部结构在内层图自身 Build 时
 * 已校验完毕，这里不再下探，校验因此是可组合的。
 */

// Build 校验草稿图并产出不可变的 Runnable。
//
// 发现的全部违规聚合在一个 *BuildError 中返回。Build 幂等：首次成功后
// 重复调用返回同一个 Runnable；失败不冻结图，修正后可重试。
func (g *Graph) Build() (*Runnable, error) {
	if g.compiled != nil {
		return g.compiled, nil
	}

	be := &BuildError{Graph: g.name}

	// 步骤 1+2：解析边引用并做类型检查。
	inEdges := make(map[PortRef]PortRef, len(g.edges))
	adjacency := make(map[string][]string, g.nodes.Len())
	seenPair := make(map[[2]string]bool, len(g.edges))

	for _, e := range g.edges {
		srcNode, ok := g.nodes.Get(e.src.Node)
		if !ok {
			be.Unresolved = append(be.Unresolved, PortRef{Node: e.src.Node})
			continue
		}
		srcPort, ok := srcNode.outputPort(e.src.Port)
		if !ok {
			be.Unresolved = append(be.Unresolved, e.src)
			continue
		}

		dstNode, ok := g.nodes.Get(e.dst.Node)
		if !ok {
			be.Unresolved = append(be.Unresolved, PortRef{Node: e.dst.Node})
			continue
		}
		dstPort, ok := dstNode.inputPort(e.dst.Port)
		if !ok {
			be.Unresolved = append(be.Unresolved, e.dst)
			continue
		}

		if !dstPort.Type.Accepts(srcPort.Type) {
			be.Mismatches = append(be.Mismatches, TypeMismatch{
				Src:  e.src,
				Dst:  e.dst,
				Want: dstPort.Type.Name(),
				Got:  srcPort.Type.Name(),
			})
		}

		inEdges[e.dst] = e.src

		pair := [2]string{e.src.Node, e.dst.Node}
		if !seenPair[pair] {
			seenPair[pair] = true
			adjacency[e.src.Node] = append(adjacency[e.src.Node], e.dst.Node)
		}
	}

	// 步骤 3：布线完整性。Function/Output/Subgraph 的每个输入端口必须有入边。
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		n := pair.Value
		for _, p := range n.inputs {
			ref := PortRef{Node: n.key, Port: p.Name}
			if _, ok := inEdges[ref]; !ok {
				be.Unwired = append(be.Unwired, ref)
			}
		}
	}

	// 步骤 4：环检测。
	be.Cycles = g.detectCycles(adjacency)

	if !be.empty() {
		return nil, be
	}

	// 步骤 5：拓扑执行计划。
	plan := g.topoOrder(adjacency)

	r := &Runnable{
		name:    g.name,
		nodes:   make(map[string]*graphNode, g.nodes.Len()),
		plan:    plan,
		edges:   append([]edge(nil), g.edges...),
		inEdges: inEdges,
	}
	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		r.nodes[pair.Key] = pair.Value
		switch pair.Value.kind {
		case NodeKindInput:
			r.inputs = append(r.inputs, pair.Key)
		case NodeKindOutput:
			r.outputs = append(r.outputs, pair.Key)
		}
	}

	g.compiled = r
	return r, nil
}

// detectCycles 节点级深度优先环检测。
//
// 经典的在栈标记法：遍历中命中仍在递归栈上的节点即发现一条回边，将栈上
// 从该节点起的片段作为环序列报出。每条回边报一个环。
func (g *Graph) detectCycles(adjacency map[string][]string) [][]string {
	var cycles [][]string

	visited := make(map[string]bool, g.nodes.Len())
	onStack := make(map[string]bool, g.nodes.Len())
	var stack []string

	var visit func(key string)
	visit = func(key string) {
		visited[key] = true
		onStack[key] = true
		stack = append(stack, key)

		for _, next := range adjacency[key] {
			if onStack[next] {
				// 回边：栈上自 next 起的片段构成一个环。
				for i, k := range stack {
					if k == next {
						cycle := append([]string(nil), stack[i:]...)
						cycles = append(cycles, append(cycle, next))
						break
					}
				}
				continue
			}
			if !visited[next] {
				visit(next)
			}
		}

		stack = stack[:len(stack)-1]
		onStack[key] = false
	}

	for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
		if !visited[pair.Key] {
			visit(pair.Key)
		}
	}
	return cycles
}

// topoOrder 计算拓扑执行顺序（Kahn 算法）。
//
// 每轮按插入顺序扫描，取出全部入度为零的节点，使执行顺序对同一张图
// 跨运行稳定。调用前提：环检测已通过。
func (g *Graph) topoOrder(adjacency map[string][]string) []*graphNode {
	indegree := make(map[string]int, g.nodes.Len())
	for _, nexts := range adjacency {
		for _, next := range nexts {
			indegree[next]++
		}
	}

	order := make([]*graphNode, 0, g.nodes.Len())
	done := make(map[string]bool, g.nodes.Len())

	for len(order) < g.nodes.Len() {
		for pair := g.nodes.Oldest(); pair != nil; pair = pair.Next() {
			if done[pair.Key] || indegree[pair.Key] > 0 {
				continue
			}
			done[pair.Key] = true
			order = append(order, pair.Value)
			for _, next := range adjacency[pair.Key] {
				indegree[next]--
			}
		}
	}
	return order
}
