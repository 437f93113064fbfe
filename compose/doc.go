/*
Package compose 提供把普通函数组合为可执行有向无环图（DAG）的能力。

核心概念：
  - Graph: 可变的草稿图，通过 AddInput / AddOutput / AddFunction /
    AddSubgraph / AddEdge 增量构建。
  - Build: 一次性校验（布线完整性、类型兼容性、环检测）并产出不可变的
    Runnable，所有违规项聚合在一个 *BuildError 中返回。
  - Runnable: 已编译图，按固定拓扑序同步执行，可安全地被多个外层图
    以 Subgraph 节点的形式共享嵌入，也可被并发调用。

节点分为四类：Input（外部输入）、Output（命名结果）、Function（包装
Callable 的函数调用）、Subgraph（嵌入的已编译图，仅暴露声明的输出子集）。
节点之间通过命名端口连线，值沿边流动；每个输入端口恰好一条入边，输出
端口可任意扇出。

使用示例：

	g := compose.NewGraph("demo")
	_ = g.AddInput("text", compose.TypeOf[string]())
	_ = g.AddFunction("hash", compose.Lambda1(hashFn),
		[]compose.Port{{Name: "s", Type: compose.TypeOf[string]()}},
		[]compose.Port{{Name: "h", Type: compose.TypeOf[int]()}})
	_ = g.AddOutput("digest", compose.TypeOf[int]())
	_ = g.AddEdge("text", "text", "hash", "s")
	_ = g.AddEdge("hash", "h", "digest", "digest")

	r, err := g.Build()
	if err != nil { ... }
	out, err := r.Invoke(ctx, map[string]any{"text": "hello"})
*/
package compose
