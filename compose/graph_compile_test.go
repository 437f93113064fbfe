package compose

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func intEcho() Callable {
	return CallableFunc(func(_ context.Context, args []any) ([]any, error) {
		return []any{args[0]}, nil
	})
}

func TestBuildAggregatesAllViolations(t *testing.T) {
	g := NewGraph("broken")

	intPort := []Port{{Name: "n", Type: TypeOf[int]()}}

	assert.NoError(t, g.AddInput("a", TypeOf[string]()))
	// lonely 的输入端口没有任何入边。
	assert.NoError(t, g.AddFunction("lonely", intEcho(),
		[]Port{{Name: "s", Type: TypeOf[string]()}},
		[]Port{{Name: "s", Type: TypeOf[string]()}}))
	// string 输出接到 int 输入。
	assert.NoError(t, g.AddFunction("toint", intEcho(), intPort, intPort))
	assert.NoError(t, g.AddEdge("a", "a", "toint", "n"))
	// g1 与 g2 构成环。
	assert.NoError(t, g.AddFunction("g1", intEcho(),
		[]Port{{Name: "a1", Type: TypeOf[int]()}},
		[]Port{{Name: "b1", Type: TypeOf[int]()}}))
	assert.NoError(t, g.AddFunction("g2", intEcho(),
		[]Port{{Name: "a2", Type: TypeOf[int]()}},
		[]Port{{Name: "b2", Type: TypeOf[int]()}}))
	assert.NoError(t, g.AddEdge("g1", "b1", "g2", "a2"))
	assert.NoError(t, g.AddEdge("g2", "b2", "g1", "a1"))

	r, err := g.Build()
	assert.Nil(t, r)

	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, "broken", be.Graph)

	// 三类违规一次性全部报出。
	assert.Empty(t, be.Unresolved)
	assert.Equal(t, []PortRef{{Node: "lonely", Port: "s"}}, be.Unwired)
	assert.Equal(t, []TypeMismatch{{
		Src:  PortRef{Node: "a", Port: "a"},
		Dst:  PortRef{Node: "toint", Port: "n"},
		Want: "int",
		Got:  "string",
	}}, be.Mismatches)
	assert.Equal(t, [][]string{{"g1", "g2", "g1"}}, be.Cycles)

	msg := err.Error()
	assert.Contains(t, msg, "unconnected input port")
	assert.Contains(t, msg, "type mismatch")
	assert.Contains(t, msg, "cycle detected: [g1 -> g2 -> g1]")
}

func TestBuildReportsUnknownNode(t *testing.T) {
	g := NewGraph("dangling")

	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	// 目标节点不存在：添加时允许，Build 时报出。
	assert.NoError(t, g.AddEdge("a", "a", "ghost", "in"))

	_, err := g.Build()

	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, []PortRef{{Node: "ghost"}}, be.Unresolved)
	assert.Contains(t, err.Error(), "unknown node: 'ghost'")
}

func TestForwardEdgeReference(t *testing.T) {
	g := NewGraph("forward")

	// 先布线后添加节点，Build 前补齐即合法。
	assert.NoError(t, g.AddEdge("a", "a", "out", "out"))
	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g.AddOutput("out", TypeOf[int]()))

	r, err := g.Build()
	assert.NoError(t, err)

	out, err := r.Invoke(context.Background(), map[string]any{"a": 3})
	assert.NoError(t, err)
	assert.Equal(t, 3, out["out"])
}

func TestBuildFailureDoesNotFreeze(t *testing.T) {
	g := NewGraph("retry")

	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g.AddOutput("out", TypeOf[int]()))

	_, err := g.Build()
	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, []PortRef{{Node: "out", Port: "out"}}, be.Unwired)

	// 修正后重试成功。
	assert.NoError(t, g.AddEdge("a", "a", "out", "out"))
	r, err := g.Build()
	assert.NoError(t, err)
	assert.NotNil(t, r)
}

func TestBuildIdempotent(t *testing.T) {
	g := NewGraph("idem")

	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g.AddOutput("out", TypeOf[int]()))
	assert.NoError(t, g.AddEdge("a", "a", "out", "out"))

	r1, err := g.Build()
	assert.NoError(t, err)
	r2, err := g.Build()
	assert.NoError(t, err)
	assert.Same(t, r1, r2)

	// 编译后冻结。
	assert.ErrorIs(t, g.AddInput("b", TypeOf[int]()), ErrGraphCompiled)
	assert.ErrorIs(t, g.AddEdge("a", "a", "b", "b"), ErrGraphCompiled)
}

func TestDuplicateNodeLeavesGraphValid(t *testing.T) {
	g := NewGraph("dup")

	assert.NoError(t, g.AddInput("x", TypeOf[int]()))

	err := g.AddInput("x", TypeOf[string]())
	var dup *DuplicateNodeError
	assert.ErrorAs(t, err, &dup)
	assert.Equal(t, "x", dup.Node)

	// 失败的调用不落状态，图保持合法，可继续构建。
	assert.NoError(t, g.AddOutput("y", TypeOf[int]()))
	assert.NoError(t, g.AddEdge("x", "x", "y", "y"))

	r, err := g.Build()
	assert.NoError(t, err)

	out, err := r.Invoke(context.Background(), map[string]any{"x": 5})
	assert.NoError(t, err)
	assert.Equal(t, 5, out["y"])
}

func TestFanInRejectedImmediately(t *testing.T) {
	g := NewGraph("fanin")

	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g.AddInput("b", TypeOf[int]()))
	assert.NoError(t, g.AddOutput("out", TypeOf[int]()))

	assert.NoError(t, g.AddEdge("a", "a", "out", "out"))

	err := g.AddEdge("b", "b", "out", "out")
	var wired *PortAlreadyWiredError
	assert.ErrorAs(t, err, &wired)
	assert.Equal(t, PortRef{Node: "out", Port: "out"}, wired.Dst)
}

func TestUnknownPortOnExistingNode(t *testing.T) {
	g := NewGraph("ports")

	assert.NoError(t, g.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g.AddOutput("out", TypeOf[int]()))

	// 节点已存在时端口立即校验。
	err := g.AddEdge("a", "nope", "out", "out")
	var up *UnknownPortError
	assert.ErrorAs(t, err, &up)
	assert.Equal(t, PortRef{Node: "a", Port: "nope"}, up.Ref)
	assert.False(t, up.Input)

	g2 := NewGraph("ports2")
	assert.NoError(t, g2.AddInput("a", TypeOf[int]()))
	assert.NoError(t, g2.AddInput("b", TypeOf[int]()))

	// 输入节点没有输入端口，不能作为连线目标。
	err = g2.AddEdge("a", "a", "b", "b")
	assert.ErrorAs(t, err, &up)
	assert.Equal(t, PortRef{Node: "b", Port: "b"}, up.Ref)
	assert.True(t, up.Input)
}

func TestAddFunctionValidation(t *testing.T) {
	port := []Port{{Name: "v", Type: TypeOf[int]()}}

	g := NewGraph("fn1")
	assert.ErrorContains(t, g.AddFunction("f", nil, port, port), "non-nil callable")

	g = NewGraph("fn2")
	assert.ErrorContains(t, g.AddFunction("f", intEcho(), port, nil), "at least one output port")

	g = NewGraph("fn3")
	assert.ErrorContains(t, g.AddFunction("f", intEcho(),
		[]Port{{Name: "v", Type: TypeOf[int]()}, {Name: "v", Type: TypeOf[int]()}},
		port), "declares port 'v' twice")

	g = NewGraph("fn4")
	assert.ErrorContains(t, g.AddFunction("f", intEcho(),
		[]Port{{Name: "", Type: TypeOf[int]()}}, port), "empty name")

	g = NewGraph("fn5")
	assert.ErrorContains(t, g.AddFunction("", intEcho(), port, port), "node key cannot be empty")
}

func TestAddSubgraphValidation(t *testing.T) {
	leaf := buildLeafGraph(t)

	g := NewGraph("sub1")
	assert.ErrorContains(t, g.AddSubgraph("s", nil, "chain_hash"), "non-nil inner graph")

	g = NewGraph("sub2")
	assert.ErrorContains(t, g.AddSubgraph("s", leaf), "must expose at least one output")

	g = NewGraph("sub3")
	// 只有内层的 Output 节点可以暴露。
	err := g.AddSubgraph("s", leaf, "upper")
	var up *UnknownPortError
	assert.ErrorAs(t, err, &up)
	assert.Equal(t, PortRef{Node: "s", Port: "upper"}, up.Ref)

	g = NewGraph("sub4")
	assert.ErrorContains(t, g.AddSubgraph("s", leaf, "chain_hash", "chain_hash"),
		"exposes output 'chain_hash' twice")
}

func TestSubgraphPortsMirrorInner(t *testing.T) {
	leaf := buildLeafGraph(t)

	g := NewGraph("mirror")
	assert.NoError(t, g.AddInput("n", TypeOf[int]()))
	assert.NoError(t, g.AddSubgraph("leaf", leaf, "chain_hash"))
	assert.NoError(t, g.AddOutput("h", TypeOf[int]()))

	// 子图输入端口镜像内层 Input 的类型：int 接 string 端口不兼容。
	assert.NoError(t, g.AddEdge("n", "n", "leaf", "text"))
	assert.NoError(t, g.AddEdge("leaf", "chain_hash", "h", "h"))

	_, err := g.Build()
	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Len(t, be.Mismatches, 1)
	assert.Equal(t, "string", be.Mismatches[0].Want)
	assert.Equal(t, "int", be.Mismatches[0].Got)
}

func TestSelfLoopDetected(t *testing.T) {
	g := NewGraph("selfloop")

	assert.NoError(t, g.AddFunction("f", intEcho(),
		[]Port{{Name: "in", Type: TypeOf[int]()}},
		[]Port{{Name: "out", Type: TypeOf[int]()}}))
	assert.NoError(t, g.AddEdge("f", "out", "f", "in"))

	_, err := g.Build()
	var be *BuildError
	assert.ErrorAs(t, err, &be)
	assert.Equal(t, [][]string{{"f", "f"}}, be.Cycles)
}
