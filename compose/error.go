package compose

/*
 * error.go - 错误体系
 *
 * 三个阶段的结构化错误：
 *   - 构图期：DuplicateNodeError / UnknownNodeError / UnknownPortError /
 *     PortAlreadyWiredError，在违规调用上立即返回，图保持先前的合法状态
 *   - 编译期：BuildError 聚合全部违规项（未布线端口、类型不匹配、环、
 *     未解析的边引用），一次修正即可全部解决
 *   - 执行期：MissingInputError / UnexpectedInputError /
 *     OutputArityMismatchError，以及包装用户函数自身错误的 NodeRunError
 *
 * NodeRunError 沿执行路径逐层累积节点路径，嵌套子图中的失败可精确定位，
 * 原始错误通过 Unwrap 保留，errors.Is / errors.As 均可穿透。
 */

import (
	"errors"
	"fmt"
	"strings"
)

// ErrGraphCompiled 图编译完成后禁止修改的错误。
var ErrGraphCompiled = errors.New("graph has been compiled, cannot be modified")

// ====== 构图期错误 ======

// DuplicateNodeError 节点标识符重复。
type DuplicateNodeError struct {
	Graph string
	Node  string
}

func (e *DuplicateNodeError) Error() string {
	return fmt.Sprintf("graph '%s': node '%s' already present", e.Graph, e.Node)
}

// UnknownNodeError 引用了图中不存在的节点。
type UnknownNodeError struct {
	Graph string
	Node  string
}

func (e *UnknownNodeError) Error() string {
	return fmt.Sprintf("graph '%s': unknown node '%s'", e.Graph, e.Node)
}

// UnknownPortError 引用了节点上不存在的端口。
// Input 标记引用方向：true 表示以输入端口身份被引用。
type UnknownPortError struct {
	Graph string
	Ref   PortRef
	Input bool
}

func (e *UnknownPortError) Error() string {
	side := "output"
	if e.Input {
		side = "input"
	}
	return fmt.Sprintf("graph '%s': node '%s' has no %s port '%s'",
		e.Graph, e.Ref.Node, side, e.Ref.Port)
}

// PortAlreadyWiredError 目标输入端口已有入边（扇入上限为 1）。
type PortAlreadyWiredError struct {
	Graph string
	Dst   PortRef
}

func (e *PortAlreadyWiredError) Error() string {
	return fmt.Sprintf("graph '%s': input port '%s' already wired", e.Graph, e.Dst)
}

// ====== 编译期错误 ======

// TypeMismatch 一条边两端的类型不兼容。
type TypeMismatch struct {
	Src  PortRef
	Dst  PortRef
	Want string // 目标输入端口声明的类型
	Got  string // 来源输出端口声明的类型
}

// BuildError 编译校验错误，聚合 Build 发现的全部违规项。
//
// 与逐条失败不同，一次 Build 报告所有问题，调用方修正一轮即可通过。
type BuildError struct {
	Graph string

	// Unresolved 未能解析的边引用。Port 为空表示节点缺失，否则为端口缺失。
	Unresolved []PortRef
	// Unwired 缺少入边的必填输入端口。
	Unwired []PortRef
	// Mismatches 类型不兼容的边。
	Mismatches []TypeMismatch
	// Cycles 检出的环，每个环为构成它的节点序列。
	Cycles [][]string
}

func (e *BuildError) empty() bool {
	return len(e.Unresolved) == 0 && len(e.Unwired) == 0 &&
		len(e.Mismatches) == 0 && len(e.Cycles) == 0
}

func (e *BuildError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("graph '%s' build failed:", e.Graph))

	for _, ref := range e.Unresolved {
		if ref.Port == "" {
			sb.WriteString(fmt.Sprintf("\n  unknown node: '%s'", ref.Node))
		} else {
			sb.WriteString(fmt.Sprintf("\n  unknown port: '%s'", ref))
		}
	}
	for _, ref := range e.Unwired {
		sb.WriteString(fmt.Sprintf("\n  unconnected input port: '%s'", ref))
	}
	for _, m := range e.Mismatches {
		sb.WriteString(fmt.Sprintf("\n  type mismatch on edge '%s' -> '%s': expected %s, got %s",
			m.Src, m.Dst, m.Want, m.Got))
	}
	for _, c := range e.Cycles {
		sb.WriteString(fmt.Sprintf("\n  cycle detected: [%s]", strings.Join(c, " -> ")))
	}
	return sb.String()
}

// ====== 执行期错误 ======

// MissingInputError 输入绑定缺少已声明的 Input 节点。
type MissingInputError struct {
	Graph  string
	Inputs []string // 按 Input 节点声明顺序，保证错误信息可复现
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("graph '%s': missing input bindings: %v", e.Graph, e.Inputs)
}

// UnexpectedInputError 输入绑定包含未声明的名称。
type UnexpectedInputError struct {
	Graph  string
	Inputs []string
}

func (e *UnexpectedInputError) Error() string {
	return fmt.Sprintf("graph '%s': unexpected input bindings: %v", e.Graph, e.Inputs)
}

// OutputArityMismatchError 函数实际返回值个数与声明的输出端口数不一致。
// 只有真正调用才能得知返回个数，故在首次执行而非编译期报出。
type OutputArityMismatchError struct {
	Node string
	Want int
	Got  int
}

func (e *OutputArityMismatchError) Error() string {
	return fmt.Sprintf("node '%s': output arity mismatch, declared %d output port(s), callable returned %d value(s)",
		e.Node, e.Want, e.Got)
}

// ====== 节点运行错误 ======

// NodeRunError 节点执行失败的包装错误。
//
// NodePath 记录从最外层图到失败节点的完整路径，嵌套子图逐层前缀累积。
// 原始错误（用户函数返回的 error、panic、arity 不匹配等）通过 Unwrap 保留。
type NodeRunError struct {
	NodePath []string

	origError error
}

// Error 实现 error 接口，生成带节点路径的错误描述。
func (e *NodeRunError) Error() string {
	sb := strings.Builder{}
	sb.WriteString("[NodeRunError] ")
	sb.WriteString(e.origError.Error())

	if len(e.NodePath) > 0 {
		sb.WriteString("\n------------------------\n")
		sb.WriteString("node path: [")
		sb.WriteString(strings.Join(e.NodePath, ", "))
		sb.WriteString("]")
	}
	return sb.String()
}

// Unwrap 返回原始错误以支持错误链。
func (e *NodeRunError) Unwrap() error {
	return e.origError
}

// wrapNodeRunError 为节点错误累积路径信息。
// 已是 NodeRunError 时前缀追加当前节点，保持调用栈顺序；否则首次包装。
func wrapNodeRunError(nodeKey string, err error) error {
	var nre *NodeRunError
	if errors.As(err, &nre) {
		nre.NodePath = append([]string{nodeKey}, nre.NodePath...)
		return nre
	}
	return &NodeRunError{
		NodePath:  []string{nodeKey},
		origError: err,
	}
}
