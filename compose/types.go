package compose

import (
	"reflect"

	"github.com/favbox/flowgraph/internal/generic"
)

// TypeDesc 端口类型描述符接口。
//
// 描述一个端口承载值的语义类型，并提供单一的兼容性判定操作。
// 类型系统是开放的：任何实现本接口的描述符都可以参与构图期类型校验，
// 默认提供基于反射的实现（TypeOf）与全通配实现（AnyType）。
type TypeDesc interface {
	// Name 返回类型的可读名称，用于错误信息与图导出。
	Name() string

	// Accepts 判断来源端口的输出类型能否接入当前输入端口。
	Accepts(src TypeDesc) bool
}

// AnyType 接受任意来源类型的描述符。
// 用于不关心类型的端口，兼容性检查恒为真。
var AnyType TypeDesc = anyType{}

type anyType struct{}

func (anyType) Name() string { return "any" }
func (anyType) Accepts(TypeDesc) bool { return true }

// reflectType 基于 reflect.Type 的默认类型描述符。
type reflectType struct {
	t reflect.Type
}

// TypeOf 返回以 Go 类型 T 为语义的端口类型描述符。
//
// 示例：
//
//	TypeOf[string]()         // 名称 "string"
//	TypeOf[[]int]()          // 名称 "[]int"
//	TypeOf[io.Reader]()      // 接口类型，接受任何实现
func TypeOf[T any]() TypeDesc {
	return reflectType{t: generic.TypeOf[T]()}
}

func (r reflectType) Name() string {
	return r.t.String()
}

// Accepts 基于 Go 的可赋值性判定兼容。
// 来源同为反射描述符时检查可赋值性与接口实现；来源为 AnyType 时拒绝
// （无类型信息的值不能接入强类型端口）；其他描述符实现按名称相等判定。
func (r reflectType) Accepts(src TypeDesc) bool {
	s, ok := src.(reflectType)
	if !ok {
		if _, isAny := src.(anyType); isAny {
			return false
		}
		return r.Name() == src.Name()
	}

	if s.t.AssignableTo(r.t) {
		return true
	}
	if r.t.Kind() == reflect.Interface && s.t.Implements(r.t) {
		return true
	}
	return false
}

// NodeKind 节点种类。
type NodeKind string

const (
	// NodeKindInput 输入节点：0 个输入端口，1 个与节点同名的输出端口。
	NodeKindInput NodeKind = "input"
	// NodeKindOutput 终端输出节点：1 个与节点同名的输入端口，0 个输出端口。
	NodeKindOutput NodeKind = "output"
	// NodeKindFunction 函数节点：N 个输入端口，M 个输出端口（M ≥ 1）。
	NodeKindFunction NodeKind = "function"
	// NodeKindSubgraph 子图节点：包装一个已编译图，端口镜像其输入与暴露的输出。
	NodeKindSubgraph NodeKind = "subgraph"
)

// Port 节点上的命名类型端口。
type Port struct {
	Name string
	Type TypeDesc
}

// PortRef 图内端口的全局引用：节点名 + 端口名。
type PortRef struct {
	Node string
	Port string
}

func (p PortRef) String() string {
	return p.Node + "." + p.Port
}

// edge 一条有向连线：源节点输出端口 → 目标节点输入端口。
type edge struct {
	src PortRef
	dst PortRef
}
