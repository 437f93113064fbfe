// Package ctydesc 提供基于 cty 类型系统的端口类型描述符。
//
// 适用于图结构来自配置文件（HCL/JSON 等）的场景：端口类型以 cty.Type
// 声明，兼容性判定采用 cty 的安全转换规则，来源类型能无损转换到目标
// 类型即视为可接入（如 number → string），与默认的反射描述符互为补充。
package ctydesc

import (
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/favbox/flowgraph/compose"
)

// Type 将 cty 类型包装为端口类型描述符。
func Type(t cty.Type) compose.TypeDesc {
	return ctyType{t: t}
}

type ctyType struct {
	t cty.Type
}

// Name 返回 cty 类型的友好名称，如 "number"、"list of string"。
func (c ctyType) Name() string {
	return c.t.FriendlyName()
}

// Accepts 判断来源类型能否接入。
// 同为 cty 描述符时检查类型相等或存在安全转换；其他描述符实现按名称
// 相等判定；cty.DynamicPseudoType 接受任意 cty 来源。
func (c ctyType) Accepts(src compose.TypeDesc) bool {
	s, ok := src.(ctyType)
	if !ok {
		return c.Name() == src.Name()
	}

	if c.t.Equals(cty.DynamicPseudoType) || s.t.Equals(c.t) {
		return true
	}
	return convert.GetConversion(s.t, c.t) != nil
}
