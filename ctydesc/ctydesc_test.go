package ctydesc

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/zclconf/go-cty/cty"

	"github.com/favbox/flowgraph/compose"
)

func TestCtyTypeDesc(t *testing.T) {
	assert.Equal(t, "number", Type(cty.Number).Name())
	assert.Equal(t, "list of string", Type(cty.List(cty.String)).Name())

	// 相等类型直接接入。
	assert.True(t, Type(cty.Number).Accepts(Type(cty.Number)))

	// 安全转换：number → string 可以，string → number 不行。
	assert.True(t, Type(cty.String).Accepts(Type(cty.Number)))
	assert.False(t, Type(cty.Number).Accepts(Type(cty.String)))

	// 集合类型按元素递归判定。
	assert.True(t, Type(cty.List(cty.String)).Accepts(Type(cty.List(cty.Number))))
	assert.False(t, Type(cty.List(cty.Number)).Accepts(Type(cty.List(cty.String))))

	// 动态伪类型接受任意 cty 来源。
	assert.True(t, Type(cty.DynamicPseudoType).Accepts(Type(cty.Bool)))
}

func TestCtyDescInterop(t *testing.T) {
	// 与反射描述符互通时退化为名称相等。
	assert.True(t, Type(cty.String).Accepts(compose.TypeOf[string]()))
	assert.False(t, Type(cty.Number).Accepts(compose.TypeOf[string]()))
	assert.True(t, compose.TypeOf[string]().Accepts(Type(cty.String)))
}

func TestCtyDescInGraphBuild(t *testing.T) {
	g := compose.NewGraph("cfg")

	assert.NoError(t, g.AddInput("count", Type(cty.Number)))
	assert.NoError(t, g.AddFunction("label",
		compose.Lambda1(func(_ context.Context, v any) (any, error) { return v, nil }),
		[]compose.Port{{Name: "v", Type: Type(cty.String)}},
		[]compose.Port{{Name: "v", Type: Type(cty.String)}}))
	assert.NoError(t, g.AddOutput("out", Type(cty.Bool)))

	// number → string 合法，string → bool 不合法。
	assert.NoError(t, g.AddEdge("count", "count", "label", "v"))
	assert.NoError(t, g.AddEdge("label", "v", "out", "out"))

	_, err := g.Build()
	var be *compose.BuildError
	assert.ErrorAs(t, err, &be)
	assert.Len(t, be.Mismatches, 1)
	assert.Equal(t, "bool", be.Mismatches[0].Want)
	assert.Equal(t, "string", be.Mismatches[0].Got)
}
