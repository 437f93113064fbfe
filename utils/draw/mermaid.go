// Package draw 将已编译图的只读结构信息渲染为 mermaid 流程图标记。
//
// 渲染完全建立在 compose.GraphInfo 之上，不触达图的内部状态。输入、
// 中间值、终端输出、函数与子图各有独立的样式类；跨子图边界的连线用
// 虚线，顶层连线用实线。
package draw

import (
	"fmt"
	"strings"

	"github.com/slongfield/pyfmt"

	"github.com/favbox/flowgraph/compose"
)

// Orientation 图方向。
type Orientation string

const (
	TopToBottom Orientation = "TB"
	BottomToTop Orientation = "BT"
	RightToLeft Orientation = "RL"
	LeftToRight Orientation = "LR"
)

// StyleClass mermaid classDef 样式类。
type StyleClass string

const (
	// StyleInput 外部输入节点。
	StyleInput StyleClass = "ks"
	// StyleIntermediate 仅图内可见的中间数据节点。
	StyleIntermediate StyleClass = "is"
	// StyleTerminal 终端输出节点。
	StyleTerminal StyleClass = "ts"
	// StyleSubgraph 子图边界节点。
	StyleSubgraph StyleClass = "ss"
	// StyleFunction 函数节点。
	StyleFunction StyleClass = "fs"
)

// styleClasses classDef 的固定输出顺序。
var styleClasses = []StyleClass{StyleInput, StyleIntermediate, StyleTerminal, StyleSubgraph, StyleFunction}

var defaultColours = map[StyleClass]string{
	StyleInput:        "#008000",
	StyleIntermediate: "#ffff00",
	StyleTerminal:     "#ff0000",
	StyleSubgraph:     "#00ffff",
	StyleFunction:     "#0000ff",
}

const defaultAlpha = 0.05

// Option 渲染的可选配置。
type Option func(*options)

type options struct {
	orientation     Orientation
	colours         map[StyleClass]string
	alphas          map[StyleClass]float64
	dataLabelFormat string
	expandSubgraphs bool
}

// WithOrientation 设置图方向，默认从左到右。
func WithOrientation(o Orientation) Option {
	return func(opts *options) { opts.orientation = o }
}

// WithColour 覆盖某个样式类的填充色（十六进制，如 "#336699"）。
func WithColour(class StyleClass, hex string) Option {
	return func(opts *options) { opts.colours[class] = hex }
}

// WithAlpha 覆盖某个样式类填充色的透明度，取值 [0, 1]。
func WithAlpha(class StyleClass, alpha float64) Option {
	return func(opts *options) { opts.alphas[class] = alpha }
}

// WithDataLabelFormat 设置数据节点（输入/输出）的标签模板。
// python 风格格式串，可用字段 {key} 与 {type}，默认 "{key}: {type}"。
func WithDataLabelFormat(format string) Option {
	return func(opts *options) { opts.dataLabelFormat = format }
}

// WithExpandSubgraphs 将子图节点展开为 mermaid subgraph 块，
// 展示内层节点与布线；默认渲染为不透明的六边形节点。
func WithExpandSubgraphs() Option {
	return func(opts *options) { opts.expandSubgraphs = true }
}

// Mermaid 将图结构信息渲染为 mermaid 流程图标记。
func Mermaid(info *compose.GraphInfo, opts ...Option) (string, error) {
	o := &options{
		orientation:     LeftToRight,
		colours:         make(map[StyleClass]string),
		alphas:          make(map[StyleClass]float64),
		dataLabelFormat: "{key}: {type}",
	}
	for _, opt := range opts {
		opt(o)
	}

	r := &renderer{o: o, defined: make(map[string]bool)}

	r.writef("graph %s\n\n", o.orientation)
	if err := r.renderGraph(info, "", topLevelClass); err != nil {
		return "", err
	}

	r.writef("\n  %%%% Styling\n")
	for _, class := range styleClasses {
		colour, ok := o.colours[class]
		if !ok {
			colour = defaultColours[class]
		}
		alpha, ok := o.alphas[class]
		if !ok {
			alpha = defaultAlpha
		}
		ah, err := alphaHex(alpha)
		if err != nil {
			return "", err
		}
		r.writef("  classDef %s fill:%s%s;\n", class, colour, ah)
	}

	return r.sb.String(), nil
}

// topLevelClass 顶层数据节点的样式类。
func topLevelClass(n compose.NodeInfo) StyleClass {
	if n.Kind == compose.NodeKindInput {
		return StyleInput
	}
	return StyleTerminal
}

// innerClass 展开的子图内部数据节点的样式类：
// 暴露的输出仍视作终端，其余（输入与隐藏输出）视作中间数据。
func innerClass(exposed []string) func(n compose.NodeInfo) StyleClass {
	set := make(map[string]bool, len(exposed))
	for _, name := range exposed {
		set[name] = true
	}
	return func(n compose.NodeInfo) StyleClass {
		if n.Kind == compose.NodeKindOutput && set[n.Key] {
			return StyleTerminal
		}
		return StyleIntermediate
	}
}

type renderer struct {
	o       *options
	sb      strings.Builder
	defined map[string]bool
}

func (r *renderer) writef(format string, args ...any) {
	fmt.Fprintf(&r.sb, format, args...)
}

// renderGraph 渲染一张图：先展开子图块，再写连线，最后补齐孤立节点。
// prefix 为嵌套层级的节点 ID 前缀，classFn 决定数据节点的样式类。
func (r *renderer) renderGraph(info *compose.GraphInfo, prefix string, classFn func(compose.NodeInfo) StyleClass) error {
	nodes := make(map[string]compose.NodeInfo, len(info.Nodes))
	for _, n := range info.Nodes {
		nodes[n.Key] = n
	}

	if r.o.expandSubgraphs {
		for _, n := range info.Nodes {
			if n.Kind != compose.NodeKindSubgraph {
				continue
			}
			id := prefix + "sg_" + sanitize(n.Key)
			r.defined[id] = true
			r.writef("  subgraph %s [\"%s\"]\n", id, n.Label)
			if err := r.renderGraph(n.Subgraph, id+"__", innerClass(n.Exposed)); err != nil {
				return err
			}
			r.writef("  end\n")
		}
	}

	for _, e := range info.Edges {
		src, srcDotted, err := r.endpoint(prefix, nodes[e.SrcNode], e.SrcPort, false, classFn)
		if err != nil {
			return err
		}
		dst, dstDotted, err := r.endpoint(prefix, nodes[e.DstNode], e.DstPort, true, classFn)
		if err != nil {
			return err
		}

		arrow := "-->"
		if srcDotted || dstDotted {
			arrow = "-.->"
		}
		r.writef("  %s %s %s\n", src, arrow, dst)
	}

	// 没有任何连线经过的节点（如未使用的输入）单独补一行定义。
	for _, n := range info.Nodes {
		if n.Kind == compose.NodeKindSubgraph && r.o.expandSubgraphs {
			continue
		}
		if r.defined[nodeID(prefix, n)] {
			continue
		}
		term, _, err := r.endpoint(prefix, n, "", false, classFn)
		if err != nil {
			return err
		}
		r.writef("  %s\n", term)
	}
	return nil
}

// nodeID 节点的 mermaid 标识符，按种类加前缀避免不同类节点重名。
func nodeID(prefix string, n compose.NodeInfo) string {
	kindPrefix := map[compose.NodeKind]string{
		compose.NodeKindInput:    "in_",
		compose.NodeKindOutput:   "out_",
		compose.NodeKindFunction: "fn_",
		compose.NodeKindSubgraph: "sg_",
	}[n.Kind]
	return prefix + kindPrefix + sanitize(n.Key)
}

// endpoint 计算连线一端的 mermaid 词项：首次出现时携带完整定义与样式类，
// 之后仅引用 ID。子图节点在不展开时返回六边形词项并要求虚线；展开时
// 路由到内层对应的输入/输出节点。
func (r *renderer) endpoint(prefix string, n compose.NodeInfo, port string, isDst bool, classFn func(compose.NodeInfo) StyleClass) (string, bool, error) {
	switch n.Kind {
	case compose.NodeKindInput:
		label, err := r.dataLabel(n.Key, portType(n.Outputs, n.Key))
		if err != nil {
			return "", false, err
		}
		id := prefix + "in_" + sanitize(n.Key)
		return r.define(id, fmt.Sprintf("%s[\"%s\"]:::%s", id, label, classFn(n))), false, nil

	case compose.NodeKindOutput:
		label, err := r.dataLabel(n.Key, portType(n.Inputs, n.Key))
		if err != nil {
			return "", false, err
		}
		id := prefix + "out_" + sanitize(n.Key)
		return r.define(id, fmt.Sprintf("%s[\"%s\"]:::%s", id, label, classFn(n))), false, nil

	case compose.NodeKindFunction:
		id := prefix + "fn_" + sanitize(n.Key)
		return r.define(id, fmt.Sprintf("%s([\"%s\"]):::%s", id, n.Label, StyleFunction)), false, nil

	case compose.NodeKindSubgraph:
		if !r.o.expandSubgraphs {
			id := prefix + "sg_" + sanitize(n.Key)
			return r.define(id, fmt.Sprintf("%s{{\"%s\"}}:::%s", id, n.Label, StyleSubgraph)), true, nil
		}

		// 展开模式：连线穿过子图边界，落到内层的输入/输出节点上。
		innerPrefix := prefix + "sg_" + sanitize(n.Key) + "__"
		for _, inner := range n.Subgraph.Nodes {
			if inner.Key != port {
				continue
			}
			if isDst && inner.Kind == compose.NodeKindInput ||
				!isDst && inner.Kind == compose.NodeKindOutput {
				term, _, err := r.endpoint(innerPrefix, inner, "", isDst, innerClass(n.Exposed))
				return term, true, err
			}
		}
		return "", false, fmt.Errorf("draw: subgraph '%s' has no boundary node '%s'", n.Key, port)
	}
	return "", false, fmt.Errorf("draw: unknown node kind %q", n.Kind)
}

// define 首次出现返回完整定义并登记，之后返回裸 ID。
func (r *renderer) define(id, def string) string {
	if r.defined[id] {
		return id
	}
	r.defined[id] = true
	return def
}

func (r *renderer) dataLabel(key, typ string) (string, error) {
	return pyfmt.Fmt(r.o.dataLabelFormat, map[string]any{"key": key, "type": typ})
}

// portType 数据节点唯一端口的类型名。
func portType(ports []compose.PortInfo, name string) string {
	for _, p := range ports {
		if p.Name == name {
			return p.Type
		}
	}
	return ""
}

// sanitize 将节点键转换为合法的 mermaid 标识符。
func sanitize(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, key)
}

// alphaHex 将 [0, 1] 的透明度转换为两位十六进制后缀。
func alphaHex(alpha float64) (string, error) {
	if alpha < 0 || alpha > 1 {
		return "", fmt.Errorf("draw: alpha %v out of range [0, 1]", alpha)
	}
	return fmt.Sprintf("%02x", int(255*alpha)), nil
}
