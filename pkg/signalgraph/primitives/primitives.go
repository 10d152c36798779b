// Package primitives provides constructors for the standard library of
// signal-graph node kinds, mirroring the original engine's built-in node
// set. Each constructor is a thin, typed wrapper over node.New: it exists
// to keep prop shapes and child arity consistent at every call site rather
// than to hide anything about NodeRepr.
package primitives

import "github.com/b00lduck/elementary/pkg/signalgraph/node"

// Root marks x as a graph root, tagging it with the default output
// channel. A directive's top-level node list is typically built from one
// or more Root nodes.
func Root(x node.NodeRepr) node.NodeRepr {
	return node.New("root", map[string]any{"channel": 0.0}, []node.NodeRepr{x})
}

// Sin computes the sine of its single input.
func Sin(x node.NodeRepr) node.NodeRepr {
	return node.New("sin", nil, []node.NodeRepr{x})
}

// Mul multiplies two inputs.
func Mul(x, y node.NodeRepr) node.NodeRepr {
	return node.New("mul", nil, []node.NodeRepr{x, y})
}

// Add sums two inputs.
func Add(x, y node.NodeRepr) node.NodeRepr {
	return node.New("add", nil, []node.NodeRepr{x, y})
}

// Phasor produces a sawtooth ramp in [0, 1) at the given rate.
func Phasor(rate node.NodeRepr) node.NodeRepr {
	return node.New("phasor", nil, []node.NodeRepr{rate})
}

// ConstProps is the property set for a Const node. Key is optional. As
// recorded in DESIGN.md, Key participates in the content hash like any
// other property and overrides none of the hash inputs, so a keyed Const
// whose Value changes still gets a new identity.
type ConstProps struct {
	Key   *string
	Value float64
}

// Const is a zero-input node producing a constant value.
func Const(props ConstProps) node.NodeRepr {
	propMap := map[string]any{"value": props.Value}
	if props.Key != nil {
		propMap["key"] = *props.Key
	} else {
		propMap["key"] = nil
	}

	return node.New("const", propMap, nil)
}

// CV is shorthand for an unkeyed Const carrying a control-voltage-style
// literal.
func CV(value float64) node.NodeRepr {
	return Const(ConstProps{Value: value})
}

// Le computes x <= y as a 0/1 signal.
func Le(x, y node.NodeRepr) node.NodeRepr {
	return node.New("le", nil, []node.NodeRepr{x, y})
}

// Train produces a pulse train at the given rate by comparing a Phasor
// against a fixed 0.5 threshold.
func Train(rate node.NodeRepr) node.NodeRepr {
	return Le(Phasor(rate), CV(0.5))
}

// SampleProps is the property set for a Sample node.
type SampleProps struct {
	Key  *string
	Path string
}

// Sample plays back a named shared resource, triggered by gate.
func Sample(props SampleProps, gate node.NodeRepr) node.NodeRepr {
	propMap := map[string]any{"path": props.Path}
	if props.Key != nil {
		propMap["key"] = *props.Key
	} else {
		propMap["key"] = nil
	}

	return node.New("sample", propMap, []node.NodeRepr{gate})
}
