// Package pgq builds PostgreSQL statements from a tree of expression nodes.
//
// Factory functions (Select, Insert, Col, Val, Op, ...) construct nodes;
// Compile renders a node to SQL text. Values are escaped on emission, so the
// resulting string is safe to send as-is.
package pgq

import (
	"strings"
)

// Node is an element of the query tree.
type Node interface {
	// Compile renders the node to SQL text. It is deterministic and leaves
	// the node unchanged.
	Compile() (string, error)
	// As wraps the node with an alias that is emitted in projection
	// contexts.
	As(name string) Node
	// In builds an IN condition with the node as the left-hand side. The
	// values render as a parenthesized tuple.
	In(values ...any) Node
}

// MustCompile compiles the node and panics on failure. Useful for statically
// known queries.
func MustCompile(n Node) string {
	s, err := n.Compile()
	if err != nil {
		panic(err)
	}
	return s
}

// predications is embedded by every node type to provide the fluent
// expression sugar. self points back at the embedding node.
type predications struct {
	self Node
}

func (p predications) As(name string) Node {
	a := &aliasedNode{inner: p.self, name: name}
	a.self = a
	return a
}

// In builds an IN condition with the node as the left-hand side. The values
// render as a parenthesized tuple.
func (p predications) In(values ...any) Node {
	o := &operatorNode{op: "IN", left: p.self, right: list(values...)}
	o.self = o
	return o
}

type rawNode struct {
	predications
	text string
}

// Raw returns a node holding an opaque SQL fragment emitted verbatim.
func Raw(text string) Node {
	n := &rawNode{text: text}
	n.self = n
	return n
}

func (n *rawNode) Compile() (string, error) {
	return n.text, nil
}

type columnNode struct {
	predications
	parts []string
}

// Col returns a column reference. Arguments are identifier path segments;
// dots within an argument split it further, and "*" segments stay unquoted.
func Col(parts ...string) Node {
	n := &columnNode{parts: parts}
	n.self = n
	return n
}

func (n *columnNode) Compile() (string, error) {
	return EscapeIdentifier(n.parts...)
}

type valueNode struct {
	predications
	v any
}

// Val returns a literal value node, escaped on emission.
func Val(v any) Node {
	n := &valueNode{v: v}
	n.self = n
	return n
}

func (n *valueNode) Compile() (string, error) {
	return EscapeValue(n.v)
}

type arrayNode struct {
	predications
	items []any
}

// ArrayVal returns a node that renders its items as an ARRAY literal.
func ArrayVal(items ...any) Node {
	return list(items...)
}

func list(items ...any) *arrayNode {
	n := &arrayNode{items: items}
	n.self = n
	return n
}

func (n *arrayNode) Compile() (string, error) {
	if len(n.items) == 0 {
		return "'{}'", nil
	}
	csv, err := n.csv()
	if err != nil {
		return "", err
	}
	return "ARRAY[" + csv + "]", nil
}

// csv renders the items as a comma-separated list without the surrounding
// ARRAY[...]. Used for IN tuples.
func (n *arrayNode) csv() (string, error) {
	b := strings.Builder{}
	for i, item := range n.items {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := compileItem(item)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

// compileItem renders an array element: nodes compile, everything else is
// escaped as a value nested one level inside an array.
func compileItem(item any) (string, error) {
	if n, ok := item.(Node); ok {
		return n.Compile()
	}
	return escapeValue(item, 1)
}

type jsonNode struct {
	predications
	v any
}

// JsonVal returns a node that renders its value as a quoted JSON literal.
func JsonVal(v any) Node {
	n := &jsonNode{v: v}
	n.self = n
	return n
}

func (n *jsonNode) Compile() (string, error) {
	return escapeJSON(n.v)
}

type funcNode struct {
	predications
	name string
	args []Node
}

// Fn returns a function call node. String arguments are taken as column
// references, nodes are embedded as-is, everything else becomes a value.
func Fn(name string, args ...any) Node {
	n := &funcNode{name: name}
	for _, a := range args {
		n.args = append(n.args, exprOf(a))
	}
	n.self = n
	return n
}

// Min builds a MIN(arg) call.
func Min(arg any) Node { return Fn("MIN", arg) }

// Max builds a MAX(arg) call.
func Max(arg any) Node { return Fn("MAX", arg) }

// Count builds a COUNT(arg) call.
func Count(arg any) Node { return Fn("COUNT", arg) }

// Sum builds a SUM(arg) call.
func Sum(arg any) Node { return Fn("SUM", arg) }

// Avg builds an AVG(arg) call.
func Avg(arg any) Node { return Fn("AVG", arg) }

func (n *funcNode) Compile() (string, error) {
	b := strings.Builder{}
	b.WriteString(n.name)
	b.WriteString("(")
	for i, a := range n.args {
		if i > 0 {
			b.WriteString(", ")
		}
		s, err := a.Compile()
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	b.WriteString(")")
	return b.String(), nil
}

type aliasedNode struct {
	predications
	inner Node
	name  string
}

func (n *aliasedNode) Compile() (string, error) {
	s, err := n.inner.Compile()
	if err != nil {
		return "", err
	}
	if isStatement(n.inner) {
		s = "(" + s + ")"
	}
	return s + " AS " + quoteIdent(n.name), nil
}

// stripAlias unwraps alias nodes. Aliases only matter in projection
// contexts; everywhere else the underlying expression is emitted.
func stripAlias(n Node) Node {
	if a, ok := n.(*aliasedNode); ok {
		return stripAlias(a.inner)
	}
	return n
}

// isStatement reports whether the node compiles to a complete statement and
// therefore needs parentheses when used as a subexpression.
func isStatement(n Node) bool {
	switch n.(type) {
	case *Query, *Combined:
		return true
	}
	return false
}

// exprOf normalizes a heterogeneous argument into an expression node:
// strings become column references, nodes pass through, anything else is a
// literal value.
func exprOf(v any) Node {
	switch x := v.(type) {
	case Node:
		return x
	case string:
		return Col(x)
	default:
		return Val(x)
	}
}
