package pgq

import (
	"reflect"
	"strings"

	"github.com/pkg/errors"
)

// precedence of the supported operators; higher binds tighter. An operand
// that is itself an operator of lower or equal precedence gets parenthesized.
var precedence = map[string]int{
	"NOT": 7,
	"*":   6, "/": 6, "%": 6,
	"+": 5, "-": 5,
	"=": 4, "<>": 4, "!=": 4, "<": 4, "<=": 4, ">": 4, ">=": 4,
	"IN":  3,
	"AND": 2,
	"OR":  1,
}

// opPrecedence returns the binding strength of an operator, defaulting to
// comparison level for operators outside the table (LIKE, IS, ...).
func opPrecedence(op string) int {
	if p, ok := precedence[op]; ok {
		return p
	}
	return 4
}

type operatorNode struct {
	predications
	op          string
	left, right Node
}

// Op builds a binary operator expression. The left argument is taken as a
// column when given as a string; the right one as a value. For IN, a
// slice on the right becomes the member tuple.
func Op(left any, op string, right any) Node {
	op = strings.ToUpper(strings.TrimSpace(op))
	n := &operatorNode{op: op, left: exprOf(left)}
	if op == "IN" {
		n.right = inList(right)
	} else if r, ok := right.(Node); ok {
		n.right = r
	} else {
		n.right = Val(right)
	}
	n.self = n
	return n
}

// inList normalizes the right-hand side of an IN condition.
func inList(v any) Node {
	if n, ok := v.(Node); ok {
		return n
	}
	rv := reflect.ValueOf(v)
	if v != nil && (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array) {
		items := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
		return list(items...)
	}
	return list(v)
}

func (n *operatorNode) Compile() (string, error) {
	if n.op == "IN" {
		return n.compileIn()
	}
	prec := opPrecedence(n.op)
	left, err := compileOperand(n.left, prec)
	if err != nil {
		return "", err
	}
	right, err := compileOperand(n.right, prec)
	if err != nil {
		return "", err
	}
	return left + " " + n.op + " " + right, nil
}

func (n *operatorNode) compileIn() (string, error) {
	left, err := compileOperand(n.left, opPrecedence("IN"))
	if err != nil {
		return "", err
	}
	switch rhs := stripAlias(n.right).(type) {
	case *arrayNode:
		csv, err := rhs.csv()
		if err != nil {
			return "", err
		}
		return left + " IN (" + csv + ")", nil
	case *Query, *Combined:
		sub, err := rhs.Compile()
		if err != nil {
			return "", err
		}
		return left + " IN (" + sub + ")", nil
	default:
		s, err := rhs.Compile()
		if err != nil {
			return "", err
		}
		return left + " IN (" + s + ")", nil
	}
}

// compileOperand renders an operand of an operator with the given
// precedence, parenthesizing when the operand binds no tighter.
func compileOperand(n Node, prec int) (string, error) {
	n = stripAlias(n)
	s, err := n.Compile()
	if err != nil {
		return "", err
	}
	switch v := n.(type) {
	case *operatorNode:
		if opPrecedence(v.op) <= prec {
			s = "(" + s + ")"
		}
	case *logicalGroup:
		s = "(" + s + ")"
	case *notNode:
		// NOT binds tightest; never needs extra parentheses.
	default:
		if isStatement(n) {
			s = "(" + s + ")"
		}
	}
	return s, nil
}

type logicalGroup struct {
	predications
	op       string
	children []Node
}

// And joins the expressions into a conjunction. Nested groups are
// parenthesized on emission.
func And(exprs ...Node) Node {
	return newGroup("AND", exprs)
}

// Or joins the expressions into a disjunction.
func Or(exprs ...Node) Node {
	return newGroup("OR", exprs)
}

func newGroup(op string, exprs []Node) Node {
	n := &logicalGroup{op: op, children: exprs}
	n.self = n
	return n
}

func (n *logicalGroup) Compile() (string, error) {
	if len(n.children) == 0 {
		return "", errors.Wrapf(ErrQueryShape, "%s with no members", n.op)
	}
	prec := opPrecedence(n.op)
	b := strings.Builder{}
	for i, c := range n.children {
		if i > 0 {
			b.WriteString(" " + n.op + " ")
		}
		s, err := compileOperand(c, prec)
		if err != nil {
			return "", err
		}
		b.WriteString(s)
	}
	return b.String(), nil
}

type notNode struct {
	predications
	expr Node
}

// Not negates the expression.
func Not(expr Node) Node {
	n := &notNode{expr: expr}
	n.self = n
	return n
}

func (n *notNode) Compile() (string, error) {
	s, err := compileOperand(n.expr, opPrecedence("NOT"))
	if err != nil {
		return "", err
	}
	return "NOT " + s, nil
}
