// Package validator checks that a tree produced by the builder is in
// canonical form: every name is resolved, every write carries its value
// and no placeholder is left behind.
package validator

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

type scope struct {
	bindings map[string]bool
	parent   *scope
}

func newScope(parent *scope) *scope {
	return &scope{bindings: make(map[string]bool), parent: parent}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string) {
	s.bindings[name] = true
}

func (s *scope) hasLocal(name string) bool {
	return s.bindings[name]
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate performs structural checks on a tree and returns diagnostics.
func Validate(root ast.Node) []diagnostics.Diagnostic {
	v := &validator{}
	v.validateNode(root, newScope(nil))
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (v *validator) validateNodes(nodes []ast.Node, sc *scope) {
	for _, n := range nodes {
		v.validateNode(n, sc)
	}
}

func (v *validator) validateNode(node ast.Node, sc *scope) {
	if node == nil {
		return
	}

	switch n := node.(type) {
	case *ast.Ident:
		v.addDiag(diagnostics.EAst, fmt.Sprintf("unresolved identifier '%s'", n.Name), n.Span)

	case *ast.Dummy:
		v.addDiag(diagnostics.EAst, "placeholder node left in tree", n.Span)

	case *ast.LVar:
		if !sc.has(n.Name) {
			v.addDiag(diagnostics.EAst, fmt.Sprintf("local variable '%s' read before assignment", n.Name), n.Span)
		}

	case *ast.LVasgn:
		// x = x reads the variable it declares
		sc.add(n.Name)
		v.validateWrite(n, n.Value, sc)

	case *ast.IVasgn:
		v.validateWrite(n, n.Value, sc)
	case *ast.GVasgn:
		v.validateWrite(n, n.Value, sc)
	case *ast.CVasgn:
		v.validateWrite(n, n.Value, sc)
	case *ast.Casgn:
		v.validateNode(n.Scope, sc)
		v.validateWrite(n, n.Value, sc)

	case *ast.OpAsgn:
		v.validateTarget(n.Target, sc)
		v.validateNode(n.Value, sc)
	case *ast.AndAsgn:
		v.validateTarget(n.Target, sc)
		v.validateNode(n.Value, sc)
	case *ast.OrAsgn:
		v.validateTarget(n.Target, sc)
		v.validateNode(n.Value, sc)

	case *ast.Send:
		v.validateCall(n.Span, n.Receiver, n.Method, n.Args, sc)
	case *ast.CSend:
		v.validateCall(n.Span, n.Receiver, n.Method, n.Args, sc)

	case *ast.Def:
		// method bodies do not see the enclosing locals
		child := newScope(nil)
		v.validateArgs(n.Args, child)
		v.validateNode(n.Body, child)

	case *ast.Defs:
		v.validateNode(n.Singleton, sc)
		child := newScope(nil)
		v.validateArgs(n.Args, child)
		v.validateNode(n.Body, child)

	case *ast.Block:
		v.validateNode(n.Call, sc)
		child := newScope(sc)
		v.validateArgs(n.Args, child)
		v.validateNode(n.Body, child)

	case *ast.Args:
		v.validateArgs(n, sc)

	default:
		v.validateNodes(ast.Children(node), sc)
	}
}

// validateWrite checks a plain assignment, which must carry its value.
func (v *validator) validateWrite(n ast.Node, value ast.Node, sc *scope) {
	if value == nil {
		v.addDiag(diagnostics.EAst, fmt.Sprintf("%s without a value", n.Kind()), n.NodeSpan())
		return
	}
	v.validateNode(value, sc)
}

// validateTarget checks the target of an operator assignment, which is a
// write node without a value or an attribute or index call.
func (v *validator) validateTarget(target ast.Node, sc *scope) {
	switch t := target.(type) {
	case *ast.LVasgn:
		sc.add(t.Name)
		if t.Value != nil {
			v.addDiag(diagnostics.EAst, "operator assignment target carries a value", t.Span)
		}
	case *ast.IVasgn, *ast.GVasgn, *ast.CVasgn:
		v.validateNodes(ast.Children(t), sc)
	case *ast.Casgn:
		v.validateNode(t.Scope, sc)
	case *ast.Send, *ast.CSend, *ast.Dummy:
		v.validateNode(t, sc)
	default:
		v.addDiag(diagnostics.EAst, fmt.Sprintf("invalid operator assignment target %s", target.Kind()), target.NodeSpan())
	}
}

func (v *validator) validateCall(span ast.Span, recv ast.Node, method string, args []ast.Node, sc *scope) {
	if method == "" {
		v.addDiag(diagnostics.EAst, "call without a method name", span)
	}
	v.validateNode(recv, sc)
	v.validateNodes(args, sc)
}

// validateArgs declares every argument in sc and reports duplicates.
// Names starting with an underscore may repeat.
func (v *validator) validateArgs(args *ast.Args, sc *scope) {
	if args == nil {
		return
	}
	for _, a := range args.Args {
		var name string
		switch a := a.(type) {
		case *ast.Arg:
			name = a.Name
		case *ast.OptArg:
			v.validateNode(a.Default, sc)
			name = a.Name
		case *ast.KwArg:
			name = a.Name
		case *ast.KwOptArg:
			v.validateNode(a.Default, sc)
			name = a.Name
		case *ast.RestArg:
			name = a.Name
		case *ast.BlockArg:
			name = a.Name
		default:
			v.validateNode(a, sc)
			continue
		}
		if name == "" {
			continue
		}
		if sc.hasLocal(name) && !strings.HasPrefix(name, "_") {
			v.addDiag(diagnostics.EDupArg, fmt.Sprintf("duplicated argument name '%s'", name), a.NodeSpan())
		}
		sc.add(name)
	}
}
