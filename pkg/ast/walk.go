package ast

// Children returns the direct child nodes of n in source order. Nil
// children are omitted.
func Children(n Node) []Node {
	var out []Node
	add := func(ns ...Node) {
		for _, c := range ns {
			if c != nil {
				out = append(out, c)
			}
		}
	}

	switch n := n.(type) {
	case *Complex:
		add(n.Imag)
	case *DStr:
		add(n.Parts...)
	case *XStr:
		add(n.Parts...)
	case *DSym:
		add(n.Parts...)
	case *Regexp:
		add(n.Parts...)
		if n.Options != nil {
			add(n.Options)
		}
	case *Array:
		add(n.Elements...)
	case *Pair:
		add(n.Key, n.Value)
	case *Hash:
		add(n.Pairs...)
	case *Splat:
		add(n.Value)
	case *IRange:
		add(n.Lo, n.Hi)
	case *ERange:
		add(n.Lo, n.Hi)
	case *Const:
		add(n.Scope)
	case *LVasgn:
		add(n.Value)
	case *IVasgn:
		add(n.Value)
	case *GVasgn:
		add(n.Value)
	case *CVasgn:
		add(n.Value)
	case *Casgn:
		add(n.Scope, n.Value)
	case *OpAsgn:
		add(n.Target, n.Value)
	case *AndAsgn:
		add(n.Target, n.Value)
	case *OrAsgn:
		add(n.Target, n.Value)
	case *And:
		add(n.Left, n.Right)
	case *Or:
		add(n.Left, n.Right)
	case *While:
		add(n.Cond, n.Body)
	case *Until:
		add(n.Cond, n.Body)
	case *Send:
		add(n.Receiver)
		add(n.Args...)
	case *CSend:
		add(n.Receiver)
		add(n.Args...)
	case *Def:
		if n.Args != nil {
			add(n.Args)
		}
		add(n.Body)
	case *Defs:
		add(n.Singleton)
		if n.Args != nil {
			add(n.Args)
		}
		add(n.Body)
	case *Args:
		add(n.Args...)
	case *OptArg:
		add(n.Default)
	case *KwOptArg:
		add(n.Default)
	case *Block:
		add(n.Call)
		if n.Args != nil {
			add(n.Args)
		}
		add(n.Body)
	case *Begin:
		add(n.Body...)
	}
	return out
}

// Walk traverses the tree rooted at n depth-first. If fn returns false the
// children of that node are skipped.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}
