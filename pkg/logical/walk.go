package logical

const (
	// Continue = true can be returned from walk functions to keep walking,
	// as compared to Break = false which stops the walk (or, for WalkDown,
	// the current branch).
	Continue = true

	// Break = false can be returned from walk functions to stop walking.
	Break = false
)

// WalkUp calls fn on n and then on each of its ancestors, nearest first.
// It stops when fn returns [Break] and returns whether the walk finished.
// A parent chain that loops back on itself ends the walk at the first
// repeated node.
func WalkUp(n *Node, fn func(*Node) bool) bool {
	seen := map[*Node]struct{}{}
	for cur := n; cur != nil; cur = cur.parent {
		if _, ok := seen[cur]; ok {
			return true
		}
		seen[cur] = struct{}{}
		if !fn(cur) {
			return false
		}
	}
	return true
}

// Ancestors returns the ancestors of n, nearest first, excluding n.
func Ancestors(n *Node) []*Node {
	var out []*Node
	if n == nil {
		return out
	}
	WalkUp(n.parent, func(a *Node) bool {
		if a == n {
			return Break
		}
		out = append(out, a)
		return Continue
	})
	return out
}

// IsAncestorOf reports whether a is a strict ancestor of d.
func IsAncestorOf(a, d *Node) bool {
	if a == nil || d == nil {
		return false
	}
	found := false
	WalkUp(d.parent, func(cur *Node) bool {
		if cur == a {
			found = true
			return Break
		}
		return Continue
	})
	return found
}

// WalkDown calls fn on n and its descendants in pre-order. Returning [Break]
// from fn skips the children of that node. Children are read when their
// parent is visited, so nodes added by fn to a not yet visited part of the
// tree are included.
func WalkDown(n *Node, fn func(*Node) bool) {
	if n == nil {
		return
	}
	walkDown(n, fn, map[*Node]struct{}{})
}

func walkDown(n *Node, fn func(*Node) bool, onPath map[*Node]struct{}) {
	if _, ok := onPath[n]; ok {
		return
	}
	if !fn(n) {
		return
	}
	onPath[n] = struct{}{}
	for _, child := range n.Children() {
		if child.parent != n {
			continue
		}
		walkDown(child, fn, onPath)
	}
	delete(onPath, n)
}

// Descendants returns all descendants of n in pre-order, excluding n.
func Descendants(n *Node) []*Node {
	var out []*Node
	WalkDown(n, func(d *Node) bool {
		if d != n {
			out = append(out, d)
		}
		return Continue
	})
	return out
}
