package logical

import (
	"github.com/go-drift/logtree/pkg/errors"
)

// Walker propagates notifications through a logical subtree.
//
// All traversals are pre-order: a node is notified before any of its
// children, for attach and for detach alike, so an attach handler may assume
// its ancestors are already attached.
//
// A node's children are read after the node's own handlers have run, so
// children materialized by those handlers are visited in the same pass.
// A child that was removed from the node in the meantime is skipped.
//
// Walker does not check rootedness. It is meant to be driven by
// [Coordinator], which only starts an attach from a node whose parent is
// attached or that was just mounted, and only starts a detach from a node
// that was just unlinked or unmounted. Calling it directly on any other node
// leaves attachment flags that contradict the parent chain.
//
// Walker holds no state; the zero value is ready to use.
type Walker struct{}

// PropagateAttach marks n and its unattached descendants attached, notifying
// each one. Already attached nodes are left alone, together with their
// subtrees. n must be reachable from a mounted root; see [Walker].
func (w Walker) PropagateAttach(n *Node, e AttachmentEvent) {
	w.propagate("logical.Walker.PropagateAttach", n, 0, newGuard(), func(n *Node) bool {
		return n.notifyAttached(e)
	}, (*Node).IsAttached)
}

// PropagateDetach marks n and its attached descendants detached, notifying
// each one. Already detached nodes are left alone, together with their
// subtrees. n must no longer be reachable from a mounted root.
func (w Walker) PropagateDetach(n *Node, e AttachmentEvent) {
	w.propagate("logical.Walker.PropagateDetach", n, 0, newGuard(), func(n *Node) bool {
		return n.notifyDetached(e)
	}, func(n *Node) bool {
		return !n.attached
	})
}

// PropagateResourcesChanged forwards e to n and every descendant, attached
// or not.
func (w Walker) PropagateResourcesChanged(n *Node, e ResourcesChangedEvent) {
	w.propagate("logical.Walker.PropagateResourcesChanged", n, 0, newGuard(), func(n *Node) bool {
		n.notifyResourcesChanged(e)
		return true
	}, nil)
}

// propagate visits n with visit and recurses into its children when visit
// returns true. If holds is set, the recursion stops as soon as n no longer
// satisfies it, which happens when a handler reverses the transition (for
// example by unmounting the root during an attach).
func (w Walker) propagate(op string, n *Node, depth int, g guard, visit, holds func(*Node) bool) {
	if n == nil || !g.enter(op, n, depth) {
		return
	}
	defer g.leave(n)
	if !visit(n) {
		return
	}
	for _, child := range n.Children() {
		if holds != nil && !holds(n) {
			return
		}
		if child.parent != n {
			continue
		}
		w.propagate(op, child, depth+1, g, visit, holds)
	}
}

// guard tracks the nodes on the current traversal path. Reaching a node that
// is already on the path means the parent/child links form a cycle.
type guard map[*Node]struct{}

func newGuard() guard {
	return guard{}
}

func (g guard) enter(op string, n *Node, depth int) bool {
	if _, ok := g[n]; ok {
		errors.ReportCycle(op, n.Path(), depth)
		return false
	}
	g[n] = struct{}{}
	return true
}

func (g guard) leave(n *Node) {
	delete(g, n)
}
