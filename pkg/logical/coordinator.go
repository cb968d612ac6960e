package logical

import (
	"log/slog"
	"slices"

	"github.com/go-drift/logtree/pkg/errors"
)

// Coordinator is the single entry point for structural mutation of logical
// trees. It updates parent and child links and then decides, from the
// rootedness of the nodes involved, whether attach or detach notifications
// have to be propagated.
//
// There is no queue: every call completes its whole propagation, including
// any mutation made by handlers through the same Coordinator, before it
// returns. A handler that panics unwinds out of the mutating call and the
// handlers after it in that sweep are not run.
//
// Calls that contradict the tree invariants panic with an
// [*errors.ContractError].
type Coordinator struct {
	// Walker performs the traversals.
	Walker Walker

	// Logger receives debug records for every mutation. Nil disables logging.
	Logger *slog.Logger
}

// NewCoordinator creates a Coordinator that does not log.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

func (c *Coordinator) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

// FindRoot returns the topmost mounted root reachable through the parent
// chain of n, including n itself, or nil if there is none.
func (c *Coordinator) FindRoot(n *Node) *Node {
	var root *Node
	WalkUp(n, func(a *Node) bool {
		if a.IsRoot() {
			root = a
		}
		return Continue
	})
	return root
}

// AddChild appends child to parent's children. If parent is attached, the
// child's subtree is attached before AddChild returns.
func (c *Coordinator) AddChild(parent, child *Node) {
	const op = "logical.Coordinator.AddChild"
	c.checkAdd(op, parent, child)
	c.insert(op, parent, child, len(parent.children))
}

// InsertChild inserts child into parent's children at index, which must be
// in [0, parent.ChildCount()].
func (c *Coordinator) InsertChild(parent, child *Node, index int) {
	const op = "logical.Coordinator.InsertChild"
	c.checkAdd(op, parent, child)
	if index < 0 || index > len(parent.children) {
		violation(op, parent, "insert index out of range")
	}
	c.insert(op, parent, child, index)
}

func (c *Coordinator) insert(op string, parent, child *Node, index int) {
	parent.children = slices.Insert(parent.children, index, child)
	child.parent = parent
	c.logger().Debug(op, "parent", parent.Path(), "child", child.Name, "index", index, "attached", parent.attached)

	if parent.attached {
		c.Walker.PropagateAttach(child, AttachmentEvent{
			Root:   c.FindRoot(parent),
			Parent: parent,
		})
	}
	parent.childrenHandlers.dispatch(ChildrenChangedEvent{Action: ChildAdded, Child: child, Index: index})
}

func (c *Coordinator) checkAdd(op string, parent, child *Node) {
	switch {
	case parent == nil:
		violation(op, child, "nil parent")
	case child == nil:
		violation(op, parent, "nil child")
	case child.parent != nil:
		violation(op, child, "child already has a parent; remove it first")
	case child.root:
		violation(op, child, "a mounted root cannot be added as a child")
	case child == parent || IsAncestorOf(child, parent):
		violation(op, child, "adding a node below itself would create a cycle")
	}
}

// RemoveChild removes child from parent's children. The links on both sides
// are cleared before detach notifications are sent, so detach handlers see
// the child without a parent.
func (c *Coordinator) RemoveChild(parent, child *Node) {
	const op = "logical.Coordinator.RemoveChild"
	switch {
	case parent == nil:
		violation(op, child, "nil parent")
	case child == nil:
		violation(op, parent, "nil child")
	case child.parent != parent:
		violation(op, child, "node is not a child of "+parent.Path())
	}
	index := parent.IndexOf(child)
	if index < 0 {
		violation(op, child, "parent link is set but node is missing from the child list")
	}

	root := c.FindRoot(parent)
	parent.children = slices.Delete(parent.children, index, index+1)
	child.parent = nil
	c.logger().Debug(op, "parent", parent.Path(), "child", child.Name, "index", index, "attached", child.attached)

	if child.attached {
		c.Walker.PropagateDetach(child, AttachmentEvent{
			Root:   root,
			Parent: parent,
		})
	}
	parent.childrenHandlers.dispatch(ChildrenChangedEvent{Action: ChildRemoved, Child: child, Index: index})
}

// MountRoot declares root a tree root and attaches its whole subtree.
// Mounting a node that is already a root does nothing.
func (c *Coordinator) MountRoot(root *Node) {
	const op = "logical.Coordinator.MountRoot"
	switch {
	case root == nil:
		violation(op, nil, "nil root")
	case root.parent != nil:
		violation(op, root, "node has a parent and cannot be mounted as a root")
	case root.root:
		return
	}
	root.root = true
	c.logger().Debug(op, "root", root.Path())
	c.Walker.PropagateAttach(root, AttachmentEvent{Root: root})
}

// UnmountRoot clears the root flag and detaches the whole subtree.
// Unmounting a node that is not a root does nothing.
func (c *Coordinator) UnmountRoot(root *Node) {
	const op = "logical.Coordinator.UnmountRoot"
	if root == nil {
		violation(op, nil, "nil root")
	}
	if !root.root {
		return
	}
	root.root = false
	c.logger().Debug(op, "root", root.Path())
	c.Walker.PropagateDetach(root, AttachmentEvent{Root: root})
}

// NotifyResourcesChanged broadcasts e to n and all of its descendants.
func (c *Coordinator) NotifyResourcesChanged(n *Node, e ResourcesChangedEvent) {
	if n == nil {
		violation("logical.Coordinator.NotifyResourcesChanged", nil, "nil node")
	}
	c.Walker.PropagateResourcesChanged(n, e)
}

func violation(op string, n *Node, reason string) {
	panic(&errors.ContractError{Op: op, Node: n.Path(), Reason: reason})
}
