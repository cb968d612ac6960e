package logical

import (
	"slices"
	"strings"
)

// Node is a node in the logical tree.
//
// A Node starts out unattached, with no parent and no children. Its
// structure is changed only through a [Coordinator], which keeps the parent
// back-reference and the parent's child list in step and decides when
// attach and detach notifications are propagated.
//
// The parent field is a non-owning reference: it never decides the
// lifetime of either node. Removing a node from its parent leaves it fully
// usable, and it may be added somewhere else afterwards.
//
// Node is not safe for concurrent use. All mutation and notification
// delivery must happen on the goroutine that owns the tree.
type Node struct {
	// Name labels the node in paths and diagnostics. It need not be unique.
	Name string

	parent   *Node
	children []*Node
	attached bool
	root     bool

	attachedHandlers handlerList[AttachmentEvent]
	detachedHandlers handlerList[AttachmentEvent]
	resourceHandlers handlerList[ResourcesChangedEvent]
	childrenHandlers handlerList[ChildrenChangedEvent]
}

// NewNode creates an unattached node with the given name.
func NewNode(name string) *Node {
	return &Node{Name: name}
}

// String returns the path of the node.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	return n.Path()
}

// Parent returns the logical parent, or nil for roots and detached nodes.
func (n *Node) Parent() *Node {
	return n.parent
}

// Children returns the logical children in order.
//
// The returned slice is a point-in-time copy. It does not follow later
// structural changes; re-query after mutating the tree or subscribe with
// [Node.OnChildrenChanged].
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

// ChildCount returns the number of logical children.
func (n *Node) ChildCount() int {
	return len(n.children)
}

// Child returns the child at index i, or nil if i is out of range.
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// IndexOf returns the index of child in the child list, or -1.
func (n *Node) IndexOf(child *Node) int {
	return slices.Index(n.children, child)
}

// IsAttached reports whether the node is attached to a rooted logical tree.
func (n *Node) IsAttached() bool {
	return n.attached
}

// IsRoot reports whether the node is currently mounted as a tree root.
func (n *Node) IsRoot() bool {
	return n.root
}

// Path returns the names from the topmost ancestor down to this node,
// separated by slashes. It stops early if the parent chain loops.
func (n *Node) Path() string {
	if n == nil {
		return ""
	}
	var names []string
	WalkUp(n, func(a *Node) bool {
		names = append(names, a.label())
		return Continue
	})
	slices.Reverse(names)
	return "/" + strings.Join(names, "/")
}

func (n *Node) label() string {
	if n.Name == "" {
		return "_"
	}
	return strings.ReplaceAll(n.Name, "/", `\/`)
}

// OnAttached registers a handler called when the node becomes attached to a
// rooted tree. Handlers run in registration order. The returned function
// unsubscribes; it is safe to call from inside any handler.
func (n *Node) OnAttached(handler func(AttachmentEvent)) (unsubscribe func()) {
	return n.attachedHandlers.add(handler)
}

// OnDetached registers a handler called when the node is detached from a
// rooted tree. By the time it runs the node's ancestors are already detached
// and, for a removed subtree, the removed node's parent is already nil.
func (n *Node) OnDetached(handler func(AttachmentEvent)) (unsubscribe func()) {
	return n.detachedHandlers.add(handler)
}

// OnResourcesChanged registers a hook called whenever a resource change is
// broadcast through this node, whether it is attached or not.
func (n *Node) OnResourcesChanged(handler func(ResourcesChangedEvent)) (unsubscribe func()) {
	return n.resourceHandlers.add(handler)
}

// OnChildrenChanged registers a handler called after a child is added to or
// removed from this node.
func (n *Node) OnChildrenChanged(handler func(ChildrenChangedEvent)) (unsubscribe func()) {
	return n.childrenHandlers.add(handler)
}

// notifyAttached marks the node attached and delivers e to its attach
// subscribers. It does nothing and returns false if the node was already
// attached.
func (n *Node) notifyAttached(e AttachmentEvent) bool {
	if n.attached {
		return false
	}
	n.attached = true
	e.Source = n
	n.attachedHandlers.dispatch(e)
	return true
}

// notifyDetached is the mirror of notifyAttached.
func (n *Node) notifyDetached(e AttachmentEvent) bool {
	if !n.attached {
		return false
	}
	n.attached = false
	e.Source = n
	n.detachedHandlers.dispatch(e)
	return true
}

func (n *Node) notifyResourcesChanged(e ResourcesChangedEvent) {
	n.resourceHandlers.dispatch(e)
}
