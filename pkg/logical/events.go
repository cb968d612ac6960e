package logical

// AttachmentEvent is delivered to attach and detach subscribers.
type AttachmentEvent struct {
	// Root is the root of the tree being joined or left.
	Root *Node
	// Source is the node the event is being delivered to. Each node in a
	// propagated subtree receives its own copy with Source set to itself.
	Source *Node
	// Parent is the logical parent of the topmost node of the subtree that
	// changed state. It is nil when that node is the root itself.
	Parent *Node
}

// ResourcesChangedEvent signals that resources applying to a node may have
// changed. The tree only forwards it; Key is never interpreted.
type ResourcesChangedEvent struct {
	Key any
}

// ChildrenAction identifies the kind of structural change to a child list.
type ChildrenAction int

const (
	// ChildAdded indicates a child was inserted.
	ChildAdded ChildrenAction = iota
	// ChildRemoved indicates a child was removed.
	ChildRemoved
)

func (a ChildrenAction) String() string {
	switch a {
	case ChildAdded:
		return "add"
	case ChildRemoved:
		return "remove"
	default:
		return "unknown"
	}
}

// ChildrenChangedEvent is delivered to a parent's children-changed
// subscribers after a child was added or removed and any resulting attach
// or detach propagation has completed.
type ChildrenChangedEvent struct {
	Action ChildrenAction
	Child  *Node
	// Index is the position the child was inserted at or removed from.
	Index int
}
