// Package logical tracks membership of nodes in rooted logical trees and
// propagates attachment and resource-change notifications through them.
//
// # Core Types
//
// [Node] is a tree node with a parent back-reference, an ordered child list,
// an attached flag and per-node subscriber lists.
//
// [Coordinator] is the only way to change tree structure. It keeps both sides
// of every parent/child link consistent and triggers propagation when a
// mutation changes whether a subtree is rooted.
//
// [Walker] performs the ordered traversals used for propagation.
//
// # Rootedness
//
// A node is attached when its parent chain ends at a node mounted with
// [Coordinator.MountRoot]:
//
//	c := logical.NewCoordinator()
//	root, panel := logical.NewNode("root"), logical.NewNode("panel")
//	c.AddChild(root, panel)          // nothing attached yet
//	panel.OnAttached(func(e logical.AttachmentEvent) {
//	    fmt.Println("attached under", e.Root.Name)
//	})
//	c.MountRoot(root)                // root, then panel
//
// # Ordering
//
// Notifications always travel top-down: a parent is told before its
// children, for attach and for detach. Handlers for one node run in
// registration order, against the list as it was when delivery started.
//
// # Reentrancy
//
// Handlers may mutate the tree through the same [Coordinator] while they run.
// Such mutations take effect immediately; there is no deferred delivery.
//
// # Threading
//
// Nothing in this package is safe for concurrent use. A tree and everything
// attached to it belong to one goroutine.
package logical
