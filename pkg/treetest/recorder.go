// Package treetest provides helpers for testing code built on logical trees:
// an ordered event recorder, a compact tree builder and an invariant checker.
package treetest

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-drift/logtree/pkg/logical"
)

// Recorder appends one line per notification it observes, in delivery
// order:
//
//	attach <node>
//	detach <node>
//	resources <node>
//	children+ <parent> <child>
//	children- <parent> <child>
type Recorder struct {
	log    []string
	unsubs []func()
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Watch subscribes the recorder to every notification on the given nodes.
func (r *Recorder) Watch(nodes ...*logical.Node) {
	for _, n := range nodes {
		name := n.Name
		r.unsubs = append(r.unsubs,
			n.OnAttached(func(logical.AttachmentEvent) {
				r.Add("attach " + name)
			}),
			n.OnDetached(func(logical.AttachmentEvent) {
				r.Add("detach " + name)
			}),
			n.OnResourcesChanged(func(logical.ResourcesChangedEvent) {
				r.Add("resources " + name)
			}),
			n.OnChildrenChanged(func(e logical.ChildrenChangedEvent) {
				sign := "+"
				if e.Action == logical.ChildRemoved {
					sign = "-"
				}
				r.Add(fmt.Sprintf("children%s %s %s", sign, name, e.Child.Name))
			}),
		)
	}
}

// WatchTree watches top and every node currently below it.
func (r *Recorder) WatchTree(top *logical.Node) {
	logical.WalkDown(top, func(n *logical.Node) bool {
		r.Watch(n)
		return logical.Continue
	})
}

// Add appends a custom line, which is useful for marking points in a test.
func (r *Recorder) Add(line string) {
	r.log = append(r.log, line)
}

// Log returns a copy of the recorded lines.
func (r *Recorder) Log() []string {
	return slices.Clone(r.log)
}

// Filter returns the recorded lines that start with prefix.
func (r *Recorder) Filter(prefix string) []string {
	var out []string
	for _, line := range r.log {
		if strings.HasPrefix(line, prefix) {
			out = append(out, line)
		}
	}
	return out
}

// Count returns how many recorded lines equal line.
func (r *Recorder) Count(line string) int {
	n := 0
	for _, l := range r.log {
		if l == line {
			n++
		}
	}
	return n
}

// Reset clears the log but keeps the subscriptions.
func (r *Recorder) Reset() {
	r.log = nil
}

// Close removes every subscription made by the recorder.
func (r *Recorder) Close() {
	for _, unsub := range r.unsubs {
		unsub()
	}
	r.unsubs = nil
}

// String returns the log joined by newlines.
func (r *Recorder) String() string {
	return strings.Join(r.log, "\n")
}
