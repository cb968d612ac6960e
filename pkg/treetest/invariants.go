package treetest

import (
	"errors"
	"fmt"

	"github.com/go-drift/logtree/pkg/logical"
)

// TestingT is the subset of *testing.T used by AssertInvariants.
type TestingT interface {
	Helper()
	Errorf(format string, args ...any)
}

// CheckInvariants verifies the structural invariants of every tree reachable
// downwards from the given nodes:
//
//   - each child's parent is the node listing it, and it is listed once
//   - a node is attached exactly when its parent chain ends at a mounted root
//   - a mounted root has no parent
//
// It returns all violations joined, or nil.
func CheckInvariants(tops ...*logical.Node) error {
	var errs []error
	for _, top := range tops {
		logical.WalkDown(top, func(n *logical.Node) bool {
			errs = append(errs, checkNode(n)...)
			return logical.Continue
		})
	}
	return errors.Join(errs...)
}

func checkNode(n *logical.Node) []error {
	var errs []error
	if n.IsRoot() && n.Parent() != nil {
		errs = append(errs, fmt.Errorf("%s: mounted root has parent %s", n, n.Parent()))
	}

	rooted := false
	logical.WalkUp(n, func(a *logical.Node) bool {
		if a.IsRoot() {
			rooted = true
			return logical.Break
		}
		return logical.Continue
	})
	if rooted != n.IsAttached() {
		errs = append(errs, fmt.Errorf("%s: attached=%t but rooted=%t", n, n.IsAttached(), rooted))
	}

	seen := map[*logical.Node]int{}
	for _, child := range n.Children() {
		seen[child]++
		if child.Parent() != n {
			errs = append(errs, fmt.Errorf("%s: child %s has parent %s", n, child.Name, child.Parent()))
		}
	}
	for child, count := range seen {
		if count > 1 {
			errs = append(errs, fmt.Errorf("%s: child %s listed %d times", n, child.Name, count))
		}
	}
	if p := n.Parent(); p != nil && p.IndexOf(n) < 0 {
		errs = append(errs, fmt.Errorf("%s: parent %s does not list it", n, p))
	}
	return errs
}

// AssertInvariants reports every invariant violation as a test error.
func AssertInvariants(t TestingT, tops ...*logical.Node) {
	t.Helper()
	if err := CheckInvariants(tops...); err != nil {
		t.Errorf("tree invariants violated:\n%v", err)
	}
}
