package logical

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/logtree/pkg/errors"
)

func captureErrors(t *testing.T) *errors.Collector {
	c := &errors.Collector{}
	t.Cleanup(errors.SetHandler(c))
	return c
}

// link wires child under parent without any checks, which is the only way
// to build the corrupted trees used below.
func link(parent, child *Node) {
	parent.children = append(parent.children, child)
	child.parent = parent
}

func TestWalkerReportsCycle(t *testing.T) {
	h := captureErrors(t)
	a, b, c := NewNode("a"), NewNode("b"), NewNode("c")
	link(a, b)
	link(b, c)
	link(c, a)

	var visited []string
	a.OnResourcesChanged(func(ResourcesChangedEvent) { visited = append(visited, "a") })
	b.OnResourcesChanged(func(ResourcesChangedEvent) { visited = append(visited, "b") })
	c.OnResourcesChanged(func(ResourcesChangedEvent) { visited = append(visited, "c") })

	Walker{}.PropagateResourcesChanged(a, ResourcesChangedEvent{})

	assert.Equal(t, []string{"a", "b", "c"}, visited)
	errs := h.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, errors.KindCycle, errs[0].Kind)
	assert.Equal(t, "logical.Walker.PropagateResourcesChanged", errs[0].Op)

	var cycle *errors.CycleError
	require.True(t, stderrors.As(errs[0], &cycle))
	assert.Equal(t, 3, cycle.Depth)
	assert.NotEmpty(t, cycle.Node)
}

func TestWalkerCycleDuringAttach(t *testing.T) {
	h := captureErrors(t)
	a, b := NewNode("a"), NewNode("b")
	link(a, b)
	link(b, a)

	Walker{}.PropagateAttach(a, AttachmentEvent{Root: a})

	assert.True(t, a.IsAttached())
	assert.True(t, b.IsAttached())
	assert.Equal(t, []errors.ErrorKind{errors.KindCycle}, h.Kinds())
}

func TestWalkerRevisitOutsideCycleIsNotReported(t *testing.T) {
	h := captureErrors(t)
	c := NewCoordinator()
	r, a, x, d := NewNode("r"), NewNode("a"), NewNode("x"), NewNode("d")
	c.AddChild(r, a)
	c.AddChild(r, d)
	c.AddChild(a, x)

	// x is visited under a, then moved under d before d is visited
	var count int
	x.OnResourcesChanged(func(ResourcesChangedEvent) {
		count++
		if x.parent == a {
			c.RemoveChild(a, x)
			c.AddChild(d, x)
		}
	})
	c.NotifyResourcesChanged(r, ResourcesChangedEvent{})

	assert.Equal(t, 2, count)
	assert.Empty(t, h.Errors())
}

func TestPathStopsOnCycle(t *testing.T) {
	a, b := NewNode("a"), NewNode("b")
	link(a, b)
	link(b, a)

	assert.NotPanics(t, func() { _ = a.Path() })
	assert.Equal(t, "/a/b", b.Path())
}
