package logical

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandlerListOrder(t *testing.T) {
	var l handlerList[int]
	var got []string
	l.add(func(v int) { got = append(got, "a") })
	l.add(func(v int) { got = append(got, "b") })
	l.add(func(v int) { got = append(got, "c") })

	l.dispatch(1)
	assert.Equal(t, []string{"a", "b", "c"}, got)
}

func TestHandlerListRemove(t *testing.T) {
	var l handlerList[int]
	var got []int
	first := l.add(func(v int) { got = append(got, v) })
	second := l.add(func(v int) { got = append(got, v*10) })

	first()
	first()
	l.dispatch(2)
	assert.Equal(t, []int{20}, got)
	assert.Len(t, l.entries, 1)

	second()
	assert.Empty(t, l.entries)
}

func TestHandlerListNilHandler(t *testing.T) {
	var l handlerList[int]
	unsub := l.add(nil)
	assert.Empty(t, l.entries)
	assert.NotPanics(t, unsub)
}

func TestHandlerListSnapshotPerSweep(t *testing.T) {
	var l handlerList[string]
	var got []string
	var removeB func()
	l.add(func(s string) {
		got = append(got, "a:"+s)
		removeB()
		l.add(func(s string) { got = append(got, "late:"+s) })
	})
	removeB = l.add(func(s string) { got = append(got, "b:"+s) })

	l.dispatch("1")
	assert.Equal(t, []string{"a:1", "b:1"}, got)

	got = nil
	l.dispatch("2")
	assert.Equal(t, []string{"a:2", "late:2"}, got)
}

func TestUnsubscribeReleasesHandlers(t *testing.T) {
	n := NewNode("n")
	unsubs := []func(){
		n.OnAttached(func(AttachmentEvent) {}),
		n.OnDetached(func(AttachmentEvent) {}),
		n.OnResourcesChanged(func(ResourcesChangedEvent) {}),
		n.OnChildrenChanged(func(ChildrenChangedEvent) {}),
	}
	for _, u := range unsubs {
		u()
	}
	assert.Empty(t, n.attachedHandlers.entries)
	assert.Empty(t, n.detachedHandlers.entries)
	assert.Empty(t, n.resourceHandlers.entries)
	assert.Empty(t, n.childrenHandlers.entries)
}
