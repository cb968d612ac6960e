package scenario

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/go-drift/logtree/pkg/errors"
	"github.com/go-drift/logtree/pkg/logical"
	"github.com/go-drift/logtree/pkg/treetest"
)

// Options configures Run and Check.
type Options struct {
	// Logger is handed to the coordinator and receives hook activity.
	// Nil discards.
	Logger *slog.Logger
}

// Result is the outcome of running a scenario.
type Result struct {
	Name  string
	Nodes treetest.Tree
	// Order lists node names in declaration order.
	Order []string
	Log   []string
	// Steps is the number of steps that completed.
	Steps int
	// Err is set when a step panicked. It is a *errors.TreeError whose
	// Kind is KindContract for contract violations and KindSubscriber
	// for anything raised by a handler.
	Err error
}

// Tops returns the nodes that currently have no parent, in declaration
// order.
func (r *Result) Tops() []*logical.Node {
	var tops []*logical.Node
	for _, name := range r.Order {
		if n := r.Nodes[name]; n.Parent() == nil {
			tops = append(tops, n)
		}
	}
	return tops
}

// Snapshot captures the final forest together with the event log.
func (r *Result) Snapshot() *treetest.Snapshot {
	snap := treetest.Capture(r.Tops()...)
	snap.Log = r.Log
	return snap
}

type runner struct {
	c     *logical.Coordinator
	nodes treetest.Tree
	log   *slog.Logger
}

// Run builds the declared forest, installs hooks and applies each step in
// order. The run stops at the first step that panics.
func Run(s *Scenario, opts Options) *Result {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := logical.NewCoordinator()
	c.Logger = logger
	r := &runner{c: c, nodes: treetest.Tree{}, log: logger}
	res := &Result{Name: s.Name, Nodes: r.nodes}

	var build func(parent *logical.Node, specs []NodeSpec)
	build = func(parent *logical.Node, specs []NodeSpec) {
		for _, spec := range specs {
			n := logical.NewNode(spec.Name)
			r.nodes[spec.Name] = n
			res.Order = append(res.Order, spec.Name)
			if parent != nil {
				c.AddChild(parent, n)
			}
			build(n, spec.Children)
		}
	}
	build(nil, s.Tree)

	rec := treetest.NewRecorder()
	defer rec.Close()
	for _, name := range res.Order {
		rec.Watch(r.nodes[name])
	}
	for _, h := range s.Hooks {
		r.install(h)
	}

	for i, st := range s.Steps {
		if err := r.step(i, st); err != nil {
			res.Err = err
			break
		}
		res.Steps++
	}
	res.Log = rec.Log()
	return res
}

// Check runs s and returns the joined failures: a panicking step, broken
// tree invariants and, when s.Expect is set, a diff against the recorded
// log.
func Check(s *Scenario, opts Options) (*Result, error) {
	res := Run(s, opts)
	var errs []error
	if res.Err != nil {
		errs = append(errs, res.Err)
	}
	if err := treetest.CheckInvariants(res.Tops()...); err != nil {
		errs = append(errs, err)
	}
	if len(s.Expect) > 0 && !slices.Equal(s.Expect, res.Log) {
		errs = append(errs, fmt.Errorf("event log mismatch:\n%s", Diff(s.Expect, res.Log)))
	}
	return res, stderrors.Join(errs...)
}

// Diff returns a unified diff between two event logs.
func Diff(want, got []string) string {
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(want, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(got, "\n") + "\n"),
		FromFile: "expect",
		ToFile:   "actual",
		Context:  2,
	})
	if err != nil {
		return err.Error()
	}
	return text
}

// step applies st and converts a panic into the returned error. The panic is
// not reported to the global handler, since the error already carries it.
func (r *runner) step(i int, st Step) error {
	perr := errors.Catch("scenario.Run", func() { r.apply(st) })
	if perr == nil {
		return nil
	}
	kind, node := errors.KindSubscriber, ""
	var cerr *errors.ContractError
	if stderrors.As(perr, &cerr) {
		kind, node = errors.KindContract, cerr.Node
	}
	return &errors.TreeError{
		Op:         "scenario.Run",
		Kind:       kind,
		Node:       node,
		Err:        fmt.Errorf("steps[%d] %s: %w", i, st, perr),
		StackTrace: perr.StackTrace,
	}
}

func (r *runner) install(h Hook) {
	n := r.nodes.Node(h.Node)
	var unsub func()
	fire := func() {
		if h.Once {
			unsub()
		}
		r.log.Debug("hook", "on", h.On, "node", h.Node, "action", h.Step.String())
		r.apply(h.Step)
	}
	switch h.On {
	case OnAttach:
		unsub = n.OnAttached(func(logical.AttachmentEvent) { fire() })
	case OnDetach:
		unsub = n.OnDetached(func(logical.AttachmentEvent) { fire() })
	case OnResources:
		unsub = n.OnResourcesChanged(func(logical.ResourcesChangedEvent) { fire() })
	}
}

func (r *runner) apply(st Step) {
	switch {
	case st.Mount != "":
		r.c.MountRoot(r.nodes.Node(st.Mount))
	case st.Unmount != "":
		r.c.UnmountRoot(r.nodes.Node(st.Unmount))
	case st.Add != nil:
		r.c.AddChild(r.nodes.Node(st.Add.Parent), r.nodes.Node(st.Add.Child))
	case st.Insert != nil:
		r.c.InsertChild(r.nodes.Node(st.Insert.Parent), r.nodes.Node(st.Insert.Child), st.Insert.Index)
	case st.Remove != nil:
		r.c.RemoveChild(r.nodes.Node(st.Remove.Parent), r.nodes.Node(st.Remove.Child))
	case st.Resources != "":
		r.c.NotifyResourcesChanged(r.nodes.Node(st.Resources), logical.ResourcesChangedEvent{Key: st.Resources})
	case st.Panic != "":
		panic(st.Panic)
	}
}
