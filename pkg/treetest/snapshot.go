package treetest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/go-drift/logtree/pkg/logical"
)

// SnapshotT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type SnapshotT interface {
	TestingT
	Fatalf(format string, args ...any)
	Name() string
}

// Snapshot captures the shape and attachment state of a forest, and
// optionally the event log that produced it.
type Snapshot struct {
	Trees []*SnapshotNode `json:"trees"`
	Log   []string        `json:"log,omitempty"`
}

// SnapshotNode is one node in a captured tree.
type SnapshotNode struct {
	Name     string          `json:"name"`
	Root     bool            `json:"root,omitempty"`
	Attached bool            `json:"attached"`
	Children []*SnapshotNode `json:"children,omitempty"`
}

// Capture records the current state of the trees below tops.
func Capture(tops ...*logical.Node) *Snapshot {
	snap := &Snapshot{}
	for _, top := range tops {
		if top != nil {
			snap.Trees = append(snap.Trees, captureNode(top, map[*logical.Node]bool{}))
		}
	}
	return snap
}

func captureNode(n *logical.Node, onPath map[*logical.Node]bool) *SnapshotNode {
	node := &SnapshotNode{Name: n.Name, Root: n.IsRoot(), Attached: n.IsAttached()}
	onPath[n] = true
	defer delete(onPath, n)
	for _, child := range n.Children() {
		if onPath[child] {
			continue
		}
		node.Children = append(node.Children, captureNode(child, onPath))
	}
	return node
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When
// LOGTREE_UPDATE_SNAPSHOTS=1 is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t SnapshotT, path string) {
	t.Helper()

	if os.Getenv("LOGTREE_UPDATE_SNAPSHOTS") == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := LoadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: LOGTREE_UPDATE_SNAPSHOTS=1 go test -run %s", path, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: LOGTREE_UPDATE_SNAPSHOTS=1 go test -run %s", path, diff, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a unified diff from other to this snapshot. Returns empty
// string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := other.Marshal()
	b, _ := s.Marshal()
	if bytes.Equal(a, b) {
		return ""
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		return err.Error()
	}
	return strings.TrimSuffix(diff, "\n")
}

// Marshal encodes the snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LoadSnapshot reads a snapshot written by UpdateFile.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}
