// Package scenario describes logical tree mutation scripts in YAML or TOML
// and replays them against a [logical.Coordinator].
//
// A scenario declares an initial forest, optional hooks that mutate the tree
// from inside notification handlers, and an ordered list of steps:
//
//	name: reentrant-remove
//	tree:
//	  - name: root
//	    children:
//	      - name: a
//	        children: [{name: b}]
//	hooks:
//	  - on: attach
//	    node: a
//	    remove: {parent: a, child: b}
//	steps:
//	  - mount: root
//	expect:
//	  - attach root
//	  - attach a
//	  - children- a b
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name   string     `yaml:"name" toml:"name"`
	Tree   []NodeSpec `yaml:"tree" toml:"tree"`
	Hooks  []Hook     `yaml:"hooks,omitempty" toml:"hooks"`
	Steps  []Step     `yaml:"steps" toml:"steps"`
	Expect []string   `yaml:"expect,omitempty" toml:"expect"`
}

// NodeSpec declares a node and its initial children.
type NodeSpec struct {
	Name     string     `yaml:"name" toml:"name"`
	Children []NodeSpec `yaml:"children,omitempty" toml:"children"`
}

// Link names a parent and child for add, insert and remove actions.
type Link struct {
	Parent string `yaml:"parent" toml:"parent"`
	Child  string `yaml:"child" toml:"child"`
	Index  int    `yaml:"index,omitempty" toml:"index"`
}

// Step is a single tree operation. Exactly one field must be set.
type Step struct {
	Mount     string `yaml:"mount,omitempty" toml:"mount"`
	Unmount   string `yaml:"unmount,omitempty" toml:"unmount"`
	Add       *Link  `yaml:"add,omitempty" toml:"add"`
	Insert    *Link  `yaml:"insert,omitempty" toml:"insert"`
	Remove    *Link  `yaml:"remove,omitempty" toml:"remove"`
	Resources string `yaml:"resources,omitempty" toml:"resources"`
	Panic     string `yaml:"panic,omitempty" toml:"panic"`
}

// Hook runs a Step from inside a notification handler.
type Hook struct {
	// On is "attach", "detach" or "resources".
	On   string `yaml:"on" toml:"on"`
	Node string `yaml:"node" toml:"node"`
	// Once removes the hook after its first run.
	Once bool `yaml:"once,omitempty" toml:"once"`
	Step `yaml:",inline"`
}

// Hook trigger names.
const (
	OnAttach    = "attach"
	OnDetach    = "detach"
	OnResources = "resources"
)

// Load reads a scenario from a .yaml, .yml or .toml file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Parse decodes scenario data. ext selects the format and must be one of
// ".yaml", ".yml" or ".toml". Unknown keys are rejected.
func Parse(ext string, data []byte) (*Scenario, error) {
	var s Scenario
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), &s)
		if err != nil {
			var perr toml.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("failed to parse toml: %s", perr.ErrorWithPosition())
			}
			return nil, fmt.Errorf("failed to parse toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown toml key %q", undecoded[0].String())
		}
	default:
		return nil, fmt.Errorf("unsupported scenario extension %q", ext)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks that node names are unique, that every reference names a
// declared node and that every step has exactly one action.
func (s *Scenario) Validate() error {
	declared := map[string]bool{}
	var walk func(specs []NodeSpec) error
	walk = func(specs []NodeSpec) error {
		for _, spec := range specs {
			if spec.Name == "" {
				return errors.New("tree: node without a name")
			}
			if declared[spec.Name] {
				return fmt.Errorf("tree: duplicate node %q", spec.Name)
			}
			declared[spec.Name] = true
			if err := walk(spec.Children); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(s.Tree); err != nil {
		return err
	}

	for i, step := range s.Steps {
		if err := step.validate(declared); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, hook := range s.Hooks {
		switch hook.On {
		case OnAttach, OnDetach, OnResources:
		default:
			return fmt.Errorf("hooks[%d]: unknown trigger %q", i, hook.On)
		}
		if !declared[hook.Node] {
			return fmt.Errorf("hooks[%d]: unknown node %q", i, hook.Node)
		}
		if err := hook.Step.validate(declared); err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
	}
	return nil
}

func (st Step) validate(declared map[string]bool) error {
	var refs []string
	actions := 0
	for _, name := range []string{st.Mount, st.Unmount, st.Resources} {
		if name != "" {
			actions++
			refs = append(refs, name)
		}
	}
	for _, l := range []*Link{st.Add, st.Insert, st.Remove} {
		if l != nil {
			actions++
			refs = append(refs, l.Parent, l.Child)
		}
	}
	if st.Panic != "" {
		actions++
	}
	if actions != 1 {
		return fmt.Errorf("want exactly one action, got %d", actions)
	}
	for _, ref := range refs {
		if !declared[ref] {
			return fmt.Errorf("unknown node %q", ref)
		}
	}
	return nil
}

// String describes the step in the same form used by the CLI output.
func (st Step) String() string {
	switch {
	case st.Mount != "":
		return "mount " + st.Mount
	case st.Unmount != "":
		return "unmount " + st.Unmount
	case st.Add != nil:
		return fmt.Sprintf("add %s to %s", st.Add.Child, st.Add.Parent)
	case st.Insert != nil:
		return fmt.Sprintf("insert %s into %s at %d", st.Insert.Child, st.Insert.Parent, st.Insert.Index)
	case st.Remove != nil:
		return fmt.Sprintf("remove %s from %s", st.Remove.Child, st.Remove.Parent)
	case st.Resources != "":
		return "resources " + st.Resources
	case st.Panic != "":
		return "panic " + st.Panic
	default:
		return "noop"
	}
}
