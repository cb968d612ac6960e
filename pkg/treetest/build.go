package treetest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-drift/logtree/pkg/logical"
)

// Tree is a set of nodes built by [Build], addressable by name.
type Tree map[string]*logical.Node

// Node returns the node with the given name and panics if there is none.
func (t Tree) Node(name string) *logical.Node {
	n, ok := t[name]
	if !ok {
		panic(fmt.Sprintf("treetest: no node named %q", name))
	}
	return n
}

// Build parses a compact tree description and creates the nodes through c.
// Nothing is mounted. The syntax lists names separated by spaces or commas,
// with children in parentheses after their parent:
//
//	root(a(b c) d)
//
// Several top-level trees may be given. Names must be unique.
func Build(c *logical.Coordinator, desc string) (Tree, error) {
	p := &parser{src: desc}
	t := Tree{}
	for {
		p.skipSpace()
		if p.done() {
			return t, nil
		}
		if _, err := p.parseNode(c, t, nil); err != nil {
			return nil, err
		}
	}
}

// MustBuild is like [Build] but panics on a malformed description.
func MustBuild(c *logical.Coordinator, desc string) Tree {
	t, err := Build(c, desc)
	if err != nil {
		panic(err)
	}
	return t
}

type parser struct {
	src string
	pos int
}

func (p *parser) done() bool {
	return p.pos >= len(p.src)
}

func (p *parser) skipSpace() {
	for !p.done() && (p.src[p.pos] == ',' || unicode.IsSpace(rune(p.src[p.pos]))) {
		p.pos++
	}
}

func (p *parser) parseNode(c *logical.Coordinator, t Tree, parent *logical.Node) (*logical.Node, error) {
	start := p.pos
	for !p.done() && !strings.ContainsRune("(), \t\n", rune(p.src[p.pos])) {
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, fmt.Errorf("treetest: expected node name at offset %d in %q", start, p.src)
	}
	if _, dup := t[name]; dup {
		return nil, fmt.Errorf("treetest: duplicate node name %q", name)
	}
	n := logical.NewNode(name)
	t[name] = n
	if parent != nil {
		c.AddChild(parent, n)
	}

	if p.done() || p.src[p.pos] != '(' {
		return n, nil
	}
	p.pos++
	for {
		p.skipSpace()
		if p.done() {
			return nil, fmt.Errorf("treetest: unclosed '(' after %q", name)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			return n, nil
		}
		if _, err := p.parseNode(c, t, n); err != nil {
			return nil, err
		}
	}
}
