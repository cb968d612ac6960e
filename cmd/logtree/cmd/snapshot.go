package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"strings"

	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/go-drift/logtree/pkg/logical"
	"github.com/go-drift/logtree/pkg/scenario"
)

func init() {
	RegisterCommand(&Command{
		Name:  "snapshot",
		Short: "Print the tree a scenario leaves behind",
		Long: `Run a scenario and print the resulting forest with each node's root
and attachment state.

Flags:
  --png FILE         Also render the tree to a PNG image
  --json FILE        Also write the tree and event log as JSON, in the
                     golden file format used by treetest.Snapshot

Usage:
  logtree snapshot move
  logtree snapshot --png tree.png reentrant
  logtree snapshot --json testdata/snapshots/move.json move`,
		Usage: "logtree snapshot [--png FILE] [--json FILE] <scenario>",
		Run:   runSnapshot,
	})
}

func runSnapshot(args []string) error {
	var pngPath, jsonPath string
	var names []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--png", "--json":
			if i+1 >= len(args) {
				return fmt.Errorf("%s requires a file path", args[i])
			}
			if args[i] == "--png" {
				pngPath = args[i+1]
			} else {
				jsonPath = args[i+1]
			}
			i++
		default:
			names = append(names, args[i])
		}
	}
	if len(names) != 1 {
		return fmt.Errorf("exactly one scenario is required\n\nUsage: logtree snapshot [--png FILE] [--json FILE] <scenario>")
	}

	path, err := settings.ScenarioPath(names[0])
	if err != nil {
		return err
	}
	s, err := loadScenario(path)
	if err != nil {
		return err
	}
	res := scenario.Run(s, scenario.Options{Logger: logger})
	if res.Err != nil {
		fmt.Fprintf(stderr, "Warning: stopped after %d steps: %v\n", res.Steps, res.Err)
	}

	lines := treeLines(res.Tops())
	for _, line := range lines {
		fmt.Fprintln(stdout, line)
	}
	if jsonPath != "" {
		if err := res.Snapshot().UpdateFile(jsonPath); err != nil {
			return fmt.Errorf("failed to write %s: %w", jsonPath, err)
		}
		fmt.Fprintf(stdout, "Wrote %s\n", jsonPath)
	}
	if pngPath == "" {
		return nil
	}

	f, err := os.Create(pngPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", pngPath, err)
	}
	if err := png.Encode(f, renderTree(lines)); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode %s: %w", pngPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", pngPath)
	return nil
}

// treeLine is one row of a rendered forest.
type treeLine struct {
	prefix string
	node   *logical.Node
}

func (l treeLine) label() string {
	name := l.node.Name
	if name == "" {
		name = "_"
	}
	var tags []string
	if l.node.IsRoot() {
		tags = append(tags, "root")
	}
	if l.node.IsAttached() {
		tags = append(tags, "attached")
	} else {
		tags = append(tags, "detached")
	}
	return name + " [" + strings.Join(tags, ", ") + "]"
}

func (l treeLine) String() string {
	return l.prefix + l.label()
}

// treeLines lays out the forest in ASCII so the same rows can be drawn with
// the fixed-width bitmap font.
func treeLines(tops []*logical.Node) []treeLine {
	var lines []treeLine
	var walk func(n *logical.Node, prefix, indent string)
	walk = func(n *logical.Node, prefix, indent string) {
		lines = append(lines, treeLine{prefix: prefix, node: n})
		children := n.Children()
		for i, child := range children {
			if i == len(children)-1 {
				walk(child, indent+"`-- ", indent+"    ")
			} else {
				walk(child, indent+"+-- ", indent+"|   ")
			}
		}
	}
	for _, top := range tops {
		walk(top, "", "")
	}
	return lines
}

const (
	snapshotPadding    = 12
	snapshotLineHeight = 16
)

func nodeColor(n *logical.Node) color.Color {
	switch {
	case n.IsRoot():
		return colornames.Royalblue
	case n.IsAttached():
		return colornames.Seagreen
	default:
		return colornames.Gray
	}
}

func renderTree(lines []treeLine) *image.RGBA {
	face := basicfont.Face7x13
	width := 0
	for _, line := range lines {
		if w := font.MeasureString(face, line.String()).Ceil(); w > width {
			width = w
		}
	}
	bounds := image.Rect(0, 0, width+2*snapshotPadding, len(lines)*snapshotLineHeight+2*snapshotPadding)
	img := image.NewRGBA(bounds)
	draw.Draw(img, bounds, image.NewUniform(colornames.White), image.Point{}, draw.Src)

	d := &font.Drawer{Dst: img, Face: face}
	for i, line := range lines {
		baseline := snapshotPadding + i*snapshotLineHeight + face.Ascent
		d.Dot = fixed.P(snapshotPadding, baseline)
		d.Src = image.NewUniform(colornames.Darkgray)
		d.DrawString(line.prefix)
		d.Src = image.NewUniform(nodeColor(line.node))
		d.DrawString(line.label())
	}
	return img
}
