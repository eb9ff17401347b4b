// Package pcb provides a mutable, format-preserving model of KiCad board
// files (.kicad_pcb): footprint extraction, the board net table, and pad
// net assignment. Tracks, zones, and all manual layout data pass through
// untouched.
package pcb

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// Board is one PCB file.
type Board struct {
	doc  *sexp.Document
	Path string
}

// Parse reads a board from a reader.
func Parse(r io.Reader) (*Board, error) {
	doc, err := sexp.Parse(r)
	if err != nil {
		return nil, err
	}
	return wrap(doc, "")
}

// ParseString reads a board from a string.
func ParseString(input string) (*Board, error) {
	doc, err := sexp.ParseString(input)
	if err != nil {
		return nil, err
	}
	return wrap(doc, "")
}

// Load reads a board file from disk.
func Load(path string) (*Board, error) {
	doc, err := sexp.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return wrap(doc, path)
}

func wrap(doc *sexp.Document, path string) (*Board, error) {
	if doc.Root.Head() != "kicad_pcb" {
		return nil, fmt.Errorf("%s: not a board (root is %q)", path, doc.Root.Head())
	}
	return &Board{doc: doc, Path: path}, nil
}

// New creates an empty board with the default two-layer stackup.
func New() *Board {
	root := sexp.List("kicad_pcb",
		sexp.List("version", sexp.Int(20241229)),
		sexp.List("generator", sexp.String("opentracesync")),
		sexp.List("general",
			sexp.List("thickness", sexp.Float(1.6)),
		),
		sexp.List("paper", sexp.String("A4")),
		sexp.List("layers",
			sexp.List("0", sexp.String("F.Cu"), sexp.Symbol("signal")),
			sexp.List("31", sexp.String("B.Cu"), sexp.Symbol("signal")),
			sexp.List("36", sexp.String("B.SilkS"), sexp.Symbol("user")),
			sexp.List("37", sexp.String("F.SilkS"), sexp.Symbol("user")),
		),
		sexp.List("net", sexp.Int(0), sexp.String("")),
	)
	b, _ := wrap(&sexp.Document{Root: root}, "")
	return b
}

// Root exposes the underlying tree.
func (b *Board) Root() *sexp.Node { return b.doc.Root }

// String serializes the board.
func (b *Board) String() string { return b.doc.String() }

// Save writes the board atomically.
func (b *Board) Save(path string) error { return b.doc.WriteFile(path) }

// Net is one entry of the board net table.
type Net struct {
	Number int
	Name   string
}

// Nets returns the board net table in declaration order.
func (b *Board) Nets() []Net {
	var nets []Net
	for _, node := range b.doc.Root.FindAll("net") {
		num, errN := node.ChildInt(1)
		name, errS := node.ChildString(2)
		if errN != nil || errS != nil {
			continue
		}
		nets = append(nets, Net{Number: num, Name: name})
	}
	return nets
}

// EnsureNet returns the number for a net name, declaring it with the next
// free number when the board does not know it yet. Existing numbering is
// never reshuffled, so unchanged boards stay byte-identical. Number 0 means
// "no net" and is never handed to a real net, even on a board whose table
// lacks the (net 0 "") declaration.
func (b *Board) EnsureNet(name string) int {
	nets := b.Nets()
	max := 0
	for _, n := range nets {
		if n.Name == name {
			return n.Number
		}
		if n.Number > max {
			max = n.Number
		}
	}
	num := max + 1
	node := sexp.List("net", sexp.Int(num), sexp.String(name))

	// Keep net declarations grouped: insert after the last existing one.
	root := b.doc.Root
	insertAt := len(root.Children)
	for i := len(root.Children) - 1; i >= 0; i-- {
		if root.Children[i].IsList() && root.Children[i].Head() == "net" {
			insertAt = i + 1
			break
		}
	}
	root.InsertChild(insertAt, node)
	return num
}

// NetName resolves a net number to its name.
func (b *Board) NetName(number int) (string, bool) {
	for _, n := range b.Nets() {
		if n.Number == number {
			return n.Name, true
		}
	}
	return "", false
}

func uuidNode() *sexp.Node {
	return sexp.List("uuid", sexp.String(uuid.NewString()))
}
