// Package schematic provides a mutable, format-preserving model of KiCad
// schematic files (.kicad_sch). The document wraps the exact s-expression
// tree: reads extract typed views, writes mutate the tree in place, and
// everything not explicitly touched serializes back byte-for-byte.
package schematic

import (
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/OpenTraceLab/OpenTraceSync/pkg/kicad/sexp"
)

// Document is one schematic sheet file.
type Document struct {
	doc  *sexp.Document
	Path string
}

// Parse reads a schematic from a reader.
func Parse(r io.Reader) (*Document, error) {
	doc, err := sexp.Parse(r)
	if err != nil {
		return nil, err
	}
	return wrap(doc, "")
}

// ParseString reads a schematic from a string.
func ParseString(input string) (*Document, error) {
	doc, err := sexp.ParseString(input)
	if err != nil {
		return nil, err
	}
	return wrap(doc, "")
}

// Load reads a schematic file from disk.
func Load(path string) (*Document, error) {
	doc, err := sexp.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return wrap(doc, path)
}

func wrap(doc *sexp.Document, path string) (*Document, error) {
	if doc.Root.Head() != "kicad_sch" {
		return nil, fmt.Errorf("%s: not a schematic (root is %q)", path, doc.Root.Head())
	}
	return &Document{doc: doc, Path: path}, nil
}

// Generator is the identity written into files this engine creates.
const Generator = "opentracesync"

// FormatVersion is the schematic file format revision we emit.
const FormatVersion = 20250114

// New creates an empty schematic sheet.
func New() *Document {
	root := sexp.List("kicad_sch",
		sexp.List("version", sexp.Int(FormatVersion)),
		sexp.List("generator", sexp.String(Generator)),
		sexp.List("uuid", sexp.String(uuid.NewString())),
		sexp.List("paper", sexp.String("A4")),
		sexp.List("lib_symbols"),
		sexp.List("sheet_instances",
			sexp.List("path", sexp.String("/"),
				sexp.List("page", sexp.String("1")),
			),
		),
	)
	d, _ := wrap(&sexp.Document{Root: root}, "")
	return d
}

// Root exposes the underlying tree for callers that need raw access.
func (d *Document) Root() *sexp.Node { return d.doc.Root }

// String serializes the sheet.
func (d *Document) String() string { return d.doc.String() }

// Save writes the sheet atomically to the given path.
func (d *Document) Save(path string) error { return d.doc.WriteFile(path) }

// UUID returns the sheet's identity token.
func (d *Document) UUID() string {
	if v, ok := d.doc.Root.StringAt("uuid", 1); ok {
		return v
	}
	return ""
}

// SheetLink is a reference to a child sheet file.
type SheetLink struct {
	Node *sexp.Node
	File string
	Name string
	UUID string
}

// SheetLinks returns the child sheet references on this sheet.
func (d *Document) SheetLinks() []SheetLink {
	var links []SheetLink
	for _, node := range d.doc.Root.FindAll("sheet") {
		link := SheetLink{Node: node}
		link.Name, _ = node.Property("Sheetname")
		link.File, _ = node.Property("Sheetfile")
		link.UUID, _ = node.StringAt("uuid", 1)
		if link.File == "" {
			continue
		}
		links = append(links, link)
	}
	return links
}

// AddSheetLink appends a child sheet reference with default geometry.
func (d *Document) AddSheetLink(file, name string, pos sexp.Position) *sexp.Node {
	node := sexp.List("sheet",
		sexp.List("at", sexp.Float(pos.X), sexp.Float(pos.Y)),
		sexp.List("size", sexp.Float(25.4), sexp.Float(19.05)),
		sexp.List("uuid", sexp.String(uuid.NewString())),
		sexp.List("property", sexp.String("Sheetname"), sexp.String(name)),
		sexp.List("property", sexp.String("Sheetfile"), sexp.String(file)),
	)
	d.doc.Root.AppendChild(node)
	return node
}
