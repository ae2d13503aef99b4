package puzzle

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

//go:embed data/anniversary.hcl
var defaultSource []byte

// Definition is a hand-authored puzzle: its size and word placements.
type Definition struct {
	Title      string
	Rows       int
	Cols       int
	Placements []Placement
}

// Grid lays the definition out.
func (d *Definition) Grid() *Grid {
	return Build(d.Placements, d.Rows, d.Cols)
}

type hclPuzzle struct {
	Title string     `hcl:"title,optional"`
	Rows  int        `hcl:"rows"`
	Cols  int        `hcl:"cols"`
	Words []*hclWord `hcl:"word,block"`
}

type hclWord struct {
	Answer    string `hcl:"answer,label"`
	Number    int    `hcl:"number"`
	Clue      string `hcl:"clue"`
	Row       int    `hcl:"row"`
	Col       int    `hcl:"col"`
	Direction string `hcl:"direction"`
}

// evalContext lets puzzle files write `direction = across` unquoted.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"across": cty.StringVal(Across.String()),
			"down":   cty.StringVal(Down.String()),
		},
	}
}

// Decode parses an HCL puzzle definition. filename is only used in
// diagnostics.
func Decode(src []byte, filename string) (*Definition, error) {
	f, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse puzzle %s: %w", filename, diags)
	}

	var raw hclPuzzle
	if diags := gohcl.DecodeBody(f.Body, evalContext(), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decode puzzle %s: %w", filename, diags)
	}

	def := &Definition{
		Title:      raw.Title,
		Rows:       raw.Rows,
		Cols:       raw.Cols,
		Placements: make([]Placement, 0, len(raw.Words)),
	}
	for _, w := range raw.Words {
		dir, err := ParseDirection(w.Direction)
		if err != nil {
			return nil, fmt.Errorf("puzzle %s, word %q: %w", filename, w.Answer, err)
		}
		def.Placements = append(def.Placements, Placement{
			Number:    w.Number,
			Answer:    w.Answer,
			Clue:      w.Clue,
			Row:       w.Row,
			Col:       w.Col,
			Direction: dir,
		})
	}
	return def, nil
}

// LoadFile reads and decodes the puzzle definition at path.
func LoadFile(path string) (*Definition, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read puzzle: %w", err)
	}
	return Decode(src, path)
}

// Default returns the built-in anniversary puzzle.
func Default() *Definition {
	def, err := Decode(defaultSource, "anniversary.hcl")
	if err != nil {
		panic(err)
	}
	return def
}
