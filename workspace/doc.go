package workspace

import (
	"encoding/json"
	"fmt"
	"strings"

	"dovetail/checker"
)

// Document is the serialized form of a workspace. Links reference
// connections as "block" or "block.NAME", where NAME is an input name or
// one of output, previous and next. A bare block name means the block's
// next connection on the parent side, and its output (or previous, if it
// has no output) on the child side.
type Document struct {
	Blocks   []BlockDoc   `json:"blocks"`
	Links    []LinkDoc    `json:"links,omitempty"`
	Bindings []BindingDoc `json:"bindings,omitempty"`
}

type BlockDoc struct {
	ID       string     `json:"id"`
	Output   *string    `json:"output,omitempty"`
	Previous *string    `json:"previous,omitempty"`
	Inputs   []InputDoc `json:"inputs,omitempty"`
	Next     *string    `json:"next,omitempty"`
}

type InputDoc struct {
	Name  string `json:"name"`
	Check string `json:"check"`
}

type LinkDoc struct {
	Parent string `json:"parent"`
	Child  string `json:"child"`
}

type BindingDoc struct {
	Block   string `json:"block"`
	Generic string `json:"generic"`
	Type    string `json:"type"`
}

func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding workspace: %w", err)
	}

	return &doc, nil
}

// Build constructs the workspace and applies its links. Bindings are left
// to the caller, since applying them is the checker's job.
func (doc *Document) Build() (*Workspace, error) {
	w := New()

	for _, blockDoc := range doc.Blocks {
		block := NewBlock(blockDoc.ID)
		if blockDoc.Output != nil {
			block.SetOutput(*blockDoc.Output)
		}
		if blockDoc.Previous != nil {
			block.SetPrevious(*blockDoc.Previous)
		}
		for _, input := range blockDoc.Inputs {
			block.AddInput(input.Name, input.Check)
		}
		if blockDoc.Next != nil {
			block.SetNext(*blockDoc.Next)
		}

		if err := w.Add(block); err != nil {
			return nil, err
		}
	}

	for _, link := range doc.Links {
		parent, err := w.Connection(link.Parent, true)
		if err != nil {
			return nil, err
		}

		child, err := w.Connection(link.Child, false)
		if err != nil {
			return nil, err
		}

		if err := Connect(parent, child); err != nil {
			return nil, err
		}
	}

	return w, nil
}

// Connection resolves a "block" or "block.NAME" reference to a connection
// on the requested side.
func (w *Workspace) Connection(ref string, superior bool) (*Connection, error) {
	id, name, _ := strings.Cut(ref, ".")

	block, ok := w.Block(id)
	if !ok {
		return nil, fmt.Errorf("no block %q", id)
	}

	conn, err := block.connection(name, superior)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ref, err)
	}

	return conn, nil
}

func (b *Block) connection(name string, superior bool) (*Connection, error) {
	switch name {
	case "":
		if superior {
			if b.next != nil {
				return b.next, nil
			}

			return nil, fmt.Errorf("block has no next connection")
		}

		if b.output != nil {
			return b.output, nil
		}
		if b.previous != nil {
			return b.previous, nil
		}

		return nil, fmt.Errorf("block has no output or previous connection")

	case "output":
		if b.output == nil {
			return nil, fmt.Errorf("block has no output connection")
		}

		return b.output, nil

	case "previous":
		if b.previous == nil {
			return nil, fmt.Errorf("block has no previous connection")
		}

		return b.previous, nil

	case "next":
		if b.next == nil {
			return nil, fmt.Errorf("block has no next connection")
		}

		return b.next, nil

	default:
		if input, ok := b.Input(name); ok {
			return input, nil
		}

		return nil, fmt.Errorf("block has no input %q", name)
	}
}

// Ref names a connection the way Document links do.
func (c *Connection) Ref() string {
	switch c.kind {
	case checker.KindInput:
		return c.block.id + "." + c.input
	case checker.KindOutput, checker.KindNext:
		return c.block.id
	case checker.KindPrevious:
		if c.block.output == nil {
			return c.block.id
		}

		return c.block.id + ".previous"
	default:
		return fmt.Sprintf("%s.%s", c.block.id, c.kind)
	}
}

// Document serializes the workspace, including its links but not any
// bindings held by a checker.
func (w *Workspace) Document() *Document {
	doc := &Document{}

	for _, block := range w.blocks {
		blockDoc := BlockDoc{ID: block.id}
		if block.output != nil {
			check := block.output.check
			blockDoc.Output = &check
		}
		if block.previous != nil {
			check := block.previous.check
			blockDoc.Previous = &check
		}
		for _, input := range block.inputs {
			blockDoc.Inputs = append(blockDoc.Inputs, InputDoc{Name: input.input, Check: input.check})
		}
		if block.next != nil {
			check := block.next.check
			blockDoc.Next = &check
		}

		doc.Blocks = append(doc.Blocks, blockDoc)
	}

	for _, link := range w.Links() {
		doc.Links = append(doc.Links, LinkDoc{Parent: link[0].Ref(), Child: link[1].Ref()})
	}

	return doc
}
