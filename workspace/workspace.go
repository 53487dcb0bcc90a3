// Package workspace provides the concrete blocks and connections the
// checker operates on, plus a JSON document format for loading and saving
// them.
package workspace

import (
	"fmt"
	"slices"

	"dovetail/checker"
)

// Block is one workspace block: an optional output or previous connection
// on the inferior side, named inputs and an optional next connection on the
// superior side.
type Block struct {
	id       string
	output   *Connection
	previous *Connection
	inputs   []*Connection
	next     *Connection
	bumps    int
}

func NewBlock(id string) *Block {
	return &Block{id: id}
}

func (b *Block) ID() string {
	return b.id
}

func (b *Block) String() string {
	return b.id
}

func (b *Block) SetOutput(check string) *Connection {
	b.output = &Connection{block: b, kind: checker.KindOutput, check: check}
	return b.output
}

func (b *Block) SetPrevious(check string) *Connection {
	b.previous = &Connection{block: b, kind: checker.KindPrevious, check: check}
	return b.previous
}

func (b *Block) AddInput(name string, check string) *Connection {
	input := &Connection{block: b, kind: checker.KindInput, check: check, input: name}
	b.inputs = append(b.inputs, input)

	return input
}

func (b *Block) SetNext(check string) *Connection {
	b.next = &Connection{block: b, kind: checker.KindNext, check: check}
	return b.next
}

func (b *Block) Output() *Connection {
	return b.output
}

func (b *Block) Previous() *Connection {
	return b.previous
}

func (b *Block) Next() *Connection {
	return b.next
}

func (b *Block) Input(name string) (*Connection, bool) {
	for _, input := range b.inputs {
		if input.input == name {
			return input, true
		}
	}

	return nil, false
}

func (b *Block) conns() []*Connection {
	conns := make([]*Connection, 0, len(b.inputs)+3)
	if b.output != nil {
		conns = append(conns, b.output)
	}
	if b.previous != nil {
		conns = append(conns, b.previous)
	}
	conns = append(conns, b.inputs...)
	if b.next != nil {
		conns = append(conns, b.next)
	}

	return conns
}

// Connections lists the block's connections in a fixed order: output,
// previous, inputs in declaration order, next.
func (b *Block) Connections() []checker.Connection {
	conns := b.conns()
	out := make([]checker.Connection, len(conns))
	for i, conn := range conns {
		out[i] = conn
	}

	return out
}

// BumpNeighbours records that the block's surroundings changed. The visual
// layer uses this to nudge rejected blocks away from their old spot.
func (b *Block) BumpNeighbours() {
	b.bumps++
}

// Bumps reports how many times the block's neighbours were bumped.
func (b *Block) Bumps() int {
	return b.bumps
}

// Connection is one attachment point on a block.
type Connection struct {
	block *Block
	kind  checker.Kind
	check string
	input string
	peer  *Connection
}

func (c *Connection) SourceBlock() checker.Block {
	return c.block
}

func (c *Connection) Block() *Block {
	return c.block
}

func (c *Connection) Peer() checker.Connection {
	if c.peer == nil {
		return nil
	}

	return c.peer
}

func (c *Connection) Check() string {
	return c.check
}

func (c *Connection) Kind() checker.Kind {
	return c.kind
}

func (c *Connection) InputName() string {
	return c.input
}

func (c *Connection) Superior() bool {
	return c.kind == checker.KindInput || c.kind == checker.KindNext
}

// Connect links both sides, dropping any existing link on either side
// first.
func (c *Connection) Connect(other checker.Connection) {
	peer := other.(*Connection)
	c.Disconnect()
	peer.Disconnect()
	c.peer = peer
	peer.peer = c
}

// Disconnect unlinks both sides, if linked.
func (c *Connection) Disconnect() {
	if c.peer != nil {
		c.peer.peer = nil
		c.peer = nil
	}
}

func (c *Connection) String() string {
	if c.kind == checker.KindInput {
		return fmt.Sprintf("%s.%s", c.block.id, c.input)
	}

	return fmt.Sprintf("%s.%s", c.block.id, c.kind)
}

// Workspace is a set of blocks and the links between them.
type Workspace struct {
	blocks []*Block
	index  map[string]*Block
}

func New() *Workspace {
	return &Workspace{index: make(map[string]*Block)}
}

// Add registers a block under its id, which must be unused.
func (w *Workspace) Add(block *Block) error {
	if _, ok := w.index[block.id]; ok {
		return fmt.Errorf("block %q already exists", block.id)
	}

	w.blocks = append(w.blocks, block)
	w.index[block.id] = block

	return nil
}

func (w *Workspace) Block(id string) (*Block, bool) {
	block, ok := w.index[id]
	return block, ok
}

// Blocks lists blocks in insertion order.
func (w *Workspace) Blocks() []*Block {
	return slices.Clone(w.blocks)
}

// Links lists every link once, superior side first, in block insertion
// order.
func (w *Workspace) Links() [][2]*Connection {
	var links [][2]*Connection
	for _, block := range w.blocks {
		for _, conn := range block.conns() {
			if conn.Superior() && conn.peer != nil {
				links = append(links, [2]*Connection{conn, conn.peer})
			}
		}
	}

	return links
}

// Connect links a superior connection to an inferior one, after checking
// the pairing makes sense: inputs take outputs, next takes previous.
func Connect(sup, inf *Connection) error {
	if !sup.Superior() || inf.Superior() {
		return fmt.Errorf("cannot connect %s to %s", sup, inf)
	}

	if sup.kind == checker.KindInput && inf.kind != checker.KindOutput {
		return fmt.Errorf("input %s takes an output, not %s", sup, inf)
	}

	if sup.kind == checker.KindNext && inf.kind != checker.KindPrevious {
		return fmt.Errorf("next %s takes a previous connection, not %s", sup, inf)
	}

	if sup.peer != nil {
		return fmt.Errorf("%s is already connected", sup)
	}

	if inf.peer != nil {
		return fmt.Errorf("%s is already connected", inf)
	}

	sup.Connect(inf)

	return nil
}
