package lexical

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"ai-docpilot-be/pkg/anchor"
)

var (
	ErrOutOfBounds   = errors.New("lexical: offset out of bounds")
	ErrCrossesBlocks = errors.New("lexical: range crosses block boundary")
	ErrNotText       = errors.New("lexical: range is not plain document text")
)

// Edit describes one applied text mutation in document coordinates, for
// callers that keep offset-based state (decorations, selections) alive
// across the change.
type Edit struct {
	From   int
	To     int
	NewLen int
}

// Document is a live Lexical tree plus an offset index over its
// plain-text projection. Document coordinates are rune offsets into
// that projection: leaf text in document order, with one newline after
// every top-level block, list item and table row. The tree is the
// single source of truth; the index is rebuilt after every mutation so
// offsets never drift.
//
// A Document is not safe for concurrent use; callers serialize access
// per editor instance.
type Document struct {
	root LexicalRoot

	text       []rune
	leaves     []leafSpan
	lines      []lineSpan
	containers []span
	tops       []span

	selection int
}

// leafSpan locates one text leaf in the projection. The path holds
// child indices from the root, so the node survives sibling splices
// that would invalidate a raw pointer.
type leafSpan struct {
	text  string
	path  []int
	start int
	n     int
	line  int
}

// lineSpan is one projection line, end exclusive (past the newline).
type lineSpan struct {
	start, end int
	top        int
}

type span struct{ lo, hi int }

// NewDocument parses serialized Lexical JSON into a live document.
func NewDocument(content string) (*Document, error) {
	var root LexicalRoot
	if err := json.Unmarshal([]byte(content), &root); err != nil {
		return nil, fmt.Errorf("failed to parse lexical json: %w", err)
	}
	d := &Document{root: root}
	d.reindex()
	return d, nil
}

// Serialize renders the tree back to Lexical JSON.
func (d *Document) Serialize() (string, error) {
	b, err := json.Marshal(d.root)
	if err != nil {
		return "", fmt.Errorf("failed to serialize lexical tree: %w", err)
	}
	return string(b), nil
}

// Markdown renders the current tree through the markdown projection.
func (d *Document) Markdown() string {
	return NewParser().Render(d.root)
}

// PlainText returns the plain-text projection the document coordinates
// index into.
func (d *Document) PlainText() string {
	return string(d.text)
}

// Len returns the projection length in runes.
func (d *Document) Len() int {
	return len(d.text)
}

// BlockOf returns the 1-based projection line containing off, counting
// top-level blocks, list items and table rows. 0 means an empty
// document or a negative offset.
func (d *Document) BlockOf(off int) int {
	if len(d.lines) == 0 || off < 0 {
		return 0
	}
	if off >= len(d.text) {
		return len(d.lines)
	}
	i := sort.Search(len(d.lines), func(i int) bool { return d.lines[i].end > off })
	return i + 1
}

// Selection returns the cursor offset.
func (d *Document) Selection() int {
	return d.selection
}

// SetSelection moves the cursor, clamped to the projection bounds.
func (d *Document) SetSelection(off int) {
	if off < 0 {
		off = 0
	}
	if off > len(d.text) {
		off = len(d.text)
	}
	d.selection = off
}

// WalkLeaves visits text leaves in document order until fn returns
// false.
func (d *Document) WalkLeaves(fn func(anchor.Leaf) bool) {
	for _, l := range d.leaves {
		if !fn(anchor.Leaf{Text: l.text, Start: l.start}) {
			return
		}
	}
}

// WalkContainers visits inline runs that formatting split across two or
// more leaves (paragraph bodies, list items, table cells) until fn
// returns false. Single-leaf runs are skipped; leaf scans already cover
// them.
func (d *Document) WalkContainers(fn func(anchor.Container) bool) {
	for _, c := range d.containers {
		leaves := make([]anchor.Leaf, 0, c.hi-c.lo)
		for i := c.lo; i < c.hi; i++ {
			leaves = append(leaves, anchor.Leaf{Text: d.leaves[i].text, Start: d.leaves[i].start})
		}
		if !fn(anchor.Container{Leaves: leaves}) {
			return
		}
	}
}

// ReplaceRange swaps the text in [from, to) for content as one atomic
// edit and returns the applied Edit. The range must lie inside the leaf
// text of a single block; replacements never cross a block boundary or
// swallow structural gaps. Newlines in content are flattened to spaces
// because text leaves never hold line breaks. from == to inserts at
// that point.
func (d *Document) ReplaceRange(from, to int, content string) (Edit, error) {
	if from < 0 || to < from || to > len(d.text) {
		return Edit{}, ErrOutOfBounds
	}
	content = strings.ReplaceAll(content, "\n", " ")

	if from == to {
		if err := d.insertText(from, content); err != nil {
			return Edit{}, err
		}
	} else if err := d.replaceText(from, to, content); err != nil {
		return Edit{}, err
	}

	newLen := len([]rune(content))
	sel := d.selection
	switch {
	case sel >= to:
		sel += newLen - (to - from)
	case sel > from:
		sel = from + newLen
	}

	pruneEmpty(&d.root.Root)
	d.reindex()
	d.SetSelection(sel)
	return Edit{From: from, To: to, NewLen: newLen}, nil
}

func (d *Document) insertText(off int, content string) error {
	i := sort.Search(len(d.leaves), func(i int) bool {
		return d.leaves[i].start+d.leaves[i].n >= off
	})
	if i >= len(d.leaves) || d.leaves[i].start > off {
		return ErrNotText
	}
	l := d.leaves[i]
	r := []rune(l.text)
	cut := off - l.start
	d.nodeAt(l.path).Text = string(r[:cut]) + content + string(r[cut:])
	return nil
}

func (d *Document) replaceText(from, to int, content string) error {
	idxs := d.coveredLeaves(from, to)
	if len(idxs) == 0 {
		return ErrNotText
	}
	first := d.leaves[idxs[0]]
	last := d.leaves[idxs[len(idxs)-1]]
	if first.start > from || last.start+last.n < to {
		return ErrNotText
	}
	for k := 1; k < len(idxs); k++ {
		prev, cur := d.leaves[idxs[k-1]], d.leaves[idxs[k]]
		if prev.start+prev.n != cur.start {
			if prev.line != cur.line {
				return ErrCrossesBlocks
			}
			return ErrNotText
		}
	}

	if len(idxs) == 1 {
		r := []rune(first.text)
		d.nodeAt(first.path).Text = string(r[:from-first.start]) + content + string(r[to-first.start:])
		return nil
	}
	r := []rune(first.text)
	d.nodeAt(first.path).Text = string(r[:from-first.start]) + content
	for _, k := range idxs[1 : len(idxs)-1] {
		d.nodeAt(d.leaves[k].path).Text = ""
	}
	r = []rune(last.text)
	d.nodeAt(last.path).Text = string(r[to-last.start:])
	return nil
}

// InsertDiagramNode inserts a diagram block after the top-level block
// containing off (or before it when off sits exactly on the block
// start), bracketed by empty paragraphs so the diagram never glues to
// surrounding text. The three nodes land in one splice. Returns the
// diagram's offset in the reindexed projection.
func (d *Document) InsertDiagramNode(off int, syntax, diagramType, title string) (int, error) {
	if off < 0 || off > len(d.text) {
		return 0, ErrOutOfBounds
	}

	at := len(d.tops)
	insPoint := len(d.text)
	for i := range d.tops {
		if off < d.tops[i].hi {
			if off <= d.tops[i].lo {
				at = i
				insPoint = d.tops[i].lo
			} else {
				at = i + 1
				insPoint = d.tops[i].hi
			}
			break
		}
	}

	children := d.root.Root.Children
	out := make([]Node, 0, len(children)+3)
	out = append(out, children[:at]...)
	out = append(out,
		Node{Type: "paragraph", Version: 1},
		Node{Type: "diagram", Version: 1, Syntax: syntax, DiagramType: diagramType, Title: title},
		Node{Type: "paragraph", Version: 1},
	)
	out = append(out, children[at:]...)
	d.root.Root.Children = out

	sel := d.selection
	if sel >= insPoint {
		// Three inserted lines, one newline each.
		sel += 3
	}
	d.reindex()
	d.SetSelection(sel)

	for _, ln := range d.lines {
		if ln.top == at+1 {
			return ln.start, nil
		}
	}
	return 0, fmt.Errorf("lexical: inserted diagram not found in index")
}

// SetMark applies the persistent highlight format to every text rune in
// [from, to), splitting leaves at the range edges. Structural gaps
// inside the range (newlines, cell joints) are skipped, so a mark may
// span blocks.
func (d *Document) SetMark(from, to int) error {
	return d.applyMark(from, to, true)
}

// UnsetMark removes the persistent highlight format from [from, to).
func (d *Document) UnsetMark(from, to int) error {
	return d.applyMark(from, to, false)
}

// ToggleMark removes the mark when the whole range carries it, and
// applies it otherwise.
func (d *Document) ToggleMark(from, to int) error {
	if d.Highlighted(from, to) {
		return d.UnsetMark(from, to)
	}
	return d.SetMark(from, to)
}

// Highlighted reports whether every text rune in [from, to) carries the
// highlight format.
func (d *Document) Highlighted(from, to int) bool {
	if from < 0 || to <= from || to > len(d.text) {
		return false
	}
	idxs := d.coveredLeaves(from, to)
	if len(idxs) == 0 {
		return false
	}
	for _, i := range idxs {
		if formatBits(d.nodeAt(d.leaves[i].path).Format)&FormatHighlight == 0 {
			return false
		}
	}
	return true
}

func (d *Document) applyMark(from, to int, on bool) error {
	if from < 0 || to <= from || to > len(d.text) {
		return ErrOutOfBounds
	}
	idxs := d.coveredLeaves(from, to)
	if len(idxs) == 0 {
		return ErrNotText
	}
	// Reverse order: splices shift only the sibling indices after the
	// touched leaf, so earlier paths stay valid.
	for k := len(idxs) - 1; k >= 0; k-- {
		l := d.leaves[idxs[k]]
		lf := max(from-l.start, 0)
		lt := min(to-l.start, l.n)
		d.splitApplyFormat(l, lf, lt, on)
	}
	d.reindex()
	return nil
}

func (d *Document) splitApplyFormat(l leafSpan, lf, lt int, on bool) {
	parent := d.nodeAt(l.path[:len(l.path)-1])
	idx := l.path[len(l.path)-1]
	node := parent.Children[idx]

	if lf == 0 && lt == l.n {
		parent.Children[idx].Format = setFormatBit(node.Format, FormatHighlight, on)
		return
	}

	runes := []rune(node.Text)
	parts := make([]Node, 0, 3)
	if lf > 0 {
		head := node
		head.Text = string(runes[:lf])
		parts = append(parts, head)
	}
	mid := node
	mid.Text = string(runes[lf:lt])
	mid.Format = setFormatBit(node.Format, FormatHighlight, on)
	parts = append(parts, mid)
	if lt < len(runes) {
		tail := node
		tail.Text = string(runes[lt:])
		parts = append(parts, tail)
	}

	out := make([]Node, 0, len(parent.Children)+len(parts)-1)
	out = append(out, parent.Children[:idx]...)
	out = append(out, parts...)
	out = append(out, parent.Children[idx+1:]...)
	parent.Children = out
}

func (d *Document) nodeAt(path []int) *Node {
	n := &d.root.Root
	for _, i := range path {
		n = &n.Children[i]
	}
	return n
}

// coveredLeaves returns indices of leaves overlapping [from, to), in
// document order.
func (d *Document) coveredLeaves(from, to int) []int {
	lo := sort.Search(len(d.leaves), func(i int) bool {
		return d.leaves[i].start+d.leaves[i].n > from
	})
	var out []int
	for i := lo; i < len(d.leaves) && d.leaves[i].start < to; i++ {
		out = append(out, i)
	}
	return out
}

func (d *Document) reindex() {
	d.text = d.text[:0]
	d.leaves = d.leaves[:0]
	d.lines = d.lines[:0]
	d.containers = d.containers[:0]
	d.tops = d.tops[:0]

	root := &d.root.Root
	for i := range root.Children {
		start := len(d.text)
		d.indexBlock(&root.Children[i], []int{i}, i)
		d.tops = append(d.tops, span{start, len(d.text)})
	}
	if d.selection > len(d.text) {
		d.selection = len(d.text)
	}
}

func (d *Document) indexBlock(n *Node, path []int, top int) {
	switch n.Type {
	case "list":
		for i := range n.Children {
			if n.Children[i].Type != "listitem" {
				continue
			}
			d.indexListItem(&n.Children[i], append(path, i), top)
		}
	case "table":
		for i := range n.Children {
			if n.Children[i].Type != "tablerow" {
				continue
			}
			d.indexTableRow(&n.Children[i], append(path, i), top)
		}
	default:
		// paragraph, heading, quote, horizontalrule, diagram, unknown
		lineStart := len(d.text)
		line := len(d.lines)
		leafLo := len(d.leaves)
		d.indexInline(n, path, line)
		d.addContainer(leafLo)
		d.endLine(lineStart, top)
	}
}

func (d *Document) indexListItem(item *Node, path []int, top int) {
	lineStart := len(d.text)
	line := len(d.lines)
	leafLo := len(d.leaves)
	var nested []int
	for i := range item.Children {
		if item.Children[i].Type == "list" {
			nested = append(nested, i)
			continue
		}
		d.indexInline(&item.Children[i], append(path, i), line)
	}
	d.addContainer(leafLo)
	d.endLine(lineStart, top)

	// Nested lists render as their own lines after the item's text.
	for _, i := range nested {
		d.indexBlock(&item.Children[i], append(path, i), top)
	}
}

func (d *Document) indexTableRow(row *Node, path []int, top int) {
	lineStart := len(d.text)
	line := len(d.lines)
	first := true
	for i := range row.Children {
		if row.Children[i].Type != "tablecell" {
			continue
		}
		if !first {
			// Cell joint; belongs to no leaf, so spans never cross it.
			d.text = append(d.text, ' ')
		}
		first = false
		leafLo := len(d.leaves)
		d.indexInline(&row.Children[i], append(path, i), line)
		d.addContainer(leafLo)
	}
	d.endLine(lineStart, top)
}

func (d *Document) indexInline(n *Node, path []int, line int) {
	switch n.Type {
	case "text":
		if n.Text == "" {
			return
		}
		runes := []rune(n.Text)
		d.leaves = append(d.leaves, leafSpan{
			text:  n.Text,
			path:  append([]int(nil), path...),
			start: len(d.text),
			n:     len(runes),
			line:  line,
		})
		d.text = append(d.text, runes...)
	case "linebreak":
		d.text = append(d.text, ' ')
	default:
		for i := range n.Children {
			d.indexInline(&n.Children[i], append(path, i), line)
		}
	}
}

func (d *Document) addContainer(leafLo int) {
	if len(d.leaves)-leafLo >= 2 {
		d.containers = append(d.containers, span{leafLo, len(d.leaves)})
	}
}

func (d *Document) endLine(lineStart, top int) {
	d.text = append(d.text, '\n')
	d.lines = append(d.lines, lineSpan{start: lineStart, end: len(d.text), top: top})
}

// pruneEmpty drops text leaves whose content was edited away. Empty
// structural nodes stay; a blank paragraph is a legitimate blank line.
func pruneEmpty(n *Node) {
	if len(n.Children) == 0 {
		return
	}
	out := n.Children[:0]
	for i := range n.Children {
		c := n.Children[i]
		if c.Type == "text" && c.Text == "" {
			continue
		}
		pruneEmpty(&c)
		out = append(out, c)
	}
	n.Children = out
}

// formatBits reads the numeric text-format bitmask; JSON decoding hands
// it over as float64.
func formatBits(v interface{}) int {
	switch f := v.(type) {
	case float64:
		return int(f)
	case int:
		return f
	}
	return 0
}

func setFormatBit(v interface{}, bit int, on bool) interface{} {
	bits := formatBits(v)
	if on {
		bits |= bit
	} else {
		bits &^= bit
	}
	if bits == 0 {
		return nil
	}
	return bits
}
