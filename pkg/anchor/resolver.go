package anchor

// Anchor is a resolved span in document coordinates (rune offsets into
// the document's plain-text projection).
type Anchor struct {
	From int
	To   int
}

// Leaf is one text leaf of the document tree, with its starting offset
// in document coordinates.
type Leaf struct {
	Text  string
	Start int
}

// Container is a node whose descendant text leaves form one contiguous
// run in the document (a paragraph, a list item, a table cell). Spans
// split across sibling leaves by inline formatting are found here.
type Container struct {
	Leaves []Leaf
}

// Tree is the read-only document view the resolver scans. Both walks
// visit in document order and stop when the callback returns false.
type Tree interface {
	WalkLeaves(fn func(Leaf) bool)
	WalkContainers(fn func(Container) bool)
}

const (
	// Fuzzy fallback only fires for targets longer than this (normalized runes).
	fuzzyMinLen = 10
	// Fuzzy fallback matches on this many leading normalized runes.
	fuzzyPrefixLen = 30
)

// Resolve locates search inside doc and returns its span, or nil when the
// text cannot be found. Strategies run in order, first hit wins:
//
//  1. exact match inside a single text leaf
//  2. match across sibling leaves of one container (formatting splits)
//  3. prefix match (first 30 normalized runes) inside a single leaf,
//     attempted only for targets longer than 10 normalized runes
//
// The first occurrence in document order is returned; later duplicates are
// never considered. Note the prefix fallback can mis-anchor when a long
// target's opening recurs earlier in the document; callers treating the
// trade-off differently should match on the full text themselves.
//
// Resolve never guesses: a nil return means "could not resolve" and the
// caller applies its own fallback.
func Resolve(search string, doc Tree) *Anchor {
	target := normalizeMapped(search)
	if len(target.runes) == 0 {
		return nil
	}

	if a := matchLeaves(target.runes, doc); a != nil {
		return a
	}
	if a := matchContainers(target.runes, doc); a != nil {
		return a
	}
	if len(target.runes) > fuzzyMinLen {
		prefix := target.runes
		if len(prefix) > fuzzyPrefixLen {
			prefix = prefix[:fuzzyPrefixLen]
		}
		if a := matchLeaves(prefix, doc); a != nil {
			return a
		}
	}
	return nil
}

// matchLeaves scans text leaves in document order for the normalized
// target, short-circuiting on the first hit.
func matchLeaves(target []rune, doc Tree) *Anchor {
	var found *Anchor
	doc.WalkLeaves(func(leaf Leaf) bool {
		norm := normalizeMapped(leaf.Text)
		idx := indexRunes(norm.runes, target)
		if idx < 0 {
			return true
		}
		found = &Anchor{
			From: leaf.Start + norm.src[idx].start,
			To:   leaf.Start + norm.src[idx+len(target)-1].end,
		}
		return false
	})
	return found
}

// matchContainers concatenates each container's normalized leaf texts and
// searches that run, translating a flat hit back into leaf offsets.
func matchContainers(target []rune, doc Tree) *Anchor {
	var found *Anchor
	doc.WalkContainers(func(c Container) bool {
		run := joinLeaves(c.Leaves)
		idx := indexRunes(run.runes, target)
		if idx < 0 {
			return true
		}
		found = &Anchor{
			From: run.from[idx],
			To:   run.to[idx+len(target)-1],
		}
		return false
	})
	return found
}

// joinedRun is the normalized concatenation of a container's leaves, with
// each normalized rune carrying the absolute document span it came from.
type joinedRun struct {
	runes []rune
	from  []int
	to    []int
}

// joinLeaves normalizes each leaf and stitches the results together.
// A whitespace run that straddles a leaf boundary still collapses to the
// single space contributed by the earlier leaf.
func joinLeaves(leaves []Leaf) joinedRun {
	var run joinedRun
	for _, leaf := range leaves {
		norm := normalizeMapped(leaf.Text)
		for i, r := range norm.runes {
			if r == ' ' && len(run.runes) > 0 && run.runes[len(run.runes)-1] == ' ' {
				// Extend the earlier space over this one so a match
				// ending on it still covers the full original run.
				run.to[len(run.to)-1] = leaf.Start + norm.src[i].end
				continue
			}
			run.runes = append(run.runes, r)
			run.from = append(run.from, leaf.Start+norm.src[i].start)
			run.to = append(run.to, leaf.Start+norm.src[i].end)
		}
	}
	return run
}
