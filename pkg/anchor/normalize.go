package anchor

import "unicode"

// srcSpan records where one normalized rune came from in the original
// string, as rune offsets. A collapsed whitespace run or a decoded HTML
// entity maps a single normalized rune onto a wider original span.
type srcSpan struct {
	start int // inclusive
	end   int // exclusive
}

// normalized is a canonical form of a text fragment plus the index map
// needed to translate match positions back into original coordinates.
type normalized struct {
	runes []rune
	src   []srcSpan
}

// htmlEntities maps the entity spellings the editor's HTML serialization
// can leak into model output onto their canonical runes.
var htmlEntities = map[string]rune{
	"&nbsp;": ' ',
	"&amp;":  '&',
	"&lt;":   '<',
	"&gt;":   '>',
	"&quot;": '"',
	"&#39;":  '\'',
	"&apos;": '\'',
}

// decodeEntity tries to read an HTML entity at the start of rs.
// Returns the decoded rune and how many input runes it consumed.
func decodeEntity(rs []rune) (rune, int, bool) {
	// Longest entity we decode is 6 runes ("&nbsp;").
	max := 6
	if len(rs) < max {
		max = len(rs)
	}
	for l := 4; l <= max; l++ {
		if rs[l-1] != ';' {
			continue
		}
		if r, ok := htmlEntities[string(rs[:l])]; ok {
			return r, l, true
		}
	}
	return 0, 0, false
}

func isSpaceRune(r rune) bool {
	return r == ' ' || unicode.IsSpace(r)
}

// readRune decodes one logical rune at rs[0], resolving entities and
// mapping non-breaking spaces onto plain spaces.
func readRune(rs []rune) (rune, int) {
	r := rs[0]
	width := 1
	if r == '&' {
		if dec, w, ok := decodeEntity(rs); ok {
			r, width = dec, w
		}
	}
	if r == '\u00a0' {
		r = ' '
	}
	return r, width
}

// normalizeMapped canonicalizes s for matching: HTML-entity equivalents
// collapse to a single rune, whitespace runs collapse to one space, and
// everything is lower-cased. The returned src map carries, per normalized
// rune, the original rune span it replaced.
func normalizeMapped(s string) normalized {
	in := []rune(s)
	var out normalized
	i := 0
	for i < len(in) {
		r, width := readRune(in[i:])
		if isSpaceRune(r) {
			j := i + width
			for j < len(in) {
				nr, nw := readRune(in[j:])
				if !isSpaceRune(nr) {
					break
				}
				j += nw
			}
			out.runes = append(out.runes, ' ')
			out.src = append(out.src, srcSpan{start: i, end: j})
			i = j
			continue
		}
		out.runes = append(out.runes, unicode.ToLower(r))
		out.src = append(out.src, srcSpan{start: i, end: i + width})
		i += width
	}
	return out
}

// NormalizeText returns the canonical matching form of s: entities decoded,
// whitespace runs collapsed to single spaces, lower-cased. Suggestion
// grouping and anchor resolution share this exact canonicalization.
func NormalizeText(s string) string {
	return string(normalizeMapped(s).runes)
}

// indexRunes returns the rune index of the first occurrence of needle in
// hay, or -1. An empty needle never matches.
func indexRunes(hay, needle []rune) int {
	if len(needle) == 0 || len(needle) > len(hay) {
		return -1
	}
	for i := 0; i+len(needle) <= len(hay); i++ {
		if hay[i] != needle[0] {
			continue
		}
		match := true
		for j := 1; j < len(needle); j++ {
			if hay[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
