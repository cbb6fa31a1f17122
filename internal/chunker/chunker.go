package chunker

import (
	"strings"
)

// maxTreeDepth bounds recursion so a pathologically deep tree cannot blow the
// stack; subtrees past the cap are treated as atomic leaves.
const maxTreeDepth = 512

// chunkNode walks a node's children once, greedily packing consecutive
// siblings into spans of at most maxChars bytes. A child larger than maxChars
// is chunked recursively; a leaf larger than maxChars is emitted as a single
// oversized span (correctness over strict size compliance).
func chunkNode(n Node, maxChars, depth int) []Span {
	parent := nodeSpan(n)
	if n.ChildCount() == 0 || depth >= maxTreeDepth {
		return []Span{parent}
	}

	var spans []Span
	var cur Span
	haveCur := false
	flush := func() {
		if haveCur {
			spans = append(spans, cur)
			haveCur = false
		}
	}

	prevEnd := parent.Start
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child == nil {
			return []Span{parent}
		}
		cs := nodeSpan(child)

		// A tree whose child ranges escape the parent or run backwards
		// cannot be trusted; fail soft by keeping the subtree whole.
		if cs.Start < prevEnd || cs.End > parent.End || cs.Start > cs.End {
			return []Span{parent}
		}
		prevEnd = cs.End

		switch {
		case cs.Len() > maxChars:
			flush()
			spans = append(spans, chunkNode(child, maxChars, depth+1)...)
		case !haveCur:
			cur = cs
			haveCur = true
		case cs.End-cur.Start > maxChars:
			flush()
			cur = cs
			haveCur = true
		default:
			cur.End = cs.End
		}
	}
	flush()

	return spans
}

// coalesce makes consecutive spans contiguous. Some grammars omit trivia
// (whitespace, comments) from the child list, leaving byte gaps between
// adjacent siblings; each span's end is extended forward to the next span's
// start, the first span is pulled back to the start of the document and the
// last pushed to its end, so concatenating the chunk texts reconstructs the
// document exactly.
func coalesce(spans []Span, docLen int) []Span {
	if len(spans) == 0 {
		return spans
	}
	for i := 0; i < len(spans)-1; i++ {
		spans[i].End = spans[i+1].Start
	}
	spans[0].Start = 0
	spans[len(spans)-1].End = docLen
	return spans
}

// mergeSmall folds spans that cover a single line into the span that follows
// them. A lone closing brace or import line carries little retrieval value on
// its own; merging forward keeps it next to the code it introduces. The last
// remaining span is never merged away.
func mergeSmall(spans []Span, text string) []Span {
	out := spans[:0]
	for _, s := range spans {
		if s.Len() > 0 {
			out = append(out, s)
		}
	}

	i := 0
	for i < len(out)-1 {
		if !singleLine(text[out[i].Start:out[i].End]) {
			i++
			continue
		}
		out[i+1].Start = out[i].Start
		out = append(out[:i], out[i+1:]...)
		// The merged span may still be a single line; re-check at i.
	}
	return out
}

// singleLine reports whether s has no interior line break. A trailing newline
// does not count: "x\n" is a single line.
func singleLine(s string) bool {
	return !strings.Contains(strings.TrimSuffix(s, "\n"), "\n")
}
