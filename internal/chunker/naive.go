package chunker

// naiveChunk cuts text into overlapping windows of whole lines. It is the
// last resort when no grammar parses the document: with no syntactic anchors
// to cut against, consecutive windows deliberately share overlapLines lines
// so no context is lost at a boundary. The round-trip invariant does not hold
// on this path.
func naiveChunk(text string, windowLines, overlapLines int) []Span {
	if len(text) == 0 {
		return nil
	}

	lineStarts := []int{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' && i+1 < len(text) {
			lineStarts = append(lineStarts, i+1)
		}
	}
	total := len(lineStarts)

	if windowLines <= 0 {
		windowLines = 1
	}
	step := windowLines - overlapLines
	if step <= 0 {
		step = windowLines
	}

	var spans []Span
	for start := 0; start < total; start += step {
		end := start + windowLines
		if end > total {
			end = total
		}
		endOff := len(text)
		if end < total {
			endOff = lineStarts[end]
		}
		spans = append(spans, Span{Start: lineStarts[start], End: endOff})
		if end == total {
			break
		}
	}
	return spans
}
