package indexer

// DefaultSegmentWidth is the span size used when none is configured.
const DefaultSegmentWidth = 1000

// Split cuts text into fixed-width spans of at most width runes. The split
// is deterministic with no boundary logic: concatenating the result in
// order reproduces the input exactly. Empty input yields one empty
// segment, so every indexed document has at least one entry to probe.
func Split(text string, width int) []string {
	if width <= 0 {
		width = DefaultSegmentWidth
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}

	segments := make([]string, 0, (len(runes)+width-1)/width)
	for start := 0; start < len(runes); start += width {
		end := start + width
		if end > len(runes) {
			end = len(runes)
		}
		segments = append(segments, string(runes[start:end]))
	}
	return segments
}
