package textsplitter

import "strings"

// RecursiveCharacterSplitter splits on the largest separator that keeps
// pieces under ChunkSize, recursing into finer separators for oversized
// pieces, then reassembles pieces into chunks with ChunkOverlap.
type RecursiveCharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

func (r *RecursiveCharacterSplitter) SplitText(text string) ([]string, error) {
	seps := r.Separators
	if len(seps) == 0 {
		seps = defaultSeparators
	}
	pieces := r.split(text, seps)
	return r.merge(pieces), nil
}

func (r *RecursiveCharacterSplitter) split(text string, seps []string) []string {
	if len(text) <= r.ChunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	sep := seps[len(seps)-1]
	rest := seps
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = seps[i+1:]
			break
		}
	}
	var parts []string
	if sep == "" {
		for len(text) > r.ChunkSize {
			parts = append(parts, text[:r.ChunkSize])
			text = text[r.ChunkSize:]
		}
		if text != "" {
			parts = append(parts, text)
		}
	} else {
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			if len(part) > r.ChunkSize && len(rest) > 0 {
				parts = append(parts, r.split(part, rest)...)
			} else {
				parts = append(parts, part)
			}
		}
	}
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge packs pieces into chunks close to ChunkSize, carrying the tail of
// each chunk into the next for overlap.
func (r *RecursiveCharacterSplitter) merge(pieces []string) []string {
	var chunks []string
	var cur strings.Builder
	for _, piece := range pieces {
		if cur.Len() > 0 && cur.Len()+len(piece) > r.ChunkSize {
			chunk := strings.TrimSpace(cur.String())
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			tail := overlapTail(cur.String(), r.ChunkOverlap)
			cur.Reset()
			cur.WriteString(tail)
		}
		cur.WriteString(piece)
	}
	if chunk := strings.TrimSpace(cur.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func overlapTail(s string, overlap int) string {
	if overlap <= 0 || len(s) <= overlap {
		if overlap <= 0 {
			return ""
		}
		return s
	}
	tail := s[len(s)-overlap:]
	// cut at a word boundary so the overlap never starts mid-word
	if i := strings.IndexByte(tail, ' '); i >= 0 && i+1 < len(tail) {
		tail = tail[i+1:]
	}
	return tail
}
