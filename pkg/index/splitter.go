package index

import (
	"strings"
	"unicode/utf8"

	"github.com/m-otsuka/wren/pkg/model"
)

// separators are tried in order: paragraph breaks, line breaks, spaces,
// then a hard cut when nothing else fits.
var separators = []string{"\n\n", "\n", " ", ""}

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 150
)

// Splitter cuts document text into overlapping chunks. Boundaries prefer
// the coarsest separator that keeps each chunk within the target size.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
		if chunkOverlap >= chunkSize {
			chunkOverlap = chunkSize / 5
		}
	}
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

type span struct {
	start, end int
}

// Split decomposes a document into chunks carrying the source identifier
// and the start offset of each chunk within the original content.
func (s *Splitter) Split(doc model.Document) []model.Chunk {
	content := doc.Content
	if strings.TrimSpace(content) == "" {
		return nil
	}

	spans := s.split(content, span{0, len(content)}, 0)

	chunks := make([]model.Chunk, 0, len(spans))
	for _, sp := range spans {
		raw := content[sp.start:sp.end]
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		lead := strings.Index(raw, text[:1])
		chunks = append(chunks, model.Chunk{
			Text:        text,
			Source:      doc.Source,
			Page:        doc.Page,
			StartOffset: sp.start + lead,
		})
	}
	return chunks
}

func (s *Splitter) split(content string, sp span, depth int) []span {
	if sp.end-sp.start <= s.chunkSize {
		return []span{sp}
	}

	sep := separators[depth]
	if sep == "" {
		return s.hardCut(content, sp)
	}

	parts := splitBySep(content, sp, sep)
	if len(parts) <= 1 {
		return s.split(content, sp, depth+1)
	}
	return s.merge(content, parts, depth)
}

// splitBySep returns the sub-spans between occurrences of sep.
func splitBySep(content string, sp span, sep string) []span {
	var parts []span
	start := sp.start
	for start < sp.end {
		idx := strings.Index(content[start:sp.end], sep)
		if idx < 0 {
			parts = append(parts, span{start, sp.end})
			break
		}
		parts = append(parts, span{start, start + idx})
		start += idx + len(sep)
	}
	return parts
}

// merge greedily packs parts into chunks of at most chunkSize, keeping a
// tail of parts up to chunkOverlap as the start of the next chunk. The
// separator bytes rejoined between packed parts count against both
// budgets. Parts that alone exceed chunkSize are split again with the
// next separator.
func (s *Splitter) merge(content string, parts []span, depth int) []span {
	sepLen := len(separators[depth])
	var out []span
	var window []span
	var size int
	fresh := false

	flush := func() {
		if len(window) == 0 || !fresh {
			return
		}
		out = append(out, span{window[0].start, window[len(window)-1].end})
		fresh = false

		var tail []span
		tailSize := 0
		for i := len(window) - 1; i >= 0; i-- {
			l := window[i].end - window[i].start
			if len(tail) > 0 {
				l += sepLen
			}
			if tailSize+l > s.chunkOverlap {
				break
			}
			tail = append([]span{window[i]}, tail...)
			tailSize += l
		}
		window = tail
		size = tailSize
	}

	for _, p := range parts {
		l := p.end - p.start
		if l == 0 {
			continue
		}

		if l > s.chunkSize {
			flush()
			window = nil
			size = 0
			out = append(out, s.split(content, p, depth+1)...)
			continue
		}

		add := l
		if len(window) > 0 {
			add += sepLen
		}
		if size+add > s.chunkSize && size > 0 {
			flush()
			add = l
			if len(window) > 0 {
				add += sepLen
			}
		}
		window = append(window, p)
		size += add
		fresh = true
	}
	flush()

	return out
}

// hardCut slides a fixed window over text with no usable separators. Cut
// points snap back to rune starts so multi-byte text never splits
// mid-sequence.
func (s *Splitter) hardCut(content string, sp span) []span {
	step := s.chunkSize - s.chunkOverlap
	if step <= 0 {
		step = s.chunkSize
	}

	var out []span
	start := sp.start
	for start < sp.end {
		end := start + s.chunkSize
		if end >= sp.end {
			end = sp.end
		} else {
			end = snapToRuneStart(content, end)
			if end <= start {
				_, n := utf8.DecodeRuneInString(content[start:])
				end = start + n
			}
		}
		out = append(out, span{start, end})
		if end >= sp.end {
			break
		}

		next := snapToRuneStart(content, start+step)
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}

func snapToRuneStart(content string, i int) int {
	for i > 0 && i < len(content) && !utf8.RuneStart(content[i]) {
		i--
	}
	return i
}
