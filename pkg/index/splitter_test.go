package index_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/m-mizutani/gt"
	"github.com/m-otsuka/wren/pkg/index"
	"github.com/m-otsuka/wren/pkg/model"
)

func TestSplitterShortDocument(t *testing.T) {
	s := index.NewSplitter(1000, 150)
	chunks := s.Split(model.Document{Source: "doc.pdf", Content: "short text", Page: 2})

	gt.V(t, len(chunks)).Equal(1)
	gt.V(t, chunks[0].Text).Equal("short text")
	gt.V(t, chunks[0].Source).Equal("doc.pdf")
	gt.V(t, chunks[0].Page).Equal(2)
	gt.V(t, chunks[0].StartOffset).Equal(0)
}

func TestSplitterEmptyDocument(t *testing.T) {
	s := index.NewSplitter(1000, 150)

	gt.V(t, len(s.Split(model.Document{Source: "a", Content: ""}))).Equal(0)
	gt.V(t, len(s.Split(model.Document{Source: "b", Content: "  \n\n  "}))).Equal(0)
}

func TestSplitterParagraphBoundary(t *testing.T) {
	paraA := strings.Repeat("a", 180)
	paraB := strings.Repeat("b", 180)
	content := paraA + "\n\n" + paraB

	s := index.NewSplitter(200, 20)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks)).Equal(2)
	gt.V(t, chunks[0].Text).Equal(paraA)
	gt.V(t, chunks[0].StartOffset).Equal(0)
	gt.V(t, chunks[1].Text).Equal(paraB)
	gt.V(t, chunks[1].StartOffset).Equal(182)
}

func TestSplitterWordOverlap(t *testing.T) {
	content := "aaaaa bbbbb ccccc ddddd eeeee"

	s := index.NewSplitter(20, 8)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks)).Equal(2)
	gt.V(t, chunks[0].Text).Equal("aaaaa bbbbb ccccc")
	gt.V(t, chunks[1].Text).Equal("ccccc ddddd eeeee")
	gt.V(t, chunks[1].StartOffset).Equal(12)
}

// Joined separator bytes count against the chunk size, so no chunk may
// come out longer than the configured limit.
func TestSplitterChunkSizeBound(t *testing.T) {
	content := strings.TrimSpace(strings.Repeat("aaaaa ", 12))

	s := index.NewSplitter(20, 8)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks) > 1).Equal(true)
	for _, c := range chunks {
		gt.V(t, len(c.Text) <= 20).Equal(true)
	}
}

func TestSplitterHardCut(t *testing.T) {
	content := strings.Repeat("x", 2500)

	s := index.NewSplitter(1000, 150)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks)).Equal(3)
	gt.V(t, chunks[0].StartOffset).Equal(0)
	gt.V(t, chunks[1].StartOffset).Equal(850)
	gt.V(t, chunks[2].StartOffset).Equal(1700)
	gt.V(t, len(chunks[0].Text)).Equal(1000)
	gt.V(t, len(chunks[2].Text)).Equal(800)
}

func TestSplitterHardCutRuneBoundaries(t *testing.T) {
	content := strings.Repeat("あ", 500)

	s := index.NewSplitter(1000, 150)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks) >= 2).Equal(true)
	for _, c := range chunks {
		gt.V(t, utf8.ValidString(c.Text)).Equal(true)
		gt.V(t, content[c.StartOffset:c.StartOffset+len(c.Text)]).Equal(c.Text)
	}
}

// Offsets must locate each chunk's text inside the original content,
// whatever combination of separators produced it.
func TestSplitterOffsetsAddressOriginal(t *testing.T) {
	content := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20) +
		"\n\n" +
		strings.Repeat("Pack my box with five dozen liquor jugs.\n", 15) +
		strings.Repeat("z", 600)

	s := index.NewSplitter(200, 40)
	chunks := s.Split(model.Document{Source: "doc.txt", Content: content})

	gt.V(t, len(chunks) > 1).Equal(true)
	for _, c := range chunks {
		end := c.StartOffset + len(c.Text)
		gt.V(t, end <= len(content)).Equal(true)
		gt.V(t, content[c.StartOffset:end]).Equal(c.Text)
	}
}
