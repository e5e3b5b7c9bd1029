package chunker

import (
	"unicode/utf8"

	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/section"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// sentencesStrategy is fallback level 2: it ignores section structure
// entirely and greedily packs sentence-bounded spans of the whole
// document. Per the propagation policy this level never fails unless the
// input is empty, which the entry point has already rejected earlier.
type sentencesStrategy struct{}

func newSentencesStrategy() Strategy { return sentencesStrategy{} }

func (sentencesStrategy) Name() string { return config.StrategySentences }

func (sentencesStrategy) CanHandle(Analysis, config.ChunkConfig) bool { return true }

func (sentencesStrategy) Quality(Analysis) float64 { return 0.1 }

func (sentencesStrategy) Apply(roots []*section.Section, cfg config.ChunkConfig) ([]Chunk, error) {
	source := flattenToSource(roots)
	return applySentences(source, cfg), nil
}

// applySentences is also used directly by the dispatcher, which has the
// normalized source on hand and would otherwise have to re-derive it from
// sections.
func applySentences(source string, cfg config.ChunkConfig) []Chunk {
	sentences := textutil.SplitSentences(source)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []Chunk
	var buf []string
	bufLen := 0
	line := 1

	flush := func() {
		if len(buf) == 0 {
			return
		}
		content := joinSpaced(buf)
		lineCount := countNewlines(content)
		chunks = append(chunks, Chunk{
			Content:   content,
			StartLine: line,
			EndLine:   line + lineCount,
			Metadata: Metadata{
				Strategy:    config.StrategySentences,
				ContentType: "text",
			},
		})
		line += lineCount
		buf = nil
		bufLen = 0
	}

	for _, s := range sentences {
		n := utf8.RuneCountInString(s)
		if bufLen > 0 && bufLen+1+n > cfg.MaxChunkSize {
			flush()
		}
		buf = append(buf, s)
		bufLen += n + 1
	}
	flush()
	return chunks
}

func joinSpaced(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " " + p
	}
	return out
}

func countNewlines(s string) int {
	n := 0
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}

func flattenToSource(roots []*section.Section) string {
	var out string
	section.Walk(roots, func(s *section.Section) {
		if s.Header != nil {
			out += s.Header.Content + "\n\n"
		}
		for _, b := range s.Blocks {
			out += b.Content + "\n\n"
		}
	})
	return out
}
