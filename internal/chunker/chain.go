package chunker

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hsn0918/mdsplit/internal/block"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/logging"
	"github.com/hsn0918/mdsplit/internal/section"
)

// Dispatch runs the primary strategy (auto-selected or overridden) and
// escalates through the fallback chain (levels 0/1/2, then an emergency
// single-chunk wrap) per the propagation policy: the chunker itself never
// surfaces a fatal error to the caller except for an explicit, unknown
// strategy_override name.
func Dispatch(source string, roots []*section.Section, blocks []block.Block, cfg config.ChunkConfig, registry *Registry) ([]Chunk, []string, error) {
	analysis := Analyze(blocks)

	primary, resolveErr := registry.Resolve(cfg.StrategyOverride, analysis, cfg)
	if resolveErr != nil && cfg.StrategyOverride != config.StrategyAuto {
		return nil, nil, resolveErr
	}

	var warnings []string
	var chunks []Chunk

	if primary != nil {
		c, applyErr := primary.Apply(roots, cfg)
		if applyErr == nil && len(c) > 0 {
			chunks = c
		} else {
			warn(&warnings, fmt.Sprintf("strategy %q produced no usable chunks, falling back", primary.Name()))
		}
	} else {
		warn(&warnings, "no strategy could handle this document's structure, falling back to structural")
	}

	if len(chunks) == 0 && (primary == nil || primary.Name() != config.StrategyStructural) {
		if structural, ok := registry.Get(config.StrategyStructural); ok {
			c, applyErr := structural.Apply(roots, cfg)
			if applyErr == nil && len(c) > 0 {
				chunks = c
			} else {
				warn(&warnings, "structural fallback produced no usable chunks")
			}
		}
	}

	if len(chunks) == 0 {
		chunks = applySentences(source, cfg)
		if len(chunks) > 0 {
			warn(&warnings, "fell back to sentence-boundary chunking")
		}
	}

	if len(chunks) == 0 {
		chunks = []Chunk{emergencyChunk(source)}
		warn(&warnings, "emergency fallback: the entire input was wrapped as a single chunk")
	}

	return chunks, warnings, nil
}

// warn appends a warning to the accumulator and emits it through the
// package-scoped logger, so a host that wants these surfaced as log lines
// (instead of, or in addition to, the returned warning strings) gets them.
func warn(warnings *[]string, msg string) {
	*warnings = append(*warnings, msg)
	logging.Get().Warn(msg, zap.String("stage", "chunker_dispatch"))
}

func emergencyChunk(source string) Chunk {
	lines := strings.Count(source, "\n") + 1
	return Chunk{
		Content:   source,
		StartLine: 1,
		EndLine:   lines,
		EndOffset: len(source),
		Metadata: Metadata{
			Strategy:       "emergency",
			ContentType:    "text",
			AllowOversize:  true,
			OversizeReason: OversizeAtomicBlock,
		},
	}
}
