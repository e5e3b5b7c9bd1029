// Package postprocess implements the two chunk-level passes that run after
// the structural chunker and before overlap computation: the header-path
// validator and the size normalizer.
package postprocess

import (
	"strings"

	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/chunkerrors"
	"github.com/hsn0918/mdsplit/internal/section"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// ValidateHeaderPaths strips empty path elements, asserts every remaining
// element is non-empty and non-whitespace, and fills in each chunk's
// section_id. The preamble's path is left exactly as
// ["__preamble__"] with no generated id, per the convention that
// section.PreamblePath marks content with no header lineage at all.
func ValidateHeaderPaths(chunks []chunker.Chunk) error {
	for i := range chunks {
		c := &chunks[i]

		if len(c.Metadata.SectionPath) == 1 && c.Metadata.SectionPath[0] == section.PreamblePath {
			c.Metadata.SectionID = ""
			continue
		}

		cleaned := make([]string, 0, len(c.Metadata.SectionPath))
		for _, p := range c.Metadata.SectionPath {
			if p == "" {
				continue
			}
			if strings.TrimSpace(p) == "" {
				return chunkerrors.NewInvalidMetadata("section_path")
			}
			cleaned = append(cleaned, p)
		}
		c.Metadata.SectionPath = cleaned
		c.Metadata.SectionID = textutil.Kebab(strings.Join(cleaned, "-"))
	}
	return nil
}
