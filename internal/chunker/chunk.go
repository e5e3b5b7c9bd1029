// Package chunker implements the structural chunker: the primary
// section-aware greedy packer, its fallback chain, and the strategy
// registry the auto path ranks by quality.
package chunker

import "github.com/hsn0918/mdsplit/internal/block"

// Oversize reasons, kept as named constants per the distinction the design
// preserves between why a chunk was allowed to exceed max_chunk_size.
const (
	OversizeCodeBlockIntegrity = "code_block_integrity"
	OversizeTableIntegrity     = "table_integrity"
	OversizeSectionIntegrity   = "section_integrity"
	OversizeAtomicBlock        = "atomic_block"
)

// Metadata is the per-chunk metadata map, modeled as a struct rather than a
// map[string]any. The rendering layer copies these fields into its own JSON
// payload type instead of marshaling Metadata itself.
type Metadata struct {
	Strategy    string   `json:"strategy"`
	ContentType string   `json:"content_type"`
	SectionPath []string `json:"section_path"`
	SectionID   string   `json:"section_id,omitempty"`
	HeaderLevel int      `json:"header_level,omitempty"`
	HeaderText  string   `json:"header_text,omitempty"`
	BlockIDs    []string `json:"block_ids"`

	HasCode  bool `json:"has_code,omitempty"`
	HasTable bool `json:"has_table,omitempty"`
	HasList  bool `json:"has_list,omitempty"`
	HasLinks bool `json:"has_links,omitempty"`

	AllowOversize  bool   `json:"allow_oversize,omitempty"`
	OversizeReason string `json:"oversize_reason,omitempty"`

	PreviousContent string `json:"previous_content,omitempty"`
	NextContent     string `json:"next_content,omitempty"`

	IsRoot    bool `json:"is_root,omitempty"`
	IsLeaf    bool `json:"is_leaf,omitempty"`
	Indexable bool `json:"indexable,omitempty"`
}

// Chunk is the pipeline's output unit before rendering. Content is the
// chunk's own body only; overlap context lives in Metadata and is attached
// by the overlap manager after all chunks exist.
type Chunk struct {
	Content string

	StartLine int
	EndLine   int

	StartOffset int
	EndOffset   int

	Metadata Metadata

	// Blocks are the block-granular constituents rendered into Content, in
	// order (header first when present). The overlap manager walks these
	// directly rather than re-parsing Content, so it can skip non-overlap
	// kinds exactly as the extractor tagged them instead of guessing from
	// rendered text.
	Blocks []block.Block
}

// Size is the chunk body's rune count, the unit every size-budget
// comparison in this package uses.
func (c Chunk) Size() int {
	n := 0
	for range c.Content {
		n++
	}
	return n
}
