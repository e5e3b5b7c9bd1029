// Package render implements the dual-mode overlap renderer: the pipeline's
// last stage before chunks become the caller-facing output strings.
//
// Chunking happens exactly once upstream of this package; render is called
// twice only in the sense that a caller may ask for either mode, never both,
// against the same chunk set — boundaries (start_line, end_line, chunk
// count) never move based on which mode is requested.
package render

import (
	"strings"

	"github.com/bytedance/sonic"

	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/config"
	"github.com/hsn0918/mdsplit/internal/textutil"
)

// payload is the JSON shape emitted inside <metadata>...</metadata> in
// metadata mode. Fields use omitempty throughout so a false boolean flag or
// an empty string is dropped from the encoded object, satisfying the "remove
// boolean flags that are false" filtering rule without a second pass.
type payload struct {
	Strategy    string   `json:"strategy,omitempty"`
	ContentType string   `json:"content_type,omitempty"`
	SectionPath []string `json:"section_path,omitempty"`
	SectionID   string   `json:"section_id,omitempty"`
	HeaderLevel int      `json:"header_level,omitempty"`
	HeaderText  string   `json:"header_text,omitempty"`
	BlockIDs    []string `json:"block_ids,omitempty"`

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

	// start_line/end_line are always emitted regardless of debug mode, so
	// they carry no omitempty even though a zero line number never occurs
	// in practice (lines are 1-based).
	StartLine int `json:"start_line"`
	EndLine   int `json:"end_line"`
}

// Render produces the ordered output strings for chunks according to
// cfg.OverlapMode. It never mutates chunks; overlap.Compute must already
// have populated Metadata.PreviousContent/NextContent beforehand.
func Render(chunks []chunker.Chunk, cfg config.ChunkConfig) ([]string, error) {
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		s, err := renderOne(c, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func renderOne(c chunker.Chunk, cfg config.ChunkConfig) (string, error) {
	if cfg.OverlapMode == config.OverlapModeLegacy {
		return renderLegacy(c), nil
	}
	return renderMetadata(c)
}

func renderLegacy(c chunker.Chunk) string {
	return joinNonEmpty(
		textutil.SanitizeUTF8(c.Metadata.PreviousContent),
		textutil.SanitizeUTF8(c.Content),
		textutil.SanitizeUTF8(c.Metadata.NextContent),
	)
}

func renderMetadata(c chunker.Chunk) (string, error) {
	// The source was validated as UTF-8 at extraction time, but overlap
	// context is reassembled from block-level substrings joined back
	// together — sanitize defensively so sonic.Marshal never chokes on a
	// malformed sequence that slipped through.
	p := payload{
		Strategy:        c.Metadata.Strategy,
		ContentType:     c.Metadata.ContentType,
		SectionPath:     c.Metadata.SectionPath,
		SectionID:       c.Metadata.SectionID,
		HeaderLevel:     c.Metadata.HeaderLevel,
		HeaderText:      c.Metadata.HeaderText,
		BlockIDs:        c.Metadata.BlockIDs,
		HasCode:         c.Metadata.HasCode,
		HasTable:        c.Metadata.HasTable,
		HasList:         c.Metadata.HasList,
		HasLinks:        c.Metadata.HasLinks,
		AllowOversize:   c.Metadata.AllowOversize,
		OversizeReason:  c.Metadata.OversizeReason,
		PreviousContent: textutil.SanitizeUTF8(c.Metadata.PreviousContent),
		NextContent:     textutil.SanitizeUTF8(c.Metadata.NextContent),
		IsRoot:          c.Metadata.IsRoot,
		IsLeaf:          c.Metadata.IsLeaf,
		Indexable:       c.Metadata.Indexable,
		StartLine:       c.StartLine,
		EndLine:         c.EndLine,
	}

	encoded, err := sonic.Marshal(p)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("<metadata>\n")
	b.Write(encoded)
	b.WriteString("\n</metadata>\n")
	b.WriteString(textutil.SanitizeUTF8(c.Content))
	return b.String(), nil
}

// joinNonEmpty joins the non-empty parts with "\n\n", matching the
// equivalence law's join_nonempty helper exactly so legacy mode and the
// metadata-mode context fields are provably interchangeable.
func joinNonEmpty(parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n\n")
}
