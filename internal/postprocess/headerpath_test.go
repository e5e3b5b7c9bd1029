package postprocess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/mdsplit/internal/chunker"
	"github.com/hsn0918/mdsplit/internal/section"
)

func TestValidateHeaderPaths_GeneratesKebabSectionID(t *testing.T) {
	chunks := []chunker.Chunk{
		{Metadata: chunker.Metadata{SectionPath: []string{"Getting Started", "Install & Setup"}}},
	}
	require.NoError(t, ValidateHeaderPaths(chunks))
	assert.Equal(t, "getting-started-install-setup", chunks[0].Metadata.SectionID)
}

func TestValidateHeaderPaths_DropsEmptyElements(t *testing.T) {
	chunks := []chunker.Chunk{
		{Metadata: chunker.Metadata{SectionPath: []string{"", "Intro", ""}}},
	}
	require.NoError(t, ValidateHeaderPaths(chunks))
	assert.Equal(t, []string{"Intro"}, chunks[0].Metadata.SectionPath)
}

func TestValidateHeaderPaths_PreambleElidesSectionID(t *testing.T) {
	chunks := []chunker.Chunk{
		{Metadata: chunker.Metadata{SectionPath: []string{section.PreamblePath}}},
	}
	require.NoError(t, ValidateHeaderPaths(chunks))
	assert.Empty(t, chunks[0].Metadata.SectionID)
	assert.Equal(t, []string{section.PreamblePath}, chunks[0].Metadata.SectionPath)
}

func TestValidateHeaderPaths_RejectsWhitespaceOnlyElement(t *testing.T) {
	chunks := []chunker.Chunk{
		{Metadata: chunker.Metadata{SectionPath: []string{"   "}}},
	}
	err := ValidateHeaderPaths(chunks)
	assert.Error(t, err)
}
