package chunker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsn0918/mdsplit/internal/config"
)

func TestDispatch_UnknownExplicitOverrideIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.StrategyOverride = "does_not_exist"
	source := "# T\n\nbody\n"
	blocks, roots := mustExtractAndBuild(t, source, cfg)

	_, _, err := Dispatch(source, roots, blocks, cfg, NewRegistry())
	assert.Error(t, err)
}

func TestDispatch_AutoNeverFails(t *testing.T) {
	cfg := config.Default()
	source := "# T\n\nbody text\n"
	blocks, roots := mustExtractAndBuild(t, source, cfg)

	chunks, _, err := Dispatch(source, roots, blocks, cfg, NewRegistry())
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestDispatch_EmergencyFallbackWrapsWholeInputWhenStructureIsEmpty(t *testing.T) {
	lines := emergencyChunk("x")
	assert.True(t, lines.Metadata.AllowOversize)
	assert.Equal(t, OversizeAtomicBlock, lines.Metadata.OversizeReason)
	assert.Equal(t, "x", lines.Content)
}
