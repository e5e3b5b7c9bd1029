// Package config defines ChunkConfig, the read-only value object threaded
// through every pipeline stage, and the decode path from the entry point's
// parameter map into that struct.
//
// ChunkConfig is never loaded from a file or environment variable — the
// core has no persistent state and no env surface — so this package carries
// only the decode (mapstructure) layer the teacher's viper-based config
// sits on top of, not viper itself.
package config

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Strategy names recognized by strategy_override.
const (
	StrategyAuto       = "auto"
	StrategyStructural = "structural"
	StrategyCode       = "code"
	StrategySentences  = "sentences"
	StrategyList       = "list"
	StrategyTable      = "table"
	StrategyMixed      = "mixed"
)

// Overlap rendering modes, per the rendering layer's two modes.
const (
	OverlapModeMetadata = "metadata"
	OverlapModeLegacy   = "legacy"
)

// Default field values, used by Default and filled in by Validate as
// described on ChunkConfig.
const (
	DefaultMaxChunkSize       = 4096
	DefaultMinChunkSize       = 512
	DefaultOverlapSize        = 200
	DefaultPreambleMinSize    = 50
	DefaultCodeRatioThreshold = 0.3
	DefaultListRatioThreshold = 0.3
	DefaultTableRatioThreshold = 0.2
	DefaultOverlapPercentage  = 0.5
)

// ErrInvalidConfig is returned by Validate for a configuration that cannot
// be made sound even after defaulting.
var ErrInvalidConfig = errors.New("invalid chunk configuration")

// ChunkConfig is the immutable configuration threaded through the pipeline.
// Validate fills a zero max_chunk_size, min_chunk_size, ratio threshold,
// overlap_mode or strategy_override with its default; overlap_size and
// preamble_min_size are reset only when negative, and boolean fields are
// left as given.
type ChunkConfig struct {
	MaxChunkSize int `mapstructure:"max_chunk_size"`
	MinChunkSize int `mapstructure:"min_chunk_size"`
	OverlapSize  int `mapstructure:"overlap_size"`

	EnableOverlap bool   `mapstructure:"enable_overlap"`
	OverlapMode   string `mapstructure:"overlap_mode"`

	ExtractPreamble  bool `mapstructure:"extract_preamble"`
	PreambleMinSize  int  `mapstructure:"preamble_min_size"`
	DetectURLPools   bool `mapstructure:"detect_url_pools"`

	StrategyOverride string `mapstructure:"strategy_override"`

	ValidateInvariants bool `mapstructure:"validate_invariants"`
	StrictMode         bool `mapstructure:"strict_mode"`

	CodeRatioThreshold   float64 `mapstructure:"code_ratio_threshold"`
	ListRatioThreshold   float64 `mapstructure:"list_ratio_threshold"`
	TableRatioThreshold  float64 `mapstructure:"table_ratio_threshold"`
	OverlapPercentage    float64 `mapstructure:"overlap_percentage"`
}

// Default returns a ChunkConfig with every field at its documented default.
func Default() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize:        DefaultMaxChunkSize,
		MinChunkSize:        DefaultMinChunkSize,
		OverlapSize:         DefaultOverlapSize,
		EnableOverlap:       true,
		OverlapMode:         OverlapModeMetadata,
		ExtractPreamble:     true,
		PreambleMinSize:     DefaultPreambleMinSize,
		DetectURLPools:      false,
		StrategyOverride:    StrategyAuto,
		ValidateInvariants:  true,
		StrictMode:          false,
		CodeRatioThreshold:  DefaultCodeRatioThreshold,
		ListRatioThreshold:  DefaultListRatioThreshold,
		TableRatioThreshold: DefaultTableRatioThreshold,
		OverlapPercentage:   DefaultOverlapPercentage,
	}
}

// DecodeParams decodes the entry point's tool_parameters map into a
// ChunkConfig layered on top of Default(), using mapstructure the same way
// the teacher's viper-backed config decodes YAML into typed structs.
//
// Decoding into a struct already populated by Default() (rather than a
// zero-valued one) is what distinguishes "caller omitted the field" from
// "caller explicitly set it to false": an absent map key leaves the
// Default() value in place, while a present key of false overwrites it.
func DecodeParams(params map[string]any) (ChunkConfig, error) {
	cfg := Default()
	if params == nil {
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return ChunkConfig{}, fmt.Errorf("%w: build decoder: %v", ErrInvalidConfig, err)
	}
	if err := decoder.Decode(params); err != nil {
		return ChunkConfig{}, fmt.Errorf("%w: decode params: %v", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return ChunkConfig{}, err
	}
	return cfg, nil
}

// Validate fills zero-valued fields with defaults, applies the min/max
// clamping rules, and rejects configurations that remain unsound.
//
// The min_chunk_size clamp replicates an undocumented behavior of the
// original implementation rather than inferring intent (see the Open
// Questions this spec preserves): whenever the resolved max_chunk_size
// falls below the *default* min_chunk_size, min_chunk_size is forced to
// max_chunk_size/2, overriding whatever the caller supplied for it.
func (c *ChunkConfig) Validate() error {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.OverlapSize < 0 {
		c.OverlapSize = DefaultOverlapSize
	}
	if c.PreambleMinSize < 0 {
		c.PreambleMinSize = DefaultPreambleMinSize
	}
	if c.CodeRatioThreshold <= 0 {
		c.CodeRatioThreshold = DefaultCodeRatioThreshold
	}
	if c.ListRatioThreshold <= 0 {
		c.ListRatioThreshold = DefaultListRatioThreshold
	}
	if c.TableRatioThreshold <= 0 {
		c.TableRatioThreshold = DefaultTableRatioThreshold
	}
	if c.OverlapPercentage <= 0 {
		c.OverlapPercentage = DefaultOverlapPercentage
	}
	if c.OverlapMode == "" {
		c.OverlapMode = OverlapModeMetadata
	}
	if c.StrategyOverride == "" {
		c.StrategyOverride = StrategyAuto
	}

	if c.MaxChunkSize < DefaultMinChunkSize {
		c.MinChunkSize = c.MaxChunkSize / 2
	} else if c.MinChunkSize <= 0 {
		c.MinChunkSize = DefaultMinChunkSize
	}

	if c.MinChunkSize >= c.MaxChunkSize {
		c.MinChunkSize = c.MaxChunkSize / 2
	}
	if c.MinChunkSize <= 0 {
		c.MinChunkSize = 1
	}

	if c.OverlapSize >= c.MaxChunkSize {
		return fmt.Errorf("%w: overlap_size must be less than max_chunk_size", ErrInvalidConfig)
	}
	if c.OverlapPercentage <= 0 || c.OverlapPercentage > 1 {
		return fmt.Errorf("%w: overlap_percentage must be in (0, 1]", ErrInvalidConfig)
	}
	if c.OverlapMode != OverlapModeMetadata && c.OverlapMode != OverlapModeLegacy {
		return fmt.Errorf("%w: overlap_mode must be %q or %q", ErrInvalidConfig, OverlapModeMetadata, OverlapModeLegacy)
	}

	return nil
}
