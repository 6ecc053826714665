package chunkcore

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/scrapbird/chunkcore/internal/corelog"
	"github.com/scrapbird/chunkcore/internal/types"
)

// WideningPolicy controls how a Fixed cell wider than int64 but still
// scale=0 is represented, per §4.B's widen-vs-decimal choice. Defined in
// internal/types so internal/chunk (which cannot import this root package
// without an import cycle) can consult it too; re-exported here so callers
// configuring Options never need to import internal/types directly.
type WideningPolicy = types.WideningPolicy

const (
	WidenToBigDecimal = types.WidenToBigDecimal
	ErrorOnOverflow   = types.ErrorOnOverflow
)

// Options configures a ResultChunk's decoding behavior, the root
// package's analog of a per-session configuration object (§AMBIENT STACK).
// The zero value disables structured types and case-insensitive field
// matching, widens on overflow, and logs nowhere; DefaultOptions returns
// the recommended defaults with both booleans enabled.
type Options struct {
	StructuredTypesEnabled bool
	DecimalWideningPolicy  WideningPolicy
	CaseInsensitiveNames   bool
	// Logger receives diagnostic output from the decoding core (batch
	// cache transitions, etc). Defaults to a no-op logger.
	Logger corelog.Logger
}

// DefaultOptions returns Options with structured types enabled,
// widen-on-overflow, case-insensitive field matching, and no-op logging.
func DefaultOptions() Options {
	return Options{
		StructuredTypesEnabled: true,
		DecimalWideningPolicy:  WidenToBigDecimal,
		CaseInsensitiveNames:   true,
		Logger:                 corelog.Noop{},
	}
}

// yamlOptions mirrors Options for YAML (de)serialization, since
// WideningPolicy is a plain int with no natural string spelling a caller
// would hand-write into a config file.
type yamlOptions struct {
	StructuredTypesEnabled bool   `yaml:"structured_types_enabled"`
	DecimalWideningPolicy  string `yaml:"decimal_widening_policy"`
	CaseInsensitiveNames   bool   `yaml:"case_insensitive_names"`
}

// LoadOptionsYAML reads Options from a YAML document, following the
// teacher's config-file conventions (app/interfaces plugin manifests are
// also YAML-driven). Logger is not configurable via YAML; it defaults to
// corelog.Noop and is set programmatically by the caller after loading.
func LoadOptionsYAML(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "reading options file %q", path)
	}
	var y yamlOptions
	if err := yaml.Unmarshal(data, &y); err != nil {
		return Options{}, errors.Wrapf(err, "parsing options file %q", path)
	}
	opts := DefaultOptions()
	opts.StructuredTypesEnabled = y.StructuredTypesEnabled
	opts.CaseInsensitiveNames = y.CaseInsensitiveNames
	switch y.DecimalWideningPolicy {
	case "", "widen_to_big_decimal":
		opts.DecimalWideningPolicy = WidenToBigDecimal
	case "error_on_overflow":
		opts.DecimalWideningPolicy = ErrorOnOverflow
	default:
		return Options{}, errors.Errorf("unknown decimal_widening_policy %q", y.DecimalWideningPolicy)
	}
	return opts, nil
}
