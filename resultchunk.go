// Package chunkcore is the public facade over the result-chunk decoding
// core: given a sequence of physical batches (Arrow record batches or raw
// JSON row-array bodies) and a declared schema, it exposes the
// (batch_index, row_index) cursor described by SPEC_FULL.md §4.C and cell
// extraction for both scalar and structured (array/map/object) columns.
package chunkcore

import (
	"context"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pkg/errors"

	"github.com/scrapbird/chunkcore/internal/arrowcache"
	"github.com/scrapbird/chunkcore/internal/bind"
	"github.com/scrapbird/chunkcore/internal/chunk"
	"github.com/scrapbird/chunkcore/internal/convert"
	"github.com/scrapbird/chunkcore/internal/corelog"
	"github.com/scrapbird/chunkcore/internal/ctxopt"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/structured"
	"github.com/scrapbird/chunkcore/internal/types"
)

// Re-export the logical type vocabulary at the facade so callers building a
// schema never need to import internal/types directly.
type (
	LogicalType = types.LogicalType
	TypeKind    = types.Kind
	Field       = types.Field
)

const (
	KindFixed            = types.KindFixed
	KindReal             = types.KindReal
	KindBoolean          = types.KindBoolean
	KindText             = types.KindText
	KindBinary           = types.KindBinary
	KindDate             = types.KindDate
	KindTime             = types.KindTime
	KindTimestampNtz     = types.KindTimestampNtz
	KindTimestampLtz     = types.KindTimestampLtz
	KindTimestampTz      = types.KindTimestampTz
	KindStructuredObject = types.KindStructuredObject
	KindStructuredArray  = types.KindStructuredArray
	KindStructuredMap    = types.KindStructuredMap
)

var (
	Fixed            = types.Fixed
	Simple           = types.Simple
	Temporal         = types.Temporal
	StructuredObject = types.StructuredObject
	StructuredArray  = types.StructuredArray
	StructuredMap    = types.StructuredMap
)

// Descriptor and its strategy constants are re-exported so a caller never
// needs to import internal/bind to bind a StructuredObject column.
type (
	Descriptor           = bind.Descriptor
	FieldDescriptor      = bind.FieldDescriptor
	ConstructorCandidate = bind.ConstructorCandidate
	BindStrategy         = bind.Strategy
)

const (
	PropertiesNames = bind.PropertiesNames
	PropertiesOrder = bind.PropertiesOrder
	Constructor     = bind.Constructor
)

// ResultChunk owns one chunk's physical batches and the cursor/cache state
// needed to decode them, per §3-§4.
type ResultChunk struct {
	opts     Options
	iter     *chunk.Iterator
	reader   *structured.Reader
	isArrow  bool
	arrowSrc *chunk.ArrowSource
}

func chunkConfig(ctx context.Context, opts Options) chunk.Config {
	logger := opts.Logger
	if logger == nil {
		logger = corelog.Noop{}
	}
	return chunk.Config{
		Loc:                    ctxopt.TimeZone(ctx),
		StructuredTypesEnabled: opts.StructuredTypesEnabled,
		DecimalWideningPolicy:  opts.DecimalWideningPolicy,
		Logger:                 logger,
	}
}

// NewArrowResultChunk builds a ResultChunk over a sequence of Arrow record
// batches sharing schema. The session time zone used to render
// TimestampLtz values is read from ctx via ctxopt.WithTimeZone; a ctx with
// no time zone attached renders in time.UTC.
func NewArrowResultChunk(ctx context.Context, batches []arrow.Record, schema []LogicalType, opts Options) *ResultChunk {
	src := chunk.NewArrowSource(batches, schema)
	cfg := chunkConfig(ctx, opts)
	return &ResultChunk{
		opts:     opts,
		iter:     chunk.New(src, cfg),
		reader:   structured.New(cfg.Loc, opts.DecimalWideningPolicy),
		isArrow:  true,
		arrowSrc: src,
	}
}

// NewJSONResultChunk builds a ResultChunk over a sequence of tokenized JSON
// row-array batches (see jsontok.ParseRowArray).
func NewJSONResultChunk(ctx context.Context, batches [][]jsontok.JsonValue, schema []LogicalType, opts Options) *ResultChunk {
	src := chunk.NewJSONSource(batches, schema)
	cfg := chunkConfig(ctx, opts)
	return &ResultChunk{
		opts:   opts,
		iter:   chunk.New(src, cfg),
		reader: structured.New(cfg.Loc, opts.DecimalWideningPolicy),
	}
}

// Next advances the cursor to the next row, returning false once exhausted.
func (rc *ResultChunk) Next() bool { return rc.iter.Next() }

// Rewind moves the cursor back one row (one step only), per §4.C.
func (rc *ResultChunk) Rewind() bool { return rc.iter.Rewind() }

// Schema returns the chunk's declared per-column logical types.
func (rc *ResultChunk) Schema() []LogicalType { return rc.iter.Schema() }

// BatchIndex and RowIndex expose the cursor position, used to build
// CellError coordinates at the call site.
func (rc *ResultChunk) BatchIndex() int { return rc.iter.BatchIndex() }
func (rc *ResultChunk) RowIndex() int   { return rc.iter.RowIndex() }

// ExtractCell returns column col of the current row as its native scalar
// or default (unbound) container representation.
func (rc *ResultChunk) ExtractCell(col int) (any, error) {
	v, err := rc.iter.ExtractCell(col)
	if err != nil {
		return nil, NewCellError(rc.iter.BatchIndex(), rc.iter.RowIndex(), col, kindFromErr(err), err)
	}
	return v, nil
}

// ExtractBound returns column col of the current row as a value bound
// through desc, per §4.F/§4.G. col's declared type must be
// StructuredObject. This is the only extraction path that consults the
// Object Binder; scalar and default-container columns use ExtractCell.
// When desc.Strategy is PropertiesNames, Options.CaseInsensitiveNames
// overrides desc.CaseSensitive for this call.
func (rc *ResultChunk) ExtractBound(col int, desc *Descriptor) (any, error) {
	schema := rc.iter.Schema()
	if col < 0 || col >= len(schema) {
		return nil, NewCellError(rc.iter.BatchIndex(), rc.iter.RowIndex(), col, UnsupportedType, errColumnOutOfRange(col, len(schema)))
	}
	lt := schema[col]
	if lt.Kind != types.KindStructuredObject {
		return nil, NewCellError(rc.iter.BatchIndex(), rc.iter.RowIndex(), col, UnsupportedType, errNotStructuredObject(lt))
	}
	raw, err := rc.iter.RawJSONCell(col)
	if err != nil {
		return nil, NewCellError(rc.iter.BatchIndex(), rc.iter.RowIndex(), col, kindFromErr(err), err)
	}
	effDesc := *desc
	if effDesc.Strategy == bind.PropertiesNames {
		effDesc.CaseSensitive = !rc.opts.CaseInsensitiveNames
	}
	val, err := rc.reader.Materialize(raw, lt, &effDesc)
	if err != nil {
		return nil, NewCellError(rc.iter.BatchIndex(), rc.iter.RowIndex(), col, kindFromErr(err), err)
	}
	return val, nil
}

// Close releases the Arrow record batches backing an Arrow-sourced
// ResultChunk. A no-op for JSON-sourced chunks.
func (rc *ResultChunk) Close() {
	if !rc.isArrow {
		return
	}
	for _, rec := range rc.arrowSrc.Batches {
		rec.Release()
	}
}

// kindFromErr classifies a cell extraction/bind failure into a CellError
// Kind by inspecting the wrapped error, per §7.
func kindFromErr(err error) Kind {
	var convErr *convert.Error
	if errors.As(err, &convErr) {
		switch convErr.Kind {
		case convert.Overflow:
			return Overflow
		case convert.InvalidEncoding:
			return InvalidEncoding
		default:
			return UnsupportedType
		}
	}
	if errors.Is(err, arrowcache.ErrCacheInvariantViolated) {
		return CacheInvariantViolated
	}
	if errors.Is(err, bind.ErrArityMismatch) {
		return ArityMismatch
	}
	if errors.Is(err, bind.ErrNoMatchingConstructor) {
		return NoMatchingConstructor
	}
	if errors.Is(err, chunk.ErrExhausted) {
		return UnsupportedType
	}
	return InvalidEncoding
}

func errColumnOutOfRange(col, n int) error {
	return errors.Errorf("column index %d out of range [0,%d)", col, n)
}

func errNotStructuredObject(lt LogicalType) error {
	return errors.Errorf("column is %s, not StructuredObject", lt.Kind)
}
