package chunk

import (
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/scrapbird/chunkcore/internal/arrowcache"
	"github.com/scrapbird/chunkcore/internal/corelog"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// Config bundles the per-chunk settings the Chunk Iterator needs beyond its
// Source, so New's signature doesn't grow a parameter per setting.
type Config struct {
	// Loc renders TimestampLtz values. Defaults to time.UTC.
	Loc *time.Location
	// StructuredTypesEnabled controls whether StructuredObject/Array/Map
	// columns decode as their native container representation (true) or as
	// JSON-like Text (false), per §4.F.
	StructuredTypesEnabled bool
	// DecimalWideningPolicy governs Fixed{scale=0} values that overflow
	// int64, per §4.B.
	DecimalWideningPolicy types.WideningPolicy
	// Logger receives diagnostic output; defaults to corelog.Noop.
	Logger corelog.Logger
}

// Iterator owns one ResultChunk's batches and walks them with a
// (batch_index, row_index) cursor, per §4.C. Reads are row-major and
// forward-biased; concurrent reads on a single Iterator are not supported.
type Iterator struct {
	source     Source
	cfg        Config
	batchIndex int
	rowIndex   int

	cache *arrowcache.Cache // nil until the Arrow path needs one; reset in place on batch change
}

// New builds an Iterator over source. Initial position is batch_index=0,
// row_index=-1 per §4.C.
func New(source Source, cfg Config) *Iterator {
	if cfg.Loc == nil {
		cfg.Loc = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = corelog.Noop{}
	}
	return &Iterator{source: source, cfg: cfg, batchIndex: 0, rowIndex: -1}
}

// Next advances row_index; if past the end of the current batch, advances
// batch_index, resets row_index to 0, and drops the column cache. Returns
// false exactly when both cursors are exhausted.
//
// Grounded on snowflakeChunkDownloader.next()'s CurrentIndex/
// CurrentChunkIndex advance loop.
func (it *Iterator) Next() bool {
	if it.source.BatchCount() == 0 {
		return false
	}
	for {
		if it.batchIndex >= it.source.BatchCount() {
			return false
		}
		it.rowIndex++
		if it.rowIndex < it.source.RowCount(it.batchIndex) {
			return true
		}
		it.batchIndex++
		it.rowIndex = -1
		it.invalidateCache()
		if it.batchIndex >= it.source.BatchCount() {
			return false
		}
	}
}

// Rewind moves one step back. If already at the pre-first position,
// returns false. Backing into a previous batch sets row_index to that
// batch's last row and drops the cache. This is a one-step operation only
// (per §3's lifecycle note and the source driver's reset()'s documented
// "no way to go backward without reinitialize it" — rewind is for test
// harnesses, not general backward iteration).
func (it *Iterator) Rewind() bool {
	if it.batchIndex == 0 && it.rowIndex <= -1 {
		return false
	}
	it.rowIndex--
	if it.rowIndex < 0 {
		if it.batchIndex == 0 {
			// moved back into the pre-first position
			return true
		}
		it.batchIndex--
		it.invalidateCache()
		it.rowIndex = it.source.RowCount(it.batchIndex) - 1
	}
	return true
}

func (it *Iterator) invalidateCache() {
	it.cfg.Logger.Debugf("chunk: invalidating arrow column cache, now at batch_index=%d", it.batchIndex)
	if it.cache != nil {
		it.cache.Invalidate()
	}
}

// Schema returns the chunk's per-column logical types.
func (it *Iterator) Schema() []types.LogicalType { return it.source.Schema() }

// BatchIndex and RowIndex expose the current cursor position, used when
// building CellError coordinates.
func (it *Iterator) BatchIndex() int { return it.batchIndex }
func (it *Iterator) RowIndex() int   { return it.rowIndex }

// ErrExhausted is a sentinel wrapping io.EOF semantics for ExtractCell
// called after Next has returned false.
var ErrExhausted = io.EOF

// ExtractCell extracts column col of the current row. On the Arrow path it
// uses the cached column array if present, otherwise materializes it and
// caches; on the JSON path it indexes the already-tokenized row. Scalar leaves route through internal/convert; structured columns
// produce a generic container (ordered slice for arrays, ordered pairs for
// objects/maps) — callers wanting a typed target use internal/structured
// and internal/bind on top of this.
func (it *Iterator) ExtractCell(col int) (any, error) {
	if it.batchIndex >= it.source.BatchCount() || it.rowIndex < 0 {
		return nil, errors.Wrap(ErrExhausted, "extract_cell called outside valid row")
	}
	schema := it.source.Schema()
	if col < 0 || col >= len(schema) {
		return nil, errors.Errorf("column index %d out of range [0,%d)", col, len(schema))
	}
	lt := schema[col]

	switch src := it.source.(type) {
	case *ArrowSource:
		return it.extractArrowCell(src, col, lt)
	case *JSONSource:
		return it.extractJSONCell(src, col, lt)
	default:
		return nil, errors.Errorf("unknown chunk source type %T", it.source)
	}
}

func (it *Iterator) extractArrowCell(src *ArrowSource, col int, lt types.LogicalType) (any, error) {
	rec := src.Batches[it.batchIndex]
	if it.cache == nil {
		it.cache = arrowcache.New(len(src.Schema()))
	}
	slot, err := it.cache.Get(rec, col)
	if err != nil {
		return nil, err
	}
	if types.IsContainer(lt) {
		container, err := containerFromArrow(slot, it.rowIndex, lt, it.cfg.Loc, it.cfg.DecimalWideningPolicy)
		if err != nil {
			return nil, err
		}
		if !it.cfg.StructuredTypesEnabled {
			return containerToText(container), nil
		}
		return container, nil
	}
	return scalarFromArrow(slot, it.rowIndex, lt, it.cfg.Loc, it.cfg.DecimalWideningPolicy)
}

// RawJSONCell returns column col of the current row as an untokenized
// jsontok.JsonValue, for callers (the public facade's ExtractBound) that
// need to hand it to internal/structured with a caller-supplied bind
// descriptor rather than take the iterator's default container
// representation. Only valid over a JSONSource.
func (it *Iterator) RawJSONCell(col int) (jsontok.JsonValue, error) {
	src, ok := it.source.(*JSONSource)
	if !ok {
		return jsontok.JsonValue{}, errors.Errorf("RawJSONCell requires a JSON-backed chunk, got %T", it.source)
	}
	if it.batchIndex >= src.BatchCount() || it.rowIndex < 0 {
		return jsontok.JsonValue{}, errors.Wrap(ErrExhausted, "raw_json_cell called outside valid row")
	}
	row := src.Batches[it.batchIndex][it.rowIndex]
	if row.Kind != jsontok.KindArray || col >= len(row.Array) {
		return jsontok.JsonValue{}, errors.Errorf("row %d does not have column %d", it.rowIndex, col)
	}
	return row.Array[col], nil
}

func (it *Iterator) extractJSONCell(src *JSONSource, col int, lt types.LogicalType) (any, error) {
	row := src.Batches[it.batchIndex][it.rowIndex]
	if row.Kind != jsontok.KindArray || col >= len(row.Array) {
		return nil, errors.Errorf("row %d does not have column %d", it.rowIndex, col)
	}
	cell := row.Array[col]
	if types.IsContainer(lt) {
		container, err := containerFromJSON(cell, lt, it.cfg.Loc, it.cfg.DecimalWideningPolicy)
		if err != nil {
			return nil, err
		}
		if !it.cfg.StructuredTypesEnabled {
			return containerToText(container), nil
		}
		return container, nil
	}
	return scalarFromJSON(cell, lt, it.cfg.Loc, it.cfg.DecimalWideningPolicy)
}
