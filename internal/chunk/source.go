// Package chunk implements the Chunk Iterator (§4.C): a cursor over a
// heterogeneous sequence of physical batches (Arrow record batches or JSON
// row arrays) that lazily decodes columns on first access and exposes a
// single extract_cell(column) contract regardless of the underlying
// encoding.
//
// Grounded directly on gosnowflake's snowflakeChunkDownloader.next(): the
// CurrentIndex/CurrentChunkIndex dual-cursor advance loop, the
// "drop the previous chunk and invalidate on batch change" behavior, and
// its reset() method's documented one-way-forward bias.
package chunk

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// Source is the tagged-variant dispatch point replacing the source
// driver's closed hierarchy of chunk kinds (§9 design note). The iterator
// holds one Source; Iterator.ExtractCell type-switches on its concrete
// type (*ArrowSource or *JSONSource) on each call.
type Source interface {
	// BatchCount returns the number of physical batches in the chunk.
	BatchCount() int
	// RowCount returns the row count of batch b.
	RowCount(b int) int
	// ColumnCount returns the chunk's column count.
	ColumnCount() int
	// Schema returns the chunk's per-column logical types.
	Schema() []types.LogicalType
}

// ArrowSource is a Source backed by a sequence of Arrow record batches
// sharing one schema.
type ArrowSource struct {
	Batches []arrow.Record
	schema  []types.LogicalType
}

// NewArrowSource builds an ArrowSource over batches, all of which must
// share schema.
func NewArrowSource(batches []arrow.Record, schema []types.LogicalType) *ArrowSource {
	return &ArrowSource{Batches: batches, schema: schema}
}

func (s *ArrowSource) BatchCount() int { return len(s.Batches) }
func (s *ArrowSource) RowCount(b int) int {
	return int(s.Batches[b].NumRows())
}
func (s *ArrowSource) ColumnCount() int            { return len(s.schema) }
func (s *ArrowSource) Schema() []types.LogicalType { return s.schema }

// JSONSource is a Source backed by a sequence of JSON row arrays (one
// physical batch per delivered JSON chunk body is the common case, but
// multiple are supported for uniformity with ArrowSource).
type JSONSource struct {
	Batches [][]jsontok.JsonValue // each batch is a slice of row-arrays
	schema  []types.LogicalType
}

// NewJSONSource builds a JSONSource over row arrays, typically produced by
// jsontok.ParseRowArray on each chunk body.
func NewJSONSource(batches [][]jsontok.JsonValue, schema []types.LogicalType) *JSONSource {
	return &JSONSource{Batches: batches, schema: schema}
}

func (s *JSONSource) BatchCount() int { return len(s.Batches) }
func (s *JSONSource) RowCount(b int) int {
	return len(s.Batches[b])
}
func (s *JSONSource) ColumnCount() int            { return len(s.schema) }
func (s *JSONSource) Schema() []types.LogicalType { return s.schema }
