package chunkcore

import "fmt"

// Kind enumerates the error kinds a cell conversion or bind can fail with.
type Kind int

const (
	// UnsupportedType: no conversion path exists for the (logical, physical) pair.
	UnsupportedType Kind = iota
	// Overflow: the value does not fit the requested native width.
	Overflow
	// InvalidEncoding: malformed UTF-8, malformed JSON, or malformed Arrow struct arity.
	InvalidEncoding
	// ArityMismatch: PROPERTIES_ORDER bind got the wrong number of fields.
	ArityMismatch
	// NoMatchingConstructor: CONSTRUCTOR strategy found 0 or >1 candidates.
	NoMatchingConstructor
	// CacheInvariantViolated: internal bug, column cache accessed after an
	// uncleared batch change.
	CacheInvariantViolated
)

func (k Kind) String() string {
	switch k {
	case UnsupportedType:
		return "UnsupportedType"
	case Overflow:
		return "Overflow"
	case InvalidEncoding:
		return "InvalidEncoding"
	case ArityMismatch:
		return "ArityMismatch"
	case NoMatchingConstructor:
		return "NoMatchingConstructor"
	case CacheInvariantViolated:
		return "CacheInvariantViolated"
	default:
		return "Unknown"
	}
}

// CellError reports a conversion or bind failure scoped to a single cell.
// A failed cell does not abort the result set; downstream rows and columns
// remain independently extractable.
type CellError struct {
	ChunkIndex  int
	RowIndex    int
	ColumnIndex int
	Kind        Kind
	Err         error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("chunk %d row %d col %d: %s: %v", e.ChunkIndex, e.RowIndex, e.ColumnIndex, e.Kind, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *CellError) Unwrap() error {
	return e.Err
}

// NewCellError builds a CellError for the given coordinates.
func NewCellError(chunkIndex, rowIndex, columnIndex int, kind Kind, cause error) *CellError {
	return &CellError{ChunkIndex: chunkIndex, RowIndex: rowIndex, ColumnIndex: columnIndex, Kind: kind, Err: cause}
}
