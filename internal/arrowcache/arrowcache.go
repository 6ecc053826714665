// Package arrowcache implements the Arrow Column Cache (§4.D): per-batch,
// per-column materialization of the raw Arrow buffer into a densely-typed
// native array. First access materializes a slot; subsequent accesses are
// O(1). The cache is fully invalidated whenever the iterator's batch index
// changes; there is no multi-batch cache.
//
// Grounded on gosnowflake's arrowbatches converter
// (arrowToRecordSingleColumn's type switch over FixedType/TimeType/
// TimestampNtz/Ltz/Tz/TextType/ObjectType/ArrayType/MapType) for which
// Arrow array kinds need which handling, adapted from "eagerly convert the
// whole record" into "lazily materialize one column's slot on first read."
package arrowcache

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pkg/errors"
)

// Slot holds column c's materialized state for the currently-held batch.
// Exactly Array is populated for primitive/string/binary/list/map columns;
// StructFields additionally holds each sub-field's own array for struct
// columns (the two/three-field TimestampTz/Ltz/Ntz encodings and
// StructuredObject columns), per §4.D's "each struct sub-field is cached
// as its own primitive slot."
type Slot struct {
	materialized bool
	Array        arrow.Array
	StructFields []arrow.Array
}

// ErrCacheInvariantViolated indicates a slot was read without having been
// materialized for the current batch — an internal bug, per §7.
var ErrCacheInvariantViolated = errors.New("arrow column cache accessed before materialization")

// Cache is a fixed-size array of tagged column-cache slots, sized
// column_count, scoped to exactly one batch at a time.
type Cache struct {
	slots []Slot
}

// New allocates a cache for a batch with the given column count.
func New(columnCount int) *Cache {
	return &Cache{slots: make([]Slot, columnCount)}
}

// Invalidate drops all materialized slots. Called whenever the iterator's
// batch_index changes (§3 invariant, §4.D).
func (c *Cache) Invalidate() {
	for i := range c.slots {
		c.slots[i] = Slot{}
	}
}

// Get returns column col's slot, materializing it from rec on first access.
// Subsequent calls for the same column within the same batch return the
// same Slot.Array (pointer-equal), satisfying the §8 quantified invariant.
func (c *Cache) Get(rec arrow.Record, col int) (Slot, error) {
	if col < 0 || col >= len(c.slots) {
		return Slot{}, errors.Errorf("column index %d out of range [0,%d)", col, len(c.slots))
	}
	slot := &c.slots[col]
	if slot.materialized {
		return *slot, nil
	}
	arr := rec.Column(col)
	slot.Array = arr
	if structArr, ok := arr.(*array.Struct); ok {
		slot.StructFields = make([]arrow.Array, structArr.NumField())
		for i := 0; i < structArr.NumField(); i++ {
			slot.StructFields[i] = structArr.Field(i)
		}
	}
	slot.materialized = true
	return *slot, nil
}

// MustMaterialized returns slot.Array, failing CacheInvariantViolated if
// the slot was never materialized. Used by callers that already hold a
// Slot value (e.g. returned from Get) and want to assert it is live.
func MustMaterialized(slot Slot) (arrow.Array, error) {
	if !slot.materialized {
		return nil, ErrCacheInvariantViolated
	}
	return slot.Array, nil
}
