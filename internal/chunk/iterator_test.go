package chunk

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/scrapbird/chunkcore/internal/arrowcache"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

func buildInt64Batch(t *testing.T, values []int64) arrow.Record {
	t.Helper()
	pool := memory.NewGoAllocator()
	b := array.NewInt64Builder(pool)
	defer b.Release()
	b.AppendValues(values, nil)
	col := b.NewArray()
	defer col.Release()
	schema := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: arrow.PrimitiveTypes.Int64}}, nil)
	return array.NewRecord(schema, []arrow.Array{col}, int64(len(values)))
}

func TestIteratorNextAdvancesAcrossBatches(t *testing.T) {
	batch0 := buildInt64Batch(t, []int64{1, 2})
	batch1 := buildInt64Batch(t, []int64{3})
	schema := []types.LogicalType{types.Fixed(0, 19)}
	src := NewArrowSource([]arrow.Record{batch0, batch1}, schema)
	it := New(src, Config{Loc: time.UTC})

	var got []int64
	for it.Next() {
		v, err := it.ExtractCell(0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got = append(got, v.(int64))
	}
	want := []int64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

// Quantified invariant (§8), same-batch half: repeated cache accesses for
// a column within one batch, including across rows, are pointer-equal to
// the first. The batch-change half is not exercised here.
func TestIteratorCachePointerEquality(t *testing.T) {
	batch0 := buildInt64Batch(t, []int64{10, 20})
	schema := []types.LogicalType{types.Fixed(0, 19)}
	src := NewArrowSource([]arrow.Record{batch0}, schema)
	it := New(src, Config{Loc: time.UTC})
	it.Next()

	rec := src.Batches[it.BatchIndex()]
	if it.cache == nil {
		it.cache = arrowcache.New(len(schema))
	}
	slot1, err := it.cache.Get(rec, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	slot2, err := it.cache.Get(rec, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if slot1.Array != slot2.Array {
		t.Fatalf("expected pointer-equal cached array within the same batch")
	}

	it.Next() // advance to row 1, still batch 0: cache should not be dropped
	slot3, _ := it.cache.Get(rec, 0)
	if slot3.Array != slot1.Array {
		t.Fatalf("expected cache to persist across rows within the same batch")
	}
}

func TestIteratorRewindOneStep(t *testing.T) {
	batch0 := buildInt64Batch(t, []int64{1, 2})
	schema := []types.LogicalType{types.Fixed(0, 19)}
	src := NewArrowSource([]arrow.Record{batch0}, schema)
	it := New(src, Config{Loc: time.UTC})

	it.Next() // row 0
	it.Next() // row 1
	if !it.Rewind() {
		t.Fatalf("expected rewind to succeed")
	}
	if it.RowIndex() != 0 {
		t.Fatalf("expected row index 0 after rewind, got %d", it.RowIndex())
	}
	if !it.Rewind() {
		t.Fatalf("expected rewind to move back into the pre-first position")
	}
	if it.Rewind() {
		t.Fatalf("expected rewind to fail once already at the pre-first position")
	}
}

func TestIteratorJSONSource(t *testing.T) {
	rows, err := jsontok.ParseRowArray([]byte(`[["hello",true],["world",false]]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	schema := []types.LogicalType{types.Simple(types.KindText), types.Simple(types.KindBoolean)}
	src := NewJSONSource([][]jsontok.JsonValue{rows}, schema)
	it := New(src, Config{Loc: time.UTC})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.(string) != "hello" {
		t.Fatalf("got %v", v)
	}
	b, err := it.ExtractCell(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.(bool) != true {
		t.Fatalf("got %v", b)
	}
}

func TestIteratorEmptySourceNextFalse(t *testing.T) {
	schema := []types.LogicalType{types.Simple(types.KindText)}
	src := NewJSONSource(nil, schema)
	it := New(src, Config{Loc: time.UTC})
	if it.Next() {
		t.Fatalf("expected Next to return false on an empty source")
	}
}
