package chunk

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/scrapbird/chunkcore/internal/types"
)

func TestContainerFromArrowStructuredArray(t *testing.T) {
	pool := memory.NewGoAllocator()
	lb := array.NewListBuilder(pool, arrow.PrimitiveTypes.Int64)
	defer lb.Release()
	vb := lb.ValueBuilder().(*array.Int64Builder)
	lb.Append(true)
	vb.AppendValues([]int64{1, 2, 3}, nil)
	lb.Append(true)
	vb.AppendValues([]int64{4, 5}, nil)
	listArr := lb.NewArray().(*array.List)
	defer listArr.Release()

	schemaArrow := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: listArr.DataType()}}, nil)
	rec := array.NewRecord(schemaArrow, []arrow.Array{listArr}, 2)
	defer rec.Release()

	schema := []types.LogicalType{types.StructuredArray(types.Fixed(0, 19))}
	src := NewArrowSource([]arrow.Record{rec}, schema)
	it := New(src, Config{Loc: time.UTC, StructuredTypesEnabled: true})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := v.([]any)
	if !ok || len(seq) != 3 || seq[0].(int64) != 1 || seq[2].(int64) != 3 {
		t.Fatalf("got %#v", v)
	}

	if !it.Next() {
		t.Fatalf("expected a second row")
	}
	v2, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq2 := v2.([]any)
	if len(seq2) != 2 || seq2[0].(int64) != 4 || seq2[1].(int64) != 5 {
		t.Fatalf("got %#v", v2)
	}
}

func TestContainerFromArrowStructuredMapIntegerKeys(t *testing.T) {
	pool := memory.NewGoAllocator()
	mb := array.NewMapBuilder(pool, arrow.PrimitiveTypes.Int64, arrow.BinaryTypes.String, false)
	defer mb.Release()
	kb := mb.KeyBuilder().(*array.Int64Builder)
	ib := mb.ItemBuilder().(*array.StringBuilder)
	mb.Append(true)
	kb.Append(1)
	ib.Append("one")
	kb.Append(2)
	ib.Append("two")
	mapArr := mb.NewArray().(*array.Map)
	defer mapArr.Release()

	schemaArrow := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: mapArr.DataType()}}, nil)
	rec := array.NewRecord(schemaArrow, []arrow.Array{mapArr}, 1)
	defer rec.Release()

	schema := []types.LogicalType{types.StructuredMap(types.Fixed(0, 19), types.Simple(types.KindText))}
	src := NewArrowSource([]arrow.Record{rec}, schema)
	it := New(src, Config{Loc: time.UTC, StructuredTypesEnabled: true})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pairs, ok := v.([]OrderedPair)
	if !ok || len(pairs) != 2 {
		t.Fatalf("got %#v", v)
	}
	if pairs[0].Key != "1" || pairs[0].Value.(string) != "one" {
		t.Fatalf("integer map key not formatted: got %#v", pairs[0])
	}
	if pairs[1].Key != "2" || pairs[1].Value.(string) != "two" {
		t.Fatalf("integer map key not formatted: got %#v", pairs[1])
	}
}

func TestContainerFromArrowStructuredObject(t *testing.T) {
	pool := memory.NewGoAllocator()
	fields := []arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
	}
	sb := array.NewStructBuilder(pool, arrow.StructOf(fields...))
	defer sb.Release()
	idb := sb.FieldBuilder(0).(*array.Int64Builder)
	nameb := sb.FieldBuilder(1).(*array.StringBuilder)
	sb.Append(true)
	idb.Append(7)
	nameb.Append("Ada")
	structArr := sb.NewArray().(*array.Struct)
	defer structArr.Release()

	schemaArrow := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: structArr.DataType()}}, nil)
	rec := array.NewRecord(schemaArrow, []arrow.Array{structArr}, 1)
	defer rec.Release()

	schema := []types.LogicalType{types.StructuredObject(
		types.Field{Name: "id", Type: types.Fixed(0, 19)},
		types.Field{Name: "name", Type: types.Simple(types.KindText)},
	)}
	src := NewArrowSource([]arrow.Record{rec}, schema)
	it := New(src, Config{Loc: time.UTC, StructuredTypesEnabled: true})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pairs, ok := v.([]OrderedPair)
	if !ok || len(pairs) != 2 {
		t.Fatalf("got %#v", v)
	}
	if pairs[0].Key != "id" || pairs[0].Value.(int64) != 7 {
		t.Fatalf("got %#v", pairs[0])
	}
	if pairs[1].Key != "name" || pairs[1].Value.(string) != "Ada" {
		t.Fatalf("got %#v", pairs[1])
	}
}

func TestContainerFromArrowStructuredObjectDecodesAsTextWhenDisabled(t *testing.T) {
	pool := memory.NewGoAllocator()
	fields := []arrow.Field{{Name: "id", Type: arrow.PrimitiveTypes.Int64}}
	sb := array.NewStructBuilder(pool, arrow.StructOf(fields...))
	defer sb.Release()
	idb := sb.FieldBuilder(0).(*array.Int64Builder)
	sb.Append(true)
	idb.Append(7)
	structArr := sb.NewArray().(*array.Struct)
	defer structArr.Release()

	schemaArrow := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: structArr.DataType()}}, nil)
	rec := array.NewRecord(schemaArrow, []arrow.Array{structArr}, 1)
	defer rec.Release()

	schema := []types.LogicalType{types.StructuredObject(types.Field{Name: "id", Type: types.Fixed(0, 19)})}
	src := NewArrowSource([]arrow.Record{rec}, schema)
	it := New(src, Config{Loc: time.UTC, StructuredTypesEnabled: false})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text, ok := v.(string)
	if !ok {
		t.Fatalf("expected Text representation when structured types disabled, got %T", v)
	}
	if text != `{"id":7}` {
		t.Fatalf("got %q", text)
	}
}

// timestampTzFromArrow must thread the column's declared scale through the
// 2-field struct encoding rather than assuming scale=9.
func TestTimestampTzFromArrowThreadsDeclaredScale(t *testing.T) {
	pool := memory.NewGoAllocator()
	fields := []arrow.Field{
		{Name: "value", Type: arrow.PrimitiveTypes.Int64},
		{Name: "stored_offset", Type: arrow.PrimitiveTypes.Int32},
	}
	sb := array.NewStructBuilder(pool, arrow.StructOf(fields...))
	defer sb.Release()
	valb := sb.FieldBuilder(0).(*array.Int64Builder)
	offb := sb.FieldBuilder(1).(*array.Int32Builder)
	sb.Append(true)
	// scale=6 (microseconds): 1_720_705_205_000_000 us == epoch 1_720_705_205s,
	// i.e. 2024-07-11T13:40:05Z.
	valb.Append(1_720_705_205_000_000)
	offb.Append(1740) // offset_minutes = 300 = +05:00
	structArr := sb.NewArray().(*array.Struct)
	defer structArr.Release()

	schemaArrow := arrow.NewSchema([]arrow.Field{{Name: "c0", Type: structArr.DataType()}}, nil)
	rec := array.NewRecord(schemaArrow, []arrow.Array{structArr}, 1)
	defer rec.Release()

	schema := []types.LogicalType{types.Temporal(types.KindTimestampTz, 6)}
	src := NewArrowSource([]arrow.Record{rec}, schema)
	it := New(src, Config{Loc: time.UTC, StructuredTypesEnabled: true})

	if !it.Next() {
		t.Fatalf("expected a first row")
	}
	v, err := it.ExtractCell(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := v.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", v)
	}
	wantLoc := time.FixedZone("", 5*3600)
	want := time.Date(2024, 7, 11, 18, 40, 5, 0, wantLoc)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	_, offset := got.Zone()
	if offset != 5*3600 {
		t.Fatalf("got offset %d, want %d", offset, 5*3600)
	}
}
