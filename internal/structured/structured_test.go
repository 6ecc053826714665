package structured

import (
	"testing"
	"time"

	"github.com/scrapbird/chunkcore/internal/bind"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// A StructuredArray of Fixed{0} materializes to an ordered
// Sequence in source order.
func TestMaterializeArray(t *testing.T) {
	v, err := jsontok.ParseString(`[1,2,3]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredArray(types.Fixed(0, 19))
	r := New(time.UTC, types.WidenToBigDecimal)
	got, err := r.Materialize(v, target, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq, ok := got.(Sequence)
	if !ok || len(seq) != 3 {
		t.Fatalf("got %#v", got)
	}
	for i, want := range []int64{1, 2, 3} {
		if seq[i].(int64) != want {
			t.Fatalf("element %d: got %v want %v", i, seq[i], want)
		}
	}
}

// A StructuredMap preserves key insertion order.
func TestMaterializeMapPreservesOrder(t *testing.T) {
	v, err := jsontok.ParseString(`{"b":1,"a":2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredMap(types.Simple(types.KindText), types.Fixed(0, 19))
	r := New(time.UTC, types.WidenToBigDecimal)
	got, err := r.Materialize(v, target, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(Mapping)
	if len(m) != 2 || m[0].Key != "b" || m[1].Key != "a" {
		t.Fatalf("got %#v", m)
	}
}

func TestMaterializeObjectNoDescriptorDefaultsToOrderedPairs(t *testing.T) {
	v, err := jsontok.ParseString(`{"id":7,"name":"x"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(
		types.Field{Name: "id", Type: types.Fixed(0, 19)},
		types.Field{Name: "name", Type: types.Simple(types.KindText)},
	)
	r := New(time.UTC, types.WidenToBigDecimal)
	got, err := r.Materialize(v, target, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(Mapping)
	if m[0].Key != "id" || m[0].Value.(int64) != 7 {
		t.Fatalf("got %#v", m)
	}
	if m[1].Key != "name" || m[1].Value.(string) != "x" {
		t.Fatalf("got %#v", m)
	}
}

// A StructuredObject bound via PROPERTIES_NAMES, matched
// case-insensitively, ignoring declaration order.
func TestMaterializeObjectBoundByNames(t *testing.T) {
	v, err := jsontok.ParseString(`{"Name":"Ada","ID":9}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(
		types.Field{Name: "id", Type: types.Fixed(0, 19)},
		types.Field{Name: "name", Type: types.Simple(types.KindText)},
	)
	var id int64
	var name string
	desc := &bind.Descriptor{
		Strategy: bind.PropertiesNames,
		Fields: []bind.FieldDescriptor{
			{Name: "id", Set: func(val any) error { id = val.(int64); return nil }},
			{Name: "name", Set: func(val any) error { name = val.(string); return nil }},
		},
	}
	r := New(time.UTC, types.WidenToBigDecimal)
	if _, err := r.Materialize(v, target, desc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != 9 || name != "Ada" {
		t.Fatalf("got id=%d name=%q", id, name)
	}
}

func TestCoerceToUUID(t *testing.T) {
	u, err := CoerceToUUID("123e4567-e89b-12d3-a456-426614174000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.String() != "123e4567-e89b-12d3-a456-426614174000" {
		t.Fatalf("got %v", u)
	}
}

func TestCoerceTextToDecimal(t *testing.T) {
	d, err := CoerceTextToDecimal("42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "42" {
		t.Fatalf("got %v", d)
	}
}
