package bind

import (
	"testing"

	"github.com/pkg/errors"

	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// stubMaterializer returns the raw text/number of a scalar leaf without
// consulting the target type, sufficient for exercising bind strategies in
// isolation from internal/structured.
type stubMaterializer struct{}

func (stubMaterializer) Materialize(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor) (any, error) {
	switch v.Kind {
	case jsontok.KindString:
		return v.Str, nil
	case jsontok.KindNumber:
		return v.Number, nil
	default:
		return nil, nil
	}
}

func TestBindByOrderArityMismatch(t *testing.T) {
	v, err := jsontok.ParseString(`{"a":1,"b":2}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(
		types.Field{Name: "a", Type: types.Fixed(0, 19)},
	)
	desc := &Descriptor{
		Strategy: PropertiesOrder,
		Fields:   []FieldDescriptor{{Name: "a", Set: func(any) error { return nil }}},
	}
	_, err = Bind(v, target, desc, stubMaterializer{})
	if !errors.Is(err, ErrArityMismatch) {
		t.Fatalf("expected ErrArityMismatch, got %v", err)
	}
}

func TestBindByOrderPositional(t *testing.T) {
	v, err := jsontok.ParseString(`{"first":"x","second":"y"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(
		types.Field{Name: "first", Type: types.Simple(types.KindText)},
		types.Field{Name: "second", Type: types.Simple(types.KindText)},
	)
	var got []string
	desc := &Descriptor{
		Strategy: PropertiesOrder,
		Fields: []FieldDescriptor{
			{Name: "first", Set: func(v any) error { got = append(got, v.(string)); return nil }},
			{Name: "second", Set: func(v any) error { got = append(got, v.(string)); return nil }},
		},
	}
	if _, err := Bind(v, target, desc, stubMaterializer{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0] != "x" || got[1] != "y" {
		t.Fatalf("got %v", got)
	}
}

func TestBindByConstructorNoMatch(t *testing.T) {
	v, err := jsontok.ParseString(`{"a":1}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(types.Field{Name: "a", Type: types.Fixed(0, 19)})
	desc := &Descriptor{
		Strategy: Constructor,
		Constructors: []ConstructorCandidate{
			{Arity: 2, New: func(args []any) (any, error) { return args, nil }},
		},
	}
	_, err = Bind(v, target, desc, stubMaterializer{})
	if !errors.Is(err, ErrNoMatchingConstructor) {
		t.Fatalf("expected ErrNoMatchingConstructor, got %v", err)
	}
}

func TestBindByConstructorUniqueMatch(t *testing.T) {
	v, err := jsontok.ParseString(`{"a":"1","b":"2"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	target := types.StructuredObject(
		types.Field{Name: "a", Type: types.Simple(types.KindText)},
		types.Field{Name: "b", Type: types.Simple(types.KindText)},
	)
	desc := &Descriptor{
		Strategy: Constructor,
		Constructors: []ConstructorCandidate{
			{Arity: 1, New: func(args []any) (any, error) { return args, nil }},
			{Arity: 2, New: func(args []any) (any, error) { return args, nil }},
		},
	}
	got, err := Bind(v, target, desc, stubMaterializer{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	args := got.([]any)
	if len(args) != 2 || args[0].(string) != "1" || args[1].(string) != "2" {
		t.Fatalf("got %v", args)
	}
}

func TestCloneArgs(t *testing.T) {
	src := []any{1, "two", 3.0}
	cloned, err := CloneArgs(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cloned) != len(src) {
		t.Fatalf("got %v", cloned)
	}
}
