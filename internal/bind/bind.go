// Package bind implements the Object Binder (§4.G): given a
// caller-supplied Descriptor and a StructuredObject's field values, build
// the caller's target representation using one of three strategies
// (PROPERTIES_NAMES, PROPERTIES_ORDER, CONSTRUCTOR) without reflection on
// the caller's concrete type — the caller always owns construction via the
// Descriptor's Set/New functions.
package bind

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/tiendc/go-deepcopy"

	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// Strategy selects how a StructuredObject's fields are matched against the
// caller's target representation, per §4.G.
type Strategy int

const (
	// PropertiesNames matches JSON object keys against FieldDescriptor
	// names, case-insensitively unless CaseSensitive is set on the
	// Descriptor. Unmatched target fields are left at their zero value;
	// unmatched source keys are ignored.
	PropertiesNames Strategy = iota
	// PropertiesOrder matches JSON object values positionally against
	// FieldDescriptors in declaration order. Arity mismatch is an error.
	PropertiesOrder
	// Constructor builds the target via a caller-supplied constructor
	// function taking the ordered argument slice. Exactly one candidate
	// constructor must match the field count.
	Constructor
)

// FieldDescriptor describes one target field: its declared name (used by
// PropertiesNames) and a Set function invoked with the materialized value
// for that field.
type FieldDescriptor struct {
	Name string
	Set  func(value any) error
}

// ConstructorCandidate is one caller-supplied constructor function, along
// with the argument count it accepts. bindByConstructor chooses the
// candidate whose Arity equals the StructuredObject's field count.
type ConstructorCandidate struct {
	Arity int
	New   func(args []any) (any, error)
}

// Descriptor is the caller's binding contract for one StructuredObject
// target type, per §4.G.
type Descriptor struct {
	Strategy      Strategy
	CaseSensitive bool // only consulted for PropertiesNames

	// Fields is consulted by PropertiesNames and PropertiesOrder.
	Fields []FieldDescriptor

	// Constructors is consulted only by Constructor.
	Constructors []ConstructorCandidate

	// Result is called, if non-nil, once Fields have all been Set (or
	// once a Constructor candidate returns), to hand back the finished
	// target value. When nil, Bind returns nil for PropertiesNames/Order
	// (the caller's Set closures are assumed to mutate shared state).
	Result func() (any, error)
}

// ErrArityMismatch is wrapped by bindByOrder when the source object's field
// count does not equal the descriptor's field count.
var ErrArityMismatch = errors.New("bind: arity mismatch")

// ErrNoMatchingConstructor is wrapped by bindByConstructor when zero or more
// than one ConstructorCandidate matches the source object's field count.
var ErrNoMatchingConstructor = errors.New("bind: no unique matching constructor")

// Materializer recurses a JsonValue against a target LogicalType,
// implemented by internal/structured.Reader. Declared here (rather than
// imported) to avoid an import cycle between structured and bind.
type Materializer interface {
	Materialize(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor) (any, error)
}

// Bind constructs the target value for a StructuredObject cell v against
// target's declared Fields, dispatching on desc.Strategy.
func Bind(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor, m Materializer) (any, error) {
	switch desc.Strategy {
	case PropertiesNames:
		return bindByNames(v, target, desc, m)
	case PropertiesOrder:
		return bindByOrder(v, target, desc, m)
	case Constructor:
		return bindByConstructor(v, target, desc, m)
	default:
		return nil, errors.Errorf("unknown bind strategy %d", desc.Strategy)
	}
}

func bindByNames(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor, m Materializer) (any, error) {
	for _, fd := range desc.Fields {
		raw, ok := lookupField(v, fd.Name, desc.CaseSensitive)
		if !ok {
			continue
		}
		ft, ok := fieldType(target, fd.Name, desc.CaseSensitive)
		if !ok {
			continue
		}
		val, err := m.Materialize(raw, ft, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "binding field %q", fd.Name)
		}
		if err := fd.Set(val); err != nil {
			return nil, errors.Wrapf(err, "setting field %q", fd.Name)
		}
	}
	if desc.Result != nil {
		return desc.Result()
	}
	return nil, nil
}

func lookupField(v jsontok.JsonValue, name string, caseSensitive bool) (jsontok.JsonValue, bool) {
	if caseSensitive {
		return v.Get(name)
	}
	for _, pair := range v.Object {
		if strings.EqualFold(pair.Key, name) {
			return pair.Value, true
		}
	}
	return jsontok.JsonValue{}, false
}

func fieldType(target types.LogicalType, name string, caseSensitive bool) (types.LogicalType, bool) {
	for _, f := range target.Fields {
		if (caseSensitive && f.Name == name) || (!caseSensitive && strings.EqualFold(f.Name, name)) {
			return f.Type, true
		}
	}
	return types.LogicalType{}, false
}

// bindByOrder requires |v.Object| == |target.Fields| == |desc.Fields|; a
// mismatch is an ArityMismatch.
func bindByOrder(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor, m Materializer) (any, error) {
	if len(v.Object) != len(desc.Fields) || len(target.Fields) != len(desc.Fields) {
		return nil, errors.Wrapf(ErrArityMismatch, "source has %d fields, descriptor has %d", len(v.Object), len(desc.Fields))
	}
	for i, fd := range desc.Fields {
		val, err := m.Materialize(v.Object[i].Value, target.Fields[i].Type, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "binding positional field %d (%q)", i, fd.Name)
		}
		if err := fd.Set(val); err != nil {
			return nil, errors.Wrapf(err, "setting positional field %d (%q)", i, fd.Name)
		}
	}
	if desc.Result != nil {
		return desc.Result()
	}
	return nil, nil
}

// bindByConstructor materializes all field values positionally (by
// target.Fields' declared order, matching v.Object's order), then invokes
// the single ConstructorCandidate whose Arity matches. Zero or more than
// one matching candidate is a NoMatchingConstructor error.
func bindByConstructor(v jsontok.JsonValue, target types.LogicalType, desc *Descriptor, m Materializer) (any, error) {
	n := len(v.Object)
	var match *ConstructorCandidate
	count := 0
	for i := range desc.Constructors {
		if desc.Constructors[i].Arity == n {
			match = &desc.Constructors[i]
			count++
		}
	}
	if count != 1 {
		return nil, errors.Wrapf(ErrNoMatchingConstructor, "arity %d (%d candidates matched)", n, count)
	}

	args := make([]any, n)
	for i := 0; i < n && i < len(target.Fields); i++ {
		val, err := m.Materialize(v.Object[i].Value, target.Fields[i].Type, nil)
		if err != nil {
			return nil, errors.Wrapf(err, "materializing constructor argument %d", i)
		}
		args[i] = val
	}
	cloned, err := CloneArgs(args)
	if err != nil {
		return nil, errors.Wrap(err, "cloning constructor arguments")
	}
	return match.New(cloned)
}

// CloneArgs deep-copies an argument slice before handing it to a
// constructor that retains the slice beyond the call, per §4.G's note that
// CONSTRUCTOR candidates may stash their argument slice.
func CloneArgs(args []any) ([]any, error) {
	var out []any
	if err := deepcopy.Copy(&out, args); err != nil {
		return nil, errors.Wrap(err, "deep-copying constructor arguments")
	}
	return out, nil
}
