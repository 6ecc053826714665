// Package structured implements the Structured Reader (§4.F): given an
// abstract JsonValue tree, a target LogicalType, and (for
// StructuredObject) a caller-supplied bind.Descriptor, recursively
// construct the target value. Scalar leaves delegate to
// internal/jsonscalar; StructuredObject leaves hand off to internal/bind.
package structured

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrapbird/chunkcore/internal/bind"
	"github.com/scrapbird/chunkcore/internal/jsonscalar"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// Reader walks a JsonValue tree against a target LogicalType, producing
// either generic containers (no descriptor supplied, per §4.F's ordered
// sequence / keyed mapping containers) or bound objects for
// StructuredObject targets when a bind.Descriptor is supplied.
type Reader struct {
	Loc    *time.Location
	Policy types.WideningPolicy
}

// New builds a Reader rendering TimestampLtz leaves in loc and applying
// policy to Fixed{scale=0} leaves that overflow int64.
func New(loc *time.Location, policy types.WideningPolicy) *Reader {
	if loc == nil {
		loc = time.UTC
	}
	return &Reader{Loc: loc, Policy: policy}
}

// Sequence is the reader's default container for StructuredArray.
type Sequence []any

// Mapping is the reader's default container for StructuredMap, preserving
// insertion order.
type Mapping []KeyValue

// KeyValue is one entry of a Mapping.
type KeyValue struct {
	Key   string
	Value any
}

// Materialize recursively constructs a native value for v against target.
// desc is consulted only when target is a StructuredObject; pass nil to
// get the reader's default ordered-pair representation instead of a bound
// object (internal/bind passes nil when recursing into field values).
func (r *Reader) Materialize(v jsontok.JsonValue, target types.LogicalType, desc *bind.Descriptor) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch target.Kind {
	case types.KindStructuredArray:
		return r.materializeArray(v, target, desc)
	case types.KindStructuredMap:
		return r.materializeMap(v, target)
	case types.KindStructuredObject:
		return r.materializeObject(v, target, desc)
	default:
		return r.scalarLeaf(v, target)
	}
}

func (r *Reader) materializeArray(v jsontok.JsonValue, target types.LogicalType, desc *bind.Descriptor) (any, error) {
	if v.Kind != jsontok.KindArray {
		return nil, errors.New("expected a JSON array for StructuredArray")
	}
	out := make(Sequence, len(v.Array))
	for i, elem := range v.Array {
		val, err := r.Materialize(elem, *target.Element, desc)
		if err != nil {
			return nil, err
		}
		out[i] = val
	}
	return out, nil
}

func (r *Reader) materializeMap(v jsontok.JsonValue, target types.LogicalType) (any, error) {
	if v.Kind != jsontok.KindObject {
		return nil, errors.New("expected a JSON object for StructuredMap")
	}
	out := make(Mapping, len(v.Object))
	for i, pair := range v.Object {
		key, err := r.mapKey(pair.Key, *target.Key)
		if err != nil {
			return nil, err
		}
		val, err := r.Materialize(pair.Value, *target.Value, nil)
		if err != nil {
			return nil, err
		}
		out[i] = KeyValue{Key: key, Value: val}
	}
	return out, nil
}

// mapKey converts a JSON object key string through the map's declared key
// logical type, per §4.F ("text, integer, long all supported").
func (r *Reader) mapKey(key string, keyType types.LogicalType) (string, error) {
	switch keyType.Kind {
	case types.KindText:
		return key, nil
	case types.KindFixed:
		if _, err := strconv.ParseInt(key, 10, 64); err != nil {
			return "", errors.Wrapf(err, "map key %q is not a valid Fixed literal", key)
		}
		return key, nil
	default:
		return key, nil
	}
}

func (r *Reader) materializeObject(v jsontok.JsonValue, target types.LogicalType, desc *bind.Descriptor) (any, error) {
	if v.Kind != jsontok.KindObject {
		return nil, errors.New("expected a JSON object for StructuredObject")
	}
	if desc == nil {
		out := make(Mapping, 0, len(target.Fields))
		for _, f := range target.Fields {
			raw, ok := v.Get(f.Name)
			var val any
			var err error
			if ok {
				val, err = r.Materialize(raw, f.Type, nil)
				if err != nil {
					return nil, err
				}
			}
			out = append(out, KeyValue{Key: f.Name, Value: val})
		}
		return out, nil
	}
	return bind.Bind(v, target, desc, r)
}

// scalarLeaf converts a scalar JsonValue, per §4.B, reusing the same raw
// literal formats the Chunk Iterator's JSON path expects (numbers as
// decimal text, dates/times/timestamps as integer literals).
func (r *Reader) scalarLeaf(v jsontok.JsonValue, target types.LogicalType) (any, error) {
	return jsonscalar.ScalarFromJSON(v, target, r.Loc, r.Policy)
}

// CoerceToUUID parses s as a UUID, one of the leaf coercions permitted by
// §4.F ("text -> Guid/UUID by standard parsing").
func CoerceToUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// CoerceTextToDecimal parses an integer-valued Text leaf as an
// arbitrary-precision decimal, per §4.F.
func CoerceTextToDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// CoerceTextToInt64 parses an integer-valued Text leaf as an int64, per §4.F.
func CoerceTextToInt64(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}

// DualTemporal carries both renderings §4.F permits for any temporal leaf:
// a calendar wall-clock value and an instant-with-offset value, letting
// the caller pick whichever their target field expects.
type DualTemporal struct {
	Wall    time.Time // naive calendar value, no zone semantics implied
	Instant time.Time // instant, zone-aware
}
