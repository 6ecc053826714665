package chunk

import (
	"fmt"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrapbird/chunkcore/internal/arrowcache"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// OrderedPair is a generic (key, value) entry produced for
// StructuredObject/Map cells that have no caller-supplied target type
// descriptor. Preserves declaration/key order, matching §4.E's
// requirement that object key order survive into the abstract tree.
type OrderedPair struct {
	Key   string
	Value any
}

// containerFromJSON builds the caller's default (untyped) container for a
// StructuredObject/Array/Map cell sourced from JSON, per §4.F. Callers that
// have a target type descriptor should instead call internal/structured
// directly on the JsonValue (obtained via a JSON source's row access) to
// get a properly bound value.
func containerFromJSON(v jsontok.JsonValue, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch lt.Kind {
	case types.KindStructuredArray:
		if v.Kind != jsontok.KindArray {
			return nil, errors.New("expected JSON array for StructuredArray")
		}
		out := make([]any, len(v.Array))
		for i, elem := range v.Array {
			val, err := cellFromJSON(elem, *lt.Element, loc, policy)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case types.KindStructuredMap:
		if v.Kind != jsontok.KindObject {
			return nil, errors.New("expected JSON object for StructuredMap")
		}
		out := make([]OrderedPair, len(v.Object))
		for i, pair := range v.Object {
			val, err := cellFromJSON(pair.Value, *lt.Value, loc, policy)
			if err != nil {
				return nil, err
			}
			out[i] = OrderedPair{Key: pair.Key, Value: val}
		}
		return out, nil
	case types.KindStructuredObject:
		if v.Kind != jsontok.KindObject {
			return nil, errors.New("expected JSON object for StructuredObject")
		}
		out := make([]OrderedPair, 0, len(lt.Fields))
		for _, f := range lt.Fields {
			raw, ok := v.Get(f.Name)
			var val any
			var err error
			if ok {
				val, err = cellFromJSON(raw, f.Type, loc, policy)
				if err != nil {
					return nil, err
				}
			}
			out = append(out, OrderedPair{Key: f.Name, Value: val})
		}
		return out, nil
	default:
		return nil, errors.Errorf("kind %s is not a container", lt.Kind)
	}
}

func cellFromJSON(v jsontok.JsonValue, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	if types.IsContainer(lt) {
		return containerFromJSON(v, lt, loc, policy)
	}
	return scalarFromJSON(v, lt, loc, policy)
}

// containerFromArrow builds the caller's default (untyped) container for a
// StructuredObject/Array/Map cell sourced from Arrow, grounded on
// arrowToRecordSingleColumn's ObjectType/ArrayType/MapType recursion in the
// gosnowflake arrowbatches converter.
func containerFromArrow(slot arrowcache.Slot, idx int, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	if slot.Array != nil && slot.Array.IsNull(idx) {
		return nil, nil
	}
	switch lt.Kind {
	case types.KindStructuredArray:
		listArr, ok := slot.Array.(*array.List)
		if !ok {
			return nil, errors.Errorf("expected List array for StructuredArray, got %T", slot.Array)
		}
		offsets := listArr.Offsets()
		start, end := int(offsets[idx]), int(offsets[idx+1])
		values := listArr.ListValues()
		out := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			val, err := cellFromArrowArray(values, int(i), *lt.Element, loc, policy)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case types.KindStructuredMap:
		mapArr, ok := slot.Array.(*array.Map)
		if !ok {
			return nil, errors.Errorf("expected Map array for StructuredMap, got %T", slot.Array)
		}
		offsets := mapArr.Offsets()
		start, end := int(offsets[idx]), int(offsets[idx+1])
		keys := mapArr.Keys()
		items := mapArr.Items()
		out := make([]OrderedPair, 0, end-start)
		for i := start; i < end; i++ {
			keyVal, err := cellFromArrowArray(keys, int(i), *lt.Key, loc, policy)
			if err != nil {
				return nil, err
			}
			keyStr := toMapKeyString(keyVal)
			val, err := cellFromArrowArray(items, int(i), *lt.Value, loc, policy)
			if err != nil {
				return nil, err
			}
			out = append(out, OrderedPair{Key: keyStr, Value: val})
		}
		return out, nil
	case types.KindStructuredObject:
		structArr, ok := slot.Array.(*array.Struct)
		if !ok {
			return nil, errors.Errorf("expected Struct array for StructuredObject, got %T", slot.Array)
		}
		if structArr.NumField() != len(lt.Fields) {
			return nil, errors.Errorf("struct arity %d does not match declared field count %d", structArr.NumField(), len(lt.Fields))
		}
		out := make([]OrderedPair, len(lt.Fields))
		for i, f := range lt.Fields {
			val, err := cellFromArrowArray(structArr.Field(i), idx, f.Type, loc, policy)
			if err != nil {
				return nil, err
			}
			out[i] = OrderedPair{Key: f.Name, Value: val}
		}
		return out, nil
	default:
		return nil, errors.Errorf("kind %s is not a container", lt.Kind)
	}
}

func cellFromArrowArray(arr arrow.Array, idx int, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	slot := arrowcache.Slot{Array: arr}
	if types.IsContainer(lt) {
		return containerFromArrow(slot, idx, lt, loc, policy)
	}
	return scalarFromArrow(slot, idx, lt, loc, policy)
}

// toMapKeyString formats a materialized MAP key value as text, per §4.F's
// "text, integer, long all supported" key types. Arrow map keys are never
// nil (non-nullable by construction), so every branch here is reachable.
func toMapKeyString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case decimal.Decimal:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// containerToText renders a default (untyped) container value — the output
// of containerFromJSON/containerFromArrow — as JSON-like text, for
// StructuredObject/Array/Map columns extracted with
// Options.StructuredTypesEnabled = false, per §4.F's fallback behavior.
func containerToText(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case []any:
		out := "["
		for i, elem := range t {
			if i > 0 {
				out += ","
			}
			out += containerToText(elem)
		}
		return out + "]"
	case []OrderedPair:
		out := "{"
		for i, pair := range t {
			if i > 0 {
				out += ","
			}
			out += strconv.Quote(pair.Key) + ":" + containerToText(pair.Value)
		}
		return out + "}"
	case string:
		return strconv.Quote(t)
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case decimal.Decimal:
		return t.String()
	case []byte:
		return strconv.Quote(string(t))
	case time.Time:
		return strconv.Quote(t.Format(time.RFC3339Nano))
	case time.Duration:
		return strconv.Quote(t.String())
	default:
		return strconv.Quote(fmt.Sprintf("%v", t))
	}
}
