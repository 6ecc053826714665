package chunk

import (
	"math/big"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrapbird/chunkcore/internal/arrowcache"
	"github.com/scrapbird/chunkcore/internal/convert"
	"github.com/scrapbird/chunkcore/internal/types"
)

// scalarFromArrow extracts row idx of an Arrow column slot as a native
// scalar, per the §4.B conversion table. Grounded on
// arrowToRecordSingleColumn's type switch (FixedType/TimeType/
// TimestampNtz|Ltz|Tz/TextType) in the gosnowflake arrowbatches converter.
func scalarFromArrow(slot arrowcache.Slot, idx int, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	if slot.Array != nil && slot.Array.IsNull(idx) {
		return nil, nil
	}
	switch lt.Kind {
	case types.KindFixed:
		return fixedFromArrow(slot.Array, idx, lt.Scale, policy)
	case types.KindReal:
		arr, ok := slot.Array.(*array.Float64)
		if !ok {
			return nil, errors.Errorf("expected Float64 array for Real, got %T", slot.Array)
		}
		return convert.Real(arr.Value(idx)), nil
	case types.KindBoolean:
		arr, ok := slot.Array.(*array.Boolean)
		if !ok {
			return nil, errors.Errorf("expected Boolean array, got %T", slot.Array)
		}
		return arr.Value(idx), nil
	case types.KindText:
		switch arr := slot.Array.(type) {
		case *array.String:
			return arr.Value(idx), nil
		case *array.LargeString:
			return arr.Value(idx), nil
		default:
			return nil, errors.Errorf("expected String array for Text, got %T", slot.Array)
		}
	case types.KindBinary:
		arr, ok := slot.Array.(*array.Binary)
		if !ok {
			return nil, errors.Errorf("expected Binary array, got %T", slot.Array)
		}
		return arr.Value(idx), nil
	case types.KindDate:
		arr, ok := slot.Array.(*array.Date32)
		if !ok {
			return nil, errors.Errorf("expected Date32 array, got %T", slot.Array)
		}
		return convert.Date(int32(arr.Value(idx))), nil
	case types.KindTime:
		return timeFromArrow(slot.Array, idx, lt.Scale)
	case types.KindTimestampNtz:
		return timestampNtzFromArrow(slot, idx, lt.Scale)
	case types.KindTimestampLtz:
		return timestampLtzFromArrow(slot, idx, lt.Scale, loc)
	case types.KindTimestampTz:
		return timestampTzFromArrow(slot, idx, lt.Scale)
	default:
		return nil, errors.Errorf("kind %s is not a scalar leaf", lt.Kind)
	}
}

func fixedFromArrow(arr arrow.Array, idx int, scale int8, policy types.WideningPolicy) (any, error) {
	switch a := arr.(type) {
	case *array.Int8:
		return widenOrDecimal(int64(a.Value(idx)), scale)
	case *array.Int16:
		return widenOrDecimal(int64(a.Value(idx)), scale)
	case *array.Int32:
		return widenOrDecimal(int64(a.Value(idx)), scale)
	case *array.Int64:
		return widenOrDecimal(a.Value(idx), scale)
	case *array.Decimal128:
		return fixedFromBig(a.Value(idx).BigInt(), scale, policy)
	case *array.Decimal256:
		return fixedFromBig(a.Value(idx).BigInt(), scale, policy)
	default:
		return nil, errors.Errorf("unsupported Fixed physical array type %T", arr)
	}
}

func widenOrDecimal(raw int64, scale int8) (any, error) {
	if scale == 0 {
		return raw, nil
	}
	return convert.FixedDecimalFromInt64(raw, scale), nil
}

// fixedFromBig narrows a Decimal128/256 physical value that declares
// scale=0 back to int64 when it fits. When it doesn't fit, policy decides
// whether to widen to an arbitrary-precision decimal.Decimal or report an
// Overflow error.
func fixedFromBig(v *big.Int, scale int8, policy types.WideningPolicy) (any, error) {
	if scale == 0 && v.IsInt64() {
		return v.Int64(), nil
	}
	if scale == 0 && policy == types.ErrorOnOverflow {
		return nil, &convert.Error{Kind: convert.Overflow, Err: errors.Errorf("decimal value %s does not fit in int64", v.String())}
	}
	return decimal.NewFromBigInt(v, -int32(scale)), nil
}

func timeFromArrow(arr arrow.Array, idx int, scale int8) (any, error) {
	switch a := arr.(type) {
	case *array.Time32:
		d, _ := convert.Time(int64(a.Value(idx)), scale)
		return d, nil
	case *array.Time64:
		d, _ := convert.Time(int64(a.Value(idx)), scale)
		return d, nil
	default:
		return nil, errors.Errorf("unsupported Time physical array type %T", arr)
	}
}

// timestampNtzFromArrow handles both the single-int and 2-field struct
// encodings, per the Open Question in spec §9 ("accept both").
func timestampNtzFromArrow(slot arrowcache.Slot, idx int, scale int8) (any, error) {
	if structArr, ok := slot.Array.(*array.Struct); ok {
		epoch := structArr.Field(0).(*array.Int64).Value(idx)
		frac := structArr.Field(1).(*array.Int32).Value(idx)
		return convert.TimestampNtzStruct(epoch, frac), nil
	}
	switch a := slot.Array.(type) {
	case *array.Int64:
		return convert.TimestampNtz(a.Value(idx), scale), nil
	case *array.Timestamp:
		return a.Value(idx).ToTime(arrow.Nanosecond).UTC(), nil
	default:
		return nil, errors.Errorf("unsupported TimestampNtz physical array type %T", slot.Array)
	}
}

func timestampLtzFromArrow(slot arrowcache.Slot, idx int, scale int8, loc *time.Location) (any, error) {
	if structArr, ok := slot.Array.(*array.Struct); ok {
		epoch := structArr.Field(0).(*array.Int64).Value(idx)
		frac := structArr.Field(1).(*array.Int32).Value(idx)
		return convert.TimestampLtzStruct(epoch, frac, loc), nil
	}
	switch a := slot.Array.(type) {
	case *array.Int64:
		return convert.TimestampLtz(a.Value(idx), scale, loc), nil
	case *array.Timestamp:
		return a.Value(idx).ToTime(arrow.Nanosecond).In(loc), nil
	default:
		return nil, errors.Errorf("unsupported TimestampLtz physical array type %T", slot.Array)
	}
}

// timestampTzFromArrow handles both the 2-field (value, stored_offset) and
// 3-field (epoch, fraction, stored_offset) struct encodings. scale is the
// column's declared scale, needed by the 2-field case since that encoding's
// value field is a single scaled integer rather than a seconds/nanos pair.
func timestampTzFromArrow(slot arrowcache.Slot, idx int, scale int8) (any, error) {
	structArr, ok := slot.Array.(*array.Struct)
	if !ok {
		return nil, errors.Errorf("expected Struct array for TimestampTz, got %T", slot.Array)
	}
	switch structArr.NumField() {
	case 2:
		value := structArr.Field(0).(*array.Int64).Value(idx)
		storedOffset := structArr.Field(1).(*array.Int32).Value(idx)
		return convert.TimestampTz2Field(value, storedOffset, scale)
	case 3:
		epoch := structArr.Field(0).(*array.Int64).Value(idx)
		frac := structArr.Field(1).(*array.Int32).Value(idx)
		storedOffset := structArr.Field(2).(*array.Int32).Value(idx)
		return convert.TimestampTz3Field(epoch, frac, storedOffset)
	default:
		return nil, errors.Errorf("unsupported TimestampTz struct arity %d", structArr.NumField())
	}
}
