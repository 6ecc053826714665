// Package jsonscalar holds the JSON-side half of the Scalar Converter
// table (§4.B): turning a tokenized JsonValue leaf into a native scalar
// against a declared LogicalType. Factored out of internal/chunk so that
// internal/structured (which walks JsonValue trees directly, independent
// of the Chunk Iterator) can reach it too, without structured importing
// chunk or chunk importing structured.
package jsonscalar

import (
	"encoding/hex"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrapbird/chunkcore/internal/convert"
	"github.com/scrapbird/chunkcore/internal/jsontok"
	"github.com/scrapbird/chunkcore/internal/types"
)

// ScalarFromJSON extracts a JsonValue cell as a native scalar, per the
// §4.B table. JSON numbers arrive as unparsed strings (jsontok preserves
// precision); this is where they finally get interpreted against the
// column's declared logical type. policy governs Fixed{scale=0} literals
// that overflow int64.
func ScalarFromJSON(v jsontok.JsonValue, lt types.LogicalType, loc *time.Location, policy types.WideningPolicy) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch lt.Kind {
	case types.KindFixed:
		return fixedFromJSON(v.Number, lt.Scale, policy)
	case types.KindReal:
		f, err := strconv.ParseFloat(v.Number, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing Real literal %q", v.Number)
		}
		return f, nil
	case types.KindBoolean:
		return v.Bool, nil
	case types.KindText:
		return v.Str, nil
	case types.KindBinary:
		b, err := hex.DecodeString(v.Str)
		if err != nil {
			return nil, errors.Wrapf(err, "decoding Binary hex literal %q", v.Str)
		}
		return b, nil
	case types.KindDate:
		days, err := strconv.ParseInt(v.Number, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing Date literal %q", v.Number)
		}
		return convert.Date(int32(days)), nil
	case types.KindTime:
		raw, err := strconv.ParseInt(v.Number, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing Time literal %q", v.Number)
		}
		d, _ := convert.Time(raw, lt.Scale)
		return d, nil
	case types.KindTimestampNtz:
		raw, err := strconv.ParseInt(v.Number, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing TimestampNtz literal %q", v.Number)
		}
		return convert.TimestampNtz(raw, lt.Scale), nil
	case types.KindTimestampLtz:
		raw, err := strconv.ParseInt(v.Number, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing TimestampLtz literal %q", v.Number)
		}
		return convert.TimestampLtz(raw, lt.Scale, loc), nil
	case types.KindTimestampTz:
		return timestampTzFromJSON(v, lt.Scale)
	default:
		return nil, errors.Wrapf(types.ErrNotAScalar, "kind %s", lt.Kind)
	}
}

// fixedFromJSON parses a Fixed{scale} literal. At scale=0, an int64
// overflow is resolved per policy: WidenToBigDecimal retries as an
// arbitrary-precision decimal, ErrorOnOverflow reports a convert.Overflow
// error.
func fixedFromJSON(literal string, scale int8, policy types.WideningPolicy) (any, error) {
	if scale != 0 {
		d, err := decimal.NewFromString(literal)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing Fixed{scale=%d} literal %q", scale, literal)
		}
		return d, nil
	}
	n, err := strconv.ParseInt(literal, 10, 64)
	if err == nil {
		return n, nil
	}
	var numErr *strconv.NumError
	if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
		return nil, errors.Wrapf(err, "parsing Fixed{scale=0} literal %q", literal)
	}
	if policy == types.ErrorOnOverflow {
		return nil, &convert.Error{Kind: convert.Overflow, Err: errors.Errorf("fixed literal %q does not fit in int64", literal)}
	}
	d, derr := decimal.NewFromString(literal)
	if derr != nil {
		return nil, errors.Wrapf(derr, "parsing Fixed{scale=0} literal %q as decimal", literal)
	}
	return d, nil
}

// timestampTzFromJSON expects either the 2-field (value, stored_offset) or
// 3-field (epoch, fraction, stored_offset) struct encoding represented as
// a JSON array, matching how a JSON row-array body carries struct-typed
// cells.
func timestampTzFromJSON(v jsontok.JsonValue, scale int8) (any, error) {
	if v.Kind != jsontok.KindArray || len(v.Array) < 2 {
		return nil, errors.New("expected a 2-element array for TimestampTz")
	}
	if len(v.Array) >= 3 {
		epoch, err := strconv.ParseInt(v.Array[0].Number, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "parsing TimestampTz epoch field")
		}
		frac, err := strconv.ParseInt(v.Array[1].Number, 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "parsing TimestampTz fraction field")
		}
		storedOffset, err := strconv.ParseInt(v.Array[2].Number, 10, 32)
		if err != nil {
			return nil, errors.Wrap(err, "parsing TimestampTz offset field")
		}
		return convert.TimestampTz3Field(epoch, int32(frac), int32(storedOffset))
	}
	value, err := strconv.ParseInt(v.Array[0].Number, 10, 64)
	if err != nil {
		return nil, errors.Wrap(err, "parsing TimestampTz value field")
	}
	storedOffset, err := strconv.ParseInt(v.Array[1].Number, 10, 32)
	if err != nil {
		return nil, errors.Wrap(err, "parsing TimestampTz offset field")
	}
	return convert.TimestampTz2Field(value, int32(storedOffset), scale)
}
