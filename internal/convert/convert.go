// Package convert implements the Scalar Converter: pure, total functions
// mapping (raw bits, logical type, scale) to native Go scalars. The
// converter never allocates mutable state and never touches Arrow or JSON
// directly — callers peel off the physical encoding first.
//
// Ground truth for the timestamp and decimal arithmetic here is
// gosnowflake's arrowbatches converter (extractEpoch/extractFraction/
// intToBigFloat/ArrowSnowflakeTimestampToTime).
package convert

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/scrapbird/chunkcore/internal/types"
)

// Kind mirrors chunkcore.Kind without importing the root package, to avoid
// an import cycle; the root package wraps these into CellError values.
type Kind int

const (
	UnsupportedType Kind = iota
	Overflow
	InvalidEncoding
)

// Error is a plain conversion failure; the root package attaches cell
// coordinates on the way out.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func fail(k Kind, format string, args ...any) error {
	return &Error{Kind: k, Err: errors.Errorf(format, args...)}
}

// FixedInt converts a Fixed{scale=0} raw value into the narrowest signed
// width requested, failing Overflow if it does not fit.
func FixedInt(raw int64, bits int) (int64, error) {
	switch bits {
	case 8:
		if raw < math.MinInt8 || raw > math.MaxInt8 {
			return 0, fail(Overflow, "value %d does not fit in int8", raw)
		}
	case 16:
		if raw < math.MinInt16 || raw > math.MaxInt16 {
			return 0, fail(Overflow, "value %d does not fit in int16", raw)
		}
	case 32:
		if raw < math.MinInt32 || raw > math.MaxInt32 {
			return 0, fail(Overflow, "value %d does not fit in int32", raw)
		}
	case 64:
		// always fits
	default:
		return 0, fail(UnsupportedType, "unsupported integer width %d", bits)
	}
	return raw, nil
}

// FixedDecimal converts a Fixed{scale>0} raw big-integer value into an
// arbitrary-precision decimal equal to raw / 10^scale, exactly.
func FixedDecimal(raw decimal.Decimal, scale int8) decimal.Decimal {
	return raw.Shift(-int32(scale))
}

// FixedDecimalFromInt64 is FixedDecimal for the common case where raw fits
// in an int64 (e.g. an Arrow Int32/Int64 column before widening).
func FixedDecimalFromInt64(raw int64, scale int8) decimal.Decimal {
	return decimal.New(raw, -int32(scale))
}

// Real converts raw IEEE-754 bits (already decoded by the caller's column
// reader) to a float64. The server guarantees IEEE-754 bit layout, so this
// is an identity function kept for symmetry with the rest of the table.
func Real(raw float64) float64 {
	return raw
}

// Boolean converts a raw byte (0 or 1) to bool.
func Boolean(raw byte) (bool, error) {
	switch raw {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fail(InvalidEncoding, "boolean raw byte %d is neither 0 nor 1", raw)
	}
}

// Date converts a day offset from 1970-01-01 into the UTC instant at the
// start of that day.
func Date(days int32) time.Time {
	return time.Unix(int64(days)*86400, 0).UTC()
}

// Time converts a raw tick count at the given scale to a time-of-day
// duration since midnight, per the per-scale-band semantics in §4.B.
// Truncated reports whether scale>=8 truncated sub-100ns precision, per
// the documented (not fixed) lossy behavior of the source driver.
func Time(raw int64, scale int8) (wallClock time.Duration, truncated bool) {
	switch {
	case scale <= 3:
		return time.Duration(raw) * time.Duration(pow10(3-int(scale))) * time.Millisecond, false
	case scale <= 7:
		ticks := raw * pow10(7-int(scale))
		return time.Duration(ticks) * 100 * time.Nanosecond, false
	default:
		ticks := raw / pow10(int(scale)-7)
		return time.Duration(ticks) * 100 * time.Nanosecond, true
	}
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}

// ExtractEpoch splits a single-integer timestamp encoding's whole-seconds
// part: epoch = raw / 10^scale.
func ExtractEpoch(raw int64, scale int8) int64 {
	return raw / pow10(int(scale))
}

// ExtractFraction splits a single-integer timestamp encoding's
// sub-second nanoseconds part: frac_ns = (raw mod 10^scale) * 10^(9-scale).
func ExtractFraction(raw int64, scale int8) int64 {
	return (raw % pow10(int(scale))) * pow10(9-int(scale))
}

// PackTimestamp is the inverse of ExtractEpoch/ExtractFraction, used by the
// round-trip property in §8: pack(epoch, frac, scale) = epoch*10^scale + frac/10^(9-scale).
func PackTimestamp(epoch, fracNs int64, scale int8) int64 {
	return epoch*pow10(int(scale)) + fracNs/pow10(9-int(scale))
}

// TimestampNtz assembles a naive (zone-less) wall-clock time from a
// single-integer encoding.
func TimestampNtz(raw int64, scale int8) time.Time {
	epoch := ExtractEpoch(raw, scale)
	frac := ExtractFraction(raw, scale)
	return time.Unix(epoch, frac).UTC()
}

// TimestampNtzStruct assembles a naive wall-clock time from the 2-field
// struct encoding (epoch_seconds, fraction_nanos).
func TimestampNtzStruct(epochSeconds int64, fractionNanos int32) time.Time {
	return time.Unix(epochSeconds, int64(fractionNanos)).UTC()
}

// TimestampLtz is TimestampNtz re-rendered in loc.
func TimestampLtz(raw int64, scale int8, loc *time.Location) time.Time {
	return TimestampNtz(raw, scale).In(loc)
}

// TimestampLtzStruct is TimestampNtzStruct re-rendered in loc.
func TimestampLtzStruct(epochSeconds int64, fractionNanos int32, loc *time.Location) time.Time {
	return TimestampNtzStruct(epochSeconds, fractionNanos).In(loc)
}

// OffsetMinutesOf recovers the signed minute offset from the stored
// non-negative encoding: offset_minutes = stored - 1440.
func OffsetMinutesOf(stored int32) int32 {
	return stored - 1440
}

// StoredOffsetOf is the inverse of OffsetMinutesOf: stored = offset_minutes + 1440.
func StoredOffsetOf(offsetMinutes int32) int32 {
	return offsetMinutes + 1440
}

// TimestampTz2Field assembles an instant-with-offset from the 2-field
// struct encoding (value at the given scale, stored_offset = offset+1440).
func TimestampTz2Field(value int64, storedOffset int32, scale int8) (time.Time, error) {
	offsetMinutes := OffsetMinutesOf(storedOffset)
	if offsetMinutes < -1440 || offsetMinutes > 1440 {
		return time.Time{}, fail(InvalidEncoding, "timestamp_tz offset %d out of range", offsetMinutes)
	}
	loc := time.FixedZone("", int(offsetMinutes)*60)
	return TimestampNtz(value, scale).In(loc), nil
}

// TimestampTz3Field assembles an instant-with-offset from the 3-field
// struct encoding (epoch_seconds, fraction_nanos, stored_offset).
func TimestampTz3Field(epochSeconds int64, fractionNanos int32, storedOffset int32) (time.Time, error) {
	offsetMinutes := OffsetMinutesOf(storedOffset)
	if offsetMinutes < -1440 || offsetMinutes > 1440 {
		return time.Time{}, fail(InvalidEncoding, "timestamp_tz offset %d out of range", offsetMinutes)
	}
	loc := time.FixedZone("", int(offsetMinutes)*60)
	return TimestampNtzStruct(epochSeconds, fractionNanos).In(loc), nil
}

// ValidateScale checks t's scale, failing UnsupportedType for scales
// outside [0,9] on temporal kinds or [0,38] on Fixed; other kinds pass.
func ValidateScale(t types.LogicalType) error {
	switch t.Kind {
	case types.KindFixed:
		if t.Scale < 0 || t.Scale > 38 {
			return fail(UnsupportedType, "fixed scale %d out of range [0,38]", t.Scale)
		}
	case types.KindTime, types.KindTimestampNtz, types.KindTimestampLtz, types.KindTimestampTz:
		if t.Scale < 0 || t.Scale > 9 {
			return fail(UnsupportedType, "temporal scale %d out of range [0,9]", t.Scale)
		}
	}
	return nil
}

// IntToBigFloatDecimal converts an int64 raw value scaled by 10^-scale into
// a decimal.Decimal, mirroring gosnowflake's intToBigFloat helper but
// returning an exact decimal rather than a lossy big.Float.
func IntToBigFloatDecimal(raw int64, scale int64) decimal.Decimal {
	return decimal.New(raw, int32(-scale))
}
