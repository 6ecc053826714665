// Package types enumerates the logical SQL type system recognized by the
// result-chunk decoding core and provides metadata helpers over it.
package types

import "github.com/pkg/errors"

// Kind tags the variants of LogicalType.
type Kind int

const (
	KindFixed Kind = iota
	KindReal
	KindBoolean
	KindText
	KindBinary
	KindDate
	KindTime
	KindTimestampNtz
	KindTimestampLtz
	KindTimestampTz
	KindStructuredObject
	KindStructuredArray
	KindStructuredMap
)

func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "Fixed"
	case KindReal:
		return "Real"
	case KindBoolean:
		return "Boolean"
	case KindText:
		return "Text"
	case KindBinary:
		return "Binary"
	case KindDate:
		return "Date"
	case KindTime:
		return "Time"
	case KindTimestampNtz:
		return "TimestampNtz"
	case KindTimestampLtz:
		return "TimestampLtz"
	case KindTimestampTz:
		return "TimestampTz"
	case KindStructuredObject:
		return "StructuredObject"
	case KindStructuredArray:
		return "StructuredArray"
	case KindStructuredMap:
		return "StructuredMap"
	default:
		return "Unknown"
	}
}

// Field is one named member of a StructuredObject, in declaration order.
type Field struct {
	Name string
	Type LogicalType
}

// LogicalType is a tagged variant over the warehouse's SQL type system.
// Only the fields relevant to Kind are populated; the rest are zero.
type LogicalType struct {
	Kind Kind

	// Fixed: scale 0..38, precision 1..38. Time/Timestamp*: scale 0..9.
	Scale     int8
	Precision int8

	Fields []Field      // StructuredObject
	Element *LogicalType // StructuredArray
	Key     *LogicalType // StructuredMap
	Value   *LogicalType // StructuredMap
}

// Fixed builds a Fixed{scale, precision} logical type.
func Fixed(scale, precision int8) LogicalType {
	return LogicalType{Kind: KindFixed, Scale: scale, Precision: precision}
}

// Simple builds a logical type for the kinds that carry no extra metadata.
func Simple(k Kind) LogicalType {
	return LogicalType{Kind: k}
}

// Temporal builds a Time/TimestampNtz/TimestampLtz/TimestampTz logical type.
func Temporal(k Kind, scale int8) LogicalType {
	return LogicalType{Kind: k, Scale: scale}
}

// StructuredObject builds an object type from an ordered field list.
func StructuredObject(fields ...Field) LogicalType {
	return LogicalType{Kind: KindStructuredObject, Fields: fields}
}

// StructuredArray builds an array type over element.
func StructuredArray(element LogicalType) LogicalType {
	return LogicalType{Kind: KindStructuredArray, Element: &element}
}

// StructuredMap builds a map type over key/value.
func StructuredMap(key, value LogicalType) LogicalType {
	return LogicalType{Kind: KindStructuredMap, Key: &key, Value: &value}
}

// IsFixedInteger reports whether t is Fixed{scale=0}.
func IsFixedInteger(t LogicalType) bool {
	return t.Kind == KindFixed && t.Scale == 0
}

// IsTemporal reports whether t is one of Date/Time/TimestampNtz/Ltz/Tz.
func IsTemporal(t LogicalType) bool {
	switch t.Kind {
	case KindDate, KindTime, KindTimestampNtz, KindTimestampLtz, KindTimestampTz:
		return true
	default:
		return false
	}
}

// IsContainer reports whether t is a StructuredObject/Array/Map.
func IsContainer(t LogicalType) bool {
	switch t.Kind {
	case KindStructuredObject, KindStructuredArray, KindStructuredMap:
		return true
	default:
		return false
	}
}

// WideningPolicy controls how a Fixed{scale=0} cell wider than int64 (a
// Decimal128/256 physical value, or a JSON literal too large for int64) is
// represented.
type WideningPolicy int

const (
	// WidenToBigDecimal always returns a decimal.Decimal for Fixed{scale=0}
	// values that overflow int64, never erroring on width alone.
	WidenToBigDecimal WideningPolicy = iota
	// ErrorOnOverflow returns an Overflow error instead of widening.
	ErrorOnOverflow
)

// ErrNotAContainer is returned by ElementOf when called on a non-container type.
var ErrNotAContainer = errors.New("logical type is not a container")

// ErrNotAScalar is returned when a scalar leaf conversion is attempted
// against a container LogicalType.
var ErrNotAScalar = errors.New("logical type is not a scalar leaf")

// ElementOf returns the element type of a StructuredArray, or the value type
// of a StructuredMap. It fails with ErrNotAContainer for any other kind.
func ElementOf(t LogicalType) (LogicalType, error) {
	switch t.Kind {
	case KindStructuredArray:
		return *t.Element, nil
	case KindStructuredMap:
		return *t.Value, nil
	default:
		return LogicalType{}, errors.Wrapf(ErrNotAContainer, "kind %s", t.Kind)
	}
}
