// Package datatypes holds the ETP data model that sits above the wire
// encoding: tagged-union values, client credentials, and the published
// capability tables the negotiator consults.
package datatypes

import (
	"fmt"
	"strconv"
)

// DataValueKind discriminates the variants a DataValue can carry. The
// primitive kinds each have a named constant; all array variants share the
// single KindArray constant and are not enumerated individually, since the
// negotiator never inspects array or sparse-array variants (§3).
type DataValueKind int

const (
	KindUnset DataValueKind = iota
	KindBoolean
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindString
	KindBytes
	KindArray
)

// DataValue is a tagged union over ETP's primitive and array value types.
// It is implemented as a sum type (a Kind discriminant plus one populated
// field per variant), never as an untyped container, per the "dynamic
// tagged values" design note: negotiation branches on Kind, not on
// reflection.
type DataValue struct {
	Kind DataValueKind

	Boolean bool
	Int     int32
	Long    int64
	Float   float32
	Double  float64
	String  string
	Bytes   []byte
	Array   []DataValue
}

func NewBoolean(v bool) DataValue   { return DataValue{Kind: KindBoolean, Boolean: v} }
func NewInt(v int32) DataValue      { return DataValue{Kind: KindInt, Int: v} }
func NewLong(v int64) DataValue     { return DataValue{Kind: KindLong, Long: v} }
func NewFloat(v float32) DataValue  { return DataValue{Kind: KindFloat, Float: v} }
func NewDouble(v float64) DataValue { return DataValue{Kind: KindDouble, Double: v} }
func NewString(v string) DataValue  { return DataValue{Kind: KindString, String: v} }
func NewBytes(v []byte) DataValue   { return DataValue{Kind: KindBytes, Bytes: v} }

// AsInt64 reduces a DataValue to an integer when the negotiator's numeric
// rule applies: Long/Int/Float/Double are truncated, and a String is parsed
// as a base-10 integer. The second return is false for any other kind.
func (d DataValue) AsInt64() (int64, bool) {
	switch d.Kind {
	case KindLong:
		return d.Long, true
	case KindInt:
		return int64(d.Int), true
	case KindFloat:
		return int64(d.Float), true
	case KindDouble:
		return int64(d.Double), true
	case KindString:
		n, err := strconv.ParseInt(d.String, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// AsBool reduces a DataValue to a boolean when it is KindBoolean.
func (d DataValue) AsBool() (bool, bool) {
	if d.Kind == KindBoolean {
		return d.Boolean, true
	}
	return false, false
}

// Format renders the value for logging (named Format, not String, since
// String is already a field of this struct).
func (d DataValue) Format() string {
	switch d.Kind {
	case KindBoolean:
		return fmt.Sprintf("%v", d.Boolean)
	case KindInt:
		return fmt.Sprintf("%d", d.Int)
	case KindLong:
		return fmt.Sprintf("%d", d.Long)
	case KindFloat:
		return fmt.Sprintf("%v", d.Float)
	case KindDouble:
		return fmt.Sprintf("%v", d.Double)
	case KindString:
		return d.String
	default:
		return fmt.Sprintf("<%v>", d.Kind)
	}
}
