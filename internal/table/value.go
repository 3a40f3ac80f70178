package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies which scalar a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindTime
	KindJSON // nested object/array kept as compact JSON text
)

// TimeLayout is the text form used for time cells in CSV output.
const TimeLayout = "2006-01-02 15:04:05-07:00"

// Value is one immutable table cell. The zero Value is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	t    time.Time
}

func Null() Value               { return Value{} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func Int(i int64) Value         { return Value{kind: KindInt, i: i} }
func Float(f float64) Value     { return Value{kind: KindFloat, f: f} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func Time(t time.Time) Value    { return Value{kind: KindTime, t: t} }
func JSON(raw string) Value     { return Value{kind: KindJSON, s: raw} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsNull() bool    { return v.kind == KindNull }
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Str returns the string payload of a KindString value.
func (v Value) Str() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Time returns the payload of a KindTime value.
func (v Value) Time() (time.Time, bool) {
	if v.kind != KindTime {
		return time.Time{}, false
	}
	return v.t, true
}

// Bool returns the payload of a KindBool value.
func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Float returns the value of an Int, Float or Bool cell as float64.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Numeric coerces a cell to a finite float64 the way a lenient numeric
// conversion would: numbers pass through, numeric strings are parsed, and
// anything else (including NaN and infinities) reports false.
func (v Value) Numeric() (float64, bool) {
	var f float64
	switch v.kind {
	case KindInt, KindFloat, KindBool:
		f, _ = v.Float()
	case KindString:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Text renders the cell for CSV output. Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "True"
		}
		return "False"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString, KindJSON:
		return v.s
	case KindTime:
		return v.t.Format(TimeLayout)
	}
	return ""
}

func (v Value) String() string { return v.Text() }

// Equal reports whether two cells hold the same value. Ints and floats
// compare numerically; nulls are never equal to anything, including null.
func (v Value) Equal(o Value) bool {
	if v.kind == KindNull || o.kind == KindNull {
		return false
	}
	if v.IsNumeric() && o.IsNumeric() {
		a, _ := v.Float()
		b, _ := o.Float()
		return a == b
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	default:
		return v.s == o.s
	}
}

// key returns a hashable form of the value consistent with Equal.
func (v Value) key() (string, bool) {
	switch v.kind {
	case KindNull:
		return "", false
	case KindInt, KindFloat:
		f, _ := v.Float()
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64), true
	case KindBool:
		return "b:" + strconv.FormatBool(v.b), true
	case KindTime:
		return "t:" + strconv.FormatInt(v.t.UnixNano(), 10), true
	case KindJSON:
		return "j:" + v.s, true
	}
	return "s:" + v.s, true
}
