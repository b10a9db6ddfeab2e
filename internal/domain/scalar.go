package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Scalar holds a JSON scalar that the provider may send either as a number or
// as a string, e.g. confidence 85 and "85". It keeps the textual form; the
// empty Scalar means the attribute was absent or null.
type Scalar string

// UnmarshalJSON accepts strings, numbers, booleans and null. Objects and
// arrays carry nothing a scalar attribute can show and decode as absent.
func (s *Scalar) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*s = ""
		return nil
	case data[0] == '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Scalar(str)
		return nil
	case data[0] == '{' || data[0] == '[':
		*s = ""
		return nil
	default:
		*s = Scalar(data)
		return nil
	}
}

// Present reports whether the attribute carried a non-null value.
func (s Scalar) Present() bool {
	return s != ""
}

func (s Scalar) String() string {
	return string(s)
}

// Float parses the scalar as a finite float64. Absent, empty, non-numeric
// and non-finite values report false.
func (s Scalar) Float() (float64, bool) {
	return finite(strings.TrimSpace(string(s)))
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// LeadingFloat parses the longest numeric prefix of the scalar, so "85%"
// reads as 85. Text without a leading number reports false.
func (s Scalar) LeadingFloat() (float64, bool) {
	str := strings.TrimLeft(string(s), " \t\r\n")
	return finite(leadingNumber.FindString(str))
}

// Int parses the scalar as a number and truncates it toward zero.
func (s Scalar) Int() (int, bool) {
	v, ok := s.Float()
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return 0, false
	}
	return int(v), true
}

func finite(str string) (float64, bool) {
	if str == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Flag is an optional boolean attribute. The provider has sent it as a JSON
// boolean, as "true"/"false" text and as 0/1; anything else is treated as
// absent.
type Flag struct {
	value bool
	set   bool
}

// NewFlag returns a present Flag holding v.
func NewFlag(v bool) Flag {
	return Flag{value: v, set: true}
}

// UnmarshalJSON leaves the flag unset for unrecognized values.
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = Flag{}
	var s Scalar
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	str := strings.TrimSpace(s.String())
	switch strings.ToLower(str) {
	case "true":
		*f = NewFlag(true)
		return nil
	case "false":
		*f = NewFlag(false)
		return nil
	}
	if v, err := strconv.ParseFloat(str, 64); err == nil && (v == 0 || v == 1) {
		*f = NewFlag(v == 1)
	}
	return nil
}

// MarshalJSON writes the flag as a boolean, or null when absent.
func (f Flag) MarshalJSON() ([]byte, error) {
	if !f.set {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

// Bool returns the flag's value; ok is false when the attribute was absent.
func (f Flag) Bool() (v, ok bool) {
	return f.value, f.set
}
