package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Amount is the amount of a transaction as entered. It is kept as text so
// records round-trip unchanged; numeric value is derived with Value.
type Amount string

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseAmount parses the longest numeric prefix of s, ignoring leading
// whitespace. Anything unparsable, NaN or infinite yields 0.
//
//	ParseAmount("12.5")    -> 12.5
//	ParseAmount(" 40abc")  -> 40
//	ParseAmount("abc")     -> 0
func ParseAmount(s string) float64 {
	m := numericPrefix.FindString(strings.TrimLeft(s, " \t\n\r\f\v"))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// Value returns the numeric value of the amount, 0 when unparsable.
func (a Amount) Value() float64 {
	return ParseAmount(string(a))
}

func (a Amount) String() string {
	return string(a)
}

// MarshalJSON always encodes the amount as a JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(a))
}

// UnmarshalJSON accepts a JSON string, a JSON number (its literal text is
// kept) or null.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*a = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("amount must be a string or number: %w", err)
	}
	*a = Amount(n.String())
	return nil
}

// FormatMoney renders v with two decimals and a dollar sign, e.g. "$12.50"
// or "-$3.00".
func FormatMoney(v float64) string {
	if v < 0 {
		return "-$" + strconv.FormatFloat(-v, 'f', 2, 64)
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}
