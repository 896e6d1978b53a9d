package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Cents is a monetary amount in hundredths of the currency unit.
// Amounts are kept as integers so that line and order totals never drift.
type Cents int64

// CentsFromFloat rounds a decimal amount half away from zero to the nearest cent
func CentsFromFloat(v float64) Cents {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return Cents(math.Round(v * 100))
}

// ParsePrice converts a raw catalog price into Cents. Numbers are used as is,
// strings are parsed directly and then with every character other than digits
// and '.' stripped ("$3.50", "3.50 USD"). Anything else yields 0.
func ParsePrice(raw any) Cents {
	switch v := raw.(type) {
	case nil:
		return 0
	case float64:
		return CentsFromFloat(v)
	case float32:
		return CentsFromFloat(float64(v))
	case int:
		return Cents(v) * 100
	case int64:
		return Cents(v) * 100
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return ParsePrice(v.String())
		}
		return CentsFromFloat(f)
	case string:
		s := strings.TrimSpace(v)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return CentsFromFloat(f)
		}
		var b strings.Builder
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		f, err := strconv.ParseFloat(b.String(), 64)
		if err != nil {
			return 0
		}
		return CentsFromFloat(f)
	default:
		return 0
	}
}

// Float returns the amount in currency units
func (c Cents) Float() float64 {
	return float64(c) / 100
}

func (c Cents) String() string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + strconv.FormatInt(int64(c)/100, 10) + "." + pad2(int64(c)%100)
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}

// MarshalJSON renders the amount as a decimal number with two fraction digits
func (c Cents) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalJSON accepts the same lenient forms as ParsePrice
func (c *Cents) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*c = ParsePrice(raw)
	return nil
}
