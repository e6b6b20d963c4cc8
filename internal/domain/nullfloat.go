package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// NullFloat is a float64 that may be undefined. The zero value is undefined.
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Float returns a defined NullFloat holding v.
func Float(v float64) NullFloat {
	return NullFloat{Float64: v, Valid: true}
}

// MarshalJSON renders undefined values as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*n = NullFloat{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Float(v)
	return nil
}

// cell renders the value for the space-delimited table. Undefined values
// become an empty quoted string, never 0 or NaN.
func (n NullFloat) cell() string {
	if !n.Valid {
		return `""`
	}
	return strconv.FormatFloat(n.Float64, 'f', -1, 64)
}

func intsToNull(values []int64) []NullFloat {
	out := make([]NullFloat, len(values))
	for i, v := range values {
		out[i] = Float(float64(v))
	}
	return out
}

func floatsToNull(values []float64) []NullFloat {
	out := make([]NullFloat, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

// ParseCell reads a value rendered by the space-delimited table.
func ParseCell(s string) (NullFloat, error) {
	if s == `""` {
		return NullFloat{}, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NullFloat{}, err
	}
	return Float(v), nil
}
