package discount

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrMalformed = errors.New("malformed discount")

type Kind string

const (
	KindPercentage Kind = "p"
	KindAbsolute   Kind = "a"
)

// Value is either a percentage off or an absolute amount off.
// Amount is never negative.
type Value struct {
	Kind   Kind
	Amount int64
}

func Percentage(n int64) Value { return Value{Kind: KindPercentage, Amount: n} }

func Absolute(n int64) Value { return Value{Kind: KindAbsolute, Amount: n} }

// None is the zero discount used when a line or order carries no discount.
func None() Value { return Absolute(0) }

func (v Value) IsZero() bool { return v.Amount == 0 }

// Apply returns base reduced by v. The result is clamped to [0, base].
// No rounding is applied; callers format money at the edge.
func Apply(v Value, base float64) float64 {
	var out float64
	switch v.Kind {
	case KindPercentage:
		out = base * (1 - float64(v.Amount)/100)
	case KindAbsolute:
		out = base - float64(v.Amount)
	default:
		out = base
	}
	if out < 0 {
		return 0
	}
	if out > base {
		return base
	}
	return out
}

func (v Value) String() string {
	k := v.Kind
	if k == "" {
		k = KindAbsolute
	}
	return string(k) + "|" + strconv.FormatInt(v.Amount, 10)
}

// Parse reads the "<p|a>|<value>" form.
func Parse(s string) (Value, error) {
	parts := strings.Split(s, "|")
	if len(parts) != 2 {
		return Value{}, fmt.Errorf("%w: %q", ErrMalformed, s)
	}

	var k Kind
	switch parts[0] {
	case string(KindPercentage):
		k = KindPercentage
	case string(KindAbsolute):
		k = KindAbsolute
	default:
		return Value{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, parts[0])
	}

	// digits only: no sign, no spaces
	if parts[1] == "" || strings.Trim(parts[1], "0123456789") != "" {
		return Value{}, fmt.Errorf("%w: invalid amount %q", ErrMalformed, parts[1])
	}
	n, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Value{}, fmt.Errorf("%w: invalid amount %q", ErrMalformed, parts[1])
	}
	return Value{Kind: k, Amount: n}, nil
}

func (v Value) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

func (v *Value) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*v = None()
		return nil
	}
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
