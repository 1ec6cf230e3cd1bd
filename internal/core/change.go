package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type changeKind int

const (
	changeNone changeKind = iota
	changeNoActivity
	changeValue
)

// PercentChange is a tri-state percent-change value: a number, an explicit
// "no prior activity" marker, or absent. It is never silently zero.
type PercentChange struct {
	kind  changeKind
	value float64
}

// PercentChangeOf returns a numeric percent-change.
func PercentChangeOf(v float64) PercentChange {
	return PercentChange{kind: changeValue, value: v}
}

// PercentChangeNoActivity returns the "no prior activity" marker.
func PercentChangeNoActivity() PercentChange {
	return PercentChange{kind: changeNoActivity}
}

// ComputePercentChange applies (current - previous) / previous * 100.
// A previous sum <= 0 yields the no-activity marker, never a division.
func ComputePercentChange(previous, current decimal.Decimal) PercentChange {
	if previous.Sign() <= 0 {
		return PercentChangeNoActivity()
	}
	pct := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100))
	v, _ := pct.Float64()
	return PercentChangeOf(v)
}

// Value returns the numeric change and whether one is present.
func (c PercentChange) Value() (float64, bool) {
	return c.value, c.kind == changeValue
}

// NoActivity reports whether there was no prior-period activity.
func (c PercentChange) NoActivity() bool { return c.kind == changeNoActivity }

// None reports whether the value is absent entirely.
func (c PercentChange) None() bool { return c.kind == changeNone }

func (c PercentChange) String() string {
	switch c.kind {
	case changeValue:
		return fmt.Sprintf("%+.1f%%", c.value)
	case changeNoActivity:
		return "new"
	default:
		return "n/a"
	}
}
