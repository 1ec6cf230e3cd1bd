package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestComputePercentChange(t *testing.T) {
	tests := []struct {
		name         string
		previous     string
		current      string
		wantValue    float64
		wantNoActive bool
	}{
		{"growth", "100", "150", 50, false},
		{"decline", "200", "100", -50, false},
		{"flat", "100", "100", 0, false},
		{"zero previous is no-activity not infinity", "0", "200", 0, true},
		{"negative previous is no-activity", "-5", "200", 0, true},
		{"current zero", "80", "0", -100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := decimal.RequireFromString(tt.previous)
			cur := decimal.RequireFromString(tt.current)

			got := ComputePercentChange(prev, cur)
			if got.NoActivity() != tt.wantNoActive {
				t.Fatalf("NoActivity() = %v, want %v", got.NoActivity(), tt.wantNoActive)
			}
			if tt.wantNoActive {
				if _, ok := got.Value(); ok {
					t.Error("no-activity change must not carry a value")
				}
				return
			}
			v, ok := got.Value()
			if !ok {
				t.Fatal("expected numeric change")
			}
			if v != tt.wantValue {
				t.Errorf("value = %v, want %v", v, tt.wantValue)
			}
		})
	}
}

func TestPercentChange_ZeroValueIsNone(t *testing.T) {
	var c PercentChange
	if !c.None() {
		t.Error("zero PercentChange should be the absent state")
	}
	if c.NoActivity() {
		t.Error("zero PercentChange should not report no-activity")
	}
	if _, ok := c.Value(); ok {
		t.Error("zero PercentChange should not carry a value")
	}
}

func TestPercentChange_String(t *testing.T) {
	tests := []struct {
		c    PercentChange
		want string
	}{
		{PercentChangeOf(12.5), "+12.5%"},
		{PercentChangeOf(-3.2), "-3.2%"},
		{PercentChangeNoActivity(), "new"},
		{PercentChange{}, "n/a"},
	}

	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
