package payments

import (
	"errors"
	"math"
	"testing"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{name: "two_decimals", in: 49.99, want: 4999},
		{name: "whole", in: 10, want: 1000},
		{name: "one_decimal", in: 0.1, want: 10},
		{name: "float_noise", in: 19.99, want: 1999},
		{name: "half_rounds_up", in: 19.995, want: 2000},
		{name: "below_half_rounds_down", in: 19.994, want: 1999},
		{name: "tiny_half", in: 0.005, want: 1},
		{name: "ceiling", in: 999999.99, want: MaxMinorUnits},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnits(tt.in)
			if err != nil {
				t.Fatalf("ToMinorUnits(%v) error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ToMinorUnits(%v) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestToMinorUnits_OutOfRange(t *testing.T) {
	tests := []struct {
		name string
		in   float64
	}{
		{name: "zero", in: 0},
		{name: "rounds_to_zero", in: 0.004},
		{name: "negative", in: -5},
		{name: "above_ceiling", in: 1000000},
		{name: "wraps_to_small_charge", in: 1.8446744073709552e17},
		{name: "wraps_negative", in: 1e17},
		{name: "huge", in: 1e300},
		{name: "nan", in: math.NaN()},
		{name: "inf", in: math.Inf(1)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToMinorUnits(tt.in)
			if !errors.Is(err, ErrAmountOutOfRange) {
				t.Fatalf("ToMinorUnits(%v) = %d, %v; want ErrAmountOutOfRange", tt.in, got, err)
			}
			if got != 0 {
				t.Fatalf("ToMinorUnits(%v) = %d, want 0", tt.in, got)
			}
		})
	}
}
