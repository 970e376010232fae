package calculator

import (
	"math"
	"testing"
)

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name         string
		amount       float64
		numParts     int
		wantErr      bool
		validateFunc func(t *testing.T, splits []float64)
	}{
		{
			name:     "even three-way split",
			amount:   9.0,
			numParts: 3,
			validateFunc: func(t *testing.T, splits []float64) {
				for i, s := range splits {
					if s != 3.0 {
						t.Errorf("splits[%d] = %v, want 3.0", i, s)
					}
				}
			},
		},
		{
			name:     "ten dollars across three leaves the odd cent on the last part",
			amount:   10.0,
			numParts: 3,
			validateFunc: func(t *testing.T, splits []float64) {
				want := []float64{3.33, 3.33, 3.34}
				for i := range want {
					if splits[i] != want[i] {
						t.Errorf("splits[%d] = %v, want %v", i, splits[i], want[i])
					}
				}
			},
		},
		{
			name:     "single part gets everything",
			amount:   12.34,
			numParts: 1,
			validateFunc: func(t *testing.T, splits []float64) {
				if splits[0] != 12.34 {
					t.Errorf("splits[0] = %v, want 12.34", splits[0])
				}
			},
		},
		{
			name:     "one cent across two parts",
			amount:   0.01,
			numParts: 2,
			validateFunc: func(t *testing.T, splits []float64) {
				if splits[0] != 0 || splits[1] != 0.01 {
					t.Errorf("splits = %v, want [0 0.01]", splits)
				}
			},
		},
		{
			name:     "negative amount splits symmetrically",
			amount:   -10.0,
			numParts: 3,
			validateFunc: func(t *testing.T, splits []float64) {
				want := []float64{-3.33, -3.33, -3.34}
				for i := range want {
					if splits[i] != want[i] {
						t.Errorf("splits[%d] = %v, want %v", i, splits[i], want[i])
					}
				}
			},
		},
		{
			name:     "zero amount",
			amount:   0,
			numParts: 4,
			validateFunc: func(t *testing.T, splits []float64) {
				for i, s := range splits {
					if s != 0 {
						t.Errorf("splits[%d] = %v, want 0", i, s)
					}
				}
			},
		},
		{
			name:     "two leftover cents land on the last two parts",
			amount:   10.01,
			numParts: 3,
			validateFunc: func(t *testing.T, splits []float64) {
				want := []float64{3.33, 3.34, 3.34}
				for i := range want {
					if splits[i] != want[i] {
						t.Errorf("splits[%d] = %v, want %v", i, splits[i], want[i])
					}
				}
			},
		},
		{
			name:    "amount beyond the integer cent range",
			amount:  math.MaxFloat64,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.numParts == 0 {
				tt.numParts = 2
			}
			splits, err := SplitAmount(tt.amount, tt.numParts)
			if tt.wantErr {
				if err != ErrNumberTooLarge {
					t.Fatalf("SplitAmount error = %v, want ErrNumberTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("SplitAmount failed: %v", err)
			}
			if len(splits) != tt.numParts {
				t.Fatalf("got %d parts, want %d", len(splits), tt.numParts)
			}
			var sum float64
			for _, s := range splits {
				sum += s
			}
			wantSum := math.Round(tt.amount*100) / 100
			if math.Abs(sum-wantSum) > 1e-9 {
				t.Errorf("sum of splits = %v, want %v", sum, wantSum)
			}
			if tt.validateFunc != nil {
				tt.validateFunc(t, splits)
			}
		})
	}
}

func TestSplitAmountNoParts(t *testing.T) {
	for _, n := range []int{0, -1} {
		splits, err := SplitAmount(10, n)
		if err != nil {
			t.Fatalf("SplitAmount(10, %d) failed: %v", n, err)
		}
		if splits != nil {
			t.Errorf("SplitAmount(10, %d) = %v, want nil", n, splits)
		}
	}
}

// The split is exact for any cent amount and part count: the pieces always
// sum back to the rounded input.
func TestSplitAmountSumInvariant(t *testing.T) {
	amounts := []float64{0.01, 0.07, 1, 19.99, 100, 12345.67, -0.05, -99.99}
	for _, amount := range amounts {
		for parts := 1; parts <= 11; parts++ {
			splits, err := SplitAmount(amount, parts)
			if err != nil {
				t.Fatalf("SplitAmount(%v, %d) failed: %v", amount, parts, err)
			}
			var sum float64
			for _, s := range splits {
				sum += s
			}
			want := math.Round(amount*100) / 100
			if math.Abs(sum-want) > 1e-9 {
				t.Errorf("SplitAmount(%v, %d): sum = %v, want %v", amount, parts, sum, want)
			}
		}
	}
}
