package ticks

import (
	"errors"
	"testing"
)

func TestTickSize(t *testing.T) {
	cases := []struct {
		price float64
		want  float64
	}{
		{1.01, 0.01},
		{1.99, 0.01},
		{2.0, 0.02},
		{2.5, 0.02},
		{3.0, 0.05},
		{4.0, 0.1},
		{6.0, 0.2},
		{10.0, 0.5},
		{15.0, 0.5},
		{20.0, 1.0},
		{30.0, 2.0},
		{50.0, 5.0},
		{100.0, 10.0},
		{990.0, 10.0},
		{1000.0, 10.0},
	}
	for _, c := range cases {
		got, err := TickSize(c.price)
		if err != nil {
			t.Fatalf("TickSize(%.2f): unexpected error %v", c.price, err)
		}
		if got != c.want {
			t.Errorf("TickSize(%.2f) = %v, want %v", c.price, got, c.want)
		}
	}
}

func TestTickSizeOutOfRange(t *testing.T) {
	for _, price := range []float64{1.0, 0.5, 0, -3, 1000.01, 5000} {
		if _, err := TickSize(price); !errors.Is(err, ErrPriceOutOfRange) {
			t.Errorf("TickSize(%v): want ErrPriceOutOfRange, got %v", price, err)
		}
	}
}

func TestTicksBetween(t *testing.T) {
	cases := []struct {
		a, b float64
		want int
	}{
		{2.5, 2.5, 0},
		{2.5, 2.52, 1},
		{2.5, 2.6, 5},
		{1.99, 2.0, 1},
		{1.99, 2.02, 2},  // crosses the 0.01 -> 0.02 boundary
		{2.98, 3.05, 2},  // 2.98 -> 3.00 -> 3.05
		{15.0, 16.5, 3},  // 0.5 band
		{9.8, 10.5, 2},   // 9.8 -> 10.0 -> 10.5
		{100.0, 130.0, 3},
	}
	for _, c := range cases {
		got, err := TicksBetween(c.a, c.b)
		if err != nil {
			t.Fatalf("TicksBetween(%v, %v): unexpected error %v", c.a, c.b, err)
		}
		if got != c.want {
			t.Errorf("TicksBetween(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestTicksBetweenOrderIndependent(t *testing.T) {
	a, b := 3.2, 15.0
	fwd, err := TicksBetween(a, b)
	if err != nil {
		t.Fatal(err)
	}
	rev, err := TicksBetween(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if fwd != rev {
		t.Errorf("TicksBetween not order independent: %d vs %d", fwd, rev)
	}
	if fwd <= 0 {
		t.Errorf("TicksBetween(%v, %v) = %d, want > 0", a, b, fwd)
	}
}

func TestDistanceTicks(t *testing.T) {
	cases := []struct {
		price, ref float64
		want       int
	}{
		{15.0, 15.5, 1},  // 0.5 increment at 15.0
		{16.5, 15.5, 2},
		{15.5, 15.5, 0},
		{2.5, 2.57, 4},   // 0.07 / 0.02 rounds to 4
		{40.0, 15.5, 12}, // 24.5 / 2.0 rounds to 12
	}
	for _, c := range cases {
		got, err := DistanceTicks(c.price, c.ref)
		if err != nil {
			t.Fatalf("DistanceTicks(%v, %v): unexpected error %v", c.price, c.ref, err)
		}
		if got != c.want {
			t.Errorf("DistanceTicks(%v, %v) = %d, want %d", c.price, c.ref, got, c.want)
		}
	}
}

func TestDistanceTicksSymmetricWithinBand(t *testing.T) {
	// Both prices in the 10-20 band share an increment, so swapping the
	// arguments must not change the distance.
	a, b := 14.5, 16.5
	d1, err := DistanceTicks(a, b)
	if err != nil {
		t.Fatal(err)
	}
	d2, err := DistanceTicks(b, a)
	if err != nil {
		t.Fatal(err)
	}
	if d1 != d2 {
		t.Errorf("DistanceTicks asymmetric: %d vs %d", d1, d2)
	}
	if d1 < 0 {
		t.Errorf("DistanceTicks negative: %d", d1)
	}
}
