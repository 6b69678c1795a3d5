package geospatial_test

import (
	"math"
	"testing"

	"github.com/Andrey-Khohlov/rollermap/internal/pkg/geospatial"
)

func TestDecimate(t *testing.T) {
	for _, n := range []int{0, 1, 4, 5, 6, 10, 11, 25, 26} {
		s := make([]int, n)
		for i := range s {
			s[i] = i
		}
		got := geospatial.Decimate(s, 5)
		want := (n + 4) / 5
		if len(got) != want {
			t.Fatalf("n=%d: expected %d elements, got %d", n, want, len(got))
		}
		for i, v := range got {
			if v != i*5 {
				t.Errorf("n=%d: element %d should come from position %d, got %d", n, i, i*5, v)
			}
		}
	}
}

func TestDecimate_StrideOneCopies(t *testing.T) {
	s := []int{1, 2, 3}
	got := geospatial.Decimate(s, 1)
	if len(got) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(got))
	}
	got[0] = 99
	if s[0] != 1 {
		t.Error("decimate must not alias its input")
	}
}

func TestHaversine(t *testing.T) {
	// One degree of latitude is roughly 111.2 km.
	d := geospatial.Haversine(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Errorf("expected ~111195m, got %.0f", d)
	}
	if geospatial.Haversine(55.75, 37.61, 55.75, 37.61) != 0 {
		t.Error("distance to self should be zero")
	}
}
