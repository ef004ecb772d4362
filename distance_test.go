package mrpt

import "testing"

func TestSquaredEuclidean(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"unit-diff", []float32{0, 0}, []float32{1, 0}, 1},
		{"3-4-5", []float32{0, 0}, []float32{3, 4}, 25},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := squaredEuclidean(c.a, c.b)
			if got != c.want {
				t.Fatalf("squaredEuclidean(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
			}
		})
	}
}

func TestEuclidean(t *testing.T) {
	got := euclidean([]float32{0, 0}, []float32{3, 4})
	if got != 5 {
		t.Fatalf("euclidean = %v, want 5", got)
	}
}
