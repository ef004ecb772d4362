package mrpt

import (
	"bytes"
	"testing"
)

func TestWriteToReadFromRoundTrip(t *testing.T) {
	t.Run("dense", func(t *testing.T) {
		x := clusteredData(32, 6)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 4, Depth: 3, Density: 1, Seed: 11}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}

		var buf bytes.Buffer
		n, err := f.WriteTo(&buf)
		if err != nil {
			t.Fatalf("WriteTo() error: %v", err)
		}
		if n != int64(buf.Len()) {
			t.Fatalf("WriteTo() reported %d bytes, buffer holds %d", n, buf.Len())
		}

		f2, _, err := ReadFrom(&buf, x)
		if err != nil {
			t.Fatalf("ReadFrom() error: %v", err)
		}

		if f2.NTrees() != f.NTrees() || f2.Depth() != f.Depth() {
			t.Fatalf("round-tripped forest shape = (trees=%d,depth=%d), want (trees=%d,depth=%d)",
				f2.NTrees(), f2.Depth(), f.NTrees(), f.Depth())
		}
		for t2 := range f.leafIndices {
			for i := range f.leafIndices[t2] {
				if f.leafIndices[t2][i] != f2.leafIndices[t2][i] {
					t.Fatalf("tree %d leaf index %d differs after round trip", t2, i)
				}
			}
		}
		for i := range f.splitPoints {
			if f.splitPoints[i] != f2.splitPoints[i] {
				t.Fatalf("split point %d differs after round trip: %v vs %v", i, f.splitPoints[i], f2.splitPoints[i])
			}
		}
	})

	t.Run("sparse", func(t *testing.T) {
		x := clusteredData(32, 6)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 4, Depth: 2, Density: 0.3, Seed: 23}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo() error: %v", err)
		}

		f2, _, err := ReadFrom(&buf, x)
		if err != nil {
			t.Fatalf("ReadFrom() error: %v", err)
		}
		if !f2.proj.isSparse() {
			t.Fatalf("round-tripped projection should remain sparse")
		}
		if len(f2.proj.values) != len(f.proj.values) {
			t.Fatalf("round-tripped nnz = %d, want %d", len(f2.proj.values), len(f.proj.values))
		}

		q := append([]float32(nil), x.Column(3)...)
		r1, err := f.NewSearch().WithK(1).WithVotesRequired(1).Execute(q)
		if err != nil {
			t.Fatalf("Execute() on original error: %v", err)
		}
		r2, err := f2.NewSearch().WithK(1).WithVotesRequired(1).Execute(q)
		if err != nil {
			t.Fatalf("Execute() on round-tripped forest error: %v", err)
		}
		if r1.Neighbors[0].Index != r2.Neighbors[0].Index {
			t.Fatalf("round-tripped forest gives different result: %d vs %d", r2.Neighbors[0].Index, r1.Neighbors[0].Index)
		}
	})
}

func TestPersistenceRejectsInvalidInput(t *testing.T) {
	t.Run("bad magic", func(t *testing.T) {
		x := clusteredData(10, 4)
		buf := bytes.NewBufferString("XXXX")
		if _, _, err := ReadFrom(buf, x); err == nil {
			t.Fatalf("ReadFrom() should reject a bad magic number")
		}
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		x := clusteredData(32, 6)
		f := NewForest(x)
		if err := f.Grow(GrowParams{NTrees: 2, Depth: 2, Density: 1, Seed: 1}); err != nil {
			t.Fatalf("Grow() error: %v", err)
		}

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != nil {
			t.Fatalf("WriteTo() error: %v", err)
		}

		wrongX := clusteredData(32, 4)
		if _, _, err := ReadFrom(&buf, wrongX); err == nil {
			t.Fatalf("ReadFrom() should reject a dimension mismatch")
		}
	})

	t.Run("empty forest", func(t *testing.T) {
		x := clusteredData(10, 4)
		f := NewForest(x)

		var buf bytes.Buffer
		if _, err := f.WriteTo(&buf); err != ErrEmptyForest {
			t.Fatalf("WriteTo() error = %v, want ErrEmptyForest", err)
		}
	})
}
