package mrpt

// DataMatrix is a read-only, column-major accessor over a dense
// real-valued dataset. Column i holds the i-th point's dim components.
// Implementations are borrowed, not owned: a DataMatrix must outlive
// every Forest built from it.
type DataMatrix interface {
	// Dim returns the dimensionality of each column.
	Dim() int

	// NumSamples returns the number of columns (data points).
	NumSamples() int

	// Column returns the i-th point. Callers must not mutate the
	// returned slice.
	Column(i int) []float32
}

// QueryMatrix is the same column-major contract as DataMatrix, used for
// the held-out query set consumed by Autotune.
type QueryMatrix interface {
	Dim() int
	NumSamples() int
	Column(i int) []float32
}

// DenseMatrix is the reference DataMatrix/QueryMatrix implementation: a
// flat, caller-owned []float32 laid out column-major (dim rows, n
// columns).
type DenseMatrix struct {
	dim     int
	n       int
	columns []float32
}

// NewDenseMatrix wraps data (column-major, length dim*n) without
// copying it. The caller retains ownership and must not mutate it while
// any Forest references it.
func NewDenseMatrix(dim, n int, data []float32) *DenseMatrix {
	return &DenseMatrix{dim: dim, n: n, columns: data}
}

func (m *DenseMatrix) Dim() int        { return m.dim }
func (m *DenseMatrix) NumSamples() int { return m.n }

func (m *DenseMatrix) Column(i int) []float32 {
	start := i * m.dim
	return m.columns[start : start+m.dim]
}
