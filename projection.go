package mrpt

import "math/rand"

// ProjectionMatrix holds the (nPool x dim) random projection pool shared
// by every tree in a Forest. Row block [t*depth, (t+1)*depth) holds the
// random vectors tree t uses at levels 0..depth-1 (see Forest.Grow).
//
// ProjectionMatrix is a tagged variant over two storage strategies: a
// dense row-major matrix, or a compressed sparse (CSR) matrix for
// density < 1. Both satisfy the same project/projectMatrix contract.
type ProjectionMatrix struct {
	nPool int
	dim   int

	dense []float32 // row-major nPool x dim, nil when sparse

	// CSR storage, nil when dense.
	rowStart []int
	colIdx   []int32
	values   []float32
}

// newDenseProjectionMatrix draws every entry independently from N(0,1).
func newDenseProjectionMatrix(nPool, dim int, rng *rand.Rand) *ProjectionMatrix {
	data := make([]float32, nPool*dim)
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return &ProjectionMatrix{nPool: nPool, dim: dim, dense: data}
}

// newSparseProjectionMatrix iterates in row-major order; each cell is
// included with probability density (value N(0,1)) and omitted
// otherwise.
func newSparseProjectionMatrix(nPool, dim int, density float32, rng *rand.Rand) *ProjectionMatrix {
	rowStart := make([]int, nPool+1)
	var colIdx []int32
	var values []float32

	for row := 0; row < nPool; row++ {
		rowStart[row] = len(values)
		for col := 0; col < dim; col++ {
			if rng.Float32() > density {
				continue
			}
			colIdx = append(colIdx, int32(col))
			values = append(values, float32(rng.NormFloat64()))
		}
	}
	rowStart[nPool] = len(values)

	return &ProjectionMatrix{
		nPool:    nPool,
		dim:      dim,
		rowStart: rowStart,
		colIdx:   colIdx,
		values:   values,
	}
}

// newProjectionMatrix builds a dense (density >= 1) or sparse
// (density < 1) pool of nPool random vectors over dim dimensions.
func newProjectionMatrix(nPool, dim int, density float32, seed uint64) *ProjectionMatrix {
	rng := newSeededRand(seed)
	if density >= 1 {
		return newDenseProjectionMatrix(nPool, dim, rng)
	}
	return newSparseProjectionMatrix(nPool, dim, density, rng)
}

func (p *ProjectionMatrix) isSparse() bool { return p.dense == nil }

// project computes P*v, the projection of a single dim-length vector
// onto every row of the pool.
func (p *ProjectionMatrix) project(v []float32) []float32 {
	out := make([]float32, p.nPool)
	if p.isSparse() {
		for row := 0; row < p.nPool; row++ {
			var sum float32
			for k := p.rowStart[row]; k < p.rowStart[row+1]; k++ {
				sum += p.values[k] * v[p.colIdx[k]]
			}
			out[row] = sum
		}
		return out
	}

	for row := 0; row < p.nPool; row++ {
		rowData := p.dense[row*p.dim : (row+1)*p.dim]
		var sum float32
		for c, x := range v {
			sum += rowData[c] * x
		}
		out[row] = sum
	}
	return out
}

// projectRows computes rows[rowFrom:rowFrom+count]*v — the projection
// restricted to a contiguous row slab, used by Forest.Grow to project
// only a single tree's rows against the whole data matrix at once.
func (p *ProjectionMatrix) projectRows(rowFrom, count int, v []float32) []float32 {
	out := make([]float32, count)
	if p.isSparse() {
		for r := 0; r < count; r++ {
			row := rowFrom + r
			var sum float32
			for k := p.rowStart[row]; k < p.rowStart[row+1]; k++ {
				sum += p.values[k] * v[p.colIdx[k]]
			}
			out[r] = sum
		}
		return out
	}

	for r := 0; r < count; r++ {
		row := rowFrom + r
		rowData := p.dense[row*p.dim : (row+1)*p.dim]
		var sum float32
		for c, x := range v {
			sum += rowData[c] * x
		}
		out[r] = sum
	}
	return out
}

// projectMatrix computes the (count x nSamples) projection of every
// column of X against rows [rowFrom, rowFrom+count) of the pool. The
// result is row-major: result[level*nSamples+i] is the projection of
// column i at level `level`.
func (p *ProjectionMatrix) projectMatrix(rowFrom, count int, X DataMatrix) []float32 {
	n := X.NumSamples()
	out := make([]float32, count*n)
	for i := 0; i < n; i++ {
		col := X.Column(i)
		rowVals := p.projectRows(rowFrom, count, col)
		for level := 0; level < count; level++ {
			out[level*n+i] = rowVals[level]
		}
	}
	return out
}

// rowSlab extracts rows [rowFrom, rowFrom+count) as a new, independent
// ProjectionMatrix of the same storage kind. Used by Subset/
// DeleteExtraTrees to build a projection sub-matrix without aliasing the
// parent's backing arrays.
func (p *ProjectionMatrix) rowSlab(rowFrom, count int) *ProjectionMatrix {
	if p.isSparse() {
		rowStart := make([]int, count+1)
		var colIdx []int32
		var values []float32
		for r := 0; r < count; r++ {
			row := rowFrom + r
			rowStart[r] = len(values)
			for k := p.rowStart[row]; k < p.rowStart[row+1]; k++ {
				colIdx = append(colIdx, p.colIdx[k])
				values = append(values, p.values[k])
			}
		}
		rowStart[count] = len(values)
		return &ProjectionMatrix{nPool: count, dim: p.dim, rowStart: rowStart, colIdx: colIdx, values: values}
	}

	dense := make([]float32, count*p.dim)
	copy(dense, p.dense[rowFrom*p.dim:(rowFrom+count)*p.dim])
	return &ProjectionMatrix{nPool: count, dim: p.dim, dense: dense}
}

// mergeProjectionRows appends extra's rows after base's rows, both of
// the same storage kind and dimension, returning a new independent
// ProjectionMatrix. Used to reassemble a depth-truncated pool from
// depthMax-wide per-tree blocks when trimming a forest to fewer
// levels per tree.
func mergeProjectionRows(base, extra *ProjectionMatrix) *ProjectionMatrix {
	if base.isSparse() {
		rowStart := make([]int, 0, base.nPool+extra.nPool+1)
		rowStart = append(rowStart, base.rowStart[:base.nPool]...)
		offset := len(base.values)
		for _, s := range extra.rowStart[:extra.nPool] {
			rowStart = append(rowStart, s+offset)
		}
		rowStart = append(rowStart, offset+len(extra.values))

		colIdx := append(append([]int32(nil), base.colIdx...), extra.colIdx...)
		values := append(append([]float32(nil), base.values...), extra.values...)

		return &ProjectionMatrix{
			nPool:    base.nPool + extra.nPool,
			dim:      base.dim,
			rowStart: rowStart,
			colIdx:   colIdx,
			values:   values,
		}
	}

	dense := append(append([]float32(nil), base.dense...), extra.dense...)
	return &ProjectionMatrix{nPool: base.nPool + extra.nPool, dim: base.dim, dense: dense}
}
