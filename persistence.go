package mrpt

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Serialization format, written by WriteTo and read back by ReadFrom:
//
//  1. Magic number (4 bytes) - "MRPT"
//  2. Version (4 bytes)
//  3. n_samples, dim, n_trees, depth (4 bytes each, uint32)
//  4. density (4 bytes, float32) and votes (4 bytes, uint32)
//  5. split_points: n_array*n_trees float32s, column-major by tree
//     (n_array = 1<<(depth+1))
//  6. For each tree: leaf index count (4 bytes) followed by that many
//     int32 indices
//  7. Projection pool: a flag byte (1 = sparse, 0 = dense), then:
//     - dense: n_pool*dim float32s, row-major
//     - sparse: nnz (4 bytes) followed by nnz (row uint32, col uint32,
//       value float32) triples in row-major order
const (
	mrptMagic   = "MRPT"
	mrptVersion = uint32(1)
)

// WriteTo serializes the forest's tree structure and projection pool.
// The underlying data matrix is not written; ReadFrom reattaches a
// caller-supplied DataMatrix.
func (f *Forest) WriteTo(w io.Writer) (int64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.nTrees == 0 {
		return 0, ErrEmptyForest
	}

	var n int64
	write := func(v any) error {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
		n += int64(binarySize(v))
		return nil
	}

	if _, err := w.Write([]byte(mrptMagic)); err != nil {
		return n, fmt.Errorf("mrpt: write magic: %w", err)
	}
	n += 4

	if err := write(mrptVersion); err != nil {
		return n, fmt.Errorf("mrpt: write version: %w", err)
	}
	if err := write(uint32(f.x.NumSamples())); err != nil {
		return n, fmt.Errorf("mrpt: write n_samples: %w", err)
	}
	if err := write(uint32(f.x.Dim())); err != nil {
		return n, fmt.Errorf("mrpt: write dim: %w", err)
	}
	if err := write(uint32(f.nTrees)); err != nil {
		return n, fmt.Errorf("mrpt: write n_trees: %w", err)
	}
	if err := write(uint32(f.depth)); err != nil {
		return n, fmt.Errorf("mrpt: write depth: %w", err)
	}
	if err := write(f.density); err != nil {
		return n, fmt.Errorf("mrpt: write density: %w", err)
	}
	if err := write(uint32(f.votes)); err != nil {
		return n, fmt.Errorf("mrpt: write votes: %w", err)
	}

	if err := write(f.splitPoints); err != nil {
		return n, fmt.Errorf("mrpt: write split points: %w", err)
	}

	for t, leaves := range f.leafIndices {
		if err := write(uint32(len(leaves))); err != nil {
			return n, fmt.Errorf("mrpt: write tree %d leaf count: %w", t, err)
		}
		if err := write(leaves); err != nil {
			return n, fmt.Errorf("mrpt: write tree %d leaf indices: %w", t, err)
		}
	}

	sparse := f.proj.isSparse()
	flag := byte(0)
	if sparse {
		flag = 1
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return n, fmt.Errorf("mrpt: write storage flag: %w", err)
	}
	n++

	if !sparse {
		if err := write(f.proj.dense); err != nil {
			return n, fmt.Errorf("mrpt: write dense pool: %w", err)
		}
		return n, nil
	}

	nnz := len(f.proj.values)
	if err := write(uint32(nnz)); err != nil {
		return n, fmt.Errorf("mrpt: write nnz: %w", err)
	}
	for row := 0; row < f.proj.nPool; row++ {
		for k := f.proj.rowStart[row]; k < f.proj.rowStart[row+1]; k++ {
			if err := write(uint32(row)); err != nil {
				return n, fmt.Errorf("mrpt: write sparse row: %w", err)
			}
			if err := write(uint32(f.proj.colIdx[k])); err != nil {
				return n, fmt.Errorf("mrpt: write sparse col: %w", err)
			}
			if err := write(f.proj.values[k]); err != nil {
				return n, fmt.Errorf("mrpt: write sparse value: %w", err)
			}
		}
	}
	return n, nil
}

// ReadFrom deserializes a forest previously written by WriteTo,
// attaching x as its data matrix. x's dimension and sample count must
// match the serialized values.
func ReadFrom(r io.Reader, x DataMatrix) (*Forest, int64, error) {
	var n int64
	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return err
		}
		n += int64(binarySize(v))
		return nil
	}

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, n, fmt.Errorf("mrpt: read magic: %w", err)
	}
	n += 4
	if string(magic) != mrptMagic {
		return nil, n, fmt.Errorf("mrpt: bad magic %q", magic)
	}

	var version, nSamples, dim, nTrees, depth, votes uint32
	if err := read(&version); err != nil {
		return nil, n, fmt.Errorf("mrpt: read version: %w", err)
	}
	if version != mrptVersion {
		return nil, n, fmt.Errorf("mrpt: unsupported version %d", version)
	}
	if err := read(&nSamples); err != nil {
		return nil, n, fmt.Errorf("mrpt: read n_samples: %w", err)
	}
	if err := read(&dim); err != nil {
		return nil, n, fmt.Errorf("mrpt: read dim: %w", err)
	}
	if int(nSamples) != x.NumSamples() || int(dim) != x.Dim() {
		return nil, n, fmt.Errorf("mrpt: data matrix mismatch: serialized (n=%d,dim=%d), got (n=%d,dim=%d)",
			nSamples, dim, x.NumSamples(), x.Dim())
	}
	if err := read(&nTrees); err != nil {
		return nil, n, fmt.Errorf("mrpt: read n_trees: %w", err)
	}
	if err := read(&depth); err != nil {
		return nil, n, fmt.Errorf("mrpt: read depth: %w", err)
	}

	var density float32
	if err := read(&density); err != nil {
		return nil, n, fmt.Errorf("mrpt: read density: %w", err)
	}
	if err := read(&votes); err != nil {
		return nil, n, fmt.Errorf("mrpt: read votes: %w", err)
	}

	nArray := 1 << (depth + 1)
	splitPoints := make([]float32, nArray*int(nTrees))
	if err := read(splitPoints); err != nil {
		return nil, n, fmt.Errorf("mrpt: read split points: %w", err)
	}

	leafIndices := make([][]int32, nTrees)
	for t := range leafIndices {
		var count uint32
		if err := read(&count); err != nil {
			return nil, n, fmt.Errorf("mrpt: read tree %d leaf count: %w", t, err)
		}
		leaves := make([]int32, count)
		if err := read(leaves); err != nil {
			return nil, n, fmt.Errorf("mrpt: read tree %d leaf indices: %w", t, err)
		}
		leafIndices[t] = leaves
	}

	flagBuf := make([]byte, 1)
	if _, err := io.ReadFull(r, flagBuf); err != nil {
		return nil, n, fmt.Errorf("mrpt: read storage flag: %w", err)
	}
	n++

	var proj *ProjectionMatrix
	nPool := int(nTrees) * int(depth)
	if flagBuf[0] == 0 {
		dense := make([]float32, nPool*int(dim))
		if err := read(dense); err != nil {
			return nil, n, fmt.Errorf("mrpt: read dense pool: %w", err)
		}
		proj = &ProjectionMatrix{nPool: nPool, dim: int(dim), dense: dense}
	} else {
		var nnz uint32
		if err := read(&nnz); err != nil {
			return nil, n, fmt.Errorf("mrpt: read nnz: %w", err)
		}
		rowStart := make([]int, nPool+1)
		colIdx := make([]int32, nnz)
		values := make([]float32, nnz)
		for i := 0; i < int(nnz); i++ {
			var row, col uint32
			var val float32
			if err := read(&row); err != nil {
				return nil, n, fmt.Errorf("mrpt: read sparse row: %w", err)
			}
			if err := read(&col); err != nil {
				return nil, n, fmt.Errorf("mrpt: read sparse col: %w", err)
			}
			if err := read(&val); err != nil {
				return nil, n, fmt.Errorf("mrpt: read sparse value: %w", err)
			}
			colIdx[i] = int32(col)
			values[i] = val
			rowStart[row+1] = i + 1
		}
		for i := 1; i < len(rowStart); i++ {
			if rowStart[i] < rowStart[i-1] {
				rowStart[i] = rowStart[i-1]
			}
		}
		proj = &ProjectionMatrix{nPool: nPool, dim: int(dim), rowStart: rowStart, colIdx: colIdx, values: values}
	}

	f := &Forest{
		x:           x,
		nTrees:      int(nTrees),
		depth:       int(depth),
		density:     density,
		votes:       int(votes),
		proj:        proj,
		splitPoints: splitPoints,
		nArray:      nArray,
		leafIndices: leafIndices,
		leafOffsets: leafOffsets(int(nSamples), int(depth)),
		state:       stateBuilt,
	}
	if f.votes > 0 {
		f.state = stateTrimmed
	}
	return f, n, nil
}

// binarySize reports the byte length binary.Write/Read would use for
// v, mirroring the accounting the corpus's WriteTo/ReadFrom helpers
// keep for their int64 return value.
func binarySize(v any) int {
	switch x := v.(type) {
	case uint32, int32, float32, *uint32, *int32, *float32:
		return 4
	case uint64, int64, float64, *uint64, *int64, *float64:
		return 8
	case []float32:
		return len(x) * 4
	case []int32:
		return len(x) * 4
	case []uint32:
		return len(x) * 4
	default:
		return 0
	}
}
