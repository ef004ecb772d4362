package mrpt

// leafSizes computes, for a median-split tree of the given depth over n
// points, the size of every leaf in left-to-right order. At each
// internal node with m points the left child gets ceil(m/2) and the
// right floor(m/2) — the extra point on an odd count always goes left.
// Leaf sizes are therefore deterministic from n and depth alone and can
// be shared across every tree built over the same n.
func leafSizes(n, depth int) []int {
	sizes := make([]int, 0, 1<<depth)
	var recurse func(n, level int)
	recurse = func(n, level int) {
		if level == depth {
			sizes = append(sizes, n)
			return
		}
		recurse(n-n/2, level+1)
		recurse(n/2, level+1)
	}
	recurse(n, 0)
	return sizes
}

// leafOffsets returns the prefix-sum array of leafSizes(n, depth): a
// slice of length 2^depth+1 such that leaf l occupies
// indices[offsets[l]:offsets[l+1]) of a tree's flattened leaf-index
// array.
func leafOffsets(n, depth int) []int {
	sizes := leafSizes(n, depth)
	offsets := make([]int, len(sizes)+1)
	for i, s := range sizes {
		offsets[i+1] = offsets[i] + s
	}
	return offsets
}

// leafOffsetsByDepth computes leafOffsets(n, d) for every d in
// [0, depthMax], indexed by depth. The auto-tuner's saturation pass
// (phase A) needs the leaf boundaries at every intermediate depth, not
// just depthMax.
func leafOffsetsByDepth(n, depthMax int) [][]int {
	all := make([][]int, depthMax+1)
	for d := 0; d <= depthMax; d++ {
		all[d] = leafOffsets(n, d)
	}
	return all
}
