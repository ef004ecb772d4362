package mrpt

// quickselectByKey partitions idx[lo..hi] (both ends inclusive) in place
// around its k-th smallest element (k is absolute, lo <= k <= hi),
// ordered by key(idx[i]). After it returns, idx[k] holds the k-th
// smallest value, everything in idx[lo:k] is <= key(idx[k]), and
// everything in idx[k+1:hi+1] is >=.
//
// Deterministic middle-element pivot selection, mirroring the
// quickselect used elsewhere in the corpus for top-k graph pruning.
func quickselectByKey(idx []int32, key func(int32) float32, lo, hi, k int) {
	for lo < hi {
		pivotIdx := lo + (hi-lo)/2
		pivotVal := key(idx[pivotIdx])

		idx[pivotIdx], idx[hi] = idx[hi], idx[pivotIdx]

		store := lo
		for i := lo; i < hi; i++ {
			if key(idx[i]) < pivotVal {
				idx[i], idx[store] = idx[store], idx[i]
				store++
			}
		}
		idx[store], idx[hi] = idx[hi], idx[store]

		switch {
		case store == k:
			return
		case store < k:
			lo = store + 1
		default:
			hi = store - 1
		}
	}
}
