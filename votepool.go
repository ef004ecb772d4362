package mrpt

import "sync"

// voteBuffer is the per-query scratch counter used by the voting pass:
// a dense slot per sample, re-zeroed for every query per spec. Buffers
// are pooled across calls so repeated queries against the same forest
// don't pay an allocation each time; a monotonically incrementing
// epoch stamp lets a warm buffer skip the O(n_samples) re-zero between
// queries while still behaving exactly like a freshly zeroed counter.
type voteBuffer struct {
	gen   []uint32
	votes []int32
	epoch uint32
}

var votePool = sync.Pool{New: func() any { return new(voteBuffer) }}

// acquireVoteBuffer checks out a voteBuffer sized for at least n
// samples and advances its epoch, invalidating every previously
// recorded vote.
func acquireVoteBuffer(n int) *voteBuffer {
	vb, _ := votePool.Get().(*voteBuffer)
	if vb == nil {
		vb = &voteBuffer{}
	}
	if len(vb.gen) < n {
		vb.gen = make([]uint32, n)
		vb.votes = make([]int32, n)
		vb.epoch = 0
	}
	vb.epoch++
	if vb.epoch == 0 {
		// wrapped past the uint32 range: fall back to a real reset.
		for i := range vb.gen {
			vb.gen[i] = 0
		}
		vb.epoch = 1
	}
	return vb
}

func releaseVoteBuffer(vb *voteBuffer) {
	votePool.Put(vb)
}

// increment registers one vote for idx and returns its new count for
// the buffer's current epoch, lazily zeroing idx's slot if it still
// carries a count from an earlier query.
func (vb *voteBuffer) increment(idx int32) int {
	i := int(idx)
	if vb.gen[i] != vb.epoch {
		vb.gen[i] = vb.epoch
		vb.votes[i] = 0
	}
	vb.votes[i]++
	return int(vb.votes[i])
}
