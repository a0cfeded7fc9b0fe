package transform

import "github.com/xitonix/xmask/pixel"

// Permute shuffles the groups using the hash sequence.
//
// Output slot i receives the (seq[i] mod remaining)-th element of a shrinking pool,
// which is then removed from the pool. The result is a bijection for any sequence.
// The sequence is expected to be generated for len(groups), see hash.Sequence.
func Permute(groups []pixel.Group, seq []int) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	if len(seq) == 0 {
		copy(out, groups)
		return out
	}

	pool := indices(len(groups))
	for i := range out {
		k := seq[i%len(seq)] % len(pool)
		out[i] = groups[pool[k]]
		pool = append(pool[:k], pool[k+1:]...)
	}
	return out
}

// InversePermute restores the order shuffled by Permute with the same sequence.
//
// Walking the shuffled groups in order, group i goes into the (seq[i] mod remaining)-th
// slot of the output which is still empty.
func InversePermute(groups []pixel.Group, seq []int) []pixel.Group {
	out := make([]pixel.Group, len(groups))
	if len(seq) == 0 {
		copy(out, groups)
		return out
	}

	empty := indices(len(groups))
	for i, g := range groups {
		k := seq[i%len(seq)] % len(empty)
		out[empty[k]] = g
		empty = append(empty[:k], empty[k+1:]...)
	}
	return out
}

func indices(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}
