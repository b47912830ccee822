package testutils

import "math/rand/v2"

// RandMapKey returns a random key from a map. Panics if the map is empty.
func RandMapKey[K comparable, V any](r *rand.Rand, m map[K]V) K {
	idx := r.IntN(len(m))
	for k := range m {
		if idx == 0 {
			return k
		}
		idx--
	}
	panic("unreachable")
}

// WeightedOp is a constraint for operation types that use their value as the weight.
type WeightedOp interface {
	~uint8 | ~uint16 | ~uint32 | ~int
}

// RandWeightedOp returns a random operation from a slice, using each op's value as its weight.
func RandWeightedOp[T WeightedOp](r *rand.Rand, ops []T) T {
	var total int
	for _, op := range ops {
		total += int(op)
	}

	pick := r.IntN(total)
	for _, op := range ops {
		if pick < int(op) {
			return op
		}
		pick -= int(op)
	}
	panic("unreachable")
}

// RandSubset returns each element of items with probability one half, preserving order.
func RandSubset[T any](r *rand.Rand, items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if r.IntN(2) == 1 {
			out = append(out, item)
		}
	}
	return out
}

// RandString generates a random alphanumeric string of the given length.
func RandString(r *rand.Rand, length int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = chars[r.IntN(len(chars))]
	}
	return string(b)
}
