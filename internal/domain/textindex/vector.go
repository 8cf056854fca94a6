package textindex

import "math"

// Vector is a sparse weighted term vector with indices in ascending order.
// The zero value is the all-zero vector.
type Vector struct {
	idx []int
	val []float64
}

// IsZero reports whether the vector has no non-zero weight.
func (v Vector) IsZero() bool {
	return len(v.idx) == 0
}

// Len returns the number of non-zero entries.
func (v Vector) Len() int {
	return len(v.idx)
}

func (v Vector) norm() float64 {
	var s float64
	for _, w := range v.val {
		s += w * w
	}
	return math.Sqrt(s)
}

// Cosine returns the cosine similarity of a and b clamped to [0, 1]. It is 0
// when either vector is all-zero.
func Cosine(a, b Vector) float64 {
	if a.IsZero() || b.IsZero() {
		return 0
	}
	var dot float64
	for i, j := 0, 0; i < len(a.idx) && j < len(b.idx); {
		switch {
		case a.idx[i] == b.idx[j]:
			dot += a.val[i] * b.val[j]
			i++
			j++
		case a.idx[i] < b.idx[j]:
			i++
		default:
			j++
		}
	}
	if dot == 0 {
		return 0
	}
	sim := dot / (a.norm() * b.norm())
	switch {
	case sim < 0:
		return 0
	case sim > 1:
		return 1
	}
	return sim
}
