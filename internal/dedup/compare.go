package dedup

import (
	"bytes"
	"math"
)

// contentEqual reports whether a and b hold the same content: identical bytes,
// or equal-length sample streams whose every sample differs by less than eps.
func contentEqual(a, b loaded, eps float64) bool {
	if a.sum == b.sum && bytes.Equal(a.raw, b.raw) {
		return true
	}
	return samplesWithin(a.samples, b.samples, eps)
}

func samplesWithin(a, b []float32, eps float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !(math.Abs(float64(a[i])-float64(b[i])) < eps) {
			return false
		}
	}
	return true
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	switch {
	case u.rank[ra] < u.rank[rb]:
		u.parent[ra] = rb
	case u.rank[ra] > u.rank[rb]:
		u.parent[rb] = ra
	default:
		u.parent[rb] = ra
		u.rank[ra]++
	}
}
