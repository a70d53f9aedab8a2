package diarize

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// agglomerate performs average-linkage agglomerative clustering of the
// vectors down to k clusters and returns a cluster label per vector.
// Merging is fully deterministic: the pair with the smallest average
// pairwise distance wins, ties broken by lowest member index, so
// identical embeddings always produce identical labels.
func agglomerate(vectors [][]float64, k int) []int {
	n := len(vectors)
	labels := make([]int, n)
	if n == 0 {
		return labels
	}
	if k < 1 {
		k = 1
	}
	if k > n {
		k = n
	}

	// Pairwise distances between points, computed once.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := euclidean(vectors[i], vectors[j])
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	// Active clusters as member index lists, keyed by their smallest
	// member so tie-breaks are stable.
	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > k {
		bestI, bestJ := -1, -1
		bestD := 0.0
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				d := averageLinkage(dist, clusters[i], clusters[j])
				if bestI < 0 || d < bestD {
					bestI, bestJ, bestD = i, j, d
				}
			}
		}
		merged := append(append([]int{}, clusters[bestI]...), clusters[bestJ]...)
		sort.Ints(merged)
		next := make([][]int, 0, len(clusters)-1)
		for idx, c := range clusters {
			if idx != bestI && idx != bestJ {
				next = append(next, c)
			}
		}
		clusters = append(next, merged)
		// Keep cluster order canonical for deterministic tie-breaks.
		sort.Slice(clusters, func(a, b int) bool { return clusters[a][0] < clusters[b][0] })
	}

	for label, members := range clusters {
		for _, m := range members {
			labels[m] = label
		}
	}
	return labels
}

func averageLinkage(dist [][]float64, a, b []int) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += dist[i][j]
		}
	}
	return sum / float64(len(a)*len(b))
}

func euclidean(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	diff := make([]float64, n)
	floats.SubTo(diff, a[:n], b[:n])
	return floats.Norm(diff, 2)
}
