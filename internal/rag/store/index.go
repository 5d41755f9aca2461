package store

import (
	"math"
	"math/rand"
	"sort"
)

const (
	indexMaxIterations        = 10
	indexConvergenceThreshold = 0.001
)

// clusterIndex is an approximate in-memory index. Entries are partitioned
// into nlist clusters by k-means; a query probes only the nearest clusters.
type clusterIndex struct {
	clusters []*cluster
}

type cluster struct {
	center  []float32
	entries []*memEntry
}

// buildClusterIndex partitions entries into max(1, n/10) clusters.
// The random source is seeded from the entry count so rebuilding the same
// data yields the same index.
func buildClusterIndex(entries []*memEntry) *clusterIndex {
	n := len(entries)
	if n == 0 {
		return &clusterIndex{}
	}

	nlist := n / 10
	if nlist < 1 {
		nlist = 1
	}

	// Small collections do not benefit from partitioning.
	if nlist == 1 || n <= 5 {
		return &clusterIndex{clusters: []*cluster{{
			center:  averageVectors(entries),
			entries: entries,
		}}}
	}

	rng := rand.New(rand.NewSource(int64(n)))
	centers := initializeCenters(entries, nlist, rng)

	var assignments []int
	for iter := 0; iter < indexMaxIterations; iter++ {
		newAssignments := assignClusters(entries, centers)

		if iter > 0 && assignmentsEqual(assignments, newAssignments) {
			assignments = newAssignments
			break
		}
		assignments = newAssignments

		newCenters := updateCenters(entries, assignments, nlist)
		if centersConverged(centers, newCenters) {
			break
		}
		centers = newCenters
	}

	clusters := make([]*cluster, nlist)
	for i := range clusters {
		clusters[i] = &cluster{center: centers[i]}
	}
	for i, assignment := range assignments {
		clusters[assignment].entries = append(clusters[assignment].entries, entries[i])
	}

	nonEmpty := make([]*cluster, 0, nlist)
	for _, c := range clusters {
		if len(c.entries) > 0 {
			nonEmpty = append(nonEmpty, c)
		}
	}
	return &clusterIndex{clusters: nonEmpty}
}

// probe returns the entries of the nprobe clusters nearest to the query
// vector.
func (idx *clusterIndex) probe(vector []float32, nprobe int) []*memEntry {
	if len(idx.clusters) == 0 {
		return nil
	}
	if nprobe >= len(idx.clusters) {
		var all []*memEntry
		for _, c := range idx.clusters {
			all = append(all, c.entries...)
		}
		return all
	}

	type ranked struct {
		cluster  *cluster
		distance float64
	}
	order := make([]ranked, len(idx.clusters))
	for i, c := range idx.clusters {
		order[i] = ranked{cluster: c, distance: l2Distance(vector, c.center)}
	}
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].distance < order[j].distance
	})

	var candidates []*memEntry
	for _, r := range order[:nprobe] {
		candidates = append(candidates, r.cluster.entries...)
	}
	return candidates
}

// initializeCenters picks nlist initial centers with k-means++ seeding:
// the first center is random, subsequent centers are sampled proportionally
// to their squared distance from the nearest chosen center.
func initializeCenters(entries []*memEntry, k int, rng *rand.Rand) [][]float32 {
	centers := make([][]float32, k)
	centers[0] = entries[rng.Intn(len(entries))].embedding

	for i := 1; i < k; i++ {
		distances := make([]float32, len(entries))
		totalDist := float32(0.0)

		for j, e := range entries {
			minDist := float32(2.0)
			for _, center := range centers[:i] {
				dist := 1.0 - cosineSimilarity32(e.embedding, center)
				if dist < minDist {
					minDist = dist
				}
			}
			distances[j] = minDist * minDist
			totalDist += distances[j]
		}

		r := rng.Float32() * totalDist
		cumulative := float32(0.0)
		centers[i] = entries[len(entries)-1].embedding
		for j, dist := range distances {
			cumulative += dist
			if cumulative >= r {
				centers[i] = entries[j].embedding
				break
			}
		}
	}
	return centers
}

func assignClusters(entries []*memEntry, centers [][]float32) []int {
	assignments := make([]int, len(entries))
	for i, e := range entries {
		maxSim := float32(-1.0)
		best := 0
		for j, center := range centers {
			sim := cosineSimilarity32(e.embedding, center)
			if sim > maxSim {
				maxSim = sim
				best = j
			}
		}
		assignments[i] = best
	}
	return assignments
}

func updateCenters(entries []*memEntry, assignments []int, k int) [][]float32 {
	clusterSizes := make([]int, k)
	for _, assignment := range assignments {
		clusterSizes[assignment]++
	}

	dim := len(entries[0].embedding)
	newCenters := make([][]float32, k)
	for i := 0; i < k; i++ {
		newCenters[i] = make([]float32, dim)
	}

	for i, e := range entries {
		clusterIdx := assignments[i]
		for d := 0; d < dim; d++ {
			newCenters[clusterIdx][d] += e.embedding[d]
		}
	}

	for i := 0; i < k; i++ {
		if clusterSizes[i] > 0 {
			for d := 0; d < dim; d++ {
				newCenters[i][d] /= float32(clusterSizes[i])
			}
			newCenters[i] = normalizeVector(newCenters[i])
		}
	}
	return newCenters
}

func averageVectors(entries []*memEntry) []float32 {
	if len(entries) == 0 {
		return nil
	}
	dim := len(entries[0].embedding)
	center := make([]float32, dim)
	for _, e := range entries {
		for d := 0; d < dim; d++ {
			center[d] += e.embedding[d]
		}
	}
	for d := 0; d < dim; d++ {
		center[d] /= float32(len(entries))
	}
	return normalizeVector(center)
}

func cosineSimilarity32(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float32
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

func l2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.MaxFloat64
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

func normalizeVector(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}

func assignmentsEqual(old, updated []int) bool {
	if len(old) != len(updated) {
		return false
	}
	for i := range old {
		if old[i] != updated[i] {
			return false
		}
	}
	return true
}

func centersConverged(oldCenters, newCenters [][]float32) bool {
	if len(oldCenters) != len(newCenters) {
		return false
	}
	for i := range oldCenters {
		if cosineSimilarity32(oldCenters[i], newCenters[i]) < 1.0-indexConvergenceThreshold {
			return false
		}
	}
	return true
}
