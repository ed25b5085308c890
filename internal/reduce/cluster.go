package reduce

import (
	"fmt"
	"math"
	"math/rand"

	"quboassign/internal/geo"
	"quboassign/internal/model"
)

// ClusterPrefix prefixes synthetic customer ids produced by clustering.
const ClusterPrefix = "CLUSTER_"

// DefaultSeed keeps clustering reproducible when the caller gives no seed.
const DefaultSeed int64 = 42

// ClusterMap maps a synthetic cluster id to the original customer ids it
// represents. Every original customer appears in exactly one entry.
type ClusterMap map[string][]string

// Size is the number of original customers covered by the map.
func (cm ClusterMap) Size() int {
	n := 0
	for _, members := range cm {
		n += len(members)
	}
	return n
}

// ClusterOptions configures k-means over customer locations.
type ClusterOptions struct {
	// MaxClusterSize is the target number of customers per cluster (default 20).
	MaxClusterSize int
	// MaxIterations bounds Lloyd iterations (default 100).
	MaxIterations int
	// Seed drives k-means++ initialisation. Zero means DefaultSeed.
	Seed int64
}

func (o ClusterOptions) withDefaults() ClusterOptions {
	if o.MaxClusterSize <= 0 {
		o.MaxClusterSize = 20
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.Seed == 0 {
		o.Seed = DefaultSeed
	}
	return o
}

// ClusterCount returns K = max(2, min(ceil(n/maxClusterSize), n/2)), never
// more than n.
func ClusterCount(n, maxClusterSize int) int {
	if n <= 0 {
		return 0
	}
	if maxClusterSize <= 0 {
		maxClusterSize = 1
	}
	k := (n + maxClusterSize - 1) / maxClusterSize
	if half := n / 2; half < k {
		k = half
	}
	if k < 2 {
		k = 2
	}
	if k > n {
		k = n
	}
	return k
}

// Cluster groups customers by location and returns one synthetic customer
// per non-empty cluster (location = centroid, demand = member sum) together
// with the ClusterMap. Output is deterministic for a given seed.
func Cluster(customers []model.CustomerNode, opts ClusterOptions) ([]model.CustomerNode, ClusterMap) {
	opts = opts.withDefaults()
	n := len(customers)
	if n == 0 {
		return nil, ClusterMap{}
	}
	k := ClusterCount(n, opts.MaxClusterSize)
	points := make([]geo.Point, n)
	for i, c := range customers {
		points[i] = geo.Point{Lat: c.Lat, Lon: c.Lon}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := seedCentroids(points, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for it := 0; it < opts.MaxIterations; it++ {
		changed := false
		for i, p := range points {
			best := nearestCentroid(p, centroids)
			if best != labels[i] {
				labels[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}
		members := make([][]geo.Point, k)
		for i, l := range labels {
			members[l] = append(members[l], points[i])
		}
		for c := range centroids {
			// empty clusters keep their previous centroid
			if len(members[c]) > 0 {
				centroids[c] = geo.Centroid(members[c])
			}
		}
	}

	groups := make([][]int, k)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	reps := make([]model.CustomerNode, 0, k)
	cm := make(ClusterMap, k)
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		id := fmt.Sprintf("%s%d", ClusterPrefix, len(reps))
		pts := make([]geo.Point, len(g))
		ids := make([]string, len(g))
		demand := 0.0
		for m, idx := range g {
			pts[m] = points[idx]
			ids[m] = customers[idx].ID
			demand += customers[idx].Demand
		}
		center := geo.Centroid(pts)
		reps = append(reps, model.CustomerNode{ID: id, Lat: center.Lat, Lon: center.Lon, Demand: demand})
		cm[id] = ids
	}
	return reps, cm
}

// seedCentroids picks k initial centroids with k-means++.
func seedCentroids(points []geo.Point, k int, rng *rand.Rand) []geo.Point {
	centroids := make([]geo.Point, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])
	dist := make([]float64, len(points))
	for len(centroids) < k {
		total := 0.0
		for i, p := range points {
			d := sqDist(p, centroids[nearestCentroid(p, centroids)])
			dist[i] = d
			total += d
		}
		if total == 0 {
			// all remaining points coincide with a centroid; take them in order
			centroids = append(centroids, points[len(centroids)%len(points)])
			continue
		}
		target := rng.Float64() * total
		pick := len(points) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 && d > 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, points[pick])
	}
	return centroids
}

func nearestCentroid(p geo.Point, centroids []geo.Point) int {
	best, bestD := 0, math.Inf(1)
	for c, ct := range centroids {
		if d := sqDist(p, ct); d < bestD {
			best, bestD = c, d
		}
	}
	return best
}

// sqDist is planar squared distance in degrees; adequate for grouping
// nearby customers.
func sqDist(a, b geo.Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}
