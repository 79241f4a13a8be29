// Package index holds the immutable, bulk-built 2D indexes the clusterer
// builds once per zoom level.
//
// Every implementation answers the same two questions over a fixed point set:
// which points lie strictly inside a circle, and which lie inside an
// axis-aligned rectangle (edges included). Results are positions into the
// slice the index was built from.
package index

// Point is anything that has planar coordinates.
type Point interface {
	Coordinates() (x, y float64)
}

// SimplePoint is the minimal Point.
type SimplePoint struct {
	X, Y float64
}

func (sp SimplePoint) Coordinates() (float64, float64) {
	return sp.X, sp.Y
}

// Index is a read-only spatial index over a point set.
type Index interface {
	// Within returns ids of points whose distance to (x, y) is strictly less than r.
	Within(x, y, r float64) []int
	// Range returns ids of points inside [minX, maxX] x [minY, maxY].
	Range(minX, minY, maxX, maxY float64) []int
	// Len is the number of indexed points.
	Len() int
}

// Builder creates an Index over points. nodeSize is a tuning hint and must
// not change query results.
type Builder func(points []Point, nodeSize int) Index

// DefaultNodeSize is used when a builder gets a non-positive node size.
const DefaultNodeSize = 64
