package cluster

import (
	"math"

	"github.com/paulmach/orb/geojson"
)

// InfinityZoomLevel marks a node that has not been settled at any zoom yet.
const InfinityZoomLevel = math.MaxInt

// Kind tells which variant a Node holds.
type Kind uint8

const (
	// LeafNode wraps a single source feature.
	LeafNode Kind = iota
	// AggregateNode is a synthesized cluster of two or more source points.
	AggregateNode
)

func (k Kind) String() string {
	switch k {
	case LeafNode:
		return "leaf"
	case AggregateNode:
		return "aggregate"
	}
	return "unknown"
}

// Node is one entry of a zoom level: either a source point (LeafNode) or a
// cluster (AggregateNode). X and Y are in tile space.
type Node struct {
	Kind Kind
	X, Y float64

	// Zoom is the zoom at which the node was settled, InfinityZoomLevel until then.
	Zoom int
	// ParentID is the id of the aggregate this node was folded into, -1 if none.
	ParentID int

	// Source is the position of the source feature (LeafNode only).
	Source int
	// ID is the encoded cluster id (AggregateNode only).
	ID int
	// NumPoints is the number of source points behind the node, 1 for leaves.
	NumPoints int
	// Properties is the reduced property payload of an aggregate, nil
	// without a reduce hook.
	Properties geojson.Properties
}

// Coordinates implements index.Point.
func (n *Node) Coordinates() (float64, float64) {
	return n.X, n.Y
}

// IsCluster reports whether n is an aggregate.
func (n *Node) IsCluster() bool {
	return n.Kind == AggregateNode
}

func newLeaf(source int, lng, lat float64) *Node {
	return &Node{
		Kind:      LeafNode,
		X:         LngToX(lng),
		Y:         LatToY(lat),
		Zoom:      InfinityZoomLevel,
		ParentID:  -1,
		Source:    source,
		NumPoints: 1,
	}
}

func newAggregate(x, y float64, id, numPoints int, props geojson.Properties) *Node {
	return &Node{
		Kind:       AggregateNode,
		X:          x,
		Y:          y,
		Zoom:       InfinityZoomLevel,
		ParentID:   -1,
		Source:     -1,
		ID:         id,
		NumPoints:  numPoints,
		Properties: props,
	}
}
