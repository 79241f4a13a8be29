package cluster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb/geojson"
)

// DefaultLeavesLimit is the page size GetLeaves uses for a zero limit.
const DefaultLeavesLimit = 10

// GetChildren returns the features a cluster splits into one zoom level
// closer in.
func (c *Cluster) GetChildren(clusterID int) ([]*geojson.Feature, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	children, err := c.children(s, clusterID)
	if err != nil {
		return nil, err
	}
	result := make([]*geojson.Feature, len(children))
	for i, n := range children {
		result[i] = c.feature(s, n)
	}
	return result, nil
}

// GetLeaves returns the source features of a cluster, depth first, skipping
// the first offset points and returning at most limit. A zero limit means
// DefaultLeavesLimit, a negative one means all of them.
func (c *Cluster) GetLeaves(clusterID, limit, offset int) ([]*geojson.Feature, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	switch {
	case limit == 0:
		limit = DefaultLeavesLimit
	case limit < 0:
		limit = math.MaxInt
	}
	if offset < 0 {
		offset = 0
	}

	var leaves []*geojson.Feature
	if _, err := c.appendLeaves(s, &leaves, clusterID, limit, offset, 0); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (c *Cluster) appendLeaves(s *store, result *[]*geojson.Feature, clusterID, limit, offset, skipped int) (int, error) {
	children, err := c.children(s, clusterID)
	if err != nil {
		return skipped, err
	}

	for _, child := range children {
		switch child.Kind {
		case AggregateNode:
			if skipped+child.NumPoints <= offset {
				// skip the whole cluster
				skipped += child.NumPoints
			} else {
				skipped, err = c.appendLeaves(s, result, child.ID, limit, offset, skipped)
				if err != nil {
					return skipped, err
				}
			}
		case LeafNode:
			if skipped < offset {
				skipped++
			} else {
				*result = append(*result, c.feature(s, child))
			}
		}
		if len(*result) == limit {
			break
		}
	}
	return skipped, nil
}

// GetClusterExpansionZoom returns the zoom at which the cluster expands into
// several children.
func (c *Cluster) GetClusterExpansionZoom(clusterID int) (int, error) {
	s, err := c.loaded()
	if err != nil {
		return 0, err
	}
	_, originZoom := decodeID(clusterID, len(s.sources))
	expansionZoom := originZoom - 1
	for expansionZoom <= c.opts.MaxZoom {
		children, err := c.children(s, clusterID)
		if err != nil {
			return 0, err
		}
		expansionZoom++
		if len(children) != 1 || children[0].Kind != AggregateNode {
			break
		}
		clusterID = children[0].ID
	}
	return expansionZoom, nil
}

// children returns the nodes of the level below the cluster whose parent is
// clusterID. The cluster was created from the node at the encoded position of
// the encoded slot, and all of its children lie within the clustering radius
// of that node.
func (c *Cluster) children(s *store, clusterID int) ([]*Node, error) {
	position, originZoom := decodeID(clusterID, len(s.sources))
	if clusterID < len(s.sources) || position < 0 ||
		originZoom < c.opts.MinZoom+1 || originZoom > c.opts.MaxZoom+1 {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, clusterID)
	}

	lvl := s.levels[originZoom]
	if position >= len(lvl.nodes) {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, clusterID)
	}
	origin := lvl.nodes[position]
	r := c.opts.Radius / (float64(c.opts.Extent) * math.Exp2(float64(originZoom-1)))

	var children []*Node
	for _, id := range lvl.tree.Within(origin.X, origin.Y, r) {
		if n := lvl.nodes[id]; n.ParentID == clusterID {
			children = append(children, n)
		}
	}
	if len(children) == 0 {
		return nil, fmt.Errorf("%w: %d", ErrClusterNotFound, clusterID)
	}
	return children, nil
}
