package cluster

import (
	"github.com/MadAppGang/supercluster/index"
	"github.com/paulmach/orb/geojson"
)

// store is everything one Load produces. Nothing in it changes after it is
// published.
type store struct {
	sources []*geojson.Feature
	// levels is indexed by zoom, slots below MinZoom stay empty
	levels  []level
	skipped []*FeatureError
}

type level struct {
	nodes []*Node
	tree  index.Index
}

func (c *Cluster) newLevel(nodes []*Node) level {
	points := make([]index.Point, len(nodes))
	for i, n := range nodes {
		points[i] = n
	}
	return level{nodes: nodes, tree: c.opts.Index(points, c.opts.NodeSize)}
}

func (c *Cluster) loaded() (*store, error) {
	s := c.store.Load()
	if s == nil {
		return nil, ErrNotLoaded
	}
	return s, nil
}

// Skipped returns the features the last Load rejected.
func (c *Cluster) Skipped() []*FeatureError {
	s := c.store.Load()
	if s == nil {
		return nil
	}
	return s.skipped
}

// Loaded reports whether a Load has completed.
func (c *Cluster) Loaded() bool {
	return c.store.Load() != nil
}
