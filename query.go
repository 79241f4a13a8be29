package cluster

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GetClusters returns the features to draw at zoom inside bbox, given as
// [westLng, southLat, eastLng, northLat] in degrees.
//
// Longitudes are wrapped into [-180, 180] and latitudes clamped to [-90, 90].
// A box spanning 360 degrees or more covers the whole world; a box whose west
// edge ends up east of its east edge crosses the antimeridian and is answered
// as two boxes. Unclustered points come back as the loaded features, clusters
// as new Point features with cluster properties.
func (c *Cluster) GetClusters(bbox [4]float64, zoom int) ([]*geojson.Feature, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	return c.getClusters(s, bbox, zoom), nil
}

func (c *Cluster) getClusters(s *store, bbox [4]float64, zoom int) []*geojson.Feature {
	minLng := wrapLng(bbox[0])
	minLat := clampLat(bbox[1])
	maxLng := 180.0
	if bbox[2] != 180 {
		maxLng = wrapLng(bbox[2])
	}
	maxLat := clampLat(bbox[3])

	if bbox[2]-bbox[0] >= 360 {
		minLng, maxLng = -180, 180
	} else if minLng > maxLng {
		eastern := c.getClusters(s, [4]float64{minLng, minLat, 180, maxLat}, zoom)
		western := c.getClusters(s, [4]float64{-180, minLat, maxLng, maxLat}, zoom)
		return append(eastern, western...)
	}

	lvl := s.levels[c.limitZoom(zoom)]
	ids := lvl.tree.Range(LngToX(minLng), LatToY(maxLat), LngToX(maxLng), LatToY(minLat))
	result := make([]*geojson.Feature, len(ids))
	for i, id := range ids {
		result[i] = c.feature(s, lvl.nodes[id])
	}
	return result
}

// AllClusters returns every feature of the zoom level.
func (c *Cluster) AllClusters(zoom int) ([]*geojson.Feature, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	nodes := s.levels[c.limitZoom(zoom)].nodes
	result := make([]*geojson.Feature, len(nodes))
	for i, n := range nodes {
		result[i] = c.feature(s, n)
	}
	return result, nil
}

// feature materialises a node: the source feature for a leaf, a synthetic
// Point feature for an aggregate.
func (c *Cluster) feature(s *store, n *Node) *geojson.Feature {
	switch n.Kind {
	case AggregateNode:
		f := geojson.NewFeature(orb.Point{XToLng(n.X), YToLat(n.Y)})
		f.ID = n.ID
		f.Properties = clusterProperties(n)
		return f
	case LeafNode:
		src := s.sources[n.Source]
		if !c.opts.GenerateID {
			return src
		}
		f := *src
		f.ID = n.Source
		return &f
	}
	return nil
}

func wrapLng(lng float64) float64 {
	return math.Mod(math.Mod(lng+180, 360)+360, 360) - 180
}

func clampLat(lat float64) float64 {
	return math.Max(-90, math.Min(90, lat))
}
