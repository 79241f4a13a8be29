package cluster

import (
	"math"

	"github.com/paulmach/orb/geojson"
)

// TileFeature is a point of a tile in pixel coordinates relative to the tile
// origin, 0..Extent inside the tile.
type TileFeature struct {
	ID         any                `json:"id,omitempty"`
	X          int                `json:"x"`
	Y          int                `json:"y"`
	Cluster    bool               `json:"cluster"`
	Properties geojson.Properties `json:"properties"`
}

// Tile is the content of one map tile.
type Tile struct {
	Features []TileFeature `json:"features"`
}

// tileRange is one range query needed for a tile, with the x offset (in
// tiles) its points must be shifted by.
type tileRange struct {
	ids    []int
	shiftX float64
}

// GetTile returns points for the tile with coordinates x and y at zoom z,
// with pixel coordinates. Points within Radius pixels outside the tile are
// included, wrapping around the antimeridian. Returns nil for an empty tile.
func (c *Cluster) GetTile(x, y, z int) (*Tile, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	lvl, ranges := c.tileRanges(s, x, y, z)
	z2 := math.Exp2(float64(z))
	extent := float64(c.opts.Extent)

	tile := &Tile{}
	for _, tr := range ranges {
		for _, id := range tr.ids {
			n := lvl.nodes[id]
			tf := TileFeature{
				X: round(extent * (n.X*z2 - tr.shiftX)),
				Y: round(extent * (n.Y*z2 - float64(y))),
			}
			switch n.Kind {
			case AggregateNode:
				tf.Cluster = true
				tf.ID = n.ID
				tf.Properties = clusterProperties(n)
			case LeafNode:
				src := s.sources[n.Source]
				tf.Properties = src.Properties
				if c.opts.GenerateID {
					tf.ID = n.Source
				} else if src.ID != nil {
					tf.ID = src.ID
				}
			}
			tile.Features = append(tile.Features, tf)
		}
	}
	if len(tile.Features) == 0 {
		return nil, nil
	}
	return tile, nil
}

// GetTileWithLatLon returns the same points as GetTile as geographic features.
func (c *Cluster) GetTileWithLatLon(x, y, z int) ([]*geojson.Feature, error) {
	s, err := c.loaded()
	if err != nil {
		return nil, err
	}
	lvl, ranges := c.tileRanges(s, x, y, z)
	var result []*geojson.Feature
	for _, tr := range ranges {
		for _, id := range tr.ids {
			result = append(result, c.feature(s, lvl.nodes[id]))
		}
	}
	return result, nil
}

func (c *Cluster) tileRanges(s *store, x, y, z int) (level, []tileRange) {
	lvl := s.levels[c.limitZoom(z)]
	z2 := math.Exp2(float64(z))
	p := c.opts.Radius / float64(c.opts.Extent)
	top := (float64(y) - p) / z2
	bottom := (float64(y) + 1 + p) / z2

	ranges := []tileRange{{
		ids:    lvl.tree.Range((float64(x)-p)/z2, top, (float64(x)+1+p)/z2, bottom),
		shiftX: float64(x),
	}}
	if x == 0 {
		ranges = append(ranges, tileRange{
			ids:    lvl.tree.Range(1-p/z2, top, 1, bottom),
			shiftX: z2,
		})
	}
	if float64(x) == z2-1 {
		ranges = append(ranges, tileRange{
			ids:    lvl.tree.Range(0, top, p/z2, bottom),
			shiftX: -1,
		})
	}
	return lvl, ranges
}

func round(val float64) int {
	if val < 0 {
		return int(val - 0.5)
	}
	return int(val + 0.5)
}
