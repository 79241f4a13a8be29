package cluster

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MadAppGang/supercluster/index"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Cluster gets a list of point features and produces all levels of clusters.
//
// Load builds a new set of levels and publishes it atomically, so queries
// running concurrently with Load see either the previous data or the new one.
// All query methods are safe for concurrent use.
type Cluster struct {
	opts Options

	loadMu sync.Mutex
	store  atomic.Pointer[store]
}

// New creates a Cluster with the given options.
func New(opts Options) (*Cluster, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Cluster{opts: opts.withDefaults()}, nil
}

// NewCluster creates a Cluster with DefaultOptions.
func NewCluster() *Cluster {
	return &Cluster{opts: DefaultOptions().withDefaults()}
}

// Options returns the options the cluster was created with.
func (c *Cluster) Options() Options {
	return c.opts
}

// Load indexes features and builds every zoom level, replacing whatever was
// loaded before. Features that are not finite points are skipped and
// reported through Skipped; the others keep their position in features as
// their source index.
func (c *Cluster) Load(features []*geojson.Feature) (*Cluster, error) {
	c.loadMu.Lock()
	defer c.loadMu.Unlock()

	// only the zero Cluster gets here with invalid options
	if err := c.opts.Validate(); err != nil {
		return c, err
	}
	log := c.opts.Logger
	start := time.Now()

	s := &store{
		sources: features,
		levels:  make([]level, c.opts.MaxZoom+2),
	}

	nodes := make([]*Node, 0, len(features))
	for i, f := range features {
		p, reason := pointOf(f)
		if reason != "" {
			fe := &FeatureError{Index: i, Reason: reason}
			s.skipped = append(s.skipped, fe)
			log.Warn("skip feature", "index", i, "reason", reason)
			continue
		}
		nodes = append(nodes, newLeaf(i, p.Lon(), p.Lat()))
	}
	if c.opts.Log {
		log.Info("prepare", "points", len(nodes), "skipped", len(s.skipped), "elapsed", time.Since(start))
	}

	// the finest slot holds the unclustered points
	s.levels[c.opts.MaxZoom+1] = c.newLevel(nodes)

	for z := c.opts.MaxZoom; z >= c.opts.MinZoom; z-- {
		now := time.Now()
		finer := s.levels[z+1]
		nodes = c.clusterize(finer.nodes, finer.tree, z, features)
		s.levels[z] = c.newLevel(nodes)
		if c.opts.Log {
			log.Info("cluster level", "zoom", z, "clusters", len(nodes), "elapsed", time.Since(now))
		}
	}

	c.store.Store(s)
	if c.opts.Log {
		log.Info("total time", "elapsed", time.Since(start))
	}
	return c, nil
}

// clusterize merges the nodes of zoom+1 into the nodes of zoom.
// tree must be the index built over nodes. Nodes are visited in order and the
// first one to claim a neighbour keeps it.
func (c *Cluster) clusterize(nodes []*Node, tree index.Index, zoom int, sources []*geojson.Feature) []*Node {
	var result []*Node
	r := c.opts.Radius / (float64(c.opts.Extent) * math.Pow(2, float64(zoom)))
	reduce := c.opts.Reduce

	for i, p := range nodes {
		// skip points we have already clustered
		if p.Zoom <= zoom {
			continue
		}
		// mark this point as visited
		p.Zoom = zoom

		neighbourIDs := tree.Within(p.X, p.Y, r)

		originPoints := p.NumPoints
		numPoints := originPoints
		for _, id := range neighbourIDs {
			if b := nodes[id]; b.Zoom > zoom {
				numPoints += b.NumPoints
			}
		}

		if numPoints > originPoints && numPoints >= c.opts.MinPoints {
			wx := p.X * float64(originPoints)
			wy := p.Y * float64(originPoints)
			id := encodeID(i, zoom, len(sources))

			var props geojson.Properties
			if reduce != nil && originPoints > 1 {
				props = c.mapProperties(sources, p, true)
			}

			for _, nid := range neighbourIDs {
				b := nodes[nid]
				// filter out neighbours that are already processed
				if b.Zoom <= zoom {
					continue
				}
				b.Zoom = zoom
				wx += b.X * float64(b.NumPoints)
				wy += b.Y * float64(b.NumPoints)
				b.ParentID = id

				if reduce != nil {
					if props == nil {
						props = c.mapProperties(sources, p, true)
					}
					reduce(props, c.mapProperties(sources, b, false))
				}
			}

			p.ParentID = id
			result = append(result, newAggregate(wx/float64(numPoints), wy/float64(numPoints), id, numPoints, props))
			continue
		}

		result = append(result, p)
		if numPoints > originPoints {
			// too few to cluster, the neighbours stay as they are at this zoom
			for _, nid := range neighbourIDs {
				b := nodes[nid]
				if b.Zoom <= zoom {
					continue
				}
				b.Zoom = zoom
				result = append(result, b)
			}
		}
	}
	return result
}

// mapProperties returns the properties a node contributes to a reduce call.
// With clone set the result is safe to modify.
func (c *Cluster) mapProperties(sources []*geojson.Feature, n *Node, clone bool) geojson.Properties {
	switch n.Kind {
	case AggregateNode:
		if clone {
			return cloneProperties(n.Properties)
		}
		return n.Properties
	case LeafNode:
		props := c.opts.Map(sources[n.Source].Properties)
		if clone {
			return cloneProperties(props)
		}
		return props
	}
	return nil
}

func (c *Cluster) limitZoom(zoom int) int {
	if zoom > c.opts.MaxZoom+1 {
		zoom = c.opts.MaxZoom + 1
	}
	if zoom < c.opts.MinZoom {
		zoom = c.opts.MinZoom
	}
	return zoom
}

func pointOf(f *geojson.Feature) (orb.Point, string) {
	if f == nil {
		return orb.Point{}, "feature is nil"
	}
	if f.Geometry == nil {
		return orb.Point{}, "feature has no geometry"
	}
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		return orb.Point{}, "geometry " + f.Geometry.GeoJSONType() + " is not a Point"
	}
	if !finite(p[0]) || !finite(p[1]) {
		return orb.Point{}, "coordinates are not finite"
	}
	return p, ""
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
