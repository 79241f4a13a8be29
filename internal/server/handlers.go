package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"

	cluster "github.com/MadAppGang/supercluster"
	"github.com/MadAppGang/supercluster/internal/source"
)

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))

	r.GET("/health", s.health)
	r.GET("/metrics", s.metrics)
	r.POST("/load", s.load)
	r.GET("/tiles/:z/:x/:y", s.tile)

	clusters := r.Group("/clusters")
	{
		clusters.GET("", s.clusters)
		clusters.GET("/:id/children", s.children)
		clusters.GET("/:id/leaves", s.leaves)
		clusters.GET("/:id/expansion-zoom", s.expansionZoom)
	}
	return r
}

// requestLogger logs every request once it is served.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

func (s *Server) health(c *gin.Context) {
	status := "ok"
	if s.Version() == "" {
		status = "empty"
	}
	success(c, s.Version(), gin.H{"status": status})
}

func (s *Server) metrics(c *gin.Context) {
	success(c, s.Version(), s.registry.GetAll())
}

func (s *Server) load(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
	features, err := source.ReadGeoJSON(body)
	if err != nil {
		fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	version, err := s.Load(features)
	if err != nil {
		fail(c, err)
		return
	}
	success(c, version, gin.H{
		"features": len(features),
		"skipped":  s.Skipped(),
	})
}

// GET /clusters?bbox=w,s,e,n&zoom=z
func (s *Server) clusters(c *gin.Context) {
	bbox, err := parseBBox(c.Query("bbox"))
	if err != nil {
		fail(c, err)
		return
	}
	zoom, err := intParam(c.Query("zoom"), "zoom")
	if err != nil {
		fail(c, err)
		return
	}
	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		features, err := cl.GetClusters(bbox, zoom)
		if err != nil {
			return nil, err
		}
		return collection(features), nil
	})
}

func (s *Server) tile(c *gin.Context) {
	t, err := tileParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		tile, err := cl.GetTile(int(t.X), int(t.Y), int(t.Z))
		if err != nil {
			return nil, err
		}
		features := []cluster.TileFeature{}
		if tile != nil {
			features = tile.Features
		}
		b := t.Bound()
		return gin.H{
			"z":        t.Z,
			"x":        t.X,
			"y":        t.Y,
			"bbox":     [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]},
			"features": features,
		}, nil
	})
}

func (s *Server) children(c *gin.Context) {
	id, err := intParam(c.Param("id"), "id")
	if err != nil {
		fail(c, err)
		return
	}
	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		features, err := cl.GetChildren(id)
		if err != nil {
			return nil, err
		}
		return collection(features), nil
	})
}

// GET /clusters/:id/leaves?limit=10&offset=0
func (s *Server) leaves(c *gin.Context) {
	id, err := intParam(c.Param("id"), "id")
	if err != nil {
		fail(c, err)
		return
	}
	limit, err := intParam(c.DefaultQuery("limit", strconv.Itoa(cluster.DefaultLeavesLimit)), "limit")
	if err != nil {
		fail(c, err)
		return
	}
	offset, err := intParam(c.DefaultQuery("offset", "0"), "offset")
	if err != nil {
		fail(c, err)
		return
	}
	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		features, err := cl.GetLeaves(id, limit, offset)
		if err != nil {
			return nil, err
		}
		return collection(features), nil
	})
}

func (s *Server) expansionZoom(c *gin.Context) {
	id, err := intParam(c.Param("id"), "id")
	if err != nil {
		fail(c, err)
		return
	}
	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		zoom, err := cl.GetClusterExpansionZoom(id)
		if err != nil {
			return nil, err
		}
		return gin.H{"zoom": zoom}, nil
	})
}

func collection(features []*geojson.Feature) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if features != nil {
		fc.Features = features
	}
	return fc
}

func parseBBox(v string) ([4]float64, error) {
	var bbox [4]float64
	parts := strings.Split(v, ",")
	if len(parts) != 4 {
		return bbox, fmt.Errorf("%w: bbox must be west,south,east,north", errBadRequest)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return bbox, fmt.Errorf("%w: bbox: %v", errBadRequest, err)
		}
		bbox[i] = f
	}
	return bbox, nil
}

func intParam(v, name string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", errBadRequest, name, v)
	}
	return n, nil
}

func tileParam(c *gin.Context) (maptile.Tile, error) {
	var xyz [3]int
	for i, name := range []string{"x", "y", "z"} {
		n, err := intParam(c.Param(name), name)
		if err != nil {
			return maptile.Tile{}, err
		}
		if n < 0 {
			return maptile.Tile{}, fmt.Errorf("%w: %s is negative", errBadRequest, name)
		}
		xyz[i] = n
	}
	if xyz[2] > cluster.MaxZoomLimit {
		return maptile.Tile{}, fmt.Errorf("%w: zoom %d is larger than %d", errBadRequest, xyz[2], cluster.MaxZoomLimit)
	}

	t := maptile.New(uint32(xyz[0]), uint32(xyz[1]), maptile.Zoom(xyz[2]))
	if !t.Valid() {
		return maptile.Tile{}, fmt.Errorf("%w: tile %d/%d/%d is out of range", errBadRequest, xyz[2], xyz[0], xyz[1])
	}
	return t, nil
}
