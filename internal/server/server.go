// Package server exposes a Cluster over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
	"github.com/paulmach/orb/geojson"
	gometrics "github.com/rcrowley/go-metrics"

	cluster "github.com/MadAppGang/supercluster"
)

// DefaultMaxBodyBytes limits POST /load bodies when Config leaves it unset.
const DefaultMaxBodyBytes = 64 << 20

// Config of the HTTP layer.
type Config struct {
	CacheTTL      time.Duration
	CacheCapacity uint64
	MaxBodyBytes  int64
	Logger        *slog.Logger
	// Registry defaults to a private registry.
	Registry gometrics.Registry
}

// Server answers cluster queries. Responses are cached per dataset version,
// so a reload never serves stale results.
type Server struct {
	opts    cluster.Options
	log     *slog.Logger
	engine  *gin.Engine
	maxBody int64

	loadMu  sync.Mutex
	current atomic.Pointer[dataset]

	cache *ttlcache.Cache[string, []byte]

	registry    gometrics.Registry
	loadTimer   gometrics.Timer
	queryTimer  gometrics.Timer
	cacheHits   gometrics.Counter
	cacheMisses gometrics.Counter
	points      gometrics.Gauge
}

// dataset pairs a loaded Cluster with its version. Handlers read it once per
// request so the data and the version they report always match.
type dataset struct {
	cluster *cluster.Cluster
	version string
}

// New wraps c. Reloads build new Clusters with the options of c. The cache expiry goroutine runs until Close.
func New(c *cluster.Cluster, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Registry == nil {
		cfg.Registry = gometrics.NewRegistry()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}

	opts := []ttlcache.Option[string, []byte]{ttlcache.WithTTL[string, []byte](cfg.CacheTTL)}
	if cfg.CacheCapacity > 0 {
		opts = append(opts, ttlcache.WithCapacity[string, []byte](cfg.CacheCapacity))
	}

	s := &Server{
		opts:        c.Options(),
		log:         cfg.Logger,
		maxBody:     cfg.MaxBodyBytes,
		cache:       ttlcache.New(opts...),
		registry:    cfg.Registry,
		loadTimer:   gometrics.NewRegisteredTimer("load", cfg.Registry),
		queryTimer:  gometrics.NewRegisteredTimer("query", cfg.Registry),
		cacheHits:   gometrics.NewRegisteredCounter("cache.hits", cfg.Registry),
		cacheMisses: gometrics.NewRegisteredCounter("cache.misses", cfg.Registry),
		points:      gometrics.NewRegisteredGauge("points", cfg.Registry),
	}
	d := &dataset{cluster: c}
	if c.Loaded() {
		d.version = uuid.NewString()
	}
	s.current.Store(d)

	go s.cache.Start()
	s.engine = s.routes()
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Version is the id of the loaded dataset, empty before the first load.
func (s *Server) Version() string {
	return s.current.Load().version
}

// Load indexes features into a new dataset version and swaps it in. Requests
// already running finish on the dataset they started with.
func (s *Server) Load(features []*geojson.Feature) (string, error) {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	start := time.Now()
	c, err := cluster.New(s.opts)
	if err != nil {
		return "", err
	}
	if _, err := c.Load(features); err != nil {
		return "", err
	}
	s.loadTimer.UpdateSince(start)

	version := uuid.NewString()
	s.current.Store(&dataset{cluster: c, version: version})
	s.cache.DeleteAll()
	s.points.Update(int64(len(features) - len(c.Skipped())))

	s.log.Info("dataset loaded", "version", version, "features", len(features),
		"skipped", len(c.Skipped()), "elapsed", time.Since(start))
	return version, nil
}

// Skipped lists the features the current dataset rejected.
func (s *Server) Skipped() []*cluster.FeatureError {
	return s.current.Load().cluster.Skipped()
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close stops the cache expiry goroutine.
func (s *Server) Close() {
	s.cache.Stop()
}

// cached answers from the cache or runs query and caches its envelope.
// Errors are never cached.
func (s *Server) cached(c *gin.Context, query func(*cluster.Cluster) (any, error)) {
	d := s.current.Load()
	key := d.version + "|" + c.Request.URL.Path + "?" + c.Request.URL.RawQuery

	if item := s.cache.Get(key); item != nil {
		s.cacheHits.Inc(1)
		c.Data(http.StatusOK, "application/json; charset=utf-8", item.Value())
		return
	}
	s.cacheMisses.Inc(1)

	start := time.Now()
	data, err := query(d.cluster)
	s.queryTimer.UpdateSince(start)
	if err != nil {
		fail(c, err)
		return
	}

	raw, err := encode(d.version, data)
	if err != nil {
		fail(c, err)
		return
	}
	s.cache.Set(key, raw, ttlcache.DefaultTTL)
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}
