package cluster

import (
	"fmt"
	"log/slog"

	"github.com/MadAppGang/supercluster/index"
	"github.com/paulmach/orb/geojson"
)

// MaxZoomLimit is the largest MaxZoom the id encoding can address.
const MaxZoomLimit = 30

// Options configure a Cluster.
//
// MinZoom - minimum zoom level to generate clusters
// MaxZoom - maximum zoom level to generate clusters, above it points render unclustered
// MinPoints - minimum number of source points to form a cluster
// Radius - cluster radius in pixels, affects clustering radius
// Extent - size of tile in pixels, affects clustering radius
// NodeSize - size of the KD-tree node, 64 by default. Higher means faster indexing but slower search, and vise versa.
type Options struct {
	MinZoom   int
	MaxZoom   int
	MinPoints int
	Radius    float64
	Extent    int
	NodeSize  int

	// Log enables build timing messages on Logger.
	Log bool
	// GenerateID assigns the source position as id of unclustered features.
	GenerateID bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Index builds the per-zoom spatial index, index.NewKDBush by default.
	Index index.Builder

	// Map turns the properties of a source feature into the initial
	// properties of a cluster. Defaults to the identity. Only used with Reduce.
	Map func(props geojson.Properties) geojson.Properties
	// Reduce folds props into accumulated. accumulated is owned by the
	// cluster being built and may be modified in place.
	Reduce func(accumulated, props geojson.Properties)
}

// DefaultOptions returns the options supercluster ships with:
// MinZoom = 0
// MaxZoom = 16
// MinPoints = 2
// Radius = 40
// Extent = 512 (GMaps and OSM default)
// NodeSize = 64
func DefaultOptions() Options {
	return Options{
		MinZoom:   0,
		MaxZoom:   16,
		MinPoints: 2,
		Radius:    40,
		Extent:    512,
		NodeSize:  64,
	}
}

// Validate reports the first configuration error, wrapped in ErrInvalidOptions.
func (o Options) Validate() error {
	switch {
	case o.MinZoom < 0:
		return fmt.Errorf("%w: min zoom %d is negative", ErrInvalidOptions, o.MinZoom)
	case o.MaxZoom > MaxZoomLimit:
		return fmt.Errorf("%w: max zoom %d is larger than %d", ErrInvalidOptions, o.MaxZoom, MaxZoomLimit)
	case o.MinZoom > o.MaxZoom:
		return fmt.Errorf("%w: min zoom %d is larger than max zoom %d", ErrInvalidOptions, o.MinZoom, o.MaxZoom)
	case o.MinPoints < 0:
		return fmt.Errorf("%w: min points %d is negative", ErrInvalidOptions, o.MinPoints)
	case !(o.Radius > 0):
		return fmt.Errorf("%w: radius must be positive, got %v", ErrInvalidOptions, o.Radius)
	case o.Extent <= 0:
		return fmt.Errorf("%w: extent must be positive, got %d", ErrInvalidOptions, o.Extent)
	case o.NodeSize <= 0:
		return fmt.Errorf("%w: node size must be positive, got %d", ErrInvalidOptions, o.NodeSize)
	}
	return nil
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Index == nil {
		o.Index = index.NewKDBush
	}
	if o.Map == nil {
		o.Map = func(props geojson.Properties) geojson.Properties { return props }
	}
	return o
}
