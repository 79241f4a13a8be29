package cluster

import (
	"fmt"
	"math"

	"github.com/paulmach/orb/geojson"
)

// clusterProperties are the properties of a cluster feature: the reduced
// payload, overwritten by the cluster bookkeeping keys.
func clusterProperties(n *Node) geojson.Properties {
	props := make(geojson.Properties, len(n.Properties)+4)
	for k, v := range n.Properties {
		props[k] = v
	}
	props["cluster"] = true
	props["cluster_id"] = n.ID
	props["point_count"] = n.NumPoints
	props["point_count_abbreviated"] = abbreviate(n.NumPoints)
	return props
}

// abbreviate shortens large counts for labels: 1234 -> "1.2k", 45678 -> "46k".
// Counts under 1000 are returned as they are.
func abbreviate(count int) any {
	switch {
	case count >= 10000:
		return fmt.Sprintf("%dk", int(math.Round(float64(count)/1000)))
	case count >= 1000:
		return fmt.Sprintf("%gk", math.Round(float64(count)/100)/10)
	}
	return count
}

// cloneProperties is a shallow copy that never returns nil.
func cloneProperties(p geojson.Properties) geojson.Properties {
	out := make(geojson.Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
