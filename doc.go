// MIT License
//
// Copyright (c) 2016 MadAppGang

// A very fast Golang library for geospatial point clustering.
//
// The cluster uses a hierarchical greedy clustering approach, the same one
// MapBox's supercluster JS library and Dave Leaver's Leaflet.markercluster use.
// All levels are built once, in memory, from the finest zoom to the coarsest:
// every level is indexed and the next coarser level is made by merging the
// points of that index that lie within Radius pixels of each other.
//
// Very easy to use:
//
//	//1.Create new cluster
//	c, err := cluster.New(cluster.DefaultOptions())
//
//	//2.Build index from GeoJSON point features
//	_, err = c.Load(features)
//
//	//3.Get what to draw at zoom 3 for the whole world
//	result, err := c.GetClusters([4]float64{-180, -85, 180, 85}, 3)
//
//	//4.Or get a tile with pixel coordinates to display directly on the map
//	tile, err := c.GetTile(0, 0, 0)
//
// Features are github.com/paulmach/orb/geojson features with Point geometry.
// Unclustered points are returned as the features that were loaded, clusters
// as new Point features with the properties
//
//	cluster: true
//	cluster_id: id to pass to GetChildren, GetLeaves and GetClusterExpansionZoom
//	point_count: number of points in the cluster
//	point_count_abbreviated: point_count shortened for labels, e.g. "1.2k"
//
// Cluster ids start right after the number of loaded features, so they never
// collide with feature positions (the ids unclustered points get when
// GenerateID is set).
//
// The spatial index of each level is pluggable through Options.Index; see
// package index.
package cluster
