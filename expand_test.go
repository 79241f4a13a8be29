package cluster_test

import (
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cluster "github.com/MadAppGang/supercluster"
)

func clusterID(t *testing.T, f *geojson.Feature) int {
	t.Helper()
	id, ok := f.Properties["cluster_id"].(int)
	require.True(t, ok)
	return id
}

func topClusters(t *testing.T, c *cluster.Cluster, zoom int) []*geojson.Feature {
	t.Helper()
	all, err := c.AllClusters(zoom)
	require.NoError(t, err)
	var clusters []*geojson.Feature
	for _, f := range all {
		if f.Properties["cluster"] == true {
			clusters = append(clusters, f)
		}
	}
	require.NotEmpty(t, clusters)
	return clusters
}

// sumChildren checks recursively that the children of every cluster add up
// to its point count and returns the number of leaves reached.
func sumChildren(t *testing.T, c *cluster.Cluster, id, want int) int {
	children, err := c.GetChildren(id)
	require.NoError(t, err)

	sum, leaves := 0, 0
	for _, child := range children {
		if child.Properties["cluster"] == true {
			n := child.Properties["point_count"].(int)
			sum += n
			leaves += sumChildren(t, c, clusterID(t, child), n)
		} else {
			sum++
			leaves++
		}
	}
	assert.Equal(t, want, sum, "cluster %d", id)
	return leaves
}

func TestChildrenConservePointCount(t *testing.T) {
	c := loadPlaces(t, cluster.DefaultOptions())
	for z := 0; z <= 5; z++ {
		all, err := c.AllClusters(z)
		require.NoError(t, err)
		for _, f := range all {
			if f.Properties["cluster"] != true {
				continue
			}
			n := f.Properties["point_count"].(int)
			assert.Equal(t, n, sumChildren(t, c, clusterID(t, f), n))
		}
	}
}

func TestGetChildrenUnknownID(t *testing.T) {
	c := loadPlaces(t, cluster.DefaultOptions())
	for _, id := range []int{-1, 0, 5, 67, 68, 68 + 31, 1 << 40} {
		_, err := c.GetChildren(id)
		assert.ErrorIs(t, err, cluster.ErrClusterNotFound, "id %d", id)
	}
}

func TestGetLeaves(t *testing.T) {
	c := loadPlaces(t, cluster.DefaultOptions())
	for _, f := range topClusters(t, c, 0) {
		id := clusterID(t, f)
		n := f.Properties["point_count"].(int)

		all, err := c.GetLeaves(id, -1, 0)
		require.NoError(t, err)
		require.Len(t, all, n)
		names := map[any]bool{}
		for _, leaf := range all {
			assert.Nil(t, leaf.Properties["cluster"])
			names[leaf.Properties["name"]] = true
		}
		assert.Len(t, names, n, "leaves are distinct")

		page, err := c.GetLeaves(id, 0, 0)
		require.NoError(t, err)
		assert.Len(t, page, min(n, cluster.DefaultLeavesLimit))

		if n > 3 {
			page, err = c.GetLeaves(id, 2, 1)
			require.NoError(t, err)
			assert.Equal(t, all[1:3], page)
		}

		page, err = c.GetLeaves(id, 5, n)
		require.NoError(t, err)
		assert.Empty(t, page)
	}
}

func TestGetClusterExpansionZoom(t *testing.T) {
	c := loadPlaces(t, cluster.DefaultOptions())
	for z := 0; z <= 6; z++ {
		clusters, err := c.AllClusters(z)
		require.NoError(t, err)
		for _, f := range clusters {
			if f.Properties["cluster"] != true {
				continue
			}
			id := clusterID(t, f)
			expansion, err := c.GetClusterExpansionZoom(id)
			require.NoError(t, err)
			assert.Greater(t, expansion, z)
			assert.LessOrEqual(t, expansion, 17)

			// the cluster is gone at its expansion zoom
			at, err := c.AllClusters(expansion)
			require.NoError(t, err)
			for _, g := range at {
				if g.Properties["cluster"] == true {
					assert.NotEqual(t, id, clusterID(t, g))
				}
			}
		}
	}

	_, err := c.GetClusterExpansionZoom(3)
	assert.ErrorIs(t, err, cluster.ErrClusterNotFound)
}
