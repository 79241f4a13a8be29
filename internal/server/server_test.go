package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cluster "github.com/MadAppGang/supercluster"
)

const placesFile = "../../testdata/places.json"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type featureCollection struct {
	Features []struct {
		ID         any            `json:"id"`
		Properties map[string]any `json:"properties"`
	} `json:"features"`
}

func newServer(t *testing.T) *Server {
	t.Helper()
	s := New(cluster.NewCluster(), Config{})
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, target string, body []byte) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func loadedServer(t *testing.T) *Server {
	t.Helper()
	s := newServer(t)
	raw, err := os.ReadFile(placesFile)
	require.NoError(t, err)
	code, env := do(t, s, http.MethodPost, "/load", raw)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NotEmpty(t, env.Version)
	return s
}

func decodeCollection(t *testing.T, env envelope) featureCollection {
	t.Helper()
	var fc featureCollection
	require.NoError(t, json.Unmarshal(env.Data, &fc))
	return fc
}

func TestBeforeLoad(t *testing.T) {
	s := newServer(t)

	code, env := do(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"empty"}`, string(env.Data))

	code, env = do(t, s, http.MethodGet, "/clusters?bbox=-180,-85,180,85&zoom=0", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, http.StatusServiceUnavailable, env.Code)
}

func TestLoadAndQuery(t *testing.T) {
	s := loadedServer(t)

	code, env := do(t, s, http.MethodGet, "/clusters?bbox=-180,-85,180,85&zoom=0", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, s.Version(), env.Version)

	total := 0
	for _, f := range decodeCollection(t, env).Features {
		if f.Properties["cluster"] == true {
			total += int(f.Properties["point_count"].(float64))
		} else {
			total++
		}
	}
	assert.Equal(t, 68, total)
}

func TestLoadRejectsBadBody(t *testing.T) {
	s := newServer(t)
	code, _ := do(t, s, http.MethodPost, "/load", []byte(`{"type":"Point","coordinates":[0,0]}`))
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do(t, s, http.MethodPost, "/load", []byte(`not json`))
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestBadParameters(t *testing.T) {
	s := loadedServer(t)

	for _, target := range []string{
		"/clusters?bbox=-180,-85,180&zoom=0",
		"/clusters?bbox=a,b,c,d&zoom=0",
		"/clusters?bbox=-180,-85,180,85",
		"/clusters/abc/children",
		"/clusters/100/leaves?limit=x",
		"/tiles/1/2/0",
		"/tiles/31/0/0",
		"/tiles/2/-1/0",
	} {
		code, env := do(t, s, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.NotEmpty(t, env.Message, target)
	}
}

func TestClusterEndpoints(t *testing.T) {
	s := loadedServer(t)

	_, env := do(t, s, http.MethodGet, "/clusters?bbox=-180,-85,180,85&zoom=0", nil)
	var id, count int
	for _, f := range decodeCollection(t, env).Features {
		if f.Properties["cluster"] == true {
			id = int(f.Properties["cluster_id"].(float64))
			count = int(f.Properties["point_count"].(float64))
			break
		}
	}
	require.NotZero(t, id)

	code, env := do(t, s, http.MethodGet, "/clusters/"+strconv.Itoa(id)+"/children", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.NotEmpty(t, decodeCollection(t, env).Features)

	code, env = do(t, s, http.MethodGet, "/clusters/"+strconv.Itoa(id)+"/leaves?limit=-1", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Len(t, decodeCollection(t, env).Features, count)

	code, env = do(t, s, http.MethodGet, "/clusters/"+strconv.Itoa(id)+"/leaves?limit=1&offset=1", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Len(t, decodeCollection(t, env).Features, 1)

	code, env = do(t, s, http.MethodGet, "/clusters/"+strconv.Itoa(id)+"/expansion-zoom", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var zoom struct{ Zoom int }
	require.NoError(t, json.Unmarshal(env.Data, &zoom))
	assert.Positive(t, zoom.Zoom)

	code, _ = do(t, s, http.MethodGet, "/clusters/3/children", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTile(t *testing.T) {
	s := loadedServer(t)

	code, env := do(t, s, http.MethodGet, "/tiles/0/0/0", nil)
	require.Equal(t, http.StatusOK, code, env.Message)

	var tile struct {
		BBox     [4]float64 `json:"bbox"`
		Features []cluster.TileFeature
	}
	require.NoError(t, json.Unmarshal(env.Data, &tile))
	assert.NotEmpty(t, tile.Features)
	assert.InDelta(t, -180, tile.BBox[0], 1e-9)
	assert.InDelta(t, 180, tile.BBox[2], 1e-9)

	code, env = do(t, s, http.MethodGet, "/tiles/10/0/0", nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	require.NoError(t, json.Unmarshal(env.Data, &tile))
	assert.Empty(t, tile.Features)
}

func TestCacheIsKeyedByVersion(t *testing.T) {
	s := loadedServer(t)
	target := "/clusters?bbox=-10,35,30,60&zoom=3"

	_, first := do(t, s, http.MethodGet, target, nil)
	_, second := do(t, s, http.MethodGet, target, nil)
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), s.cacheHits.Count())

	raw, err := os.ReadFile(placesFile)
	require.NoError(t, err)
	_, reload := do(t, s, http.MethodPost, "/load", raw)
	require.NotEqual(t, first.Version, reload.Version)

	_, third := do(t, s, http.MethodGet, target, nil)
	assert.Equal(t, reload.Version, third.Version)
	assert.JSONEq(t, string(first.Data), string(third.Data))
	assert.Equal(t, int64(1), s.cacheHits.Count())
}

func TestMetrics(t *testing.T) {
	s := loadedServer(t)
	do(t, s, http.MethodGet, "/clusters?bbox=-180,-85,180,85&zoom=2", nil)

	code, env := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, code)

	var m map[string]map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &m))
	assert.Equal(t, 1.0, m["load"]["count"])
	assert.Equal(t, 1.0, m["query"]["count"])
	assert.Equal(t, 68.0, m["points"]["value"])
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusOf(cluster.ErrClusterNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(cluster.ErrNotLoaded))
	assert.Equal(t, http.StatusBadRequest, statusOf(errBadRequest))
	assert.Equal(t, http.StatusInternalServerError, statusOf(assert.AnError))
}

func TestResponseVersionMatchesData(t *testing.T) {
	s := loadedServer(t)
	before := s.Version()

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/clusters?bbox=-180,-85,180,85&zoom=17", nil)

	s.cached(c, func(cl *cluster.Cluster) (any, error) {
		// a reload lands while this request is running
		_, err := s.Load([]*geojson.Feature{geojson.NewFeature(orb.Point{1, 1})})
		require.NoError(t, err)
		features, err := cl.AllClusters(17)
		return collection(features), err
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, before, env.Version)
	assert.NotEqual(t, before, s.Version())
	assert.Len(t, decodeCollection(t, env).Features, 68)
}

func TestPreloadedClusterHasVersion(t *testing.T) {
	c := cluster.NewCluster()
	_, err := c.Load([]*geojson.Feature{geojson.NewFeature(orb.Point{1, 1})})
	require.NoError(t, err)

	s := New(c, Config{})
	t.Cleanup(s.Close)
	assert.NotEmpty(t, s.Version())

	_, env := do(t, s, http.MethodGet, "/health", nil)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Data))
}

func TestLoadBodyLimit(t *testing.T) {
	s := New(cluster.NewCluster(), Config{MaxBodyBytes: 64})
	t.Cleanup(s.Close)

	raw, err := os.ReadFile(placesFile)
	require.NoError(t, err)
	code, env := do(t, s, http.MethodPost, "/load", raw)
	assert.Equal(t, http.StatusRequestEntityTooLarge, code)
	assert.Equal(t, http.StatusRequestEntityTooLarge, env.Code)
	assert.Empty(t, s.Version())
}
