package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	cluster "github.com/MadAppGang/supercluster"
)

// errBadRequest marks malformed request parameters.
var errBadRequest = errors.New("bad request")

// Response is the envelope of every JSON answer.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Version string `json:"version,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func encode(version string, data any) ([]byte, error) {
	return json.Marshal(Response{
		Code:    0,
		Message: "success",
		Version: version,
		Data:    data,
	})
}

func success(c *gin.Context, version string, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Version: version,
		Data:    data,
	})
}

func fail(c *gin.Context, err error) {
	code := statusOf(err)
	c.JSON(code, Response{
		Code:    code,
		Message: err.Error(),
	})
}

func statusOf(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errBadRequest), errors.Is(err, cluster.ErrInvalidFeature):
		return http.StatusBadRequest
	case errors.Is(err, cluster.ErrClusterNotFound):
		return http.StatusNotFound
	case errors.Is(err, cluster.ErrNotLoaded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
