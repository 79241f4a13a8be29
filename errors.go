package cluster

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded is returned by queries issued before a successful Load.
	ErrNotLoaded = errors.New("cluster: index is not loaded")
	// ErrInvalidOptions wraps every configuration error.
	ErrInvalidOptions = errors.New("cluster: invalid options")
	// ErrClusterNotFound is returned for ids that do not name a cluster of the loaded data.
	ErrClusterNotFound = errors.New("cluster: no cluster with the specified id")
	// ErrInvalidFeature is wrapped by FeatureError.
	ErrInvalidFeature = errors.New("cluster: invalid feature")
)

// FeatureError describes an input feature skipped by Load.
type FeatureError struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (e *FeatureError) Error() string {
	return fmt.Sprintf("%s at %d: %s", ErrInvalidFeature, e.Index, e.Reason)
}

func (e *FeatureError) Unwrap() error {
	return ErrInvalidFeature
}
