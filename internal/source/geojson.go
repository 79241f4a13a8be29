// Package source reads point features for the cluster index from GeoJSON
// files, zstd compressed GeoJSON and SQLite tables.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/paulmach/orb/geojson"
)

// ErrUnsupported is returned for GeoJSON documents that are neither a
// FeatureCollection nor a single Feature.
var ErrUnsupported = errors.New("unsupported geojson document")

// ReadGeoJSON parses a FeatureCollection, or a single Feature, from r.
func ReadGeoJSON(r io.Reader) ([]*geojson.Feature, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	switch head.Type {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("parse feature collection: %w", err)
		}
		return fc.Features, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("parse feature: %w", err)
		}
		return []*geojson.Feature{f}, nil
	}
	return nil, fmt.Errorf("%w: type %q", ErrUnsupported, head.Type)
}

// ReadFile reads a GeoJSON file. Files ending in .zst are decompressed first.
func ReadFile(path string) ([]*geojson.Feature, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zst") {
		return ReadGeoJSON(file)
	}

	dec, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()
	return ReadGeoJSON(dec)
}

// WriteFile writes features as a FeatureCollection, zstd compressed when
// path ends in .zst.
func WriteFile(path string, features []*geojson.Feature) error {
	fc := geojson.NewFeatureCollection()
	fc.Features = features
	raw, err := fc.MarshalJSON()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zst") {
		_, err = file.Write(raw)
		return err
	}

	enc, err := zstd.NewWriter(file, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	if err != nil {
		return fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(raw); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// Read loads path by extension: .db, .sqlite and .sqlite3 go through
// ReadSQLite with query, anything else through ReadFile.
func Read(ctx context.Context, path, query string) ([]*geojson.Feature, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return ReadSQLite(ctx, path, query)
	}
	return ReadFile(path)
}
