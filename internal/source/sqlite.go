package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	_ "modernc.org/sqlite"
)

// DefaultQuery is used by ReadSQLite when no query is given.
const DefaultQuery = "SELECT lng, lat, properties FROM points"

// ReadSQLite runs query against the SQLite database at path and turns every
// row into a point feature. The query must select longitude and latitude,
// optionally followed by a JSON object with the feature properties.
func ReadSQLite(ctx context.Context, path, query string) ([]*geojson.Feature, error) {
	if query == "" {
		query = DefaultQuery
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query points: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) != 2 && len(cols) != 3 {
		return nil, fmt.Errorf("query points: expected lng, lat[, properties] columns, got %d", len(cols))
	}

	var features []*geojson.Feature
	for rows.Next() {
		var (
			lng, lat float64
			props    sql.NullString
		)
		dest := []any{&lng, &lat}
		if len(cols) == 3 {
			dest = append(dest, &props)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(features), err)
		}

		f := geojson.NewFeature(orb.Point{lng, lat})
		if props.Valid && props.String != "" {
			if err := json.Unmarshal([]byte(props.String), &f.Properties); err != nil {
				return nil, fmt.Errorf("row %d properties: %w", len(features), err)
			}
		}
		features = append(features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return features, nil
}
