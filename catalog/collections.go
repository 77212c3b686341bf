// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package catalog builds the two collection descriptors exposed by the
// catalog. Spatial and temporal extents are aggregated from member rows on
// every call; an empty collection falls back to the configured demo bbox.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

const (
	Infrastructure = "infrastructure"
	Buildings      = "buildings"
)

// Normalize strips the optional namespace prefix from a collection id, so
// both "infrastructure" and "urban.infrastructure" resolve the same way.
func Normalize(id string) string {
	return strings.TrimPrefix(id, "urban.")
}

// Known reports whether id names one of the two collections after
// normalization.
func Known(id string) bool {
	n := Normalize(id)
	return n == Infrastructure || n == Buildings
}

func table(id string) string {
	if Normalize(id) == Buildings {
		return "urban.buildings"
	}
	return "urban.infrastructure"
}

// Extent aggregates the bounding envelope and creation-timestamp range of a
// collection's member rows.
func Extent(ctx context.Context, db database.Querier, collectionID string) (stac.Extent, error) {
	q := fmt.Sprintf(`SELECT min(ST_XMin(geometry)), min(ST_YMin(geometry)), max(ST_XMax(geometry)), max(ST_YMax(geometry)), min(created_at), max(created_at) FROM %s`, table(collectionID))

	var minLon, minLat, maxLon, maxLat *float64
	var start, end *time.Time
	row := db.QueryRow(ctx, q)
	if err := row.Scan(&minLon, &minLat, &maxLon, &maxLat, &start, &end); err != nil {
		return stac.Extent{}, err
	}

	bbox := []float64{
		orDefault(minLon, "demo_bbox.min_lon"),
		orDefault(minLat, "demo_bbox.min_lat"),
		orDefault(maxLon, "demo_bbox.max_lon"),
		orDefault(maxLat, "demo_bbox.max_lat"),
	}

	var startStr, endStr *string
	if start != nil {
		s := start.UTC().Format(time.RFC3339)
		startStr = &s
	}
	if end != nil {
		s := end.UTC().Format(time.RFC3339)
		endStr = &s
	}

	return stac.Extent{
		Spatial:  stac.SpatialExtent{Bbox: [][]float64{bbox}},
		Temporal: stac.TemporalExtent{Interval: [][]*string{{startStr, endStr}}},
	}, nil
}

func orDefault(v *float64, key string) float64 {
	if v != nil {
		return *v
	}
	return viper.GetFloat64(key)
}

// Get returns one collection descriptor, or nil for an unknown id.
func Get(ctx context.Context, db database.Querier, baseURL, id string) (*stac.Collection, error) {
	if !Known(id) {
		return nil, nil
	}
	id = Normalize(id)

	extent, err := Extent(ctx, db, id)
	if err != nil {
		return nil, err
	}

	col := stac.Collection{
		Type:        "Collection",
		StacVersion: stac.Version,
		ID:          id,
		License:     "proprietary",
		Extent:      extent,
	}
	switch id {
	case Infrastructure:
		col.Title = "Urban Infrastructure"
		col.Description = "Şəhər infrastrukturu - kabellər, borular, elektrik xətləri"
		col.Keywords = []string{"infrastructure", "cables", "pipes", "utilities", "baku"}
	case Buildings:
		col.Title = "Buildings"
		col.Description = "Binalar və tikililər"
		col.Keywords = []string{"buildings", "structures", "real-estate", "baku"}
	}

	endpoint := fmt.Sprintf("/collections/%s", id)
	col.Links = stac.AddLink(col.Links, baseURL, "self", endpoint, "application/json")
	col.Links = stac.AddLink(col.Links, baseURL, "parent", "/", "application/json")
	col.Links = stac.AddLink(col.Links, baseURL, "items", endpoint+"/items", "application/geo+json")

	return &col, nil
}

// List returns the fixed set of collection descriptors.
func List(ctx context.Context, db database.Querier, baseURL string) ([]stac.Collection, error) {
	out := make([]stac.Collection, 0, 2)
	for _, id := range []string{Infrastructure, Buildings} {
		col, err := Get(ctx, db, baseURL, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *col)
	}
	return out, nil
}
