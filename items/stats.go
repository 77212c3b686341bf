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

package items

import (
	"context"

	"github.com/spf13/viper"

	"github.com/urban-geospatial/urban-lens-server/database"
)

type OperatorStat struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Count int    `json:"count"`
}

type CategoryStat struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Stats is the dashboard summary: entity totals, per-operator and
// per-category infrastructure counts, and the overall bbox.
type Stats struct {
	TotalInfrastructure int            `json:"total_infrastructure"`
	TotalBuildings      int            `json:"total_buildings"`
	TotalStreets        int            `json:"total_streets"`
	Operators           []OperatorStat `json:"operators"`
	Categories          []CategoryStat `json:"categories"`
	Bbox                []float64      `json:"bbox"`
}

// GetStats reads all summary counters. Totals reflect the row counts at
// the time of each query; no snapshot is taken across them.
func GetStats(ctx context.Context, db database.Querier) (*Stats, error) {
	stats := Stats{
		Operators:  make([]OperatorStat, 0),
		Categories: make([]CategoryStat, 0),
	}

	for _, c := range []struct {
		table string
		dest  *int
	}{
		{"urban.infrastructure", &stats.TotalInfrastructure},
		{"urban.buildings", &stats.TotalBuildings},
		{"urban.streets", &stats.TotalStreets},
	} {
		row := db.QueryRow(ctx, "SELECT count(*) FROM "+c.table)
		if err := row.Scan(c.dest); err != nil {
			return nil, err
		}
	}

	rows, err := db.Query(ctx, `SELECT o.code, o.name, o.color, count(i.id)
 FROM urban.operators o
 LEFT JOIN urban.infrastructure i ON i.operator_id = o.id
 GROUP BY o.id, o.code, o.name, o.color`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var s OperatorStat
		if err := rows.Scan(&s.Code, &s.Name, &s.Color, &s.Count); err != nil {
			return nil, err
		}
		stats.Operators = append(stats.Operators, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	catRows, err := db.Query(ctx, `SELECT t.category, count(i.id)
 FROM urban.infrastructure_types t
 JOIN urban.infrastructure i ON i.type_id = t.id
 GROUP BY t.category`)
	if err != nil {
		return nil, err
	}
	defer catRows.Close()
	for catRows.Next() {
		var s CategoryStat
		if err := catRows.Scan(&s.Category, &s.Count); err != nil {
			return nil, err
		}
		stats.Categories = append(stats.Categories, s)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	var minLon, minLat, maxLon, maxLat *float64
	row := db.QueryRow(ctx, `SELECT min(ST_XMin(geometry)), min(ST_YMin(geometry)), max(ST_XMax(geometry)), max(ST_YMax(geometry)) FROM urban.infrastructure`)
	if err := row.Scan(&minLon, &minLat, &maxLon, &maxLat); err != nil {
		return nil, err
	}
	stats.Bbox = []float64{
		floatOrDefault(minLon, "demo_bbox.min_lon"),
		floatOrDefault(minLat, "demo_bbox.min_lat"),
		floatOrDefault(maxLon, "demo_bbox.max_lon"),
		floatOrDefault(maxLat, "demo_bbox.max_lat"),
	}

	return &stats, nil
}

func floatOrDefault(v *float64, key string) float64 {
	if v != nil {
		return *v
	}
	return viper.GetFloat64(key)
}
