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

// Package importer ingests uploaded GeoJSON feature collections. Each
// feature is classified by geometry type and persisted with its own
// statement, so one malformed feature never rolls back accepted ones.
// Import is at-least-once, not atomic; retried uploads may need
// de-duplication by stac id.
package importer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/geometry"
	"github.com/urban-geospatial/urban-lens-server/reference"
)

// ErrUnknownAccount signals an operator id not present in the registry.
var ErrUnknownAccount = errors.New("unknown operator account")

const firstErrorMaxLen = 150

// ImportStats summarizes one import run. Only the first per-feature error
// message is retained; the rest are counted.
type ImportStats struct {
	Total               int     `json:"total"`
	Imported            int     `json:"imported"`
	Errors              int     `json:"errors"`
	Message             string  `json:"message"`
	FirstError          *string `json:"first_error,omitempty"`
	BuildingsCount      int     `json:"buildings_count"`
	InfrastructureCount int     `json:"infrastructure_count"`
}

func (s *ImportStats) recordError(msg string) {
	s.Errors++
	if s.FirstError == nil {
		if len(msg) > firstErrorMaxLen {
			msg = msg[:firstErrorMaxLen]
		}
		s.FirstError = &msg
	}
}

type feature struct {
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// ImportFeatureCollection parses raw GeoJSON and persists its features on
// behalf of the given operator account. Format errors are reported in the
// returned stats with zero imported; ErrUnknownAccount is returned for an
// unregistered account id.
func ImportFeatureCollection(ctx context.Context, db database.Querier, registry *Registry, accountID string, raw []byte) (*ImportStats, error) {
	acct, ok := registry.Get(accountID)
	if !ok {
		return nil, ErrUnknownAccount
	}

	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		stats := &ImportStats{Message: "invalid GeoJSON format"}
		stats.recordError(err.Error())
		return stats, nil
	}
	if fc.Type != "FeatureCollection" {
		stats := &ImportStats{Message: "FeatureCollection expected"}
		stats.Errors = 1
		return stats, nil
	}
	if len(fc.Features) == 0 {
		return &ImportStats{Message: "file is empty"}, nil
	}

	operatorID, err := reference.GetOrCreateOperator(ctx, db, acct.ID, acct.FullName, acct.Category, acct.Color)
	if err != nil {
		return nil, err
	}

	stats := &ImportStats{Total: len(fc.Features)}
	logInterval := viper.GetInt("import.batch_log_interval")
	if logInterval <= 0 {
		logInterval = 100
	}

	for i, f := range fc.Features {
		g, err := geometry.FromGeoJSON(f.Geometry)
		if err != nil {
			stats.recordError(fmt.Sprintf("feature %d: missing geometry coordinates", i))
			continue
		}

		switch shape := g.(type) {
		case *geom.Polygon:
			err = importBuilding(ctx, db, operatorID, shape, f.Properties)
			if err == nil {
				stats.BuildingsCount++
			}
		case *geom.LineString:
			err = importInfrastructure(ctx, db, operatorID, acct.Category, g, f.Properties, "pipe", true)
			if err == nil {
				stats.InfrastructureCount++
			}
		case *geom.Point:
			err = importInfrastructure(ctx, db, operatorID, acct.Category, g, f.Properties, "point", false)
			if err == nil {
				stats.InfrastructureCount++
			}
		default:
			stats.recordError(fmt.Sprintf("feature %d: unsupported geometry type %s", i, f.Geometry.Type))
			continue
		}

		if err != nil {
			stats.recordError(fmt.Sprintf("feature %d: %s", i, err.Error()))
			continue
		}

		stats.Imported++
		if stats.Imported%logInterval == 0 {
			log.Info().Int("imported", stats.Imported).Int("total", stats.Total).
				Str("operator", acct.ID).Msg("import progress")
		}
	}

	stats.Message = summaryMessage(stats)
	log.Info().Str("operator", acct.ID).Int("total", stats.Total).
		Int("imported", stats.Imported).Int("errors", stats.Errors).Msg("import finished")
	return stats, nil
}

// importBuilding persists a Polygon feature as a building row. Only the
// outer ring is kept.
func importBuilding(ctx context.Context, db database.Querier, operatorID string, poly *geom.Polygon, props map[string]any) error {
	outer, err := geometry.OuterRing(poly)
	if err != nil {
		return err
	}
	wktStr, err := geometry.WKT(outer)
	if err != nil {
		return err
	}

	id := uuid.NewString()
	stacID := "bldg-" + id[:8]
	name := stringProp(props, "", "name", "name:az")
	buildingType := stringProp(props, "yes", "building_type", "building")
	floors := intPart(propValue(props, "floors", "building:levels"))

	_, err = db.Exec(ctx,
		`INSERT INTO urban.buildings (id, stac_id, geometry, operator_id, name, building_type, floors, created_at) VALUES ($1, $2, ST_GeomFromText($3, 4326), $4, $5, $6, $7, now())`,
		id, stacID, wktStr, operatorID, name, buildingType, floors)
	return err
}

// importInfrastructure persists a LineString or Point feature as an
// infrastructure row. Depth is only coerced from the fallback "depth" key
// for line features; points take an explicit depth_meters or nothing.
func importInfrastructure(ctx context.Context, db database.Querier, operatorID, category string, g geom.T, props map[string]any, defaultType string, depthFallback bool) error {
	wktStr, err := geometry.WKT(g)
	if err != nil {
		return err
	}

	typeCode := stringProp(props, defaultType, "type", "infrastructure_type")
	typeID, err := reference.GetOrCreateInfrastructureType(ctx, db, typeCode, category)
	if err != nil {
		return err
	}

	var depth *float64
	if depthFallback {
		depth = toFloat(propValue(props, "depth_meters", "depth"))
	} else {
		depth = toFloat(propValue(props, "depth_meters"))
	}

	id := uuid.NewString()
	stacID := "infr-" + id[:8]
	status := stringProp(props, "active", "status")
	var material *string
	if v, ok := props["material"]; ok && v != nil {
		m := fmt.Sprint(v)
		material = &m
	}

	_, err = db.Exec(ctx,
		`INSERT INTO urban.infrastructure (id, stac_id, geometry, operator_id, type_id, status, depth_meters, material, created_at) VALUES ($1, $2, ST_GeomFromText($3, 4326), $4, $5, $6, $7, $8, now())`,
		id, stacID, wktStr, operatorID, typeID, status, depth, material)
	return err
}

func summaryMessage(s *ImportStats) string {
	parts := make([]string, 0, 2)
	if s.BuildingsCount > 0 {
		parts = append(parts, fmt.Sprintf("%d buildings", s.BuildingsCount))
	}
	if s.InfrastructureCount > 0 {
		parts = append(parts, fmt.Sprintf("%d infrastructure items", s.InfrastructureCount))
	}
	if len(parts) == 0 {
		return "nothing imported"
	}
	return "imported " + strings.Join(parts, " and ")
}

// stringProp returns the first non-empty string value among keys, or def.
func stringProp(props map[string]any, def string, keys ...string) string {
	for _, key := range keys {
		if v, ok := props[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return def
}

// propValue returns the first present non-nil value among keys.
func propValue(props map[string]any, keys ...string) any {
	for _, key := range keys {
		if v, ok := props[key]; ok && v != nil {
			return v
		}
	}
	return nil
}

// intPart coerces a possibly-fractional numeric or string value to its
// integer part. Unparsable values map to nil, not an error.
func intPart(v any) *int {
	if v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	if s == "" {
		return nil
	}
	whole, _, _ := strings.Cut(s, ".")
	n, err := strconv.Atoi(whole)
	if err != nil {
		return nil
	}
	return &n
}

// toFloat coerces a numeric or string value to float64; unparsable -> nil.
func toFloat(v any) *float64 {
	if v == nil {
		return nil
	}
	f, err := strconv.ParseFloat(fmt.Sprint(v), 64)
	if err != nil {
		return nil
	}
	return &f
}
