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

// Package items runs filtered, paginated queries over the catalog tables
// and maps rows to STAC items.
package items

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/catalog"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/geometry"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// DefaultOperatorColor is used when an item has no linked operator.
const DefaultOperatorColor = "#3388ff"

// Params are the item-listing filters. Limit is trusted to be within
// [1, 1000]; the handler layer enforces the bound.
type Params struct {
	Collection string
	Limit      int
	Offset     int
	Bbox       []float64
	Operator   string
	Category   string
}

// List returns one page of catalog items. An unknown collection id yields
// an empty feature collection with numberMatched = 0, not an error.
func List(ctx context.Context, db database.Querier, baseURL string, p Params) (*stac.FeatureCollection, error) {
	switch catalog.Normalize(p.Collection) {
	case catalog.Infrastructure:
		return listInfrastructure(ctx, db, baseURL, p)
	case catalog.Buildings:
		return listBuildings(ctx, db, baseURL, p)
	default:
		log.Debug().Str("collection", p.Collection).Msg("unknown collection requested")
		fc := stac.NewFeatureCollection()
		zero := 0
		fc.NumberMatched = &zero
		return fc, nil
	}
}

// filterClause builds the WHERE fragment shared by the page and count
// queries. Category filtering only applies to infrastructure.
func filterClause(p Params, withCategory bool) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if len(p.Bbox) == 4 {
		args = append(args, geometry.BboxPolygonWKT(p.Bbox))
		conds = append(conds, fmt.Sprintf("ST_Intersects(i.geometry, ST_GeomFromText($%d, %d))", len(args), geometry.SRID))
	}
	if p.Operator != "" {
		args = append(args, p.Operator)
		conds = append(conds, fmt.Sprintf("o.code = $%d", len(args)))
	}
	if withCategory && p.Category != "" {
		args = append(args, p.Category)
		conds = append(conds, fmt.Sprintf("t.category = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const infraFrom = ` FROM urban.infrastructure i
 LEFT JOIN urban.operators o ON i.operator_id = o.id
 LEFT JOIN urban.infrastructure_types t ON i.type_id = t.id`

func listInfrastructure(ctx context.Context, db database.Querier, baseURL string, p Params) (*stac.FeatureCollection, error) {
	where, args := filterClause(p, true)

	var total int
	row := db.QueryRow(ctx, "SELECT count(*)"+infraFrom+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT i.stac_id, ST_AsEWKB(i.geometry), i.status, i.depth_meters, i.material, i.created_at,
 o.name, o.code, o.color, t.name, t.code, t.category` + infraFrom + where +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := db.Query(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fc := stac.NewFeatureCollection()
	for rows.Next() {
		var stacID string
		var ewkbData []byte
		var status, material *string
		var depth *float64
		var createdAt *time.Time
		var opName, opCode, opColor, typeName, typeCode, typeCategory *string

		if err := rows.Scan(&stacID, &ewkbData, &status, &depth, &material, &createdAt,
			&opName, &opCode, &opColor, &typeName, &typeCode, &typeCategory); err != nil {
			return nil, err
		}

		item, err := newItem(baseURL, catalog.Infrastructure, stacID, ewkbData, createdAt)
		if err != nil {
			return nil, err
		}
		item.Properties.Operator = opName
		item.Properties.OperatorCode = opCode
		item.Properties.OperatorColor = colorOrDefault(opColor)
		item.Properties.InfrastructureType = typeName
		item.Properties.TypeCode = typeCode
		item.Properties.Category = typeCategory
		item.Properties.Status = status
		item.Properties.DepthMeters = depth
		item.Properties.Material = material

		fc.Features = append(fc.Features, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fc.NumberMatched = &total
	fc.NumberReturned = len(fc.Features)
	fc.Context = map[string]int{"limit": p.Limit, "offset": p.Offset, "matched": total}
	itemsEndpoint := fmt.Sprintf("/collections/%s/items?limit=%d&offset=%d", catalog.Infrastructure, p.Limit, p.Offset)
	fc.Links = stac.AddLink(fc.Links, baseURL, "self", itemsEndpoint, "application/geo+json")
	fc.Links = stac.AddLink(fc.Links, baseURL, "collection", "/collections/"+catalog.Infrastructure, "application/json")

	return fc, nil
}

const buildingFrom = ` FROM urban.buildings i
 LEFT JOIN urban.operators o ON i.operator_id = o.id`

func listBuildings(ctx context.Context, db database.Querier, baseURL string, p Params) (*stac.FeatureCollection, error) {
	where, args := filterClause(p, false)

	var total int
	row := db.QueryRow(ctx, "SELECT count(*)"+buildingFrom+where, args...)
	if err := row.Scan(&total); err != nil {
		return nil, err
	}

	query := `SELECT i.stac_id, ST_AsEWKB(i.geometry), i.name, i.building_type, i.floors, i.year_built, i.created_at,
 o.name, o.code, o.color` + buildingFrom + where +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := db.Query(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fc := stac.NewFeatureCollection()
	for rows.Next() {
		var stacID string
		var ewkbData []byte
		var name, buildingType *string
		var floors, yearBuilt *int
		var createdAt *time.Time
		var opName, opCode, opColor *string

		if err := rows.Scan(&stacID, &ewkbData, &name, &buildingType, &floors, &yearBuilt, &createdAt,
			&opName, &opCode, &opColor); err != nil {
			return nil, err
		}

		item, err := newItem(baseURL, catalog.Buildings, stacID, ewkbData, createdAt)
		if err != nil {
			return nil, err
		}
		item.Properties.Operator = opName
		item.Properties.OperatorCode = opCode
		item.Properties.OperatorColor = colorOrDefault(opColor)
		item.Properties.BuildingType = buildingType
		item.Properties.Floors = floors
		item.Properties.YearBuilt = yearBuilt
		item.Properties.Name = name

		fc.Features = append(fc.Features, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	fc.NumberMatched = &total
	fc.NumberReturned = len(fc.Features)
	itemsEndpoint := fmt.Sprintf("/collections/%s/items?limit=%d&offset=%d", catalog.Buildings, p.Limit, p.Offset)
	fc.Links = stac.AddLink(fc.Links, baseURL, "self", itemsEndpoint, "application/geo+json")
	fc.Links = stac.AddLink(fc.Links, baseURL, "collection", "/collections/"+catalog.Buildings, "application/json")

	return fc, nil
}

// newItem decodes the stored geometry and fills the fields common to both
// collections.
func newItem(baseURL, collectionID, stacID string, ewkbData []byte, createdAt *time.Time) (*stac.Item, error) {
	g, err := geometry.Decode(ewkbData)
	if err != nil {
		log.Error().Err(err).Str("stac_id", stacID).Msg("failed to decode stored geometry")
		return nil, err
	}
	gj, err := geometry.ToGeoJSON(g)
	if err != nil {
		return nil, err
	}

	item := stac.Item{
		Type:        "Feature",
		StacVersion: stac.Version,
		ID:          stacID,
		Geometry:    gj,
		Bbox:        geometry.Bbox(g),
		Collection:  collectionID,
	}
	if createdAt != nil {
		dt := createdAt.UTC().Format(time.RFC3339)
		item.Properties.Datetime = &dt
	}

	item.Links = stac.AddLink(item.Links, baseURL, "self",
		fmt.Sprintf("/collections/%s/items/%s", collectionID, stacID), "application/geo+json")
	item.Links = stac.AddLink(item.Links, baseURL, "collection",
		"/collections/"+collectionID, "application/json")

	return &item, nil
}

func colorOrDefault(color *string) string {
	if color != nil && *color != "" {
		return *color
	}
	return DefaultOperatorColor
}
