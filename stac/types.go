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

package stac

import (
	"github.com/twpayne/go-geom/encoding/geojson"
)

const Version = "1.0.0"

// Catalog is the root STAC catalog descriptor.
type Catalog struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StacVersion string `json:"stac_version"`
	Links       []Link `json:"links"`
}

// SpatialExtent holds one or more bounding boxes covering a collection.
type SpatialExtent struct {
	Bbox [][]float64 `json:"bbox"`
}

// TemporalExtent holds RFC 3339 intervals; a nil side means open/unknown.
type TemporalExtent struct {
	Interval [][]*string `json:"interval"`
}

type Extent struct {
	Spatial  SpatialExtent  `json:"spatial"`
	Temporal TemporalExtent `json:"temporal"`
}

// Collection describes a virtual container of catalog items.
type Collection struct {
	Type        string   `json:"type"`
	StacVersion string   `json:"stac_version"`
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	License     string   `json:"license"`
	Extent      Extent   `json:"extent"`
	Links       []Link   `json:"links"`
}

// ItemProperties carries the flattened attributes of a catalog item.
// Infrastructure and building items populate disjoint subsets.
type ItemProperties struct {
	Datetime           *string  `json:"datetime"`
	Operator           *string  `json:"operator,omitempty"`
	OperatorCode       *string  `json:"operator_code,omitempty"`
	OperatorColor      string   `json:"operator_color,omitempty"`
	InfrastructureType *string  `json:"infrastructure_type,omitempty"`
	TypeCode           *string  `json:"type_code,omitempty"`
	Category           *string  `json:"category,omitempty"`
	Status             *string  `json:"status,omitempty"`
	DepthMeters        *float64 `json:"depth_meters,omitempty"`
	Material           *string  `json:"material,omitempty"`
	BuildingType       *string  `json:"building_type,omitempty"`
	Floors             *int     `json:"floors,omitempty"`
	YearBuilt          *int     `json:"year_built,omitempty"`
	Name               *string  `json:"name,omitempty"`
}

// Item is a single catalog feature.
type Item struct {
	Type        string            `json:"type"`
	StacVersion string            `json:"stac_version"`
	ID          string            `json:"id"`
	Geometry    *geojson.Geometry `json:"geometry"`
	Bbox        []float64         `json:"bbox"`
	Properties  ItemProperties    `json:"properties"`
	Links       []Link            `json:"links"`
	Collection  string            `json:"collection,omitempty"`
}

// FeatureCollection is the item-search response shape.
type FeatureCollection struct {
	Type           string         `json:"type"`
	Features       []Item         `json:"features"`
	Links          []Link         `json:"links"`
	NumberMatched  *int           `json:"numberMatched,omitempty"`
	NumberReturned int            `json:"numberReturned"`
	Context        map[string]int `json:"context,omitempty"`
}

// NewFeatureCollection returns an empty FeatureCollection ready to append to.
func NewFeatureCollection() *FeatureCollection {
	return &FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Item, 0),
		Links:    make([]Link, 0),
	}
}

// SearchRequest is the cross-collection search body. The GET variant maps
// query parameters onto the same structure.
type SearchRequest struct {
	Bbox        []float64 `json:"bbox,omitempty"`
	Collections []string  `json:"collections,omitempty"`
	Limit       int       `json:"limit"`
	Offset      int       `json:"offset"`
	Operator    string    `json:"operator,omitempty"`
	Category    string    `json:"category,omitempty"`
}
