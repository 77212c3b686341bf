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

// Package geometry converts between the store's native EWKB geometries,
// GeoJSON representations, and the WKT strings fed to ST_GeomFromText.
// All geometries are SRID 4326.
package geometry

import (
	"bytes"
	"errors"
	"strconv"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

const SRID = 4326

var ErrEmptyGeometry = errors.New("geometry has no coordinates")

// Decode parses an EWKB geometry as returned by ST_AsEWKB.
func Decode(data []byte) (geom.T, error) {
	return ewkb.Unmarshal(data)
}

// Encode serializes a geometry to EWKB with SRID 4326, little-endian.
func Encode(g geom.T) ([]byte, error) {
	return ewkb.Marshal(g, ewkb.NDR)
}

// ToGeoJSON produces the GeoJSON representation of a stored geometry.
func ToGeoJSON(g geom.T) (*geojson.Geometry, error) {
	return geojson.Encode(g)
}

// FromGeoJSON decodes an uploaded GeoJSON geometry object. A geometry with
// missing, null, or empty coordinates yields ErrEmptyGeometry.
func FromGeoJSON(gj *geojson.Geometry) (geom.T, error) {
	if gj == nil || gj.Coordinates == nil {
		return nil, ErrEmptyGeometry
	}
	raw := bytes.TrimSpace(*gj.Coordinates)
	if len(raw) == 0 || string(raw) == "null" || string(raw) == "[]" {
		return nil, ErrEmptyGeometry
	}
	return gj.Decode()
}

// Bbox computes the axis-aligned bounding box of a geometry as
// [minX, minY, maxX, maxY].
func Bbox(g geom.T) []float64 {
	b := g.Bounds()
	return []float64{b.Min(0), b.Min(1), b.Max(0), b.Max(1)}
}

// WKT serializes a geometry to well-known text for ST_GeomFromText.
func WKT(g geom.T) (string, error) {
	return wkt.Marshal(g)
}

// OuterRing returns a polygon reduced to its first linear ring. Interior
// rings (holes) are discarded on import.
func OuterRing(p *geom.Polygon) (*geom.Polygon, error) {
	if p.NumLinearRings() == 0 {
		return nil, ErrEmptyGeometry
	}
	if p.NumLinearRings() == 1 {
		return p, nil
	}
	ring := geom.NewLinearRingFlat(p.Layout(), p.LinearRing(0).FlatCoords())
	out := geom.NewPolygon(p.Layout())
	if err := out.Push(ring); err != nil {
		return nil, err
	}
	return out, nil
}

// BboxPolygonWKT builds the closed rectangle polygon for a 4-element bbox
// [minLon, minLat, maxLon, maxLat]. Coordinates are formatted losslessly.
func BboxPolygonWKT(bbox []float64) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	minLon, minLat, maxLon, maxLat := f(bbox[0]), f(bbox[1]), f(bbox[2]), f(bbox[3])

	var sb strings.Builder
	sb.WriteString("POLYGON((")
	sb.WriteString(minLon + " " + minLat + ", ")
	sb.WriteString(maxLon + " " + minLat + ", ")
	sb.WriteString(maxLon + " " + maxLat + ", ")
	sb.WriteString(minLon + " " + maxLat + ", ")
	sb.WriteString(minLon + " " + minLat)
	sb.WriteString("))")
	return sb.String()
}
