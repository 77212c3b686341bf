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

package importer

import (
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry([]Account{{
		ID:       "sutechizati",
		Name:     "Su Təchizatı",
		FullName: "İri şəhərlərin birləşmiş su təchizatı",
		Category: "water",
		Color:    "#06b6d4",
		Password: "sutechizati2024",
	}})
}

func expectOperatorResolved(mock pgxmock.PgxPoolIface) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("sutechizati").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("op-1"))
}

func TestImportUnknownAccount(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = ImportFeatureCollection(context.Background(), mock, testRegistry(), "nosuch", []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnknownAccount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportInvalidJSON(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati", []byte(`{not json`))
	require.NoError(t, err)
	assert.Equal(t, "invalid GeoJSON format", stats.Message)
	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 0, stats.Imported)
	assert.NotNil(t, stats.FirstError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportNotAFeatureCollection(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati", []byte(`{"type":"Feature"}`))
	require.NoError(t, err)
	assert.Equal(t, "FeatureCollection expected", stats.Message)
	assert.Equal(t, 1, stats.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportEmptyCollection(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati",
		[]byte(`{"type":"FeatureCollection","features":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "file is empty", stats.Message)
	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportMixedFeatures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{
				"geometry": {"type": "Polygon", "coordinates": [[[49.84,40.37],[49.85,40.37],[49.85,40.38],[49.84,40.37]]]},
				"properties": {"name": "Dom Soviet", "building:levels": "5.0"}
			},
			{
				"geometry": {"type": "LineString", "coordinates": [[49.84,40.37],[49.85,40.38]]},
				"properties": {"depth": "1.5", "material": "PVC"}
			},
			{
				"geometry": {"type": "Point", "coordinates": [49.845,40.372]},
				"properties": {"infrastructure_type": "valve"}
			},
			{
				"geometry": null,
				"properties": {}
			},
			{
				"geometry": {"type": "MultiPolygon", "coordinates": [[[[49.84,40.37],[49.85,40.37],[49.85,40.38],[49.84,40.37]]]]},
				"properties": {}
			}
		]
	}`)

	expectOperatorResolved(mock)

	// polygon -> building row
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.buildings")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// linestring -> type lookup + infrastructure row
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("pipe").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("type-pipe"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.infrastructure")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	// point -> explicit type code wins over the default
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("valve").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("type-valve"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.infrastructure")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati", raw)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Imported)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 1, stats.BuildingsCount)
	assert.Equal(t, 2, stats.InfrastructureCount)
	require.NotNil(t, stats.FirstError)
	assert.Equal(t, "feature 3: missing geometry coordinates", *stats.FirstError)
	assert.Contains(t, stats.Message, "1 buildings")
	assert.Contains(t, stats.Message, "2 infrastructure items")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportEmptyCoordinateArrayIsRecordedError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"geometry": {"type": "LineString", "coordinates": []}, "properties": {}}
		]
	}`)

	expectOperatorResolved(mock)

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati", raw)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Imported)
	assert.Equal(t, 1, stats.Errors)
	require.NotNil(t, stats.FirstError)
	assert.Equal(t, "feature 0: missing geometry coordinates", *stats.FirstError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportPersistsAcceptedFeaturesDespiteFailures(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	raw := []byte(`{
		"type": "FeatureCollection",
		"features": [
			{"geometry": {"type": "Point", "coordinates": [49.84,40.37]}, "properties": {}},
			{"geometry": {"type": "Point", "coordinates": [49.85,40.38]}, "properties": {}}
		]
	}`)

	expectOperatorResolved(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("point").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("type-point"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.infrastructure")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("point").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("type-point"))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.infrastructure")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(assert.AnError)

	stats, err := ImportFeatureCollection(context.Background(), mock, testRegistry(), "sutechizati", raw)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Imported)
	assert.Equal(t, 1, stats.Errors)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordErrorTruncatesFirstError(t *testing.T) {
	var stats ImportStats
	long := strings.Repeat("x", 400)
	stats.recordError(long)
	stats.recordError("second error is only counted")

	assert.Equal(t, 2, stats.Errors)
	require.NotNil(t, stats.FirstError)
	assert.Len(t, *stats.FirstError, firstErrorMaxLen)
}

func TestIntPart(t *testing.T) {
	assert.Nil(t, intPart(nil))
	assert.Nil(t, intPart(""))
	assert.Nil(t, intPart("basement"))

	n := intPart("5")
	require.NotNil(t, n)
	assert.Equal(t, 5, *n)

	n = intPart("3.7")
	require.NotNil(t, n)
	assert.Equal(t, 3, *n)

	n = intPart(12.9)
	require.NotNil(t, n)
	assert.Equal(t, 12, *n)
}

func TestToFloat(t *testing.T) {
	assert.Nil(t, toFloat(nil))
	assert.Nil(t, toFloat("deep"))

	f := toFloat("2.5")
	require.NotNil(t, f)
	assert.Equal(t, 2.5, *f)

	f = toFloat(3)
	require.NotNil(t, f)
	assert.Equal(t, 3.0, *f)
}

func TestStringProp(t *testing.T) {
	props := map[string]any{"name:az": "Bina", "building": "apartments"}
	assert.Equal(t, "Bina", stringProp(props, "", "name", "name:az"))
	assert.Equal(t, "apartments", stringProp(props, "yes", "building_type", "building"))
	assert.Equal(t, "yes", stringProp(map[string]any{}, "yes", "building_type", "building"))
}
