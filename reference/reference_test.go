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

package reference

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateOperatorExisting(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("aztelekom").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("op-1"))

	id, err := GetOrCreateOperator(context.Background(), mock, "aztelekom", "Aztelekom MMC", "telecom", "#6366f1")
	require.NoError(t, err)
	assert.Equal(t, "op-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateOperatorInserts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("aztelekom").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.operators")).
		WithArgs(pgxmock.AnyArg(), "aztelekom", "Aztelekom MMC", "Aztelekom MMC", "telecom", "#6366f1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := GetOrCreateOperator(context.Background(), mock, "aztelekom", "Aztelekom MMC", "telecom", "#6366f1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateOperatorRecoversFromConcurrentInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("sutechizati").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.operators")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("sutechizati").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("op-2"))

	id, err := GetOrCreateOperator(context.Background(), mock, "sutechizati", "Su Təchizatı", "water", "#06b6d4")
	require.NoError(t, err)
	assert.Equal(t, "op-2", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateOperatorPropagatesOtherErrors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.operators WHERE code = $1")).
		WithArgs("aztelekom").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.operators")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "42P01"})

	_, err = GetOrCreateOperator(context.Background(), mock, "aztelekom", "Aztelekom MMC", "telecom", "#6366f1")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateInfrastructureTypeRecoversFromConcurrentInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("pipe").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO urban.infrastructure_types")).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM urban.infrastructure_types WHERE code = $1")).
		WithArgs("pipe").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("type-1"))

	id, err := GetOrCreateInfrastructureType(context.Background(), mock, "pipe", "water")
	require.NoError(t, err)
	assert.Equal(t, "type-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListOperators(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, name_az, category, color FROM urban.operators")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "name_az", "category", "color"}).
			AddRow("op-1", "aztelekom", "Aztelekom MMC", nil, "telecom", "#6366f1").
			AddRow("op-2", "sutechizati", "Su Təchizatı", nil, "water", "#06b6d4"))

	operators, err := ListOperators(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, operators, 2)
	assert.Equal(t, "aztelekom", operators[0].Code)
	assert.Nil(t, operators[0].NameAz)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListInfrastructureTypes(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, code, name, name_az, category FROM urban.infrastructure_types")).
		WillReturnRows(pgxmock.NewRows([]string{"id", "code", "name", "name_az", "category"}).
			AddRow("type-1", "pipe", "pipe", nil, "water"))

	types, err := ListInfrastructureTypes(context.Background(), mock)
	require.NoError(t, err)
	require.Len(t, types, 1)
	assert.Equal(t, "pipe", types[0].Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
