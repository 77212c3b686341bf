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

// Package reference manages the operator and infrastructure-type lookup
// tables. Codes are the only stable join key across repeated imports;
// rows are created on first reference and never deleted.
package reference

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/database"
)

const uniqueViolation = "23505"

// Operator is a company or institution owning catalog items.
type Operator struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	NameAz   *string `json:"name_az"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
}

// InfrastructureType classifies infrastructure items (pipe, cable, ...).
type InfrastructureType struct {
	ID       string  `json:"id"`
	Code     string  `json:"code"`
	Name     string  `json:"name"`
	NameAz   *string `json:"name_az"`
	Category string  `json:"category"`
}

// ListOperators returns all operator reference rows.
func ListOperators(ctx context.Context, db database.Querier) ([]Operator, error) {
	rows, err := db.Query(ctx, `SELECT id, code, name, name_az, category, color FROM urban.operators ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Operator, 0)
	for rows.Next() {
		var op Operator
		if err := rows.Scan(&op.ID, &op.Code, &op.Name, &op.NameAz, &op.Category, &op.Color); err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// ListInfrastructureTypes returns all type reference rows.
func ListInfrastructureTypes(ctx context.Context, db database.Querier) ([]InfrastructureType, error) {
	rows, err := db.Query(ctx, `SELECT id, code, name, name_az, category FROM urban.infrastructure_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]InfrastructureType, 0)
	for rows.Next() {
		var t InfrastructureType
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.NameAz, &t.Category); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetOrCreateOperator resolves an operator row id by code, inserting the
// row on first use. A concurrent insert of the same code is recovered by
// re-selecting after the unique-constraint violation.
func GetOrCreateOperator(ctx context.Context, db database.Querier, code, name, category, color string) (string, error) {
	var id string
	err := db.QueryRow(ctx, `SELECT id FROM urban.operators WHERE code = $1`, code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	_, err = db.Exec(ctx,
		`INSERT INTO urban.operators (id, code, name, name_az, category, color, created_at) VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, code, name, name, category, color)
	if err == nil {
		return id, nil
	}
	if isUniqueViolation(err) {
		log.Debug().Str("code", code).Msg("operator created concurrently, re-selecting")
		var existing string
		if err := db.QueryRow(ctx, `SELECT id FROM urban.operators WHERE code = $1`, code).Scan(&existing); err != nil {
			return "", err
		}
		return existing, nil
	}
	return "", err
}

// GetOrCreateInfrastructureType resolves a type row id by code, inserting
// on first use with the importing operator's category. Same race recovery
// as GetOrCreateOperator.
func GetOrCreateInfrastructureType(ctx context.Context, db database.Querier, code, category string) (string, error) {
	var id string
	err := db.QueryRow(ctx, `SELECT id FROM urban.infrastructure_types WHERE code = $1`, code).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return "", err
	}

	id = uuid.NewString()
	_, err = db.Exec(ctx,
		`INSERT INTO urban.infrastructure_types (id, code, name, name_az, category, created_at) VALUES ($1, $2, $3, $4, $5, now())`,
		id, code, code, code, category)
	if err == nil {
		return id, nil
	}
	if isUniqueViolation(err) {
		log.Debug().Str("code", code).Msg("infrastructure type created concurrently, re-selecting")
		var existing string
		if err := db.QueryRow(ctx, `SELECT id FROM urban.infrastructure_types WHERE code = $1`, code).Scan(&existing); err != nil {
			return "", err
		}
		return existing, nil
	}
	return "", err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
