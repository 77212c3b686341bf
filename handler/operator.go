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

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/importer"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// LoginRequest is the operator portal credential body.
type LoginRequest struct {
	OperatorID string `json:"operator_id"`
	Password   string `json:"password"`
}

// LoginResponse reports the authentication outcome. The account never
// carries the password; the field is excluded from serialization.
type LoginResponse struct {
	Success  bool              `json:"success"`
	Operator *importer.Account `json:"operator,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// Login checks an operator id/password pair against the account registry.
// POST /api/operator/login
func Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Error().Err(err).Msg("could not parse login request body")
		c.Status(fiber.StatusBadRequest)
		return c.JSON(stac.Message{
			Code:        stac.JSONParsingError,
			Description: "could not parse login request body",
		})
	}

	acct, ok := getRegistry().Authenticate(req.OperatorID, req.Password)
	if !ok {
		log.Info().Str("operator", req.OperatorID).Msg("failed login attempt")
		c.Status(fiber.StatusUnauthorized)
		return c.JSON(LoginResponse{
			Success: false,
			Message: "invalid operator id or password",
		})
	}

	return c.JSON(LoginResponse{Success: true, Operator: &acct})
}

// OperatorList returns the registered upload accounts without credentials.
// GET /api/operator/list
func OperatorList(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"operators": getRegistry().List()})
}

// OperatorStatsResponse is the per-account count summary. building_count is
// singular; dashboard clients key on that exact name.
type OperatorStatsResponse struct {
	Operator            importer.Account `json:"operator"`
	InfrastructureCount int              `json:"infrastructure_count"`
	BuildingCount       int              `json:"building_count"`
}

// OperatorStats returns per-account entity counts. Accounts without a
// reference row yet report zero counts.
// GET /api/operator/stats/:operatorId
func OperatorStats(c *fiber.Ctx) error {
	ctx := context.Background()
	operatorID := c.Params("operatorId")

	acct, ok := getRegistry().Get(operatorID)
	if !ok {
		c.Status(fiber.ErrNotFound.Code)
		return c.JSON(stac.Message{
			Code:        stac.NotFoundError,
			Description: fmt.Sprintf("operator '%s' not found", operatorID),
		})
	}

	pool := database.GetInstance(ctx)

	var refID string
	err := pool.QueryRow(ctx, `SELECT id FROM urban.operators WHERE code = $1`, acct.ID).Scan(&refID)
	if errors.Is(err, pgx.ErrNoRows) {
		return c.JSON(OperatorStatsResponse{Operator: acct})
	}
	if err != nil {
		log.Error().Err(err).Str("operator", operatorID).Msg("operator lookup failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "operator lookup failed",
		})
	}

	var infraCount, buildingCount int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM urban.infrastructure WHERE operator_id = $1`, refID).Scan(&infraCount); err != nil {
		log.Error().Err(err).Str("operator", operatorID).Msg("operator stats query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "operator stats query failed",
		})
	}
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM urban.buildings WHERE operator_id = $1`, refID).Scan(&buildingCount); err != nil {
		log.Error().Err(err).Str("operator", operatorID).Msg("operator stats query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "operator stats query failed",
		})
	}

	return c.JSON(OperatorStatsResponse{
		Operator:            acct,
		InfrastructureCount: infraCount,
		BuildingCount:       buildingCount,
	})
}

// OperatorImport ingests an uploaded GeoJSON file on behalf of an account.
// POST /api/operator/import/:operatorId
func OperatorImport(c *fiber.Ctx) error {
	ctx := context.Background()
	operatorID := c.Params("operatorId")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		log.Error().Err(err).Msg("missing upload file")
		c.Status(fiber.StatusBadRequest)
		return c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: "multipart field 'file' is required",
		})
	}

	name := strings.ToLower(fileHeader.Filename)
	if !strings.HasSuffix(name, ".geojson") && !strings.HasSuffix(name, ".json") {
		stats := importer.ImportStats{Message: "only .geojson and .json files are accepted", Errors: 1}
		c.Status(fiber.StatusBadRequest)
		return c.JSON(stats)
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("could not open upload")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.ServerError,
			Description: "could not open uploaded file",
		})
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("could not read upload")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.ServerError,
			Description: "could not read uploaded file",
		})
	}

	pool := database.GetInstance(ctx)
	stats, err := importer.ImportFeatureCollection(ctx, pool, getRegistry(), operatorID, raw)
	if errors.Is(err, importer.ErrUnknownAccount) {
		c.Status(fiber.ErrNotFound.Code)
		return c.JSON(stac.Message{
			Code:        stac.NotFoundError,
			Description: fmt.Sprintf("operator '%s' not found", operatorID),
		})
	}
	if err != nil {
		log.Error().Err(err).Str("operator", operatorID).Msg("import failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "import failed",
		})
	}

	return c.JSON(stats)
}
