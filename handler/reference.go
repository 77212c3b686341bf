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

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/reference"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// Operators lists the operator reference rows.
// GET /api/operators
func Operators(c *fiber.Ctx) error {
	ctx := context.Background()

	pool := database.GetInstance(ctx)
	operators, err := reference.ListOperators(ctx, pool)
	if err != nil {
		log.Error().Err(err).Msg("operators query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "operators query failed",
		})
	}

	return c.JSON(fiber.Map{"operators": operators})
}

// InfrastructureTypes lists the infrastructure-type reference rows.
// GET /api/infrastructure-types
func InfrastructureTypes(c *fiber.Ctx) error {
	ctx := context.Background()

	pool := database.GetInstance(ctx)
	types, err := reference.ListInfrastructureTypes(ctx, pool)
	if err != nil {
		log.Error().Err(err).Msg("infrastructure types query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "infrastructure types query failed",
		})
	}

	return c.JSON(fiber.Map{"infrastructure_types": types})
}
