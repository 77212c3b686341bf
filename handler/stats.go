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
	"github.com/urban-geospatial/urban-lens-server/items"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// Stats returns dashboard totals and the overall data bbox.
// GET /api/stats
func Stats(c *fiber.Ctx) error {
	ctx := context.Background()

	pool := database.GetInstance(ctx)
	stats, err := items.GetStats(ctx, pool)
	if err != nil {
		log.Error().Err(err).Msg("stats query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "stats query failed",
		})
	}

	return c.JSON(stats)
}
