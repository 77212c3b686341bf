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

	"github.com/urban-geospatial/urban-lens-server/common"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/items"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

const maxItemsLimit = 1000

// Items returns one page of a collection's items.
// GET /api/stac/collections/:collectionId/items
func Items(c *fiber.Ctx) error {
	ctx := context.Background()
	baseURL := getBaseURL(c)

	limit, err := parseLimit(c, c.Query("limit", "50"), maxItemsLimit)
	if err != nil {
		return nil
	}
	offset, err := parseOffset(c, c.Query("offset", "0"))
	if err != nil {
		return nil
	}
	bbox, err := parseBbox(c, c.Query("bbox"))
	if err != nil {
		return nil
	}

	pool := database.GetInstance(ctx)
	fc, err := items.List(ctx, pool, baseURL, items.Params{
		Collection: c.Params("collectionId"),
		Limit:      limit,
		Offset:     offset,
		Bbox:       bbox,
		Operator:   c.Query("operator"),
		Category:   c.Query("category"),
	})
	if err != nil {
		log.Error().Err(err).Str("collectionId", c.Params("collectionId")).Msg("items query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "items query failed",
		})
	}

	return common.GeoJSON(c, fc)
}
