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
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/common"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/items"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// GetSearch maps the query-string variant onto a SearchRequest.
// GET /api/stac/search
func GetSearch(c *fiber.Ctx) error {
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

	req := stac.SearchRequest{
		Bbox:     bbox,
		Limit:    limit,
		Offset:   offset,
		Operator: c.Query("operator"),
		Category: c.Query("category"),
	}
	if collections := c.Query("collections"); collections != "" {
		req.Collections = strings.Split(collections, ",")
	}

	return runSearch(c, req)
}

// PostSearch accepts the same request as a JSON body.
// POST /api/stac/search
func PostSearch(c *fiber.Ctx) error {
	var req stac.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		log.Error().Err(err).Msg("could not parse search request body")
		c.Status(fiber.StatusBadRequest)
		return c.JSON(stac.Message{
			Code:        stac.JSONParsingError,
			Description: "could not parse search request body",
		})
	}
	if req.Limit == 0 {
		req.Limit = 50
	}
	if req.Limit < 1 || req.Limit > maxItemsLimit {
		log.Error().Int("limit", req.Limit).Msg("limit out of bounds")
		c.Status(fiber.ErrUnprocessableEntity.Code)
		return c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: fmt.Sprintf("limit must be between 1 and %d", maxItemsLimit),
		})
	}
	if req.Offset < 0 {
		log.Error().Int("offset", req.Offset).Msg("invalid offset")
		c.Status(fiber.ErrUnprocessableEntity.Code)
		return c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: "offset must be a non-negative integer",
		})
	}
	if len(req.Bbox) != 0 && len(req.Bbox) != 4 {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: "bbox must contain exactly 4 numbers",
		})
	}

	return runSearch(c, req)
}

func runSearch(c *fiber.Ctx, req stac.SearchRequest) error {
	ctx := context.Background()
	baseURL := getBaseURL(c)

	pool := database.GetInstance(ctx)
	fc, err := items.Search(ctx, pool, baseURL, req)
	if err != nil {
		log.Error().Err(err).Msg("search query failed")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "search query failed",
		})
	}

	return common.GeoJSON(c, fc)
}
