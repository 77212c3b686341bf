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

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/catalog"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// Collections returns both collection descriptors.
// GET /api/stac/collections
func Collections(c *fiber.Ctx) error {
	ctx := context.Background()
	baseURL := getBaseURL(c)

	pool := database.GetInstance(ctx)
	collections, err := catalog.List(ctx, pool, baseURL)
	if err != nil {
		log.Error().Err(err).Msg("could not build collection list")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "could not compute collection extents",
		})
	}

	overallLinks := make([]stac.Link, 0, 3)
	overallLinks = stac.AddLink(overallLinks, baseURL, "self", "/collections", "application/json")
	overallLinks = stac.AddLink(overallLinks, baseURL, "root", "/", "application/json")
	overallLinks = stac.AddLink(overallLinks, baseURL, "parent", "/", "application/json")

	return c.JSON(struct {
		Collections []stac.Collection `json:"collections"`
		Links       []stac.Link       `json:"links"`
	}{
		Collections: collections,
		Links:       overallLinks,
	})
}

// Collection returns one collection descriptor.
// GET /api/stac/collections/:collectionId
func Collection(c *fiber.Ctx) error {
	ctx := context.Background()
	baseURL := getBaseURL(c)
	collectionID := c.Params("collectionId")

	pool := database.GetInstance(ctx)
	col, err := catalog.Get(ctx, pool, baseURL, collectionID)
	if err != nil {
		log.Error().Err(err).Str("collectionId", collectionID).Msg("could not build collection")
		c.Status(fiber.StatusInternalServerError)
		return c.JSON(stac.Message{
			Code:        stac.DatabaseQueryError,
			Description: "could not compute collection extent",
		})
	}
	if col == nil {
		log.Error().Str("collectionId", collectionID).Msg("collection not found")
		c.Status(fiber.ErrNotFound.Code)
		return c.JSON(stac.Message{
			Code:        stac.NotFoundError,
			Description: fmt.Sprintf("collection '%s' not found", collectionID),
		})
	}

	return c.JSON(col)
}
