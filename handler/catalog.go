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
	"github.com/spf13/viper"

	"github.com/urban-geospatial/urban-lens-server/catalog"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// Info returns the service descriptor.
// GET /
func Info(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"title":       viper.GetString("stac.catalog.title"),
		"description": viper.GetString("stac.catalog.description"),
		"version":     viper.GetString("stac.catalog.version"),
		"stac":        "/api/stac/",
	})
}

// Healthz reports service and database health.
// GET /health
func Healthz(c *fiber.Ctx) error {
	ctx := context.Background()

	status := "healthy"
	dbStatus := "connected"
	pool := database.GetInstance(ctx)
	if err := pool.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("database ping failed")
		status = "unhealthy"
		dbStatus = "disconnected"
	}

	return c.JSON(map[string]string{
		"status":   status,
		"database": dbStatus,
	})
}

// Catalog returns the root STAC catalog descriptor.
// GET /api/stac/
func Catalog(c *fiber.Ctx) error {
	baseURL := getBaseURL(c)
	self := fmt.Sprintf("%s/api/stac", baseURL)

	links := make([]stac.Link, 0, 6)
	links = append(links, stac.Link{Rel: "self", Type: "application/json", Href: self + "/"})
	links = append(links, stac.Link{Rel: "root", Type: "application/json", Href: self + "/"})
	links = append(links, stac.Link{Rel: "data", Type: "application/json", Href: self + "/collections"})
	for _, id := range []string{catalog.Infrastructure, catalog.Buildings} {
		links = append(links, stac.Link{
			Rel:  "child",
			Type: "application/json",
			Href: fmt.Sprintf("%s/collections/%s", self, id),
		})
	}
	links = append(links, stac.Link{Rel: "search", Type: "application/geo+json", Href: self + "/search"})

	return c.JSON(stac.Catalog{
		Type:        "Catalog",
		ID:          viper.GetString("stac.catalog.id"),
		Title:       viper.GetString("stac.catalog.title"),
		Description: viper.GetString("stac.catalog.description"),
		StacVersion: stac.Version,
		Links:       links,
	})
}
