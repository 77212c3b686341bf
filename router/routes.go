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

package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/urban-geospatial/urban-lens-server/handler"
)

// SetupRoutes setup router api
func SetupRoutes(app *fiber.App) {
	app.Get("/", handler.Info)
	app.Get("/health", handler.Healthz)

	api := app.Group("api")

	// STAC API
	stac := api.Group("stac")
	stac.Get("/", handler.Catalog)
	stac.Get("/collections", handler.Collections)
	stac.Get("/collections/:collectionId", handler.Collection)
	stac.Get("/collections/:collectionId/items", handler.Items)
	stac.Get("/search", handler.GetSearch)
	stac.Post("/search", handler.PostSearch)

	// map clients and dashboard
	api.Get("/geojson/:collectionId", handler.Export)
	api.Get("/stats", handler.Stats)
	api.Get("/operators", handler.Operators)
	api.Get("/infrastructure-types", handler.InfrastructureTypes)

	// operator upload portal
	operator := api.Group("operator")
	operator.Post("/login", handler.Login)
	operator.Get("/list", handler.OperatorList)
	operator.Get("/stats/:operatorId", handler.OperatorStats)
	operator.Post("/import/:operatorId", handler.OperatorImport)
}
