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
	"net/http"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-geospatial/urban-lens-server/importer"
)

func loginApp() *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Post("/api/operator/login", Login)
	app.Get("/api/operator/list", OperatorList)
	return app
}

func TestLoginSuccess(t *testing.T) {
	app := loginApp()

	req, err := http.NewRequest(http.MethodPost, "/api/operator/login",
		strings.NewReader(`{"operator_id":"aztelekom","password":"aztelekom2024"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	require.NotNil(t, body.Operator)
	assert.Equal(t, "aztelekom", body.Operator.ID)
}

func TestLoginWrongPassword(t *testing.T) {
	app := loginApp()

	req, err := http.NewRequest(http.MethodPost, "/api/operator/login",
		strings.NewReader(`{"operator_id":"aztelekom","password":"wrong"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Nil(t, body.Operator)
}

func TestLoginNeverLeaksPassword(t *testing.T) {
	app := loginApp()

	req, err := http.NewRequest(http.MethodPost, "/api/operator/login",
		strings.NewReader(`{"operator_id":"sutechizati","password":"sutechizati2024"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var raw map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	operator, ok := raw["operator"].(map[string]any)
	require.True(t, ok)
	assert.NotContains(t, operator, "password")
}

func TestOperatorStatsResponseKeys(t *testing.T) {
	raw, err := json.Marshal(OperatorStatsResponse{
		Operator:            importer.Account{ID: "sutechizati"},
		InfrastructureCount: 12,
		BuildingCount:       3,
	})
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Contains(t, body, "infrastructure_count")
	assert.Contains(t, body, "building_count")
	assert.NotContains(t, body, "buildings_count")
}

func TestOperatorList(t *testing.T) {
	app := loginApp()

	req, err := http.NewRequest(http.MethodGet, "/api/operator/list", nil)
	require.NoError(t, err)

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Operators []map[string]any `json:"operators"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Operators, 3)
	assert.NotContains(t, body.Operators[0], "password")
}
