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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/urban-geospatial/urban-lens-server/importer"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

var (
	registryOnce sync.Once
	accounts     *importer.Registry
)

// getRegistry loads the operator account registry on first use. The
// registry is read-only afterwards.
func getRegistry() *importer.Registry {
	registryOnce.Do(func() {
		accounts = importer.LoadRegistry()
	})
	return accounts
}

func getBaseURL(c *fiber.Ctx) string {
	return fmt.Sprintf("%s://%s", c.Protocol(), c.Hostname())
}

// parseLimit validates a limit query parameter against [1, max].
func parseLimit(c *fiber.Ctx, limitStr string, max int) (int, error) {
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		log.Error().Err(err).Str("limit", limitStr).Msg("could not convert limit to int")
		c.Status(fiber.ErrUnprocessableEntity.Code)
		_ = c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: fmt.Sprintf("limit '%s' could not be converted to int", limitStr),
		})
		return 0, err
	}
	if limit < 1 || limit > max {
		log.Error().Int("limit", limit).Msg("limit out of bounds")
		c.Status(fiber.ErrUnprocessableEntity.Code)
		_ = c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: fmt.Sprintf("limit '%s' must be between 1 and %d", limitStr, max),
		})
		return 0, errors.New("limit out of bounds")
	}
	return limit, nil
}

func parseOffset(c *fiber.Ctx, offsetStr string) (int, error) {
	offset, err := strconv.Atoi(offsetStr)
	if err != nil || offset < 0 {
		log.Error().Str("offset", offsetStr).Msg("invalid offset")
		c.Status(fiber.ErrUnprocessableEntity.Code)
		_ = c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: fmt.Sprintf("offset '%s' must be a non-negative integer", offsetStr),
		})
		return 0, errors.New("invalid offset")
	}
	return offset, nil
}

// splitBbox parses a comma-separated bbox string into exactly 4 floats.
// An empty string yields nil without error.
func splitBbox(bboxStr string) ([]float64, error) {
	if bboxStr == "" {
		return nil, nil
	}
	parts := strings.Split(bboxStr, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("bbox must be 4 comma-separated numbers, got %d", len(parts))
	}
	bbox := make([]float64, 0, 4)
	for _, part := range parts {
		coord, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("could not parse bbox coordinate '%s'", part)
		}
		bbox = append(bbox, coord)
	}
	return bbox, nil
}

// parseBbox rejects the request with a ParameterError when the bbox query
// string is malformed.
func parseBbox(c *fiber.Ctx, bboxStr string) ([]float64, error) {
	bbox, err := splitBbox(bboxStr)
	if err != nil {
		log.Error().Err(err).Str("bbox", bboxStr).Msg("invalid bbox")
		c.Status(fiber.StatusBadRequest)
		_ = c.JSON(stac.Message{
			Code:        stac.ParameterError,
			Description: err.Error(),
		})
		return nil, err
	}
	return bbox, nil
}
