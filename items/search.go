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

package items

import (
	"context"

	"github.com/urban-geospatial/urban-lens-server/catalog"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/stac"
)

// Search fans a request out to every requested collection with the same
// limit/offset and concatenates the pages in request order, truncated to
// limit total items. Per-collection pagination is independent, not global:
// a caller paging past the first collection's results may see items
// redistributed across pages.
func Search(ctx context.Context, db database.Querier, baseURL string, req stac.SearchRequest) (*stac.FeatureCollection, error) {
	collections := req.Collections
	if len(collections) == 0 {
		collections = []string{catalog.Infrastructure, catalog.Buildings}
	}

	all := make([]stac.Item, 0, req.Limit)
	for _, collectionID := range collections {
		fc, err := List(ctx, db, baseURL, Params{
			Collection: collectionID,
			Limit:      req.Limit,
			Offset:     req.Offset,
			Bbox:       req.Bbox,
			Operator:   req.Operator,
			Category:   req.Category,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, fc.Features...)
	}

	if len(all) > req.Limit {
		all = all[:req.Limit]
	}

	out := stac.NewFeatureCollection()
	out.Features = all
	out.NumberReturned = len(all)
	out.Links = stac.AddLink(out.Links, baseURL, "self", "/search", "application/geo+json")
	return out, nil
}
