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

package stac

import "fmt"

type Link struct {
	Rel    string `json:"rel"`
	Type   string `json:"type,omitempty"`
	Title  string `json:"title,omitempty"`
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// AddLink appends a link whose href lives under the STAC API prefix.
// endpoint is the last portion of the URL i.e. <base url>/api/stac<endpoint>
func AddLink(links []Link, baseURL string, rel string, endpoint string, mimeType string) []Link {
	return append(links, Link{
		Rel:  rel,
		Type: mimeType,
		Href: fmt.Sprintf("%s/api/stac%s", baseURL, endpoint),
	})
}
