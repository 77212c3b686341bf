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

package importer

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Account is an operator identity allowed to upload data. This is an
// access-control identity, separate from the urban.operators reference
// table; the pipeline resolves a matching reference row by the same code
// on first use.
type Account struct {
	ID       string `json:"id" mapstructure:"id"`
	Name     string `json:"name" mapstructure:"name"`
	FullName string `json:"full_name" mapstructure:"full_name"`
	Category string `json:"category" mapstructure:"category"`
	Color    string `json:"color" mapstructure:"color"`
	Password string `json:"-" mapstructure:"password"`
}

// Registry is the immutable operator-account table, loaded once at process
// start. It is never mutated afterwards.
type Registry struct {
	accounts map[string]Account
	order    []string
}

var defaultAccounts = []Account{
	{
		ID:       "shahersalma",
		Name:     "Şəhərsalma Komitəsi",
		FullName: "Dövlət Şəhərsalma və Arxitektura Komitəsi",
		Category: "building",
		Color:    "#8b5cf6",
		Password: "shahersalma2024",
	},
	{
		ID:       "sutechizati",
		Name:     "Su Təchizatı",
		FullName: "İri şəhərlərin birləşmiş su təchizatı",
		Category: "water",
		Color:    "#06b6d4",
		Password: "sutechizati2024",
	},
	{
		ID:       "aztelekom",
		Name:     "Aztelekom",
		FullName: "Aztelekom MMC",
		Category: "telecom",
		Color:    "#6366f1",
		Password: "aztelekom2024",
	},
}

// LoadRegistry builds the account registry from the operators section of
// the config file, falling back to the built-in demo accounts.
func LoadRegistry() *Registry {
	accounts := defaultAccounts
	if viper.IsSet("operators") {
		var configured []Account
		if err := viper.UnmarshalKey("operators", &configured); err != nil {
			log.Error().Err(err).Msg("could not parse operators config, using built-in accounts")
		} else if len(configured) > 0 {
			accounts = configured
		}
	}
	return NewRegistry(accounts)
}

// NewRegistry builds a registry from a fixed account list.
func NewRegistry(accounts []Account) *Registry {
	r := &Registry{accounts: make(map[string]Account, len(accounts))}
	for _, acct := range accounts {
		if _, dup := r.accounts[acct.ID]; dup {
			log.Warn().Str("id", acct.ID).Msg("duplicate operator account id, keeping first")
			continue
		}
		r.accounts[acct.ID] = acct
		r.order = append(r.order, acct.ID)
	}
	return r
}

// Get looks up an account by id.
func (r *Registry) Get(id string) (Account, bool) {
	acct, ok := r.accounts[id]
	return acct, ok
}

// List returns the accounts in registration order.
func (r *Registry) List() []Account {
	out := make([]Account, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.accounts[id])
	}
	return out
}

// Authenticate checks an id/password pair against the registry. This is a
// plaintext comparison against fixed accounts, not a security boundary.
func (r *Registry) Authenticate(id, password string) (Account, bool) {
	acct, ok := r.accounts[id]
	if !ok || acct.Password != password {
		return Account{}, false
	}
	return acct, true
}
