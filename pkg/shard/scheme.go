// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-seedshard.
//
// go-seedshard is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package shard

import (
	"fmt"

	"github.com/gavincarr/go-slip39"
)

// Scheme is the threshold sharing primitive. Split returns one slice of
// shard strings per group, in group order.
type Scheme interface {
	Split(groupThreshold int, groups []Group, secret, passphrase []byte) ([][]string, error)
	Combine(shards []string, passphrase []byte) ([]byte, error)
}

// SLIP39 implements Scheme with SLIP-39 Shamir shares.
type SLIP39 struct{}

var _ Scheme = SLIP39{}

func (SLIP39) Split(groupThreshold int, groups []Group, secret, passphrase []byte) ([][]string, error) {
	params := make([]slip39.MemberGroupParameters, len(groups))
	for i, g := range groups {
		params[i] = slip39.MemberGroupParameters{MemberThreshold: g.Threshold, MemberCount: g.Total}
	}
	out, err := slip39.GenerateMnemonicsWithPassphrase(groupThreshold, params, secret, passphrase)
	if err != nil {
		return nil, fmt.Errorf("slip39 split: %w", err)
	}
	return out, nil
}

func (SLIP39) Combine(shards []string, passphrase []byte) ([]byte, error) {
	secret, err := slip39.CombineMnemonicsWithPassphrase(shards, passphrase)
	if err != nil {
		return nil, fmt.Errorf("slip39 combine: %w", err)
	}
	return secret, nil
}
