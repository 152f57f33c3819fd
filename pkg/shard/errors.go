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
	"errors"
	"fmt"
)

var (
	// ErrInvalidGroupConfig is returned for malformed or out of range group
	// specifications.
	ErrInvalidGroupConfig = errors.New("shard: invalid group configuration")

	// ErrShard is the root of every split, combine and decode failure.
	ErrShard = errors.New("shard error")

	ErrNoShards           = fmt.Errorf("%w: no shards supplied", ErrShard)
	ErrInvalidShard       = fmt.Errorf("%w: invalid shard", ErrShard)
	ErrInsufficientShards = fmt.Errorf("%w: insufficient shards", ErrShard)
	ErrMismatchedShards   = fmt.Errorf("%w: shards do not belong to the same set", ErrShard)
)
