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

package cli

import (
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-seedshard/internal/config"
	"github.com/jeremyhahn/go-seedshard/internal/secretfile"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/jeremyhahn/go-seedshard/pkg/seed"
	"github.com/jeremyhahn/go-seedshard/pkg/shard"
)

// ErrInput is returned for missing or ambiguous command input.
var ErrInput = errors.New("invalid input")

// exitError ends the process with code without printing anything more;
// the command has already reported the outcome.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// errorClasses maps sentinels to metric labels. More specific errors come
// before the roots they wrap.
var errorClasses = []struct {
	err   error
	class string
}{
	{rand.ErrInvalidSize, "invalid_size"},
	{rand.ErrSizeTooLarge, "size_too_large"},
	{rand.ErrEntropyUnavailable, "entropy_unavailable"},
	{mnemonic.ErrInvalidWordCount, "invalid_word_count"},
	{mnemonic.ErrEmptyMnemonic, "empty_mnemonic"},
	{mnemonic.ErrUnknownWord, "unknown_word"},
	{mnemonic.ErrInvalidChecksum, "invalid_checksum"},
	{mnemonic.ErrUnsupportedLanguage, "unsupported_language"},
	{mnemonic.ErrMnemonic, "invalid_mnemonic"},
	{mnemonic.ErrCrypto, "crypto"},
	{seed.ErrInvalidIterations, "invalid_iterations"},
	{shard.ErrInvalidGroupConfig, "invalid_group_config"},
	{shard.ErrNoShards, "no_shards"},
	{shard.ErrInvalidShard, "invalid_shard"},
	{shard.ErrInsufficientShards, "insufficient_shards"},
	{shard.ErrMismatchedShards, "mismatched_shards"},
	{shard.ErrShard, "shard"},
	{secretfile.ErrExists, "file_exists"},
	{secretfile.ErrEmpty, "empty_file"},
	{config.ErrInvalidConfig, "invalid_config"},
	{ErrInput, "invalid_input"},
}

// errorType classifies err for metrics.ErrorsTotal.
func errorType(err error) string {
	var exit *exitError
	if errors.As(err, &exit) {
		return "rejected"
	}
	for _, c := range errorClasses {
		if errors.Is(err, c.err) {
			return c.class
		}
	}
	return "other"
}

// observe runs fn as a metered operation.
func observe(operation string, fn func() error) error {
	return metrics.Observe(operation, errorType, fn)
}
