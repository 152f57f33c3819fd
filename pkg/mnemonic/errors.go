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

package mnemonic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWordCount is returned for word counts outside WordCounts.
	ErrInvalidWordCount = errors.New("mnemonic: invalid word count")

	// ErrMnemonic is the root of every malformed-mnemonic error.
	ErrMnemonic = errors.New("mnemonic error")

	ErrEmptyMnemonic   = fmt.Errorf("%w: mnemonic is empty", ErrMnemonic)
	ErrUnknownWord     = fmt.Errorf("%w: word not in wordlist", ErrMnemonic)
	ErrInvalidChecksum = fmt.Errorf("%w: invalid checksum", ErrMnemonic)

	// ErrCrypto is returned when entropy acquisition or encoding fails.
	ErrCrypto = errors.New("crypto error")

	ErrUnsupportedLanguage = errors.New("mnemonic: unsupported language")
)
