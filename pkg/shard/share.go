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
	"slices"
	"strings"

	"github.com/gavincarr/go-slip39"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
)

// MinWordCount is the length of a share holding a 128-bit secret.
const MinWordCount = 20

// WordCounts lists the share lengths for 128, 160, 192, 224 and 256-bit
// secrets, the entropy sizes of 12 to 24 word mnemonics.
var WordCounts = []int{20, 23, 27, 30, 33}

var (
	errEmptyShard  = errors.New("shard is empty")
	errUnknownWord = errors.New("a word is not in the SLIP-39 wordlist")
)

// Share is the decoded form of one shard.
type Share struct {
	Identifier        int
	Extendable        bool
	IterationExponent int
	GroupIndex        int
	GroupThreshold    int
	GroupCount        int
	MemberIndex       int
	MemberThreshold   int
	WordCount         int

	// Value is this member's share of the secret. It is secret material.
	Value []byte
}

// sameSet reports whether two shares were produced by the same split.
func (s *Share) sameSet(o *Share) bool {
	return s.Identifier == o.Identifier &&
		s.Extendable == o.Extendable &&
		s.IterationExponent == o.IterationExponent &&
		s.GroupThreshold == o.GroupThreshold &&
		s.GroupCount == o.GroupCount &&
		len(s.Value) == len(o.Value)
}

// NormalizeShard folds case and collapses whitespace.
func NormalizeShard(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}

// DecodeShare parses and fully validates a shard.
func DecodeShare(text string) (*Share, error) {
	s, err := decodeShare(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShard, err)
	}
	return s, nil
}

func decodeShare(text string) (*Share, error) {
	words := strings.Fields(NormalizeShard(text))
	if len(words) == 0 {
		return nil, errEmptyShard
	}
	if !slices.Contains(WordCounts, len(words)) {
		return nil, fmt.Errorf("%d words, must be one of %v", len(words), WordCounts)
	}
	return parseShare(words)
}

// parseShare runs the SLIP-39 word, padding, checksum and header checks on
// normalized words. go-slip39 quotes shard words in its errors, so only the
// class of the failure is passed on.
func parseShare(words []string) (*Share, error) {
	ps, err := slip39.ParseShare(strings.Join(words, " "))
	if err != nil {
		secure.Erase(ps.ShareValues)
		return nil, shareError(err)
	}
	if ps.GroupIndex >= ps.GroupCount {
		secure.Erase(ps.ShareValues)
		return nil, fmt.Errorf("group index %d out of range for %d groups", ps.GroupIndex, ps.GroupCount)
	}
	return &Share{
		Identifier:        ps.Identifier,
		Extendable:        ps.Extendable == 1,
		IterationExponent: ps.IterationExponent,
		GroupIndex:        ps.GroupIndex,
		GroupThreshold:    ps.GroupThreshold,
		GroupCount:        ps.GroupCount,
		MemberIndex:       ps.MemberIndex,
		MemberThreshold:   ps.MemberThreshold,
		WordCount:         len(words),
		Value:             ps.ShareValues,
	}, nil
}

func shareError(err error) error {
	switch {
	case errors.Is(err, slip39.ErrInvalidMnemonicWord{}):
		return errUnknownWord
	case errors.Is(err, slip39.ErrInvalidChecksum):
		return errors.New("checksum mismatch")
	case errors.Is(err, slip39.ErrInvalidPadding{}):
		return errors.New("invalid padding")
	case errors.Is(err, slip39.ErrBadGroupThreshold{}):
		return errors.New("group threshold exceeds group count")
	case errors.Is(err, slip39.ErrInvalidMnemonic):
		return fmt.Errorf("shorter than the minimum of %d words", MinWordCount)
	default:
		return errors.New("malformed shard")
	}
}
