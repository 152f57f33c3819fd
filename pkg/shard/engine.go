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

// Package shard splits the entropy of a mnemonic into SLIP-39 shards under
// a two level group threshold and reconstructs the mnemonic from them.
//
// Shard sets are unordered. Reconstruct ignores duplicates and surplus
// shards, so the same mnemonic comes back from any sufficient subset in
// any order. Validate and Info decode single shards with go-slip39's
// share parser, which checks the words, padding, RS1024 checksum and
// header.
package shard

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
	"github.com/jeremyhahn/go-seedshard/pkg/logging"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
)

// SchemeType identifies the shard format in Info.
const SchemeType = "SLIP-39"

// Codec is the mnemonic side of the engine. *mnemonic.Codec satisfies it.
type Codec interface {
	ExtractEntropy(m string) ([]byte, error)
	Encode(lang mnemonic.Language, entropy []byte) (string, error)
}

// Options configures an Engine. The zero value is usable.
type Options struct {
	// Passphrase is the SLIP-39 passphrase applied on split and combine.
	// It must be printable ASCII.
	Passphrase string

	// Language is the wordlist Reconstruct encodes the mnemonic in.
	// Defaults to English.
	Language mnemonic.Language

	Codec  Codec
	Scheme Scheme
	Logger *logging.Logger
}

// Engine creates and combines shard sets. It is safe for concurrent use.
type Engine struct {
	passphrase string
	language   mnemonic.Language
	codec      Codec
	scheme     Scheme
	logger     *logging.Logger
}

// NewEngine creates an Engine. opts may be nil.
func NewEngine(opts *Options) *Engine {
	o := Options{}
	if opts != nil {
		o = *opts
	}
	e := &Engine{
		passphrase: o.Passphrase,
		language:   o.Language,
		codec:      o.Codec,
		scheme:     o.Scheme,
		logger:     o.Logger,
	}
	if e.language == "" || e.language == mnemonic.LanguageAuto {
		e.language = mnemonic.DefaultLanguage
	}
	if e.codec == nil {
		e.codec = mnemonic.NewCodec()
	}
	if e.scheme == nil {
		e.scheme = SLIP39{}
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	return e
}

// Create splits m under cfg and returns every shard, group by group in
// member order. A nil cfg is DefaultGroupConfig.
func (e *Engine) Create(m string, cfg *GroupConfig) ([]string, error) {
	groups, err := e.CreateGroups(m, cfg)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, g := range groups {
		out = append(out, g...)
	}
	return out, nil
}

// CreateGroups is Create without flattening: one slice per group.
func (e *Engine) CreateGroups(m string, cfg *GroupConfig) ([][]string, error) {
	if cfg == nil {
		cfg = DefaultGroupConfig()
	}

	entropy, err := e.codec.ExtractEntropy(m)
	if err != nil {
		return nil, err
	}
	defer secure.Erase(entropy)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	passphrase := []byte(e.passphrase)
	defer secure.Erase(passphrase)

	groups, err := e.split(cfg, entropy, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: split failed: %v", ErrShard, err)
	}
	if len(groups) != len(cfg.Groups) {
		return nil, fmt.Errorf("%w: split returned %d groups, want %d", ErrShard, len(groups), len(cfg.Groups))
	}
	for i, g := range groups {
		if len(g) != cfg.Groups[i].Total {
			return nil, fmt.Errorf("%w: split returned %d shards for group %d, want %d", ErrShard, len(g), i+1, cfg.Groups[i].Total)
		}
	}

	e.logger.Debug("created shards", "config", cfg.String(), "shards", cfg.ShareCount())
	return groups, nil
}

func (e *Engine) split(cfg *GroupConfig, secret, passphrase []byte) (groups [][]string, err error) {
	defer func() {
		if r := recover(); r != nil {
			groups, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.scheme.Split(cfg.GroupThreshold, cfg.Groups, secret, passphrase)
}

func (e *Engine) combine(shards []string, passphrase []byte) (secret []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			secret, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return e.scheme.Combine(shards, passphrase)
}

type member struct {
	text  string
	share *Share
}

// Reconstruct recovers the mnemonic from a sufficient set of shards.
func (e *Engine) Reconstruct(shards []string) (string, error) {
	if len(shards) == 0 {
		return "", ErrNoShards
	}

	var (
		members []member
		seen    = make(map[string]bool, len(shards))
	)
	defer func() {
		for _, m := range members {
			secure.Erase(m.share.Value)
		}
	}()

	for i, raw := range shards {
		text := NormalizeShard(raw)
		if seen[text] {
			continue
		}
		seen[text] = true

		s, err := decodeShare(text)
		if err != nil {
			return "", fmt.Errorf("%w: shard %d: %v", ErrInvalidShard, i+1, err)
		}
		if len(members) > 0 && !members[0].share.sameSet(s) {
			secure.Erase(s.Value)
			return "", fmt.Errorf("%w: shard %d does not match the first shard", ErrMismatchedShards, i+1)
		}
		members = append(members, member{text: text, share: s})
	}

	selected, err := selectShares(members)
	if err != nil {
		return "", err
	}

	passphrase := []byte(e.passphrase)
	defer secure.Erase(passphrase)

	secret, err := e.combine(selected, passphrase)
	if err != nil {
		return "", fmt.Errorf("%w: combine failed: %v", ErrShard, err)
	}
	defer secure.Erase(secret)

	m, err := e.codec.Encode(e.language, secret)
	if err != nil {
		return "", fmt.Errorf("%w: recovered secret is not valid mnemonic entropy: %w", ErrShard, err)
	}
	e.logger.Debug("reconstructed mnemonic", "supplied", len(shards), "used", len(selected))
	return m, nil
}

// selectShares groups the decoded shares, checks thresholds and returns
// exactly GroupThreshold groups of exactly MemberThreshold members, lowest
// indices first.
func selectShares(members []member) ([]string, error) {
	first := members[0].share
	byGroup := make(map[int]map[int]member)
	for _, m := range members {
		s := m.share
		group, ok := byGroup[s.GroupIndex]
		if !ok {
			group = make(map[int]member)
			byGroup[s.GroupIndex] = group
		}
		if t := memberThreshold(group); t != 0 && t != s.MemberThreshold {
			return nil, fmt.Errorf("%w: group %d has member thresholds %d and %d",
				ErrMismatchedShards, s.GroupIndex+1, t, s.MemberThreshold)
		}
		if _, dup := group[s.MemberIndex]; dup {
			return nil, fmt.Errorf("%w: conflicting shards for group %d member %d",
				ErrMismatchedShards, s.GroupIndex+1, s.MemberIndex+1)
		}
		group[s.MemberIndex] = m
	}

	groupIndices := make([]int, 0, len(byGroup))
	for gi := range byGroup {
		groupIndices = append(groupIndices, gi)
	}
	sort.Ints(groupIndices)

	var eligible []int
	thresholds := make([]int, 0, len(groupIndices))
	for _, gi := range groupIndices {
		t := memberThreshold(byGroup[gi])
		thresholds = append(thresholds, t)
		if len(byGroup[gi]) >= t {
			eligible = append(eligible, gi)
		}
	}

	if len(eligible) < first.GroupThreshold {
		return nil, fmt.Errorf("%w: %d supplied, at least %d required",
			ErrInsufficientShards, len(members), requiredShares(thresholds, first.GroupThreshold))
	}

	var out []string
	for _, gi := range eligible[:first.GroupThreshold] {
		group := byGroup[gi]
		memberIndices := make([]int, 0, len(group))
		for mi := range group {
			memberIndices = append(memberIndices, mi)
		}
		sort.Ints(memberIndices)
		for _, mi := range memberIndices[:memberThreshold(group)] {
			out = append(out, group[mi].text)
		}
	}
	return out, nil
}

func memberThreshold(group map[int]member) int {
	for _, m := range group {
		return m.share.MemberThreshold
	}
	return 0
}

// requiredShares is the smallest number of shards that could satisfy the
// group threshold: the groupThreshold lowest member thresholds among the
// groups seen, plus one shard for each group not seen at all.
func requiredShares(thresholds []int, groupThreshold int) int {
	sorted := append([]int(nil), thresholds...)
	sort.Ints(sorted)
	n := 0
	for i := 0; i < groupThreshold; i++ {
		if i < len(sorted) {
			n += sorted[i]
		} else {
			n++
		}
	}
	return n
}

// Validate reports whether shard decodes cleanly: a supported length,
// known words, zero padding, a consistent header and a valid checksum.
// It never panics.
func (e *Engine) Validate(shard string) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	s, err := decodeShare(shard)
	if err != nil {
		return false
	}
	secure.Erase(s.Value)
	return true
}

// Info describes a shard.
type Info struct {
	WordCount         int    `json:"word_count"`
	Type              string `json:"type"`
	Valid             bool   `json:"valid"`
	Identifier        int    `json:"identifier"`
	Extendable        bool   `json:"extendable"`
	IterationExponent int    `json:"iteration_exponent"`
	GroupIndex        int    `json:"group_index"`
	GroupThreshold    int    `json:"group_threshold"`
	GroupCount        int    `json:"group_count"`
	MemberIndex       int    `json:"member_index"`
	MemberThreshold   int    `json:"member_threshold"`
}

// Info describes shard. It fails with ErrInvalidShard only when the text
// cannot be read at all: empty, shorter than MinWordCount, or holding a
// word outside the SLIP-39 wordlist. Any other defect yields Valid=false,
// and the header fields stay zero unless the shard decodes. Group and
// member indices are 1-based.
func (e *Engine) Info(shard string) (*Info, error) {
	words := strings.Fields(NormalizeShard(shard))
	if len(words) == 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShard, errEmptyShard)
	}
	if len(words) < MinWordCount {
		return nil, fmt.Errorf("%w: %d words is shorter than the minimum of %d", ErrInvalidShard, len(words), MinWordCount)
	}

	info := &Info{WordCount: len(words), Type: SchemeType}
	s, err := parseShare(words)
	if errors.Is(err, errUnknownWord) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShard, err)
	}
	if err != nil {
		return info, nil
	}
	secure.Erase(s.Value)

	info.Valid = slices.Contains(WordCounts, len(words))
	info.Identifier = s.Identifier
	info.Extendable = s.Extendable
	info.IterationExponent = s.IterationExponent
	info.GroupIndex = s.GroupIndex + 1
	info.GroupThreshold = s.GroupThreshold
	info.GroupCount = s.GroupCount
	info.MemberIndex = s.MemberIndex + 1
	info.MemberThreshold = s.MemberThreshold
	return info, nil
}
