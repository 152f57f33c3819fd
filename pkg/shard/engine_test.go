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
	"encoding/hex"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	mnemonic12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	mnemonic24 = "legal winner thank year wave sausage worth useful legal winner thank year " +
		"wave sausage worth useful legal winner thank year wave sausage worth title"
)

// fakeScheme lets tests control the primitive.
type fakeScheme struct {
	split   [][]string
	secret  []byte
	err     error
	panics  bool
	combine [][]string
	mu      sync.Mutex
}

func (f *fakeScheme) Split(int, []Group, []byte, []byte) ([][]string, error) {
	if f.panics {
		panic("split exploded")
	}
	return f.split, f.err
}

func (f *fakeScheme) Combine(shards []string, _ []byte) ([]byte, error) {
	f.mu.Lock()
	f.combine = append(f.combine, append([]string(nil), shards...))
	f.mu.Unlock()
	if f.panics {
		panic("combine exploded")
	}
	return f.secret, f.err
}

func newMnemonic(t *testing.T, words int) string {
	t.Helper()
	m, err := mnemonic.NewCodec().Generate(mnemonic.English, words)
	require.NoError(t, err)
	return m
}

func TestEngine_RoundTripWordCounts(t *testing.T) {
	e := NewEngine(nil)
	want := map[int]int{12: 20, 15: 23, 18: 27, 21: 30, 24: 33}

	for words, shardWords := range want {
		m := newMnemonic(t, words)
		shards, err := e.Create(m, MustParseGroupConfig("2-of-3"))
		require.NoError(t, err)
		require.Len(t, shards, 3)

		for _, s := range shards {
			assert.Len(t, strings.Fields(s), shardWords)
			assert.True(t, e.Validate(s))
		}

		got, err := e.Reconstruct(shards[:2])
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
}

func TestEngine_CreateDefaultConfig(t *testing.T) {
	e := NewEngine(nil)
	shards, err := e.Create(mnemonic12, nil)
	require.NoError(t, err)
	require.Len(t, shards, 5)

	for i, s := range shards {
		info, err := e.Info(s)
		require.NoError(t, err)
		assert.True(t, info.Valid)
		assert.Equal(t, SchemeType, info.Type)
		assert.Equal(t, 20, info.WordCount)
		assert.Equal(t, 1, info.GroupIndex)
		assert.Equal(t, 1, info.GroupThreshold)
		assert.Equal(t, 1, info.GroupCount)
		assert.Equal(t, i+1, info.MemberIndex)
		assert.Equal(t, 3, info.MemberThreshold)
	}
}

func TestEngine_ThresholdSubsets(t *testing.T) {
	e := NewEngine(nil)
	shards, err := e.Create(mnemonic24, MustParseGroupConfig("3-of-5"))
	require.NoError(t, err)

	subsets := [][]string{
		{shards[0], shards[1], shards[2]},
		{shards[4], shards[2], shards[0]},
		{shards[1], shards[3], shards[4]},
		shards,
		{shards[3], shards[3], shards[1], shards[0], shards[1]},
		{strings.ToUpper(shards[0]), "  " + shards[2] + "\n", shards[4], shards[0]},
	}
	for _, subset := range subsets {
		got, err := e.Reconstruct(subset)
		require.NoError(t, err)
		assert.Equal(t, mnemonic24, got)
	}
}

func TestEngine_Insufficient(t *testing.T) {
	e := NewEngine(nil)
	shards, err := e.Create(mnemonic12, MustParseGroupConfig("3-of-5"))
	require.NoError(t, err)

	_, err = e.Reconstruct(shards[:2])
	require.ErrorIs(t, err, ErrInsufficientShards)
	assert.ErrorIs(t, err, ErrShard)
	assert.Contains(t, err.Error(), "2 supplied, at least 3 required")

	// Duplicates do not count twice.
	_, err = e.Reconstruct([]string{shards[0], shards[0], shards[1], shards[1]})
	require.ErrorIs(t, err, ErrInsufficientShards)
	assert.Contains(t, err.Error(), "2 supplied, at least 3 required")
}

func TestEngine_DuplicateTolerance(t *testing.T) {
	e := NewEngine(nil)
	shards, err := e.Create(mnemonic12, MustParseGroupConfig("2-of-3"))
	require.NoError(t, err)

	base, err := e.Reconstruct(shards[:2])
	require.NoError(t, err)
	withDup, err := e.Reconstruct(append(append([]string(nil), shards[:2]...), shards[0]))
	require.NoError(t, err)
	assert.Equal(t, base, withDup)
}

func TestEngine_Groups(t *testing.T) {
	e := NewEngine(nil)
	cfg := MustParseGroupConfig("2:(2-of-3,3-of-5,1-of-1)")

	groups, err := e.CreateGroups(mnemonic24, cfg)
	require.NoError(t, err)
	require.Len(t, groups, 3)
	assert.Len(t, groups[0], 3)
	assert.Len(t, groups[1], 5)
	assert.Len(t, groups[2], 1)

	flat, err := e.Create(mnemonic24, cfg)
	require.NoError(t, err)
	assert.Len(t, flat, cfg.ShareCount())

	info, err := e.Info(groups[1][4])
	require.NoError(t, err)
	assert.Equal(t, 2, info.GroupIndex)
	assert.Equal(t, 2, info.GroupThreshold)
	assert.Equal(t, 3, info.GroupCount)
	assert.Equal(t, 5, info.MemberIndex)
	assert.Equal(t, 3, info.MemberThreshold)

	tests := []struct {
		name   string
		shards []string
	}{
		{"first and last group", []string{groups[0][0], groups[0][2], groups[2][0]}},
		{"middle and last group", []string{groups[2][0], groups[1][1], groups[1][3], groups[1][4]}},
		{"all groups over supplied", append(append(append([]string(nil), groups[0]...), groups[1]...), groups[2]...)},
		{"incomplete group ignored", []string{groups[0][0], groups[0][1], groups[1][0], groups[2][0]}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Reconstruct(tt.shards)
			require.NoError(t, err)
			assert.Equal(t, mnemonic24, got)
		})
	}

	_, err = e.Reconstruct([]string{groups[0][0], groups[0][1], groups[1][0], groups[1][1]})
	require.ErrorIs(t, err, ErrInsufficientShards)
	assert.Contains(t, err.Error(), "4 supplied, at least 5 required")

	_, err = e.Reconstruct([]string{groups[0][0], groups[0][1]})
	require.ErrorIs(t, err, ErrInsufficientShards)
	assert.Contains(t, err.Error(), "2 supplied, at least 3 required")
}

func TestEngine_TrimsBeforeCombine(t *testing.T) {
	splitter := NewEngine(nil)
	groups, err := splitter.CreateGroups(mnemonic12, MustParseGroupConfig("1:(2-of-3,2-of-2)"))
	require.NoError(t, err)

	entropy, err := mnemonic.NewCodec().ExtractEntropy(mnemonic12)
	require.NoError(t, err)
	fake := &fakeScheme{secret: entropy}
	e := NewEngine(&Options{Scheme: fake})

	got, err := e.Reconstruct([]string{groups[1][1], groups[0][2], groups[1][0], groups[0][0], groups[0][1]})
	require.NoError(t, err)
	assert.Equal(t, mnemonic12, got)

	require.Len(t, fake.combine, 1)
	assert.Equal(t, []string{groups[0][0], groups[0][1]}, fake.combine[0])
}

func TestEngine_Passphrase(t *testing.T) {
	withPass := NewEngine(&Options{Passphrase: "correct horse"})
	shards, err := withPass.Create(mnemonic12, MustParseGroupConfig("2-of-3"))
	require.NoError(t, err)

	got, err := withPass.Reconstruct(shards[1:])
	require.NoError(t, err)
	assert.Equal(t, mnemonic12, got)

	other, err := NewEngine(nil).Reconstruct(shards[1:])
	require.NoError(t, err)
	assert.NotEqual(t, mnemonic12, other)
}

func TestEngine_Vector1(t *testing.T) {
	secret, err := hex.DecodeString("bb54aac4b89dc868ba37d9cc21b2cece")
	require.NoError(t, err)
	want, err := mnemonic.NewCodec().Encode(mnemonic.English, secret)
	require.NoError(t, err)

	e := NewEngine(&Options{Passphrase: "TREZOR"})
	got, err := e.Reconstruct([]string{vector1})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := e.Info(vector1)
	require.NoError(t, err)
	assert.Equal(t, &Info{
		WordCount:       20,
		Type:            "SLIP-39",
		Valid:           true,
		Identifier:      7945,
		GroupIndex:      1,
		GroupThreshold:  1,
		GroupCount:      1,
		MemberIndex:     1,
		MemberThreshold: 1,
	}, info)
}

func TestEngine_Vector2(t *testing.T) {
	e := NewEngine(&Options{Passphrase: "TREZOR"})

	ab, err := e.Reconstruct([]string{vector2a, vector2b})
	require.NoError(t, err)
	ba, err := e.Reconstruct([]string{vector2b, vector2a, vector2b})
	require.NoError(t, err)
	assert.Equal(t, ab, ba)

	_, err = e.Reconstruct([]string{vector2a})
	require.ErrorIs(t, err, ErrInsufficientShards)
	assert.Contains(t, err.Error(), "1 supplied, at least 2 required")
}

func TestEngine_ReconstructErrors(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.Reconstruct(nil)
	assert.ErrorIs(t, err, ErrNoShards)
	_, err = e.Reconstruct([]string{})
	assert.ErrorIs(t, err, ErrShard)

	_, err = e.Reconstruct([]string{vector2a, "not a shard"})
	require.ErrorIs(t, err, ErrInvalidShard)
	assert.Contains(t, err.Error(), "shard 2")

	_, err = e.Reconstruct([]string{vector2a, vector1})
	assert.ErrorIs(t, err, ErrMismatchedShards)

	_, err = e.Reconstruct([]string{vector2a, ""})
	assert.ErrorIs(t, err, ErrInvalidShard)
}

func TestEngine_ConflictingMembers(t *testing.T) {
	h := testShare(77, 0, 1, 1)
	h.MemberThreshold = 2
	a := buildShare(t, h)
	h.ShareValues = make([]byte, 16)
	h.ShareValues[15] = 1
	b := buildShare(t, h)

	_, err := NewEngine(nil).Reconstruct([]string{a, b})
	require.ErrorIs(t, err, ErrMismatchedShards)
	assert.Contains(t, err.Error(), "group 1 member 1")

	hc := testShare(77, 0, 1, 1)
	hc.MemberIndex = 1
	hc.MemberThreshold = 3
	c := buildShare(t, hc)
	_, err = NewEngine(nil).Reconstruct([]string{a, c})
	assert.ErrorIs(t, err, ErrMismatchedShards)
}

func TestEngine_CreateErrors(t *testing.T) {
	e := NewEngine(nil)

	_, err := e.Create("abandon abandon abandon", nil)
	assert.ErrorIs(t, err, mnemonic.ErrMnemonic)

	_, err = e.Create(mnemonic12, MustParseGroupConfig("1-of-3"))
	assert.ErrorIs(t, err, ErrInvalidGroupConfig)

	_, err = e.Create(mnemonic12, &GroupConfig{GroupThreshold: 2, Groups: []Group{{2, 3}}})
	assert.ErrorIs(t, err, ErrInvalidGroupConfig)
}

func TestEngine_SchemeFailures(t *testing.T) {
	tests := []struct {
		name   string
		scheme *fakeScheme
	}{
		{"error", &fakeScheme{err: errors.New("primitive failed")}},
		{"panic", &fakeScheme{panics: true}},
		{"wrong group count", &fakeScheme{split: [][]string{{"a", "b", "c", "d", "e"}, {"f"}}}},
		{"wrong member count", &fakeScheme{split: [][]string{{"a", "b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(&Options{Scheme: tt.scheme})
			_, err := e.Create(mnemonic12, nil)
			assert.ErrorIs(t, err, ErrShard)
		})
	}

	for _, tt := range tests[:2] {
		t.Run("combine "+tt.name, func(t *testing.T) {
			e := NewEngine(&Options{Scheme: tt.scheme})
			_, err := e.Reconstruct([]string{vector1})
			assert.ErrorIs(t, err, ErrShard)
		})
	}

	e := NewEngine(&Options{Scheme: &fakeScheme{secret: make([]byte, 17)}})
	_, err := e.Reconstruct([]string{vector1})
	assert.ErrorIs(t, err, ErrShard)
	assert.ErrorIs(t, err, mnemonic.ErrCrypto)
}

func TestEngine_Validate(t *testing.T) {
	e := NewEngine(nil)
	words := strings.Fields(vector1)

	tests := []struct {
		name  string
		shard string
		want  bool
	}{
		{"vector", vector1, true},
		{"messy whitespace", "  " + strings.ReplaceAll(vector1, " ", "  ") + " ", true},
		{"empty", "", false},
		{"mutated word", strings.Join(append(words[:19:19], "kidney"), " "), false},
		{"nineteen words", strings.Join(words[:19], " "), false},
		{"unknown word", strings.Replace(vector1, "duckling", "duck", 1), false},
		{"mnemonic", mnemonic12, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Validate(tt.shard))
		})
	}
}

func TestEngine_Info(t *testing.T) {
	e := NewEngine(nil)
	words := strings.Fields(vector1)

	info, err := e.Info(strings.Join(append(words[:19:19], "kidney"), " "))
	require.NoError(t, err)
	assert.False(t, info.Valid)
	assert.Equal(t, 20, info.WordCount)
	assert.Zero(t, info.Identifier)
	assert.Zero(t, info.GroupCount)

	valid, err := e.Info(vector1)
	require.NoError(t, err)
	assert.True(t, valid.Valid)
	assert.Equal(t, 7945, valid.Identifier)
	assert.Equal(t, 1, valid.GroupIndex)
	assert.Equal(t, 1, valid.MemberIndex)

	long, err := e.Info(vector1 + " academic")
	require.NoError(t, err)
	assert.False(t, long.Valid)
	assert.Equal(t, 21, long.WordCount)

	for _, bad := range []string{"", "   ", strings.Join(words[:19], " "), mnemonic12, strings.Replace(vector1, "duckling", "duck", 1)} {
		_, err := e.Info(bad)
		assert.ErrorIs(t, err, ErrInvalidShard, bad)
	}
}

func TestEngine_Concurrent(t *testing.T) {
	e := NewEngine(nil)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shards, err := e.Create(mnemonic12, MustParseGroupConfig("2-of-3"))
			if err != nil {
				errs <- err
				return
			}
			got, err := e.Reconstruct([]string{shards[2], shards[0]})
			if err != nil {
				errs <- err
				return
			}
			if got != mnemonic12 {
				errs <- errors.New("reconstructed mnemonic differs")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
