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

package secretfile

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jeremyhahn/go-seedshard/pkg/shard"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"

func fixedClock(t *testing.T) {
	t.Helper()
	prev := Now
	Now = func() time.Time { return time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC) }
	t.Cleanup(func() { Now = prev })
}

func TestParse(t *testing.T) {
	input := "# seedshard shard\n#created: today\n\n  first line  \n\n# trailing comment\nsecond line\n#\n"

	f, err := Parse(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"seedshard shard", "created: today", "trailing comment", ""}, f.Comments)
	assert.Equal(t, []string{"first line", "second line"}, f.Lines)
}

type errReader struct{}

func (errReader) Read([]byte) (int, error) { return 0, errors.New("device gone") }

func TestParse_ReadError(t *testing.T) {
	_, err := Parse(errReader{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
}

func TestBytes(t *testing.T) {
	f := &File{Comments: []string{"one", ""}, Lines: []string{"a b c", "d e f"}}
	assert.Equal(t, "# one\n#\n\na b c\nd e f\n", string(f.Bytes()))

	assert.Equal(t, "a\n", string((&File{Lines: []string{"a"}}).Bytes()))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	in := &File{Comments: []string{"seedshard mnemonic"}, Lines: []string{testMnemonic}}

	require.NoError(t, Write(fs, "/secrets/seed.txt", in, false))

	info, err := fs.Stat("/secrets/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	out, err := Read(fs, "/secrets/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestWrite_RefusesOverwrite(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/seed.txt", []byte("existing\n"), 0o644))

	err := Write(fs, "/seed.txt", &File{Lines: []string{"new"}}, false)
	assert.ErrorIs(t, err, ErrExists)

	data, err := afero.ReadFile(fs, "/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, "existing\n", string(data))
}

func TestWrite_OverwriteTightensMode(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/seed.txt", []byte("a much longer existing line\n"), 0o644))

	require.NoError(t, Write(fs, "/seed.txt", &File{Lines: []string{"new"}}, true))

	data, err := afero.ReadFile(fs, "/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(data))

	info, err := fs.Stat("/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())
}

func TestWrite_ReadOnlyFs(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())
	err := Write(fs, "/seed.txt", &File{Lines: []string{"x"}}, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create")
}

func TestRead_Errors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/comments-only.txt", []byte("# header\n\n"), 0o600))

	_, err := Read(fs, "/missing.txt")
	assert.Error(t, err)

	_, err = Read(fs, "/comments-only.txt")
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadLines(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.txt", []byte("# a\none\ntwo\n"), 0o600))
	require.NoError(t, afero.WriteFile(fs, "/b.txt", []byte("three\n"), 0o600))

	lines, err := ReadLines(fs, "/a.txt", "/b.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, lines)

	_, err = ReadLines(fs, "/a.txt", "/missing.txt")
	assert.Error(t, err)
}

func TestHeader(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.FixedZone("CET", 3600))
	h := Header(KindShard, created, "words: 20")
	assert.Equal(t, []string{"seedshard shard", "created: 2025-01-02T02:04:05Z", "words: 20"}, h)
}

func TestWriteMnemonic(t *testing.T) {
	fixedClock(t)
	fs := afero.NewMemMapFs()

	require.NoError(t, WriteMnemonic(fs, "/seed.txt", testMnemonic, "english", false))

	f, err := Read(fs, "/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{testMnemonic}, f.Lines)
	assert.Contains(t, f.Comments, "seedshard mnemonic")
	assert.Contains(t, f.Comments, "created: 2025-03-14T15:09:26Z")
	assert.Contains(t, f.Comments, "words: 12")
	assert.Contains(t, f.Comments, "language: english")
}

func TestShardFileName(t *testing.T) {
	assert.Equal(t, "shard-g01-m03.txt", ShardFileName(1, 3))
	assert.Equal(t, "shard-g12-m16.txt", ShardFileName(12, 16))
}

func fakeGroups(cfg *shard.GroupConfig) [][]string {
	groups := make([][]string, len(cfg.Groups))
	for gi, g := range cfg.Groups {
		for mi := 0; mi < g.Total; mi++ {
			groups[gi] = append(groups[gi], strings.Repeat("word ", 19)+string(rune('a'+gi))+string(rune('a'+mi)))
		}
	}
	return groups
}

func TestWriteShardSet(t *testing.T) {
	fixedClock(t)
	fs := afero.NewMemMapFs()
	cfg := shard.MustParseGroupConfig("2:(2-of-3,1-of-1)")
	groups := fakeGroups(cfg)

	paths, err := WriteShardSet(fs, "/shards", groups, cfg, false)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/shards/shard-g01-m01.txt",
		"/shards/shard-g01-m02.txt",
		"/shards/shard-g01-m03.txt",
		"/shards/shard-g02-m01.txt",
	}, paths)

	f, err := Read(fs, "/shards/shard-g01-m02.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{groups[0][1]}, f.Lines)
	assert.Contains(t, f.Comments, "set: 2:(2-of-3,1-of-1)")
	assert.Contains(t, f.Comments, "group: 1 of 2 (2 required)")
	assert.Contains(t, f.Comments, "member: 2 of 3 (2 required)")
	assert.Contains(t, f.Comments, "words: 20")

	lines, err := ReadLines(fs, paths...)
	require.NoError(t, err)
	assert.Len(t, lines, 4)

	_, err = WriteShardSet(fs, "/shards", groups, cfg, false)
	assert.ErrorIs(t, err, ErrExists)

	_, err = WriteShardSet(fs, "/shards", groups, cfg, true)
	assert.NoError(t, err)
}

func TestWriteShardSet_LayoutMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := shard.MustParseGroupConfig("2:(2-of-3,1-of-1)")

	_, err := WriteShardSet(fs, "/shards", [][]string{{"a"}}, cfg, false)
	assert.Error(t, err)

	_, err = WriteShardSet(fs, "/shards", [][]string{{"a", "b"}, {"c"}}, cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "group 1 has 2 shards, expected 3")
}
