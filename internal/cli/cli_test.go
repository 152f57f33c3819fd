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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-seedshard/internal/config"
	"github.com/jeremyhahn/go-seedshard/internal/secretfile"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/jeremyhahn/go-seedshard/pkg/shard"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	zeroMnemonic12 = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	trezorSeed     = "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f001698e7463b04"

	// SLIP-39 1-of-1 share, passphrase "TREZOR".
	slip39Vector = "duckling enlarge academic academic agency result length solution fridge kidney coal piece deal husband erode duke ajar critical decision keyboard"
)

// zeroResolver returns all-zero entropy so generated mnemonics are known.
type zeroResolver struct{}

func (zeroResolver) Rand(n int) ([]byte, error) { return make([]byte, n), nil }
func (zeroResolver) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}
func (zeroResolver) Available() bool { return true }
func (zeroResolver) Close() error    { return nil }

var _ rand.Resolver = zeroResolver{}

type result struct {
	stdout string
	stderr string
	code   int
}

type harness struct {
	fs       afero.Fs
	stdin    string
	env      map[string]string
	password []string
	prompts  []string
}

func newHarness() *harness {
	return &harness{fs: afero.NewMemMapFs(), env: map[string]string{}}
}

func (h *harness) run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	calls := 0
	a := newApp(
		WithFs(h.fs),
		WithIO(strings.NewReader(h.stdin), &stdout, &stderr),
		WithResolver(zeroResolver{}),
		WithEnv(func(name string) string { return h.env[name] }),
		WithPasswordReader(func(prompt string) ([]byte, error) {
			h.prompts = append(h.prompts, prompt)
			if calls >= len(h.password) {
				return nil, errors.New("no terminal")
			}
			calls++
			return []byte(h.password[calls-1]), nil
		}),
	)
	code := a.execute(context.Background(), args)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

func decode(t *testing.T, s string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(s), v), s)
}

func TestGenerate(t *testing.T) {
	h := newHarness()
	r := h.run(t, "generate", "--words", "12", "-o", "json")
	require.Equal(t, 0, r.code, r.stderr)

	var out MnemonicResult
	decode(t, r.stdout, &out)
	assert.Equal(t, zeroMnemonic12, out.Mnemonic)
	assert.Equal(t, 12, out.WordCount)
	assert.Equal(t, "english", out.Language)
	assert.Contains(t, r.stderr, "is secret")
}

func TestGenerate_DefaultsFromConfig(t *testing.T) {
	h := newHarness()
	r := h.run(t, "generate")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Len(t, strings.Fields(r.stdout), 24)

	require.NoError(t, afero.WriteFile(h.fs, "/seedshard.yaml",
		[]byte("mnemonic:\n  word_count: 12\n  language: spanish\noutput:\n  format: table\n"), 0o600))
	r = h.run(t, "--config", "/seedshard.yaml", "generate")
	require.Equal(t, 0, r.code, r.stderr)
	lines := strings.Split(strings.TrimRight(r.stdout, "\n"), "\n")
	require.Len(t, lines, 12)
	assert.True(t, strings.HasPrefix(lines[0], " 1. "))
	assert.True(t, strings.HasPrefix(lines[11], "12. "))

	codec := mnemonic.NewCodec()
	words := make([]string, len(lines))
	for i, l := range lines {
		words[i] = strings.TrimSpace(l[4:])
	}
	assert.True(t, codec.Validate(strings.Join(words, " "), mnemonic.Spanish))
}

func TestGenerate_Languages(t *testing.T) {
	for _, lang := range []string{"japanese", "korean", "chinese_traditional", "czech"} {
		t.Run(lang, func(t *testing.T) {
			r := newHarness().run(t, "generate", "-w", "15", "-l", lang, "-o", "json")
			require.Equal(t, 0, r.code, r.stderr)

			var out MnemonicResult
			decode(t, r.stdout, &out)
			l, err := mnemonic.ParseLanguage(lang)
			require.NoError(t, err)
			assert.Equal(t, lang, out.Language)
			assert.True(t, mnemonic.NewCodec().Validate(out.Mnemonic, l))
		})
	}
}

func TestGenerate_ToFile(t *testing.T) {
	h := newHarness()
	r := h.run(t, "generate", "-w", "12", "--out", "/seed.txt")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "/seed.txt\n", r.stdout)
	assert.Contains(t, r.stderr, "wrote")

	f, err := secretfile.Read(h.fs, "/seed.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{zeroMnemonic12}, f.Lines)

	r = h.run(t, "generate", "-w", "12", "--out", "/seed.txt")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "already exists")

	r = h.run(t, "generate", "-w", "24", "--out", "/seed.txt", "--force")
	require.Equal(t, 0, r.code, r.stderr)
}

func TestGenerate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"word count", []string{"generate", "-w", "13"}, "invalid word count"},
		{"language", []string{"generate", "-l", "elvish"}, "unsupported language"},
		{"arguments", []string{"generate", "extra"}, "unknown command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newHarness().run(t, tt.args...)
			assert.Equal(t, 1, r.code)
			assert.Contains(t, r.stderr, tt.msg)
			assert.Empty(t, r.stdout)
		})
	}
}

func TestValidate(t *testing.T) {
	h := newHarness()
	r := h.run(t, append([]string{"validate"}, strings.Fields(zeroMnemonic12)...)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Valid 12-word english mnemonic\n", r.stdout)

	invalid := strings.Repeat("abandon ", 11) + "abandon"
	r = h.run(t, "validate", "-o", "json", invalid)
	assert.Equal(t, 1, r.code)
	var out ValidationResult
	decode(t, r.stdout, &out)
	assert.False(t, out.Valid)
	assert.Contains(t, out.Reason, "invalid checksum")
	assert.NotContains(t, r.stderr, "Error:")
}

func TestValidate_Inputs(t *testing.T) {
	h := newHarness()
	h.stdin = "# piped\n\n" + zeroMnemonic12 + "\n"
	r := h.run(t, "validate")
	require.Equal(t, 0, r.code, r.stderr)

	require.NoError(t, secretfile.WriteMnemonic(h.fs, "/m.txt", zeroMnemonic12, "english", false))
	h.stdin = ""
	r = h.run(t, "validate", "--file", "/m.txt", "--language", "english")
	require.Equal(t, 0, r.code, r.stderr)

	r = h.run(t, "validate")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "no mnemonic given")

	h.stdin = zeroMnemonic12 + "\n" + zeroMnemonic12 + "\n"
	r = h.run(t, "validate")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "expected one mnemonic")
}

func TestValidate_WrongLanguage(t *testing.T) {
	r := newHarness().run(t, "validate", "-l", "japanese", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stdout, "valid english mnemonic, not japanese")
}

func TestEntropy(t *testing.T) {
	h := newHarness()
	r := h.run(t, "entropy", "--bytes", "16")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, strings.Repeat("0", 32)+"\n", r.stdout)

	r = h.run(t, "entropy", "--bits", "12", "--encoding", "base64", "-o", "json")
	require.Equal(t, 0, r.code, r.stderr)
	var out map[string]interface{}
	decode(t, r.stdout, &out)
	assert.Equal(t, "AAA=", out["entropy"])
	assert.Equal(t, float64(12), out["bits"])

	for _, args := range [][]string{
		{"entropy", "--bytes", "0"},
		{"entropy", "--bytes", "513"},
		{"entropy", "--bits", "4097"},
		{"entropy", "--encoding", "base32"},
	} {
		r = h.run(t, args...)
		assert.Equal(t, 1, r.code, "%v", args)
	}
}

func TestSeed(t *testing.T) {
	h := newHarness()
	h.env["SS_PASS"] = "TREZOR"
	r := h.run(t, append([]string{"seed", "--passphrase-env", "SS_PASS"}, strings.Fields(zeroMnemonic12)...)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, trezorSeed+"\n", r.stdout)

	h.password = []string{"TREZOR"}
	h.stdin = zeroMnemonic12
	r = h.run(t, "seed", "--passphrase", "-o", "json")
	require.Equal(t, 0, r.code, r.stderr)
	var out map[string]string
	decode(t, r.stdout, &out)
	assert.Equal(t, trezorSeed, out["seed"])
	assert.Equal(t, []string{"Passphrase: "}, h.prompts)
}

func TestSeed_Errors(t *testing.T) {
	h := newHarness()
	r := h.run(t, "seed", "--passphrase-env", "UNSET", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "UNSET is not set")

	r = h.run(t, "seed", "legal winner thank")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "cannot generate master seed from invalid mnemonic")

	r = h.run(t, "seed", "--iterations", "0", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "iterations must be at least 1")
	assert.Empty(t, r.stdout)

	r = h.run(t, "seed", "--passphrase", "--passphrase-env", "X", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
}

type shardSet struct {
	Config         string `json:"config"`
	GroupThreshold int    `json:"group_threshold"`
	Groups         []struct {
		Index     int      `json:"index"`
		Threshold int      `json:"threshold"`
		Total     int      `json:"total"`
		Shards    []string `json:"shards"`
	} `json:"groups"`
}

func TestShard_CreateCombine(t *testing.T) {
	h := newHarness()
	r := h.run(t, "shard", "create", "-o", "json", zeroMnemonic12)
	require.Equal(t, 0, r.code, r.stderr)

	var set shardSet
	decode(t, r.stdout, &set)
	assert.Equal(t, "3-of-5", set.Config)
	require.Len(t, set.Groups, 1)
	shards := set.Groups[0].Shards
	require.Len(t, shards, 5)
	for _, s := range shards {
		assert.Len(t, strings.Fields(s), 20)
	}

	r = h.run(t, "shard", "combine", shards[4], shards[0], shards[2])
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, zeroMnemonic12+"\n", r.stdout)

	h.stdin = strings.Join(shards, "\n")
	r = h.run(t, "shard", "combine", "-o", "json")
	require.Equal(t, 0, r.code, r.stderr)
	var out MnemonicResult
	decode(t, r.stdout, &out)
	assert.Equal(t, zeroMnemonic12, out.Mnemonic)

	h.stdin = ""
	r = h.run(t, "shard", "combine", shards[1], shards[3])
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "2 supplied, at least 3 required")
}

func TestShard_Groups(t *testing.T) {
	h := newHarness()
	r := h.run(t, "shard", "create", "-g", "2:(2-of-3,3-of-5,1-of-1)", "-o", "json", zeroMnemonic12)
	require.Equal(t, 0, r.code, r.stderr)

	var set shardSet
	decode(t, r.stdout, &set)
	assert.Equal(t, 2, set.GroupThreshold)
	require.Len(t, set.Groups, 3)

	g1, g3 := set.Groups[0].Shards, set.Groups[2].Shards
	r = h.run(t, "shard", "combine", g1[0], g3[0], g1[2])
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, zeroMnemonic12+"\n", r.stdout)

	r = h.run(t, "shard", "create", "-g", "1-of-3", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid group configuration")
}

func TestShard_Files(t *testing.T) {
	h := newHarness()
	require.NoError(t, secretfile.WriteMnemonic(h.fs, "/seed.txt", zeroMnemonic12, "english", false))

	r := h.run(t, "shard", "create", "-f", "/seed.txt", "-g", "2-of-3", "--out-dir", "/shards")
	require.Equal(t, 0, r.code, r.stderr)
	paths := strings.Fields(r.stdout)
	require.Equal(t, []string{
		"/shards/shard-g01-m01.txt",
		"/shards/shard-g01-m02.txt",
		"/shards/shard-g01-m03.txt",
	}, paths)

	r = h.run(t, "shard", "combine", "-f", paths[2], "-f", paths[0], "--out", "/recovered.txt")
	require.Equal(t, 0, r.code, r.stderr)

	f, err := secretfile.Read(h.fs, "/recovered.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{zeroMnemonic12}, f.Lines)

	r = h.run(t, "shard", "create", "-f", "/seed.txt", "-g", "2-of-3", "--out-dir", "/shards")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "already exists")
}

func TestShard_Passphrase(t *testing.T) {
	h := newHarness()
	h.password = []string{"correct horse", "correct horse"}
	r := h.run(t, "shard", "create", "-g", "2-of-3", "--passphrase", "-o", "json", zeroMnemonic12)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, []string{"Passphrase: ", "Confirm passphrase: "}, h.prompts)

	var set shardSet
	decode(t, r.stdout, &set)
	shards := set.Groups[0].Shards[:2]

	h.env["SHARD_PASS"] = "correct horse"
	r = h.run(t, append([]string{"shard", "combine", "--passphrase-env", "SHARD_PASS"}, shards...)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, zeroMnemonic12+"\n", r.stdout)

	r = h.run(t, append([]string{"shard", "combine"}, shards...)...)
	require.Equal(t, 0, r.code, r.stderr)
	assert.NotEqual(t, zeroMnemonic12+"\n", r.stdout)

	h.password = []string{"one", "two"}
	r = h.run(t, "shard", "create", "--passphrase", zeroMnemonic12)
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "passphrases do not match")
}

func TestShard_ValidateInfo(t *testing.T) {
	h := newHarness()
	r := h.run(t, "shard", "validate", slip39Vector)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Equal(t, "Shard 1: valid (20 words)\n", r.stdout)

	words := strings.Fields(slip39Vector)
	words[19] = "academic"
	broken := strings.Join(words, " ")
	r = h.run(t, "shard", "validate", "-o", "json", slip39Vector, broken)
	assert.Equal(t, 1, r.code)
	var out struct {
		Shards []ShardValidation `json:"shards"`
	}
	decode(t, r.stdout, &out)
	assert.Equal(t, []ShardValidation{
		{Index: 1, Valid: true, WordCount: 20},
		{Index: 2, Valid: false, WordCount: 20},
	}, out.Shards)

	r = h.run(t, "shard", "info", "-o", "json", slip39Vector)
	require.Equal(t, 0, r.code, r.stderr)
	var info shard.Info
	decode(t, r.stdout, &info)
	assert.Equal(t, 7945, info.Identifier)
	assert.Equal(t, 1, info.GroupIndex)
	assert.Equal(t, 1, info.MemberThreshold)
	assert.True(t, info.Valid)

	r = h.run(t, "shard", "info", "not a shard")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid shard")

	r = h.run(t, "shard", "info", slip39Vector)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Identifier:         7945")

	r = h.run(t, "shard", "info", broken)
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stdout, "Valid:              false")
	assert.NotContains(t, r.stdout, "Identifier:")
}

func TestShard_CombineVector(t *testing.T) {
	h := newHarness()
	h.env["P"] = "TREZOR"
	r := h.run(t, "shard", "combine", "--passphrase-env", "P", "-o", "json", slip39Vector)
	require.Equal(t, 0, r.code, r.stderr)

	var out MnemonicResult
	decode(t, r.stdout, &out)
	entropy, err := mnemonic.NewCodec().ExtractEntropy(out.Mnemonic)
	require.NoError(t, err)
	assert.Equal(t, "bb54aac4b89dc868ba37d9cc21b2cece", fmt.Sprintf("%x", entropy))
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seedshard.prom")
	r := newHarness().run(t, "--metrics-file", path, "generate", "-w", "12")
	require.Equal(t, 0, r.code, r.stderr)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `seedshard_operations_total{operation="generate",status="success"}`)
	assert.Contains(t, text, `seedshard_entropy_bytes_total{source="injected"}`)
	assert.Contains(t, text, `seedshard_run_info{command="seedshard generate"`)

	r = newHarness().run(t, "--metrics-file", path, "validate")
	assert.Equal(t, 1, r.code)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `seedshard_errors_total{error_type="invalid_input",operation="validate"}`)
}

func TestVersion(t *testing.T) {
	r := newHarness().run(t, "version", "-o", "json")
	require.Equal(t, 0, r.code, r.stderr)
	var out map[string]string
	decode(t, r.stdout, &out)
	assert.Equal(t, Version, out["version"])

	r = newHarness().run(t, "version")
	assert.Contains(t, r.stdout, "seedshard version "+Version)
}

func TestGlobalFlags(t *testing.T) {
	r := newHarness().run(t, "-o", "xml", "version")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid output format")

	r = newHarness().run(t, "--config", "/missing.yaml", "version")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "failed to read config file")

	r = newHarness().run(t, "-v", "--log-format", "json", "version")
	require.Equal(t, 0, r.code, r.stderr)
	assert.Contains(t, r.stderr, `"correlation_id"`)

	r = newHarness().run(t, "-o", "json", "shard", "combine", "bogus words")
	assert.Equal(t, 1, r.code)
	var out map[string]string
	decode(t, r.stderr, &out)
	assert.Equal(t, "error", out["status"])
	assert.Equal(t, "invalid_shard", out["type"])
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("wrapped: %w", mnemonic.ErrInvalidChecksum), "invalid_checksum"},
		{mnemonic.ErrUnknownWord, "unknown_word"},
		{fmt.Errorf("%w: x", mnemonic.ErrMnemonic), "invalid_mnemonic"},
		{rand.ErrEntropyUnavailable, "entropy_unavailable"},
		{shard.ErrInsufficientShards, "insufficient_shards"},
		{fmt.Errorf("%w: y", shard.ErrShard), "shard"},
		{shard.ErrInvalidGroupConfig, "invalid_group_config"},
		{config.ErrInvalidConfig, "invalid_config"},
		{secretfile.ErrExists, "file_exists"},
		{&exitError{code: 1}, "rejected"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, errorType(tt.err), tt.err.Error())
	}
}
