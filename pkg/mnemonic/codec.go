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

// Package mnemonic encodes entropy as checksummed BIP-39 mnemonics and
// decodes them back.
//
// Every read path normalizes its input first: case is folded, runs of
// whitespace collapse to one space and words are brought to NFKD, the
// form the wordlists are stored in. Validate is total and never returns an
// error; Parse and ExtractEntropy name the defect they found.
package mnemonic

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
	"github.com/jeremyhahn/go-seedshard/pkg/logging"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/text/unicode/norm"
)

// DefaultWordCount is used by callers that do not ask for a size.
const DefaultWordCount = 24

// WordCounts lists the supported mnemonic lengths.
var WordCounts = []int{12, 15, 18, 21, 24}

// WordCountToEntropyBytes maps a word count to its entropy length:
// 12→16, 15→20, 18→24, 21→28, 24→32.
func WordCountToEntropyBytes(wordCount int) (int, error) {
	switch wordCount {
	case 12, 15, 18, 21, 24:
		return wordCount / 3 * 4, nil
	default:
		return 0, fmt.Errorf("%w: %d, must be one of %v", ErrInvalidWordCount, wordCount, WordCounts)
	}
}

// EntropyBytesToWordCount is the inverse of WordCountToEntropyBytes.
func EntropyBytesToWordCount(n int) (int, error) {
	switch n {
	case 16, 20, 24, 28, 32:
		return n / 4 * 3, nil
	default:
		return 0, fmt.Errorf("%w: entropy length %d bytes, must be one of [16 20 24 28 32]", ErrCrypto, n)
	}
}

// EntropySource supplies random bytes to Generate. *rand.Generator
// satisfies it.
type EntropySource interface {
	GenerateBytes(n int) ([]byte, error)
}

// Codec encodes and decodes mnemonics. It is safe for concurrent use.
type Codec struct {
	entropy EntropySource
	logger  *logging.Logger
}

// Option configures a Codec.
type Option func(*Codec)

// WithEntropySource replaces the operating system CSPRNG.
func WithEntropySource(src EntropySource) Option {
	return func(c *Codec) {
		if src != nil {
			c.entropy = src
		}
	}
}

// WithLogger sets the logger. Only sizes and languages are logged.
func WithLogger(l *logging.Logger) Option {
	return func(c *Codec) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCodec creates a Codec backed by rand.Default unless overridden.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		entropy: rand.Default(),
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// go-bip39 keeps the active wordlist in package state.
var bip39Mu sync.Mutex

func withWordlist(list []string, fn func() error) error {
	bip39Mu.Lock()
	defer bip39Mu.Unlock()
	bip39.SetWordList(list)
	return fn()
}

// Normalize returns the canonical form of a mnemonic: lower case, NFKD,
// words separated by a single ASCII space.
func Normalize(mnemonic string) string {
	return strings.Join(strings.Fields(norm.NFKD.String(strings.ToLower(mnemonic))), " ")
}

// Normalize is the package Normalize.
func (c *Codec) Normalize(mnemonic string) string {
	return Normalize(mnemonic)
}

// Generate draws fresh entropy for wordCount words and encodes it in lang.
// LanguageAuto generates English. The entropy is erased before returning.
func (c *Codec) Generate(lang Language, wordCount int) (string, error) {
	n, err := WordCountToEntropyBytes(wordCount)
	if err != nil {
		return "", err
	}
	if _, err := resolveLanguage(lang).Wordlist(); err != nil {
		return "", err
	}

	entropy, err := c.entropy.GenerateBytes(n)
	defer secure.Erase(entropy)
	if err != nil {
		return "", fmt.Errorf("%w: entropy acquisition failed: %w", ErrCrypto, err)
	}
	if len(entropy) != n {
		return "", fmt.Errorf("%w: entropy source returned %d of %d bytes", ErrCrypto, len(entropy), n)
	}

	m, err := c.Encode(lang, entropy)
	if err != nil {
		return "", err
	}
	c.logger.Debug("generated mnemonic", "words", wordCount, "language", resolveLanguage(lang).String())
	return m, nil
}

// Encode converts caller-supplied entropy into a mnemonic in lang.
func (c *Codec) Encode(lang Language, entropy []byte) (string, error) {
	lang = resolveLanguage(lang)
	list, err := lang.Wordlist()
	if err != nil {
		return "", err
	}
	wordCount, err := EntropyBytesToWordCount(len(entropy))
	if err != nil {
		return "", err
	}

	var m string
	err = withWordlist(list, func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("encoder panic: %v", r)
			}
		}()
		m, err = bip39.NewMnemonic(entropy)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: mnemonic encoding failed: %v", ErrCrypto, err)
	}
	if m == "" || len(strings.Fields(m)) != wordCount {
		return "", fmt.Errorf("%w: encoder produced a malformed mnemonic", ErrCrypto)
	}
	return m, nil
}

func resolveLanguage(lang Language) Language {
	if lang == "" || lang == LanguageAuto {
		return DefaultLanguage
	}
	return lang
}

// Validate reports whether mnemonic is well formed in lang, or in any
// supported language for LanguageAuto. It never panics.
func (c *Codec) Validate(mnemonic string, lang Language) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	d, err := decode(mnemonic, lang)
	if err != nil {
		return false
	}
	secure.Erase(d.entropy)
	return true
}

// Parse validates mnemonic and returns its normalized words.
func (c *Codec) Parse(mnemonic string) ([]string, error) {
	d, err := safeDecode(mnemonic, LanguageAuto)
	if err != nil {
		return nil, err
	}
	secure.Erase(d.entropy)
	return d.words, nil
}

// Detect returns the language of a valid mnemonic. When the words and
// checksum are valid in several wordlists the first in Languages wins.
func (c *Codec) Detect(mnemonic string) (Language, error) {
	d, err := safeDecode(mnemonic, LanguageAuto)
	if err != nil {
		return "", err
	}
	secure.Erase(d.entropy)
	return d.language, nil
}

// ExtractEntropy returns the entropy encoded by a valid mnemonic. The
// caller owns the returned slice and should erase it when done.
func (c *Codec) ExtractEntropy(mnemonic string) ([]byte, error) {
	d, err := safeDecode(mnemonic, LanguageAuto)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot extract entropy from invalid mnemonic: %w", ErrMnemonic, err)
	}
	return d.entropy, nil
}

type decoded struct {
	words    []string
	language Language
	entropy  []byte
}

func safeDecode(mnemonic string, lang Language) (d *decoded, err error) {
	defer func() {
		if r := recover(); r != nil {
			d, err = nil, fmt.Errorf("%w: decoding failed: %v", ErrMnemonic, r)
		}
	}()
	return decode(mnemonic, lang)
}

func decode(mnemonic string, lang Language) (*decoded, error) {
	words := strings.Fields(Normalize(mnemonic))
	if len(words) == 0 {
		return nil, ErrEmptyMnemonic
	}
	if _, err := WordCountToEntropyBytes(len(words)); err != nil {
		return nil, fmt.Errorf("%w: %d words, expected one of %v", ErrMnemonic, len(words), WordCounts)
	}

	langs, err := languagesFor(words, lang)
	if err != nil {
		return nil, err
	}

	phrase := strings.Join(words, " ")
	var lastErr error
	for _, l := range langs {
		list, _ := l.Wordlist()
		var entropy []byte
		err := withWordlist(list, func() (err error) {
			entropy, err = bip39.EntropyFromMnemonic(phrase)
			return err
		})
		if err == nil {
			return &decoded{words: words, language: l, entropy: entropy}, nil
		}
		lastErr = err
	}
	if errors.Is(lastErr, bip39.ErrChecksumIncorrect) {
		return nil, ErrInvalidChecksum
	}
	return nil, fmt.Errorf("%w: %v", ErrMnemonic, lastErr)
}

// languagesFor returns the wordlists to try for words. Unknown words are
// reported by position only; the words themselves are secret.
func languagesFor(words []string, lang Language) ([]Language, error) {
	if lang != "" && lang != LanguageAuto {
		if _, err := lang.Wordlist(); err != nil {
			return nil, err
		}
		for i, w := range words {
			if !lang.Contains(w) {
				return nil, fmt.Errorf("%w: word %d is not in the %s wordlist", ErrUnknownWord, i+1, lang)
			}
		}
		return []Language{lang}, nil
	}

	if c := candidates(words); len(c) > 0 {
		return c, nil
	}
	for i, w := range words {
		known := false
		for _, l := range Languages {
			if l.Contains(w) {
				known = true
				break
			}
		}
		if !known {
			return nil, fmt.Errorf("%w: word %d is not in any supported wordlist", ErrUnknownWord, i+1)
		}
	}
	return nil, fmt.Errorf("%w: words do not belong to a single wordlist", ErrUnknownWord)
}
