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
	"fmt"
	"strings"
	"sync"

	"github.com/tyler-smith/go-bip39/wordlists"
)

// Language names a BIP-39 wordlist.
type Language string

const (
	// LanguageAuto detects the wordlist from the words themselves. It is
	// only meaningful when reading a mnemonic; generation uses English.
	LanguageAuto Language = "auto"

	English            Language = "english"
	Japanese           Language = "japanese"
	Korean             Language = "korean"
	Spanish            Language = "spanish"
	ChineseSimplified  Language = "chinese_simplified"
	ChineseTraditional Language = "chinese_traditional"
	French             Language = "french"
	Italian            Language = "italian"
	Czech              Language = "czech"

	DefaultLanguage = English
)

// Languages lists the supported wordlists in detection order.
var Languages = []Language{
	English,
	Spanish,
	French,
	Italian,
	Czech,
	Japanese,
	Korean,
	ChineseSimplified,
	ChineseTraditional,
}

var wordlistByLanguage = map[Language][]string{
	English:            wordlists.English,
	Japanese:           wordlists.Japanese,
	Korean:             wordlists.Korean,
	Spanish:            wordlists.Spanish,
	ChineseSimplified:  wordlists.ChineseSimplified,
	ChineseTraditional: wordlists.ChineseTraditional,
	French:             wordlists.French,
	Italian:            wordlists.Italian,
	Czech:              wordlists.Czech,
}

var (
	indexOnce       sync.Once
	indexByLanguage map[Language]map[string]struct{}
)

func wordIndex(lang Language) map[string]struct{} {
	indexOnce.Do(func() {
		indexByLanguage = make(map[Language]map[string]struct{}, len(wordlistByLanguage))
		for l, list := range wordlistByLanguage {
			idx := make(map[string]struct{}, len(list))
			for _, w := range list {
				idx[w] = struct{}{}
			}
			indexByLanguage[l] = idx
		}
	})
	return indexByLanguage[lang]
}

// ParseLanguage accepts a language name case-insensitively, with either
// "-" or "_" separators. The empty string selects LanguageAuto.
func ParseLanguage(s string) (Language, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	if s == "" || s == string(LanguageAuto) {
		return LanguageAuto, nil
	}
	lang := Language(s)
	if _, ok := wordlistByLanguage[lang]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, s)
	}
	return lang, nil
}

// Wordlist returns the 2048 words of the language.
func (l Language) Wordlist() ([]string, error) {
	list, ok := wordlistByLanguage[l]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(l))
	}
	return list, nil
}

// Contains reports whether word is in the language's wordlist. word must
// already be normalized.
func (l Language) Contains(word string) bool {
	_, ok := wordIndex(l)[word]
	return ok
}

func (l Language) String() string {
	return string(l)
}

// candidates returns the languages whose wordlists contain every word, in
// detection order.
func candidates(words []string) []Language {
	var out []Language
	for _, lang := range Languages {
		all := true
		for _, w := range words {
			if !lang.Contains(w) {
				all = false
				break
			}
		}
		if all {
			out = append(out, lang)
		}
	}
	return out
}

// DetectLanguage returns the first language whose wordlist contains every
// word of mnemonic. Several wordlists share words, so this is a heuristic:
// a mnemonic that is valid in more than one language resolves to the one
// listed first in Languages.
func DetectLanguage(mnemonic string) (Language, bool) {
	words := strings.Fields(Normalize(mnemonic))
	if len(words) == 0 {
		return "", false
	}
	c := candidates(words)
	if len(c) == 0 {
		return "", false
	}
	return c[0], true
}
