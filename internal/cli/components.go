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
	"github.com/jeremyhahn/go-seedshard/pkg/crypto/rand"
	"github.com/jeremyhahn/go-seedshard/pkg/metrics"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"github.com/jeremyhahn/go-seedshard/pkg/seed"
	"github.com/jeremyhahn/go-seedshard/pkg/shard"
)

// generator opens the configured entropy source. The caller must Close it.
func (a *app) generator() (*rand.Generator, error) {
	gc := a.cfg.GeneratorConfig()
	if a.resolver != nil {
		gc.Resolver = a.resolver
	}
	return rand.NewGenerator(gc)
}

func (a *app) entropyLabel() string {
	if a.resolver != nil {
		return "injected"
	}
	return string(a.cfg.Entropy.Mode)
}

// meteredSource counts the bytes a codec draws.
type meteredSource struct {
	src   mnemonic.EntropySource
	label string
}

func (m meteredSource) GenerateBytes(n int) ([]byte, error) {
	b, err := m.src.GenerateBytes(n)
	if err == nil {
		metrics.RecordEntropy(m.label, len(b))
	}
	return b, err
}

// codec returns a mnemonic codec. gen may be nil for commands that never
// generate.
func (a *app) codec(gen *rand.Generator) *mnemonic.Codec {
	opts := []mnemonic.Option{mnemonic.WithLogger(a.logger)}
	if gen != nil {
		opts = append(opts, mnemonic.WithEntropySource(meteredSource{src: gen, label: a.entropyLabel()}))
	}
	return mnemonic.NewCodec(opts...)
}

func (a *app) deriver() *seed.Deriver {
	return seed.NewDeriver(a.codec(nil), a.logger)
}

func (a *app) engine(passphrase string, lang mnemonic.Language) *shard.Engine {
	return shard.NewEngine(&shard.Options{
		Passphrase: passphrase,
		Language:   lang,
		Codec:      a.codec(nil),
		Logger:     a.logger,
	})
}

// language parses flag, falling back to the configured value when flag
// is empty.
func language(flag, configured string) (mnemonic.Language, error) {
	if flag == "" {
		flag = configured
	}
	return mnemonic.ParseLanguage(flag)
}

// concrete resolves LanguageAuto to the language generation uses.
func concrete(lang mnemonic.Language) mnemonic.Language {
	if lang == mnemonic.LanguageAuto {
		return mnemonic.DefaultLanguage
	}
	return lang
}
