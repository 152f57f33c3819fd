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

// Package seed derives the 64-byte BIP-39 master seed from a mnemonic.
//
// The mnemonic and passphrase are NFKD-normalized, the salt is
// "mnemonic"+passphrase and the key is PBKDF2-HMAC-SHA512 with 2048
// iterations unless Params says otherwise.
package seed

import (
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/jeremyhahn/go-seedshard/pkg/crypto/secure"
	"github.com/jeremyhahn/go-seedshard/pkg/logging"
	"github.com/jeremyhahn/go-seedshard/pkg/mnemonic"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/text/unicode/norm"
)

const (
	// SeedSize is the length of a master seed in bytes.
	SeedSize = 64

	// DefaultIterations is the BIP-39 PBKDF2 iteration count.
	DefaultIterations = 2048

	saltPrefix = "mnemonic"
)

var ErrInvalidIterations = errors.New("seed: iterations must be at least 1")

// Params holds the optional derivation inputs. A nil *Params is an empty
// passphrase with DefaultIterations. A non-nil Params is taken as given, so
// Iterations must be at least 1.
type Params struct {
	Passphrase string
	Iterations int
}

func (p *Params) iterations() int {
	if p == nil {
		return DefaultIterations
	}
	return p.Iterations
}

func (p *Params) passphrase() string {
	if p == nil {
		return ""
	}
	return p.Passphrase
}

// Validator checks a mnemonic before derivation. *mnemonic.Codec
// satisfies it.
type Validator interface {
	Validate(m string, lang mnemonic.Language) bool
}

// Deriver derives master seeds. It holds no per-call state and is safe
// for concurrent use.
type Deriver struct {
	validator Validator
	logger    *logging.Logger
}

// NewDeriver returns a Deriver that validates with v, or with a default
// mnemonic.Codec when v is nil.
func NewDeriver(v Validator, logger *logging.Logger) *Deriver {
	if v == nil {
		v = mnemonic.NewCodec()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Deriver{validator: v, logger: logger}
}

// Derive returns the 64-byte master seed for m. The caller owns the
// result and should erase it when done.
func (d *Deriver) Derive(m string, params *Params) ([]byte, error) {
	if !d.validator.Validate(m, mnemonic.LanguageAuto) {
		return nil, fmt.Errorf("%w: cannot generate master seed from invalid mnemonic", mnemonic.ErrMnemonic)
	}
	iter := params.iterations()
	if iter < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidIterations, iter)
	}

	seed, err := derive(m, params.passphrase(), iter)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate master seed: %v", mnemonic.ErrMnemonic, err)
	}
	d.logger.Debug("derived master seed", "iterations", iter)
	return seed, nil
}

// derive runs PBKDF2 on the normalized inputs. The password and salt
// buffers are locked in memory where possible and erased on every exit.
func derive(m, passphrase string, iterations int) (seed []byte, err error) {
	g := secure.NewGuard()
	defer g.Release()
	defer func() {
		if r := recover(); r != nil {
			seed, err = nil, fmt.Errorf("derivation panic: %v", r)
		}
	}()

	password := g.Bytes([]byte(mnemonic.Normalize(m)))
	salt := g.Bytes(append([]byte(saltPrefix), norm.NFKD.Bytes([]byte(passphrase))...))

	seed = pbkdf2.Key(password, salt, iterations, SeedSize, sha512.New)
	if len(seed) != SeedSize {
		secure.Erase(seed)
		return nil, fmt.Errorf("derived %d bytes, want %d", len(seed), SeedSize)
	}
	return seed, nil
}

// ToHex returns the lowercase hex encoding of Derive. The binary seed is
// erased once encoded.
func (d *Deriver) ToHex(m string, params *Params) (string, error) {
	seed, err := d.Derive(m, params)
	if err != nil {
		return "", err
	}
	defer secure.Erase(seed)
	return hex.EncodeToString(seed), nil
}
