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

// Package rand acquires entropy for mnemonic generation.
//
// A Resolver is a secure random source: the operating system CSPRNG
// (crypto/rand), a TPM 2.0 (build tag tpm2) or a PKCS#11 token (build tag
// pkcs11). A Generator wraps a Resolver with the size limits, bounded retry
// and optional rate limiting that seed generation relies on:
//
//	gen, err := rand.NewGenerator(&rand.GeneratorConfig{
//	    Resolver: rand.Config{Mode: rand.ModeAuto},
//	})
//	entropy, err := gen.GenerateBytes(32)
//
// A Generator never degrades to a non-cryptographic source. If every attempt
// fails the error is surfaced as ErrEntropyUnavailable.
//
// Resolvers and Generators are safe for concurrent use. Tests inject their own
// Resolver to get deterministic or failing output.
package rand

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Mode specifies which RNG source to use.
type Mode string

const (
	// ModeAuto selects the best available source.
	// Preference order: PKCS#11 > TPM2 > Software
	ModeAuto Mode = "auto"

	// ModeSoftware uses crypto/rand
	ModeSoftware Mode = "software"

	// ModeTPM2 uses the TPM 2.0 GetRandom command
	ModeTPM2 Mode = "tpm2"

	// ModePKCS11 uses C_GenerateRandom on a PKCS#11 token
	ModePKCS11 Mode = "pkcs11"
)

// Modes lists every mode accepted by NewResolver.
var Modes = []Mode{ModeAuto, ModeSoftware, ModeTPM2, ModePKCS11}

// Config selects and configures a Resolver.
type Config struct {
	// Mode is the primary source. Defaults to ModeAuto.
	Mode Mode `yaml:"mode"`

	// FallbackMode is tried when the primary source fails a request.
	// It must itself be a secure source; there is no insecure fallback.
	FallbackMode Mode `yaml:"fallback_mode,omitempty"`

	TPM2Config   *TPM2Config   `yaml:"tpm2,omitempty"`
	PKCS11Config *PKCS11Config `yaml:"pkcs11,omitempty"`
}

// TPM2Config configures the TPM 2.0 source.
type TPM2Config struct {
	// Device path (default "/dev/tpmrm0"). Ignored when UseSimulator is set.
	Device string `yaml:"device"`

	// MaxRequestSize caps bytes per TPM2_GetRandom call (default 32).
	MaxRequestSize int `yaml:"max_request_size"`

	UseSimulator  bool   `yaml:"use_simulator"`
	SimulatorHost string `yaml:"simulator_host"`
	SimulatorPort int    `yaml:"simulator_port"`
}

// PKCS11Config configures the PKCS#11 source.
type PKCS11Config struct {
	// Module is the path to the PKCS#11 library, e.g. /usr/lib/softhsm/libsofthsm2.so
	Module string `yaml:"module"`
	SlotID uint   `yaml:"slot_id"`
	PIN    string `yaml:"pin,omitempty"`
}

// Resolver is a secure random source.
//
// Resolver implements io.Reader so it can stand in for crypto/rand.Reader.
type Resolver interface {
	// Rand returns n random bytes or an error. It never returns fewer than
	// n bytes without an error.
	Rand(n int) ([]byte, error)

	io.Reader

	// Available reports whether the source is ready.
	Available() bool

	// Close releases any device handles.
	Close() error
}

// NewResolver creates a Resolver. config may be nil, a Mode, a Config or a
// *Config; anything else selects ModeAuto.
func NewResolver(config interface{}) (Resolver, error) {
	return newResolver(normalizeConfig(config))
}

func normalizeConfig(config interface{}) *Config {
	switch v := config.(type) {
	case Mode:
		return &Config{Mode: v}
	case Config:
		return normalizeConfig(&v)
	case *Config:
		if v == nil {
			return &Config{Mode: ModeAuto}
		}
		cfg := *v
		if cfg.Mode == "" {
			cfg.Mode = ModeAuto
		}
		return &cfg
	default:
		return &Config{Mode: ModeAuto}
	}
}

func newResolver(cfg *Config) (Resolver, error) {
	switch cfg.Mode {
	case ModeAuto:
		return newAutoResolver(cfg)
	case ModeSoftware:
		return newSoftwareResolver(), nil
	case ModeTPM2:
		return withFallback(newTPM2Resolver(cfg.TPM2Config))(cfg)
	case ModePKCS11:
		return withFallback(newPKCS11Resolver(cfg.PKCS11Config))(cfg)
	default:
		return nil, fmt.Errorf("unknown RNG mode: %s", cfg.Mode)
	}
}

// withFallback wraps an explicitly selected hardware resolver with the
// configured fallback, if any.
func withFallback(primary Resolver, err error) func(*Config) (Resolver, error) {
	return func(cfg *Config) (Resolver, error) {
		if err != nil {
			return nil, err
		}
		if cfg.FallbackMode == "" || cfg.FallbackMode == cfg.Mode {
			return primary, nil
		}
		fallback, ferr := newResolver(&Config{Mode: cfg.FallbackMode})
		if ferr != nil {
			_ = primary.Close()
			return nil, fmt.Errorf("failed to create fallback resolver: %w", ferr)
		}
		return &autoResolver{resolver: primary, fallback: fallback}, nil
	}
}

// SoftwareResolver reads from crypto/rand.
type SoftwareResolver struct{}

var _ Resolver = (*SoftwareResolver)(nil)

func newSoftwareResolver() Resolver {
	return &SoftwareResolver{}
}

func (s *SoftwareResolver) Rand(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func (s *SoftwareResolver) Read(p []byte) (int, error) {
	return rand.Read(p)
}

func (s *SoftwareResolver) Available() bool {
	return true
}

func (s *SoftwareResolver) Close() error {
	return nil
}
