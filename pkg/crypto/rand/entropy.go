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

package rand

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

const (
	// MaxBytes is the largest single request GenerateBytes accepts.
	MaxBytes = 512

	// MaxBits is the largest single request GenerateBits accepts.
	MaxBits = MaxBytes * 8

	// DefaultMaxRetries is the number of retries after a failed read.
	DefaultMaxRetries = 3
)

var (
	ErrInvalidSize        = errors.New("rand: invalid size")
	ErrSizeTooLarge       = errors.New("rand: size too large")
	ErrEntropyUnavailable = errors.New("rand: entropy unavailable")
)

// GeneratorConfig configures a Generator. The zero value uses the auto
// resolver with DefaultMaxRetries and no rate limit.
type GeneratorConfig struct {
	// Resolver is an existing Resolver, a Mode, a Config or a *Config.
	// Anything accepted by NewResolver works here.
	Resolver interface{}

	// MaxRetries is the number of retries after the first failed attempt.
	// Zero selects DefaultMaxRetries; a negative value disables retries.
	MaxRetries int

	// RequestsPerSecond throttles requests to the resolver. Zero disables
	// throttling. Hardware tokens are slow and some lock up under load.
	RequestsPerSecond float64
	Burst             int

	// NewBackOff overrides the retry schedule. Tests use a zero backoff.
	NewBackOff func() backoff.BackOff
}

// Generator produces entropy with bounded retries.
type Generator struct {
	resolver   Resolver
	owned      bool
	maxRetries uint64
	limiter    *rate.Limiter
	newBackOff func() backoff.BackOff
}

// NewGenerator creates a Generator. A nil config is equivalent to the
// zero GeneratorConfig.
func NewGenerator(config *GeneratorConfig) (*Generator, error) {
	cfg := GeneratorConfig{}
	if config != nil {
		cfg = *config
	}

	g := &Generator{newBackOff: cfg.NewBackOff}
	if r, ok := cfg.Resolver.(Resolver); ok && r != nil {
		g.resolver = r
	} else {
		r, err := NewResolver(cfg.Resolver)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
		}
		g.resolver = r
		g.owned = true
	}

	switch {
	case cfg.MaxRetries < 0:
		g.maxRetries = 0
	case cfg.MaxRetries == 0:
		g.maxRetries = DefaultMaxRetries
	default:
		g.maxRetries = uint64(cfg.MaxRetries)
	}

	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	if g.newBackOff == nil {
		g.newBackOff = defaultBackOff
	}
	return g, nil
}

func defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	b.MaxElapsedTime = 2 * time.Second
	return b
}

var (
	defaultGenerator     *Generator
	defaultGeneratorOnce sync.Once
)

// Default returns a shared Generator backed by the operating system CSPRNG.
func Default() *Generator {
	defaultGeneratorOnce.Do(func() {
		defaultGenerator = &Generator{
			resolver:   newSoftwareResolver(),
			maxRetries: DefaultMaxRetries,
			newBackOff: defaultBackOff,
		}
	})
	return defaultGenerator
}

// GenerateBytes returns n bytes of entropy. n must be in [1, MaxBytes].
func (g *Generator) GenerateBytes(n int) ([]byte, error) {
	return g.GenerateBytesContext(context.Background(), n)
}

// GenerateBytesContext is GenerateBytes with a context that bounds both
// the rate limiter wait and the retry loop.
func (g *Generator) GenerateBytesContext(ctx context.Context, n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, n)
	}
	if n > MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds maximum of %d", ErrSizeTooLarge, n, MaxBytes)
	}

	var (
		out      []byte
		attempts int
	)
	op := func() error {
		attempts++
		if g.limiter != nil {
			if err := g.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		b, err := g.read(n)
		if err != nil {
			return err
		}
		out = b
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(g.newBackOff(), g.maxRetries), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("%w: %d attempt(s): %v", ErrEntropyUnavailable, attempts, err)
	}
	return out, nil
}

// read performs a single attempt. A short read or a panicking resolver
// counts as a failure.
func (g *Generator) read(n int) (b []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("resolver panic: %v", r)
		}
	}()

	b, err = g.resolver.Rand(n)
	if err != nil {
		return nil, err
	}
	if len(b) != n {
		return nil, fmt.Errorf("short read: got %d of %d bytes", len(b), n)
	}
	return b, nil
}

// GenerateBits returns ceil(bits/8) bytes of entropy. When bits is not a
// multiple of 8 the unused high-order bits of the first byte are cleared.
func (g *Generator) GenerateBits(bits int) ([]byte, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("%w: %d bits", ErrInvalidSize, bits)
	}
	if bits > MaxBits {
		return nil, fmt.Errorf("%w: %d bits exceeds maximum of %d", ErrSizeTooLarge, bits, MaxBits)
	}
	b, err := g.GenerateBytes((bits + 7) / 8)
	if err != nil {
		return nil, err
	}
	if rem := bits % 8; rem != 0 {
		b[0] &= byte(1<<rem) - 1
	}
	return b, nil
}

// Resolver returns the underlying source.
func (g *Generator) Resolver() Resolver {
	return g.resolver
}

// Close releases the resolver if the Generator created it.
func (g *Generator) Close() error {
	if g.owned {
		return g.resolver.Close()
	}
	return nil
}
