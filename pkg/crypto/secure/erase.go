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

// Package secure provides best-effort handling of sensitive in-memory values:
// overwriting byte buffers, invoking cleanup hooks and pinning buffers in RAM.
//
// Go cannot guarantee that the runtime never copied a buffer before it was
// erased, and it cannot force the operating system to shred freed pages.
// Everything in this package is therefore best effort: erase operations never
// fail, never panic and never report errors to the caller.
//
//	g := secure.NewGuard()
//	defer g.Release()
//
//	salt := g.Bytes([]byte("mnemonic" + passphrase))
//	// salt is zeroed on every return path
package secure

import (
	"crypto/subtle"
	"sync"
)

// Zeroizer is implemented by values that know how to wipe their own secret
// material, such as password holders and key shares.
type Zeroizer interface {
	Zeroize()
}

// Clearer is implemented by values exposing a Clear method for the same purpose.
type Clearer interface {
	Clear()
}

// Destroyer is implemented by values whose cleanup may fail. Errors are ignored.
type Destroyer interface {
	Destroy() error
}

// Erase overwrites the backing memory of every mutable value passed and calls
// the cleanup hook of values implementing Zeroizer, Clearer or Destroyer.
//
// nil values, strings, scalars and unknown types are ignored. A failing or
// panicking hook on one value does not prevent the remaining values from being
// erased.
func Erase(values ...any) {
	for _, v := range values {
		eraseOne(v)
	}
}

func eraseOne(v any) {
	defer func() {
		_ = recover()
	}()

	switch t := v.(type) {
	case nil:
	case []byte:
		Zero(t)
	case *[]byte:
		if t != nil {
			Zero(*t)
		}
	case [][]byte:
		for _, b := range t {
			Zero(b)
		}
	case []rune:
		for i := range t {
			t[i] = 0
		}
	case Zeroizer:
		t.Zeroize()
	case Clearer:
		t.Clear()
	case Destroyer:
		_ = t.Destroy()
	}
}

// Zero overwrites b with zeros.
func Zero(b []byte) {
	if len(b) == 0 {
		return
	}
	for i := range b {
		b[i] = 0
	}
	// Keep the compiler from treating the loop above as a dead store.
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
}

// Guard collects sensitive values and erases all of them when released.
// Release is meant to be deferred so the erase runs on every exit path,
// including panics.
//
// A Guard is safe for concurrent use.
type Guard struct {
	mu     sync.Mutex
	values []any
	locked [][]byte
	done   bool
}

// NewGuard returns an empty Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Track registers values to be erased on Release. Values tracked after
// Release are erased immediately.
func (g *Guard) Track(values ...any) {
	g.mu.Lock()
	if g.done {
		g.mu.Unlock()
		Erase(values...)
		return
	}
	g.values = append(g.values, values...)
	g.mu.Unlock()
}

// Bytes tracks b, attempts to lock it into RAM and returns it unchanged.
func (g *Guard) Bytes(b []byte) []byte {
	if Lock(b) == nil {
		g.mu.Lock()
		g.locked = append(g.locked, b)
		g.mu.Unlock()
	}
	g.Track(b)
	return b
}

// Release erases every tracked value and unlocks locked buffers.
// Calling Release more than once is harmless.
func (g *Guard) Release() {
	g.mu.Lock()
	values := g.values
	locked := g.locked
	g.values = nil
	g.locked = nil
	g.done = true
	g.mu.Unlock()

	Erase(values...)
	for _, b := range locked {
		_ = Unlock(b)
	}
}
