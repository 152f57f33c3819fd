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

//go:build !unix

package secure

import "errors"

// ErrLockUnsupported is returned by Lock on platforms without mlock.
var ErrLockUnsupported = errors.New("secure: memory locking not supported on this platform")

// Lock is not supported on this platform.
func Lock(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	return ErrLockUnsupported
}

// Unlock is a no-op on this platform.
func Unlock(b []byte) error {
	return nil
}
