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

package correlation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithAndGet(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "run-1")
	assert.Equal(t, "run-1", GetCorrelationID(ctx))
	assert.Empty(t, GetCorrelationID(context.Background()))

	//nolint:staticcheck // nil context is handled explicitly
	assert.Empty(t, GetCorrelationID(nil))
}

func TestNewID(t *testing.T) {
	id := NewID()
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.NotEqual(t, id, NewID())
}

func TestGetOrGenerate(t *testing.T) {
	t.Setenv(EnvVar, "")
	ctx := WithCorrelationID(context.Background(), "existing")
	assert.Equal(t, "existing", GetOrGenerate(ctx))

	generated := GetOrGenerate(context.Background())
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)

	t.Setenv(EnvVar, " from-env ")
	assert.Equal(t, "from-env", GetOrGenerate(context.Background()))
}

func TestEnsure(t *testing.T) {
	t.Setenv(EnvVar, "")
	ctx, id := Ensure(context.Background())
	assert.Equal(t, id, GetCorrelationID(ctx))

	ctx2, id2 := Ensure(ctx)
	assert.Equal(t, id, id2)
	assert.Equal(t, id, GetCorrelationID(ctx2))
}
