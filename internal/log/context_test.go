// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundIDRoundTrip(t *testing.T) {
	ctx := ContextWithRoundID(context.Background(), "r-1")
	assert.Equal(t, "r-1", RoundIDFromContext(ctx))
	assert.Empty(t, RoundIDFromContext(context.Background()))
	//nolint:staticcheck
	assert.Empty(t, RoundIDFromContext(nil))
}

func TestWithContextAddsRoundID(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	ctx := ContextWithRoundID(context.Background(), "abc")
	enriched := WithContext(ctx, l)
	enriched.Info().Msg("hello")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "abc", got[FieldRoundID])
}

func TestWithContextWithoutFieldsKeepsLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)

	ctxLogger := WithContext(context.Background(), l)
	ctxLogger.Info().Msg("plain")

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	_, ok := got[FieldRoundID]
	assert.False(t, ok)
}
