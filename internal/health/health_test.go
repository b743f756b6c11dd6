// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/camprobe/internal/config"
)

type staticChecker struct {
	name   string
	result CheckResult
}

func (c staticChecker) Name() string { return c.name }
func (c staticChecker) Check(context.Context) CheckResult { return c.result }

func TestEvaluateAggregates(t *testing.T) {
	m := NewManager("v1")
	assert.Equal(t, StatusHealthy, m.Evaluate(context.Background()).Status)

	m.RegisterChecker(staticChecker{"a", CheckResult{Status: StatusHealthy}})
	m.RegisterChecker(staticChecker{"b", CheckResult{Status: StatusDegraded}})
	resp := m.Evaluate(context.Background())
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.True(t, resp.Ready)

	m.RegisterChecker(staticChecker{"c", CheckResult{Status: StatusUnhealthy}})
	m.RegisterChecker(staticChecker{"d", CheckResult{Status: StatusDegraded}})
	resp = m.Evaluate(context.Background())
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.False(t, resp.Ready)
	assert.Len(t, resp.Checks, 4)
}

func TestServeHealthAlways200(t *testing.T) {
	m := NewManager("v1")
	m.RegisterChecker(staticChecker{"broken", CheckResult{Status: StatusUnhealthy}})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Empty(t, resp.Checks)

	rec = httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, StatusUnhealthy, resp.Status)
	assert.Contains(t, resp.Checks, "broken")
}

func TestServeReady(t *testing.T) {
	m := NewManager("v1")
	rec := httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	m.RegisterChecker(staticChecker{"last_round", CheckResult{Status: StatusUnhealthy}})
	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestFileChecker(t *testing.T) {
	dir := t.TempDir()
	full := filepath.Join(dir, "onvif.yaml")
	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(full, []byte("auth: digest\n"), 0o600))
	require.NoError(t, os.WriteFile(empty, nil, 0o600))

	ctx := context.Background()
	assert.Equal(t, StatusHealthy, NewFileChecker("p", "").Check(ctx).Status)
	assert.Equal(t, StatusHealthy, NewFileChecker("p", full).Check(ctx).Status)
	assert.Equal(t, StatusDegraded, NewFileChecker("p", empty).Check(ctx).Status)
	assert.Equal(t, StatusUnhealthy, NewFileChecker("p", dir).Check(ctx).Status)
	assert.Equal(t, "file not found", NewFileChecker("p", filepath.Join(dir, "nope")).Check(ctx).Error)
}

func TestBinaryChecker(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "ffprobe")
	plain := filepath.Join(dir, "notes")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.WriteFile(plain, []byte("x"), 0o644))

	ctx := context.Background()
	assert.Equal(t, StatusHealthy, NewBinaryChecker("ffprobe", exe).Check(ctx).Status)
	assert.Equal(t, "not executable", NewBinaryChecker("ffprobe", plain).Check(ctx).Error)
	assert.Equal(t, StatusUnhealthy, NewBinaryChecker("ffprobe", dir).Check(ctx).Status)
	assert.Equal(t, StatusUnhealthy, NewBinaryChecker("ffprobe", "").Check(ctx).Status)
	assert.Equal(t, StatusUnhealthy, NewBinaryChecker("ffprobe", "camprobe-no-such-binary").Check(ctx).Status)
}

func TestRoundChecker(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	var last time.Time
	c := NewRoundChecker(func() time.Time { return last }, time.Minute)
	c.now = func() time.Time { return now }

	assert.Equal(t, StatusUnhealthy, c.Check(context.Background()).Status)

	last = now.Add(-90 * time.Second)
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)

	last = now.Add(-4 * time.Minute)
	res := c.Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Contains(t, res.Message, "limit 3m0s")
}

func TestPerformStartupChecks(t *testing.T) {
	cfg := config.Config{FFprobePath: filepath.Join(t.TempDir(), "missing")}
	require.NoError(t, PerformStartupChecks(context.Background(), cfg), "missing ffprobe only warns")

	bad := filepath.Join(t.TempDir(), "onvif.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("nonsense: true\n"), 0o600))
	cfg.ProtocolConfig = bad
	assert.Error(t, PerformStartupChecks(context.Background(), cfg))
}
