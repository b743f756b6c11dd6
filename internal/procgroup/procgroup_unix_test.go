// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package procgroup

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRecorder struct {
	mu    sync.Mutex
	steps []string
}

func (r *recordingRecorder) ObserveTermination(signal, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.steps = append(r.steps, signal+":"+result)
}

func startGroup(t *testing.T, script string) (*exec.Cmd, chan error) {
	t.Helper()
	cmd := exec.Command("sh", "-c", script)
	Set(cmd)
	require.NoError(t, cmd.Start())

	waitCh := make(chan error, 1)
	go func() { waitCh <- cmd.Wait() }()

	// let the shell fork its children
	time.Sleep(50 * time.Millisecond)
	return cmd, waitCh
}

func TestTerminateKillsWholeGroup(t *testing.T) {
	cmd, waitCh := startGroup(t, "sleep 30 & sleep 30")
	pgid := cmd.Process.Pid

	rec := &recordingRecorder{}
	err := Terminate(cmd, waitCh, 200*time.Millisecond, rec)
	require.Error(t, err, "terminated process should report a signal exit")

	time.Sleep(50 * time.Millisecond)
	assert.ErrorIs(t, syscall.Kill(-pgid, syscall.Signal(0)), syscall.ESRCH, "process group should be gone")
	assert.Contains(t, rec.steps, "SIGTERM:sent")
}

func TestTerminateEscalatesToSIGKILL(t *testing.T) {
	cmd, waitCh := startGroup(t, "trap '' TERM; sleep 30")

	rec := &recordingRecorder{}
	err := Terminate(cmd, waitCh, 100*time.Millisecond, rec)
	require.Error(t, err)
	assert.Equal(t, []string{"SIGTERM:sent", "SIGKILL:sent"}, rec.steps)
}

func TestTerminateNotStarted(t *testing.T) {
	err := Terminate(exec.Command("true"), nil, time.Millisecond, nil)
	assert.ErrorIs(t, err, ErrNotStarted)
}

func TestKillAlreadyExited(t *testing.T) {
	cmd := exec.Command("true")
	Set(cmd)
	require.NoError(t, cmd.Run())
	assert.NoError(t, Kill(cmd, syscall.SIGKILL))
}

// gone reports whether pid has exited. Orphans may linger as zombies until
// their new parent reaps them.
func gone(pid int) bool {
	if err := syscall.Kill(pid, 0); err != nil {
		return true
	}
	stat, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/stat")
	return err == nil && strings.Contains(string(stat), ") Z ")
}

func TestKillReachesChildrenAfterLeaderReaped(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "child.pid")
	cmd := exec.Command("sh", "-c", "sleep 30 & echo $! > "+pidFile)
	Set(cmd)
	require.NoError(t, cmd.Run())

	raw, err := os.ReadFile(pidFile)
	require.NoError(t, err)
	child, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	require.NoError(t, err)
	require.False(t, gone(child), "child should outlive the leader")

	require.NoError(t, Kill(cmd, syscall.SIGKILL))
	assert.Eventually(t, func() bool { return gone(child) }, 2*time.Second, 20*time.Millisecond)
}
