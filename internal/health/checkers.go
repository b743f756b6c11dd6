// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// FileChecker checks if a file exists and is readable
type FileChecker struct {
	name string
	path string
}

// NewFileChecker creates a checker for file existence. An empty path is
// reported healthy as "not configured".
func NewFileChecker(name, path string) *FileChecker {
	return &FileChecker{name: name, path: path}
}

func (c *FileChecker) Name() string {
	return c.name
}

func (c *FileChecker) Check(ctx context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured (optional)"}
	}

	info, err := os.Stat(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return CheckResult{Status: StatusUnhealthy, Error: "file not found", Message: c.path}
		}
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected file, got directory"}
	}
	if info.Size() == 0 {
		return CheckResult{Status: StatusDegraded, Message: "file is empty"}
	}
	return CheckResult{Status: StatusHealthy, Message: "file exists and readable"}
}

// BinaryChecker checks that the probe executable is present and executable.
type BinaryChecker struct {
	name string
	path string
}

func NewBinaryChecker(name, path string) *BinaryChecker {
	return &BinaryChecker{name: name, path: path}
}

func (c *BinaryChecker) Name() string {
	return c.name
}

func (c *BinaryChecker) Check(ctx context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusUnhealthy, Error: "binary path not configured"}
	}
	path := c.path
	if !strings.ContainsRune(path, filepath.Separator) {
		resolved, err := exec.LookPath(path)
		if err != nil {
			return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: path}
		}
		path = resolved
	}
	info, err := os.Stat(path)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: path}
	}
	if info.IsDir() {
		return CheckResult{Status: StatusUnhealthy, Error: "expected executable, got directory", Message: path}
	}
	if info.Mode().Perm()&0o111 == 0 {
		return CheckResult{Status: StatusUnhealthy, Error: "not executable", Message: path}
	}
	return CheckResult{Status: StatusHealthy, Message: path}
}

// RoundChecker reports how fresh the last completed check round is.
// Before the first round it is unhealthy; a round older than
// staleFactor intervals is degraded.
type RoundChecker struct {
	lastCompleted func() time.Time
	interval      time.Duration
	staleFactor   int
	now           func() time.Time
}

// NewRoundChecker creates a checker over the orchestrator's last completion time.
func NewRoundChecker(lastCompleted func() time.Time, interval time.Duration) *RoundChecker {
	return &RoundChecker{
		lastCompleted: lastCompleted,
		interval:      interval,
		staleFactor:   3,
		now:           time.Now,
	}
}

func (c *RoundChecker) Name() string {
	return "last_round"
}

func (c *RoundChecker) Check(ctx context.Context) CheckResult {
	last := c.lastCompleted()
	if last.IsZero() {
		return CheckResult{Status: StatusUnhealthy, Message: "no check round completed yet"}
	}

	age := c.now().Sub(last).Round(time.Second)
	if limit := time.Duration(c.staleFactor) * c.interval; age > limit {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("last round completed %s ago (limit %s)", age, limit),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: fmt.Sprintf("last round completed %s ago", age)}
}
