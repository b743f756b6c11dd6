// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/ManuGH/camprobe/internal/config"
	"github.com/ManuGH/camprobe/internal/log"
	"github.com/ManuGH/camprobe/internal/onvif"
)

// PerformStartupChecks validates the environment before the first round.
// A missing ffprobe is only warned about: every stream is then published as
// Error, which is the observable outcome operators alert on.
func PerformStartupChecks(ctx context.Context, cfg config.Config) error {
	logger := log.WithComponent("startup-check")

	if path, err := exec.LookPath(cfg.FFprobePath); err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "startup.ffprobe_missing").
			Str(log.FieldPath, cfg.FFprobePath).
			Msg("ffprobe not executable; stream probes will fail")
	} else {
		logger.Info().Str(log.FieldPath, path).Msg("ffprobe found")
	}

	if cfg.ProtocolConfig != "" {
		if _, err := onvif.LoadProfile(cfg.ProtocolConfig); err != nil {
			return fmt.Errorf("protocol config check failed: %w", err)
		}
		logger.Info().Str(log.FieldPath, cfg.ProtocolConfig).Msg("protocol config is valid")
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	logger.Info().Int("hosts", len(cfg.Hosts)).Msg("startup checks passed")
	return nil
}
