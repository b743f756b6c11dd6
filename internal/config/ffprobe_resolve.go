package config

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultFFprobeBin is used when nothing else resolves.
const DefaultFFprobeBin = "ffprobe"

// ResolveFFprobeBin returns an effective ffprobe binary path based on configured values.
//
// Resolution order:
// 1) Explicit ffprobeBin (ffprobe_path / CAMPROBE_FFPROBE_BIN)
// 2) Derive from ffmpegBin (.../ffmpeg -> .../ffprobe) if the derived binary exists
// 3) ffprobe found on PATH
// 4) DefaultFFprobeBin; the probe then fails per endpoint and readiness reports it
func ResolveFFprobeBin(ffprobeBin, ffmpegBin string) string {
	return resolveFFprobeBin(ffprobeBin, ffmpegBin, os.Stat, exec.LookPath)
}

func resolveFFprobeBin(ffprobeBin, ffmpegBin string, stat func(string) (os.FileInfo, error), lookPath func(string) (string, error)) string {
	if ffprobeBin = strings.TrimSpace(ffprobeBin); ffprobeBin != "" {
		return ffprobeBin
	}
	if derived := deriveFromFFmpeg(strings.TrimSpace(ffmpegBin), stat); derived != "" {
		return derived
	}
	if p, err := lookPath(DefaultFFprobeBin); err == nil {
		return p
	}
	return DefaultFFprobeBin
}

func deriveFromFFmpeg(ffmpegBin string, stat func(string) (os.FileInfo, error)) string {
	// Only derive from a concrete path; a bare "ffmpeg" is left to PATH lookup.
	if ffmpegBin == "" || !strings.ContainsRune(ffmpegBin, filepath.Separator) {
		return ""
	}
	base := filepath.Base(ffmpegBin)
	if base != "ffmpeg" && base != "ffmpeg.exe" {
		return ""
	}
	candidate := filepath.Join(filepath.Dir(ffmpegBin), strings.Replace(base, "ffmpeg", "ffprobe", 1))
	if fi, err := stat(candidate); err == nil && fi != nil && !fi.IsDir() {
		return candidate
	}
	return ""
}
