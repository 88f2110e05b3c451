package cmd

import (
	"os"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

// minFreeDiskBytes is the threshold below which we warn before writing
// outputs. 256 MB is far more than any single JPEG, but running a large
// batch into a nearly full volume fails halfway through.
const minFreeDiskBytes = 256 * 1024 * 1024

// preflight records host capacity and warns when the output volume is low on
// space. It never blocks a run; the walker reports real write failures
// per file.
func preflight(logger *zap.Logger, outputDir string) {
	if counts, err := cpu.Counts(true); err == nil {
		logger.Debug("host cpu", zap.Int("logical_cores", counts))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		logger.Debug("host memory",
			zap.Uint64("available_mb", vm.Available/1024/1024),
			zap.Float64("used_percent", vm.UsedPercent))
	}

	// The output dir may not exist yet; measure its parent in that case.
	target := outputDir
	if _, err := os.Stat(target); err != nil {
		target = filepath.Dir(target)
	}
	usage, err := disk.Usage(target)
	if err != nil {
		logger.Debug("disk usage unavailable", zap.String("path", target), zap.Error(err))
		return
	}
	logger.Debug("output volume",
		zap.String("path", target),
		zap.Uint64("free_mb", usage.Free/1024/1024),
		zap.Float64("used_percent", usage.UsedPercent))
	if usage.Free < minFreeDiskBytes {
		logger.Warn("low disk space on output volume",
			zap.String("path", target),
			zap.Uint64("free_mb", usage.Free/1024/1024))
	}
}
