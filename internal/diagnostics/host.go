package diagnostics

import (
	"context"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostInfo holds host resource usage. Every field is best-effort; zero means
// the value could not be read.
type HostInfo struct {
	OS       string `json:"os" yaml:"os"`
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`
	Arch     string `json:"arch" yaml:"arch"`

	CPUModel   string  `json:"cpu_model,omitempty" yaml:"cpu_model,omitempty"`
	CPUCores   int     `json:"cpu_cores" yaml:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads" yaml:"cpu_threads"`
	CPUPercent float64 `json:"cpu_percent" yaml:"cpu_percent"`

	// Memory in MB
	MemTotalMB     float64 `json:"mem_total_mb" yaml:"mem_total_mb"`
	MemAvailableMB float64 `json:"mem_available_mb" yaml:"mem_available_mb"`
	MemPercent     float64 `json:"mem_percent" yaml:"mem_percent"`

	// Disk holding the working directory, in GB
	DiskTotalGB float64 `json:"disk_total_gb" yaml:"disk_total_gb"`
	DiskFreeGB  float64 `json:"disk_free_gb" yaml:"disk_free_gb"`
	DiskPercent float64 `json:"disk_percent" yaml:"disk_percent"`

	LoadAvg1 float64 `json:"load_avg_1,omitempty" yaml:"load_avg_1,omitempty"`
}

// cpuSample is how long CPU usage is measured for.
const cpuSample = 200 * time.Millisecond

// CollectHost reads host statistics. dir selects the filesystem for the disk
// figures; empty means the current directory.
func CollectHost(ctx context.Context, dir string) HostInfo {
	info := HostInfo{OS: runtime.GOOS, Arch: runtime.GOARCH}

	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Platform = strings.TrimSpace(h.Platform + " " + h.PlatformVersion)
	}

	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		info.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if n, err := cpu.CountsWithContext(ctx, false); err == nil {
		info.CPUCores = n
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUThreads = n
	}
	if pct, err := cpu.PercentWithContext(ctx, cpuSample, false); err == nil && len(pct) > 0 {
		info.CPUPercent = pct[0]
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemTotalMB = float64(vm.Total) / 1024 / 1024
		info.MemAvailableMB = float64(vm.Available) / 1024 / 1024
		info.MemPercent = vm.UsedPercent
	}

	if dir == "" {
		if wd, err := os.Getwd(); err == nil {
			dir = wd
		}
	}
	if usage, err := disk.UsageWithContext(ctx, dir); err == nil {
		info.DiskTotalGB = float64(usage.Total) / 1024 / 1024 / 1024
		info.DiskFreeGB = float64(usage.Free) / 1024 / 1024 / 1024
		info.DiskPercent = usage.UsedPercent
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.LoadAvg1 = avg.Load1
	}

	return info
}
