package platform

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

// Environment variables whose presence marks a Termux session.
var termuxMarkers = []string{"TERMUX_VERSION", "TERMUX"}

// RealDetector implements Detector using the running process.
type RealDetector struct {
	goos      string
	goarch    string
	lookupEnv func(string) (string, bool)
}

// NewDetector creates a detector for the current process.
func NewDetector() Detector {
	return &RealDetector{
		goos:      runtime.GOOS,
		goarch:    runtime.GOARCH,
		lookupEnv: os.LookupEnv,
	}
}

// Detect performs platform detection.
//
// OS and architecture come from the Go runtime. On Linux kernels the
// distribution is read with gopsutil; a failure there leaves the distro
// fields empty, while a cancelled context is a hard failure.
func (d *RealDetector) Detect(ctx context.Context) (*Info, error) {
	info := &Info{
		OS:      d.goos,
		ArchRaw: d.goarch,
		Arch:    normalizeArch(d.goarch),
		Termux:  d.hasTermuxMarker(),
	}

	if !info.IsLinux() {
		return info, nil
	}

	platform, family, version, err := host.PlatformInformationWithContext(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("platform detection cancelled: %w", ctx.Err())
		}
		return info, nil
	}

	platform = normalizePlatform(platform)
	if platform != "" {
		info.Platform = platform
		info.Family = mapFamily(family)
		info.Version = normalizePlatform(version)
	}

	return info, nil
}

func (d *RealDetector) hasTermuxMarker() bool {
	for _, key := range termuxMarkers {
		if _, ok := d.lookupEnv(key); ok {
			return true
		}
	}
	return false
}

// StaticDetector returns a fixed Info. It lets callers (and tests) pin the
// platform instead of probing the host.
type StaticDetector struct {
	Info *Info
	Err  error
}

// Detect returns a copy of the configured Info.
func (s StaticDetector) Detect(ctx context.Context) (*Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if s.Info == nil {
		return nil, fmt.Errorf("static detector has no platform info")
	}
	info := *s.Info
	return &info, nil
}
