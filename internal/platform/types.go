// Package platform identifies the machine unapt runs on and resolves where
// packages are installed.
//
// Detection covers OS, architecture, the Linux distribution (via gopsutil)
// and the Termux terminal environment on Android. ResolveLayout turns that
// information into the binary directory and state paths, failing with
// ErrUnsupportedPlatform everywhere else. The detected information is also
// exposed read-only to Lua configuration files as the global "platform"
// table.
package platform

import "context"

// Linux distribution family constants.
const (
	FamilyDebian  = "debian"  // Debian, Ubuntu, Linux Mint
	FamilyRHEL    = "rhel"    // RHEL, CentOS, Rocky Linux, AlmaLinux
	FamilyFedora  = "fedora"  // Fedora
	FamilySUSE    = "suse"    // openSUSE, SLES
	FamilyArch    = "arch"    // Arch Linux, Manjaro
	FamilyAlpine  = "alpine"  // Alpine Linux
	FamilyGentoo  = "gentoo"  // Gentoo
	FamilyUnknown = "unknown" // Unrecognized distributions
)

// Info contains platform detection information.
type Info struct {
	OS       string // "linux", "android", "darwin", ...
	Arch     string // normalized: "amd64", "arm64", "arm", "386", ...
	ArchRaw  string // original GOARCH
	Platform string // distro ID (Linux only, e.g. "ubuntu")
	Family   string // canonical family (e.g. "debian")
	Version  string // distro version (e.g. "22.04")
	Termux   bool   // running inside a Termux session
}

// Distro contains Linux distribution information.
type Distro struct {
	ID      string
	Family  string
	Version string
}

// GetDistro returns distro information, or nil when unknown or not Linux.
func (i *Info) GetDistro() *Distro {
	if !i.IsLinux() || i.Platform == "" {
		return nil
	}
	return &Distro{
		ID:      i.Platform,
		Family:  i.Family,
		Version: i.Version,
	}
}

// IsLinux reports whether the kernel is Linux. Android counts, since its
// GOOS implies the linux build tag.
func (i *Info) IsLinux() bool {
	return i.OS == "linux" || i.OS == "android"
}

// IsAndroid reports whether the binary was built for Android.
func (i *Info) IsAndroid() bool {
	return i.OS == "android"
}

// IsTermux reports whether a Termux session was detected on a Linux kernel.
func (i *Info) IsTermux() bool {
	return i.Termux && i.IsLinux()
}

// Detector is the interface for platform detection.
type Detector interface {
	Detect(ctx context.Context) (*Info, error)
}
