package project

import (
	"strconv"
	"strings"
)

// OutputKind is the kind of binary the project produces.
type OutputKind string

const (
	OutputExe     OutputKind = "exe"
	OutputLibrary OutputKind = "library"
)

// Descriptor is the immutable project description supplied by the caller.
// It is created once per invocation and never mutated by the pipeline.
type Descriptor struct {
	// ProjectPath is the path to the project file (.csproj/.fsproj).
	ProjectPath string

	// AssemblyName is the name of the produced assembly, without extension.
	AssemblyName string

	// TargetFramework is the target framework moniker, e.g. "net8.0".
	TargetFramework string

	// Configuration is the build configuration, e.g. "Release".
	Configuration string

	// OutputKind distinguishes executables from libraries.
	OutputKind OutputKind

	// WebApp marks the project as a web application.
	WebApp bool

	// PackageReferences lists declared package names, in declaration order.
	PackageReferences []string

	// EnvironmentVariables holds "KEY=VALUE" entries for the runtime image.
	EnvironmentVariables []string

	// ExposedPorts lists container ports to expose, in caller order.
	ExposedPorts []int
}

// FrameworkMajor extracts the major version from a target framework moniker.
// "net8.0" yields 8, "netcoreapp3.1" yields 3. Returns 0 when the moniker
// carries no parseable version.
func FrameworkMajor(tfm string) int {
	s := strings.ToLower(strings.TrimSpace(tfm))
	s = strings.TrimPrefix(s, "netcoreapp")
	s = strings.TrimPrefix(s, "netstandard")
	s = strings.TrimPrefix(s, "net")

	// Strip platform suffixes like "net8.0-windows".
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	major, err := strconv.Atoi(s)
	if err != nil || major <= 0 {
		return 0
	}
	return major
}

// FrameworkVersion returns the "major.minor" version of a moniker, falling
// back to "<major>.0" when no minor version is present. Empty when the
// moniker is unparseable.
func FrameworkVersion(tfm string) string {
	major := FrameworkMajor(tfm)
	if major == 0 {
		return ""
	}
	s := strings.ToLower(strings.TrimSpace(tfm))
	s = strings.TrimPrefix(s, "netcoreapp")
	s = strings.TrimPrefix(s, "netstandard")
	s = strings.TrimPrefix(s, "net")
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		minor, err := strconv.Atoi(s[i+1:])
		if err == nil && minor >= 0 {
			return strconv.Itoa(major) + "." + strconv.Itoa(minor)
		}
	}
	return strconv.Itoa(major) + ".0"
}
