package resolver

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/acasati/dockship/internal/project"
)

const (
	aspnetImage      = "mcr.microsoft.com/dotnet/aspnet"
	runtimeImage     = "mcr.microsoft.com/dotnet/runtime"
	runtimeDepsImage = "mcr.microsoft.com/dotnet/runtime-deps"
	sdkImage         = "mcr.microsoft.com/dotnet/sdk"

	defaultWorkingDir = "/app"
)

// Package name prefixes that mark a project as web or worker when the
// caller did not classify it explicitly.
const (
	aspnetPackagePrefix  = "Microsoft.AspNetCore"
	hostingPackagePrefix = "Microsoft.Extensions.Hosting"
)

// Resolver derives container image configuration from a project descriptor.
type Resolver struct {
	log zerolog.Logger
}

// New creates a new resolver.
func New(log zerolog.Logger) *Resolver {
	return &Resolver{log: log}
}

// Resolve classifies the project and picks base/SDK images, entrypoint,
// working directory and default ports for it.
func (r *Resolver) Resolve(desc project.Descriptor) (*Images, error) {
	if desc.ProjectPath == "" {
		return nil, fmt.Errorf("project path is required")
	}
	if desc.AssemblyName == "" {
		return nil, fmt.Errorf("assembly name is required")
	}

	version := project.FrameworkVersion(desc.TargetFramework)
	if version == "" {
		return nil, fmt.Errorf("unsupported target framework: %q", desc.TargetFramework)
	}

	kind := Classify(desc)

	images := &Images{
		ProjectType: kind,
		SDKImage:    fmt.Sprintf("%s:%s", sdkImage, version),
		WorkingDir:  defaultWorkingDir,
	}

	switch kind {
	case ProjectWeb:
		images.BaseImage = fmt.Sprintf("%s:%s", aspnetImage, version)
		images.EntryCommand = []string{"dotnet", desc.AssemblyName + ".dll"}
		images.Ports = webPorts(desc)
	case ProjectWorker:
		images.BaseImage = fmt.Sprintf("%s:%s", runtimeImage, version)
		images.EntryCommand = []string{"dotnet", desc.AssemblyName + ".dll"}
		images.Ports = desc.ExposedPorts
	case ProjectConsole:
		images.BaseImage = fmt.Sprintf("%s:%s", runtimeImage, version)
		images.EntryCommand = []string{"dotnet", desc.AssemblyName + ".dll"}
		images.Ports = desc.ExposedPorts
	case ProjectLibrary:
		images.BaseImage = fmt.Sprintf("%s:%s", runtimeDepsImage, version)
		images.EntryCommand = nil
		images.Ports = nil
	default:
		return nil, fmt.Errorf("unhandled project type: %v", kind)
	}

	r.log.Debug().
		Str("projectType", kind.String()).
		Str("baseImage", images.BaseImage).
		Str("sdkImage", images.SDKImage).
		Ints("ports", images.Ports).
		Msg("Resolved container images")

	return images, nil
}

// Classify determines the project type from the descriptor. The explicit
// web-application flag wins; otherwise package references decide, and the
// output kind is the fallback.
func Classify(desc project.Descriptor) ProjectType {
	if desc.WebApp || hasPackagePrefix(desc.PackageReferences, aspnetPackagePrefix) {
		return ProjectWeb
	}
	if hasPackagePrefix(desc.PackageReferences, hostingPackagePrefix) {
		return ProjectWorker
	}
	if desc.OutputKind == project.OutputExe {
		return ProjectConsole
	}
	return ProjectLibrary
}

// webPorts returns the ports a web project exposes. Callers may override;
// otherwise .NET 8+ images listen on 8080 and older ones on 80.
func webPorts(desc project.Descriptor) []int {
	if len(desc.ExposedPorts) > 0 {
		return desc.ExposedPorts
	}
	if project.FrameworkMajor(desc.TargetFramework) >= 8 {
		return []int{8080}
	}
	return []int{80}
}

func hasPackagePrefix(refs []string, prefix string) bool {
	for _, ref := range refs {
		if strings.HasPrefix(ref, prefix) {
			return true
		}
	}
	return false
}
