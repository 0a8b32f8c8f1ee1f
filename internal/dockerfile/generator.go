// Package dockerfile renders a resolved project descriptor into a layered,
// cache-friendly Dockerfile and its companion ignore file.
package dockerfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/acasati/dockship/internal/project"
	"github.com/acasati/dockship/internal/resolver"
)

// Options adjusts how the Dockerfile is rendered.
type Options struct {
	// Revision is an optional VCS revision recorded in the header and as
	// an OCI label. It carries no wall-clock data, so rendering stays
	// deterministic for unchanged sources.
	Revision string

	// Labels are extra image labels, emitted in map-sorted order.
	Labels map[string]string
}

// Generator renders Dockerfiles from resolved project descriptors.
type Generator struct {
	log zerolog.Logger
}

// NewGenerator creates a new generator.
func NewGenerator(log zerolog.Logger) *Generator {
	return &Generator{log: log}
}

// Render produces the complete Dockerfile text for the project. The build
// stage copies only the project manifest and restores dependencies before
// the full source tree is copied; that ordering keeps the restore layer
// reusable in the downstream build tool's cache.
func (g *Generator) Render(desc project.Descriptor, images *resolver.Images, opts Options) (string, error) {
	if images == nil {
		return "", fmt.Errorf("resolved images are nil")
	}

	var b strings.Builder

	g.writeHeader(&b, desc, opts)
	g.writeBuildStage(&b, desc, images)
	g.writeRuntimeStage(&b, desc, images, opts)

	return b.String(), nil
}

// RenderToFile renders the Dockerfile and writes it to path, creating parent
// directories as needed.
func (g *Generator) RenderToFile(desc project.Descriptor, images *resolver.Images, opts Options, path string) error {
	content, err := g.Render(desc, images, opts)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("writing dockerfile: %w", err)
	}
	g.log.Info().Str("path", path).Msg("Dockerfile written")
	return nil
}

func (g *Generator) writeHeader(b *strings.Builder, desc project.Descriptor, opts Options) {
	b.WriteString("# syntax=docker/dockerfile:1\n")
	fmt.Fprintf(b, "# Generated by dockship for %s (%s)\n", desc.AssemblyName, desc.TargetFramework)
	if opts.Revision != "" {
		fmt.Fprintf(b, "# Source revision: %s\n", opts.Revision)
	}
	b.WriteByte('\n')
}

func (g *Generator) writeBuildStage(b *strings.Builder, desc project.Descriptor, images *resolver.Images) {
	projectFile := filepath.Base(desc.ProjectPath)

	fmt.Fprintf(b, "FROM %s AS build\n", images.SDKImage)
	b.WriteString("WORKDIR /src\n\n")

	// Manifest copy and restore come first so source edits do not
	// invalidate the restore layer.
	fmt.Fprintf(b, "COPY [%q, \"./\"]\n", projectFile)
	fmt.Fprintf(b, "RUN dotnet restore %q\n\n", projectFile)

	b.WriteString("COPY . .\n")
	fmt.Fprintf(b, "RUN dotnet build %q -c %s -o /app/build\n\n", projectFile, desc.Configuration)

	b.WriteString("FROM build AS publish\n")
	fmt.Fprintf(b, "RUN dotnet publish %q -c %s -o /app/publish /p:UseAppHost=false\n\n", projectFile, desc.Configuration)
}

func (g *Generator) writeRuntimeStage(b *strings.Builder, desc project.Descriptor, images *resolver.Images, opts Options) {
	fmt.Fprintf(b, "FROM %s AS final\n", images.BaseImage)
	fmt.Fprintf(b, "WORKDIR %s\n", images.WorkingDir)
	b.WriteString("COPY --from=publish /app/publish .\n")

	for _, label := range sortedLabels(opts) {
		fmt.Fprintf(b, "LABEL %s=%q\n", label, opts.Labels[label])
	}
	if opts.Revision != "" {
		fmt.Fprintf(b, "LABEL org.opencontainers.image.revision=%q\n", opts.Revision)
	}

	for _, port := range images.Ports {
		fmt.Fprintf(b, "EXPOSE %d\n", port)
	}

	for _, entry := range desc.EnvironmentVariables {
		key, value, ok := splitEnvEntry(entry)
		if !ok {
			g.log.Warn().Str("entry", entry).
				Msg("Skipping malformed environment variable entry")
			continue
		}
		fmt.Fprintf(b, "ENV %s=%s\n", key, value)
	}

	if images.ProjectType == resolver.ProjectWeb && project.FrameworkMajor(desc.TargetFramework) >= 8 {
		b.WriteString("ENV ASPNETCORE_HTTP_PORTS=8080\n")
		b.WriteString("ENV ASPNETCORE_HTTPS_PORTS=8443\n")
	}

	if len(images.EntryCommand) > 0 {
		fmt.Fprintf(b, "ENTRYPOINT [%s]\n", formatEntrypoint(images.EntryCommand))
	}
}

// splitEnvEntry splits "KEY=VALUE" on the first '='. Entries that do not
// split into exactly two non-empty-key parts are malformed.
func splitEnvEntry(entry string) (key, value string, ok bool) {
	key, value, found := strings.Cut(entry, "=")
	if !found || key == "" {
		return "", "", false
	}
	return key, value, true
}

// formatEntrypoint formats an argv as a Dockerfile exec-form list.
func formatEntrypoint(argv []string) string {
	quoted := make([]string, len(argv))
	for i, arg := range argv {
		quoted[i] = fmt.Sprintf("%q", arg)
	}
	return strings.Join(quoted, ", ")
}

func sortedLabels(opts Options) []string {
	if len(opts.Labels) == 0 {
		return nil
	}
	keys := make([]string, 0, len(opts.Labels))
	for k := range opts.Labels {
		keys = append(keys, k)
	}
	// Deterministic output regardless of map iteration order.
	sort.Strings(keys)
	return keys
}
