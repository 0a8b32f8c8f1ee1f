package dockerfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acasati/dockship/internal/project"
	"github.com/acasati/dockship/internal/resolver"
)

func webDescriptor() project.Descriptor {
	return project.Descriptor{
		ProjectPath:     "/src/MyApp/MyApp.csproj",
		AssemblyName:    "MyApp",
		TargetFramework: "net8.0",
		Configuration:   "Release",
		OutputKind:      project.OutputExe,
		WebApp:          true,
	}
}

func render(t *testing.T, desc project.Descriptor, opts Options) string {
	t.Helper()
	images, err := resolver.New(zerolog.Nop()).Resolve(desc)
	require.NoError(t, err)
	content, err := NewGenerator(zerolog.Nop()).Render(desc, images, opts)
	require.NoError(t, err)
	return content
}

func TestRenderRestorePrecedesFullCopy(t *testing.T) {
	content := render(t, webDescriptor(), Options{})

	restore := strings.Index(content, "RUN dotnet restore")
	manifestCopy := strings.Index(content, `COPY ["MyApp.csproj"`)
	fullCopy := strings.Index(content, "COPY . .")

	require.Greater(t, manifestCopy, -1, "manifest copy instruction missing")
	require.Greater(t, restore, -1, "restore instruction missing")
	require.Greater(t, fullCopy, -1, "full source copy instruction missing")

	assert.Less(t, manifestCopy, restore, "manifest copy must precede restore")
	assert.Less(t, restore, fullCopy, "restore must precede the full source copy")
}

func TestRenderUsesResolvedProjectType(t *testing.T) {
	// The web-specific ASPNETCORE ports follow the classification the
	// Resolve stage already produced, not a re-derivation from the
	// descriptor — callers may supply images with their own classification.
	desc := webDescriptor()
	desc.WebApp = false

	images := &resolver.Images{
		ProjectType:  resolver.ProjectWeb,
		BaseImage:    "mcr.microsoft.com/dotnet/aspnet:8.0",
		SDKImage:     "mcr.microsoft.com/dotnet/sdk:8.0",
		EntryCommand: []string{"dotnet", "MyApp.dll"},
		WorkingDir:   "/app",
		Ports:        []int{8080},
	}

	content, err := NewGenerator(zerolog.Nop()).Render(desc, images, Options{})
	require.NoError(t, err)

	assert.Contains(t, content, "ENV ASPNETCORE_HTTP_PORTS=8080\n")
	assert.Contains(t, content, "ENV ASPNETCORE_HTTPS_PORTS=8443\n")
}

func TestRenderWebPortsAndAspNetEnv(t *testing.T) {
	// Scenario C: web project, framework major 8, ports 8080 and 8081.
	desc := webDescriptor()
	desc.ExposedPorts = []int{8080, 8081}

	content := render(t, desc, Options{})

	assert.Contains(t, content, "EXPOSE 8080\n")
	assert.Contains(t, content, "EXPOSE 8081\n")
	assert.Less(t, strings.Index(content, "EXPOSE 8080"), strings.Index(content, "EXPOSE 8081"),
		"ports must be declared in supplied order")
	assert.Contains(t, content, "ENV ASPNETCORE_HTTP_PORTS=")
	assert.Contains(t, content, "ENV ASPNETCORE_HTTPS_PORTS=")
}

func TestRenderNoAspNetEnvBeforeNet8(t *testing.T) {
	desc := webDescriptor()
	desc.TargetFramework = "net7.0"

	content := render(t, desc, Options{})
	assert.NotContains(t, content, "ASPNETCORE_HTTP_PORTS")
}

func TestRenderEnvironmentEntries(t *testing.T) {
	desc := webDescriptor()
	desc.EnvironmentVariables = []string{
		"APP_MODE=production",
		"CONN=Server=db;Port=5432",
		"MALFORMED",
		"=emptykey",
	}

	content := render(t, desc, Options{})

	assert.Contains(t, content, "ENV APP_MODE=production\n")
	// Only the first '=' splits the entry.
	assert.Contains(t, content, "ENV CONN=Server=db;Port=5432\n")
	assert.NotContains(t, content, "MALFORMED")
	assert.NotContains(t, content, "emptykey")
}

func TestRenderEntrypointAndImages(t *testing.T) {
	content := render(t, webDescriptor(), Options{})

	assert.Contains(t, content, "FROM mcr.microsoft.com/dotnet/sdk:8.0 AS build")
	assert.Contains(t, content, "FROM mcr.microsoft.com/dotnet/aspnet:8.0 AS final")
	assert.Contains(t, content, `ENTRYPOINT ["dotnet", "MyApp.dll"]`)
	assert.Contains(t, content, "WORKDIR /app")
}

func TestRenderRevisionLabel(t *testing.T) {
	content := render(t, webDescriptor(), Options{Revision: "abc123"})

	assert.Contains(t, content, "# Source revision: abc123")
	assert.Contains(t, content, `LABEL org.opencontainers.image.revision="abc123"`)
}

func TestRenderDeterministic(t *testing.T) {
	// No wall-clock data participates: two renders are byte-identical.
	desc := webDescriptor()
	assert.Equal(t, render(t, desc, Options{}), render(t, desc, Options{}))
}

func TestRenderToFileCreatesDirectories(t *testing.T) {
	desc := webDescriptor()
	images, err := resolver.New(zerolog.Nop()).Resolve(desc)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "Dockerfile")
	require.NoError(t, NewGenerator(zerolog.Nop()).RenderToFile(desc, images, Options{}, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "FROM")
}

func TestWriteIgnoreFile(t *testing.T) {
	dir := t.TempDir()
	dockerfilePath := filepath.Join(dir, "Dockerfile")

	require.NoError(t, WriteIgnoreFile(dockerfilePath))

	data, err := os.ReadFile(filepath.Join(dir, ".dockerignore"))
	require.NoError(t, err)

	content := string(data)
	for _, glob := range []string{"**/bin/", "**/obj/", ".git/", ".idea/", "**/TestResults/"} {
		assert.Contains(t, content, glob)
	}
}
