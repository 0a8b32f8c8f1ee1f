package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acasati/dockship/internal/fingerprint"
	"github.com/acasati/dockship/internal/project"
)

func testProject(t *testing.T) project.Descriptor {
	t.Helper()
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "Api.csproj")
	require.NoError(t, os.WriteFile(projectPath, []byte("<Project Sdk=\"Microsoft.NET.Sdk.Web\"/>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Program.cs"), []byte("var app;"), 0644))
	return project.Descriptor{
		ProjectPath:     projectPath,
		AssemblyName:    "Api",
		TargetFramework: "net8.0",
		WebApp:          true,
	}
}

func skipWithoutPosixTools(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("test drives the pipeline with POSIX stand-in tools")
	}
}

func TestExecuteValidatesRequiredInputs(t *testing.T) {
	runner := NewRunner(zerolog.Nop())

	_, err := runner.Execute(context.Background(), Options{})
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr), "missing project path must be a validation error")

	_, err = runner.Execute(context.Background(), Options{
		Project: project.Descriptor{ProjectPath: "/x/App.csproj", TargetFramework: "net8.0"},
	})
	require.True(t, errors.As(err, &vErr), "missing assembly name must be a validation error")
}

func TestGenerateEnabled(t *testing.T) {
	dockerfilePath := filepath.Join(t.TempDir(), "Dockerfile")

	tests := []struct {
		name string
		st   State
		want bool
	}{
		{
			name: "generation disabled",
			st:   State{Opts: Options{Generate: false}},
			want: false,
		},
		{
			name: "caching disabled",
			st:   State{Opts: Options{Generate: true, UseCache: false}},
			want: true,
		},
		{
			name: "fingerprint changed",
			st: State{
				Opts:        Options{Generate: true, UseCache: true, DockerfilePath: dockerfilePath},
				Fingerprint: &fingerprint.Result{Changed: true},
			},
			want: true,
		},
		{
			name: "unchanged but no prior artifact",
			st: State{
				Opts:        Options{Generate: true, UseCache: true, DockerfilePath: dockerfilePath},
				Fingerprint: &fingerprint.Result{Changed: false},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, generateEnabled(&tt.st))
		})
	}

	t.Run("unchanged with prior artifact", func(t *testing.T) {
		require.NoError(t, os.WriteFile(dockerfilePath, []byte("FROM scratch"), 0644))
		st := State{
			Opts:        Options{Generate: true, UseCache: true, DockerfilePath: dockerfilePath},
			Fingerprint: &fingerprint.Result{Changed: false},
		}
		assert.False(t, generateEnabled(&st))
	})
}

func TestValidateArtifactFatalWhenMissing(t *testing.T) {
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())

	result, err := runner.Execute(context.Background(), Options{
		Project:  desc,
		Generate: false,
		Build:    true,
		Tool:     "true",
	})
	require.Error(t, err)

	var nfErr *NotFoundError
	require.True(t, errors.As(err, &nfErr))

	status, ok := result.Status(StageValidate)
	require.True(t, ok)
	assert.Equal(t, OutcomeFailed, status.Outcome)

	// The build must never have been attempted.
	_, ok = result.Status(StageBuild)
	assert.False(t, ok)
}

func TestExecuteGenerateOnly(t *testing.T) {
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())

	result, err := runner.Execute(context.Background(), Options{
		Project:        desc,
		Generate:       true,
		EmitIgnoreFile: true,
	})
	require.NoError(t, err)
	require.False(t, result.Failed())

	projectDir := filepath.Dir(desc.ProjectPath)
	assert.FileExists(t, filepath.Join(projectDir, "Dockerfile"))
	assert.FileExists(t, filepath.Join(projectDir, ".dockerignore"))

	status, _ := result.Status(StageBuild)
	assert.Equal(t, OutcomeSkipped, status.Outcome)
}

func TestExecuteSecondRunSkipsGenerate(t *testing.T) {
	// Running twice with no input changes performs resolve and fingerprint
	// on the second run, skips generate, and still builds.
	skipWithoutPosixTools(t)
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())
	opts := Options{
		Project:        desc,
		UseCache:       true,
		Generate:       true,
		EmitIgnoreFile: true,
		Build:          true,
		Tool:           "true",
	}

	first, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)
	status, _ := first.Status(StageGenerate)
	assert.Equal(t, OutcomeRan, status.Outcome)

	second, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)

	status, _ = second.Status(StageResolve)
	assert.Equal(t, OutcomeRan, status.Outcome)
	status, _ = second.Status(StageFingerprint)
	assert.Equal(t, OutcomeRan, status.Outcome)
	status, _ = second.Status(StageGenerate)
	assert.Equal(t, OutcomeSkipped, status.Outcome, "unchanged fingerprint must suppress generation")
	status, _ = second.Status(StageBuild)
	assert.Equal(t, OutcomeRan, status.Outcome, "unchanged fingerprint must not suppress an explicitly enabled build")
}

func TestExecuteSourceChangeRetriggersGenerate(t *testing.T) {
	skipWithoutPosixTools(t)
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())
	opts := Options{
		Project:  desc,
		UseCache: true,
		Generate: true,
		Tool:     "true",
	}

	_, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(
		filepath.Join(filepath.Dir(desc.ProjectPath), "Program.cs"),
		[]byte("var app = builder.Build();"), 0644))

	second, err := runner.Execute(context.Background(), opts)
	require.NoError(t, err)
	status, _ := second.Status(StageGenerate)
	assert.Equal(t, OutcomeRan, status.Outcome)
}

func writeHookScript(t *testing.T, exitCode string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hook.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit "+exitCode+"\n"), 0755))
	return path
}

func TestScriptFailureAborts(t *testing.T) {
	skipWithoutPosixTools(t)
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())

	result, err := runner.Execute(context.Background(), Options{
		Project:   desc,
		Generate:  true,
		Build:     true,
		Tool:      "true",
		PreScript: writeHookScript(t, "1"),
	})
	require.Error(t, err)

	var toolErr *ExternalToolError
	require.True(t, errors.As(err, &toolErr))

	_, ok := result.Status(StageBuild)
	assert.False(t, ok, "build must not run after a fatal pre-script failure")
}

func TestScriptContinueOnError(t *testing.T) {
	skipWithoutPosixTools(t)
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())

	result, err := runner.Execute(context.Background(), Options{
		Project:               desc,
		Generate:              true,
		Build:                 true,
		Tool:                  "true",
		PreScript:             writeHookScript(t, "1"),
		ContinueOnScriptError: true,
	})
	require.NoError(t, err)

	status, _ := result.Status(StagePreScript)
	assert.Equal(t, OutcomeFailed, status.Outcome)
	status, _ = result.Status(StageBuild)
	assert.Equal(t, OutcomeRan, status.Outcome)
}

func TestBuildToolFailureIsExternalToolError(t *testing.T) {
	skipWithoutPosixTools(t)
	desc := testProject(t)
	runner := NewRunner(zerolog.Nop())

	_, err := runner.Execute(context.Background(), Options{
		Project:  desc,
		Generate: true,
		Build:    true,
		Tool:     "false",
	})
	require.Error(t, err)

	var toolErr *ExternalToolError
	assert.True(t, errors.As(err, &toolErr))
}

func TestApplyDefaults(t *testing.T) {
	opts := Options{
		Project: project.Descriptor{
			ProjectPath:     "/src/Api/Api.csproj",
			AssemblyName:    "Api",
			TargetFramework: "net8.0",
		},
	}
	applyDefaults(&opts)

	assert.Equal(t, "Release", opts.Project.Configuration)
	assert.Equal(t, filepath.Join("/src/Api", "obj", "dockship", "fingerprint.txt"), opts.RecordPath)
	assert.Equal(t, filepath.Join("/src/Api", "Dockerfile"), opts.DockerfilePath)
	assert.Equal(t, "/src/Api", opts.ContextDir)
	assert.Equal(t, "docker", opts.Tool)
	assert.Equal(t, "api:latest", opts.ImageTag)
}
