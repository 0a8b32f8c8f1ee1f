package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/acasati/dockship/internal/dockerfile"
	"github.com/acasati/dockship/internal/executor"
	"github.com/acasati/dockship/internal/fingerprint"
	"github.com/acasati/dockship/internal/resolver"
	"github.com/acasati/dockship/internal/vcs"
)

// Stage names of the fixed sequence.
const (
	StageResolve     = "resolve"
	StageFingerprint = "fingerprint"
	StageGenerate    = "generate"
	StagePreScript   = "pre-script"
	StageValidate    = "validate-artifact"
	StageBuild       = "build"
	StagePostScript  = "post-script"
	StageRun         = "run"
	StagePush        = "push"
)

// Runner owns the pipeline components and assembles the standard stage
// sequence for a set of options.
type Runner struct {
	log       zerolog.Logger
	resolver  *resolver.Resolver
	engine    *fingerprint.Engine
	generator *dockerfile.Generator
	exec      *executor.Executor
}

// NewRunner creates a runner with all components sharing one logger.
func NewRunner(log zerolog.Logger) *Runner {
	return &Runner{
		log:       log,
		resolver:  resolver.New(log),
		engine:    fingerprint.NewEngine(log),
		generator: dockerfile.NewGenerator(log),
		exec:      executor.New(log),
	}
}

// Execute validates the options, assembles the stage sequence, and runs it.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := validate(&opts); err != nil {
		return nil, err
	}
	applyDefaults(&opts)

	st := &State{Opts: opts}
	pipe, err := New(r.log, r.Stages())
	if err != nil {
		return nil, fmt.Errorf("assembling pipeline: %w", err)
	}

	result := pipe.Run(ctx, st)
	return result, result.Err
}

// validate checks required inputs before any side effect happens.
func validate(opts *Options) error {
	if strings.TrimSpace(opts.Project.ProjectPath) == "" {
		return &ValidationError{Field: "project", Reason: "project path is required"}
	}
	if strings.TrimSpace(opts.Project.AssemblyName) == "" {
		return &ValidationError{Field: "assembly-name", Reason: "assembly name is required"}
	}
	if strings.TrimSpace(opts.Project.TargetFramework) == "" {
		return &ValidationError{Field: "tfm", Reason: "target framework is required"}
	}
	return nil
}

// DefaultRecordPath returns where the fingerprint record is persisted for a
// project directory when the caller does not override it.
func DefaultRecordPath(projectDir string) string {
	return filepath.Join(projectDir, "obj", "dockship", "fingerprint.txt")
}

// DefaultDockerfilePath returns where the generated Dockerfile is written for
// a project directory when the caller does not override it.
func DefaultDockerfilePath(projectDir string) string {
	return filepath.Join(projectDir, "Dockerfile")
}

// applyDefaults fills derived paths and names left empty by the caller.
func applyDefaults(opts *Options) {
	projectDir := filepath.Dir(opts.Project.ProjectPath)
	if opts.Project.Configuration == "" {
		opts.Project.Configuration = "Release"
	}
	if opts.RecordPath == "" {
		opts.RecordPath = DefaultRecordPath(projectDir)
	}
	if opts.DockerfilePath == "" {
		opts.DockerfilePath = DefaultDockerfilePath(projectDir)
	}
	if opts.ContextDir == "" {
		opts.ContextDir = projectDir
	}
	if opts.Tool == "" {
		opts.Tool = "docker"
	}
	if opts.ImageTag == "" {
		opts.ImageTag = strings.ToLower(opts.Project.AssemblyName) + ":latest"
	}
}

// Stages returns the fixed sequence. Enablement of each stage is a pure
// function of the options and upstream outputs in State.
func (r *Runner) Stages() []Stage {
	return []Stage{
		{
			Name:    StageResolve,
			Enabled: func(*State) bool { return true },
			Run:     r.runResolve,
		},
		{
			Name:      StageFingerprint,
			DependsOn: []string{StageResolve},
			Enabled:   func(st *State) bool { return st.Opts.UseCache },
			Run:       r.runFingerprint,
		},
		{
			Name:      StageGenerate,
			DependsOn: []string{StageResolve, StageFingerprint},
			Enabled:   generateEnabled,
			Run:       r.runGenerate,
		},
		{
			Name:    StagePreScript,
			Enabled: func(st *State) bool { return st.Opts.PreScript != "" },
			Run: func(ctx context.Context, st *State) error {
				return r.runScript(ctx, st, StagePreScript, st.Opts.PreScript)
			},
			AllowFailure: scriptFailureAllowed,
		},
		{
			Name:      StageValidate,
			DependsOn: []string{StageGenerate},
			Enabled:   func(st *State) bool { return st.Opts.Build && !st.Generated },
			Run:       r.runValidateArtifact,
		},
		{
			Name:      StageBuild,
			DependsOn: []string{StageValidate},
			Enabled:   func(st *State) bool { return st.Opts.Build },
			Run:       r.runBuild,
		},
		{
			Name:      StagePostScript,
			DependsOn: []string{StageBuild},
			Enabled:   func(st *State) bool { return st.Opts.PostScript != "" },
			Run: func(ctx context.Context, st *State) error {
				return r.runScript(ctx, st, StagePostScript, st.Opts.PostScript)
			},
			AllowFailure: scriptFailureAllowed,
		},
		{
			Name:      StageRun,
			DependsOn: []string{StageBuild},
			Enabled:   func(st *State) bool { return st.Opts.Run },
			Run:       r.runContainer,
		},
		{
			Name:      StagePush,
			DependsOn: []string{StageBuild},
			Enabled:   func(st *State) bool { return st.Opts.Push },
			Run:       r.runPush,
		},
	}
}

// scriptFailureAllowed implements continue-on-error for hook scripts.
func scriptFailureAllowed(st *State) bool {
	return st.Opts.ContinueOnScriptError
}

// generateEnabled gates the costly generation stage: it runs when generation
// is requested and either caching is off, the fingerprint changed, or no
// previously generated artifact exists on disk.
func generateEnabled(st *State) bool {
	if !st.Opts.Generate {
		return false
	}
	if !st.Opts.UseCache || st.Fingerprint == nil {
		return true
	}
	if st.Fingerprint.Changed {
		return true
	}
	return !fileExists(st.Opts.DockerfilePath)
}

func (r *Runner) runResolve(_ context.Context, st *State) error {
	images, err := r.resolver.Resolve(st.Opts.Project)
	if err != nil {
		return err
	}
	st.Images = images
	return nil
}

func (r *Runner) runFingerprint(_ context.Context, st *State) error {
	in := fingerprint.Inputs{
		ProjectPath:          st.Opts.Project.ProjectPath,
		TemplatePath:         st.Opts.TemplatePath,
		TargetFramework:      st.Opts.Project.TargetFramework,
		Configuration:        st.Opts.Project.Configuration,
		PackageReferences:    st.Opts.Project.PackageReferences,
		EnvironmentVariables: st.Opts.Project.EnvironmentVariables,
		ExcludePatterns:      st.Opts.ExcludePatterns,
		// The artifacts this pipeline writes must not count as tracked
		// sources, or every run would invalidate the next one.
		ExcludePaths: []string{
			st.Opts.DockerfilePath,
			dockerfile.IgnoreFilePath(st.Opts.DockerfilePath),
			st.Opts.RecordPath,
		},
		RecordPath: st.Opts.RecordPath,
	}
	if st.Images != nil {
		in.BaseImage = st.Images.BaseImage
		in.SDKImage = st.Images.SDKImage
	}
	res, err := r.engine.Compute(in)
	if err != nil {
		return err
	}
	st.Fingerprint = res
	r.log.Info().
		Str("fingerprint", res.Fingerprint).
		Bool("changed", res.Changed).
		Msg("Fingerprint stage complete")
	return nil
}

func (r *Runner) runGenerate(_ context.Context, st *State) error {
	opts := dockerfile.Options{
		Revision: vcs.HeadRevision(filepath.Dir(st.Opts.Project.ProjectPath)),
	}
	if err := r.generator.RenderToFile(st.Opts.Project, st.Images, opts, st.Opts.DockerfilePath); err != nil {
		return err
	}
	if st.Opts.EmitIgnoreFile {
		if err := dockerfile.WriteIgnoreFile(st.Opts.DockerfilePath); err != nil {
			return err
		}
	}
	st.Generated = true
	return nil
}

// runValidateArtifact confirms a build artifact exists when this run did not
// generate one. Failure is fatal: building against a missing Dockerfile is
// never attempted.
func (r *Runner) runValidateArtifact(_ context.Context, st *State) error {
	if fileExists(st.Opts.DockerfilePath) {
		return nil
	}
	return &NotFoundError{Resource: "build artifact", Path: st.Opts.DockerfilePath}
}

func (r *Runner) runBuild(ctx context.Context, st *State) error {
	extra, err := executor.SplitArgs(st.Opts.ToolArgs)
	if err != nil {
		return &ValidationError{Field: "tool-args", Reason: err.Error()}
	}

	args := []string{
		"build",
		"-f", st.Opts.DockerfilePath,
		"-t", st.Opts.ImageTag,
	}
	args = append(args, extra...)
	args = append(args, st.Opts.ContextDir)

	return r.runTool(ctx, st, StageBuild, st.Opts.Tool, args)
}

func (r *Runner) runContainer(ctx context.Context, st *State) error {
	return r.runTool(ctx, st, StageRun, st.Opts.Tool, []string{"run", "--rm", st.Opts.ImageTag})
}

func (r *Runner) runPush(ctx context.Context, st *State) error {
	return r.runTool(ctx, st, StagePush, st.Opts.Tool, []string{"push", st.Opts.ImageTag})
}

// runTool invokes the external container tool, promoting nonzero exits to
// ExternalToolError.
func (r *Runner) runTool(ctx context.Context, st *State, stage, tool string, args []string) error {
	result, err := r.exec.RunOrFail(ctx, executor.Command{
		Path:    tool,
		Args:    args,
		Dir:     st.Opts.ContextDir,
		Timeout: st.Opts.ToolTimeout,
	})
	if result.Stdout != "" {
		r.log.Debug().Str("stage", stage).Msg(strings.TrimSpace(result.Stdout))
	}
	if result.Stderr != "" {
		r.log.Trace().Str("stage", stage).Msg(strings.TrimSpace(result.Stderr))
	}
	if err != nil {
		return &ExternalToolError{Stage: stage, Err: err}
	}
	return nil
}

// runScript executes a pre or post hook script with the pipeline outputs
// exposed in its environment.
func (r *Runner) runScript(ctx context.Context, st *State, stage, script string) error {
	if !fileExists(script) && !strings.Contains(script, string(os.PathSeparator)) {
		// Bare command names are resolved from PATH by the executor.
		r.log.Debug().Str("script", script).Msg("Hook script is not a local file, invoking as command")
	}

	env := map[string]string{
		"DOCKSHIP_IMAGE": st.Opts.ImageTag,
	}
	if st.Fingerprint != nil {
		env["DOCKSHIP_FINGERPRINT"] = st.Fingerprint.Fingerprint
		env["DOCKSHIP_CHANGED"] = fmt.Sprintf("%t", st.Fingerprint.Changed)
	}

	result, err := r.exec.RunOrFail(ctx, executor.Command{
		Path:    script,
		Dir:     st.Opts.ContextDir,
		Env:     env,
		Timeout: st.Opts.ToolTimeout,
	})
	if result.Stdout != "" {
		r.log.Debug().Str("stage", stage).Msg(strings.TrimSpace(result.Stdout))
	}
	if err != nil {
		return &ExternalToolError{Stage: stage, Err: err}
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
