package pipeline

import (
	"context"
	"time"

	"github.com/acasati/dockship/internal/fingerprint"
	"github.com/acasati/dockship/internal/project"
	"github.com/acasati/dockship/internal/resolver"
)

// Options is the explicit configuration every stage receives. There is no
// ambient state: enablement is a pure function of these values and upstream
// stage outputs.
type Options struct {
	// Project is the immutable descriptor for this invocation.
	Project project.Descriptor

	// UseCache enables the fingerprint stage and skip-when-unchanged
	// generation.
	UseCache bool

	// RecordPath is where the fingerprint record is persisted. Defaults
	// to obj/dockship/fingerprint.txt under the project directory.
	RecordPath string

	// TemplatePath optionally points at a Dockerfile template tracked by
	// the fingerprint.
	TemplatePath string

	// ExcludePatterns drops generated-file names from source hashing.
	ExcludePatterns []string

	// Generate enables the Dockerfile generation stage.
	Generate bool

	// DockerfilePath is where the generated artifact is written, and where
	// the build validation looks when generation is disabled. Defaults to
	// Dockerfile under the project directory.
	DockerfilePath string

	// EmitIgnoreFile also writes the companion .dockerignore.
	EmitIgnoreFile bool

	// Build enables invoking the external container build tool.
	Build bool

	// Tool is the container build tool executable. Defaults to docker.
	Tool string

	// ToolArgs is a flat, shell-quoted string of extra tool arguments.
	ToolArgs string

	// ImageTag names the built image. Defaults to the lowercased assembly
	// name tagged latest.
	ImageTag string

	// ContextDir is the build context directory. Defaults to the project
	// directory.
	ContextDir string

	// PreScript and PostScript are optional hook scripts around the build.
	PreScript  string
	PostScript string

	// ContinueOnScriptError downgrades a nonzero script exit from fatal
	// to a logged warning.
	ContinueOnScriptError bool

	// Run starts the built image after a successful build.
	Run bool

	// Push publishes the built image.
	Push bool

	// ToolTimeout, when positive, bounds each external tool invocation.
	ToolTimeout time.Duration
}

// State carries stage outputs across the fixed sequence. It is the only
// mutable data crossing stage boundaries.
type State struct {
	Opts Options

	// Images is the Resolve stage output.
	Images *resolver.Images

	// Fingerprint is the Fingerprint stage output; nil when caching is
	// disabled.
	Fingerprint *fingerprint.Result

	// Generated reports whether the Generate stage ran in this invocation.
	Generated bool
}

// Outcome is what happened to one stage during a run.
type Outcome int

const (
	// OutcomeSkipped means the gating condition was false. Not a failure.
	OutcomeSkipped Outcome = iota
	OutcomeRan
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeRan:
		return "ran"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// StageStatus records the outcome of one stage.
type StageStatus struct {
	Name    string
	Outcome Outcome
	Err     error
}

// Stage is one named unit of pipeline work. DependsOn is declarative
// documentation backed by an ordering assertion at pipeline construction,
// not a scheduler input.
type Stage struct {
	Name      string
	DependsOn []string

	// Enabled gates the stage. A false result skips it silently.
	Enabled func(st *State) bool

	// Run performs the stage work.
	Run func(ctx context.Context, st *State) error

	// AllowFailure, when set and true for the current state, downgrades
	// a Run error to a warning and lets downstream stages proceed.
	AllowFailure func(st *State) bool
}
