package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/acasati/dockship/internal/pipeline"
)

var buildFlags struct {
	projectFlags

	useCache        bool
	recordFile      string
	template        string
	excludePatterns []string

	dockerfile   string
	noGenerate   bool
	noIgnoreFile bool

	noBuild    bool
	tool       string
	toolArgs   string
	tag        string
	contextDir string
	timeout    time.Duration

	preScript             string
	postScript            string
	continueOnScriptError bool

	runImage  bool
	pushImage bool
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Run the full containerization pipeline for a project",
	Long: `Run the fixed pipeline: resolve project images, fingerprint tracked
inputs, regenerate the Dockerfile when anything changed, and invoke the
container build tool. Optional pre/post hook scripts, run, and push stages
wrap the build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := pipeline.Options{
			Project:               buildFlags.descriptor(),
			UseCache:              buildFlags.useCache,
			RecordPath:            buildFlags.recordFile,
			TemplatePath:          buildFlags.template,
			ExcludePatterns:       buildFlags.excludePatterns,
			Generate:              !buildFlags.noGenerate,
			DockerfilePath:        buildFlags.dockerfile,
			EmitIgnoreFile:        !buildFlags.noIgnoreFile,
			Build:                 !buildFlags.noBuild,
			Tool:                  buildFlags.tool,
			ToolArgs:              buildFlags.toolArgs,
			ImageTag:              buildFlags.tag,
			ContextDir:            buildFlags.contextDir,
			PreScript:             buildFlags.preScript,
			PostScript:            buildFlags.postScript,
			ContinueOnScriptError: buildFlags.continueOnScriptError,
			Run:                   buildFlags.runImage,
			Push:                  buildFlags.pushImage,
			ToolTimeout:           buildFlags.timeout,
		}
		if opts.Tool == "" {
			opts.Tool = cfg.Tool.Name
		}
		if opts.ToolArgs == "" {
			opts.ToolArgs = cfg.Tool.Args
		}
		if opts.ToolTimeout == 0 {
			opts.ToolTimeout = cfg.Tool.Timeout
		}
		if len(opts.ExcludePatterns) == 0 {
			opts.ExcludePatterns = cfg.Pipeline.ExcludePatterns
		}
		if opts.RecordPath == "" {
			opts.RecordPath = cfg.Pipeline.RecordPath
		}
		if opts.DockerfilePath == "" {
			opts.DockerfilePath = cfg.Pipeline.DockerfilePath
		}

		runner := pipeline.NewRunner(log)
		result, err := runner.Execute(cmd.Context(), opts)
		if result != nil {
			for _, status := range result.Stages {
				log.Info().
					Str("stage", status.Name).
					Str("outcome", status.Outcome.String()).
					Msg("Stage result")
			}
		}
		return err
	},
}

func init() {
	addProjectFlags(buildCmd, &buildFlags.projectFlags)

	buildCmd.Flags().BoolVar(&buildFlags.useCache, "use-cache", true, "skip generation when the fingerprint is unchanged")
	buildCmd.Flags().StringVar(&buildFlags.recordFile, "record-file", "", "fingerprint record path")
	buildCmd.Flags().StringVar(&buildFlags.template, "template", "", "optional Dockerfile template tracked by the fingerprint")
	buildCmd.Flags().StringSliceVar(&buildFlags.excludePatterns, "exclude", nil, "file-name glob excluded from source hashing (repeatable)")

	buildCmd.Flags().StringVar(&buildFlags.dockerfile, "dockerfile", "", "generated Dockerfile path")
	buildCmd.Flags().BoolVar(&buildFlags.noGenerate, "no-generate", false, "disable Dockerfile generation")
	buildCmd.Flags().BoolVar(&buildFlags.noIgnoreFile, "no-ignore-file", false, "do not emit the companion .dockerignore")

	buildCmd.Flags().BoolVar(&buildFlags.noBuild, "no-build", false, "disable the container build stage")
	buildCmd.Flags().StringVar(&buildFlags.tool, "tool", "", "container build tool (default docker)")
	buildCmd.Flags().StringVar(&buildFlags.toolArgs, "tool-args", "", "extra arguments passed to the build tool, shell-quoted")
	buildCmd.Flags().StringVar(&buildFlags.tag, "tag", "", "image tag (default <assembly>:latest)")
	buildCmd.Flags().StringVar(&buildFlags.contextDir, "context", "", "build context directory (default project directory)")
	buildCmd.Flags().DurationVar(&buildFlags.timeout, "timeout", 0, "hard deadline per external tool invocation")

	buildCmd.Flags().StringVar(&buildFlags.preScript, "pre-script", "", "script to run before the build stage")
	buildCmd.Flags().StringVar(&buildFlags.postScript, "post-script", "", "script to run after the build stage")
	buildCmd.Flags().BoolVar(&buildFlags.continueOnScriptError, "continue-on-script-error", false, "treat script failures as warnings")

	buildCmd.Flags().BoolVar(&buildFlags.runImage, "run", false, "run the built image")
	buildCmd.Flags().BoolVar(&buildFlags.pushImage, "push", false, "push the built image")
}
