// Package commands wires the pipeline operations into the dockship CLI.
// Each subcommand is one named operation taking string/bool/path flags and
// printing named outputs.
package commands

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/acasati/dockship/internal/logging"
	"github.com/acasati/dockship/internal/project"
	"github.com/acasati/dockship/pkg/config"
)

var (
	cfg *config.Config

	// log is reconfigured from the verbosity flag before any command runs;
	// this default only covers flag-parsing errors.
	log = logging.NewConsole(logging.VerbosityNormal)

	verbosity string
)

var rootCmd = &cobra.Command{
	Use:   "dockship",
	Short: "dockship - incremental container builds for .NET projects",
	Long: `dockship generates layered Dockerfiles from .NET project descriptors and
orchestrates the container build pipeline around them. Expensive stages are
skipped when a fingerprint over all tracked inputs is unchanged.

Pipeline:
  Resolve → Fingerprint → Generate → Build → Run/Push`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		level := verbosity
		if level == "" {
			level = cfg.Logging.Verbosity
		}
		v, err := logging.ParseVerbosity(level)
		if err != nil {
			return err
		}
		log = logging.NewConsole(v)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&verbosity, "verbosity", "v", "",
		"log verbosity: quiet, minimal, normal, detailed, diagnostic")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(fingerprintCmd)
	rootCmd.AddCommand(generateCmd)
}

// projectFlags holds the descriptor flags shared by every stage command.
type projectFlags struct {
	projectPath   string
	assemblyName  string
	tfm           string
	configuration string
	outputKind    string
	web           bool
	packages      []string
	envVars       []string
	ports         []int
}

func addProjectFlags(cmd *cobra.Command, pf *projectFlags) {
	cmd.Flags().StringVar(&pf.projectPath, "project", "", "path to the project file (required)")
	cmd.Flags().StringVar(&pf.assemblyName, "assembly-name", "", "assembly name without extension (required)")
	cmd.Flags().StringVar(&pf.tfm, "tfm", "net8.0", "target framework moniker")
	cmd.Flags().StringVar(&pf.configuration, "configuration", "Release", "build configuration")
	cmd.Flags().StringVar(&pf.outputKind, "output-kind", "exe", "output kind: exe or library")
	cmd.Flags().BoolVar(&pf.web, "web", false, "treat the project as a web application")
	cmd.Flags().StringSliceVar(&pf.packages, "package", nil, "declared package reference (repeatable)")
	cmd.Flags().StringSliceVar(&pf.envVars, "env", nil, "KEY=VALUE runtime environment entry (repeatable)")
	cmd.Flags().IntSliceVar(&pf.ports, "expose", nil, "container port to expose (repeatable)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("assembly-name")
}

func (pf *projectFlags) descriptor() project.Descriptor {
	kind := project.OutputExe
	if strings.EqualFold(pf.outputKind, string(project.OutputLibrary)) {
		kind = project.OutputLibrary
	}
	return project.Descriptor{
		ProjectPath:          pf.projectPath,
		AssemblyName:         pf.assemblyName,
		TargetFramework:      pf.tfm,
		Configuration:        pf.configuration,
		OutputKind:           kind,
		WebApp:               pf.web,
		PackageReferences:    pf.packages,
		EnvironmentVariables: pf.envVars,
		ExposedPorts:         pf.ports,
	}
}
