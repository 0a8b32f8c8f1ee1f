package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/acasati/dockship/internal/dockerfile"
	"github.com/acasati/dockship/internal/fingerprint"
	"github.com/acasati/dockship/internal/pipeline"
	"github.com/acasati/dockship/internal/resolver"
)

var fingerprintFlags struct {
	projectFlags
	recordFile      string
	template        string
	excludePatterns []string
}

var fingerprintCmd = &cobra.Command{
	Use:   "fingerprint",
	Short: "Compute the input fingerprint and report whether it changed",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc := fingerprintFlags.descriptor()

		r := resolver.New(log)
		images, err := r.Resolve(desc)
		if err != nil {
			return err
		}

		projectDir := filepath.Dir(desc.ProjectPath)
		recordPath := fingerprintFlags.recordFile
		if recordPath == "" {
			recordPath = pipeline.DefaultRecordPath(projectDir)
		}
		dockerfilePath := pipeline.DefaultDockerfilePath(projectDir)

		engine := fingerprint.NewEngine(log)
		result, err := engine.Compute(fingerprint.Inputs{
			ProjectPath:          desc.ProjectPath,
			TemplatePath:         fingerprintFlags.template,
			TargetFramework:      desc.TargetFramework,
			Configuration:        desc.Configuration,
			BaseImage:            images.BaseImage,
			SDKImage:             images.SDKImage,
			PackageReferences:    desc.PackageReferences,
			EnvironmentVariables: desc.EnvironmentVariables,
			ExcludePatterns:      fingerprintFlags.excludePatterns,
			ExcludePaths: []string{
				dockerfilePath,
				dockerfile.IgnoreFilePath(dockerfilePath),
				recordPath,
			},
			RecordPath: recordPath,
		})
		if err != nil {
			return err
		}

		cmd.Printf("fingerprint=%s\n", result.Fingerprint)
		cmd.Printf("changed=%t\n", result.Changed)
		return nil
	},
}

func init() {
	addProjectFlags(fingerprintCmd, &fingerprintFlags.projectFlags)
	fingerprintCmd.Flags().StringVar(&fingerprintFlags.recordFile, "record-file", "", "fingerprint record path")
	fingerprintCmd.Flags().StringVar(&fingerprintFlags.template, "template", "", "optional Dockerfile template tracked by the fingerprint")
	fingerprintCmd.Flags().StringSliceVar(&fingerprintFlags.excludePatterns, "exclude", nil, "file-name glob excluded from source hashing (repeatable)")
}
