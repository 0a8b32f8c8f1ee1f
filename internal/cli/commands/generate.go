package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/acasati/dockship/internal/dockerfile"
	"github.com/acasati/dockship/internal/resolver"
	"github.com/acasati/dockship/internal/vcs"
)

var generateFlags struct {
	projectFlags
	output     string
	ignoreFile bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render the layered Dockerfile for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc := generateFlags.descriptor()

		r := resolver.New(log)
		images, err := r.Resolve(desc)
		if err != nil {
			return err
		}

		gen := dockerfile.NewGenerator(log)
		opts := dockerfile.Options{
			Revision: vcs.HeadRevision(filepath.Dir(desc.ProjectPath)),
		}

		if generateFlags.output == "" {
			content, err := gen.Render(desc, images, opts)
			if err != nil {
				return err
			}
			cmd.Print(content)
			return nil
		}

		if err := gen.RenderToFile(desc, images, opts, generateFlags.output); err != nil {
			return err
		}
		if generateFlags.ignoreFile {
			if err := dockerfile.WriteIgnoreFile(generateFlags.output); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	addProjectFlags(generateCmd, &generateFlags.projectFlags)
	generateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "", "write the Dockerfile to this path instead of stdout")
	generateCmd.Flags().BoolVar(&generateFlags.ignoreFile, "ignore-file", false, "also emit the companion .dockerignore")
}
