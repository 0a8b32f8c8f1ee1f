package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/acasati/dockship/internal/resolver"
)

var resolveFlags struct {
	projectFlags
	output string
}

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve container images and entrypoint for a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := resolver.New(log)
		images, err := r.Resolve(resolveFlags.descriptor())
		if err != nil {
			return err
		}

		var out []byte
		switch resolveFlags.output {
		case "yaml":
			out, err = yaml.Marshal(images)
		case "json":
			out, err = json.MarshalIndent(images, "", "  ")
		default:
			return fmt.Errorf("unknown output format: %q", resolveFlags.output)
		}
		if err != nil {
			return fmt.Errorf("encoding resolved descriptor: %w", err)
		}
		cmd.Print(string(out))
		return nil
	},
}

func init() {
	addProjectFlags(resolveCmd, &resolveFlags.projectFlags)
	resolveCmd.Flags().StringVarP(&resolveFlags.output, "output", "o", "yaml", "output format: yaml or json")
}
