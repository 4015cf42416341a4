package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mattsolo1/grove-bookmarks/pkg/service"
)

func NewExportCmd(svc **service.Service) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print every group, favorite and recent entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snapshot := (*svc).Export(cmd.Context())

			var (
				data []byte
				err  error
			)
			switch format {
			case "yaml", "yml":
				data, err = yaml.Marshal(snapshot)
			case "json":
				data, err = json.MarshalIndent(snapshot, "", "  ")
				data = append(data, '\n')
			default:
				return &service.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported format %q (want yaml or json)", format)}
			}
			if err != nil {
				return fmt.Errorf("failed to marshal export: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml, json)")
	return cmd
}
