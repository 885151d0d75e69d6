package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/matzehuels/popmap/pkg/webpart"
)

// schemaDocument is the printed form of the property pane.
type schemaDocument struct {
	DataVersion string         `json:"dataVersion"`
	Schema      webpart.Schema `json:"schema"`
}

// schemaCommand creates the schema command.
func (c *CLI) schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the web part property pane schema as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schemaDocument{
				DataVersion: webpart.DataVersion,
				Schema:      webpart.DefaultSchema(),
			})
		},
	}
}
