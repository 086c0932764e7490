package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/plc-visualizer/safety-dashboard/internal/catalog"
	"github.com/plc-visualizer/safety-dashboard/internal/safety"
	"github.com/spf13/cobra"
)

func CatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect signal catalogs",
	}
	cmd.AddCommand(catalogValidateCmd(), catalogProfilesCmd())
	return cmd
}

func catalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Load and validate a catalog file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.ParseFile(args[0])
			if err != nil {
				return err
			}

			st := cat.State()
			summary := safety.Evaluate(st)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d flags, %d inputs, %d outputs, %d conditions)\n",
				args[0], len(st.Flags), len(st.Inputs), len(st.Outputs), len(summary.Conditions))
			if !summary.IsSystemSafe {
				fmt.Fprintf(cmd.OutOrStdout(), "initial state has %d failed conditions\n", len(summary.FailedConditions))
			}
			return nil
		},
	}
}

func catalogProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profiles",
		Short: "List the embedded catalog profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, name := range catalog.Profiles() {
				cat, err := catalog.LoadProfile(name)
				if err != nil {
					return err
				}
				marker := ""
				if name == catalog.DefaultProfile {
					marker = " (default)"
				}
				fmt.Fprintf(w, "%s%s\t%s\n", name, marker, cat.Description)
			}
			return w.Flush()
		},
	}
}
