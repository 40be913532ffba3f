package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/aussiebroadwan/immo/internal/portal/app"
	"github.com/aussiebroadwan/immo/internal/portal/route"
	"github.com/spf13/cobra"
)

func newNavigateCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "navigate <path>",
		Short: "Show which view the session lands on when asking for path",
		Example: `  immo navigate /agency/properties
  immo navigate "/admin/users?page=2"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.load(cmd)
			if err != nil {
				return err
			}
			nav, err := a.Router.Visit(cmd.Context(), args[0])
			printNavigation(cmd, nav)
			return err
		},
	}
}

func printNavigation(cmd *cobra.Command, nav app.Navigation) {
	out := cmd.OutOrStdout()
	for _, hop := range nav.Hops {
		fmt.Fprintf(out, "%s refused (%s), redirecting to %s\n", hop.From, hop.DeniedBy, hop.To)
	}
	if nav.Entered != "" {
		fmt.Fprintf(out, "Entered %s\n", nav.Entered)
	}
}

func newRoutesCommand(e *env) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the portal views and the checks guarding them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var (
				table *route.Table
				err   error
			)
			if file != "" {
				table, err = route.Load(file)
			} else {
				a, lerr := e.load(cmd)
				if lerr != nil {
					return lerr
				}
				table = a.Routes
			}
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PATH\tCHAIN\tROLES\tAGENCY VERIFIED")
			for _, r := range table.Routes() {
				roles := make([]string, len(r.ExpectedRoles))
				for i, role := range r.ExpectedRoles {
					roles[i] = role.String()
				}
				verified := ""
				if r.RequiresDomainVerification {
					verified = "required"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Pattern, r.Chain, strings.Join(roles, ","), verified)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "validate and list a route table file instead of the configured one")
	return cmd
}
