package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/khanhnv2901/seca-headers/internal/policy"
	consts "github.com/khanhnv2901/seca-headers/internal/shared/constants"
	"github.com/spf13/cobra"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the built-in policy profiles",
	}
	cmd.AddCommand(newPolicyListCmd())
	cmd.AddCommand(newPolicyShowCmd())
	return cmd
}

func newPolicyListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles := getAppContext(cmd).Profiles.Profiles()
			out := cmd.OutOrStdout()

			if asJSON {
				views := make([]policy.View, 0, len(profiles))
				for _, p := range profiles {
					views = append(views, p.View())
				}
				return writeIndentedJSON(out, views)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tREQUIRED\tRULES\tDESCRIPTION")
			for _, p := range profiles {
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", p.Name(), p.RequiredCount(), len(p.Rules()), p.Description())
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print profiles as JSON")
	return cmd
}

func newPolicyShowCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "show <profile>",
		Short: "Show the rules of one profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := getAppContext(cmd).Profiles.Lookup(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeIndentedJSON(cmd.OutOrStdout(), p.View())
			}
			return printPolicy(cmd.OutOrStdout(), p.View())
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the profile as JSON")
	return cmd
}

func printPolicy(out io.Writer, view policy.View) error {
	fmt.Fprintf(out, "%s %s\n", colorInfo("Profile:"), view.Name)
	if view.Description != "" {
		fmt.Fprintf(out, "%s\n", view.Description)
	}
	fmt.Fprintf(out, "Required headers: %d (max score %d)\n\n", view.Required, view.Required*consts.PointsPerHeader)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEADER\tREQUIRED\tSEVERITY\tEXPECTS")
	for _, r := range view.Rules {
		required := "no"
		if r.Required {
			required = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.Header, required, r.Severity, r.Expectation)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Deprecated: %s\n", joinOrNone(view.Deprecated))
	fmt.Fprintf(out, "Dangerous:  %s\n", joinOrNone(view.Dangerous))
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func writeIndentedJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
