package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/conneroisu/templmd/internal/registry"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var componentsCmd = &cobra.Command{
	Use:     "components",
	Aliases: []string{"list", "ls"},
	Short:   "List the components available to documents",
	Long: `List the components enabled by the current configuration, with the tag
that invokes each one and the attributes it reads.

Examples:
  templmd components              # Table
  templmd components --brief      # Names and tags only
  templmd components -f json      # JSON for tooling`,
	RunE: runComponents,
}

var (
	componentsFormat string
	componentsBrief  bool
)

var componentFormats = []string{"table", "json", "yaml"}

func init() {
	rootCmd.AddCommand(componentsCmd)

	componentsCmd.Flags().StringVarP(&componentsFormat, "format", "f", "table", "Output format (table|json|yaml)")
	componentsCmd.Flags().BoolVarP(&componentsBrief, "brief", "b", false, "Omit component attributes")
}

func runComponents(cmd *cobra.Command, args []string) error {
	if err := ValidateFormat(componentsFormat, componentFormats); err != nil {
		return err
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	return writeComponents(cmd.OutOrStdout(), reg.Entries(), componentsFormat, !componentsBrief)
}

func writeComponents(w io.Writer, entries []registry.Entry, format string, withAttrs bool) error {
	if !withAttrs {
		stripped := make([]registry.Entry, len(entries))
		for i, e := range entries {
			e.Attributes = nil
			stripped[i] = e
		}
		entries = stripped
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return writeComponentsTable(w, entries, withAttrs)
	}
}

func writeComponentsTable(w io.Writer, entries []registry.Entry, withAttrs bool) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No components enabled.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if withAttrs {
		fmt.Fprintln(tw, "NAME\tTAG\tATTRIBUTES\tDESCRIPTION")
	} else {
		fmt.Fprintln(tw, "NAME\tTAG\tDESCRIPTION")
	}
	for _, e := range entries {
		if withAttrs {
			names := make([]string, len(e.Attributes))
			for i, a := range e.Attributes {
				names[i] = a.Name
			}
			fmt.Fprintf(tw, "%s\t<%s>\t%s\t%s\n", e.Name, e.Tag, strings.Join(names, ","), e.Description)
			continue
		}
		fmt.Fprintf(tw, "%s\t<%s>\t%s\n", e.Name, e.Tag, e.Description)
	}
	return tw.Flush()
}
