package cli

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/structview/pkg/layout"
	"github.com/matzehuels/structview/pkg/layout/builtin"
	"github.com/matzehuels/structview/pkg/model"
)

// layoutsCommand lists the built-in layout algorithms.
func (c *CLI) layoutsCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layouts",
		Short: "List the built-in layout algorithms and their options",
		Long: `List the built-in layout algorithms.

Each layout declares which record fields become links and markers. Use
--json to print the full option sets, which can be copied into the
[layouts.<name>] sections of a config file and adjusted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := builtin.Registry()
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(layoutOptions(reg))
			}
			fmt.Println(layoutTable(reg))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the option sets as JSON")
	return cmd
}

func layoutOptions(reg *layout.Registry) map[string]model.Options {
	out := make(map[string]model.Options)
	for _, name := range reg.Names() {
		alg, _ := reg.Get(name)
		out[name] = alg.DefineOptions()
	}
	return out
}

// layoutRows returns one row per layout: name, node types, link fields,
// marker fields and layout parameters.
func layoutRows(reg *layout.Registry) [][]string {
	var rows [][]string
	for _, name := range reg.Names() {
		alg, _ := reg.Get(name)
		opts := alg.DefineOptions()
		rows = append(rows, []string{
			name,
			joinKeys(opts.Node),
			joinKeys(opts.Link),
			joinKeys(opts.Marker),
			joinKeys(opts.Layout),
		})
	}
	return rows
}

func layoutTable(reg *layout.Registry) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Layout", "Nodes", "Links", "Markers", "Params").
		Rows(layoutRows(reg)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 0:
				return StyleTitle
			}
			return StyleValue
		}).
		Render()
}

func joinKeys[V any](m map[string]V) string {
	if len(m) == 0 {
		return "—"
	}
	return strings.Join(slices.Sorted(maps.Keys(m)), ", ")
}
