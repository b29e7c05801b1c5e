package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"github.com/maxkimambo/prodcrew/internal/utils"
	"github.com/spf13/cobra"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Show the planned execution order without running anything",
	RunE:  runOrder,
}

func init() {
	orderCmd.Flags().StringP("graph", "g", "", "Graph definition file (.yaml or .hcl); defaults to the built-in crew")
	orderCmd.Flags().StringP("format", "f", "table", "Output format: table, dot or json")
}

func runOrder(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	def, err := loadDefinition(cmd, cfg)
	if err != nil {
		return err
	}

	b := taskgraph.NewBuilder()
	for _, spec := range def.Tasks {
		b.AddTask(spec)
	}
	g, err := b.Build()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch format, _ := cmd.Flags().GetString("format"); format {
	case "dot":
		fmt.Fprint(out, taskgraph.DOT(g, nil))
		return nil
	case "json":
		data, err := json.MarshalIndent(taskgraph.Describe(g, nil), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	case "table":
	default:
		return fmt.Errorf("invalid --format %q: use table, dot or json", format)
	}

	table := utils.NewTableFormatter("#", "Task", "Executor", "Depends on").WithMaxCellWidth(48)
	for i, id := range g.Order() {
		spec, _ := g.Task(id)
		deps := strings.Join(spec.Dependencies, ", ")
		if deps == "" {
			deps = "-"
		}
		table.AddRow(fmt.Sprint(i+1), id, spec.Executor, deps)
	}
	fmt.Fprint(out, table.String())
	return nil
}
