package cmd

import (
	"fmt"

	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/maxkimambo/prodcrew/internal/utils"
	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List products stored by previous runs",
	Long: `Lists the scored products indexed in the products database, best score first.

Example:
prodcrew products --approved
prodcrew products --limit 20 --sort created
`,
	RunE: runProducts,
}

var dedupeCmd = &cobra.Command{
	Use:   "dedupe <product name>",
	Short: "Check whether a product was already researched",
	Args:  cobra.ExactArgs(1),
	RunE:  runDedupe,
}

func init() {
	productsCmd.Flags().Bool("approved", false, "Only list approved products")
	productsCmd.Flags().Int("limit", 50, "Maximum number of products to list")
	productsCmd.Flags().String("sort", string(store.OrderByScore), "Sort order: score or created")
	productsCmd.Flags().String("category", "", "Only list products in this category")
	addStorageFlags(productsCmd)

	dedupeCmd.Flags().Float64("threshold", 0, "Minimum name similarity (0-1); defaults to the configured threshold")
	addStorageFlags(dedupeCmd)
}

func runProducts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	approved, _ := cmd.Flags().GetBool("approved")
	limit, _ := cmd.Flags().GetInt("limit")
	sortBy, _ := cmd.Flags().GetString("sort")
	category, _ := cmd.Flags().GetString("category")

	orderBy := store.OrderBy(sortBy)
	if orderBy != store.OrderByScore && orderBy != store.OrderByCreated {
		return fmt.Errorf("invalid --sort %q: use score or created", sortBy)
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	records, err := s.List(cmd.Context(), store.ListOptions{
		ApprovedOnly: approved,
		Category:     category,
		SkipRuns:     true,
		Limit:        limit,
		OrderBy:      orderBy,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, utils.Info("No products found", "Database: "+s.Path()))
		return nil
	}

	table := utils.NewTableFormatter("Name", "Category", "Score", "Approved", "Created").WithMaxCellWidth(40)
	for _, rec := range records {
		table.AddRow(rec.Name, rec.Category, fmt.Sprintf("%.1f", rec.Score), yesNo(rec.Approved),
			rec.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprint(out, table.String())
	fmt.Fprintf(out, "%d product(s)\n", table.Len())
	return nil
}

func runDedupe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	name := args[0]
	dup, err := s.FindDuplicate(cmd.Context(), name, cfg.Scoring.DuplicateThreshold)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if dup == nil {
		fmt.Fprintln(out, utils.Success("No duplicate found",
			fmt.Sprintf("'%s' is below %.0f%% similarity to every stored product", name, cfg.Scoring.DuplicateThreshold*100)))
		return nil
	}
	fmt.Fprintln(out, utils.Warning("Possible duplicate",
		fmt.Sprintf("'%s' matches '%s' (%.0f%% similar)", name, dup.Record.Name, dup.Similarity*100),
		fmt.Sprintf("Stored: %s, score %.1f", dup.Record.CreatedAt.Format("2006-01-02"), dup.Record.Score)))
	return nil
}
