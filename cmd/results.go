package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/maxkimambo/prodcrew/internal/config"
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/report"
	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/maxkimambo/prodcrew/internal/utils"
	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Show the latest run summary and recent run records",
	Long: `Prints the summary saved by the most recent run, lists the newest JSON run records
and the run last indexed in the products database.

Example:
prodcrew results
prodcrew results --limit 10 --full
`,
	RunE: runResults,
}

func init() {
	resultsCmd.Flags().Int("limit", 5, "Number of recent run records to list")
	resultsCmd.Flags().Bool("full", false, "Print the full report of the newest run record")
	addStorageFlags(resultsCmd)
}

func runResults(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	limit, _ := cmd.Flags().GetInt("limit")
	full, _ := cmd.Flags().GetBool("full")
	out := cmd.OutOrStdout()
	files := report.NewFileStore(cfg.Output.Dir)

	latest, err := files.LoadLatest()
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Fprintln(out, utils.Info("No results yet", "Run 'prodcrew run' to produce a report"))
		return nil
	case err != nil:
		return fmt.Errorf("failed to read latest results: %w", err)
	}

	b := utils.NewReportBuilder().Header("LATEST RUN SUMMARY").AddBlock(latest, 0)
	fmt.Fprint(out, b.Build())

	runs, err := files.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list run records: %w", err)
	}
	if len(runs) > 0 {
		printRuns(out, files, runs, limit)
	}
	if full && len(runs) > 0 {
		r, err := files.LoadRun(runs[0].Path)
		if err != nil {
			return err
		}
		fmt.Fprint(out, report.RenderText(r))
	}

	printIndexedRun(cmd, out, cfg)
	return nil
}

func printRuns(out io.Writer, files *report.FileStore, runs []report.RunFile, limit int) {
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	table := utils.NewTableFormatter("Record", "Run ID", "Approved", "Succeeded", "Failed")
	for _, run := range runs {
		r, err := files.LoadRun(run.Path)
		if err != nil {
			logger.Op.WithFields(map[string]interface{}{
				"path": run.Path,
			}).WithError(err).Warn("Skipping unreadable run record")
			continue
		}
		table.AddRow(run.Name, r.ShortID(), yesNo(r.Approved),
			fmt.Sprint(r.Stats.Succeeded), fmt.Sprint(r.Stats.Failed+r.Stats.Empty))
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, table.String())
}

func printIndexedRun(cmd *cobra.Command, out io.Writer, cfg *config.Config) {
	if _, err := os.Stat(cfg.Output.DatabasePath); err != nil {
		return
	}
	s, err := openStore(cfg)
	if err != nil {
		logger.User.Warnf("Product database unavailable: %v", err)
		return
	}
	defer s.Close()

	rec, err := s.Latest(cmd.Context(), store.CategoryRun)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logger.User.Warnf("Failed to read indexed runs: %v", err)
		}
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, utils.Info("Last indexed run",
		fmt.Sprintf("ID: %s", rec.ID),
		fmt.Sprintf("Stored: %s", rec.CreatedAt.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("Approved: %s", yesNo(rec.Approved))))
}
