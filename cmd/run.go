package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/maxkimambo/prodcrew/internal/config"
	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/executor"
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/maxkimambo/prodcrew/internal/pipeline"
	"github.com/maxkimambo/prodcrew/internal/progress"
	"github.com/maxkimambo/prodcrew/internal/report"
	"github.com/maxkimambo/prodcrew/internal/utils"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the product research crew",
	Long: `Executes every task of the graph in dependency order, one at a time. A task whose
model call fails is recorded with an ERROR sentinel and the run continues; only a
dependency cycle or a missing dependency result aborts it.

Artifacts are written to the output directory:
  results_<timestamp>_<id>.json   full run record
  results_<timestamp>_<id>.txt    readable report
  last_results.txt                latest summary (overwritten every run)

Example:
prodcrew run
prodcrew run --provider gemini --model gemini-2.5-flash --timeout 30m
prodcrew run --graph crew.hcl --final-task summary --dry-run
`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringP("graph", "g", "", "Graph definition file (.yaml or .hcl); defaults to the built-in crew")
	runCmd.Flags().Duration("timeout", 0, "Abort the run after this long (e.g. 45m); 0 disables")
	runCmd.Flags().String("final-task", "", "Task whose output becomes the run summary")
	runCmd.Flags().String("provider", "", "LLM provider: ollama, gemini or static")
	runCmd.Flags().StringP("model", "m", "", "Model name for the provider")
	runCmd.Flags().Bool("dry-run", false, "Echo prompts instead of calling a model")
	addStorageFlags(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	def, err := loadDefinition(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.User.Starting("Starting product research crew...")
	logger.User.Infof("Provider: %s (%s)", cfg.LLM.Provider, cfg.LLM.Model)
	logger.User.Infof("Tasks: %d, output: %s", len(def.Tasks), cfg.Output.Dir)
	logger.Op.Debugf("Configuration: %+v", *cfg)

	registry, err := executor.NewRegistryFromConfig(ctx, cfg.LLM)
	if err != nil {
		return pcerrors.NewConfigurationError(pcerrors.CodeValidationConfig,
			"Failed to initialize the text generator", "Generator setup").
			WithContext("provider", cfg.LLM.Provider).
			WithOriginalError(err)
	}
	if refs := registry.Refs(); len(refs) > 0 {
		logger.User.Infof("Role overrides: %s", strings.Join(refs, ", "))
	}
	adapter := executor.NewAdapter(registry, executor.ConfigFrom(cfg.LLM, cfg.Execution))

	opts := []pipeline.Option{
		pipeline.WithObserver(progress.NewReporter(progress.DefaultPhases)),
	}
	products, err := openStore(cfg)
	if err != nil {
		// runs still produce their file artifacts without the index
		logger.User.Warnf("Product database unavailable: %v", err)
		opts = append(opts, pipeline.WithPersister(report.NewPersister(report.NewFileStore(cfg.Output.Dir), nil)))
	} else {
		defer products.Close()
		opts = append(opts,
			pipeline.WithProductStore(products),
			pipeline.WithPersister(report.NewPersister(report.NewFileStore(cfg.Output.Dir), products)))
	}

	res, runErr := pipeline.New(cfg, def, adapter, opts...).Run(ctx)
	if res != nil {
		fmt.Fprintln(cmd.OutOrStdout(), completionBox(cfg, res, runErr))
	}
	if runErr != nil {
		fmt.Fprint(cmd.ErrOrStderr(), pcerrors.FormatForCLI(runErr))
		return fmt.Errorf("run did not complete: %s", pcerrors.DisplayErrorSummary(runErr))
	}
	return nil
}

func completionBox(cfg *config.Config, res *pipeline.Result, runErr error) string {
	r := res.Report
	stats := r.Stats

	var box *utils.Box
	switch {
	case runErr != nil:
		box = utils.NewBox(utils.ErrorMessage, "Run stopped early")
	case stats.Failed+stats.Empty > 0:
		box = utils.NewBox(utils.WarningMessage, "Run completed with failed tasks")
	default:
		box = utils.NewBox(utils.SuccessMessage, "Run completed")
	}

	box.AddKeyValue("Run ID", r.RunID).
		AddKeyValue("Tasks", fmt.Sprintf("%d succeeded, %d failed, %d empty, %d not executed",
			stats.Succeeded, stats.Failed, stats.Empty, stats.NotExecuted)).
		AddKeyValue("Approved", yesNo(r.Approved))

	approved := 0
	for _, p := range res.Products {
		if p.Verdict.Approved {
			approved++
		}
	}
	if len(res.Products) > 0 {
		box.AddKeyValue("Products", fmt.Sprintf("%d scored, %d approved", len(res.Products), approved))
	}
	for _, path := range res.Persist.Artifacts {
		box.AddBullet(path)
	}
	for _, err := range res.Persist.Errors {
		box.AddBullet("not saved: " + pcerrors.DisplayErrorSummary(err))
	}
	if len(res.Persist.Artifacts) == 0 && len(res.Persist.Errors) == 0 {
		box.AddLine("Nothing persisted to " + cfg.Output.Dir)
	}
	return box.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
