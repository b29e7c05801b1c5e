package cmd

import (
	"github.com/maxkimambo/prodcrew/internal/logger"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	verbose    bool
	jsonLogs   bool
	quiet      bool
	version    = "v0.1.0"

	rootCmd = &cobra.Command{
		Use:   "prodcrew",
		Short: "Run an LLM agent crew that researches e-commerce products",
		Long: `prodcrew executes a dependency graph of LLM agent tasks (trend discovery, sourcing,
pricing, scoring, approval and storefront drafting) one task at a time, feeding every
task the outputs of the tasks it depends on, and stores the run report and the scored
products locally.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Setup(verbose || debug, jsonLogs, quiet)
			if debug {
				logger.Op.WithFields(map[string]interface{}{
					"level": logrus.DebugLevel.String(),
				}).Debug("Debug logging enabled")
			}
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "prodcrew.yaml", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-error output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(resultsCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(dedupeCmd)
}
