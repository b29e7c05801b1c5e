package cmd

import (
	"os"

	"github.com/maxkimambo/prodcrew/internal/config"
	"github.com/maxkimambo/prodcrew/internal/pipeline"
	"github.com/maxkimambo/prodcrew/internal/store"
	"github.com/spf13/cobra"
)

// loadConfig reads the config file, applies the environment and then any
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)

	flags := cmd.Flags()
	if flags.Changed("provider") {
		cfg.LLM.Provider, _ = flags.GetString("provider")
	}
	if flags.Changed("model") {
		cfg.LLM.Model, _ = flags.GetString("model")
	}
	if dryRun, _ := flags.GetBool("dry-run"); dryRun {
		cfg.LLM.Provider = config.ProviderStatic
		cfg.LLM.Roles = nil
	}
	if flags.Changed("timeout") {
		cfg.Execution.RunTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("graph") {
		cfg.Execution.GraphFile, _ = flags.GetString("graph")
	}
	if flags.Changed("output") {
		cfg.Output.Dir, _ = flags.GetString("output")
	}
	if flags.Changed("database") {
		cfg.Output.DatabasePath, _ = flags.GetString("database")
	}
	if flags.Changed("threshold") {
		cfg.Scoring.DuplicateThreshold, _ = flags.GetFloat64("threshold")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadDefinition returns the graph file named in cfg, or the built-in crew.
func loadDefinition(cmd *cobra.Command, cfg *config.Config) (pipeline.Definition, error) {
	def := pipeline.DefaultDefinition()
	if cfg.Execution.GraphFile != "" {
		var err error
		if def, err = pipeline.LoadFile(cfg.Execution.GraphFile); err != nil {
			return pipeline.Definition{}, err
		}
	}
	if cmd.Flags().Changed("final-task") {
		def.FinalTask, _ = cmd.Flags().GetString("final-task")
	}
	return def, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	return store.Open(cfg.Output.DatabasePath)
}

// addStorageFlags registers the flags every storage-reading command shares.
func addStorageFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "Directory for run artifacts (overrides config)")
	cmd.Flags().String("database", "", "Path to the products database (overrides config)")
}
