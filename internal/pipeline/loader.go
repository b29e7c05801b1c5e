package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	pcerrors "github.com/maxkimambo/prodcrew/internal/errors"
	"github.com/maxkimambo/prodcrew/internal/taskgraph"
	"gopkg.in/yaml.v3"
)

// hclFile is the top-level layout of an .hcl graph definition.
type hclFile struct {
	FinalTask    *string    `hcl:"final_task,optional"`
	DecisionTask *string    `hcl:"decision_task,optional"`
	ScoringTask  *string    `hcl:"scoring_task,optional"`
	Tasks        []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	ID             string   `hcl:"id,label"`
	Description    string   `hcl:"description"`
	Executor       *string  `hcl:"executor,optional"`
	ExpectedOutput *string  `hcl:"expected_output,optional"`
	DependsOn      []string `hcl:"depends_on,optional"`
}

// LoadFile reads a graph definition from a .yaml, .yml or .hcl file. The
// graph itself is validated later, when it is built.
func LoadFile(path string) (Definition, error) {
	var (
		def Definition
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		def, err = loadYAML(path)
	case ".hcl":
		def, err = loadHCL(path)
	default:
		return Definition{}, loadError(path, fmt.Errorf("unsupported file extension %q", filepath.Ext(path)))
	}
	if err != nil {
		return Definition{}, loadError(path, err)
	}
	if len(def.Tasks) == 0 {
		return Definition{}, loadError(path, fmt.Errorf("no tasks defined"))
	}
	return def, nil
}

func loadYAML(path string) (Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Definition{}, err
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return Definition{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return def, nil
}

func loadHCL(path string) (Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return Definition{}, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &parsed); diags.HasErrors() {
		return Definition{}, fmt.Errorf("failed to decode HCL: %w", diags)
	}

	def := Definition{
		FinalTask:    deref(parsed.FinalTask),
		DecisionTask: deref(parsed.DecisionTask),
		ScoringTask:  deref(parsed.ScoringTask),
		Tasks:        make([]taskgraph.TaskSpec, 0, len(parsed.Tasks)),
	}
	for _, t := range parsed.Tasks {
		def.Tasks = append(def.Tasks, taskgraph.TaskSpec{
			ID:             t.ID,
			Description:    t.Description,
			Executor:       deref(t.Executor),
			ExpectedOutput: deref(t.ExpectedOutput),
			Dependencies:   t.DependsOn,
		})
	}
	return def, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func loadError(path string, err error) *pcerrors.PipelineError {
	return pcerrors.NewConfigurationError(pcerrors.CodeValidationConfig,
		fmt.Sprintf("Failed to load graph definition from %s", path),
		"Graph definition loading").
		WithContext("path", path).
		WithOriginalError(err).
		WithTroubleshooting(
			"Check that the file is valid YAML or HCL",
			"Every task needs an id and a description",
		)
}
