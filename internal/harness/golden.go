// Package harness runs a rewrite scenario end to end and compares the
// result against a checked-in golden file, so a change in rewrite
// behavior shows up as a reviewable diff instead of a hand-maintained
// assertion.
package harness

import (
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/sebdah/goldie/v2"
	"gopkg.in/yaml.v3"

	"github.com/clitheme/clitheme/internal/ir"
	"github.com/clitheme/clitheme/internal/rewriter"
)

// Scenario is one named rewrite fixture: a rule set applied to a chunk
// of captured stdout/stderr text.
type Scenario struct {
	Name     string
	Rules    []ir.Rule
	Input    string
	IsStderr bool
}

// yamlScenario is the on-disk shape of a scenario file, mirroring the
// teacher's own declarative YAML test-scenario format
// (internal/harness/scenario.go): a thin, tagged struct kept separate
// from the engine's own ir.Rule so the fixture format doesn't have to
// track every internal field name.
type yamlScenario struct {
	Name     string     `yaml:"name"`
	Input    string     `yaml:"input"`
	IsStderr bool       `yaml:"is_stderr"`
	Rules    []yamlRule `yaml:"rules"`
}

type yamlRule struct {
	MatchPattern      string `yaml:"match_pattern"`
	SubstitutePattern string `yaml:"substitute_pattern"`
	IsRegex           bool   `yaml:"is_regex"`
	EffectiveCommand  string `yaml:"effective_command,omitempty"`
	EffectiveLocale   string `yaml:"effective_locale,omitempty"`
	EndMatchHere      bool   `yaml:"end_match_here,omitempty"`
	UniqueID          string `yaml:"unique_id"`
	FileID            string `yaml:"file_id"`
}

// LoadScenarioFile reads a YAML scenario fixture from path and converts
// it to a Scenario ready for Run/RunWithGolden.
func LoadScenarioFile(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file %q: %w", path, err)
	}

	var ys yamlScenario
	if err := yaml.Unmarshal(raw, &ys); err != nil {
		return nil, fmt.Errorf("parse scenario file %q: %w", path, err)
	}

	scenario := &Scenario{
		Name:     ys.Name,
		Input:    ys.Input,
		IsStderr: ys.IsStderr,
	}
	for _, r := range ys.Rules {
		scenario.Rules = append(scenario.Rules, ir.Rule{
			MatchPattern:      r.MatchPattern,
			SubstitutePattern: r.SubstitutePattern,
			IsRegex:           r.IsRegex,
			EffectiveCommand:  r.EffectiveCommand,
			EffectiveLocale:   r.EffectiveLocale,
			EndMatchHere:      r.EndMatchHere,
			UniqueID:          r.UniqueID,
			FileID:            r.FileID,
		})
	}
	return scenario, nil
}

// Snapshot is the canonical, JSON-serialized shape a golden file
// captures: the rewritten text plus which newline-delimited lines
// changed.
type Snapshot struct {
	ScenarioName string `json:"scenario_name"`
	Output       string `json:"output"`
	ChangedLines []int  `json:"changed_lines"`
}

// Run executes scenario through rewriter.MatchContent.
func Run(scenario *Scenario) *Snapshot {
	out, changed := rewriter.MatchContent(scenario.Rules, scenario.Input, scenario.IsStderr)
	return &Snapshot{
		ScenarioName: scenario.Name,
		Output:       out,
		ChangedLines: changed,
	}
}

// RunWithGolden executes scenario and compares its snapshot against
// testdata/golden/<scenario.Name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) {
	t.Helper()

	snapshot := Run(scenario)
	snapshotJSON, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, snapshotJSON)
}
