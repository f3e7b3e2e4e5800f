// Package catalog loads the static game data consumed by the engine:
// state-machine definitions, debug commands, the elective subject list,
// career synergies, and the university admission table. All catalogs are
// embedded, loaded once at startup, and read-only afterwards.
package catalog

import (
	_ "embed"
	"fmt"

	gerrors "github.com/dhleesep9/gayoon/internal/errors"
	"gopkg.in/yaml.v3"
)

//go:embed states.yaml
var statesYAML []byte

//go:embed debug_commands.yaml
var debugCommandsYAML []byte

// Transition is one outgoing edge of a state definition, evaluated in
// declaration order.
type Transition struct {
	Trigger    string         `yaml:"trigger"`
	Conditions map[string]any `yaml:"conditions"`
	Next       string         `yaml:"next"`
	Narration  string         `yaml:"narration"`
}

// StateDefinition is one immutable narrative state shared across all
// sessions.
type StateDefinition struct {
	ID             string       `yaml:"id"`
	DisplayName    string       `yaml:"display_name"`
	Context        string       `yaml:"context"`
	EntryNarration string       `yaml:"entry_narration"`
	Transitions    []Transition `yaml:"transitions"`
	Terminal       bool         `yaml:"terminal"`
	EndingImage    string       `yaml:"ending_image"`
}

// DebugCommand is one exact-string admin command.
type DebugCommand struct {
	Command        string         `yaml:"command"`
	Action         string         `yaml:"action"`
	Enabled        bool           `yaml:"enabled"`
	RequiredState  string         `yaml:"required_state"`
	Params         map[string]any `yaml:"params"`
	SuccessMessage string         `yaml:"success_message"`
}

type statesFile struct {
	States []StateDefinition `yaml:"states"`
}

type debugCommandsFile struct {
	Commands []DebugCommand `yaml:"commands"`
}

// LoadStates parses and validates the embedded state definitions,
// returning them in declaration order.
func LoadStates() ([]StateDefinition, error) {
	return parseStates(statesYAML)
}

func parseStates(data []byte) ([]StateDefinition, error) {
	var file statesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("parse states: %w", err))
	}
	if len(file.States) == 0 {
		return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("no states defined"))
	}

	byID := map[string]bool{}
	for _, def := range file.States {
		if def.ID == "" {
			return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("state with empty id"))
		}
		if byID[def.ID] {
			return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("duplicate state id %q", def.ID))
		}
		byID[def.ID] = true
	}
	for _, def := range file.States {
		if def.Terminal && len(def.Transitions) > 0 {
			return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("terminal state %q has transitions", def.ID))
		}
		for i, tr := range def.Transitions {
			if tr.Trigger == "" {
				return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("state %q transition %d has no trigger", def.ID, i))
			}
			if !byID[tr.Next] {
				return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("state %q transition %d targets unknown state %q", def.ID, i, tr.Next))
			}
		}
	}
	return file.States, nil
}

// LoadDebugCommands parses the embedded debug command table.
func LoadDebugCommands() ([]DebugCommand, error) {
	var file debugCommandsFile
	if err := yaml.Unmarshal(debugCommandsYAML, &file); err != nil {
		return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("parse debug commands: %w", err))
	}
	for _, cmd := range file.Commands {
		if cmd.Command == "" || cmd.Action == "" {
			return nil, gerrors.NewConfig(gerrors.CodeCatalogMalformed, fmt.Errorf("debug command with empty command or action"))
		}
	}
	return file.Commands, nil
}
