package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lexmachina/suggested-searches-agent/internal/a2a"
	"github.com/lexmachina/suggested-searches-agent/internal/version"
)

// SkillConfig is one advertised skill in a card config file.
type SkillConfig struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`
	Examples    []string `yaml:"examples"`
}

// CardConfig holds the agent-card metadata. Zero fields fall back to the
// defaults, so a config file only needs to name what it overrides.
type CardConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Version     string        `yaml:"version"`
	Skills      []SkillConfig `yaml:"skills"`
}

// DefaultCardConfig returns the built-in card metadata.
func DefaultCardConfig() CardConfig {
	return CardConfig{
		Name:        "Search Suggestions Agent",
		Description: "Provide search suggestions based on user input.",
		Version:     version.Current,
		Skills: []SkillConfig{
			{
				ID:          "search_suggestions",
				Name:        "Search Suggestions",
				Description: "Provide search suggestions based on user input.",
				Tags:        []string{"search", "suggestions", "analytics"},
				Examples: []string{
					"What is the average time to resolution for contracts cases in SDNY in the last 3 months?",
					"Time to trial in a Los Angeles County case before Judge Randy Rhodes?",
					"Reversal rate for employment cases in the 5th circuit?",
				},
			},
		},
	}
}

// LoadCardConfig reads a YAML card config from path and merges it over the
// defaults.
func LoadCardConfig(path string) (CardConfig, error) {
	cfg := DefaultCardConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		return CardConfig{}, fmt.Errorf("read card config: %w", err)
	}
	var override CardConfig
	if err := yaml.Unmarshal(b, &override); err != nil {
		return CardConfig{}, fmt.Errorf("parse card config: %w", err)
	}

	if override.Name != "" {
		cfg.Name = override.Name
	}
	if override.Description != "" {
		cfg.Description = override.Description
	}
	if override.Version != "" {
		cfg.Version = override.Version
	}
	if len(override.Skills) > 0 {
		cfg.Skills = override.Skills
	}
	return cfg, nil
}

// BuildCard renders the card config into the protocol agent card. baseURL is
// the externally advertised address of this agent.
func BuildCard(baseURL string, cfg CardConfig) a2a.AgentCard {
	skills := make([]a2a.AgentSkill, 0, len(cfg.Skills))
	for _, s := range cfg.Skills {
		skills = append(skills, a2a.AgentSkill{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Tags:        s.Tags,
			Examples:    s.Examples,
		})
	}
	return a2a.AgentCard{
		ProtocolVersion:    a2a.ProtocolVersion,
		Name:               cfg.Name,
		Description:        cfg.Description,
		URL:                baseURL,
		Version:            cfg.Version,
		Capabilities:       a2a.AgentCapabilities{Streaming: false},
		DefaultInputModes:  []string{"text"},
		DefaultOutputModes: []string{"application/json"},
		Skills:             skills,
	}
}
