package clients

import "sort"

// ExternalSource represents the different time authorities
type ExternalSource string

const (
	// ExternalSourceWorldTime is the worldtimeapi.org HTTP API
	ExternalSourceWorldTime ExternalSource = "worldtime"

	// ExternalSourceNTP is a plain NTP server
	ExternalSourceNTP ExternalSource = "ntp"
)

// ExternalSourceConfig holds configuration for an external time source
type ExternalSourceConfig struct {
	Source      ExternalSource `json:"source" yaml:"source"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Priority    int            `json:"priority" yaml:"priority"` // Higher priority sources are tried first
	Active      bool           `json:"active" yaml:"active"`
}

// GetExternalSources returns the built-in source definitions
func GetExternalSources() map[ExternalSource]ExternalSourceConfig {
	return map[ExternalSource]ExternalSourceConfig{
		ExternalSourceWorldTime: {
			Source:      ExternalSourceWorldTime,
			Name:        "World Time API",
			Description: "UTC time over HTTP from worldtimeapi.org",
			Priority:    100,
			Active:      true,
		},
		ExternalSourceNTP: {
			Source:      ExternalSourceNTP,
			Name:        "NTP",
			Description: "UTC time from an NTP server",
			Priority:    50,
			Active:      false,
		},
	}
}

// ValidateExternalSource checks if the source is valid
func ValidateExternalSource(source ExternalSource) bool {
	_, exists := GetExternalSources()[source]
	return exists
}

// ActiveByPriority filters configs down to the active ones, highest priority first
func ActiveByPriority(configs []ExternalSourceConfig) []ExternalSourceConfig {
	active := make([]ExternalSourceConfig, 0, len(configs))
	for _, cfg := range configs {
		if cfg.Active {
			active = append(active, cfg)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority > active[j].Priority
	})

	return active
}
