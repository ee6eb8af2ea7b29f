package config

import "time"

// Well-known provider names in providers.yaml.
const (
	ProviderGateway = "gateway"
	ProviderDirect  = "direct"
	ProviderSearch  = "search"
)

type ProvidersConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers"`
}

type ProviderConfig struct {
	Type          string            `yaml:"type"`
	BaseURL       string            `yaml:"base_url"`
	APIKey        string            `yaml:"api_key"`
	MaxConcurrent int               `yaml:"max_concurrent"`
	Timeout       time.Duration     `yaml:"timeout"`
	Headers       map[string]string `yaml:"headers,omitempty"`
	SettingsURL   string            `yaml:"settings_url,omitempty"`
}

// Get returns the named provider, or a zero config when absent.
func (p *ProvidersConfig) Get(name string) ProviderConfig {
	if p == nil {
		return ProviderConfig{}
	}
	return p.Providers[name]
}
