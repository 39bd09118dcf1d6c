package types

import (
	"fmt"
	"time"
)

type ProviderID string

const (
	ProviderGoogle    ProviderID = "google"
	ProviderAppStore  ProviderID = "app_store"
	ProviderPlayStore ProviderID = "play_store"
)

// FailurePolicy decides what the aggregator does with an adapter error
type FailurePolicy string

const (
	// FailurePropagate fails the whole aggregation
	FailurePropagate FailurePolicy = "propagate"
	// FailureDegrade logs the error and contributes an empty result list
	FailureDegrade FailurePolicy = "degrade"
)

// ParseFailurePolicy accepts "propagate" or "degrade"; empty means the
// provider default
func ParseFailurePolicy(id ProviderID, s string) (FailurePolicy, error) {
	switch FailurePolicy(s) {
	case "":
		return DefaultFailurePolicy(id), nil
	case FailurePropagate, FailureDegrade:
		return FailurePolicy(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFailurePolicy, s)
}

// DefaultFailurePolicy: web search fails loud, the two store searches fail quiet
func DefaultFailurePolicy(id ProviderID) FailurePolicy {
	if id == ProviderGoogle {
		return FailurePropagate
	}
	return FailureDegrade
}

// ProviderConfig represents search provider configuration
type ProviderConfig struct {
	ID   ProviderID `json:"id" yaml:"id" mapstructure:"id"`
	Name string     `json:"name" yaml:"name" mapstructure:"name"`

	// API settings
	APIHost string `json:"api_host" yaml:"api_host" mapstructure:"api_host"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"` // comma separated keys rotate

	// Optional settings
	Timeout       time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty" mapstructure:"timeout"`
	MaxResults    int           `json:"max_results,omitempty" yaml:"max_results,omitempty" mapstructure:"max_results"`
	FailurePolicy FailurePolicy `json:"failure_policy,omitempty" yaml:"failure_policy,omitempty" mapstructure:"failure_policy"`
	Country       string        `json:"country,omitempty" yaml:"country,omitempty" mapstructure:"country"`
	Language      string        `json:"language,omitempty" yaml:"language,omitempty" mapstructure:"language"`
}

// Validate validates the provider configuration
func (c *ProviderConfig) Validate() error {
	if c.ID == "" {
		return ErrInvalidProviderID
	}
	if c.Name == "" {
		return ErrInvalidProviderName
	}
	if c.APIHost == "" {
		return ErrInvalidAPIHost
	}
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.MaxResults < 0 {
		return ErrInvalidMaxResults
	}
	if _, err := ParseFailurePolicy(c.ID, string(c.FailurePolicy)); err != nil {
		return err
	}
	return nil
}
