package quorum

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/viant/quorum/service/notifier"
)

// Store vendors understood by the default wiring.
const (
	StoreVendorMemory = "memory"
	StoreVendorSQLite = "sqlite"
	StoreVendorFS     = "fs"
)

// StoreConfig selects the approval store backend.
type StoreConfig struct {
	Vendor   string `json:"vendor" yaml:"vendor"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"` // database path or base URL
}

// QueueConfig selects the event/delivery queue backend.
type QueueConfig struct {
	Vendor  string `json:"vendor" yaml:"vendor"`
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"` // fs vendor only
}

// Config is a serialisable representation of the service configuration. It
// can be populated from JSON or YAML; the zero value is usable, all fields
// inherit their package defaults.
type Config struct {
	// RequiredApprovers is the quorum of distinct additional approvers
	// beyond the requestor. Defaults to 1.
	RequiredApprovers int `json:"requiredApprovers,omitempty" yaml:"requiredApprovers,omitempty"`

	ApprovalStore StoreConfig `json:"approvalStore" yaml:"approvalStore"`
	Queue         QueueConfig `json:"queue" yaml:"queue"`

	// SMTP enables real email delivery. When nil, emails are logged only.
	SMTP *notifier.SMTPConfig `json:"smtp,omitempty" yaml:"smtp,omitempty"`
}

// DefaultConfig returns the zero-dependency in-process defaults.
func DefaultConfig() *Config {
	return &Config{
		RequiredApprovers: 1,
		ApprovalStore:     StoreConfig{Vendor: StoreVendorMemory},
		Queue:             QueueConfig{Vendor: "memory"},
	}
}

// Validate reports configuration errors before any component is built.
func (c *Config) Validate() error {
	if c.RequiredApprovers < 1 {
		return fmt.Errorf("requiredApprovers must be at least 1, had %d", c.RequiredApprovers)
	}
	switch c.ApprovalStore.Vendor {
	case StoreVendorMemory:
	case StoreVendorSQLite, StoreVendorFS:
		if c.ApprovalStore.Location == "" {
			return fmt.Errorf("approval store vendor %q requires a location", c.ApprovalStore.Vendor)
		}
	default:
		return fmt.Errorf("unsupported approval store vendor: %q", c.ApprovalStore.Vendor)
	}
	switch c.Queue.Vendor {
	case "memory":
	case "fs":
		if c.Queue.BaseURL == "" {
			return fmt.Errorf("fs queue vendor requires a base URL")
		}
	default:
		return fmt.Errorf("unsupported queue vendor: %q", c.Queue.Vendor)
	}
	return nil
}

// LoadConfig reads a YAML configuration file and applies defaults to unset
// fields.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if config.RequiredApprovers == 0 {
		config.RequiredApprovers = 1
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
