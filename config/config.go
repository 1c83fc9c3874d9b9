package config

import (
	"time"

	"github.com/teranos/metaclean/errors"
)

// Config represents the metaclean configuration
type Config struct {
	Cleaner CleanerConfig `mapstructure:"cleaner"`
	Office  OfficeConfig  `mapstructure:"office"`
}

// CleanerConfig configures the cleaning engine
type CleanerConfig struct {
	// Worker concurrency for batch cleaning (default: 4)
	Workers int `mapstructure:"workers"`

	// Per-call deadline for stream enumeration and owner mutation, in
	// seconds. A hung filesystem call is converted into a Timeout failure
	// instead of stalling the run (default: 30)
	OpTimeoutSeconds int `mapstructure:"op_timeout_seconds"`

	// Well-known SID recorded as the new owner when clearing ownership.
	// Default S-1-5-32-544 (BUILTIN\Administrators), a generic principal
	// that identifies no specific user
	NeutralOwnerSID string `mapstructure:"neutral_owner_sid"`

	// Neutral instant all three timestamps are reset to, RFC3339
	// (default: 2000-01-01T00:00:00Z)
	TimestampEpoch string `mapstructure:"timestamp_epoch"`

	// Operation names attempted in Custom mode. Valid names:
	// streams, timestamps, office_properties, owner
	CustomOps []string `mapstructure:"custom_ops"`
}

// OfficeConfig configures document container detection
type OfficeConfig struct {
	// File extensions recognized as zip-based Office containers
	Extensions []string `mapstructure:"extensions"`
}

// Epoch returns the parsed neutral timestamp instant.
func (c *CleanerConfig) Epoch() (time.Time, error) {
	t, err := time.Parse(time.RFC3339, c.TimestampEpoch)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "invalid cleaner.timestamp_epoch %q", c.TimestampEpoch)
	}
	return t.UTC(), nil
}

// OpTimeout returns the per-call deadline as a duration.
func (c *CleanerConfig) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutSeconds) * time.Second
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Cleaner.Workers <= 0 {
		return errors.Newf("cleaner.workers must be > 0, got %d", c.Cleaner.Workers)
	}

	if c.Cleaner.OpTimeoutSeconds <= 0 {
		return errors.Newf("cleaner.op_timeout_seconds must be > 0, got %d", c.Cleaner.OpTimeoutSeconds)
	}

	if c.Cleaner.NeutralOwnerSID == "" {
		return errors.New("cleaner.neutral_owner_sid cannot be empty")
	}

	if _, err := c.Cleaner.Epoch(); err != nil {
		return err
	}

	if len(c.Office.Extensions) == 0 {
		return errors.New("office.extensions cannot be empty")
	}

	return nil
}
