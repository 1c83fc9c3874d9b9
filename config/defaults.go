package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Cleaner defaults
	v.SetDefault("cleaner.workers", 4)
	v.SetDefault("cleaner.op_timeout_seconds", 30)
	v.SetDefault("cleaner.neutral_owner_sid", "S-1-5-32-544") // BUILTIN\Administrators
	v.SetDefault("cleaner.timestamp_epoch", "2000-01-01T00:00:00Z")
	v.SetDefault("cleaner.custom_ops", []string{"streams", "timestamps"})

	// Office container detection defaults: word-processing, spreadsheet and
	// presentation families, including macro-enabled and template variants
	v.SetDefault("office.extensions", []string{
		"docx", "xlsx", "pptx",
		"docm", "xlsm", "pptm",
		"dotx", "xltx", "potx",
	})
}
