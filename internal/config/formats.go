package config

// FormatConfig holds format-specific configuration for one container
// format ("pdf", "ooxml", "rtf"). This allows tuning scan behavior per
// format in batch runs.
type FormatConfig struct {
	// Skip excludes files of this format from scanning.
	Skip bool `yaml:"skip,omitempty"`

	// MaxFileSize overrides the global size limit for this format.
	// If zero, the global MaxFileSize is used.
	MaxFileSize int64 `yaml:"maxFileSize,omitempty"`

	// KeepOriginal overrides the global original-retention setting for
	// this format when persisting to the database.
	KeepOriginal bool `yaml:"keepOriginal,omitempty"`
}

// File represents the structure of the .safedocs configuration file.
type File struct {
	// Formats maps format names to their specific configurations.
	// Keys are the detected format names: "pdf", "ooxml", "rtf".
	Formats map[string]FormatConfig `yaml:"formats,omitempty"`

	// Defaults contains default format configuration applied to all formats
	// unless overridden in the format-specific configuration.
	Defaults FormatConfig `yaml:"defaults,omitempty"`

	// ModelPath points to the classifier model artifact. CLI flags take
	// precedence over this value.
	ModelPath string `yaml:"modelPath,omitempty"`

	// DBDir is the database directory. CLI flags take precedence.
	DBDir string `yaml:"dbDir,omitempty"`

	// BatchSize is the concurrent scan limit. CLI flags take precedence.
	BatchSize int `yaml:"batchSize,omitempty"`
}

// GetFormatConfig returns the configuration for a specific format name.
// It merges the format-specific configuration with defaults.
func (cf *File) GetFormatConfig(name string) FormatConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with format-specific configuration if present
	if fc, ok := cf.Formats[name]; ok {
		if fc.Skip {
			result.Skip = true
		}
		if fc.MaxFileSize != 0 {
			result.MaxFileSize = fc.MaxFileSize
		}
		if fc.KeepOriginal {
			result.KeepOriginal = true
		}
	}

	return result
}

// Apply merges file-level settings into the config for every field the
// user did not set explicitly on the command line. Zero values in the
// config are treated as "unset".
func (cf *File) Apply(c *Config) {
	if c.ModelPath == "" && cf.ModelPath != "" {
		c.ModelPath = cf.ModelPath
	}
	if c.DBDir == "" && cf.DBDir != "" {
		c.DBDir = cf.DBDir
		c.SaveToDB = true
	}
	if cf.BatchSize > 0 && c.BatchSize == DefaultBatchSize {
		c.BatchSize = cf.BatchSize
	}
}
