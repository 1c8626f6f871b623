// Package config provides configuration structures and utilities for safedocs.
// It defines the main configuration options for scanning documents,
// sanitization output, persistence, and report generation preferences.
package config
