// Package main provides the entry point for the safedocs CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for safedocs.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "safedocs",
		Short: "Malware detection and disarmament for office documents",
		Long: `Safedocs analyzes PDF, OOXML, and RTF documents for malicious constructs
such as embedded JavaScript, auto-open macros, and exploit payloads.

Malicious documents are automatically disarmed: a sanitized copy is produced
with the dangerous content removed, then re-scanned to verify the result.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewSanitizeCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
