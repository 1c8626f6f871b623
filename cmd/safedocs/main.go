// Package main provides the entry point for the safedocs CLI.
//
// Safedocs detects malicious constructs in office documents (PDF, OOXML,
// RTF) and produces disarmed copies with the dangerous content removed.
//
// Usage:
//
//	safedocs scan <file>...
//	safedocs sanitize <file>...
//
// See --help for all available options.
package main

// main is the entry point for safedocs.
func main() {
	Execute()
}
