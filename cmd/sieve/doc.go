// Package main hosts the sieve CLI entrypoint and command graph.
//
// The Cobra-based command tree runs the named analyses against the content
// database, renders their results as tables or JSON, and drives the apply
// commands (regroup, dedup, fix-audio) that write corrections back. It
// centralizes configuration resolution, logging setup, and progress
// reporting so subcommands only translate flags into facade calls.
package main
