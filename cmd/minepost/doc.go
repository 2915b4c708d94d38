// Package main hosts the minepost CLI entrypoint and command graph.
//
// The Cobra-based command tree runs post-processing passes over mining
// results, browses the run history, scaffolds configuration, and exposes an
// overlap calculator for tuning thresholds. It centralizes configuration
// resolution and structured logging setup so subcommands stay declarative
// while the heavy lifting lives in the internal packages.
package main
