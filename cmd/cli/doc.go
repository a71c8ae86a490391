// Package cli wires the glman command hierarchy, configuration loading, and
// structured logging into a single Cobra application.
package cli
