// Package namespace resolves repository paths and walks the group hierarchy.
//
// Paths are anchored under a fixed root group which is prepended when the
// caller omits it. The walker traverses groups depth first and assumes the
// remote hierarchy is acyclic.
package namespace
