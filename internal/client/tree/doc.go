// Package tree renders the storage listing as an indented text tree with
// per-folder collapse state.
package tree
