// Package memfs is an in-memory hierarchical file system that emulates POSIX
// or Windows path conventions. The operations live in package filesystem;
// this package wires configuration and seed files together.
package memfs

import (
	"github.com/brettbedarf/memfs/config"
	"github.com/brettbedarf/memfs/filesystem"
	"github.com/brettbedarf/memfs/requests"
)

// New creates a file system for the host platform seeded with entries.
// Relative entry paths resolve against currentDirectory, which defaults to
// the platform root when empty.
func New(entries map[string]*filesystem.Node, currentDirectory string) (*filesystem.FileSystem, error) {
	cfg := config.NewDefaultConfig()
	cfg.CurrentDirectory = currentDirectory
	return filesystem.NewFS(cfg, entries)
}

// NewFromConfig creates a file system given your config, seeding it from
// cfg.SeedFile when one is set.
func NewFromConfig(cfg *config.Config) (*filesystem.FileSystem, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	var entries map[string]*filesystem.Node
	if cfg.SeedFile != "" {
		var err error
		if entries, err = requests.LoadFile(cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	return filesystem.NewFS(cfg, entries)
}
