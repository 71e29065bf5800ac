// Package cmdutil holds what the vtinstaller subcommands share: the state
// resolved by the root command, output helpers and the wiring of the
// installer's collaborators.
package cmdutil

import (
	"sync"

	"github.com/featherpanel-com/MinecraftDatapackInstaller/internal/config"
)

// SkipConfigAnnotation marks commands that must run even when the config
// file cannot be loaded.
const SkipConfigAnnotation = "vtinstaller/skip-config"

// Globals is the state the root command resolves before a subcommand runs.
type Globals struct {
	ConfigPath string
	Config     *config.Config
	JSON       bool
	Quiet      bool
}

var (
	mu      sync.RWMutex
	globals = Globals{Config: config.DefaultConfig()}
)

// SetGlobals replaces the shared state. A nil Config is replaced with the
// defaults.
func SetGlobals(g Globals) {
	if g.Config == nil {
		g.Config = config.DefaultConfig()
	}

	mu.Lock()
	defer mu.Unlock()
	globals = g
}

func current() Globals {
	mu.RLock()
	defer mu.RUnlock()
	return globals
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return current().Config
}

// ConfigPath returns the path the configuration was loaded from.
func ConfigPath() string {
	return current().ConfigPath
}

// IsJSONOutput returns true if JSON output is enabled
func IsJSONOutput() bool {
	return current().JSON
}

// IsQuiet returns true if quiet mode is enabled
func IsQuiet() bool {
	return current().Quiet
}
