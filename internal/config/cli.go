// Package config defines the command line and configuration file layout.
package config

import (
	"github.com/Alia5/wiituio/internal/cmd"
	"github.com/Alia5/wiituio/internal/log"
)

// CLI is the root kong command structure.
type CLI struct {
	ConfigFile string     `name:"config" help:"Path to a JSON, YAML or TOML configuration file" env:"WIITUIO_CONFIG"`
	Log        log.Config `embed:"" prefix:"log."`

	Run    cmd.Run           `cmd:"" help:"Play a recorded device session through the pointer pipeline"`
	Config cmd.ConfigCommand `cmd:"" help:"Configuration helpers"`
	Keymap cmd.KeymapCommand `cmd:"" help:"Keymap helpers"`
}
