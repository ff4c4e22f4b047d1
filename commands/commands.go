// Package commands defines the console commands of the lullscript CLI.
package commands

import (
	"github.com/symfony-cli/console"
)

// All returns every command the application exposes.
func All() []*console.Command {
	return []*console.Command{
		GenerateCmd,
		SynthesizeCmd,
		VoicesCmd,
	}
}
