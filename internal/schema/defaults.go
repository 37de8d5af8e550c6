package schema

import "github.com/bonnierun/bonnie/internal/target"

// DefaultDefaultShell is the compiled-in shell table used when a
// configuration does not specify its own default_shell.
func DefaultDefaultShell() DefaultShell {
	return DefaultShell{
		Generic: Shell{"sh", "-c", "{COMMAND}"},
		Targets: map[target.Tag]Shell{
			target.Windows: {"powershell", "-command", "{COMMAND}"},
			target.MacOS:   {"sh", "-c", "{COMMAND}"},
			target.Linux:   {"sh", "-c", "{COMMAND}"},
		},
	}
}
