// Package schema holds Bonnie's configuration data model: the raw,
// shape-permissive form the TOML file is decoded into (C5) and the
// normalized final form the rest of the runtime consumes (C6).
package schema

import (
	"strings"

	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/target"
	"github.com/bonnierun/bonnie/internal/version"
)

// Shell is the ordered [executable, args..., {COMMAND}, ...] template
// used to invoke a fully-interpolated command string.
type Shell []string

const commandToken = "{COMMAND}"

// Validate checks the Shell invariant: at least two elements, with
// exactly one containing the literal token "{COMMAND}".
func (s Shell) Validate() error {
	if len(s) < 2 {
		return bonerr.New(bonerr.KindSchemaInvariant, "shell must have at least two elements (executable plus arguments)")
	}
	count := 0
	for _, part := range s {
		if strings.Contains(part, commandToken) {
			count++
		}
	}
	if count != 1 {
		return bonerr.Newf(bonerr.KindSchemaInvariant, "shell must contain exactly one element with the %s token, found %d", commandToken, count)
	}
	return nil
}

// DefaultShell is the process-wide shell table: a mandatory generic
// shell plus per-target overrides.
type DefaultShell struct {
	Generic Shell
	Targets map[target.Tag]Shell
}

// Validate checks that every contained Shell is itself valid.
func (d DefaultShell) Validate() error {
	if err := d.Generic.Validate(); err != nil {
		return bonerr.Wrap(bonerr.KindSchemaInvariant, "default_shell.generic is invalid", err)
	}
	for tag, sh := range d.Targets {
		if err := sh.Validate(); err != nil {
			return bonerr.Wrap(bonerr.KindSchemaInvariant, "default_shell.targets."+string(tag)+" is invalid", err)
		}
	}
	return nil
}

// Resolve picks the target-specific shell override, falling back to
// Generic.
func (d DefaultShell) Resolve(tag target.Tag) Shell {
	if sh, ok := d.Targets[tag]; ok {
		return sh
	}
	return d.Generic
}

// CommandCore is one target-specific (or generic) variant of a script's
// command: a multi-stage exec sequence plus an optional shell override.
type CommandCore struct {
	Exec  []string
	Shell *Shell
}

// CommandWrapper selects between a generic CommandCore and per-target
// overrides.
type CommandWrapper struct {
	Generic CommandCore
	Targets map[target.Tag]CommandCore
}

// Resolve picks the target-specific CommandCore, falling back to
// Generic.
func (w CommandWrapper) Resolve(tag target.Tag) CommandCore {
	if c, ok := w.Targets[tag]; ok {
		return c
	}
	return w.Generic
}

// Command is a node in the script tree: either a leaf with a concrete
// command to run, a plain dispatch node with named subcommands, or an
// ordered-subcommand group driven by a directive.
type Command struct {
	Args        []string
	EnvVars     []string
	Subcommands map[string]*Command
	Order       *directive.Directive
	Cmd         *CommandWrapper
}

// Config is the root of the final, normalized schema.
type Config struct {
	Version      version.Version
	EnvFiles     []string
	DefaultShell DefaultShell
	Scripts      map[string]*Command
}
