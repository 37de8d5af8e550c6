// Package resolver walks the program's positional arguments through a
// config's script tree to find the Command the user invoked.
package resolver

import (
	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/schema"
)

// Result is the outcome of a successful Resolve: the target Command, its
// canonical dotted name, and the remaining arguments to interpolate.
type Result struct {
	Command *schema.Command
	Name    string
	Args    []string
}

// Resolve walks args through cfg's script tree per spec.md §4.7.
func Resolve(cfg *schema.Config, args []string) (Result, error) {
	if len(args) == 0 {
		return Result{}, bonerr.New(bonerr.KindUnknownCommand, "no script name given")
	}

	head, rest := args[0], args[1:]
	node, ok := cfg.Scripts[head]
	if !ok {
		return Result{}, bonerr.Newf(bonerr.KindUnknownCommand, "unknown command %q", head)
	}
	return resolveFrom(node, head, rest)
}

func resolveFrom(node *schema.Command, name string, rest []string) (Result, error) {
	// Node is terminal if it has no subcommands, or an order directive
	// (meaning it dispatches by exit code rather than by name).
	if len(node.Subcommands) == 0 || node.Order != nil {
		return Result{Command: node, Name: name, Args: rest}, nil
	}

	// Node has both cmd and subcommands and the caller supplied no
	// further arguments: the node itself is the target.
	if node.Cmd != nil && len(rest) == 0 {
		return Result{Command: node, Name: name, Args: rest}, nil
	}

	if len(rest) == 0 {
		// Subcommands exist, no order, no cmd at this node, and nothing
		// left to pick one: this node cannot be a target on its own.
		return Result{}, bonerr.Newf(bonerr.KindUnknownSubcommand, "%q requires a subcommand", name)
	}

	head, tail := rest[0], rest[1:]
	next, ok := node.Subcommands[head]
	if !ok {
		return Result{}, bonerr.Newf(bonerr.KindUnknownSubcommand, "unknown subcommand %q under %q", head, name)
	}
	return resolveFrom(next, name+"."+head, tail)
}
