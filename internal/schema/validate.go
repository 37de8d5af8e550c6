package schema

import (
	"sort"

	"github.com/bonnierun/bonnie/internal/bonerr"
)

// ValidateCommand checks the Command invariants from spec.md §3 at every
// node of the script tree rooted at c, naming the offending script path
// in any error.
func ValidateCommand(c *Command, path string) error {
	if len(c.Subcommands) == 0 {
		if c.Cmd == nil {
			return bonerr.Newf(bonerr.KindSchemaInvariant, "%s: a script with no subcommands must declare cmd", path)
		}
	}

	if c.Order != nil {
		if c.Cmd != nil {
			return bonerr.Newf(bonerr.KindSchemaInvariant, "%s: a script with order must not also declare cmd", path)
		}
		if len(c.Subcommands) == 0 {
			return bonerr.Newf(bonerr.KindSchemaInvariant, "%s: a script with order must declare subcommands", path)
		}
		for _, name := range sortedKeys(c.Subcommands) {
			sub := c.Subcommands[name]
			if len(sub.Args) > 0 {
				return bonerr.Newf(bonerr.KindSchemaInvariant, "%s.%s: subscripts of an ordered group must not declare their own args", path, name)
			}
			if err := validateOrderedDescendants(sub, path+"."+name); err != nil {
				return err
			}
		}
	} else if len(c.Subcommands) > 0 && len(c.Args) > 0 {
		return bonerr.Newf(bonerr.KindSchemaInvariant, "%s: a script with subcommands and no order must not declare args", path)
	}

	for _, name := range sortedKeys(c.Subcommands) {
		if err := ValidateCommand(c.Subcommands[name], path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

// validateOrderedDescendants enforces that every descendant of an
// order-owning node which itself branches into subcommands must also
// declare its own order.
func validateOrderedDescendants(c *Command, path string) error {
	if len(c.Subcommands) > 0 && c.Order == nil {
		return bonerr.Newf(bonerr.KindSchemaInvariant, "%s: descendant of an ordered group has subcommands but no order of its own", path)
	}
	for _, name := range sortedKeys(c.Subcommands) {
		if err := validateOrderedDescendants(c.Subcommands[name], path+"."+name); err != nil {
			return err
		}
	}
	return nil
}

func sortedKeys(m map[string]*Command) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateConfig runs ValidateCommand over every root script and checks
// the default shell table.
func ValidateConfig(cfg *Config) error {
	if err := cfg.DefaultShell.Validate(); err != nil {
		return err
	}
	for _, name := range sortedRootKeys(cfg.Scripts) {
		if err := ValidateCommand(cfg.Scripts[name], name); err != nil {
			return err
		}
	}
	return nil
}

func sortedRootKeys(m map[string]*Command) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
