// Package cache serializes and deserializes the final configuration
// schema to a JSON file on disk, so repeat invocations can skip the TOML
// parse and finalize pass.
package cache

import (
	"encoding/json"
	"io"
	"os"

	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/envfile"
	"github.com/bonnierun/bonnie/internal/schema"
	"github.com/bonnierun/bonnie/internal/target"
	"github.com/bonnierun/bonnie/internal/version"
)

// DefaultPath is used when BONNIE_CACHE is unset.
const DefaultPath = "./.bonnie.cache.json"

// The json* types below mirror schema's types with JSON field tags so
// encoding/json can round-trip them. schema.Shell is a plain slice of
// strings and marshals directly, as do the target.Tag-keyed maps (JSON
// requires string keys, and target.Tag is a string type); the directive
// tree needs its own codec.

type jsonCommandCore struct {
	Exec  []string      `json:"exec"`
	Shell *schema.Shell `json:"shell,omitempty"`
}

type jsonCommandWrapper struct {
	Generic jsonCommandCore                `json:"generic"`
	Targets map[target.Tag]jsonCommandCore `json:"targets,omitempty"`
}

// jsonDirectiveBranch stores the branch's raw operator text rather than
// its parsed Operator tree: ParseOperator is pure and total over any
// text that was accepted at parse time, so re-parsing on load is exactly
// as correct as encoding the tree field-by-field and far simpler.
type jsonDirectiveBranch struct {
	Source string         `json:"source"`
	Next   *jsonDirective `json:"next,omitempty"`
}

type jsonDirective struct {
	Command  string                `json:"command"`
	Branches []jsonDirectiveBranch `json:"branches,omitempty"`
}

type jsonCommand struct {
	Args        []string                `json:"args,omitempty"`
	EnvVars     []string                `json:"env_vars,omitempty"`
	Subcommands map[string]*jsonCommand `json:"subcommands,omitempty"`
	Order       *jsonDirective          `json:"order,omitempty"`
	Cmd         *jsonCommandWrapper     `json:"cmd,omitempty"`
}

type jsonConfig struct {
	Version             string                      `json:"version"`
	EnvFiles            []string                    `json:"env_files,omitempty"`
	DefaultShellGeneric schema.Shell                `json:"default_shell_generic"`
	DefaultShellTargets map[target.Tag]schema.Shell `json:"default_shell_targets,omitempty"`
	Scripts             map[string]*jsonCommand     `json:"scripts"`
}

// Path resolves the cache file location from BONNIE_CACHE, defaulting
// to DefaultPath.
func Path() string {
	if p, ok := os.LookupEnv("BONNIE_CACHE"); ok && p != "" {
		return p
	}
	return DefaultPath
}

// Write serializes cfg as JSON to path.
func Write(path string, cfg *schema.Config) error {
	doc := toJSON(cfg)
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return bonerr.Wrap(bonerr.KindConfigParse, "failed to serialize cache", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return bonerr.Wrap(bonerr.KindConfigParse, "failed to write cache file '"+path+"'", err)
	}
	return nil
}

// Load reads and deserializes the cache file at path, then re-runs the
// version gate and env-file loading per spec.md §4.6.
func Load(path string, toolVersion version.Version, warn io.Writer, env envfile.Environ) (*schema.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, bonerr.Wrap(bonerr.KindConfigParse, "failed to read cache file '"+path+"'", err)
	}
	var doc jsonConfig
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, bonerr.Wrap(bonerr.KindConfigParse, "failed to parse cache file '"+path+"'", err)
	}
	cfg, err := fromJSON(&doc)
	if err != nil {
		return nil, err
	}

	if err := version.Gate(cfg.Version, toolVersion, warn); err != nil {
		return nil, err
	}
	if err := envfile.Load(cfg.EnvFiles, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether a cache file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func toJSON(cfg *schema.Config) *jsonConfig {
	scripts := make(map[string]*jsonCommand, len(cfg.Scripts))
	for name, c := range cfg.Scripts {
		scripts[name] = commandToJSON(c)
	}
	return &jsonConfig{
		Version:             cfg.Version.String(),
		EnvFiles:            cfg.EnvFiles,
		DefaultShellGeneric: cfg.DefaultShell.Generic,
		DefaultShellTargets: cfg.DefaultShell.Targets,
		Scripts:             scripts,
	}
}

func commandToJSON(c *schema.Command) *jsonCommand {
	if c == nil {
		return nil
	}
	jc := &jsonCommand{
		Args:    c.Args,
		EnvVars: c.EnvVars,
		Order:   directiveToJSON(c.Order),
	}
	if c.Subcommands != nil {
		jc.Subcommands = make(map[string]*jsonCommand, len(c.Subcommands))
		for name, sub := range c.Subcommands {
			jc.Subcommands[name] = commandToJSON(sub)
		}
	}
	if c.Cmd != nil {
		jc.Cmd = &jsonCommandWrapper{
			Generic: commandCoreToJSON(c.Cmd.Generic),
		}
		if c.Cmd.Targets != nil {
			jc.Cmd.Targets = make(map[target.Tag]jsonCommandCore, len(c.Cmd.Targets))
			for tag, core := range c.Cmd.Targets {
				jc.Cmd.Targets[tag] = commandCoreToJSON(core)
			}
		}
	}
	return jc
}

func commandCoreToJSON(c schema.CommandCore) jsonCommandCore {
	return jsonCommandCore{Exec: c.Exec, Shell: c.Shell}
}

func directiveToJSON(d *directive.Directive) *jsonDirective {
	if d == nil {
		return nil
	}
	jd := &jsonDirective{Command: d.Command}
	for _, b := range d.Branches {
		jd.Branches = append(jd.Branches, jsonDirectiveBranch{
			Source: b.Source,
			Next:   directiveToJSON(b.Next),
		})
	}
	return jd
}

func fromJSON(doc *jsonConfig) (*schema.Config, error) {
	v, err := version.Parse(doc.Version)
	if err != nil {
		return nil, err
	}
	scripts := make(map[string]*schema.Command, len(doc.Scripts))
	for name, jc := range doc.Scripts {
		c, err := commandFromJSON(jc, name)
		if err != nil {
			return nil, err
		}
		scripts[name] = c
	}
	cfg := &schema.Config{
		Version:  v,
		EnvFiles: doc.EnvFiles,
		DefaultShell: schema.DefaultShell{
			Generic: doc.DefaultShellGeneric,
			Targets: doc.DefaultShellTargets,
		},
		Scripts: scripts,
	}
	return cfg, nil
}

func commandFromJSON(jc *jsonCommand, path string) (*schema.Command, error) {
	if jc == nil {
		return nil, nil
	}
	c := &schema.Command{Args: jc.Args, EnvVars: jc.EnvVars}

	d, err := directiveFromJSON(jc.Order)
	if err != nil {
		return nil, bonerr.Wrap(bonerr.KindConfigParse, path+".order is corrupt in the cache file", err)
	}
	c.Order = d

	if jc.Subcommands != nil {
		c.Subcommands = make(map[string]*schema.Command, len(jc.Subcommands))
		for name, subJC := range jc.Subcommands {
			sub, err := commandFromJSON(subJC, path+"."+name)
			if err != nil {
				return nil, err
			}
			c.Subcommands[name] = sub
		}
	}
	if jc.Cmd != nil {
		wrapper := &schema.CommandWrapper{
			Generic: schema.CommandCore{Exec: jc.Cmd.Generic.Exec, Shell: jc.Cmd.Generic.Shell},
		}
		if jc.Cmd.Targets != nil {
			wrapper.Targets = make(map[target.Tag]schema.CommandCore, len(jc.Cmd.Targets))
			for tag, core := range jc.Cmd.Targets {
				wrapper.Targets[tag] = schema.CommandCore{Exec: core.Exec, Shell: core.Shell}
			}
		}
		c.Cmd = wrapper
	}
	return c, nil
}

func directiveFromJSON(jd *jsonDirective) (*directive.Directive, error) {
	if jd == nil {
		return nil, nil
	}
	d := &directive.Directive{Command: jd.Command}
	for _, jb := range jd.Branches {
		op, err := directive.ParseOperator(jb.Source)
		if err != nil {
			return nil, err
		}
		next, err := directiveFromJSON(jb.Next)
		if err != nil {
			return nil, err
		}
		d.Branches = append(d.Branches, directive.Branch{Source: jb.Source, Op: op, Next: next})
	}
	return d, nil
}
