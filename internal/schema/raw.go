package schema

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/target"
	"github.com/bonnierun/bonnie/internal/version"
)

// Decode parses TOML config text into a finalized, normalized Config,
// reporting ConfigParse errors for structural failures and
// SchemaInvariant errors for invariant violations.
func Decode(text string) (*Config, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(text, &raw); err != nil {
		return nil, bonerr.Wrap(bonerr.KindConfigParse, "failed to parse config as TOML", err)
	}

	versionStr, ok := raw["version"].(string)
	if !ok {
		return nil, bonerr.New(bonerr.KindConfigParse, "missing mandatory key 'version'")
	}
	v, err := version.Parse(versionStr)
	if err != nil {
		return nil, bonerr.Wrap(bonerr.KindConfigParse, "'version' is not a valid version string", err)
	}

	var envFiles []string
	if raw["env_files"] != nil {
		envFiles, err = decodeStringList(raw["env_files"], "env_files")
		if err != nil {
			return nil, err
		}
	}

	defaultShell := DefaultDefaultShell()
	if raw["default_shell"] != nil {
		defaultShell, err = decodeDefaultShell(raw["default_shell"], "default_shell")
		if err != nil {
			return nil, err
		}
	}

	scripts := make(map[string]*Command)
	if rawScripts, ok := raw["scripts"].(map[string]interface{}); ok {
		for name, value := range rawScripts {
			cmd, err := decodeScriptEntry(value, "scripts."+name)
			if err != nil {
				return nil, err
			}
			scripts[name] = cmd
		}
	}

	cfg := &Config{
		Version:      v,
		EnvFiles:     envFiles,
		DefaultShell: defaultShell,
		Scripts:      scripts,
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeStringList(value interface{}, field string) ([]string, error) {
	list, ok := value.([]interface{})
	if !ok {
		return nil, bonerr.Newf(bonerr.KindConfigParse, "%s must be a list of strings", field)
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, bonerr.Newf(bonerr.KindConfigParse, "%s[%d] must be a string", field, i)
		}
		out = append(out, s)
	}
	return out, nil
}

// decodeShell accepts only the bare-list shape: a sequence of strings.
func decodeShell(value interface{}, field string) (Shell, error) {
	parts, err := decodeStringList(value, field)
	if err != nil {
		return nil, err
	}
	sh := Shell(parts)
	if err := sh.Validate(); err != nil {
		return nil, bonerr.Wrap(bonerr.KindSchemaInvariant, field+" is not a valid shell", err)
	}
	return sh, nil
}

// decodeDefaultShell accepts the two shapes described in spec.md §4.5:
// a bare Shell, or a table { generic, targets? }.
func decodeDefaultShell(value interface{}, field string) (DefaultShell, error) {
	if list, ok := value.([]interface{}); ok {
		sh, err := decodeShell(list, field)
		if err != nil {
			return DefaultShell{}, err
		}
		return DefaultShell{Generic: sh, Targets: map[target.Tag]Shell{}}, nil
	}

	table, ok := value.(map[string]interface{})
	if !ok {
		return DefaultShell{}, bonerr.Newf(bonerr.KindConfigParse, "%s must be a shell list or a table with 'generic'", field)
	}
	genericRaw, ok := table["generic"]
	if !ok {
		return DefaultShell{}, bonerr.Newf(bonerr.KindConfigParse, "%s.generic is required", field)
	}
	generic, err := decodeShell(genericRaw, field+".generic")
	if err != nil {
		return DefaultShell{}, err
	}

	targets := map[target.Tag]Shell{}
	if targetsRaw, ok := table["targets"]; ok {
		targetTable, ok := targetsRaw.(map[string]interface{})
		if !ok {
			return DefaultShell{}, bonerr.Newf(bonerr.KindConfigParse, "%s.targets must be a table", field)
		}
		for tagName, shellRaw := range targetTable {
			sh, err := decodeShell(shellRaw, fmt.Sprintf("%s.targets.%s", field, tagName))
			if err != nil {
				return DefaultShell{}, err
			}
			targets[target.Tag(tagName)] = sh
		}
	}

	ds := DefaultShell{Generic: generic, Targets: targets}
	if err := ds.Validate(); err != nil {
		return DefaultShell{}, err
	}
	return ds, nil
}

// decodeScriptEntry accepts either a bare command string or a full
// Command table, per spec.md §4.5.
func decodeScriptEntry(value interface{}, field string) (*Command, error) {
	if s, ok := value.(string); ok {
		return &Command{
			Cmd: &CommandWrapper{Generic: CommandCore{Exec: []string{s}}},
		}, nil
	}
	table, ok := value.(map[string]interface{})
	if !ok {
		return nil, bonerr.Newf(bonerr.KindConfigParse, "%s must be a string or a script table", field)
	}
	return decodeCommandTable(table, field)
}

func decodeCommandTable(table map[string]interface{}, field string) (*Command, error) {
	c := &Command{}

	if v, ok := table["args"]; ok {
		args, err := decodeStringList(v, field+".args")
		if err != nil {
			return nil, err
		}
		c.Args = args
	}
	if v, ok := table["env_vars"]; ok {
		envVars, err := decodeStringList(v, field+".env_vars")
		if err != nil {
			return nil, err
		}
		c.EnvVars = envVars
	}
	if v, ok := table["order"]; ok {
		orderStr, ok := v.(string)
		if !ok {
			return nil, bonerr.Newf(bonerr.KindConfigParse, "%s.order must be a string", field)
		}
		d, err := directive.Parse(orderStr)
		if err != nil {
			return nil, bonerr.Wrap(bonerr.KindDirectiveParse, field+".order could not be parsed", err)
		}
		c.Order = d
	}
	if v, ok := table["subcommands"]; ok {
		subTable, ok := v.(map[string]interface{})
		if !ok {
			return nil, bonerr.Newf(bonerr.KindConfigParse, "%s.subcommands must be a table", field)
		}
		subs := make(map[string]*Command, len(subTable))
		for name, entry := range subTable {
			sub, err := decodeScriptEntry(entry, fmt.Sprintf("%s.subcommands.%s", field, name))
			if err != nil {
				return nil, err
			}
			subs[name] = sub
		}
		c.Subcommands = subs
	}
	if v, ok := table["cmd"]; ok {
		wrapper, err := decodeCommandWrapper(v, field+".cmd")
		if err != nil {
			return nil, err
		}
		c.Cmd = wrapper
	}

	return c, nil
}

// decodeCommandWrapper accepts the four shapes listed for `cmd` in
// spec.md §4.5: a bare string, a bare list of strings, a generic/targets
// table, or an exec/shell table.
func decodeCommandWrapper(value interface{}, field string) (*CommandWrapper, error) {
	switch v := value.(type) {
	case string:
		return &CommandWrapper{Generic: CommandCore{Exec: []string{v}}}, nil
	case []interface{}:
		exec, err := decodeStringList(v, field)
		if err != nil {
			return nil, err
		}
		return &CommandWrapper{Generic: CommandCore{Exec: exec}}, nil
	case map[string]interface{}:
		if _, hasExec := v["exec"]; hasExec {
			core, err := decodeCommandCore(v, field)
			if err != nil {
				return nil, err
			}
			return &CommandWrapper{Generic: core}, nil
		}
		if genericRaw, hasGeneric := v["generic"]; hasGeneric {
			genericTable, ok := genericRaw.(map[string]interface{})
			if !ok {
				return nil, bonerr.Newf(bonerr.KindConfigParse, "%s.generic must be a table", field)
			}
			generic, err := decodeCommandCore(genericTable, field+".generic")
			if err != nil {
				return nil, err
			}
			targets := map[target.Tag]CommandCore{}
			if targetsRaw, ok := v["targets"]; ok {
				targetTable, ok := targetsRaw.(map[string]interface{})
				if !ok {
					return nil, bonerr.Newf(bonerr.KindConfigParse, "%s.targets must be a table", field)
				}
				for tagName, coreRaw := range targetTable {
					coreTable, ok := coreRaw.(map[string]interface{})
					if !ok {
						return nil, bonerr.Newf(bonerr.KindConfigParse, "%s.targets.%s must be a table", field, tagName)
					}
					core, err := decodeCommandCore(coreTable, fmt.Sprintf("%s.targets.%s", field, tagName))
					if err != nil {
						return nil, err
					}
					targets[target.Tag(tagName)] = core
				}
			}
			return &CommandWrapper{Generic: generic, Targets: targets}, nil
		}
		return nil, bonerr.Newf(bonerr.KindConfigParse, "%s table must have 'exec' or 'generic'", field)
	default:
		return nil, bonerr.Newf(bonerr.KindConfigParse, "%s has an unrecognized shape", field)
	}
}

func decodeCommandCore(table map[string]interface{}, field string) (CommandCore, error) {
	execRaw, ok := table["exec"]
	if !ok {
		return CommandCore{}, bonerr.Newf(bonerr.KindConfigParse, "%s.exec is required", field)
	}
	var exec []string
	switch e := execRaw.(type) {
	case string:
		exec = []string{e}
	case []interface{}:
		list, err := decodeStringList(e, field+".exec")
		if err != nil {
			return CommandCore{}, err
		}
		exec = list
	default:
		return CommandCore{}, bonerr.Newf(bonerr.KindConfigParse, "%s.exec must be a string or list of strings", field)
	}
	if len(exec) == 0 {
		return CommandCore{}, bonerr.Newf(bonerr.KindSchemaInvariant, "%s.exec must have at least one element", field)
	}

	core := CommandCore{Exec: exec}
	if shellRaw, ok := table["shell"]; ok {
		sh, err := decodeShell(shellRaw, field+".shell")
		if err != nil {
			return CommandCore{}, err
		}
		core.Shell = &sh
	}
	return core, nil
}
