// Package orchestrator wires the core components together into the
// single pure pipeline described in spec.md §4.10: load config (or its
// cache), gate its version, load env files, resolve the invoked script,
// prepare an execution plan, and run it.
package orchestrator

import (
	"io"

	"github.com/bonnierun/bonnie/internal/cache"
	"github.com/bonnierun/bonnie/internal/engine"
	"github.com/bonnierun/bonnie/internal/envfile"
	"github.com/bonnierun/bonnie/internal/resolver"
	"github.com/bonnierun/bonnie/internal/schema"
	"github.com/bonnierun/bonnie/internal/target"
	"github.com/bonnierun/bonnie/internal/version"
)

// Options bundles everything the pipeline needs. The caller (cmd/bonnie)
// reads the config file and resolves paths into plain values; the
// pipeline itself still reads the cache file at CachePath and the
// config's env files, and reads and sets variables only through Env.
type Options struct {
	ConfigText       string
	ProgramArgs      []string
	ToolVersion      version.Version
	Warn             io.Writer
	Env              envfile.Environ
	CachePath        string
	UseCacheIfExists bool // false for an explicit -c/--cache recache request
	RecacheRequested bool
}

// Run executes the pipeline and returns the process exit code. A non-nil
// error means the pipeline failed; a spawn or wait failure, or an
// unknown subcommand in an ordered group, can occur after earlier child
// processes have already run. The caller is expected to print the error
// and exit 1, matching spec.md §7's propagation contract.
func Run(opts Options) (int, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return 1, err
	}

	if opts.RecacheRequested {
		if err := cache.Write(opts.CachePath, cfg); err != nil {
			return 1, err
		}
		return 0, nil
	}

	res, err := resolver.Resolve(cfg, opts.ProgramArgs)
	if err != nil {
		return 1, err
	}

	bone, err := engine.Prepare(res.Command, res.Args, cfg.DefaultShell, opts.Env, target.Current(), opts.Warn)
	if err != nil {
		return 1, err
	}

	code, err := engine.Run(bone, res.Name)
	if err != nil {
		return 1, err
	}
	return code, nil
}

func loadConfig(opts Options) (*schema.Config, error) {
	if opts.UseCacheIfExists && !opts.RecacheRequested && cache.Exists(opts.CachePath) {
		return cache.Load(opts.CachePath, opts.ToolVersion, opts.Warn, opts.Env)
	}

	cfg, err := schema.Decode(opts.ConfigText)
	if err != nil {
		return nil, err
	}
	if err := version.Gate(cfg.Version, opts.ToolVersion, opts.Warn); err != nil {
		return nil, err
	}
	if err := envfile.Load(cfg.EnvFiles, opts.Env); err != nil {
		return nil, err
	}
	return cfg, nil
}
