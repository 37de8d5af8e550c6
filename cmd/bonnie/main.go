// Command bonnie runs declarative project scripts defined in a TOML
// configuration file. The accepted configuration shapes are decoded by
// internal/schema.
package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/cache"
	"github.com/bonnierun/bonnie/internal/envfile"
	"github.com/bonnierun/bonnie/internal/orchestrator"
	"github.com/bonnierun/bonnie/internal/version"
)

// toolVersion is this build's own version, checked against each config's
// declared "version" field by the version gate.
var toolVersion = version.Version{Major: 1, Minor: 0, Patch: 0}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		showVersion  bool
		initFlag     bool
		templatePath string
		cacheFlag    bool
		editTemplate bool
	)

	cmd := &cobra.Command{
		Use:           "bonnie <script> [args...]",
		Short:         "Run declarative project scripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case showVersion:
				fmt.Printf("bonnie %s\n", toolVersion)
				return nil
			case initFlag:
				return runInit(templatePath)
			case editTemplate:
				return runEditTemplate()
			default:
				return runScript(cmd, args, cacheFlag)
			}
		},
	}

	cmd.Flags().BoolVarP(&showVersion, "version", "v", false, "print the version banner and exit")
	cmd.Flags().BoolVarP(&initFlag, "init", "i", false, "copy a template to the config file location")
	cmd.Flags().StringVarP(&templatePath, "template-path", "t", "", "template source path for --init")
	cmd.Flags().BoolVarP(&cacheFlag, "cache", "c", false, "parse the config, write its cache, and exit")
	cmd.Flags().BoolVarP(&editTemplate, "edit-template", "e", false, "open the user-scoped template in an editor")

	return cmd
}

func runScript(cmd *cobra.Command, args []string, recache bool) error {
	confPath := envOr("BONNIE_CONF", "./bonnie.toml")
	cachePath := cache.Path()

	useCache := !recache && cache.Exists(cachePath)

	var configText string
	if !useCache {
		data, err := os.ReadFile(confPath)
		if err != nil {
			return bonerr.Wrap(bonerr.KindConfigParse, "failed to read config file '"+confPath+"'", err)
		}
		configText = string(data)
	}

	code, err := orchestrator.Run(orchestrator.Options{
		ConfigText:       configText,
		ProgramArgs:      args,
		ToolVersion:      toolVersion,
		Warn:             cmd.ErrOrStderr(),
		Env:              envfile.OS,
		CachePath:        cachePath,
		UseCacheIfExists: !recache,
		RecacheRequested: recache,
	})
	if err != nil {
		return err
	}
	os.Exit(code)
	return nil
}

// runInit and runEditTemplate are external collaborators per spec.md §1:
// they surround the core (config text in, exit code out) but are not
// part of it.
func runInit(templatePath string) error {
	src := templatePath
	if src == "" {
		src = envOr("BONNIE_TEMPLATE", "")
	}
	if src == "" {
		return bonerr.New(bonerr.KindConfigParse, "no template path given and BONNIE_TEMPLATE is unset")
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return bonerr.Wrap(bonerr.KindConfigParse, "failed to read template '"+src+"'", err)
	}
	dst := envOr("BONNIE_CONF", "./bonnie.toml")
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return bonerr.Wrap(bonerr.KindConfigParse, "failed to write config file '"+dst+"'", err)
	}
	return nil
}

func runEditTemplate() error {
	path := envOr("BONNIE_TEMPLATE", "")
	if path == "" {
		return bonerr.New(bonerr.KindConfigParse, "BONNIE_TEMPLATE is unset")
	}
	editor := envOr("EDITOR", "vi")
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return bonerr.Wrap(bonerr.KindSpawn, "failed to open editor '"+editor+"'", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
