// Package engine builds and runs execution plans ("Bones"): either a
// straight-line sequence of shell invocations, or a directive-driven
// dispatch across a group of ordered subcommands.
package engine

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/envfile"
	"github.com/bonnierun/bonnie/internal/interp"
	"github.com/bonnierun/bonnie/internal/schema"
	"github.com/bonnierun/bonnie/internal/target"
)

// BonesCore is the atomic unit passed to the OS: a fully-interpolated
// command string paired with the shell template that invokes it.
type BonesCore struct {
	Cmd   string
	Shell schema.Shell
}

// kind discriminates the two Bone shapes.
type kind int

const (
	simple kind = iota
	complexBone
)

// BonesCommand is a directive together with the prepared Bone for every
// one of its named subcommands.
type BonesCommand struct {
	Directive *directive.Directive
	Bones     map[string]*Bone
}

// Bone is a prepared, ready-to-run execution plan: either Simple (a
// straight-line sequence of cores) or Complex (an ordered-subcommand
// group driven by a directive). Only one of Cores/Complex is populated,
// selected by kind.
type Bone struct {
	k       kind
	cores   []BonesCore
	complex *BonesCommand
}

// Prepare builds a Bone for cmd per spec.md §4.9: resolving the target
// shell/command variant and interpolating, or recursing through an
// ordered subcommand group.
func Prepare(cmd *schema.Command, args []string, defaultShell schema.DefaultShell, env envfile.Environ, tag target.Tag, warn io.Writer) (*Bone, error) {
	if cmd.Cmd != nil {
		return prepareSimple(cmd, args, defaultShell, env, tag, warn)
	}

	// order is present, cmd is absent: an ordered-subcommand group.
	if len(args) < len(cmd.Args) {
		return nil, bonerr.Newf(bonerr.KindTooFewArguments,
			"requires %d argument(s), got %d", len(cmd.Args), len(args))
	}
	bones := make(map[string]*Bone, len(cmd.Subcommands))
	for name, sub := range cmd.Subcommands {
		b, err := Prepare(sub, args, defaultShell, env, tag, warn)
		if err != nil {
			return nil, err
		}
		bones[name] = b
	}
	return &Bone{k: complexBone, complex: &BonesCommand{Directive: cmd.Order, Bones: bones}}, nil
}

func prepareSimple(cmd *schema.Command, args []string, defaultShell schema.DefaultShell, env envfile.Environ, tag target.Tag, warn io.Writer) (*Bone, error) {
	core := cmd.Cmd.Resolve(tag)
	shell := core.Shell
	if shell == nil {
		resolved := defaultShell.Resolve(tag)
		shell = &resolved
	}

	stages, err := interp.Commands(core.Exec, cmd.Args, args, cmd.EnvVars, env, warn)
	if err != nil {
		return nil, err
	}

	cores := make([]BonesCore, len(stages))
	for i, s := range stages {
		cores[i] = BonesCore{Cmd: s, Shell: *shell}
	}
	return &Bone{k: simple, cores: cores}, nil
}

// Run executes a prepared Bone and returns the propagated exit code, per
// spec.md §4.9's recursive run(name, output_sink) semantics. name
// identifies the node being run, used in error messages.
func Run(b *Bone, name string) (int, error) {
	switch b.k {
	case simple:
		return runSimple(b.cores, name)
	default:
		return runComplex(b.complex, name)
	}
}

func runSimple(cores []BonesCore, name string) (int, error) {
	code := 0
	for _, core := range cores {
		var err error
		code, err = spawnAndWait(core, name)
		if err != nil {
			return 0, err
		}
		if code != 0 {
			return code, nil
		}
	}
	return code, nil
}

func spawnAndWait(core BonesCore, name string) (int, error) {
	invocation := make([]string, len(core.Shell))
	for i, part := range core.Shell {
		invocation[i] = strings.ReplaceAll(part, "{COMMAND}", core.Cmd)
	}

	cmd := exec.CommandContext(context.Background(), invocation[0], invocation[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return 0, bonerr.Wrapf(bonerr.KindSpawn, err, "failed to start command for %q", name)
	}
	err := cmd.Wait()
	if err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return 0, bonerr.Wrapf(bonerr.KindWait, err, "failed while waiting for %q", name)
		}
	}

	code := cmd.ProcessState.ExitCode()
	if code == -1 {
		// Terminated by signal: no code is available from the OS.
		if cmd.ProcessState.Success() {
			code = 0
		} else {
			code = 1
		}
	}
	return code, nil
}

func runComplex(bc *BonesCommand, name string) (int, error) {
	d := bc.Directive
	sub, ok := bc.Bones[d.Command]
	if !ok {
		return 0, bonerr.Newf(bonerr.KindUnknownSubcommand, "ordered group %q references unknown subcommand %q", name, d.Command)
	}
	code, err := Run(sub, d.Command)
	if err != nil {
		return 0, err
	}

	for _, branch := range d.Branches {
		if !branch.Op.Matches(code) {
			continue
		}
		if branch.Next == nil {
			return code, nil
		}
		return runComplex(&BonesCommand{Directive: branch.Next, Bones: bc.Bones}, name)
	}
	return code, nil
}
