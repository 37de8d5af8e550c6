// Package interp implements the three-pass command string interpolation
// described in spec.md §4.8: environment-variable substitution, named
// positional-argument substitution, and trailing `%%` capture.
package interp

import (
	"io"
	"sort"
	"strings"

	"github.com/bonnierun/bonnie/internal/bonerr"
	"github.com/bonnierun/bonnie/internal/envfile"
)

const escapedTrailing = `\%%`
const trailing = "%%"

// placeholder is swapped in for an escaped "\%%" while the real "%%"
// tokens are expanded, then swapped back to a literal "%%".
const placeholder = "\x00BONNIE_ESCAPED_TRAILING\x00"

// Commands interpolates every element of exec (a multi-stage command
// sequence) against a single set of argument and environment-variable
// inputs, returning one fully-interpolated string per element.
//
// Per spec.md §9 design note (b), the "every declared name appears
// somewhere in the command string" completeness check is only meaningful
// for single-stage commands — it is skipped for multi-stage exec lists.
func Commands(exec []string, argNames []string, inputArgs []string, envVarNames []string, env envfile.Environ, warn io.Writer) ([]string, error) {
	if len(inputArgs) < len(argNames) {
		return nil, bonerr.Newf(bonerr.KindTooFewArguments,
			"requires %d argument(s), got %d", len(argNames), len(inputArgs))
	}

	hasTrailing := false
	for _, s := range exec {
		if strings.Contains(stripEscapedTrailing(s), trailing) {
			hasTrailing = true
			break
		}
	}
	if len(inputArgs) > len(argNames) && !hasTrailing && warn != nil {
		io.WriteString(warn, "warning: more arguments supplied than declared; excess arguments are ignored\n")
	}

	envSeen := make(map[string]bool, len(envVarNames))
	argSeen := make(map[string]bool, len(argNames))

	out := make([]string, len(exec))
	for i, stage := range exec {
		s, err := substituteEnv(stage, envVarNames, env, envSeen)
		if err != nil {
			return nil, err
		}
		s = substituteArgs(s, argNames, inputArgs, argSeen)
		s = substituteTrailing(s, argNames, inputArgs)
		out[i] = s
	}

	if len(exec) == 1 {
		for _, name := range envVarNames {
			if !envSeen[name] {
				return nil, bonerr.Newf(bonerr.KindInterpolationMiss, "declared env var %q does not appear in the command string", name)
			}
		}
		for _, name := range argNames {
			if !argSeen[name] {
				return nil, bonerr.Newf(bonerr.KindInterpolationMiss, "declared argument %q does not appear in the command string", name)
			}
		}
	}

	return out, nil
}

// substituteEnv replaces every "%NAME" occurrence, for each declared env
// var name, with the value read from the process environment. Names are
// processed longest-first so that one declared name being a prefix of
// another can't cause a partial, wrong substitution.
func substituteEnv(s string, names []string, env envfile.Environ, seen map[string]bool) (string, error) {
	ordered := append([]string(nil), names...)
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i]) > len(ordered[j]) })

	for _, name := range ordered {
		value, ok := env.Lookup(name)
		if !ok {
			return "", bonerr.Newf(bonerr.KindInterpolationMiss, "env var %q is not set", name)
		}
		token := "%" + name
		if !strings.Contains(s, token) {
			continue
		}
		s = strings.ReplaceAll(s, token, value)
		seen[name] = true
	}
	return s, nil
}

// substituteArgs replaces every "%name" occurrence, for each declared
// argument name, with the positionally corresponding input argument.
func substituteArgs(s string, argNames []string, inputArgs []string, seen map[string]bool) string {
	type named struct {
		name  string
		value string
	}
	ordered := make([]named, len(argNames))
	for i, name := range argNames {
		ordered[i] = named{name: name, value: inputArgs[i]}
	}
	sort.Slice(ordered, func(i, j int) bool { return len(ordered[i].name) > len(ordered[j].name) })

	for _, n := range ordered {
		token := "%" + n.name
		if strings.Contains(s, token) {
			seen[n.name] = true
		}
		s = strings.ReplaceAll(s, token, n.value)
	}
	return s
}

// substituteTrailing replaces every unescaped "%%" with the space-joined
// remainder of inputArgs not consumed by the named-argument pass, and
// turns the escape "\%%" into a literal "%%".
func substituteTrailing(s string, argNames []string, inputArgs []string) string {
	s = strings.ReplaceAll(s, escapedTrailing, placeholder)
	if strings.Contains(s, trailing) {
		var extra []string
		if len(inputArgs) > len(argNames) {
			extra = inputArgs[len(argNames):]
		}
		s = strings.ReplaceAll(s, trailing, strings.Join(extra, " "))
	}
	s = strings.ReplaceAll(s, placeholder, trailing)
	return s
}

func stripEscapedTrailing(s string) string {
	return strings.ReplaceAll(s, escapedTrailing, "")
}
