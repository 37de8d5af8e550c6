// Package envfile loads KEY=VALUE env files declared in a Bonnie
// configuration's env_files list and installs them into the process
// environment.
package envfile

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/bonnierun/bonnie/internal/bonerr"
)

// Environ abstracts process-environment reads/writes so tests don't have
// to mutate the real process environment.
type Environ interface {
	Lookup(key string) (string, bool)
	Set(key, value string) error
}

// osEnviron implements Environ against the real process environment.
type osEnviron struct{}

func (osEnviron) Lookup(key string) (string, bool) { return os.LookupEnv(key) }
func (osEnviron) Set(key, value string) error      { return os.Setenv(key, value) }

// OS is the Environ backed by the real process environment.
var OS Environ = osEnviron{}

// Load reads each path in paths, in order, and installs its KEY=VALUE
// definitions into env. A later file's definition of a key overrides an
// earlier file's definition of the same key — but any key already
// present in env before Load was called is never overwritten, by any
// file.
func Load(paths []string, env Environ) error {
	merged := make(map[string]string)
	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			return bonerr.Wrap(bonerr.KindEnvFile, "failed to read env file '"+path+"'", err)
		}
		for key, value := range vars {
			merged[key] = value
		}
	}
	for key, value := range merged {
		if _, exists := env.Lookup(key); exists {
			continue
		}
		if err := env.Set(key, value); err != nil {
			return bonerr.Wrap(bonerr.KindEnvFile, "failed to set env var '"+key+"' from an env file", err)
		}
	}
	return nil
}
