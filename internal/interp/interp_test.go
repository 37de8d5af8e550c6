package interp

import (
	"bytes"
	"testing"
)

type fakeEnviron map[string]string

func (f fakeEnviron) Lookup(key string) (string, bool) { v, ok := f[key]; return v, ok }
func (f fakeEnviron) Set(key, value string) error      { f[key] = value; return nil }

func TestCommands_S2_NamedArg(t *testing.T) {
	out, err := Commands([]string{"echo %name"}, []string{"name"}, []string{"Alice"}, nil, fakeEnviron{}, nil)
	if err != nil {
		t.Fatalf("Commands returned error: %v", err)
	}
	if out[0] != "echo Alice" {
		t.Errorf("got %q, want %q", out[0], "echo Alice")
	}
}

func TestCommands_S3_TrailingWithEscape(t *testing.T) {
	out, err := Commands([]string{`echo %% \%%`}, nil, []string{"foo", "bar"}, nil, fakeEnviron{}, nil)
	if err != nil {
		t.Fatalf("Commands returned error: %v", err)
	}
	if out[0] != "echo foo bar %%" {
		t.Errorf("got %q, want %q", out[0], "echo foo bar %%")
	}
}

func TestCommands_EnvVarSubstitution(t *testing.T) {
	env := fakeEnviron{"TOKEN": "secret"}
	out, err := Commands([]string{"curl -H %TOKEN"}, nil, nil, []string{"TOKEN"}, env, nil)
	if err != nil {
		t.Fatalf("Commands returned error: %v", err)
	}
	if out[0] != "curl -H secret" {
		t.Errorf("got %q, want %q", out[0], "curl -H secret")
	}
}

func TestCommands_TooFewArguments(t *testing.T) {
	_, err := Commands([]string{"echo %a %b"}, []string{"a", "b"}, []string{"only-one"}, nil, fakeEnviron{}, nil)
	if err == nil {
		t.Fatal("expected TooFewArguments error")
	}
}

func TestCommands_ExcessArgumentsWarnWithoutTrailing(t *testing.T) {
	var buf bytes.Buffer
	_, err := Commands([]string{"echo %a"}, []string{"a"}, []string{"one", "two"}, nil, fakeEnviron{}, &buf)
	if err != nil {
		t.Fatalf("Commands returned error: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("expected a warning about excess arguments")
	}
}

func TestCommands_TrailingSuppressesExcessWarning(t *testing.T) {
	var buf bytes.Buffer
	_, err := Commands([]string{"echo %a %%"}, []string{"a"}, []string{"one", "two", "three"}, nil, fakeEnviron{}, &buf)
	if err != nil {
		t.Fatalf("Commands returned error: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no warning, got %q", buf.String())
	}
}

func TestCommands_MissingEnvVarErrors(t *testing.T) {
	_, err := Commands([]string{"echo %TOKEN"}, nil, nil, []string{"TOKEN"}, fakeEnviron{}, nil)
	if err == nil {
		t.Fatal("expected InterpolationMiss error for unset env var")
	}
}

func TestCommands_DeclaredArgMissingFromSingleStageErrors(t *testing.T) {
	_, err := Commands([]string{"echo hi"}, []string{"name"}, []string{"Alice"}, nil, fakeEnviron{}, nil)
	if err == nil {
		t.Fatal("expected InterpolationMiss error: declared arg never referenced")
	}
}

func TestCommands_MultiStageUnsetEnvVarErrorsEvenWithoutToken(t *testing.T) {
	_, err := Commands([]string{"echo a", "echo b"}, nil, nil, []string{"FOO"}, fakeEnviron{}, nil)
	if err == nil {
		t.Fatal("expected InterpolationMiss error: declared env var unset, even though no stage references %FOO")
	}
}

func TestCommands_MultiStageSkipsCompletenessCheck(t *testing.T) {
	_, err := Commands([]string{"echo start", "echo %name"}, []string{"name"}, []string{"Alice"}, nil, fakeEnviron{}, nil)
	if err != nil {
		t.Fatalf("multi-stage completeness check should be skipped, got error: %v", err)
	}
}
