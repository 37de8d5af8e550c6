package resolver

import (
	"testing"

	"github.com/bonnierun/bonnie/internal/directive"
	"github.com/bonnierun/bonnie/internal/schema"
)

func TestResolve_S1_SimpleCommand(t *testing.T) {
	cfg := &schema.Config{
		Scripts: map[string]*schema.Command{
			"basic": {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 0"}}}},
		},
	}
	res, err := Resolve(cfg, []string{"basic"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Name != "basic" || len(res.Args) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestResolve_S5_OrderedSubcommands(t *testing.T) {
	d, err := directive.Parse("test { Any => other }")
	if err != nil {
		t.Fatalf("directive.Parse error: %v", err)
	}
	cfg := &schema.Config{
		Scripts: map[string]*schema.Command{
			"basic": {
				Order: d,
				Subcommands: map[string]*schema.Command{
					"test":  {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 0"}}}},
					"other": {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 1"}}}},
				},
			},
		},
	}
	res, err := Resolve(cfg, []string{"basic"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Name != "basic" || res.Command.Order == nil {
		t.Fatalf("expected ordered-group node itself as target, got %+v", res)
	}
}

func TestResolve_NestedSubcommand(t *testing.T) {
	cfg := &schema.Config{
		Scripts: map[string]*schema.Command{
			"basic": {
				Subcommands: map[string]*schema.Command{
					"deep": {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 0"}}}},
				},
			},
		},
	}
	res, err := Resolve(cfg, []string{"basic", "deep", "arg1"})
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if res.Name != "basic.deep" {
		t.Errorf("Name = %q, want basic.deep", res.Name)
	}
	if len(res.Args) != 1 || res.Args[0] != "arg1" {
		t.Errorf("unexpected trailing args: %+v", res.Args)
	}
}

func TestResolve_UnknownCommand(t *testing.T) {
	cfg := &schema.Config{Scripts: map[string]*schema.Command{}}
	_, err := Resolve(cfg, []string{"nope"})
	if err == nil {
		t.Fatal("expected UnknownCommand error")
	}
}

func TestResolve_UnknownSubcommand(t *testing.T) {
	cfg := &schema.Config{
		Scripts: map[string]*schema.Command{
			"basic": {
				Subcommands: map[string]*schema.Command{
					"deep": {Cmd: &schema.CommandWrapper{Generic: schema.CommandCore{Exec: []string{"exit 0"}}}},
				},
			},
		},
	}
	_, err := Resolve(cfg, []string{"basic", "missing"})
	if err == nil {
		t.Fatal("expected UnknownSubcommand error")
	}
}
