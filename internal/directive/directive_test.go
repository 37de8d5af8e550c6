package directive

import "testing"

func TestParse_BareForm(t *testing.T) {
	d, err := Parse("basic")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if d.Command != "basic" {
		t.Errorf("Command = %q, want %q", d.Command, "basic")
	}
	if len(d.Branches) != 0 {
		t.Errorf("expected no branches, got %d", len(d.Branches))
	}
}

func TestParse_S5_OrderedSubcommands(t *testing.T) {
	d, err := Parse("test { Any => other }")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if d.Command != "test" {
		t.Fatalf("Command = %q, want test", d.Command)
	}
	if len(d.Branches) != 1 {
		t.Fatalf("expected 1 branch, got %d", len(d.Branches))
	}
	b := d.Branches[0]
	if b.Op.Kind != OpAny {
		t.Errorf("operator kind = %v, want OpAny", b.Op.Kind)
	}
	if b.Next == nil || b.Next.Command != "other" || len(b.Next.Branches) != 0 {
		t.Errorf("expected leaf branch continuing into other with no branches, got %+v", b.Next)
	}
}

func TestParse_NestedBlocks(t *testing.T) {
	d, err := Parse(`build {
		Success => deploy { Failure => rollback }
		Failure => notify
	}`)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(d.Branches) != 2 {
		t.Fatalf("expected 2 branches, got %d", len(d.Branches))
	}
	if d.Branches[0].Next == nil || d.Branches[0].Next.Command != "deploy" {
		t.Fatalf("expected first branch to continue into deploy, got %+v", d.Branches[0].Next)
	}
	nested := d.Branches[0].Next
	if len(nested.Branches) != 1 || nested.Branches[0].Next == nil ||
		nested.Branches[0].Next.Command != "rollback" || len(nested.Branches[0].Next.Branches) != 0 {
		t.Fatalf("expected deploy to have one leaf branch to rollback, got %+v", nested.Branches)
	}
}

func TestParse_DuplicateOperatorLastWins(t *testing.T) {
	d, err := Parse("a { 0 => b 0 => c }")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(d.Branches) != 1 {
		t.Fatalf("expected duplicate operator to collapse to 1 branch, got %d", len(d.Branches))
	}
	if d.Branches[0].Op.Code != 0 {
		t.Fatalf("unexpected operator %+v", d.Branches[0].Op)
	}
	if d.Branches[0].Next == nil || d.Branches[0].Next.Command != "c" {
		t.Fatalf("expected the last duplicate (=> c) to win, got %+v", d.Branches[0].Next)
	}
}

func TestParseOperator(t *testing.T) {
	tests := []struct {
		raw  string
		kind OperatorKind
		code int
	}{
		{"0", OpExitCode, 0},
		{"42", OpExitCode, 42},
		{"!1", OpNotExitCode, 1},
		{"Success", OpSuccess, 0},
		{"Failure", OpFailure, 0},
		{"Any", OpAny, 0},
		{"None", OpNone, 0},
	}
	for _, tt := range tests {
		op, err := ParseOperator(tt.raw)
		if err != nil {
			t.Fatalf("ParseOperator(%q) returned error: %v", tt.raw, err)
		}
		if op.Kind != tt.kind {
			t.Errorf("ParseOperator(%q).Kind = %v, want %v", tt.raw, op.Kind, tt.kind)
		}
		if (tt.kind == OpExitCode || tt.kind == OpNotExitCode) && op.Code != tt.code {
			t.Errorf("ParseOperator(%q).Code = %d, want %d", tt.raw, op.Code, tt.code)
		}
	}
}

func TestParseOperator_UnionAndIntersection(t *testing.T) {
	op, err := ParseOperator("0|1|2")
	if err != nil {
		t.Fatalf("ParseOperator returned error: %v", err)
	}
	if op.Kind != OpUnion || len(op.Children) != 3 {
		t.Fatalf("unexpected union parse: %+v", op)
	}
	for _, code := range []int{0, 1, 2} {
		if !op.Matches(code) {
			t.Errorf("union %+v should match %d", op, code)
		}
	}
	if op.Matches(3) {
		t.Errorf("union %+v should not match 3", op)
	}

	inter, err := ParseOperator("0+Success")
	if err != nil {
		t.Fatalf("ParseOperator returned error: %v", err)
	}
	if inter.Kind != OpIntersection || len(inter.Children) != 2 {
		t.Fatalf("unexpected intersection parse: %+v", inter)
	}
	if !inter.Matches(0) {
		t.Errorf("intersection %+v should match 0", inter)
	}
	if inter.Matches(1) {
		t.Errorf("intersection %+v should not match 1", inter)
	}
}

func TestParseOperator_Invalid(t *testing.T) {
	if _, err := ParseOperator("banana"); err == nil {
		t.Fatal("expected error for unrecognized operator")
	}
	if _, err := ParseOperator("!notanumber"); err == nil {
		t.Fatal("expected error for malformed NotExitCode operator")
	}
}

func TestParse_MalformedBlockErrors(t *testing.T) {
	if _, err := Parse("a { 0 => b"); err == nil {
		t.Fatal("expected error for unterminated block")
	}
	if _, err := Parse("a { 0 -> b }"); err == nil {
		t.Fatal("expected error for missing arrow")
	}
}
