// Package directive implements the Bones directive mini-language: a
// parser that turns a human-written order expression (spec.md §4.4) into
// a BonesDirective tree, plus the operator matching logic an execution
// engine uses to walk that tree against real exit codes.
package directive

import (
	"strconv"
	"strings"

	"github.com/bonnierun/bonnie/internal/bonerr"
)

// OperatorKind identifies which exit-code predicate an Operator is.
type OperatorKind int

const (
	OpExitCode OperatorKind = iota
	OpNotExitCode
	OpSuccess
	OpFailure
	OpAny
	OpNone
	OpUnion
	OpIntersection
)

// Operator is a predicate over an exit code.
type Operator struct {
	Kind     OperatorKind
	Code     int        // meaningful for OpExitCode / OpNotExitCode
	Children []Operator // meaningful for OpUnion / OpIntersection
}

// Matches reports whether code satisfies this operator.
func (o Operator) Matches(code int) bool {
	switch o.Kind {
	case OpSuccess:
		return code == 0
	case OpFailure:
		return code != 0
	case OpExitCode:
		return code == o.Code
	case OpNotExitCode:
		return code != o.Code
	case OpAny:
		return true
	case OpNone:
		return false
	case OpUnion:
		for _, child := range o.Children {
			if child.Matches(code) {
				return true
			}
		}
		return false
	case OpIntersection:
		for _, child := range o.Children {
			if !child.Matches(code) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Branch is one arm of a directive's branch set: an operator and the
// directive to continue with when it matches.
type Branch struct {
	Source string // the raw operator text, used for dedup and canonical ordering
	Op     Operator
	Next   *Directive // Parse always sets it; a leaf target has no branches
}

// Directive is a parsed Bones order expression: "run Command, then for
// each branch whose operator matches the exit code, continue with Next
// if present."
type Directive struct {
	Command  string
	Branches []Branch
}

// Parse parses a directive string into a Directive tree.
//
// Two shapes are recognized: if the text contains no '{' at all, it is
// the bare form — the whole (trimmed) text is the command name with no
// branches. Otherwise it is the block form described in spec.md §4.4.
// The bare form is handled before lexing, so its trimmed text is taken
// as the name as-is; only the block form goes through the lexer and
// parser.
func Parse(text string) (*Directive, error) {
	if !strings.Contains(text, "{") {
		name := strings.TrimSpace(text)
		if name == "" {
			return nil, bonerr.New(bonerr.KindDirectiveParse, "empty directive")
		}
		return &Directive{Command: name}, nil
	}

	p := &parser{lex: newLexer(text)}
	p.advance()
	d, _, err := p.parseDirective()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, bonerr.Newf(bonerr.KindDirectiveParse, "unexpected trailing token %q after directive", p.tok.text)
	}
	return d, nil
}

type parser struct {
	lex *lexer
	tok token
}

func (p *parser) advance() {
	p.tok = p.lex.next()
}

func (p *parser) expect(kind tokenKind, what string) (token, error) {
	if p.tok.kind != kind {
		return token{}, bonerr.Newf(bonerr.KindDirectiveParse, "expected %s, got %q", what, p.tok.text)
	}
	t := p.tok
	p.advance()
	return t, nil
}

// parseDirective := IDENT Block?
func (p *parser) parseDirective() (*Directive, bool, error) {
	name, err := p.expect(tokIdent, "command name")
	if err != nil {
		return nil, false, err
	}
	d := &Directive{Command: name.text}
	if p.tok.kind == tokLBrace {
		branches, err := p.parseBlock()
		if err != nil {
			return nil, false, err
		}
		d.Branches = branches
		return d, true, nil
	}
	return d, false, nil
}

// parseBlock := '{' Branch* '}'
func (p *parser) parseBlock() ([]Branch, error) {
	if _, err := p.expect(tokLBrace, "'{'"); err != nil {
		return nil, err
	}

	var branches []Branch
	index := make(map[string]int) // operator source text -> position in branches

	for p.tok.kind != tokRBrace {
		if p.tok.kind == tokEOF {
			return nil, bonerr.New(bonerr.KindDirectiveParse, "unterminated directive block, expected '}'")
		}
		branch, err := p.parseBranch()
		if err != nil {
			return nil, err
		}
		if i, dup := index[branch.Source]; dup {
			// Duplicate operator within the same branch set: last wins.
			branches[i] = branch
		} else {
			index[branch.Source] = len(branches)
			branches = append(branches, branch)
		}
	}
	if _, err := p.expect(tokRBrace, "'}'"); err != nil {
		return nil, err
	}
	return branches, nil
}

// parseBranch := IDENT '=>' IDENT Block?
func (p *parser) parseBranch() (Branch, error) {
	opTok, err := p.expect(tokIdent, "operator")
	if err != nil {
		return Branch{}, err
	}
	if _, err := p.expect(tokArrow, "'=>'"); err != nil {
		return Branch{}, err
	}
	target, _, err := p.parseDirective()
	if err != nil {
		return Branch{}, err
	}
	op, err := ParseOperator(opTok.text)
	if err != nil {
		return Branch{}, err
	}

	// A leaf target ("Any => other") becomes a Directive with no branches,
	// so the engine still runs it.
	return Branch{Source: opTok.text, Op: op, Next: target}, nil
}

// ParseOperator parses a single operator term per spec.md §4.4: decimal
// integers, "!"-prefixed integers, the four nullary keywords, and
// "|"/"+"-separated lists. A term is split on "|" first and each part is
// parsed recursively, so "0|1+2" is a union whose second member is an
// intersection.
func ParseOperator(raw string) (Operator, error) {
	if strings.Contains(raw, "|") {
		parts := strings.Split(raw, "|")
		children := make([]Operator, 0, len(parts))
		for _, part := range parts {
			child, err := ParseOperator(part)
			if err != nil {
				return Operator{}, err
			}
			children = append(children, child)
		}
		return Operator{Kind: OpUnion, Children: children}, nil
	}
	if strings.Contains(raw, "+") {
		parts := strings.Split(raw, "+")
		children := make([]Operator, 0, len(parts))
		for _, part := range parts {
			child, err := ParseOperator(part)
			if err != nil {
				return Operator{}, err
			}
			children = append(children, child)
		}
		return Operator{Kind: OpIntersection, Children: children}, nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Operator{Kind: OpExitCode, Code: n}, nil
	}
	if strings.HasPrefix(raw, "!") {
		n, err := strconv.Atoi(raw[1:])
		if err != nil {
			return Operator{}, bonerr.Newf(bonerr.KindDirectiveParse, "couldn't parse exit code from NotExitCode operator %q", raw)
		}
		return Operator{Kind: OpNotExitCode, Code: n}, nil
	}
	switch raw {
	case "Success":
		return Operator{Kind: OpSuccess}, nil
	case "Failure":
		return Operator{Kind: OpFailure}, nil
	case "Any":
		return Operator{Kind: OpAny}, nil
	case "None":
		return Operator{Kind: OpNone}, nil
	default:
		return Operator{}, bonerr.Newf(bonerr.KindDirectiveParse, "unrecognized operator %q in Bones directive", raw)
	}
}
