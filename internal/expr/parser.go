package expr

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/viant/parsly"
)

// Parse compiles an equation string. The grammar covers the interchange
// format's expression surface: arithmetic with ^ for exponentiation,
// unary minus, parentheses, comparisons (< <= > >= = <>), numeric
// literals, name references, and function calls.
func Parse(input string) (*Expr, error) {
	p := &parser{
		cursor: parsly.NewCursor("", []byte(input), 0),
		refs:   make(map[string]bool),
		calls:  make(map[string]bool),
	}

	root, err := p.parseComparison()
	if err != nil {
		return nil, err
	}

	p.cursor.MatchOne(whitespaceToken)
	if p.cursor.Pos < p.cursor.InputSize {
		return nil, fmt.Errorf("expr: unexpected input at offset %d in %q", p.cursor.Pos, input)
	}

	return &Expr{
		src:   input,
		root:  root,
		refs:  sortedKeys(p.refs),
		calls: sortedKeys(p.calls),
	}, nil
}

// MustParse is a test and fixture helper; it panics on parse failure.
func MustParse(input string) *Expr {
	e, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return e
}

type parser struct {
	cursor *parsly.Cursor
	refs   map[string]bool
	calls  map[string]bool
}

func (p *parser) match(candidates ...*parsly.Token) *parsly.TokenMatch {
	p.cursor.MatchOne(whitespaceToken)
	return p.cursor.MatchAny(candidates...)
}

func (p *parser) parseComparison() (node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for {
		// matched points at the cursor's shared lastMatch, which nested
		// parse calls overwrite; capture the code before recursing.
		op := p.match(lessEqualToken, greaterEqualToken, notEqualToken, lessToken, greaterToken, equalToken).Code
		switch op {
		case lessEqualCode, greaterEqualCode, notEqualCode, lessCode, greaterCode, equalCode:
			right, err := p.parseAdditive()
			if err != nil {
				return nil, err
			}
			left = &binNode{op: op, l: left, r: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseAdditive() (node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for {
		op := p.match(plusToken, minusToken).Code
		switch op {
		case plusCode, minusCode:
			right, err := p.parseMultiplicative()
			if err != nil {
				return nil, err
			}
			left = &binNode{op: op, l: left, r: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseMultiplicative() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.match(starToken, slashToken).Code
		switch op {
		case starCode, slashCode:
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = &binNode{op: op, l: left, r: right}
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (node, error) {
	matched := p.match(minusToken, plusToken)
	switch matched.Code {
	case minusCode:
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &negNode{x: x}, nil
	case plusCode:
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower is right-associative: a^b^c = a^(b^c).
func (p *parser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	matched := p.match(caretToken)
	if matched.Code != caretCode {
		return base, nil
	}
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &binNode{op: caretCode, l: base, r: exp}, nil
}

func (p *parser) parsePrimary() (node, error) {
	matched := p.match(numberToken, identifierToken, openParenToken)
	switch matched.Code {
	case numberCode:
		text := matched.Text(p.cursor)
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: bad number %q: %w", text, err)
		}
		return numNode(v), nil

	case identifierCode:
		name := matched.Text(p.cursor)
		paren := p.match(openParenToken)
		if paren.Code != openParenCode {
			p.refs[name] = true
			return refNode(name), nil
		}
		return p.parseCall(name)

	case openParenCode:
		inner, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		closing := p.match(closeParenToken)
		if closing.Code != closeParenCode {
			return nil, p.cursor.NewError(closeParenToken)
		}
		return inner, nil
	}
	return nil, fmt.Errorf("expr: expected number, name or ( at offset %d", p.cursor.Pos)
}

func (p *parser) parseCall(name string) (node, error) {
	p.calls[name] = true
	call := &callNode{name: name}

	closing := p.match(closeParenToken)
	if closing.Code == closeParenCode {
		return call, nil
	}

	for {
		arg, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		call.args = append(call.args, arg)

		matched := p.match(commaToken, closeParenToken)
		switch matched.Code {
		case commaCode:
			continue
		case closeParenCode:
			return call, nil
		default:
			return nil, p.cursor.NewError(closeParenToken)
		}
	}
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
