package expr

import (
	"github.com/viant/parsly"
	"github.com/viant/parsly/matcher"
)

// Token codes
const (
	whitespaceCode = iota
	numberCode
	identifierCode
	plusCode
	minusCode
	starCode
	slashCode
	caretCode
	openParenCode
	closeParenCode
	commaCode
	lessEqualCode
	greaterEqualCode
	notEqualCode
	lessCode
	greaterCode
	equalCode
)

// Token definitions. Multi-byte comparison tokens must be matched before
// their single-byte prefixes.
var (
	whitespaceToken   = parsly.NewToken(whitespaceCode, "Whitespace", matcher.NewWhiteSpace())
	numberToken       = parsly.NewToken(numberCode, "Number", newNumberMatcher())
	identifierToken   = parsly.NewToken(identifierCode, "Identifier", newIdentifierMatcher())
	plusToken         = parsly.NewToken(plusCode, "+", matcher.NewByte('+'))
	minusToken        = parsly.NewToken(minusCode, "-", matcher.NewByte('-'))
	starToken         = parsly.NewToken(starCode, "*", matcher.NewByte('*'))
	slashToken        = parsly.NewToken(slashCode, "/", matcher.NewByte('/'))
	caretToken        = parsly.NewToken(caretCode, "^", matcher.NewByte('^'))
	openParenToken    = parsly.NewToken(openParenCode, "(", matcher.NewByte('('))
	closeParenToken   = parsly.NewToken(closeParenCode, ")", matcher.NewByte(')'))
	commaToken        = parsly.NewToken(commaCode, ",", matcher.NewByte(','))
	lessEqualToken    = parsly.NewToken(lessEqualCode, "<=", matcher.NewFragment("<="))
	greaterEqualToken = parsly.NewToken(greaterEqualCode, ">=", matcher.NewFragment(">="))
	notEqualToken     = parsly.NewToken(notEqualCode, "<>", matcher.NewFragment("<>"))
	lessToken         = parsly.NewToken(lessCode, "<", matcher.NewByte('<'))
	greaterToken      = parsly.NewToken(greaterCode, ">", matcher.NewByte('>'))
	equalToken        = parsly.NewToken(equalCode, "=", matcher.NewByte('='))
)

func newNumberMatcher() parsly.Matcher {
	return &numberMatcher{}
}

func newIdentifierMatcher() parsly.Matcher {
	return &identifierMatcher{}
}

// numberMatcher matches decimal literals with optional fraction and
// exponent (1, 0.5, 1e-6, 2.5E3).
type numberMatcher struct{}

func (m *numberMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size || !isDigit(input[pos]) {
		return 0
	}

	matched := 0
	i := pos
	for i < size && isDigit(input[i]) {
		i++
		matched++
	}
	if i < size && input[i] == '.' {
		if i+1 >= size || !isDigit(input[i+1]) {
			return matched
		}
		i++
		matched++
		for i < size && isDigit(input[i]) {
			i++
			matched++
		}
	}
	if i < size && (input[i] == 'e' || input[i] == 'E') {
		j := i + 1
		if j < size && (input[j] == '+' || input[j] == '-') {
			j++
		}
		if j < size && isDigit(input[j]) {
			matched += j - i
			i = j
			for i < size && isDigit(input[i]) {
				i++
				matched++
			}
		}
	}
	return matched
}

// identifierMatcher matches variable/function names.
type identifierMatcher struct{}

func (m *identifierMatcher) Match(cursor *parsly.Cursor) int {
	input := cursor.Input
	pos := cursor.Pos
	size := cursor.InputSize

	if pos >= size {
		return 0
	}
	if !isLetter(input[pos]) && input[pos] != '_' {
		return 0
	}

	matched := 1
	for i := pos + 1; i < size; i++ {
		if isLetter(input[i]) || isDigit(input[i]) || input[i] == '_' {
			matched++
			continue
		}
		break
	}
	return matched
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
