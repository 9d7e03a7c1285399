package expr

import (
	"strconv"
	"strings"
)

type Kind int

const (
	Number Kind = iota
	Ident
	Operator
	Function
	LParen
	RParen
)

func (k Kind) String() string {
	switch k {
	case Number:
		return "number"
	case Ident:
		return "ident"
	case Operator:
		return "operator"
	case Function:
		return "function"
	case LParen:
		return "("
	case RParen:
		return ")"
	default:
		return "unknown"
	}
}

// Token is one lexical unit. Value is set for Number tokens only.
type Token struct {
	Kind  Kind
	Text  string
	Value float64
	Pos   int
}

func (t Token) String() string {
	if t.Kind == Number {
		return strconv.FormatFloat(t.Value, 'g', -1, 64)
	}
	return t.Text
}

// negation is emitted for a '-' in operand position that is not part of a literal.
const negation = "neg"

var functions = map[string]bool{
	"sqrt":   true,
	"log":    true,
	"ln":     true,
	"sin":    true,
	"cos":    true,
	negation: true,
}

// priority follows the classic table: functions bind tightest, then ^, then
// multiplicative, then additive. Negation ranks with * and / so that -x^2
// is -(x^2). Parentheses and unknown tokens rank lowest.
func priority(t Token) int {
	switch t.Kind {
	case Function:
		if t.Text == negation {
			return 2
		}
		return 4
	case Operator:
		switch t.Text {
		case "^":
			return 3
		case "*", "/":
			return 2
		case "+", "-":
			return 1
		}
	}
	return -1
}

// Tokenize splits src into tokens. Whitespace is optional between tokens.
func Tokenize(src string) ([]Token, error) {
	tokens := make([]Token, 0, len(src)/2)
	expectOperand := true

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++

		case isDigit(c) || c == '.':
			tok, n, err := lexNumber(src, i, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
			i = n
			expectOperand = false

		case c == '-' && expectOperand:
			if i+1 < len(src) && (isDigit(src[i+1]) || src[i+1] == '.') {
				tok, n, err := lexNumber(src, i, i+1)
				if err != nil {
					return nil, err
				}
				tokens = append(tokens, tok)
				i = n
				expectOperand = false
				continue
			}
			tokens = append(tokens, Token{Kind: Function, Text: negation, Pos: i})
			i++

		case c == '+' && expectOperand:
			// unary plus is a no-op
			i++

		case strings.IndexByte("+-*/^", c) >= 0:
			tokens = append(tokens, Token{Kind: Operator, Text: string(c), Pos: i})
			i++
			expectOperand = true

		case c == '(':
			tokens = append(tokens, Token{Kind: LParen, Text: "(", Pos: i})
			i++
			expectOperand = true

		case c == ')':
			tokens = append(tokens, Token{Kind: RParen, Text: ")", Pos: i})
			i++
			expectOperand = false

		case isLetter(c):
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			word := src[start:i]
			if functions[word] && word != negation {
				tokens = append(tokens, Token{Kind: Function, Text: word, Pos: start})
				expectOperand = true
			} else {
				tokens = append(tokens, Token{Kind: Ident, Text: word, Pos: start})
				expectOperand = false
			}

		default:
			return nil, &SyntaxError{Pos: i, Token: string(c), Err: ErrMalformedExpression}
		}
	}

	if len(tokens) == 0 {
		return nil, &SyntaxError{Pos: 0, Token: src, Err: ErrMalformedExpression}
	}
	return tokens, nil
}

// lexNumber scans a literal starting at digits; start includes a leading sign if any.
func lexNumber(src string, start, digits int) (Token, int, error) {
	i := digits
	for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
		i++
	}
	// exponent only when digits follow; "2e" is a literal next to variable e
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		j := i + 1
		if j < len(src) && (src[j] == '+' || src[j] == '-') {
			j++
		}
		if j < len(src) && isDigit(src[j]) {
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			i = j
		}
	}

	text := src[start:i]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return Token{}, 0, &SyntaxError{Pos: start, Token: text, Err: ErrMalformedExpression}
	}
	return Token{Kind: Number, Text: text, Value: v, Pos: start}, i, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' }
