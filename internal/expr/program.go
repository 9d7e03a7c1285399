package expr

import (
	"fmt"
	"math"
)

// MaxAux is the number of positional state variables (a..j).
const MaxAux = 10

const (
	slotX = iota
	slotZ
	slotTime
	slotAux
	numSlots = slotAux + MaxAux
)

const auxNames = "abcdefghij"

// lookup resolves an identifier in the symbol table.
func lookup(name string) (slot int, constant float64, isConst, ok bool) {
	switch name {
	case "x":
		return slotX, 0, false, true
	case "y", "z":
		return slotZ, 0, false, true
	case "time":
		return slotTime, 0, false, true
	case "E":
		return 0, math.E, true, true
	}
	if len(name) == 1 {
		for i := 0; i < MaxAux; i++ {
			if name[0] == auxNames[i] {
				return slotAux + i, 0, false, true
			}
		}
	}
	return 0, 0, false, false
}

// Bindings maps variable names to values for [Substitute] and [CompileAndEval].
type Bindings map[string]float64

// BindState binds values positionally to a, b, c, ... Values past the tenth are ignored.
func BindState(values ...float64) Bindings {
	b := make(Bindings, len(values))
	for i, v := range values {
		if i >= MaxAux {
			break
		}
		b[auxNames[i:i+1]] = v
	}
	return b
}

func (b Bindings) value(name string) (float64, bool) {
	if v, ok := b[name]; ok {
		return v, true
	}
	// the second ground axis answers to either name
	switch name {
	case "y":
		v, ok := b["z"]
		return v, ok
	case "z":
		v, ok := b["y"]
		return v, ok
	}
	return 0, false
}

// Substitute replaces every identifier token with a numeric literal taken
// from the symbol table: time, E, and the caller's bindings.
func Substitute(tokens []Token, b Bindings, time float64) ([]Token, error) {
	out := make([]Token, len(tokens))
	for i, tok := range tokens {
		if tok.Kind != Ident {
			out[i] = tok
			continue
		}

		_, constant, isConst, known := lookup(tok.Text)
		if !known {
			return nil, &SyntaxError{Pos: tok.Pos, Token: tok.Text, Err: ErrUnknownSymbol}
		}

		var v float64
		switch {
		case isConst:
			v = constant
		case tok.Text == "time":
			v = time
		default:
			bound, ok := b.value(tok.Text)
			if !ok {
				return nil, &SyntaxError{Pos: tok.Pos, Token: tok.Text, Err: fmt.Errorf("%w: unbound variable", ErrUnknownSymbol)}
			}
			v = bound
		}
		out[i] = Token{Kind: Number, Text: tok.Text, Value: v, Pos: tok.Pos}
	}
	return out, nil
}

// Env supplies variable values to a compiled [Program].
type Env struct {
	X    float64
	Z    float64
	Time float64
	Aux  []float64
}

// Program is a compiled formula: postfix code with identifiers resolved to slots.
type Program struct {
	src     string
	code    []instr
	auxUsed int
}

// Compile tokenizes and converts src once so it can be evaluated many times.
func Compile(src string) (*Program, error) {
	tokens, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	rpn, err := ToPostfix(tokens)
	if err != nil {
		return nil, err
	}

	p := &Program{src: src, code: make([]instr, 0, len(rpn))}
	for _, tok := range rpn {
		switch tok.Kind {
		case Number:
			p.code = append(p.code, instr{op: opPush, val: tok.Value, name: tok.Text})
		case Ident:
			slot, constant, isConst, ok := lookup(tok.Text)
			if !ok {
				return nil, &SyntaxError{Pos: tok.Pos, Token: tok.Text, Err: ErrUnknownSymbol}
			}
			if isConst {
				p.code = append(p.code, instr{op: opPush, val: constant, name: tok.Text})
				continue
			}
			if slot >= slotAux && slot-slotAux+1 > p.auxUsed {
				p.auxUsed = slot - slotAux + 1
			}
			p.code = append(p.code, instr{op: opLoad, slot: slot, name: tok.Text})
		default:
			p.code = append(p.code, instr{op: opcodes[tok.Text], name: tok.Text})
		}
	}
	return p, nil
}

// MustCompile is like Compile but panics on error. Intended for constants in tests and presets.
func MustCompile(src string) *Program {
	p, err := Compile(src)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Program) String() string { return p.src }

// AuxUsed reports how many positional state variables the program reads.
func (p *Program) AuxUsed() int { return p.auxUsed }

// Eval evaluates the program against env.
func (p *Program) Eval(env Env) (float64, error) {
	if len(env.Aux) < p.auxUsed {
		return 0, fmt.Errorf("%w: %q needs %d state variables, got %d", ErrUnknownSymbol, p.src, p.auxUsed, len(env.Aux))
	}

	var slots [numSlots]float64
	slots[slotX] = env.X
	slots[slotZ] = env.Z
	slots[slotTime] = env.Time
	for i := 0; i < len(env.Aux) && i < MaxAux; i++ {
		slots[slotAux+i] = env.Aux[i]
	}
	return run(p.code, &slots)
}

// CompileAndEval substitutes bindings into formula, converts it to postfix
// and evaluates it in one call.
func CompileAndEval(formula string, b Bindings, time float64) (float64, error) {
	tokens, err := Tokenize(formula)
	if err != nil {
		return 0, err
	}
	tokens, err = Substitute(tokens, b, time)
	if err != nil {
		return 0, err
	}
	rpn, err := ToPostfix(tokens)
	if err != nil {
		return 0, err
	}

	code := make([]instr, 0, len(rpn))
	for _, tok := range rpn {
		if tok.Kind == Number {
			code = append(code, instr{op: opPush, val: tok.Value, name: tok.Text})
			continue
		}
		code = append(code, instr{op: opcodes[tok.Text], name: tok.Text})
	}
	return run(code, nil)
}
