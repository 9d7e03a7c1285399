package expr

import (
	"fmt"
	"math"
	"strconv"
)

// ToPostfix reorders infix tokens into postfix (RPN) order with the
// shunting-yard algorithm. Operators of equal priority associate left,
// so "2 ^ 3 ^ 2" is (2^3)^2.
func ToPostfix(tokens []Token) ([]Token, error) {
	out := make([]Token, 0, len(tokens))
	ops := make([]Token, 0, 8)

	for _, tok := range tokens {
		switch tok.Kind {
		case Number, Ident:
			out = append(out, tok)

		case LParen:
			ops = append(ops, tok)

		case RParen:
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.Kind == LParen {
					matched = true
					break
				}
				out = append(out, top)
			}
			if !matched {
				return nil, &SyntaxError{Pos: tok.Pos, Token: ")", Err: fmt.Errorf("%w: unmatched parenthesis", ErrMalformedExpression)}
			}

		case Function:
			// prefix: its operand has not been read yet
			ops = append(ops, tok)

		default:
			p := priority(tok)
			for len(ops) > 0 && priority(ops[len(ops)-1]) >= p {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		}
	}

	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.Kind == LParen {
			return nil, &SyntaxError{Pos: top.Pos, Token: "(", Err: fmt.Errorf("%w: unmatched parenthesis", ErrMalformedExpression)}
		}
		out = append(out, top)
	}

	return out, nil
}

type opcode uint8

const (
	opPush opcode = iota
	opLoad
	opAdd
	opSub
	opMul
	opDiv
	opPow
	opSqrt
	opLog
	opLn
	opSin
	opCos
	opNeg
)

type instr struct {
	op   opcode
	val  float64
	slot int
	name string
}

var opcodes = map[string]opcode{
	"+":      opAdd,
	"-":      opSub,
	"*":      opMul,
	"/":      opDiv,
	"^":      opPow,
	"sqrt":   opSqrt,
	"log":    opLog,
	"ln":     opLn,
	"sin":    opSin,
	"cos":    opCos,
	negation: opNeg,
}

func (op opcode) arity() int {
	switch op {
	case opPush, opLoad:
		return 0
	case opAdd, opSub, opMul, opDiv, opPow:
		return 2
	default:
		return 1
	}
}

const degToRad = math.Pi / 180

// run executes code against slots with a single value stack.
func run(code []instr, slots *[numSlots]float64) (float64, error) {
	var buf [32]float64
	stack := buf[:0]

	for _, in := range code {
		if n := in.op.arity(); len(stack) < n {
			return 0, fmt.Errorf("%w for %q", ErrInsufficientOperands, in.name)
		}

		switch in.op {
		case opPush:
			stack = append(stack, in.val)
		case opLoad:
			stack = append(stack, slots[in.slot])
		case opAdd, opSub, opMul, opDiv, opPow:
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			stack = stack[:len(stack)-2]
			var v float64
			switch in.op {
			case opAdd:
				v = left + right
			case opSub:
				v = left - right
			case opMul:
				v = left * right
			case opDiv:
				v = left / right
			case opPow:
				v = math.Pow(left, right)
			}
			stack = append(stack, v)
		default:
			top := &stack[len(stack)-1]
			switch in.op {
			case opSqrt:
				*top = math.Sqrt(*top)
			case opLog, opLn:
				if *top <= 0 {
					return 0, fmt.Errorf("%w: %s(%g)", ErrDomain, in.name, *top)
				}
				if in.op == opLog {
					*top = math.Log10(*top)
				} else {
					*top = math.Log(*top)
				}
			case opSin:
				*top = math.Sin(*top * degToRad)
			case opCos:
				*top = math.Cos(*top * degToRad)
			case opNeg:
				*top = -*top
			}
		}
	}

	if len(stack) != 1 {
		return 0, fmt.Errorf("%w: %d values left on stack", ErrMalformedExpression, len(stack))
	}
	return stack[0], nil
}

// EvalPostfix evaluates a postfix token sequence made of numeric literals,
// operators and function names.
func EvalPostfix(rpn []string) (float64, error) {
	code := make([]instr, 0, len(rpn))
	for i, text := range rpn {
		if op, ok := opcodes[text]; ok {
			code = append(code, instr{op: op, name: text})
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, &SyntaxError{Pos: i, Token: text, Err: ErrMalformedExpression}
		}
		code = append(code, instr{op: opPush, val: v, name: text})
	}
	return run(code, nil)
}
