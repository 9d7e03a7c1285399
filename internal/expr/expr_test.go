package expr

import (
	"errors"
	"math"
	"testing"
)

func TestCompileAndEval(t *testing.T) {
	tests := []struct {
		name     string
		formula  string
		bindings Bindings
		time     float64
		want     float64
	}{
		{"precedence", "1 + 2 * 3", nil, 0, 7},
		{"no spaces", "1+2*3", nil, 0, 7},
		{"sqrt", " sqrt ( 16 ) ", nil, 0, 4},
		{"power left to right", " 2 ^ 3 ^ 2 ", nil, 0, 64},
		{"power over product", "2 * 3 ^ 2", nil, 0, 18},
		{"subtraction order", "10 - 4 - 3", nil, 0, 3},
		{"division order", "100 / 10 / 5", nil, 0, 2},
		{"parens", "( 1 + 2 ) * 3", nil, 0, 9},
		{"negative literal", "-6 + 2", nil, 0, -4},
		{"negative operand", "2 * -3", nil, 0, -6},
		{"negated group", "- ( 2 + 3 )", nil, 0, -5},
		{"negation below power", "-a ^ 2", BindState(3), 0, -9},
		{"hill", "-x^2 + 10", Bindings{"x": 3}, 0, 1},
		{"negated product", "-a * 2", BindState(3), 0, -6},
		{"negated sin", "-sin(30)", nil, 0, -0.5},
		{"negated sqrt", "- sqrt ( 4 )", nil, 0, -2},
		{"double negation", "- -a", BindState(3), 0, 3},
		{"divide by negated power", "8 / -a ^ 2", BindState(2), 0, -2},
		{"nested functions", "sqrt ( sqrt ( 16 ) )", nil, 0, 2},
		{"sin degrees", "sin ( 30 )", nil, 0, 0.5},
		{"cos degrees", "cos ( 60 )", nil, 0, 0.5},
		{"ln of E", "ln ( E )", nil, 0, 1},
		{"log base 10", "log ( 1000 )", nil, 0, 3},
		{"state vars", "a * b + c", BindState(2, 3, 4), 0, 10},
		{"time", "time * 2", nil, 1.5, 3},
		{"ground vars", "x + y", Bindings{"x": 1, "z": 2}, 0, 3},
		{"var inside function name", "cos ( c )", BindState(0, 0, 60), 0, 0.5},
		{"exponent literal", "1e-3 * 1000", nil, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompileAndEval(tt.formula, tt.bindings, tt.time)
			if err != nil {
				t.Fatalf("CompileAndEval(%q) failed: %v", tt.formula, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CompileAndEval(%q) = %v, want %v", tt.formula, got, tt.want)
			}
		})
	}
}

func TestProgramMatchesDirectEvaluation(t *testing.T) {
	a, b, c, d := 1.5, -2.0, 3.0, 4.0
	tests := []struct {
		formula string
		want    float64
	}{
		{"a * b - c / d + a ^ 2", a*b - c/d + math.Pow(a, 2)},
		{"( a + b ) * ( c - d )", (a + b) * (c - d)},
		{"a / b / c", a / b / c},
		{"a - b + c - d", a - b + c - d},
		{"a ^ c / d", math.Pow(a, c) / d},
		{"d - c * b ^ 2", d - c*math.Pow(b, 2)},
	}

	for _, tt := range tests {
		p, err := Compile(tt.formula)
		if err != nil {
			t.Fatalf("Compile(%q) failed: %v", tt.formula, err)
		}
		got, err := p.Eval(Env{Aux: []float64{a, b, c, d}})
		if err != nil {
			t.Fatalf("Eval(%q) failed: %v", tt.formula, err)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Eval(%q) = %v, want %v", tt.formula, got, tt.want)
		}

		viaText, err := CompileAndEval(tt.formula, BindState(a, b, c, d), 0)
		if err != nil {
			t.Fatalf("CompileAndEval(%q) failed: %v", tt.formula, err)
		}
		if viaText != got {
			t.Errorf("compiled %v and substituted %v disagree for %q", got, viaText, tt.formula)
		}
	}
}

func TestToPostfix(t *testing.T) {
	tests := []struct {
		formula string
		want    []string
	}{
		{"1 + 2 * 3", []string{"1", "2", "3", "*", "+"}},
		{"( 1 + 2 ) * 3", []string{"1", "2", "+", "3", "*"}},
		{"2 ^ 3 ^ 2", []string{"2", "3", "^", "2", "^"}},
		{"sqrt ( 16 ) + 1", []string{"16", "sqrt", "1", "+"}},
		{"-x ^ 2", []string{"x", "2", "^", "neg"}},
		{"-sin ( 30 )", []string{"30", "sin", "neg"}},
		{"2 * -x", []string{"2", "x", "neg", "*"}},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.formula)
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.formula, err)
		}
		rpn, err := ToPostfix(tokens)
		if err != nil {
			t.Fatalf("ToPostfix(%q) failed: %v", tt.formula, err)
		}
		if len(rpn) != len(tt.want) {
			t.Fatalf("ToPostfix(%q) = %v, want %v", tt.formula, rpn, tt.want)
		}
		for i := range rpn {
			if rpn[i].String() != tt.want[i] {
				t.Errorf("ToPostfix(%q)[%d] = %q, want %q", tt.formula, i, rpn[i].String(), tt.want[i])
			}
		}
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		src   string
		kinds []Kind
	}{
		{"2*x", []Kind{Number, Operator, Ident}},
		{"3-2", []Kind{Number, Operator, Number}},
		{"-x", []Kind{Function, Ident}},
		{"1e-3", []Kind{Number}},
		{"2e", []Kind{Number, Ident}},
		{"sin(x)", []Kind{Function, LParen, Ident, RParen}},
		{"( -2 )", []Kind{LParen, Number, RParen}},
	}

	for _, tt := range tests {
		tokens, err := Tokenize(tt.src)
		if err != nil {
			t.Fatalf("Tokenize(%q) failed: %v", tt.src, err)
		}
		if len(tokens) != len(tt.kinds) {
			t.Fatalf("Tokenize(%q) = %v, want kinds %v", tt.src, tokens, tt.kinds)
		}
		for i, tok := range tokens {
			if tok.Kind != tt.kinds[i] {
				t.Errorf("Tokenize(%q)[%d] kind = %v, want %v", tt.src, i, tok.Kind, tt.kinds[i])
			}
		}
	}
}

func TestSubstitute(t *testing.T) {
	tokens, err := Tokenize("a + time * E")
	if err != nil {
		t.Fatal(err)
	}
	out, err := Substitute(tokens, BindState(2), 3)
	if err != nil {
		t.Fatalf("Substitute failed: %v", err)
	}
	for _, tok := range out {
		if tok.Kind == Ident {
			t.Errorf("identifier %q survived substitution", tok.Text)
		}
	}
	if out[0].Value != 2 || out[2].Value != 3 || out[4].Value != math.E {
		t.Errorf("unexpected substituted values: %v", out)
	}

	if _, err := Substitute(tokens, Bindings{}, 0); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected ErrUnknownSymbol for unbound a, got %v", err)
	}
}

func TestEvalPostfixErrors(t *testing.T) {
	tests := []struct {
		name string
		rpn  []string
		want error
	}{
		{"lone operator", []string{"+"}, ErrInsufficientOperands},
		{"one operand for binary", []string{"1", "*"}, ErrInsufficientOperands},
		{"function on empty stack", []string{"ln", "-1"}, ErrInsufficientOperands},
		{"log of negative", []string{"-1", "ln"}, ErrDomain},
		{"log of zero", []string{"0", "log"}, ErrDomain},
		{"residual values", []string{"1", "2"}, ErrMalformedExpression},
		{"empty", []string{}, ErrMalformedExpression},
		{"unknown token", []string{"1", "foo"}, ErrMalformedExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvalPostfix(tt.rpn)
			if !errors.Is(err, tt.want) {
				t.Errorf("EvalPostfix(%v) error = %v, want %v", tt.rpn, err, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		formula string
		want    error
	}{
		{"( 1 + 2", ErrMalformedExpression},
		{"1 + 2 )", ErrMalformedExpression},
		{"1 + q", ErrUnknownSymbol},
		{"1 $ 2", ErrMalformedExpression},
		{"", ErrMalformedExpression},
	}

	for _, tt := range tests {
		_, err := Compile(tt.formula)
		if !errors.Is(err, tt.want) {
			t.Errorf("Compile(%q) error = %v, want %v", tt.formula, err, tt.want)
		}
		var se *SyntaxError
		if !errors.As(err, &se) {
			t.Errorf("Compile(%q) error %T is not a *SyntaxError", tt.formula, err)
		}
	}
}

func TestProgramEvalErrors(t *testing.T) {
	p := MustCompile("f + 1")
	if _, err := p.Eval(Env{Aux: []float64{1, 2}}); !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("expected unbound state variable error, got %v", err)
	}
	if p.AuxUsed() != 6 {
		t.Errorf("AuxUsed() = %d, want 6", p.AuxUsed())
	}

	p = MustCompile("ln ( x )")
	if _, err := p.Eval(Env{X: 0}); !errors.Is(err, ErrDomain) {
		t.Errorf("expected ErrDomain, got %v", err)
	}
	if _, err := p.Eval(Env{X: math.E}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPartials(t *testing.T) {
	points := [][2]float64{{0, 0}, {1, -2}, {-3.5, 7}, {40, 40}}
	for _, pt := range points {
		dx, err := PartialX("x", pt[0], pt[1])
		if err != nil {
			t.Fatal(err)
		}
		dz, err := PartialZ("x", pt[0], pt[1])
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(dx-1) > 1e-6 {
			t.Errorf("∂x/∂x at %v = %v, want 1", pt, dx)
		}
		if math.Abs(dz) > 1e-6 {
			t.Errorf("∂x/∂z at %v = %v, want 0", pt, dz)
		}
	}
}

func TestFieldGradient(t *testing.T) {
	f, err := NewField("x ^ 2 + 3 * z")
	if err != nil {
		t.Fatal(err)
	}
	gx, gz, err := f.Gradient(2, 1, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(gx-4) > 1e-5 || math.Abs(gz-3) > 1e-5 {
		t.Errorf("Gradient(2, 1) = (%v, %v), want (4, 3)", gx, gz)
	}

	h, err := f.Height(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if h != 7 {
		t.Errorf("Height(2, 1) = %v, want 7", h)
	}
}

func BenchmarkFieldGradient(b *testing.B) {
	f, err := NewField(" sqrt ( ( sin ( 0.1 * x ) + cos ( 0.1 * y ) ) ^ 2 ) + 0.5 * sin ( 0.3 * x ) * cos ( 0.3 * y ) ")
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = f.Gradient(1.5, 2.5, 0, nil)
	}
}
