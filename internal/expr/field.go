package expr

// DiffStep is the central-difference step used for partial derivatives.
const DiffStep = 1e-7

// Field is a height function h(x, z) backed by a compiled formula.
type Field struct {
	prog *Program
}

func NewField(formula string) (*Field, error) {
	p, err := Compile(formula)
	if err != nil {
		return nil, err
	}
	return &Field{prog: p}, nil
}

// FieldOf wraps an already compiled program.
func FieldOf(p *Program) *Field { return &Field{prog: p} }

func (f *Field) Formula() string { return f.prog.src }

func (f *Field) Program() *Program { return f.prog }

// Height evaluates the field at time zero with no state variables bound.
func (f *Field) Height(x, z float64) (float64, error) {
	return f.prog.Eval(Env{X: x, Z: z})
}

// HeightAt evaluates the field with the time and state variables bound.
func (f *Field) HeightAt(x, z, t float64, aux []float64) (float64, error) {
	return f.prog.Eval(Env{X: x, Z: z, Time: t, Aux: aux})
}

// Gradient returns (∂h/∂x, ∂h/∂z) by central differences, four evaluations in total.
func (f *Field) Gradient(x, z, t float64, aux []float64) (gx, gz float64, err error) {
	gx, err = f.partial(x, z, t, aux, DiffStep, 0)
	if err != nil {
		return 0, 0, err
	}
	gz, err = f.partial(x, z, t, aux, 0, DiffStep)
	if err != nil {
		return 0, 0, err
	}
	return gx, gz, nil
}

func (f *Field) partial(x, z, t float64, aux []float64, dx, dz float64) (float64, error) {
	fwd, err := f.prog.Eval(Env{X: x + dx, Z: z + dz, Time: t, Aux: aux})
	if err != nil {
		return 0, err
	}
	bwd, err := f.prog.Eval(Env{X: x - dx, Z: z - dz, Time: t, Aux: aux})
	if err != nil {
		return 0, err
	}
	return (fwd - bwd) / (2 * DiffStep), nil
}

// PartialX compiles formula and differentiates it along x at (x, z).
func PartialX(formula string, x, z float64) (float64, error) {
	f, err := NewField(formula)
	if err != nil {
		return 0, err
	}
	return f.partial(x, z, 0, nil, DiffStep, 0)
}

// PartialZ compiles formula and differentiates it along z at (x, z).
func PartialZ(formula string, x, z float64) (float64, error) {
	f, err := NewField(formula)
	if err != nil {
		return 0, err
	}
	return f.partial(x, z, 0, nil, 0, DiffStep)
}
