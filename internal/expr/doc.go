// Package expr compiles and evaluates scalar-field formulas.
//
// A formula is plain infix text over a small vocabulary:
//
//   - numeric literals (`2`, `-6`, `0.5`, `1e-3`)
//   - binary operators `+ - * / ^` (all left-associative)
//   - unary functions `sqrt log ln sin cos` (sin/cos take degrees)
//   - variables `x`, `y`/`z` (ground plane), `a`..`j` (state components),
//     `time`, and the constant `E`
//
// Evaluation goes through three stages that are exported individually:
// [Tokenize] + [Substitute] resolve identifiers through a symbol table,
// [ToPostfix] runs the shunting-yard conversion, and [EvalPostfix] runs the
// stack machine. [Compile] fuses the first two stages into a reusable
// [Program] that resolves variables from an [Env] at evaluation time.
//
// # Example
//
//	f, _ := expr.NewField("0.1 * x ^ 2 + sin ( 10 * y )")
//	h, _ := f.Height(1, 2)
//	gx, gz, _ := f.Gradient(1, 2, 0, nil)
//
// # Thread Safety
//
// Programs and Fields are immutable after construction and safe for
// concurrent use.
package expr
