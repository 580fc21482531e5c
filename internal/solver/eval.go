// Package solver evaluates pattern solver expressions in a sandbox.
//
// Expressions may originate from a generative-model proposal, so the
// evaluator never executes source text: it parses the expression with
// go/parser and interprets a strict whitelist of AST nodes. Bound
// variable values and a fixed registry of numeric functions are the
// only names an expression can reach; anything else is a SecurityError.
package solver

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
)

// SecurityError reports a construct outside the sandbox whitelist:
// an unknown name, a call to an unregistered function, attribute or
// index access, or any AST node the interpreter does not recognise.
type SecurityError struct {
	Expr   string
	Detail string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("disallowed construct in solver expression %q: %s", e.Expr, e.Detail)
}

// Evaluate computes the expression against the given variable binding.
// The result is deterministic for a given binding. Numeric results are
// canonically rounded; string labels pass through for classification
// style answers.
func Evaluate(expr string, vars map[string]Value) (Value, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return Value{}, &SecurityError{Expr: expr, Detail: fmt.Sprintf("parse: %v", err)}
	}
	ev := &evaluator{expr: expr, vars: vars}
	return ev.eval(node)
}

// Vet statically checks that the expression stays inside the sandbox
// whitelist and references only the declared variable names. It is run
// at corpus-build and corpus-load time so a hostile or malformed
// expression is rejected before any generation request sees it.
func Vet(expr string, declared map[string]bool) error {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return &SecurityError{Expr: expr, Detail: fmt.Sprintf("parse: %v", err)}
	}
	return vet(expr, node, declared)
}

// Idents returns the variable names an expression references, excluding
// function names and the boolean literals. Used to build the derived
// variable dependency graph.
func Idents(expr string) ([]string, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return nil, &SecurityError{Expr: expr, Detail: fmt.Sprintf("parse: %v", err)}
	}
	seen := map[string]bool{}
	var names []string
	var walk func(n ast.Expr)
	walk = func(n ast.Expr) {
		switch n := n.(type) {
		case *ast.Ident:
			if n.Name == "true" || n.Name == "false" || seen[n.Name] {
				return
			}
			seen[n.Name] = true
			names = append(names, n.Name)
		case *ast.ParenExpr:
			walk(n.X)
		case *ast.UnaryExpr:
			walk(n.X)
		case *ast.BinaryExpr:
			walk(n.X)
			walk(n.Y)
		case *ast.CallExpr:
			// The callee is a function name, not a variable.
			for _, arg := range n.Args {
				walk(arg)
			}
		}
	}
	walk(node)
	return names, nil
}

type evaluator struct {
	expr string
	vars map[string]Value
}

func (ev *evaluator) deny(detail string) error {
	return &SecurityError{Expr: ev.expr, Detail: detail}
}

func (ev *evaluator) eval(node ast.Expr) (Value, error) {
	switch n := node.(type) {
	case *ast.ParenExpr:
		return ev.eval(n.X)

	case *ast.BasicLit:
		return ev.literal(n)

	case *ast.Ident:
		switch n.Name {
		case "true":
			return Boolean(true), nil
		case "false":
			return Boolean(false), nil
		}
		v, ok := ev.vars[n.Name]
		if !ok {
			return Value{}, ev.deny(fmt.Sprintf("unknown name %q", n.Name))
		}
		return v, nil

	case *ast.UnaryExpr:
		return ev.unary(n)

	case *ast.BinaryExpr:
		return ev.binary(n)

	case *ast.CallExpr:
		return ev.call(n)

	default:
		return Value{}, ev.deny(fmt.Sprintf("node %T not permitted", node))
	}
}

func (ev *evaluator) literal(n *ast.BasicLit) (Value, error) {
	switch n.Kind {
	case token.INT:
		i, err := strconv.ParseInt(n.Value, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("integer literal %q: %w", n.Value, err)
		}
		return Int64(i), nil
	case token.FLOAT:
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return Value{}, fmt.Errorf("float literal %q: %w", n.Value, err)
		}
		return Value{Kind: KindFloat, Float: f}, nil
	case token.STRING:
		s, err := strconv.Unquote(n.Value)
		if err != nil {
			return Value{}, fmt.Errorf("string literal %s: %w", n.Value, err)
		}
		return Str(s), nil
	default:
		return Value{}, ev.deny(fmt.Sprintf("literal kind %s not permitted", n.Kind))
	}
}

func (ev *evaluator) unary(n *ast.UnaryExpr) (Value, error) {
	x, err := ev.eval(n.X)
	if err != nil {
		return Value{}, err
	}
	switch n.Op {
	case token.SUB:
		switch x.Kind {
		case KindInt:
			return Int64(-x.Int), nil
		case KindFloat:
			return Value{Kind: KindFloat, Float: -x.Float}, nil
		case KindFraction:
			return Fraction(-x.Num, x.Den)
		}
		return Value{}, fmt.Errorf("unary minus on %s", x.Kind)
	case token.NOT:
		if x.Kind != KindBool {
			return Value{}, fmt.Errorf("! on %s", x.Kind)
		}
		return Boolean(!x.Bool), nil
	default:
		return Value{}, ev.deny(fmt.Sprintf("unary operator %s not permitted", n.Op))
	}
}

func (ev *evaluator) binary(n *ast.BinaryExpr) (Value, error) {
	x, err := ev.eval(n.X)
	if err != nil {
		return Value{}, err
	}
	y, err := ev.eval(n.Y)
	if err != nil {
		return Value{}, err
	}

	switch n.Op {
	case token.LAND, token.LOR:
		if x.Kind != KindBool || y.Kind != KindBool {
			return Value{}, fmt.Errorf("%s on %s and %s", n.Op, x.Kind, y.Kind)
		}
		if n.Op == token.LAND {
			return Boolean(x.Bool && y.Bool), nil
		}
		return Boolean(x.Bool || y.Bool), nil

	case token.EQL:
		return Boolean(x.Equal(y)), nil
	case token.NEQ:
		return Boolean(!x.Equal(y)), nil
	}

	// String concatenation keeps label answers composable.
	if n.Op == token.ADD && x.Kind == KindString && y.Kind == KindString {
		return Str(x.Str + y.Str), nil
	}

	xf, xok := x.AsFloat()
	yf, yok := y.AsFloat()
	if !xok || !yok {
		return Value{}, fmt.Errorf("operator %s needs numeric operands, got %s and %s", n.Op, x.Kind, y.Kind)
	}

	switch n.Op {
	case token.LSS:
		return Boolean(xf < yf), nil
	case token.LEQ:
		return Boolean(xf <= yf), nil
	case token.GTR:
		return Boolean(xf > yf), nil
	case token.GEQ:
		return Boolean(xf >= yf), nil
	}

	bothInt := x.Kind == KindInt && y.Kind == KindInt

	switch n.Op {
	case token.ADD:
		if bothInt {
			return Int64(x.Int + y.Int), nil
		}
		return Float64(xf + yf), nil
	case token.SUB:
		if bothInt {
			return Int64(x.Int - y.Int), nil
		}
		return Float64(xf - yf), nil
	case token.MUL:
		if bothInt {
			return Int64(x.Int * y.Int), nil
		}
		return Float64(xf * yf), nil
	case token.QUO:
		// Division always yields the exact quotient; use idiv for the
		// integer quotient.
		if yf == 0 {
			return Value{}, fmt.Errorf("division by zero")
		}
		if bothInt && x.Int%y.Int == 0 {
			return Int64(x.Int / y.Int), nil
		}
		return Float64(xf / yf), nil
	case token.REM:
		if !bothInt {
			return Value{}, fmt.Errorf("%% needs integer operands, got %s and %s", x.Kind, y.Kind)
		}
		if y.Int == 0 {
			return Value{}, fmt.Errorf("modulo by zero")
		}
		return Int64(x.Int % y.Int), nil
	default:
		return Value{}, ev.deny(fmt.Sprintf("operator %s not permitted", n.Op))
	}
}

func (ev *evaluator) call(n *ast.CallExpr) (Value, error) {
	ident, ok := n.Fun.(*ast.Ident)
	if !ok {
		return Value{}, ev.deny(fmt.Sprintf("call target %T not permitted", n.Fun))
	}
	fn, ok := registry[ident.Name]
	if !ok {
		return Value{}, ev.deny(fmt.Sprintf("call to unregistered function %q", ident.Name))
	}
	if len(n.Args) != fn.arity {
		return Value{}, fmt.Errorf("%s expects %d arguments, got %d", ident.Name, fn.arity, len(n.Args))
	}
	args := make([]Value, len(n.Args))
	for i, a := range n.Args {
		v, err := ev.eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return fn.apply(args)
}

// vet mirrors the evaluator's whitelist without evaluating anything.
func vet(expr string, node ast.Expr, declared map[string]bool) error {
	deny := func(detail string) error {
		return &SecurityError{Expr: expr, Detail: detail}
	}
	switch n := node.(type) {
	case *ast.ParenExpr:
		return vet(expr, n.X, declared)
	case *ast.BasicLit:
		switch n.Kind {
		case token.INT, token.FLOAT, token.STRING:
			return nil
		}
		return deny(fmt.Sprintf("literal kind %s not permitted", n.Kind))
	case *ast.Ident:
		if n.Name == "true" || n.Name == "false" || declared[n.Name] {
			return nil
		}
		return deny(fmt.Sprintf("unknown name %q", n.Name))
	case *ast.UnaryExpr:
		if n.Op != token.SUB && n.Op != token.NOT {
			return deny(fmt.Sprintf("unary operator %s not permitted", n.Op))
		}
		return vet(expr, n.X, declared)
	case *ast.BinaryExpr:
		switch n.Op {
		case token.ADD, token.SUB, token.MUL, token.QUO, token.REM,
			token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ,
			token.LAND, token.LOR:
		default:
			return deny(fmt.Sprintf("operator %s not permitted", n.Op))
		}
		if err := vet(expr, n.X, declared); err != nil {
			return err
		}
		return vet(expr, n.Y, declared)
	case *ast.CallExpr:
		ident, ok := n.Fun.(*ast.Ident)
		if !ok {
			return deny(fmt.Sprintf("call target %T not permitted", n.Fun))
		}
		fn, ok := registry[ident.Name]
		if !ok {
			return deny(fmt.Sprintf("call to unregistered function %q", ident.Name))
		}
		if len(n.Args) != fn.arity {
			return deny(fmt.Sprintf("%s expects %d arguments, got %d", ident.Name, fn.arity, len(n.Args)))
		}
		for _, a := range n.Args {
			if err := vet(expr, a, declared); err != nil {
				return err
			}
		}
		return nil
	default:
		return deny(fmt.Sprintf("node %T not permitted", node))
	}
}

// builtin is one registered sandbox function.
type builtin struct {
	arity int
	apply func(args []Value) (Value, error)
}

// registry is the fixed function whitelist. Nothing here performs I/O,
// touches process state, or escapes the numeric domain.
var registry = map[string]builtin{
	"abs": {1, func(a []Value) (Value, error) {
		if a[0].Kind == KindInt {
			return Int64(abs(a[0].Int)), nil
		}
		return applyFloat1("abs", a[0], math.Abs)
	}},
	"min": {2, func(a []Value) (Value, error) { return pick(a[0], a[1], true) }},
	"max": {2, func(a []Value) (Value, error) { return pick(a[0], a[1], false) }},
	"gcd": {2, applyGCD},
	"hcf": {2, applyGCD}, // curriculum name for gcd
	"lcm": {2, func(a []Value) (Value, error) {
		x, y, err := twoInts("lcm", a)
		if err != nil {
			return Value{}, err
		}
		return Int64(LCM(abs(x), abs(y))), nil
	}},
	"pow": {2, applyPow},
	"sqrt": {1, func(a []Value) (Value, error) {
		f, ok := a[0].AsFloat()
		if !ok {
			return Value{}, fmt.Errorf("sqrt on %s", a[0].Kind)
		}
		if f < 0 {
			return Value{}, fmt.Errorf("sqrt of negative %v", f)
		}
		return Float64(math.Sqrt(f)), nil
	}},
	"sin":   {1, func(a []Value) (Value, error) { return applyFloat1("sin", a[0], sinDeg) }},
	"cos":   {1, func(a []Value) (Value, error) { return applyFloat1("cos", a[0], cosDeg) }},
	"tan":   {1, func(a []Value) (Value, error) { return applyFloat1("tan", a[0], tanDeg) }},
	"round": {1, func(a []Value) (Value, error) { return applyFloat1("round", a[0], Round) }},
	"floor": {1, func(a []Value) (Value, error) {
		f, ok := a[0].AsFloat()
		if !ok {
			return Value{}, fmt.Errorf("floor on %s", a[0].Kind)
		}
		return Int64(int64(math.Floor(f))), nil
	}},
	"ceil": {1, func(a []Value) (Value, error) {
		f, ok := a[0].AsFloat()
		if !ok {
			return Value{}, fmt.Errorf("ceil on %s", a[0].Kind)
		}
		return Int64(int64(math.Ceil(f))), nil
	}},
	"idiv": {2, func(a []Value) (Value, error) {
		x, y, err := twoInts("idiv", a)
		if err != nil {
			return Value{}, err
		}
		if y == 0 {
			return Value{}, fmt.Errorf("idiv by zero")
		}
		return Int64(x / y), nil
	}},
	"mod": {2, func(a []Value) (Value, error) {
		x, y, err := twoInts("mod", a)
		if err != nil {
			return Value{}, err
		}
		if y == 0 {
			return Value{}, fmt.Errorf("mod by zero")
		}
		return Int64(x % y), nil
	}},
	"frac": {2, func(a []Value) (Value, error) {
		x, y, err := twoInts("frac", a)
		if err != nil {
			return Value{}, err
		}
		return Fraction(x, y)
	}},
	"if": {3, func(a []Value) (Value, error) {
		if a[0].Kind != KindBool {
			return Value{}, fmt.Errorf("if condition is %s, want bool", a[0].Kind)
		}
		if a[0].Bool {
			return a[1], nil
		}
		return a[2], nil
	}},
	"pair": {2, func(a []Value) (Value, error) { return Pair(a[0], a[1]), nil }},
}

func applyGCD(a []Value) (Value, error) {
	x, y, err := twoInts("gcd", a)
	if err != nil {
		return Value{}, err
	}
	return Int64(GCD(abs(x), abs(y))), nil
}

// maxIntExponent bounds the exact integer power path. Anything beyond
// it overflows int64 for every base except 0 and ±1, so those
// exponents take the float path instead of looping.
const maxIntExponent = 62

func applyPow(a []Value) (Value, error) {
	xf, xok := a[0].AsFloat()
	yf, yok := a[1].AsFloat()
	if !xok || !yok {
		return Value{}, fmt.Errorf("pow on %s and %s", a[0].Kind, a[1].Kind)
	}
	if a[0].Kind == KindInt && a[1].Kind == KindInt && a[1].Int >= 0 && a[1].Int <= maxIntExponent {
		if r, ok := ipow(a[0].Int, a[1].Int); ok {
			return Int64(r), nil
		}
	}
	return Float64(math.Pow(xf, yf)), nil
}

// ipow is binary exponentiation with overflow detection. Reports false
// when the result leaves int64; the caller falls back to float.
func ipow(base, exp int64) (int64, bool) {
	r := int64(1)
	for exp > 0 {
		var ok bool
		if exp&1 == 1 {
			if r, ok = mulInt64(r, base); !ok {
				return 0, false
			}
		}
		exp >>= 1
		if exp > 0 {
			if base, ok = mulInt64(base, base); !ok {
				return 0, false
			}
		}
	}
	return r, true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	r := a * b
	if r/b != a {
		return 0, false
	}
	return r, true
}

func applyFloat1(name string, v Value, fn func(float64) float64) (Value, error) {
	f, ok := v.AsFloat()
	if !ok {
		return Value{}, fmt.Errorf("%s on %s", name, v.Kind)
	}
	return Float64(fn(f)), nil
}

func pick(x, y Value, smaller bool) (Value, error) {
	xf, xok := x.AsFloat()
	yf, yok := y.AsFloat()
	if !xok || !yok {
		return Value{}, fmt.Errorf("min/max on %s and %s", x.Kind, y.Kind)
	}
	if (xf < yf) == smaller {
		return x, nil
	}
	return y, nil
}

func twoInts(name string, a []Value) (int64, int64, error) {
	if a[0].Kind != KindInt || a[1].Kind != KindInt {
		return 0, 0, fmt.Errorf("%s needs integer arguments, got %s and %s", name, a[0].Kind, a[1].Kind)
	}
	return a[0].Int, a[1].Int, nil
}

// Trig is degree-based: curriculum questions quote angles in degrees.
func sinDeg(d float64) float64 { return math.Sin(d * math.Pi / 180) }
func cosDeg(d float64) float64 { return math.Cos(d * math.Pi / 180) }
func tanDeg(d float64) float64 { return math.Tan(d * math.Pi / 180) }
