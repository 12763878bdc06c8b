// Copyright (c) 2026, R.I. Pienaar and the Choria Project contributors
//
// SPDX-License-Identifier: Apache-2.0

package validation

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// ExprValidator evaluates a boolean expr-lang expression with the input bound to value
type ExprValidator struct {
	code     string
	message  string
	prog     *vm.Program
	optional bool
}

// Expr compiles code into a validator, message is reported when the expression is false or fails.
//
// The expression environment has value set to the input being validated and the helper
// functions isInt, isFloat and isEmpty.
func Expr(code string, message string) (*ExprValidator, error) {
	prog, err := CompileExpr(code)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = fmt.Sprintf("validation using %q did not pass", code)
	}

	e := &ExprValidator{code: code, message: message, prog: prog}
	e.optional = e.accepts(nil)

	return e, nil
}

// MustExpr is like Expr but panics on compile errors
func MustExpr(code string, message string) *ExprValidator {
	e, err := Expr(code, message)
	if err != nil {
		panic(err)
	}

	return e
}

// CompileExpr compiles a boolean expression with the helper functions available
func CompileExpr(code string) (*vm.Program, error) {
	opts := []expr.Option{expr.AsBool(), expr.AllowUndefinedVariables()}
	opts = append(opts, exprFunctions()...)

	prog, err := expr.Compile(code, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid expression %q: %w", code, err)
	}

	return prog, nil
}

// EvalExpr runs a program compiled by CompileExpr against env
func EvalExpr(prog *vm.Program, env map[string]any) (bool, error) {
	res, err := expr.Run(prog, env)
	if err != nil {
		return false, err
	}

	ok, isBool := res.(bool)
	if !isBool {
		return false, fmt.Errorf("expression returned %T, expected bool", res)
	}

	return ok, nil
}

// Code is the source expression
func (e *ExprValidator) Code() string {
	return e.code
}

func (e *ExprValidator) IsOptional() bool {
	return e.optional
}

func (e *ExprValidator) SafeParse(input any) Issues {
	if e.accepts(input) {
		return nil
	}

	return Issues{{Message: e.message}}
}

func (e *ExprValidator) accepts(input any) bool {
	if m, ok := input.(Mapper); ok {
		input = m.AsMap()
	}

	ok, err := EvalExpr(e.prog, map[string]any{"value": input})
	if err != nil {
		return false
	}

	return ok
}

// RefineExpr builds a refinement that reports message at path when code is false.
// The object being refined is available as value and input.
func RefineExpr(code string, message string, path []string) (RefineFunc, error) {
	prog, err := CompileExpr(code)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = fmt.Sprintf("validation using %q did not pass", code)
	}

	return func(value any) Issues {
		if m, ok := value.(Mapper); ok {
			value = m.AsMap()
		}

		ok, err := EvalExpr(prog, map[string]any{"value": value, "input": value})
		if err == nil && ok {
			return nil
		}

		return Issues{{Path: append([]string(nil), path...), Message: message}}
	}, nil
}

func exprFunctions() []expr.Option {
	return []expr.Option{
		expr.Function("isInt", func(params ...any) (any, error) {
			if len(params) != 1 {
				return false, fmt.Errorf("isInt takes 1 argument")
			}
			return isIntValue(params[0]), nil
		}),
		expr.Function("isFloat", func(params ...any) (any, error) {
			if len(params) != 1 {
				return false, fmt.Errorf("isFloat takes 1 argument")
			}
			return isFloatValue(params[0]), nil
		}),
		expr.Function("isEmpty", func(params ...any) (any, error) {
			if len(params) != 1 {
				return false, fmt.Errorf("isEmpty takes 1 argument")
			}
			return isEmpty(params[0]), nil
		}),
	}
}

func isIntValue(v any) bool {
	switch val := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float64:
		return val == math.Trunc(val) && !math.IsInf(val, 0)
	case string:
		_, err := strconv.Atoi(strings.TrimSpace(val))
		return err == nil
	default:
		return false
	}
}

func isFloatValue(v any) bool {
	switch val := v.(type) {
	case float32, float64:
		return true
	case string:
		_, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		return err == nil
	default:
		return isIntValue(v)
	}
}
