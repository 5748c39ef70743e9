package corelib

import (
	"math"
	"strconv"
	"strings"

	"github.com/mosclang/mosc/internal/compiler"
	"github.com/mosclang/mosc/internal/value"
	"github.com/mosclang/mosc/internal/vm"
)

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func bindNum(vmachine *vm.VM, num *value.Class) {
	binOp := func(signature string, op func(a, b float64) float64) {
		bind(vmachine, num, signature, func(f *value.Fiber, args []value.Value) (value.Value, bool) {
			if !args[1].IsNum() {
				return typeError(vmachine, f, "right operand must be a Num.")
			}
			return numResult(op(args[0].AsNum(), args[1].AsNum()))
		})
	}
	cmpOp := func(signature string, op func(a, b float64) bool) {
		bind(vmachine, num, signature, func(f *value.Fiber, args []value.Value) (value.Value, bool) {
			if !args[1].IsNum() {
				return typeError(vmachine, f, "right operand must be a Num.")
			}
			return boolResult(op(args[0].AsNum(), args[1].AsNum()))
		})
	}
	bitOp := func(signature string, op func(a, b int64) int64) {
		bind(vmachine, num, signature, func(f *value.Fiber, args []value.Value) (value.Value, bool) {
			if !args[1].IsNum() {
				return typeError(vmachine, f, "right operand must be a Num.")
			}
			return numResult(float64(op(int64(args[0].AsNum()), int64(args[1].AsNum()))))
		})
	}

	binOp(compiler.CallSignature("+", 1), func(a, b float64) float64 { return a + b })
	binOp(compiler.CallSignature("-", 1), func(a, b float64) float64 { return a - b })
	binOp(compiler.CallSignature("*", 1), func(a, b float64) float64 { return a * b })
	binOp(compiler.CallSignature("/", 1), func(a, b float64) float64 { return a / b })
	binOp(compiler.CallSignature("%", 1), math.Mod)

	cmpOp(compiler.CallSignature("<", 1), func(a, b float64) bool { return a < b })
	cmpOp(compiler.CallSignature("<=", 1), func(a, b float64) bool { return a <= b })
	cmpOp(compiler.CallSignature(">", 1), func(a, b float64) bool { return a > b })
	cmpOp(compiler.CallSignature(">=", 1), func(a, b float64) bool { return a >= b })

	bitOp(compiler.CallSignature("&", 1), func(a, b int64) int64 { return a & b })
	bitOp(compiler.CallSignature("|", 1), func(a, b int64) int64 { return a | b })
	bitOp(compiler.CallSignature("^", 1), func(a, b int64) int64 { return a ^ b })
	bitOp(compiler.CallSignature("<<", 1), func(a, b int64) int64 { return a << uint(b) })
	bitOp(compiler.CallSignature(">>", 1), func(a, b int64) int64 { return a >> uint(b) })

	bind(vmachine, num, compiler.CallSignature("==", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(args[1].IsNum() && value.Equal(args[0], args[1]))
	})
	bind(vmachine, num, compiler.CallSignature("!=", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(!args[1].IsNum() || !value.Equal(args[0], args[1]))
	})

	// Unary "-" negates; unary "+" (§9's Open Question a) is a genuine
	// no-op that still requires a numeric receiver.
	bind(vmachine, num, compiler.CallSignature("-", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(-args[0].AsNum())
	})
	bind(vmachine, num, compiler.CallSignature("+", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(args[0].AsNum())
	})
	bind(vmachine, num, compiler.CallSignature("~", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(float64(^int64(args[0].AsNum())))
	})

	unary := func(signature string, op func(float64) float64) {
		bind(vmachine, num, signature, func(f *value.Fiber, args []value.Value) (value.Value, bool) {
			return numResult(op(args[0].AsNum()))
		})
	}
	unary(compiler.CallSignature("abs", 0), math.Abs)
	unary(compiler.CallSignature("floor", 0), math.Floor)
	unary(compiler.CallSignature("ceil", 0), math.Ceil)
	unary(compiler.CallSignature("round", 0), math.Round)
	unary(compiler.CallSignature("truncate", 0), math.Trunc)
	unary(compiler.CallSignature("sqrt", 0), math.Sqrt)
	unary(compiler.CallSignature("sin", 0), math.Sin)
	unary(compiler.CallSignature("cos", 0), math.Cos)
	unary(compiler.CallSignature("tan", 0), math.Tan)
	unary(compiler.CallSignature("fraction", 0), func(n float64) float64 { _, frac := math.Modf(n); return frac })

	bind(vmachine, num, compiler.CallSignature("pow", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsNum() {
			return typeError(vmachine, f, "exponent must be a Num.")
		}
		return numResult(math.Pow(args[0].AsNum(), args[1].AsNum()))
	})
	bind(vmachine, num, compiler.CallSignature("min", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsNum() {
			return typeError(vmachine, f, "argument must be a Num.")
		}
		return numResult(math.Min(args[0].AsNum(), args[1].AsNum()))
	})
	bind(vmachine, num, compiler.CallSignature("max", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsNum() {
			return typeError(vmachine, f, "argument must be a Num.")
		}
		return numResult(math.Max(args[0].AsNum(), args[1].AsNum()))
	})

	bind(vmachine, num, compiler.CallSignature("isNan", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(math.IsNaN(args[0].AsNum()))
	})
	bind(vmachine, num, compiler.CallSignature("isInfinity", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return boolResult(math.IsInf(args[0].AsNum(), 0))
	})
	bind(vmachine, num, compiler.CallSignature("isInteger", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		n := args[0].AsNum()
		return boolResult(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n))
	})
	bind(vmachine, num, compiler.CallSignature("toString", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return vmachine.NewStringValue(value.String(args[0])), true
	})

	bindStatic(vmachine, num, compiler.CallSignature("pi", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(math.Pi)
	})
	bindStatic(vmachine, num, compiler.CallSignature("infinity", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return numResult(math.Inf(1))
	})
	bindStatic(vmachine, num, compiler.CallSignature("nan", 0), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		return value.NanVal(), true
	})
	bindStatic(vmachine, num, compiler.CallSignature("fromString", 1), func(f *value.Fiber, args []value.Value) (value.Value, bool) {
		if !args[1].IsObj() || args[1].AsObj().Type != value.ObjString {
			return typeError(vmachine, f, "argument must be a String.")
		}
		n, err := parseFloat(vm.StringText(args[1]))
		if err != nil {
			return value.NullVal(), true
		}
		return numResult(n)
	})
}
