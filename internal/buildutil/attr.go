// Package buildutil extracts call arguments from buildtools Starlark ASTs.
// It backs the project-file reader in package descriptor.
package buildutil

import (
	"fmt"
	"strconv"

	"github.com/bazelbuild/buildtools/build"
)

// named returns the value bound to a keyword argument, or nil.
func named(call *build.CallExpr, name string) build.Expr {
	for _, arg := range call.List {
		assign, ok := arg.(*build.AssignExpr)
		if !ok {
			continue
		}
		if lhs, ok := assign.LHS.(*build.Ident); ok && lhs.Name == name {
			return assign.RHS
		}
	}
	return nil
}

// Has reports whether the call passes the keyword argument name.
func Has(call *build.CallExpr, name string) bool {
	return named(call, name) != nil
}

// String extracts a string attribute from a function call by name.
// If name is empty, the first positional argument is used instead.
// Returns empty string if the attribute is not found or not a string.
func String(call *build.CallExpr, name string) string {
	if name == "" {
		if len(call.List) > 0 {
			if str, ok := call.List[0].(*build.StringExpr); ok {
				return str.Value
			}
		}
		return ""
	}
	if str, ok := named(call, name).(*build.StringExpr); ok {
		return str.Value
	}
	return ""
}

// Int extracts an integer attribute. Returns 0 if absent or not an integer.
func Int(call *build.CallExpr, name string) int {
	if lit, ok := named(call, name).(*build.LiteralExpr); ok {
		if val, err := strconv.Atoi(lit.Token); err == nil {
			return val
		}
	}
	return 0
}

// Bool extracts a boolean attribute. Returns false if absent or not True/False.
func Bool(call *build.CallExpr, name string) bool {
	if ident, ok := named(call, name).(*build.Ident); ok {
		return ident.Name == "True"
	}
	return false
}

// StringList extracts a list of strings. Non-string elements are skipped.
// Returns nil if the attribute is not found or not a list.
func StringList(call *build.CallExpr, name string) []string {
	list, ok := named(call, name).(*build.ListExpr)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(list.List))
	for _, elem := range list.List {
		if str, ok := elem.(*build.StringExpr); ok {
			result = append(result, str.Value)
		}
	}
	return result
}

// StringDict extracts a dict attribute whose values are rendered as strings.
func StringDict(call *build.CallExpr, name string) (map[string]string, error) {
	expr := named(call, name)
	if expr == nil {
		return nil, nil
	}
	dict, ok := ExtractValue(expr).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: expected a dict", name)
	}
	out := make(map[string]string, len(dict))
	for k, v := range dict {
		switch val := v.(type) {
		case string:
			out[k] = val
		case int, bool:
			out[k] = fmt.Sprint(val)
		default:
			return nil, fmt.Errorf("%s[%q]: unsupported value %T", name, k, v)
		}
	}
	return out, nil
}

// ExtractValue converts a build.Expr to a Go value.
// Handles strings, integers, booleans (True/False/None), lists, and dicts.
// Returns the raw expression for unhandled types.
func ExtractValue(expr build.Expr) any {
	switch e := expr.(type) {
	case *build.StringExpr:
		return e.Value
	case *build.LiteralExpr:
		if val, err := strconv.Atoi(e.Token); err == nil {
			return val
		}
		return e.Token
	case *build.Ident:
		switch e.Name {
		case "True":
			return true
		case "False":
			return false
		case "None":
			return nil
		default:
			return e.Name
		}
	case *build.ListExpr:
		result := make([]any, 0, len(e.List))
		for _, item := range e.List {
			result = append(result, ExtractValue(item))
		}
		return result
	case *build.DictExpr:
		result := make(map[string]any)
		for _, kv := range e.List {
			if keyStr, ok := kv.Key.(*build.StringExpr); ok {
				result[keyStr.Value] = ExtractValue(kv.Value)
			}
		}
		return result
	default:
		return expr
	}
}

// FuncName returns the function name from a CallExpr.
// Returns empty string if the call is not a simple function call
// (e.g., method calls like foo.bar()).
func FuncName(call *build.CallExpr) string {
	if ident, ok := call.X.(*build.Ident); ok {
		return ident.Name
	}
	return ""
}
