package rules

import (
	"github.com/standardbeagle/pycheck/internal/purity"
	"github.com/standardbeagle/pycheck/internal/pyast"
	"github.com/standardbeagle/pycheck/internal/scope"
)

// maxInferDepth bounds how many binding hops type inference follows.
const maxInferDepth = 8

// pyType is the statically inferred type of an expression. Exactly one
// field is set: builtin for builtin instances, qualified for values
// produced by imported constructors, class for instances of classes
// declared in this file. The zero value means unknown.
type pyType struct {
	builtin   string
	qualified string
	class     *pyast.ClassDef
}

// typeInferrer answers type questions within one resolved file. It is
// deliberately shallow: literals, displays, builtin constructors,
// known pure method results, and unique-definition chains through
// local bindings. Everything else is unknown.
type typeInferrer struct {
	res *scope.Resolution
}

func (ti *typeInferrer) typeOf(e pyast.Expr, depth int) (pyType, bool) {
	if depth <= 0 {
		return pyType{}, false
	}
	switch ex := e.(type) {
	case *pyast.Literal:
		switch ex.Kind {
		case pyast.LitStr:
			return pyType{builtin: "str"}, true
		case pyast.LitBytes:
			return pyType{builtin: "bytes"}, true
		case pyast.LitInt:
			return pyType{builtin: "int"}, true
		case pyast.LitFloat:
			return pyType{builtin: "float"}, true
		case pyast.LitBool:
			return pyType{builtin: "bool"}, true
		}
	case *pyast.Display:
		switch ex.Kind {
		case pyast.DisplayList:
			return pyType{builtin: "list"}, true
		case pyast.DisplayTuple:
			return pyType{builtin: "tuple"}, true
		case pyast.DisplaySet:
			return pyType{builtin: "set"}, true
		case pyast.DisplayDict:
			return pyType{builtin: "dict"}, true
		}
	case *pyast.Name:
		use := ti.res.UseOf(ex)
		if use == nil || use.Binding == nil {
			return pyType{}, false
		}
		if use.Binding.Kind == scope.BindClass {
			// The name holds the class object itself, not an instance.
			return pyType{}, false
		}
		if def, ok := use.UniqueDef(); ok {
			return ti.typeOf(def, depth-1)
		}
	case *pyast.Call:
		return ti.callType(ex, depth)
	}
	return pyType{}, false
}

func (ti *typeInferrer) callType(call *pyast.Call, depth int) (pyType, bool) {
	switch fn := call.Func.(type) {
	case *pyast.Name:
		use := ti.res.UseOf(fn)
		if use == nil {
			return pyType{}, false
		}
		if use.Binding == nil {
			if t, ok := purity.ConstructorType(fn.ID); ok {
				return pyType{builtin: t}, true
			}
			return pyType{}, false
		}
		b := use.Binding
		switch {
		case b.Kind == scope.BindClass && b.Class != nil:
			return pyType{class: b.Class}, true
		case b.Kind == scope.BindImport && b.ImportPath != "":
			return pyType{qualified: b.ImportPath}, true
		}
	case *pyast.Attribute:
		if recv, ok := fn.Value.(*pyast.Name); ok {
			use := ti.res.UseOf(recv)
			if use != nil && use.Binding != nil &&
				use.Binding.Kind == scope.BindImport && use.Binding.ImportPath != "" {
				return pyType{qualified: use.Binding.ImportPath + "." + fn.Attr}, true
			}
		}
		if t, ok := ti.builtinTypeAt(fn.Value, depth-1); ok {
			if result, ok := purity.MethodResultType(t, fn.Attr); ok {
				return pyType{builtin: result}, true
			}
		}
	}
	return pyType{}, false
}

// builtinType returns the builtin type name of an expression, when one
// can be inferred.
func (ti *typeInferrer) builtinType(e pyast.Expr) (string, bool) {
	return ti.builtinTypeAt(e, maxInferDepth)
}

func (ti *typeInferrer) builtinTypeAt(e pyast.Expr, depth int) (string, bool) {
	t, ok := ti.typeOf(e, depth)
	if !ok || t.builtin == "" {
		return "", false
	}
	return t.builtin, true
}

// containerType resolves the builtin container type an expression's
// value roots at for the given operator dunder. User classes resolve
// through their first-base chain; the chain fails when a class along
// it overrides the dunder itself or when it passes through a type
// whose operator is known to mutate.
func (ti *typeInferrer) containerType(e pyast.Expr, dunder string) (string, bool) {
	t, ok := ti.typeOf(e, maxInferDepth)
	if !ok {
		return "", false
	}
	switch {
	case t.builtin != "":
		return t.builtin, true
	case t.class != nil:
		return ti.classContainerRoot(t.class, dunder)
	default:
		// Imported constructors stay unclassified; defaultdict in
		// particular must never be treated as a plain dict.
		return "", false
	}
}

func (ti *typeInferrer) classContainerRoot(cls *pyast.ClassDef, dunder string) (string, bool) {
	seen := make(map[*pyast.ClassDef]bool)
	for cur := cls; cur != nil && !seen[cur]; {
		seen[cur] = true
		if classDefines(cur, dunder) {
			return "", false
		}
		if len(cur.Bases) == 0 {
			return "", false
		}
		base, ok := cur.Bases[0].(*pyast.Name)
		if !ok {
			return "", false
		}
		use := ti.res.UseOf(base)
		if use == nil || use.Binding == nil {
			if _, isBuiltin := purity.ConstructorType(base.ID); isBuiltin {
				return base.ID, true
			}
			return "", false
		}
		b := use.Binding
		if b.Kind == scope.BindClass && b.Class != nil {
			cur = b.Class
			continue
		}
		return "", false
	}
	return "", false
}

// classDefines reports whether the class body itself declares the
// named method.
func classDefines(cls *pyast.ClassDef, method string) bool {
	for _, stmt := range cls.Body {
		if def, ok := stmt.(*pyast.FuncDef); ok && def.Name == method {
			return true
		}
	}
	return false
}
