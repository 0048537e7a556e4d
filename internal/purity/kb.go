// Package purity is the fixed knowledge base of Python operations
// known to be free of side effects. It is written once at process
// start and only ever read, so concurrent lookups need no locking.
//
// IMPORTANT: Only add operations here that are DEFINITELY pure.
// When in doubt, leave it out - detection conservatively treats
// unknowns as impure.
package purity

// pureFunctions lists builtin free functions whose only observable
// effect is their return value. Functions that advance iterators
// (next), perform I/O (print, input, open) or touch attribute state
// (setattr, delattr) do not belong here.
var pureFunctions = map[string]bool{
	"abs":        true,
	"all":        true,
	"any":        true,
	"ascii":      true,
	"bin":        true,
	"bool":       true,
	"bytearray":  true,
	"bytes":      true,
	"callable":   true,
	"chr":        true,
	"complex":    true,
	"dict":       true,
	"divmod":     true,
	"enumerate":  true,
	"filter":     true,
	"float":      true,
	"format":     true,
	"frozenset":  true,
	"getattr":    true,
	"hasattr":    true,
	"hash":       true,
	"hex":        true,
	"id":         true,
	"int":        true,
	"isinstance": true,
	"issubclass": true,
	"len":        true,
	"list":       true,
	"map":        true,
	"max":        true,
	"min":        true,
	"oct":        true,
	"ord":        true,
	"pow":        true,
	"range":      true,
	"repr":       true,
	"reversed":   true,
	"round":      true,
	"set":        true,
	"slice":      true,
	"sorted":     true,
	"str":        true,
	"sum":        true,
	"tuple":      true,
	"type":       true,
	"zip":        true,
}

// pureMethods maps "type.method" to true for instance methods that
// never mutate their receiver. They stay pure whether called on an
// instance or through the type in unbound style.
var pureMethods = map[string]bool{
	// str
	"str.capitalize":   true,
	"str.casefold":     true,
	"str.center":       true,
	"str.count":        true,
	"str.encode":       true,
	"str.endswith":     true,
	"str.expandtabs":   true,
	"str.find":         true,
	"str.format":       true,
	"str.isalnum":      true,
	"str.isalpha":      true,
	"str.isascii":      true,
	"str.isdecimal":    true,
	"str.isdigit":      true,
	"str.isidentifier": true,
	"str.islower":      true,
	"str.isnumeric":    true,
	"str.isprintable":  true,
	"str.isspace":      true,
	"str.istitle":      true,
	"str.isupper":      true,
	"str.join":         true,
	"str.ljust":        true,
	"str.lower":        true,
	"str.lstrip":       true,
	"str.partition":    true,
	"str.removeprefix": true,
	"str.removesuffix": true,
	"str.replace":      true,
	"str.rfind":        true,
	"str.rjust":        true,
	"str.rpartition":   true,
	"str.rsplit":       true,
	"str.rstrip":       true,
	"str.split":        true,
	"str.splitlines":   true,
	"str.startswith":   true,
	"str.strip":        true,
	"str.swapcase":     true,
	"str.title":        true,
	"str.upper":        true,
	"str.zfill":        true,

	// bytes shares the str surface where it applies
	"bytes.count":      true,
	"bytes.decode":     true,
	"bytes.endswith":   true,
	"bytes.find":       true,
	"bytes.hex":        true,
	"bytes.startswith": true,

	// dict
	"dict.copy":   true,
	"dict.get":    true,
	"dict.items":  true,
	"dict.keys":   true,
	"dict.values": true,

	// list
	"list.copy":  true,
	"list.count": true,
	"list.index": true,

	// tuple
	"tuple.count": true,
	"tuple.index": true,

	// set
	"set.copy":                 true,
	"set.difference":           true,
	"set.intersection":         true,
	"set.isdisjoint":           true,
	"set.issubset":             true,
	"set.issuperset":           true,
	"set.symmetric_difference": true,
	"set.union":                true,

	"frozenset.copy":                 true,
	"frozenset.difference":           true,
	"frozenset.intersection":         true,
	"frozenset.isdisjoint":           true,
	"frozenset.issubset":             true,
	"frozenset.issuperset":           true,
	"frozenset.symmetric_difference": true,
	"frozenset.union":                true,
}

// subscriptTypes lists builtin containers whose subscript read has no
// side effect. Subclasses inherit this unless they or a known variant
// override __getitem__ with one; collections.defaultdict is the
// canonical override - its read inserts missing keys.
var subscriptTypes = map[string]bool{
	"str":       true,
	"bytes":     true,
	"dict":      true,
	"list":      true,
	"tuple":     true,
	"range":     true,
	"bytearray": true,
}

// membershipTypes lists builtin containers whose `in` test has no side
// effect.
var membershipTypes = map[string]bool{
	"str":       true,
	"bytes":     true,
	"dict":      true,
	"list":      true,
	"tuple":     true,
	"set":       true,
	"frozenset": true,
	"range":     true,
	"bytearray": true,
}

// methodResultTypes maps "type.method" to the builtin type of the
// method's result, for the handful of chains constancy-free type
// inference needs to follow.
var methodResultTypes = map[string]string{
	"str.capitalize":   "str",
	"str.casefold":     "str",
	"str.center":       "str",
	"str.expandtabs":   "str",
	"str.format":       "str",
	"str.join":         "str",
	"str.ljust":        "str",
	"str.lower":        "str",
	"str.lstrip":       "str",
	"str.removeprefix": "str",
	"str.removesuffix": "str",
	"str.replace":      "str",
	"str.rjust":        "str",
	"str.rstrip":       "str",
	"str.strip":        "str",
	"str.swapcase":     "str",
	"str.title":        "str",
	"str.upper":        "str",
	"str.zfill":        "str",

	"dict.copy":    "dict",
	"list.copy":    "list",
	"set.copy":     "set",
	"bytes.decode": "str",
	"str.encode":   "bytes",
}

// constructorTypes maps builtin constructor names to the type they
// produce, used to type bindings like `d = dict(...)`.
var constructorTypes = map[string]string{
	"bool":      "bool",
	"bytearray": "bytearray",
	"bytes":     "bytes",
	"complex":   "complex",
	"dict":      "dict",
	"float":     "float",
	"frozenset": "frozenset",
	"int":       "int",
	"list":      "list",
	"range":     "range",
	"set":       "set",
	"str":       "str",
	"tuple":     "tuple",
}

// PureFunction reports whether name is a builtin free function with no
// side effects.
func PureFunction(name string) bool {
	return pureFunctions[name]
}

// PureMethod reports whether method on the given builtin type is free
// of side effects.
func PureMethod(typeName, method string) bool {
	return pureMethods[typeName+"."+method]
}

// PureSubscript reports whether a subscript read on the type has no
// side effect.
func PureSubscript(typeName string) bool {
	return subscriptTypes[typeName]
}

// PureMembership reports whether a membership test against the type
// has no side effect.
func PureMembership(typeName string) bool {
	return membershipTypes[typeName]
}

// MethodResultType returns the builtin type a pure method call
// produces, when known.
func MethodResultType(typeName, method string) (string, bool) {
	t, ok := methodResultTypes[typeName+"."+method]
	return t, ok
}

// ConstructorType returns the builtin type name produces when called
// as a constructor, when name is one.
func ConstructorType(name string) (string, bool) {
	t, ok := constructorTypes[name]
	return t, ok
}
