package exceptions

// builtinParent maps every builtin exception class to its primary
// base. BaseException is the root and maps to the empty string. The
// table is written once here and only ever read.
var builtinParent = map[string]string{
	"BaseException":      "",
	"BaseExceptionGroup": "BaseException",
	"GeneratorExit":      "BaseException",
	"KeyboardInterrupt":  "BaseException",
	"SystemExit":         "BaseException",

	"Exception":          "BaseException",
	"ArithmeticError":    "Exception",
	"AssertionError":     "Exception",
	"AttributeError":     "Exception",
	"BufferError":        "Exception",
	"EOFError":           "Exception",
	"ExceptionGroup":     "Exception",
	"ImportError":        "Exception",
	"LookupError":        "Exception",
	"MemoryError":        "Exception",
	"NameError":          "Exception",
	"OSError":            "Exception",
	"ReferenceError":     "Exception",
	"RuntimeError":       "Exception",
	"StopAsyncIteration": "Exception",
	"StopIteration":      "Exception",
	"SyntaxError":        "Exception",
	"SystemError":        "Exception",
	"TypeError":          "Exception",
	"ValueError":         "Exception",
	"Warning":            "Exception",

	"FloatingPointError": "ArithmeticError",
	"OverflowError":      "ArithmeticError",
	"ZeroDivisionError":  "ArithmeticError",

	"ModuleNotFoundError": "ImportError",

	"IndexError": "LookupError",
	"KeyError":   "LookupError",

	"UnboundLocalError": "NameError",

	"BlockingIOError":    "OSError",
	"ChildProcessError":  "OSError",
	"ConnectionError":    "OSError",
	"FileExistsError":    "OSError",
	"FileNotFoundError":  "OSError",
	"InterruptedError":   "OSError",
	"IsADirectoryError":  "OSError",
	"NotADirectoryError": "OSError",
	"PermissionError":    "OSError",
	"ProcessLookupError": "OSError",
	"TimeoutError":       "OSError",

	"BrokenPipeError":        "ConnectionError",
	"ConnectionAbortedError": "ConnectionError",
	"ConnectionRefusedError": "ConnectionError",
	"ConnectionResetError":   "ConnectionError",

	"NotImplementedError": "RuntimeError",
	"RecursionError":      "RuntimeError",

	"IndentationError": "SyntaxError",
	"TabError":         "IndentationError",

	"UnicodeError":          "ValueError",
	"UnicodeDecodeError":    "UnicodeError",
	"UnicodeEncodeError":    "UnicodeError",
	"UnicodeTranslateError": "UnicodeError",

	"BytesWarning":              "Warning",
	"DeprecationWarning":        "Warning",
	"EncodingWarning":           "Warning",
	"FutureWarning":             "Warning",
	"ImportWarning":             "Warning",
	"PendingDeprecationWarning": "Warning",
	"ResourceWarning":           "Warning",
	"RuntimeWarning":            "Warning",
	"SyntaxWarning":             "Warning",
	"UnicodeWarning":            "Warning",
	"UserWarning":               "Warning",

	// Pre-3.3 aliases that still resolve at runtime.
	"EnvironmentError": "OSError",
	"IOError":          "OSError",
}

// IsBuiltin reports whether name is a builtin exception class.
func IsBuiltin(name string) bool {
	_, ok := builtinParent[name]
	return ok
}
