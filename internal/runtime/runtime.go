// Package runtime embeds the hand-written C runtime library the code
// generator links against when asked to include it: implementations of
// the fixed I/O hook procedures (getBool, getInteger, getFloat,
// getString, putBool, putInteger, putFloat, putString) plus
// validateBooleanOp, the helper the generator calls out to for
// boolean-typed binary operators.
package runtime

import _ "embed"

//go:embed runtime.c
var Source string

//go:embed runtime.h
var Header string
