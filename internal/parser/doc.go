// Package parser turns mechanism program text into an ast.Program.
//
// The surface syntax is tokenized with the HCL native-syntax lexer, so
// comments (`#`, `//`, `/* */`), identifiers (letters, digits, `_` and `-`)
// and number literals follow HCL rules. Whitespace and line breaks carry no
// meaning: every statement starts with its own keyword.
//
//	sim fourbar {
//	  joint A, 0, 0, 0
//	  joint B, 2, 0
//	  link AB, A, B
//	  distance(A, B) = 2
//	  fixed(A)
//	  plane(A, B) normal = Y point = (0, 0, 0)
//	  prismatic_vector(B) axis = (1, 0, 0) origin = (0, 0, 0)
//	  prismatic_link(B) link = AB origin = (0, 0, 0)
//	  fixed_angle(A, B, C) = 90deg
//	  revolute(A, B) axis = X min = -1.57 max = 1.57
//	}
//
// Numeric literals are single precision: each literal is rounded to the
// nearest float32 before it is widened for the solver.
//
// Parsing stops at the first error; the returned diagnostics then hold exactly
// one error with the source range of the offending token.
package parser
