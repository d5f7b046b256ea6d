// Package escape provides quoting and sanitizing helpers for building
// PostgreSQL statements from untrusted identifiers and literals.
//
// Identifier and Literal are pure, total functions: they never fail, and
// their output is always safe to embed as a single quoted identifier or
// single-quoted literal body respectively.
package escape

import "strings"

// Identifier sanitizes and quotes a SQL identifier.
//
// Characters that could terminate a statement or alter scope are stripped
// (semicolons, periods, equals signs, and the inline comment marker "--"),
// embedded double quotes are doubled, and the result is wrapped in double
// quotes.
//
// The strips run sequentially, comment marker last: removing an earlier
// character can splice two dashes into a new "--" (as in "-;-"), which the
// final pass must still catch.
func Identifier(name string) string {
	cleaned := strings.ReplaceAll(name, ";", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, "=", "")
	cleaned = strings.ReplaceAll(cleaned, "--", "")

	var b strings.Builder
	b.Grow(len(cleaned) + 2)
	b.WriteByte('"')
	for _, r := range cleaned {
		if r == '"' {
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Literal doubles embedded single quotes in a literal body.
// It does not add outer quotes; callers apply single-quote wrapping
// themselves (see SingleQuote).
func Literal(text string) string {
	return strings.ReplaceAll(text, "'", "''")
}

// Clause strips statement terminators and inline comment markers from a
// caller-supplied boolean expression, such as a WHERE clause. The clause is
// otherwise trusted; this is a guard against statement breakage, not a
// parser. As with Identifier, the comment marker is stripped last so that
// dashes spliced together by the semicolon pass do not survive.
func Clause(expr string) string {
	cleaned := strings.ReplaceAll(expr, ";", "")
	return strings.ReplaceAll(cleaned, "--", "")
}

// DoubleQuote wraps an already-safe identifier in double quotes.
func DoubleQuote(identifier string) string {
	return `"` + identifier + `"`
}

// SingleQuote wraps an already-escaped literal body in single quotes.
func SingleQuote(literal string) string {
	return "'" + literal + "'"
}
