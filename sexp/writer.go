package sexp

import (
	"strconv"
	"strings"
)

// Encode renders v as s-expression text. It never octal-escapes non-ASCII
// characters, never abbreviates, and never escapes literal newline/tab
// bytes embedded in a string: only backslash and the double quote are
// escaped.
func Encode(v Value) string {
	var sb strings.Builder
	writeValue(&sb, v)
	return sb.String()
}

func writeValue(sb *strings.Builder, v Value) {
	switch v.Kind {
	case KindNil:
		sb.WriteString("nil")
	case KindSymbol:
		sb.WriteString(string(v.Sym))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case KindFloat:
		sb.WriteString(formatFloat(v.Flt))
	case KindString:
		writeString(sb, v.Str)
	case KindList:
		sb.WriteByte('(')
		for i, item := range v.List {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeValue(sb, item)
		}
		sb.WriteByte(')')
	default:
		sb.WriteString("nil")
	}
}

// formatFloat renders f so it always reads back as a float, never an int:
// strconv's shortest representation drops the decimal point for an
// integer-valued float (42.0 becomes "42"), which the reader would then
// parse as an integer. A bare ".0" is appended whenever the shortest form
// has no decimal point and no exponent.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func writeString(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
}
