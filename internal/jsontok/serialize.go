package jsontok

import (
	"strconv"
	"strings"
)

// Serialize re-emits v as JSON text. Used only by the round-trip law test
// (§8): re-serialized output compares equal to the original modulo
// whitespace and number-formatting normalization, so this writer makes no
// attempt to preserve the source's original whitespace or number spelling.
func Serialize(v JsonValue) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

func writeValue(b *strings.Builder, v JsonValue) {
	switch v.Kind {
	case KindNull:
		b.WriteString("null")
	case KindBool:
		if v.Bool {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case KindNumber:
		b.WriteString(v.Number)
	case KindString:
		b.WriteString(strconv.Quote(v.Str))
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.Array {
			if i > 0 {
				b.WriteByte(',')
			}
			writeValue(b, item)
		}
		b.WriteByte(']')
	case KindObject:
		b.WriteByte('{')
		for i, p := range v.Object {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(p.Key))
			b.WriteByte(':')
			writeValue(b, p.Value)
		}
		b.WriteByte('}')
	}
}
