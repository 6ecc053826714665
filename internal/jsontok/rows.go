package jsontok

import "github.com/pkg/errors"

// ParseRowArray tokenizes a JSON row-array chunk body (a top-level array of
// row arrays, e.g. `[["a","1"],["b","2"]]`) into a slice of row JsonValues.
// Each row's bytes are located with FindValueEnd and parsed independently,
// so no single call re-walks the full document as one parse tree. A
// malformed row fails the whole call: no rows are returned, including
// those parsed before it. Grounded on app/fileloader/json.go's findJSONValueEnd
// bracket-stack scanner, which solves the same "find the next value's end
// without fully parsing" problem for its own JSON-streaming fallback path.
func ParseRowArray(data []byte) ([]JsonValue, error) {
	pos := skipSpace(data, 0)
	if pos >= len(data) || data[pos] != '[' {
		return nil, errors.New("row array chunk body is not a top-level JSON array")
	}
	pos++
	pos = skipSpace(data, pos)
	var rows []JsonValue
	if pos < len(data) && data[pos] == ']' {
		return rows, nil
	}
	for {
		pos = skipSpace(data, pos)
		end, err := FindValueEnd(data, pos)
		if err != nil {
			return nil, errors.Wrapf(err, "locating row starting at offset %d", pos)
		}
		row, err := Parse(data[pos:end])
		if err != nil {
			return nil, errors.Wrapf(err, "parsing row starting at offset %d", pos)
		}
		rows = append(rows, row)
		pos = skipSpace(data, end)
		if pos >= len(data) {
			return nil, errors.New("unterminated row array")
		}
		switch data[pos] {
		case ',':
			pos++
		case ']':
			return rows, nil
		default:
			return nil, errors.Errorf("expected ',' or ']' at offset %d", pos)
		}
	}
}

func skipSpace(data []byte, pos int) int {
	for pos < len(data) {
		switch data[pos] {
		case ' ', '\t', '\n', '\r':
			pos++
		default:
			return pos
		}
	}
	return pos
}

// FindValueEnd scans data starting at pos (which must point at the first
// character of a JSON value) and returns the offset just past that value's
// end. It tracks bracket/brace nesting and string/escape state, the same
// technique as the teacher's findJSONValueEnd, so a row can be sliced out
// of a larger buffer without allocating a tree for the whole document.
func FindValueEnd(data []byte, pos int) (int, error) {
	if pos >= len(data) {
		return 0, errors.New("position out of range")
	}
	switch data[pos] {
	case '"':
		return findStringEnd(data, pos)
	case '{', '[':
		return findBracketedEnd(data, pos)
	default:
		// scalar literal: ends at the next structural character or whitespace
		i := pos
		for i < len(data) {
			switch data[i] {
			case ',', ']', '}', ' ', '\t', '\n', '\r':
				return i, nil
			}
			i++
		}
		return i, nil
	}
}

func findStringEnd(data []byte, pos int) (int, error) {
	i := pos + 1
	for i < len(data) {
		switch data[i] {
		case '\\':
			i += 2
			continue
		case '"':
			return i + 1, nil
		}
		i++
	}
	return 0, errors.New("unterminated string")
}

func findBracketedEnd(data []byte, pos int) (int, error) {
	depth := 0
	inString := false
	i := pos
	for i < len(data) {
		c := data[i]
		if inString {
			switch c {
			case '\\':
				i += 2
				continue
			case '"':
				inString = false
			}
			i++
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				return i + 1, nil
			}
		}
		i++
	}
	return 0, errors.New("unterminated bracketed value")
}
