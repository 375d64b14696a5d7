package accounts

import "strings"

// NameParts holds a decomposed person name.
type NameParts struct {
	First  string
	Middle string
	Last   string
}

// ParseFullName decomposes a combined name string.
//
// A comma splits into "last, rest": the rest's first token is the first
// name and the remaining tokens join into the middle name. Without a
// comma the string splits on whitespace: first token is the first name,
// last token is the last name, interior tokens join into the middle
// name. Note the ambiguity this leaves for multi-word surnames:
// "Juan Dela Cruz" yields last name "Cruz", not "Dela Cruz".
func ParseFullName(full string) NameParts {
	full = strings.TrimSpace(full)
	if full == "" {
		return NameParts{}
	}

	if comma := strings.Index(full, ","); comma >= 0 {
		last := strings.TrimSpace(full[:comma])
		rest := strings.Fields(full[comma+1:])
		parts := NameParts{Last: last}
		if len(rest) > 0 {
			parts.First = rest[0]
			parts.Middle = strings.Join(rest[1:], " ")
		}
		return parts
	}

	tokens := strings.Fields(full)
	switch len(tokens) {
	case 1:
		return NameParts{First: tokens[0]}
	default:
		return NameParts{
			First:  tokens[0],
			Middle: strings.Join(tokens[1:len(tokens)-1], " "),
			Last:   tokens[len(tokens)-1],
		}
	}
}

// resolveName merges explicit name parts with those parsed from the
// combined name; explicit parts always win.
func resolveName(first, middle, last, full string) NameParts {
	parsed := ParseFullName(full)
	if first != "" {
		parsed.First = first
	}
	if middle != "" {
		parsed.Middle = middle
	}
	if last != "" {
		parsed.Last = last
	}
	return parsed
}

// DisplayName composes the canonical "{last}, {first} {middle}" form,
// omitting the middle segment when empty.
func (n NameParts) DisplayName() string {
	rest := strings.TrimSpace(n.First + " " + n.Middle)
	switch {
	case n.Last == "":
		return rest
	case rest == "":
		return n.Last
	default:
		return n.Last + ", " + rest
	}
}
