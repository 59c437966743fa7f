package querylang

import (
	"regexp"
	"strings"
)

var regexMetaRe = regexp.MustCompile(`[.^$*+?()\[\]{}|\\]`)
var whitespaceRe = regexp.MustCompile(`\s+`)

const wordBoundary = "[[:<:]]"

// ToRegex renders n as a POSIX extended regular expression with word-boundary
// matching, per §4.5. The tree should already have passed through
// FilterTree(n, RegexFilter), which removes Not nodes along with the same
// Field/Noop nodes TSQueryFilter removes; a surviving Not is a caller error,
// since the regex backend has no way to express negation.
func ToRegex(n Node) (string, error) {
	switch n.Kind {
	case KindTerm:
		return regexTerm(n), nil

	case KindAnd:
		return regexAnd(n.Operands)

	case KindOr:
		return regexOr(n.Operands)

	case KindNot:
		return "", syntaxErrorf("not node cannot be emitted as regex")

	case KindField:
		if n.Field == "sentence" {
			return ToRegex(*n.Operand)
		}
		return "", syntaxErrorf("field %q cannot be emitted as regex", n.Field)

	case KindNoop:
		return "", syntaxErrorf("noop node cannot be emitted as regex")
	}

	return "", syntaxErrorf("unknown node kind in regex emission")
}

func regexTerm(n Node) string {
	if n.Phrase {
		inner := strings.ToLower(stripQuotes(n.Text))
		escaped := regexMetaRe.ReplaceAllString(inner, `\$0`)
		escaped = whitespaceRe.ReplaceAllString(escaped, "[[:space:]]+")
		return wordBoundary + escaped
	}
	return wordBoundary + regexMetaRe.ReplaceAllString(n.Text, `\$0`)
}

func regexOr(operands []Node) (string, error) {
	var parts []string
	for _, operand := range operands {
		rendered, err := ToRegex(operand)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return "(?: " + strings.Join(parts, " | ") + " )", nil
}

// regexAnd mirrors the original printer's pair-wise unordered-adjacency
// construction: for a first operand and the rest of the list, it emits
// "either A followed eventually by the rest, or the rest followed eventually
// by A", recursing on the tail for three-or-more operands. This recursion is
// asymmetric (the tail is always re-derived as a whole rather than paired off
// two at a time); the original printer does the same and the behavior is
// preserved here rather than corrected.
func regexAnd(operands []Node) (string, error) {
	if len(operands) == 0 {
		return "", syntaxErrorf("and node has no operands")
	}
	if len(operands) == 1 {
		return ToRegex(operands[0])
	}

	first, err := ToRegex(operands[0])
	if err != nil {
		return "", err
	}
	rest, err := regexAnd(operands[1:])
	if err != nil {
		return "", err
	}

	return "(?: (?: " + first + " .* " + rest + " ) | (?: " + rest + " .* " + first + " ) )", nil
}
