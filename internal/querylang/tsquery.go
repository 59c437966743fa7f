package querylang

import (
	"regexp"
	"strings"
)

var nonWordRunRe = regexp.MustCompile(`\W+`)

// ToTSQuery renders n as a PostgreSQL tsquery expression, per §4.4. The tree
// should already have passed through FilterTree(n, TSQueryFilter); a
// surviving Field node for any field other than "sentence", or a surviving
// Noop node, is a caller error rather than something this function can
// silently drop.
func ToTSQuery(n Node) (string, error) {
	switch n.Kind {
	case KindTerm:
		return tsqueryTerm(n)

	case KindAnd:
		return tsqueryBoolean(n, "&")

	case KindOr:
		return tsqueryBoolean(n, "|")

	case KindNot:
		inner, err := ToTSQuery(*n.Operand)
		if err != nil {
			return "", err
		}
		return "!" + inner, nil

	case KindField:
		if n.Field == "sentence" {
			return ToTSQuery(*n.Operand)
		}
		return "", syntaxErrorf("field %q cannot be emitted as tsquery", n.Field)

	case KindNoop:
		return "", syntaxErrorf("noop node cannot be emitted as tsquery")
	}

	return "", syntaxErrorf("unknown node kind in tsquery emission")
}

func tsqueryTerm(n Node) (string, error) {
	if n.Phrase {
		inner := stripQuotes(n.Text)
		words := nonWordRunRe.Split(inner, -1)

		var terms []Node
		for _, w := range words {
			if w == "" {
				continue
			}
			terms = append(terms, termNode(w, false, false))
		}
		if len(terms) == 0 {
			return "", syntaxErrorf("phrase %q reduces to no terms", n.Text)
		}
		return ToTSQuery(booleanNode(KindAnd, terms))
	}

	if n.Wildcard {
		return n.Text + ":*", nil
	}
	return n.Text, nil
}

func tsqueryBoolean(n Node, connector string) (string, error) {
	var parts []string
	for _, operand := range n.Operands {
		rendered, err := ToTSQuery(operand)
		if err != nil {
			return "", err
		}
		parts = append(parts, rendered)
	}
	return "( " + strings.Join(parts, " "+connector+" ") + " )", nil
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && last == first {
			return s[1 : len(s)-1]
		}
	}
	return s
}
