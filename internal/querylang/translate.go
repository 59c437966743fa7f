package querylang

import (
	"fmt"
	"log/slog"
)

// logger is the package's optional diagnostic sink. It is nil by default,
// which is a silent, valid configuration: nothing in this package ever
// changes behavior based on whether a logger is set.
var logger *slog.Logger

// SetLogger installs a logger for informational tracing of parse failures.
// Passing nil (the default) disables logging entirely.
func SetLogger(l *slog.Logger) {
	logger = l
}

func logDebug(msg string, args ...any) {
	if logger != nil {
		logger.Debug(msg, args...)
	}
}

// Parse tokenizes and parses query into an expression tree, per §4.1/§4.2.
// The whole query is implicitly wrapped in one parenthesized group, matching
// how a bare top-level "a or b" is equivalent to "( a or b )".
func Parse(query string) (Node, error) {
	tokens, err := tokenize("( " + query + " )")
	if err != nil {
		logDebug("querylang: tokenize failed", "error", err)
		return Node{}, err
	}

	p := &parser{tokens: tokens}
	n, err := parseTokens(p, wantTopLevel)
	if err != nil {
		logDebug("querylang: parse failed", "error", err)
		return Node{}, err
	}
	return n, nil
}

// TSQuery filters n for the tsquery backend and emits it, per §4.3/§4.4.
func TSQuery(n Node) (string, error) {
	filtered, ok := FilterTree(n, TSQueryFilter)
	if !ok {
		return "", syntaxErrorf("query is empty without fields or ranges")
	}
	return ToTSQuery(filtered)
}

// Regex filters n for the regex backend and emits it, per §4.3/§4.5.
func Regex(n Node) (string, error) {
	filtered, ok := FilterTree(n, RegexFilter)
	if !ok {
		return "", syntaxErrorf("query is empty without fields or ranges")
	}
	return ToRegex(filtered)
}

// DecodeQuery accepts a query as either a string or raw bytes and returns it
// as a string, mirroring the original's decode_string_from_bytes_if_needed
// so callers reading a query off the wire don't need to care which form they
// received it in.
func DecodeQuery(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	default:
		return "", fmt.Errorf("querylang: cannot decode query of type %T", v)
	}
}
