package querylang

import "strings"

// tokenSet is a bitmask over tokenKind values, used to track which token
// kinds the recursive-descent parser is willing to accept next (the "want
// type" from §4.2).
type tokenSet uint16

func bit(k tokenKind) tokenSet { return 1 << tokenSet(k) }

func (s tokenSet) has(k tokenKind) bool { return s&bit(k) != 0 }
func (s tokenSet) with(k tokenKind) tokenSet { return s | bit(k) }

const (
	wantTopLevel = tokenSet(0) |
		tokenSet(1<<tokOpen) | tokenSet(1<<tokPhrase) | tokenSet(1<<tokNot) | tokenSet(1<<tokTerm)

	wantGroupEntry = tokenSet(1<<tokOpen) | tokenSet(1<<tokPhrase) | tokenSet(1<<tokNot) |
		tokenSet(1<<tokField) | tokenSet(1<<tokTerm) | tokenSet(1<<tokNoop) | tokenSet(1<<tokClose)

	// wantAfterGroup covers every token kind: right after a parenthesized
	// subexpression, any next token is either an explicit connector/close or
	// will be rewritten into one by implicit-operator insertion.
	wantAfterGroup = wantGroupEntry | tokenSet(1<<tokAnd) | tokenSet(1<<tokOr) | tokenSet(1<<tokPlus)

	wantAfterBooleanOp = tokenSet(1<<tokOpen) | tokenSet(1<<tokPhrase) | tokenSet(1<<tokNot) |
		tokenSet(1<<tokField) | tokenSet(1<<tokTerm) | tokenSet(1<<tokNoop) |
		tokenSet(1<<tokClose) | tokenSet(1<<tokPlus)

	wantAfterOperand = tokenSet(1<<tokClose) | tokenSet(1<<tokAnd) | tokenSet(1<<tokOr) | tokenSet(1<<tokPlus)

	wantFieldGroup = tokenSet(1<<tokPhrase) | tokenSet(1<<tokNot) | tokenSet(1<<tokTerm) |
		tokenSet(1<<tokNoop) | tokenSet(1<<tokClose) | tokenSet(1<<tokPlus)

	wantFieldSingle = tokenSet(1<<tokPhrase) | tokenSet(1<<tokTerm) | tokenSet(1<<tokNoop)

	wantNotGroup = tokenSet(1<<tokField) | tokenSet(1<<tokPhrase) | tokenSet(1<<tokNot) |
		tokenSet(1<<tokTerm) | tokenSet(1<<tokNoop) | tokenSet(1<<tokClose) | tokenSet(1<<tokPlus)

	wantNotSingle = tokenSet(1<<tokPhrase) | tokenSet(1<<tokTerm) | tokenSet(1<<tokNoop) | tokenSet(1<<tokField)

	wantFieldOnly = tokenSet(1 << tokField)
)

// maxParseDepth bounds recursion so a pathologically nested query fails with
// a syntax error instead of overflowing the goroutine stack.
const maxParseDepth = 200

// implicitOrTriggers are the token kinds that, when encountered while a
// clause is already accumulated and no boolean operator is pending, are
// reinterpreted as an implicit OR (see §4.2).
func isImplicitOrTrigger(k tokenKind) bool {
	switch k {
	case tokOpen, tokPhrase, tokTerm, tokNoop, tokField:
		return true
	}
	return false
}

// parser walks a single shared token slice with a cursor; pushBack rewinds
// the cursor by one, mirroring the original's tokens.insert(0, token).
type parser struct {
	tokens []token
	pos    int
	depth  int
}

func (p *parser) hasNext() bool { return p.pos < len(p.tokens) }

func (p *parser) nextToken() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) pushBack() { p.pos-- }

// parseTokens runs the recursive-descent loop described in §4.2. It consumes
// tokens from p until either the token stream is exhausted or a CLOSE token
// ends the current group, returning the accumulated clause.
func parseTokens(p *parser, wantType tokenSet) (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxParseDepth {
		return Node{}, syntaxErrorf("query is nested too deeply")
	}

	var clause *Node
	var booleanClause *Node
	hangingBoolean := false

	for p.hasNext() {
		tok := p.nextToken()

		if tok.kind == tokPlus && (clause == nil || clause.Kind == KindAnd || clause.Kind == KindOr) {
			continue
		}

		if hangingBoolean {
			booleanClause = clause
			hangingBoolean = false
		} else if clause != nil && isImplicitOrTrigger(tok.kind) {
			p.pushBack()
			tok = token{kind: tokOr, val: "or"}
		} else if clause != nil && tok.kind == tokNot {
			p.pushBack()
			tok = token{kind: tokAnd, val: "and"}
		}

		if !wantType.has(tok.kind) {
			return Node{}, syntaxErrorf("token %q is not allowed here", tok.val)
		}

		var produced Node

		switch tok.kind {
		case tokOpen:
			sub, err := parseTokens(p, wantGroupEntry)
			if err != nil {
				return Node{}, err
			}
			produced = sub
			wantType = wantAfterGroup

		case tokClose:
			if clause == nil {
				return Node{}, syntaxErrorf("empty group")
			}
			return *clause, nil

		case tokNoop:
			wantType = wantAfterOperand
			produced = noopNode()

		case tokTerm:
			wantType = wantAfterOperand
			val := tok.val
			wildcard := false
			if strings.HasSuffix(val, wildPlaceholder) {
				val = strings.TrimSuffix(val, wildPlaceholder)
				wildcard = true
			}
			produced = termNode(val, wildcard, false)

		case tokPhrase:
			wantType = wantAfterOperand
			produced = termNode(tok.val, false, true)

		case tokAnd, tokOr, tokPlus:
			wantType = wantAfterBooleanOp
			kind := KindAnd
			if tok.kind == tokOr {
				kind = KindOr
			}
			var operands []Node
			if clause != nil {
				if clause.Kind == kind {
					operands = clause.Operands
				} else {
					operands = []Node{*clause}
				}
			}
			produced = booleanNode(kind, operands)
			hangingBoolean = true

		case tokField:
			wantType = wantAfterOperand
			fieldName := strings.TrimSuffix(tok.val, fieldPlaceholder)
			if !p.hasNext() {
				return Node{}, syntaxErrorf("field %q has no value", fieldName)
			}
			nextTok := p.nextToken()

			var operand Node
			var err error
			if nextTok.kind == tokOpen {
				operand, err = parseTokens(p, wantFieldGroup)
			} else {
				sub := &parser{tokens: []token{nextTok}}
				operand, err = parseTokens(sub, wantFieldSingle)
			}
			if err != nil {
				return Node{}, err
			}
			produced = fieldNode(fieldName, operand)

		case tokNot:
			wantType = wantAfterOperand
			if !p.hasNext() {
				return Node{}, syntaxErrorf("not has no operand")
			}
			nextTok := p.nextToken()

			var operand Node
			var err error
			switch {
			case nextTok.kind == tokOpen:
				operand, err = parseTokens(p, wantNotGroup)
			case nextTok.kind == tokField:
				p.pushBack()
				operand, err = parseTokens(p, wantFieldOnly)
			default:
				sub := &parser{tokens: []token{nextTok}}
				operand, err = parseTokens(sub, wantNotSingle)
			}
			if err != nil {
				return Node{}, err
			}
			produced = notNode(operand)

		default:
			return Node{}, syntaxErrorf("unrecognized token %q", tok.val)
		}

		wantType = wantType.with(tokClose)

		if booleanClause != nil {
			if booleanClause.Kind == produced.Kind && (produced.Kind == KindAnd || produced.Kind == KindOr) {
				booleanClause.Operands = append(booleanClause.Operands, produced.Operands...)
			} else {
				booleanClause.Operands = append(booleanClause.Operands, produced)
			}
			merged := *booleanClause
			clause = &merged
			booleanClause = nil
		} else {
			clause = &produced
		}
	}

	if clause == nil {
		return Node{}, syntaxErrorf("empty expression")
	}
	return *clause, nil
}
