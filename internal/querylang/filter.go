package querylang

// Predicate decides whether FilterTree removes a node from the tree. kind
// identifies one of the two canonical predicates below for the idempotence
// memo; a zero kind (filterNone) disables memoization for ad-hoc predicates,
// since an arbitrary func(Node) bool can't be compared for identity.
type Predicate struct {
	kind filterKind
	fn   func(Node) bool
}

// TSQueryFilter removes nodes that the tsquery emitter cannot represent:
// Field nodes for any field other than "sentence", and Noop nodes.
var TSQueryFilter = Predicate{kind: filterTSQuery, fn: isFieldOrNoop}

// RegexFilter removes everything TSQueryFilter removes, plus Not nodes,
// since the regex backend has no way to express negation.
var RegexFilter = Predicate{kind: filterRegex, fn: isFieldOrNoopOrNot}

func isFieldOrNoop(n Node) bool {
	if n.Kind == KindField && n.Field != "sentence" {
		return true
	}
	return n.Kind == KindNoop
}

func isFieldOrNoopOrNot(n Node) bool {
	if isFieldOrNoop(n) {
		return true
	}
	return n.Kind == KindNot
}

// FilterTree returns a new tree with every subtree for which pred.fn reports
// true removed, propagating emptiness upward: a Not loses its operand and is
// removed entirely; an And/Or keeps only the operands that survive filtering
// and is itself removed if none do. The bool return reports whether the node
// (or its filtered replacement) survived.
//
// If the tree was already produced by filtering with this same canonical
// predicate, FilterTree returns it unchanged without walking it again.
func FilterTree(n Node, pred Predicate) (Node, bool) {
	if pred.kind != filterNone && n.filteredBy == pred.kind {
		return n, true
	}

	if pred.fn(n) {
		return Node{}, false
	}

	var filtered Node
	switch n.Kind {
	case KindTerm, KindNoop:
		filtered = n

	case KindNot:
		childFiltered, ok := FilterTree(*n.Operand, pred)
		if !ok {
			return Node{}, false
		}
		filtered = notNode(childFiltered)

	case KindField:
		childFiltered, ok := FilterTree(*n.Operand, pred)
		if !ok {
			return Node{}, false
		}
		filtered = fieldNode(n.Field, childFiltered)

	case KindAnd, KindOr:
		var survivors []Node
		for _, operand := range n.Operands {
			childFiltered, ok := FilterTree(operand, pred)
			if ok {
				survivors = append(survivors, childFiltered)
			}
		}
		switch len(survivors) {
		case 0:
			return Node{}, false
		case 1:
			// A boolean node with a single surviving operand collapses to
			// that operand directly rather than staying wrapped: filtering
			// "foo:[1 TO 10] and bar" down to just "bar" should emit "bar",
			// not "( bar )".
			filtered = survivors[0]
		default:
			filtered = booleanNode(n.Kind, survivors)
		}

	default:
		filtered = n
	}

	if pred.kind != filterNone {
		filtered.filteredBy = pred.kind
	}
	return filtered, true
}
