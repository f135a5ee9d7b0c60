// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Evaluate reports whether one record matches the expression. fields
// maps lowercase field names to lowercase field text; a field name the
// expression references but the map lacks behaves as empty text.
//
// Evaluate is total over expressions produced by Parse. An unknown node
// type is a programming error and panics.
func Evaluate(e Expr, fields map[string]string) bool {
	switch n := e.(type) {
	case And:
		return Evaluate(n.Left, fields) && Evaluate(n.Right, fields)
	case Or:
		return Evaluate(n.Left, fields) || Evaluate(n.Right, fields)
	case Not:
		return !Evaluate(n.Operand, fields)
	case Term:
		return matchTerm(n.Text, n.Phrase, joinFields(fields))
	case Field:
		if n.Name == "any" {
			for _, text := range fields {
				if matchTerm(n.Text, n.Phrase, text) {
					return true
				}
			}
			return false
		}
		return matchTerm(n.Text, n.Phrase, fields[n.Name])
	default:
		panic(fmt.Sprintf("query: unknown expression node %T", e))
	}
}

// matchTerm tests one literal against one text value. All matching is
// case-insensitive; text is expected pre-lowercased.
//
//  1. A quoted phrase matches as a plain substring.
//  2. A term containing * or ? matches as a wildcard pattern anywhere
//     in the text: * is any run of characters, ? exactly one.
//  3. Anything else must occur as a whole word.
func matchTerm(term string, phrase bool, text string) bool {
	term = strings.ToLower(term)

	if phrase {
		return strings.Contains(text, term)
	}

	if strings.ContainsAny(term, "*?") {
		return wildcardPattern(term).MatchString(text)
	}

	if term == "" {
		return true
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
	return re.MatchString(text)
}

// wildcardPattern translates a term's * and ? into a regular
// expression, quoting every other character so the evaluator cannot
// fail on metacharacters in the term.
func wildcardPattern(term string) *regexp.Regexp {
	var b strings.Builder
	for _, r := range term {
		switch r {
		case '*':
			b.WriteString(`.*`)
		case '?':
			b.WriteString(`.`)
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return regexp.MustCompile(b.String())
}

// joinFields concatenates all field values with spaces in a fixed
// (sorted-key) order, for matching bare terms against the whole record.
func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = fields[k]
	}
	return strings.Join(values, " ")
}
