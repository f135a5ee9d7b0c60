// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

// Expr is a node of the parsed boolean filter expression.
type Expr interface {
	isExpr()
}

// Term matches a literal against the record's combined field text. An
// empty Text matches every record.
type Term struct {
	Text   string
	Phrase bool
}

// Field matches a literal against one named field, or every field when
// Name is "any".
type Field struct {
	Name   string
	Text   string
	Phrase bool
}

// And, Or, and Not compose subexpressions.
type And struct{ Left, Right Expr }
type Or struct{ Left, Right Expr }
type Not struct{ Operand Expr }

func (Term) isExpr()  {}
func (Field) isExpr() {}
func (And) isExpr()   {}
func (Or) isExpr()    {}
func (Not) isExpr()   {}

// matchAll is the trivially-true expression that malformed or empty
// input degrades to.
var matchAll = Term{}

// Compile tokenizes and parses a filter string in one step.
func Compile(s string) Expr {
	return Parse(Tokenize(s))
}

// Parse builds an expression tree from a token sequence. It never
// fails: empty input parses to a match-all term, and an unmatched "("
// that runs out of tokens degrades to match-all rather than erroring.
//
// AND and OR share one precedence level and associate left; there is no
// AND-binds-tighter rule. "a OR b AND c" therefore parses as
// "(a OR b) AND c". This flat behavior is part of the filter language.
func Parse(tokens []Token) Expr {
	if len(tokens) == 0 {
		return matchAll
	}
	p := &parser{tokens: tokens}
	return p.parseExpression()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) parseExpression() Expr {
	expr := p.parseTerm()
	for p.pos < len(p.tokens) {
		switch p.tokens[p.pos].Kind {
		case TokenAnd:
			p.pos++
			expr = And{Left: expr, Right: p.parseTerm()}
		case TokenOr:
			p.pos++
			expr = Or{Left: expr, Right: p.parseTerm()}
		default:
			return expr
		}
	}
	return expr
}

// parseTerm consumes one operand: a NOT applied to the single following
// term, a parenthesized group, a field-scoped term, or a literal.
func (p *parser) parseTerm() Expr {
	if p.pos >= len(p.tokens) {
		return matchAll
	}

	tok := p.tokens[p.pos]
	p.pos++

	switch tok.Kind {
	case TokenField:
		return Field{Name: tok.Field, Text: tok.Text, Phrase: tok.Phrase}
	case TokenNot:
		return Not{Operand: p.parseTerm()}
	case TokenOpen:
		expr := p.parseExpression()
		if p.pos < len(p.tokens) && p.tokens[p.pos].Kind == TokenClose {
			p.pos++
			return expr
		}
		// Unterminated group: degrade to match-all.
		return matchAll
	default:
		return Term{Text: tok.Text, Phrase: tok.Phrase}
	}
}
