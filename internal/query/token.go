// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package query implements the filter language: a tokenizer, a
// recursive-descent parser, and a boolean evaluator over one record's
// field map.
package query

import (
	"regexp"
	"strings"
)

// TokenKind discriminates the token variants produced by Tokenize.
type TokenKind int

const (
	// TokenTerm is a bare word or quoted phrase.
	TokenTerm TokenKind = iota
	// TokenField is a field-scoped term such as title:"deep learning".
	TokenField
	// TokenOpen and TokenClose are the grouping parentheses.
	TokenOpen
	TokenClose
	// TokenAnd, TokenOr, and TokenNot are the operator keywords.
	TokenAnd
	TokenOr
	TokenNot
)

// Token is one lexed element of a filter string.
type Token struct {
	Kind TokenKind

	// Field is the lowercased field name, for TokenField only.
	Field string

	// Text is the term text with surrounding quotes stripped.
	Text string

	// Phrase records whether the term was double-quoted. Phrases match
	// by substring rather than whole word.
	Phrase bool
}

// fieldPattern matches word:value where value is a quoted phrase
// (allowing escaped quotes) or a run of characters up to whitespace or
// a parenthesis.
var fieldPattern = regexp.MustCompile(`^(\w+):("(?:[^"\\]|\\.)*"|[^\s()]+)`)

// phrasePattern matches a double-quoted phrase at the current position.
var phrasePattern = regexp.MustCompile(`^"([^"]*)"`)

// barePattern matches a run of non-space characters.
var barePattern = regexp.MustCompile(`^\S+`)

// Tokenize lexes a filter string. At each position the first matching
// form wins: a field-scoped term, a single parenthesis, a quoted
// phrase, then a bare word. With whitespace trimmed one of these
// always applies. Empty or whitespace-only input yields no tokens.
func Tokenize(s string) []Token {
	var tokens []Token
	s = strings.TrimSpace(s)

	for s != "" {
		if m := fieldPattern.FindStringSubmatch(s); m != nil {
			value, phrase := unquote(m[2])
			tokens = append(tokens, Token{
				Kind:   TokenField,
				Field:  strings.ToLower(m[1]),
				Text:   value,
				Phrase: phrase,
			})
			s = strings.TrimSpace(s[len(m[0]):])
			continue
		}

		switch s[0] {
		case '(':
			tokens = append(tokens, Token{Kind: TokenOpen, Text: "("})
			s = strings.TrimSpace(s[1:])
			continue
		case ')':
			tokens = append(tokens, Token{Kind: TokenClose, Text: ")"})
			s = strings.TrimSpace(s[1:])
			continue
		}

		if m := phrasePattern.FindStringSubmatch(s); m != nil {
			tokens = append(tokens, Token{Kind: TokenTerm, Text: m[1], Phrase: true})
			s = strings.TrimSpace(s[len(m[0]):])
			continue
		}

		// s starts with a non-space byte here, so this always matches.
		m := barePattern.FindString(s)
		tokens = append(tokens, bareToken(m))
		s = strings.TrimSpace(s[len(m):])
	}
	return tokens
}

// bareToken classifies an unquoted word: the operator keywords are
// recognized case-insensitively, everything else is a plain term.
func bareToken(word string) Token {
	switch strings.ToUpper(word) {
	case "AND":
		return Token{Kind: TokenAnd, Text: word}
	case "OR":
		return Token{Kind: TokenOr, Text: word}
	case "NOT":
		return Token{Kind: TokenNot, Text: word}
	default:
		return Token{Kind: TokenTerm, Text: word}
	}
}

// unquote strips one pair of surrounding double quotes, reporting
// whether the value was quoted.
func unquote(s string) (string, bool) {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1], true
	}
	return s, false
}
