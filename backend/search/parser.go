// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package search parses the query strings used to filter match lists, e.g.
//
//	status:completed overs:>=10 "royal lions"
package search

import (
	"cmp"
	"strconv"
	"strings"
	"unicode"
)

type Operator string

const (
	OpEqual          Operator = "="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpRange          Operator = ".." // overs:5..20
)

// Checked longest first.
var prefixOperators = []Operator{OpGreaterOrEqual, OpLessOrEqual, OpGreater, OpLess}

// Filter is one key:value criterion.
type Filter struct {
	Key      string // "status", "team", "overs", "code"
	Value    string
	MaxValue string // OpRange only
	Operator Operator
}

// Query is a parsed query string. Keys and free text are lower-cased.
type Query struct {
	Filters  []Filter
	FreeText []string
}

// Empty reports whether the query has no criteria.
func (q Query) Empty() bool {
	return len(q.Filters) == 0 && len(q.FreeText) == 0
}

// Parse splits input into filters and free text. Quoted values may contain
// spaces and colons; an unquoted value with a colon is treated as free text.
func Parse(input string) Query {
	q := Query{
		Filters:  make([]Filter, 0),
		FreeText: make([]string, 0),
	}

	for _, token := range tokenize(input) {
		key, val, found := strings.Cut(token, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		val = strings.TrimSpace(val)
		quoted := strings.HasPrefix(val, `"`) || strings.HasPrefix(val, "'")
		if !found || key == "" || val == "" || (strings.Contains(val, ":") && !quoted) {
			q.FreeText = append(q.FreeText, strings.ToLower(removeQuotes(token)))
			continue
		}
		q.Filters = append(q.Filters, parseFilter(key, val))
	}
	return q
}

func parseFilter(key, val string) Filter {
	if lo, hi, ok := strings.Cut(val, ".."); ok {
		return Filter{Key: key, Value: removeQuotes(lo), MaxValue: removeQuotes(hi), Operator: OpRange}
	}
	for _, op := range prefixOperators {
		if rest, ok := strings.CutPrefix(val, string(op)); ok {
			return Filter{Key: key, Value: removeQuotes(rest), Operator: op}
		}
	}
	return Filter{Key: key, Value: strings.ToLower(removeQuotes(val)), Operator: OpEqual}
}

// MatchInt reports whether n satisfies a numeric filter. Unparseable bounds
// never match.
func (f Filter) MatchInt(n int) bool {
	v, err := strconv.Atoi(f.Value)
	if err != nil {
		return false
	}
	switch f.Operator {
	case OpRange:
		hi, err := strconv.Atoi(f.MaxValue)
		return err == nil && n >= v && n <= hi
	default:
		return f.Operator.holds(cmp.Compare(n, v))
	}
}

func (op Operator) holds(c int) bool {
	switch op {
	case OpEqual:
		return c == 0
	case OpGreater:
		return c > 0
	case OpGreaterOrEqual:
		return c >= 0
	case OpLess:
		return c < 0
	case OpLessOrEqual:
		return c <= 0
	}
	return false
}

// tokenize splits on whitespace outside of quotes. Quotes are kept.
func tokenize(input string) []string {
	var tokens []string
	var cur strings.Builder
	var quote rune

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case unicode.IsSpace(r):
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}
	return tokens
}

func removeQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
