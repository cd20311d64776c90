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

package search

import (
	"reflect"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected Query
	}{
		{
			input:    "",
			expected: Query{},
		},
		{
			input: "status:Completed",
			expected: Query{
				Filters: []Filter{{Key: "status", Value: "completed", Operator: OpEqual}},
			},
		},
		{
			input: `team:"Royal Lions" Final`,
			expected: Query{
				Filters:  []Filter{{Key: "team", Value: "royal lions", Operator: OpEqual}},
				FreeText: []string{"final"},
			},
		},
		{
			input: "overs:>=10",
			expected: Query{
				Filters: []Filter{{Key: "overs", Value: "10", Operator: OpGreaterOrEqual}},
			},
		},
		{
			input: "overs:<5",
			expected: Query{
				Filters: []Filter{{Key: "overs", Value: "5", Operator: OpLess}},
			},
		},
		{
			input: "overs:5..20",
			expected: Query{
				Filters: []Filter{{Key: "overs", Value: "5", MaxValue: "20", Operator: OpRange}},
			},
		},
		{
			input: "time:12:00",
			expected: Query{
				FreeText: []string{"time:12:00"},
			},
		},
		{
			input: `code:"AB:12"`,
			expected: Query{
				Filters: []Filter{{Key: "code", Value: "ab:12", Operator: OpEqual}},
			},
		},
		{
			input: "status: lions",
			expected: Query{
				FreeText: []string{"status:", "lions"},
			},
		},
	}

	for _, tt := range tests {
		got := Parse(tt.input)
		if len(got.FreeText) == 0 && len(tt.expected.FreeText) == 0 {
			got.FreeText, tt.expected.FreeText = nil, nil
		}
		if len(got.Filters) == 0 && len(tt.expected.Filters) == 0 {
			got.Filters, tt.expected.Filters = nil, nil
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("Parse(%q)\ngot  %#v\nwant %#v", tt.input, got, tt.expected)
		}
	}
}

func TestMatchInt(t *testing.T) {
	tests := []struct {
		query string
		n     int
		want  bool
	}{
		{"overs:20", 20, true},
		{"overs:20", 19, false},
		{"overs:>10", 11, true},
		{"overs:>10", 10, false},
		{"overs:>=10", 10, true},
		{"overs:<=5", 6, false},
		{"overs:5..20", 5, true},
		{"overs:5..20", 21, false},
		{"overs:many", 5, false},
	}
	for _, tt := range tests {
		q := Parse(tt.query)
		if len(q.Filters) != 1 {
			t.Fatalf("Parse(%q) = %#v", tt.query, q)
		}
		if got := q.Filters[0].MatchInt(tt.n); got != tt.want {
			t.Errorf("%q.MatchInt(%d) = %v, want %v", tt.query, tt.n, got, tt.want)
		}
	}
	if !Parse("").Empty() {
		t.Error("empty query should be Empty")
	}
}
