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

package scoring

import (
	"crypto/rand"
	"math/big"
	"strings"
)

const (
	joinCodeLength   = 6
	joinCodeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NewJoinCode returns a random six character code that spectators use to
// find a match.
func NewJoinCode() string {
	var sb strings.Builder
	limit := big.NewInt(int64(len(joinCodeAlphabet)))
	for range joinCodeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}
		sb.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return sb.String()
}

// NormalizeJoinCode upper-cases and trims a code typed by a user.
func NormalizeJoinCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidJoinCode reports whether code is well formed. It says nothing about
// whether a match uses it.
func ValidJoinCode(code string) bool {
	if len(code) != joinCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(joinCodeAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}
