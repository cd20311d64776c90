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

package backend

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	if _, err := OpenStorage(dir, "secret", false); err == nil {
		t.Fatal("OpenStorage without a key file and create=false succeeded")
	}

	s, err := OpenStorage(dir, "secret", true)
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, MasterKeyFile)); err != nil {
		t.Fatalf("master key was not created: %v", err)
	}

	ms := NewMatchStore(dir, s)
	m := newTestMatch(t, "aaaaaaaa-aaaa-4aaa-aaaa-aaaaaaaaaaaa", "KEY123", "owner@example.com")
	if err := ms.SaveMatch(m); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}

	// Same passphrase, same data.
	s2, err := OpenStorage(dir, "secret", false)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := NewMatchStore(dir, s2).LoadMatch(m.ID)
	if err != nil {
		t.Fatalf("LoadMatch after reopen: %v", err)
	}
	if got.Code != "KEY123" {
		t.Errorf("Code = %q, want KEY123", got.Code)
	}

	if _, err := OpenStorage(dir, "wrong", false); err == nil {
		t.Error("OpenStorage with the wrong passphrase succeeded")
	}
	if _, err := OpenStorage(dir, "", true); err == nil {
		t.Error("OpenStorage without a passphrase ignored the existing key file")
	}
}

func TestOpenStorageUnencrypted(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenStorage(dir, "", true)
	if err != nil {
		t.Fatalf("OpenStorage: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, MasterKeyFile)); !os.IsNotExist(err) {
		t.Errorf("unexpected master key file: %v", err)
	}
	ms := NewMatchStore(dir, s)
	m := newTestMatch(t, "bbbbbbbb-bbbb-4bbb-bbbb-bbbbbbbbbbbb", "PLAIN1", "")
	if err := ms.SaveMatch(m); err != nil {
		t.Fatalf("SaveMatch: %v", err)
	}
	if _, err := ms.LoadMatch(m.ID); err != nil {
		t.Fatalf("LoadMatch: %v", err)
	}
}
