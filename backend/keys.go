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
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
)

// MasterKeyFile is the name of the encrypted master key inside the data dir.
const MasterKeyFile = "master.key"

// OpenStorage returns the data file storage of dataDir. With a passphrase the
// files are encrypted with the master key stored next to them, which is
// created on first use when create is set. Without one, the data is stored
// unencrypted, and an existing key file is a fatal misconfiguration.
func OpenStorage(dataDir, passphrase string, create bool) (*storage.Storage, error) {
	keyFile := filepath.Join(dataDir, MasterKeyFile)

	var masterKey crypto.MasterKey
	if passphrase != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, err
		}
		mk, err := crypto.ReadMasterKey([]byte(passphrase), keyFile)
		switch {
		case err == nil:
			log.Println("Loaded master encryption key.")
		case errors.Is(err, os.ErrNotExist) && create:
			log.Println("Initializing new master encryption key...")
			if mk, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("create master key: %w", err)
			}
			if err := mk.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("save master key: %w", err)
			}
		default:
			return nil, fmt.Errorf("read master key: %w", err)
		}
		masterKey = mk
	} else {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%s exists but no passphrase was provided; refusing to use the data unencrypted", keyFile)
		}
		log.Println("Warning: No master key passphrase provided. Data will be stored UNENCRYPTED.")
	}

	s := storage.New(dataDir, masterKey)
	s.EnableCompression(true)
	return s, nil
}
