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

// readmatch prints stored matches, decrypting them with WK_MASTER_KEY.
//
//	readmatch -data-dir data <match-id|join-code>...
//	readmatch -data-dir data -list
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ttbt-io/wicketkeeper/backend"
	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

var (
	dataDir   = flag.String("data-dir", "data", "Directory for match data")
	list      = flag.Bool("list", false, "List all stored matches")
	scorecard = flag.Bool("scorecard", false, "Print the scorecard instead of the JSON document")
)

func main() {
	flag.Parse()

	s, err := backend.OpenStorage(*dataDir, os.Getenv("WK_MASTER_KEY"), false)
	if err != nil {
		log.Fatal(err)
	}
	store := backend.NewMatchStore(*dataDir, s)

	if *list {
		listMatches(store)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	for _, arg := range flag.Args() {
		m, err := load(store, arg)
		if err != nil {
			log.Printf("%s: %v", arg, err)
			continue
		}
		fmt.Printf("=========== %s ===========\n", m.ID)
		if *scorecard {
			fmt.Print(backend.RenderScorecard(*m))
			continue
		}
		if err := enc.Encode(m); err != nil {
			log.Printf("JSON: %s: %v", arg, err)
		}
	}
}

// load accepts either a match id or a join code.
func load(store *backend.MatchStore, arg string) (*scoring.Match, error) {
	if scoring.ValidJoinCode(scoring.NormalizeJoinCode(arg)) {
		return store.FindByCode(arg)
	}
	return store.LoadMatch(arg)
}

func listMatches(store *backend.MatchStore) {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"ID", "Code", "Status", "Overs", "Teams", "Owner", "Updated"})
	n := 0
	for meta, err := range store.ListAllMatchMetadata() {
		if err != nil {
			log.Printf("list: %v", err)
			continue
		}
		tbl.AppendRow(table.Row{
			meta.ID, meta.Code, meta.Status, meta.TotalOvers,
			meta.Team1 + " v " + meta.Team2, meta.OwnerID,
			time.UnixMilli(meta.UpdatedAt).UTC().Format(time.RFC3339),
		})
		n++
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d matches", n)})
	fmt.Println(tbl.Render())
}
