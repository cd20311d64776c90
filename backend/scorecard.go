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
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ttbt-io/wicketkeeper/backend/scoring"
)

// RenderScorecard returns a plain-text scorecard of every innings played so
// far, followed by the chase or the result.
func RenderScorecard(m scoring.Match) string {
	var b strings.Builder
	b.WriteString(scorecardHeader(m))
	for _, n := range playedInnings(m) {
		b.WriteString("\n")
		b.WriteString(renderInnings(m, n))
	}
	if footer := scorecardFooter(m); footer != "" {
		b.WriteString("\n")
		b.WriteString(footer)
	}
	return b.String()
}

func scorecardHeader(m scoring.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s v %s, %d overs\n", teamName(m, scoring.Team1), teamName(m, scoring.Team2), m.TotalOvers)
	fmt.Fprintf(&b, "Status: %s\n", m.Status)
	if m.Toss != nil {
		fmt.Fprintf(&b, "Toss: %s, elected to %s\n", teamName(m, m.Toss.Winner), m.Toss.Decision)
	}
	return b.String()
}

func scorecardFooter(m scoring.Match) string {
	if r, ok := m.Result(); ok {
		return r.String(m.Teams) + "\n"
	}
	if m.Status != scoring.StatusInProgress {
		return ""
	}
	var b strings.Builder
	if c, ok := m.Chase(); ok {
		fmt.Fprintf(&b, "Target %d: %d needed from %d balls (RRR %.2f)\n", c.Target, c.RunsNeeded, c.BallsLeft, c.RequiredRRR)
	}
	if end := m.InningsComplete(); end != scoring.InningsOngoing {
		fmt.Fprintf(&b, "Innings complete: %s\n", strings.ReplaceAll(string(end), "_", " "))
	}
	return b.String()
}

// playedInnings lists the innings that have started.
func playedInnings(m scoring.Match) []scoring.InningsNumber {
	switch m.Status {
	case scoring.StatusSetup, scoring.StatusToss:
		return nil
	case scoring.StatusInningsBreak:
		return []scoring.InningsNumber{scoring.FirstInnings}
	}
	if m.CurrentInnings == scoring.SecondInnings {
		return []scoring.InningsNumber{scoring.FirstInnings, scoring.SecondInnings}
	}
	return []scoring.InningsNumber{scoring.FirstInnings}
}

// battingSlotOf returns the side that batted in innings n.
func battingSlotOf(m scoring.Match, n scoring.InningsNumber) scoring.TeamSlot {
	if n == m.CurrentInnings {
		return m.BattingSlot
	}
	return m.BattingSlot.Other()
}

func inningsOf(m scoring.Match, n scoring.InningsNumber) scoring.Innings {
	if n == scoring.SecondInnings {
		return m.Innings.Second
	}
	return m.Innings.First
}

// inningsLine is e.g. "Lions 1st innings: 45/3 (5.2 overs, RR 8.44)".
func inningsLine(m scoring.Match, n scoring.InningsNumber) string {
	in := inningsOf(m, n)
	ord := "1st"
	if n == scoring.SecondInnings {
		ord = "2nd"
	}
	return fmt.Sprintf("%s %s innings: %d/%d (%s overs, RR %.2f)",
		teamName(m, battingSlotOf(m, n)), ord, in.TotalRuns, in.Wickets, scoring.OversString(in.LegalBalls()), in.RunRate())
}

func extrasLine(in scoring.Innings) string {
	e := in.Extras()
	return fmt.Sprintf("Extras: %d (w %d, nb %d, b %d, lb %d)", e.Total(), e.Wides, e.NoBalls, e.Byes, e.LegByes)
}

func renderInnings(m scoring.Match, n scoring.InningsNumber) string {
	in := inningsOf(m, n)
	batting := m.Teams.Get(battingSlotOf(m, n))
	bowling := m.Teams.Get(battingSlotOf(m, n).Other())

	bat := table.NewWriter()
	bat.SetStyle(table.StyleLight)
	bat.AppendHeader(table.Row{"Batter", "Dismissal", "R", "B", "4s", "6s", "SR"})
	for _, id := range batterOrder(in) {
		agg := in.Batting[id]
		bat.AppendRow(table.Row{
			playerName(batting, id),
			dismissalText(agg, bowling),
			agg.Runs, agg.BallsFaced, agg.Fours, agg.Sixes,
			fmt.Sprintf("%.2f", agg.StrikeRate()),
		})
	}
	bat.AppendFooter(table.Row{extrasLine(in)})

	bowl := table.NewWriter()
	bowl.SetStyle(table.StyleLight)
	bowl.AppendHeader(table.Row{"Bowler", "O", "M", "R", "W", "Econ"})
	for _, id := range bowlerOrder(in) {
		agg := in.Bowling[id]
		bowl.AppendRow(table.Row{
			playerName(bowling, id),
			scoring.OversString(agg.Balls), agg.Maidens, agg.Runs, agg.Wickets,
			fmt.Sprintf("%.2f", agg.Economy),
		})
	}

	out := inningsLine(m, n) + "\n" + bat.Render() + "\n" + bowl.Render() + "\n"
	if line := oversLine(in, bowling); line != "" {
		out += line + "\n"
	}
	return out
}

// oversLine is e.g. "By over: 1: 8-1 Quick, 2: 3-0 Slow".
func oversLine(in scoring.Innings, bowling scoring.Team) string {
	overs := in.Overs()
	if len(overs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(overs))
	for _, o := range overs {
		parts = append(parts, fmt.Sprintf("%d: %d-%d %s", o.Over+1, o.Runs, o.Wickets, playerName(bowling, o.BowlerID)))
	}
	return "By over: " + strings.Join(parts, ", ")
}

// batterOrder lists batters in the order they came to the crease, including
// batters at the crease who have not faced a ball yet.
func batterOrder(in scoring.Innings) []string {
	var order []string
	add := func(id string) {
		if id != "" && !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	for _, ev := range in.Events {
		add(ev.StrikerID)
		add(ev.NonStrikerID)
		add(ev.DismissedID)
	}
	add(in.StrikerID)
	add(in.NonStrikerID)
	for _, id := range slices.Sorted(maps.Keys(in.Batting)) {
		add(id)
	}
	return order
}

// bowlerOrder lists bowlers in the order they came on.
func bowlerOrder(in scoring.Innings) []string {
	var order []string
	add := func(id string) {
		if id != "" && !slices.Contains(order, id) {
			if _, ok := in.Bowling[id]; ok {
				order = append(order, id)
			}
		}
	}
	for _, ev := range in.Events {
		add(ev.BowlerID)
	}
	add(in.BowlerID)
	for _, id := range slices.Sorted(maps.Keys(in.Bowling)) {
		add(id)
	}
	return order
}

func dismissalText(agg scoring.BattingAggregate, bowling scoring.Team) string {
	if !agg.IsOut {
		return "not out"
	}
	kind := strings.ReplaceAll(string(agg.WicketKind), "_", " ")
	if agg.BowlerID == "" || !agg.WicketKind.CreditsBowler() {
		return kind
	}
	if agg.WicketKind == scoring.WicketBowled {
		return "b " + playerName(bowling, agg.BowlerID)
	}
	return kind + " b " + playerName(bowling, agg.BowlerID)
}

func playerName(t scoring.Team, id string) string {
	if p, ok := t.Player(id); ok {
		return p.Name
	}
	return id
}

func teamName(m scoring.Match, slot scoring.TeamSlot) string {
	return m.Teams.Get(slot).Name
}
