package booking

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxFuzzyRatio is the largest edit distance, relative to the longer string,
// still accepted as a match.
const maxFuzzyRatio = 0.4

// Station looks up a station by code, ignoring case.
func (r ReferenceData) Station(code string) (Station, bool) {
	for _, s := range r.Stations {
		if strings.EqualFold(s.Code, code) {
			return s, true
		}
	}
	return Station{}, false
}

// Train looks up a train by id.
func (r ReferenceData) Train(id string) (Train, bool) {
	for _, t := range r.Trains {
		if strings.EqualFold(t.ID, id) {
			return t, true
		}
	}
	return Train{}, false
}

type candidate struct {
	index int
	score float64 // 0 is a perfect match
}

// rank scores every key set against query and returns matching indexes,
// best first. Each item may have several keys (code and name).
func rank(query string, keys [][]string) []candidate {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []candidate
	for i, ks := range keys {
		best := 2.0
		for _, k := range ks {
			k = strings.ToUpper(k)
			if k == "" {
				continue
			}
			var score float64
			switch {
			case k == q:
				score = 0
			case strings.HasPrefix(k, q):
				score = 0.1
			case strings.Contains(k, q):
				score = 0.2
			default:
				dist := levenshtein.ComputeDistance(q, k)
				score = float64(dist) / float64(max(len(q), len(k)))
				if score >= maxFuzzyRatio {
					continue
				}
				score += 0.3
			}
			if score < best {
				best = score
			}
		}
		if best < 2 {
			out = append(out, candidate{index: i, score: best})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].score < out[b].score })
	return out
}

func stationKeys(ss []Station) [][]string {
	keys := make([][]string, len(ss))
	for i, s := range ss {
		keys[i] = []string{s.Code, s.Name}
	}
	return keys
}

func trainKeys(ts []Train) [][]string {
	keys := make([][]string, len(ts))
	for i, t := range ts {
		keys[i] = []string{t.ID, t.Name}
	}
	return keys
}

// SuggestStations returns up to limit stations matching query, best first.
func (r ReferenceData) SuggestStations(query string, limit int) []Station {
	var out []Station
	for _, c := range rank(query, stationKeys(r.Stations)) {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.Stations[c.index])
	}
	return out
}

// SuggestTrains returns up to limit trains matching query, best first.
func (r ReferenceData) SuggestTrains(query string, limit int) []Train {
	var out []Train
	for _, c := range rank(query, trainKeys(r.Trains)) {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, r.Trains[c.index])
	}
	return out
}

// ResolveStation turns a code or (possibly misspelt) name into a station.
func (r ReferenceData) ResolveStation(query string) (Station, error) {
	matches := r.SuggestStations(query, 1)
	if len(matches) == 0 {
		return Station{}, fmt.Errorf("no station matches %q", query)
	}
	return matches[0], nil
}

// ResolveTrain turns an id or (possibly misspelt) name into a train.
func (r ReferenceData) ResolveTrain(query string) (Train, error) {
	matches := r.SuggestTrains(query, 1)
	if len(matches) == 0 {
		return Train{}, fmt.Errorf("no train matches %q", query)
	}
	return matches[0], nil
}
