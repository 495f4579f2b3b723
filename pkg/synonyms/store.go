package synonyms

import (
	"os"
	"strings"
	"sync"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/types"
)

// Store is a tenant's synonym collection, keyed by object id. Unlike
// Store in pkg/rules, iteration order is not preserved — the original
// keeps synonyms in a plain HashMap too, since neither All() nor
// expand_query depend on insertion order.
type Store struct {
	mu       sync.RWMutex
	synonyms map[string]types.Synonym
}

// NewStore returns an empty synonym store.
func NewStore() *Store {
	return &Store{synonyms: make(map[string]types.Synonym)}
}

// Load reads a synonyms.json file (an array of synonym documents) into
// a fresh store.
func Load(path string) (*Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrIo, "read synonyms file", err)
	}

	var docs []types.Synonym
	if err := sonic.Unmarshal(content, &docs); err != nil {
		return nil, types.WrapError(types.ErrJson, "parse synonyms file", err)
	}

	s := NewStore()
	for _, d := range docs {
		s.Insert(d)
	}
	return s, nil
}

// Save writes every synonym to path as a JSON array.
func (s *Store) Save(path string) error {
	content, err := sonic.Marshal(s.All())
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal synonyms", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return types.WrapError(types.ErrIo, "write synonyms file", err)
	}
	return nil
}

// Get returns the synonym with the given object id, if present.
func (s *Store) Get(objectID string) (types.Synonym, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	syn, ok := s.synonyms[objectID]
	return syn, ok
}

// Insert adds or replaces a synonym.
func (s *Store) Insert(syn types.Synonym) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synonyms[syn.ObjectID] = syn
}

// Remove deletes a synonym by object id.
func (s *Store) Remove(objectID string) (types.Synonym, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	syn, ok := s.synonyms[objectID]
	if !ok {
		return types.Synonym{}, false
	}
	delete(s.synonyms, objectID)
	return syn, true
}

// Clear removes every synonym.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synonyms = make(map[string]types.Synonym)
}

// All returns every synonym, in no particular order.
func (s *Store) All() []types.Synonym {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Synonym, 0, len(s.synonyms))
	for _, syn := range s.synonyms {
		out = append(out, syn)
	}
	return out
}

// Search filters synonyms by MatchesText and, when synonymType is
// non-empty, by Type equality, then paginates. An empty query matches
// everything.
func (s *Store) Search(query string, synonymType types.SynonymType, page, hitsPerPage int) ([]types.Synonym, int) {
	var filtered []types.Synonym
	for _, syn := range s.All() {
		if query != "" && !MatchesText(syn, query) {
			continue
		}
		if synonymType != "" && syn.Type != synonymType {
			continue
		}
		filtered = append(filtered, syn)
	}

	total := len(filtered)
	start := page * hitsPerPage
	if start >= total {
		return nil, total
	}
	end := start + hitsPerPage
	if end > total {
		end = total
	}
	return filtered[start:end], total
}

// MatchesText reports whether any of a synonym's text fields contains
// text as a case-insensitive substring (synonyms.rs's matches_text).
func MatchesText(syn types.Synonym, text string) bool {
	lower := strings.ToLower(text)
	switch syn.Type {
	case types.SynonymRegular:
		return anyContains(syn.Synonyms, lower)
	case types.SynonymOneWay:
		return strings.Contains(strings.ToLower(syn.Input), lower) || anyContains(syn.Synonyms, lower)
	case types.SynonymAltCorrection1, types.SynonymAltCorrection2:
		return strings.Contains(strings.ToLower(syn.Input), lower) || anyContains(syn.Synonyms, lower)
	case types.SynonymPlaceholder:
		return strings.Contains(strings.ToLower(syn.Placeholder), lower) || anyContains(syn.Synonyms, lower)
	default:
		return false
	}
}

func anyContains(values []string, lower string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), lower) {
			return true
		}
	}
	return false
}

// ExpandQuery returns query plus every variant produced by substituting
// a matched Regular synonym word with each of its alternatives, or a
// matched OneWay synonym's input phrase with each of its replacements
// (synonyms.rs's expand_query). Regular expansion matches whole tokens
// case-insensitively, then replaces every occurrence of the token's text
// in the query (inside other words too), preserving the rest of the
// query's casing; OneWay expansion operates on (and returns) the lowercased
// query, matching the original exactly.
func (s *Store) ExpandQuery(query string) []string {
	tokens := strings.Fields(query)
	expanded := []string{query}
	contains := func(v string) bool {
		for _, e := range expanded {
			if e == v {
				return true
			}
		}
		return false
	}

	for _, syn := range s.All() {
		switch syn.Type {
		case types.SynonymRegular:
			for _, token := range tokens {
				for _, word := range syn.Synonyms {
					if !strings.EqualFold(word, token) {
						continue
					}
					for _, alt := range syn.Synonyms {
						if strings.EqualFold(alt, token) {
							continue
						}
						newQuery := strings.ReplaceAll(query, token, alt)
						if !contains(newQuery) {
							expanded = append(expanded, newQuery)
						}
					}
				}
			}

		case types.SynonymOneWay:
			queryLower := strings.ToLower(query)
			inputLower := strings.ToLower(syn.Input)
			if !strings.Contains(queryLower, inputLower) {
				continue
			}
			for _, repl := range syn.Synonyms {
				newQuery := strings.ReplaceAll(queryLower, inputLower, strings.ToLower(repl))
				if !contains(newQuery) {
					expanded = append(expanded, newQuery)
				}
			}
		}
	}

	return expanded
}
