package rules

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/gridlhq/flapjack/pkg/types"
)

// Pin is one object id promoted to a fixed result position.
type Pin struct {
	ObjectID string
	Position int
}

// Effects is the aggregate result of applying every matching rule to
// one query, in rules.rs's RuleEffects shape: pins sorted by target
// position, hidden object ids, attached user-data blobs, the applied
// rule ids (for SearchResult.AppliedRules), and an optional query
// rewrite.
type Effects struct {
	Pins         []Pin
	Hidden       []string
	UserData     []map[string]interface{}
	AppliedRules []string
	QueryRewrite string
}

// Store is a tenant's rule collection, held in insertion order like
// the original's IndexMap so All() and apply_rules iteration are
// deterministic across calls.
type Store struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]types.Rule
}

// NewStore returns an empty rule store.
func NewStore() *Store {
	return &Store{byID: make(map[string]types.Rule)}
}

// Load reads a rules.json file (an array of rule documents) into a
// fresh store.
func Load(path string) (*Store, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.ErrIo, "read rules file", err)
	}

	var docs []ruleDoc
	if err := sonic.Unmarshal(content, &docs); err != nil {
		return nil, types.WrapError(types.ErrJson, "parse rules file", err)
	}

	s := NewStore()
	for _, d := range docs {
		s.Insert(d.toDomain())
	}
	return s, nil
}

// Save writes every rule, in insertion order, to path as a JSON array.
func (s *Store) Save(path string) error {
	s.mu.RLock()
	docs := make([]ruleDoc, 0, len(s.order))
	for _, id := range s.order {
		docs = append(docs, ruleDocFrom(s.byID[id]))
	}
	s.mu.RUnlock()

	content, err := sonic.Marshal(docs)
	if err != nil {
		return types.WrapError(types.ErrJson, "marshal rules", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return types.WrapError(types.ErrIo, "write rules file", err)
	}
	return nil
}

// Get returns the rule with the given object id, if present.
func (s *Store) Get(objectID string) (types.Rule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[objectID]
	return r, ok
}

// Insert adds or replaces a rule, preserving its existing position in
// iteration order on update and appending it on first insert.
func (s *Store) Insert(r types.Rule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[r.ObjectID]; !exists {
		s.order = append(s.order, r.ObjectID)
	}
	s.byID[r.ObjectID] = r
}

// Remove deletes a rule by object id.
func (s *Store) Remove(objectID string) (types.Rule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[objectID]
	if !ok {
		return types.Rule{}, false
	}
	delete(s.byID, objectID)
	for i, id := range s.order {
		if id == objectID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return r, true
}

// Clear removes every rule.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.byID = make(map[string]types.Rule)
}

// All returns every rule in insertion order.
func (s *Store) All() []types.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Rule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

// Search filters rules by a case-insensitive substring match against
// object id or any condition pattern (an empty query matches
// everything), sorts by object id, and paginates.
func (s *Store) Search(query string, page, hitsPerPage int) ([]types.Rule, int) {
	queryLower := strings.ToLower(query)

	var matching []types.Rule
	for _, r := range s.All() {
		if ruleMatchesSearch(r, query, queryLower) {
			matching = append(matching, r)
		}
	}

	sort.Slice(matching, func(i, j int) bool { return matching[i].ObjectID < matching[j].ObjectID })

	total := len(matching)
	start := page * hitsPerPage
	if start >= total {
		return nil, total
	}
	end := start + hitsPerPage
	if end > total {
		end = total
	}
	return matching[start:end], total
}

func ruleMatchesSearch(r types.Rule, query, queryLower string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(r.ObjectID), queryLower) {
		return true
	}
	for _, c := range r.Conditions {
		if strings.Contains(strings.ToLower(c.Pattern), queryLower) {
			return true
		}
	}
	return false
}

// IsEnabled reports whether a rule participates in matching.
func IsEnabled(r types.Rule) bool { return r.Enabled }

// IsValidAt reports whether now falls inside every one of a rule's
// validity windows (a zero Until leaves a window open-ended), or true
// if it has none (rules.rs's is_valid_at).
func IsValidAt(r types.Rule, now time.Time) bool {
	for _, v := range r.ValidityRanges {
		if now.Before(v.From) || (!v.Until.IsZero() && now.After(v.Until)) {
			return false
		}
	}
	return true
}

// Matches reports whether a rule triggers for the given query text and
// context, applying enabled/validity gates first and then requiring
// every condition to match (a condition with a context matches only
// under that context; an empty condition list always matches, per
// rules.rs's Rule::matches).
func Matches(r types.Rule, queryText, context string, now time.Time) bool {
	if !IsEnabled(r) || !IsValidAt(r, now) {
		return false
	}
	for _, c := range r.Conditions {
		if c.Context != "" && c.Context != context {
			return false
		}
		if !matchesPattern(queryText, c.Pattern, c.Anchoring) {
			return false
		}
	}
	return true
}

func matchesPattern(queryText, pattern string, anchoring types.Anchoring) bool {
	q := strings.ToLower(queryText)
	p := strings.ToLower(pattern)
	switch anchoring {
	case types.AnchorIs:
		return q == p
	case types.AnchorStartsWith:
		return strings.HasPrefix(q, p)
	case types.AnchorEndsWith:
		return strings.HasSuffix(q, p)
	case types.AnchorContains:
		return strings.Contains(q, p)
	default:
		return false
	}
}

// ApplyRules runs every rule against the query text and context,
// returning the aggregate Pin/Hidden/UserData/AppliedRules effects
// (rules.rs's apply_rules). Pins are sorted by target position.
func (s *Store) ApplyRules(queryText, context string, now time.Time) Effects {
	var effects Effects

	for _, r := range s.All() {
		if !Matches(r, queryText, context, now) {
			continue
		}
		effects.AppliedRules = append(effects.AppliedRules, r.ObjectID)

		for _, p := range r.Consequence.Promote {
			effects.Pins = append(effects.Pins, Pin{ObjectID: p.ObjectID, Position: p.Position})
		}
		effects.Hidden = append(effects.Hidden, r.Consequence.Hide...)
		if r.Consequence.UserData != nil {
			effects.UserData = append(effects.UserData, r.Consequence.UserData)
		}
	}

	sort.Slice(effects.Pins, func(i, j int) bool { return effects.Pins[i].Position < effects.Pins[j].Position })
	return effects
}

// ApplyQueryRewrite returns the first matching rule's query rewrite, if
// any (rules.rs's apply_query_rewrite — first match wins, in
// insertion order).
func (s *Store) ApplyQueryRewrite(queryText, context string, now time.Time) (string, bool) {
	for _, r := range s.All() {
		if !Matches(r, queryText, context, now) {
			continue
		}
		if r.Consequence.QueryRewrite != "" {
			return r.Consequence.QueryRewrite, true
		}
	}
	return "", false
}
