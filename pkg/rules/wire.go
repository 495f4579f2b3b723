package rules

import (
	"time"

	"github.com/gridlhq/flapjack/pkg/types"
)

func unixSeconds(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// ruleDoc is the on-disk/wire JSON shape of a Rule, matching Algolia's
// schema field-for-field (rules.rs's serde derive). types.Rule itself
// carries no json tags, so conversion happens here rather than via
// struct tags on the domain type.
type ruleDoc struct {
	ObjectID    string          `json:"objectID"`
	Conditions  []conditionDoc  `json:"conditions,omitempty"`
	Consequence consequenceDoc  `json:"consequence"`
	Description *string         `json:"description,omitempty"`
	Enabled     *bool           `json:"enabled,omitempty"`
	Validity    []validityDoc   `json:"validity,omitempty"`
}

type conditionDoc struct {
	Pattern      string  `json:"pattern"`
	Anchoring    string  `json:"anchoring"`
	Alternatives *bool   `json:"alternatives,omitempty"`
	Context      *string `json:"context,omitempty"`
	// Filters is a per-condition sub-filter the original additionally
	// requires to hold for the rule to trigger. types.RuleCondition
	// does not model it; it is read and discarded here rather than
	// rejected, so existing rule documents round-trip without error.
	Filters *string `json:"filters,omitempty"`
}

type validityDoc struct {
	From  int64 `json:"from"`
	Until int64 `json:"until"`
}

type consequenceDoc struct {
	Promote []promoteDoc `json:"promote,omitempty"`
	Hide    []hideDoc    `json:"hide,omitempty"`
	// FilterPromotes toggles whether promoted hits still have to pass
	// the request's own filters. Not modeled downstream (pins only
	// reposition hits already in the filtered results; a pinned id
	// absent from them is not added); read and discarded for
	// round-trip compatibility, same as Filters above.
	FilterPromotes *bool                  `json:"filterPromotes,omitempty"`
	UserData       map[string]interface{} `json:"userData,omitempty"`
	Params         *paramsDoc             `json:"params,omitempty"`
}

type paramsDoc struct {
	Query *string `json:"query,omitempty"`
}

type hideDoc struct {
	ObjectID string `json:"objectID"`
}

// promoteDoc mirrors the Rust Promote enum's #[serde(untagged)]
// Single{objectID,position}/Multiple{objectIDs,position} shape: exactly
// one of ObjectID or ObjectIDs is populated on any given wire value.
type promoteDoc struct {
	ObjectID  string   `json:"objectID,omitempty"`
	ObjectIDs []string `json:"objectIDs,omitempty"`
	Position  int      `json:"position"`
}

// expand flattens a single promoteDoc into one or more
// types.PromotedObject entries, assigning Multiple's ids consecutive
// positions starting at Position (rules.rs's
// `effects.pins.push((id.clone(), position + idx))`).
func (p promoteDoc) expand() []types.PromotedObject {
	if p.ObjectID != "" {
		return []types.PromotedObject{{ObjectID: p.ObjectID, Position: p.Position}}
	}
	out := make([]types.PromotedObject, len(p.ObjectIDs))
	for i, id := range p.ObjectIDs {
		out[i] = types.PromotedObject{ObjectID: id, Position: p.Position + i}
	}
	return out
}

func promoteDocFrom(p types.PromotedObject) promoteDoc {
	return promoteDoc{ObjectID: p.ObjectID, Position: p.Position}
}

func (d ruleDoc) toDomain() types.Rule {
	r := types.Rule{
		ObjectID: d.ObjectID,
		Enabled:  d.Enabled == nil || *d.Enabled,
	}

	for _, c := range d.Conditions {
		r.Conditions = append(r.Conditions, types.RuleCondition{
			Pattern:   c.Pattern,
			Anchoring: types.Anchoring(c.Anchoring),
			Context:   optStr(c.Context),
		})
	}

	for _, p := range d.Consequence.Promote {
		r.Consequence.Promote = append(r.Consequence.Promote, p.expand()...)
	}
	for _, h := range d.Consequence.Hide {
		r.Consequence.Hide = append(r.Consequence.Hide, h.ObjectID)
	}
	r.Consequence.UserData = d.Consequence.UserData
	if d.Consequence.Params != nil && d.Consequence.Params.Query != nil {
		r.Consequence.QueryRewrite = *d.Consequence.Params.Query
	}

	for _, v := range d.Validity {
		r.ValidityRanges = append(r.ValidityRanges, types.TimeRange{
			From:  unixSeconds(v.From),
			Until: unixSeconds(v.Until),
		})
	}

	return r
}

func ruleDocFrom(r types.Rule) ruleDoc {
	d := ruleDoc{ObjectID: r.ObjectID}
	if !r.Enabled {
		f := false
		d.Enabled = &f
	}

	for _, c := range r.Conditions {
		cd := conditionDoc{Pattern: c.Pattern, Anchoring: string(c.Anchoring)}
		if c.Context != "" {
			ctx := c.Context
			cd.Context = &ctx
		}
		d.Conditions = append(d.Conditions, cd)
	}

	for _, p := range r.Consequence.Promote {
		d.Consequence.Promote = append(d.Consequence.Promote, promoteDocFrom(p))
	}
	for _, h := range r.Consequence.Hide {
		d.Consequence.Hide = append(d.Consequence.Hide, hideDoc{ObjectID: h})
	}
	d.Consequence.UserData = r.Consequence.UserData
	if r.Consequence.QueryRewrite != "" {
		q := r.Consequence.QueryRewrite
		d.Consequence.Params = &paramsDoc{Query: &q}
	}

	for _, v := range r.ValidityRanges {
		d.Validity = append(d.Validity, validityDoc{From: v.From.Unix(), Until: v.Until.Unix()})
	}

	return d
}

func optStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
