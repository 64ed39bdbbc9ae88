package cards

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Tier keys recognized in card bodies. Declaration order is the
// concatenation order of tiered extraction results.
var tierKeys = []string{"must", "should", "nice", "primary", "secondary", "optional"}

// Synonym fields that hold a plain persona list.
var listKeys = []string{"people", "audiences"}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// ExtractPersonas derives persona entries from an untyped card body.
// Shape rules are tried in fixed priority order and the first match
// wins:
//
//  1. body is itself a list
//  2. body.personas is a list
//  3. body.personas is a tier-keyed mapping
//  4. body has direct top-level tier keys
//  5. body.people or body.audiences is a list
//
// No match yields nil, letting the caller fall back to generic
// rendering of the raw body.
func ExtractPersonas(body []byte) []Persona {
	root := gjson.ParseBytes(body)
	e := &extractor{seen: map[string]int{}}

	if root.IsArray() {
		e.addList(root.Array(), "")
		return e.out
	}
	if !root.IsObject() {
		return nil
	}
	if p := root.Get("personas"); p.Exists() {
		if p.IsArray() {
			e.addList(p.Array(), "")
			return e.out
		}
		if p.IsObject() {
			e.addTiers(p)
			return e.out
		}
	}
	if hasTierKeys(root) {
		e.addTiers(root)
		return e.out
	}
	for _, key := range listKeys {
		if l := root.Get(key); l.IsArray() {
			e.addList(l.Array(), "")
			return e.out
		}
	}
	return nil
}

// PersonasFromOptions converts a flat option list into persona entries.
// Used when no card-shaped payload exists but the active step is about
// personas.
func PersonasFromOptions(opts []Option) []Persona {
	e := &extractor{seen: map[string]int{}}
	for _, opt := range opts {
		label := strings.TrimSpace(opt.Label)
		if label == "" {
			label = fmt.Sprintf("Persona %d", len(e.out)+1)
		}
		id := strings.TrimSpace(opt.ID)
		if id == "" {
			id = slugify(label)
		}
		e.out = append(e.out, Persona{
			ID:      e.uniqueID(id),
			Label:   label,
			Summary: strings.TrimSpace(opt.Description),
		})
	}
	return e.out
}

var personaStepHints = []string{"persona", "audience", "stakeholder", "interview"}

// IsPersonaStep reports whether a step label describes persona
// selection.
func IsPersonaStep(label string) bool {
	l := strings.ToLower(label)
	for _, hint := range personaStepHints {
		if strings.Contains(l, hint) {
			return true
		}
	}
	return false
}

type extractor struct {
	seen map[string]int
	out  []Persona
}

func (e *extractor) addList(items []gjson.Result, tier string) {
	for _, item := range items {
		switch {
		case item.Type == gjson.String:
			e.addString(item.String(), tier)
		case item.IsObject():
			e.addRecord(item, tier)
		}
	}
}

func (e *extractor) addTiers(obj gjson.Result) {
	for _, key := range tierKeys {
		if arr := obj.Get(key); arr.IsArray() {
			e.addList(arr.Array(), key)
		}
	}
}

func (e *extractor) addString(label, tier string) {
	label = strings.TrimSpace(label)
	if label == "" {
		return
	}
	e.out = append(e.out, Persona{
		ID:    e.uniqueID(slugify(label)),
		Label: label,
		Tier:  tier,
	})
}

func (e *extractor) addRecord(item gjson.Result, tier string) {
	label := firstString(item, "name", "title", "label", "role")
	if label == "" {
		label = fmt.Sprintf("Persona %d", len(e.out)+1)
	}
	id := strings.TrimSpace(item.Get("id").String())
	if id == "" {
		id = slugify(label)
	}
	e.out = append(e.out, Persona{
		ID:      e.uniqueID(id),
		Label:   label,
		Role:    strings.TrimSpace(item.Get("role").String()),
		Summary: firstString(item, "summary", "description", "goal", "context"),
		Tier:    tier,
		Tags:    firstStringList(item, "tags", "focus_areas", "responsibilities", "topics"),
	})
}

// uniqueID keeps ids unique within one extraction result. Collisions get
// a deterministic ordinal suffix; suffixed candidates are themselves
// checked so they cannot collide with an explicitly supplied id.
func (e *extractor) uniqueID(id string) string {
	if id == "" {
		id = fmt.Sprintf("persona-%d", len(e.out)+1)
	}
	if _, taken := e.seen[id]; !taken {
		e.seen[id] = 1
		return id
	}
	for n := e.seen[id] + 1; ; n++ {
		candidate := fmt.Sprintf("%s-%d", id, n)
		if _, taken := e.seen[candidate]; !taken {
			e.seen[id] = n
			e.seen[candidate] = 1
			return candidate
		}
	}
}

func firstString(item gjson.Result, keys ...string) string {
	for _, key := range keys {
		if v := item.Get(key); v.Type == gjson.String {
			if s := strings.TrimSpace(v.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func firstStringList(item gjson.Result, keys ...string) []string {
	for _, key := range keys {
		arr := item.Get(key)
		if !arr.IsArray() {
			continue
		}
		var out []string
		for _, v := range arr.Array() {
			if v.Type != gjson.String {
				continue
			}
			if s := strings.TrimSpace(v.String()); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func hasTierKeys(obj gjson.Result) bool {
	for _, key := range tierKeys {
		if obj.Get(key).IsArray() {
			return true
		}
	}
	return false
}

func slugify(label string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(label), "-"), "-")
}
