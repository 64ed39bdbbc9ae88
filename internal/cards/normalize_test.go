package cards

import "testing"

func labels(personas []Persona) []string {
	out := make([]string, 0, len(personas))
	for _, p := range personas {
		out = append(out, p.Label)
	}
	return out
}

func TestExtractPersonasFromPlainList(t *testing.T) {
	personas := ExtractPersonas([]byte(`["Alice", "Bob"]`))
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].Label != "Alice" || personas[1].Label != "Bob" {
		t.Fatalf("unexpected labels: %v", labels(personas))
	}
	if personas[0].ID != "alice" || personas[1].ID != "bob" {
		t.Fatalf("unexpected ids: %q %q", personas[0].ID, personas[1].ID)
	}
}

func TestExtractPersonasFromPersonasList(t *testing.T) {
	personas := ExtractPersonas([]byte(`{"personas": ["Alice", "Bob"]}`))
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].ID != "alice" || personas[1].ID != "bob" {
		t.Fatalf("unexpected ids: %q %q", personas[0].ID, personas[1].ID)
	}
}

func TestExtractPersonasFromTieredPersonas(t *testing.T) {
	body := `{"personas": {"should": [{"name":"Analyst"}], "must": [{"name":"CFO"}]}}`
	personas := ExtractPersonas([]byte(body))
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	// tier-key declaration order wins over JSON field order
	if personas[0].Label != "CFO" || personas[0].Tier != "must" {
		t.Fatalf("expected must tier first, got %+v", personas[0])
	}
	if personas[1].Label != "Analyst" || personas[1].Tier != "should" {
		t.Fatalf("expected should tier second, got %+v", personas[1])
	}
}

func TestExtractPersonasFromDirectTierKeys(t *testing.T) {
	body := `{"must": [{"name":"CFO"}], "should": [{"name":"Analyst"}]}`
	personas := ExtractPersonas([]byte(body))
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].Tier != "must" || personas[1].Tier != "should" {
		t.Fatalf("unexpected tiers: %q %q", personas[0].Tier, personas[1].Tier)
	}
}

func TestExtractPersonasFromSynonymFields(t *testing.T) {
	personas := ExtractPersonas([]byte(`{"audiences": ["Shoppers"]}`))
	if len(personas) != 1 || personas[0].Label != "Shoppers" {
		t.Fatalf("expected audiences field to match, got %+v", personas)
	}
	personas = ExtractPersonas([]byte(`{"people": [{"name":"Clerk"}]}`))
	if len(personas) != 1 || personas[0].Label != "Clerk" {
		t.Fatalf("expected people field to match, got %+v", personas)
	}
}

func TestExtractPersonasNoMatch(t *testing.T) {
	if personas := ExtractPersonas([]byte(`{"info": "just text"}`)); len(personas) != 0 {
		t.Fatalf("expected empty result, got %+v", personas)
	}
	if personas := ExtractPersonas([]byte(`"just a string"`)); len(personas) != 0 {
		t.Fatalf("scalar bodies must not match, got %+v", personas)
	}
}

func TestExtractPersonasFieldResolution(t *testing.T) {
	body := `{"personas": [{
		"title": "Head of Ops",
		"role": "operations",
		"description": "Keeps the stores running",
		"focus_areas": ["logistics", "staffing"]
	}]}`
	personas := ExtractPersonas([]byte(body))
	if len(personas) != 1 {
		t.Fatalf("expected 1 persona, got %d", len(personas))
	}
	p := personas[0]
	if p.Label != "Head of Ops" {
		t.Fatalf("label must prefer name/title, got %q", p.Label)
	}
	if p.Role != "operations" {
		t.Fatalf("role resolved independently, got %q", p.Role)
	}
	if p.Summary != "Keeps the stores running" {
		t.Fatalf("summary must fall back to description, got %q", p.Summary)
	}
	if len(p.Tags) != 2 || p.Tags[0] != "logistics" {
		t.Fatalf("tags must fall back to focus_areas, got %v", p.Tags)
	}
	if p.ID != "head-of-ops" {
		t.Fatalf("id must slug the label, got %q", p.ID)
	}
}

func TestExtractPersonasExplicitIDWins(t *testing.T) {
	personas := ExtractPersonas([]byte(`{"personas": [{"id": "ops-1", "name": "Head of Ops"}]}`))
	if personas[0].ID != "ops-1" {
		t.Fatalf("explicit id must win, got %q", personas[0].ID)
	}
}

func TestExtractPersonasPositionalFallbacks(t *testing.T) {
	personas := ExtractPersonas([]byte(`{"personas": [{"summary": "no label fields"}, {"name": "!!!"}]}`))
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].Label != "Persona 1" || personas[0].ID != "persona-1" {
		t.Fatalf("expected positional placeholders, got %+v", personas[0])
	}
	// label survives but slugging strips everything
	if personas[1].Label != "!!!" || personas[1].ID != "persona-2" {
		t.Fatalf("expected positional id fallback, got %+v", personas[1])
	}
}

func TestExtractPersonasIDCollisions(t *testing.T) {
	personas := ExtractPersonas([]byte(`["Alice", "alice", "Alice!"]`))
	if len(personas) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(personas))
	}
	seen := map[string]bool{}
	for _, p := range personas {
		if seen[p.ID] {
			t.Fatalf("duplicate id %q in one extraction", p.ID)
		}
		seen[p.ID] = true
	}
	if personas[0].ID != "alice" || personas[1].ID != "alice-2" || personas[2].ID != "alice-3" {
		t.Fatalf("collision suffixes must be deterministic, got %v", []string{personas[0].ID, personas[1].ID, personas[2].ID})
	}
}

func TestExtractPersonasSuffixAvoidsExplicitIDs(t *testing.T) {
	personas := ExtractPersonas([]byte(`{"personas": [{"id":"alice"}, {"id":"alice-2"}, {"id":"alice"}]}`))
	if len(personas) != 3 {
		t.Fatalf("expected 3 personas, got %d", len(personas))
	}
	seen := map[string]bool{}
	for _, p := range personas {
		if seen[p.ID] {
			t.Fatalf("duplicate id %q in one extraction", p.ID)
		}
		seen[p.ID] = true
	}
	// the suffix must skip past the explicitly supplied alice-2
	if personas[2].ID != "alice-3" {
		t.Fatalf("unexpected suffix: %q", personas[2].ID)
	}
}

func TestExtractPersonasDeterministic(t *testing.T) {
	body := []byte(`{"must": ["CFO"], "optional": [{"name": "Analyst"}]}`)
	first := ExtractPersonas(body)
	second := ExtractPersonas(body)
	if len(first) != len(second) {
		t.Fatalf("extraction must be pure")
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Label != second[i].Label {
			t.Fatalf("extraction must be deterministic: %+v vs %+v", first[i], second[i])
		}
	}
}

func TestPersonasFromOptions(t *testing.T) {
	personas := PersonasFromOptions([]Option{
		{ID: "cfo", Label: "CFO", Description: "Owns the budget"},
		{Label: "Floor Staff"},
	})
	if len(personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(personas))
	}
	if personas[0].ID != "cfo" || personas[0].Summary != "Owns the budget" {
		t.Fatalf("unexpected first entry: %+v", personas[0])
	}
	if personas[1].ID != "floor-staff" {
		t.Fatalf("missing option id must slug the label, got %q", personas[1].ID)
	}
}

func TestIsPersonaStep(t *testing.T) {
	for _, label := range []string{"Choose interview personas", "Pick your AUDIENCE", "Stakeholder review"} {
		if !IsPersonaStep(label) {
			t.Fatalf("expected %q to be persona-shaped", label)
		}
	}
	if IsPersonaStep("Configure data sources") {
		t.Fatalf("unrelated steps must not match")
	}
}

func TestPersonasForAskPrefersCard(t *testing.T) {
	ask := AskUser{
		Step:    "Choose interview personas",
		Options: []Option{{ID: "a", Label: "Option A"}},
		Card: &Envelope{
			CardID: "c1",
			Type:   "persona_picker",
			Title:  "Personas",
			Body:   []byte(`{"personas": ["Alice"]}`),
		},
	}
	personas := PersonasForAsk(ask)
	if len(personas) != 1 || personas[0].Label != "Alice" {
		t.Fatalf("card body must win, got %+v", personas)
	}
}

func TestPersonasForAskFallsBackToOptions(t *testing.T) {
	ask := AskUser{
		Step:    "Choose interview personas",
		Options: []Option{{ID: "a", Label: "Option A"}},
	}
	personas := PersonasForAsk(ask)
	if len(personas) != 1 || personas[0].ID != "a" {
		t.Fatalf("expected option fallback, got %+v", personas)
	}
	ask.Step = "Configure data sources"
	if personas := PersonasForAsk(ask); personas != nil {
		t.Fatalf("non-persona steps must not extract, got %+v", personas)
	}
}
