package cards

// Widget names in the CUSTOM event's closed set.
const (
	WidgetAskUser         = "ask_user"
	WidgetDataTable       = "data_table"
	WidgetProcessMap      = "process_map"
	WidgetAgentConfigured = "agent_configured"
	WidgetPromptEditor    = "prompt_editor"
)

// AskUser asks the user to choose among options, optionally backed by a
// structured card.
type AskUser struct {
	Prompt  string    `json:"prompt"`
	Step    string    `json:"step,omitempty"`
	Options []Option  `json:"options,omitempty"`
	Card    *Envelope `json:"card,omitempty"`
}

// DataTable renders tabular content.
type DataTable struct {
	Title   string     `json:"title,omitempty"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ProcessStep is one node of a process map.
type ProcessStep struct {
	Label  string `json:"label"`
	Detail string `json:"detail,omitempty"`
}

// ProcessMap renders an ordered flow of steps.
type ProcessMap struct {
	Title string        `json:"title,omitempty"`
	Steps []ProcessStep `json:"steps"`
}

// AgentConfigured announces a newly configured agent.
type AgentConfigured struct {
	AgentName string   `json:"agent_name"`
	Role      string   `json:"role,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

// PromptEditor opens an editable prompt.
type PromptEditor struct {
	Title  string `json:"title,omitempty"`
	Prompt string `json:"prompt"`
}

// PersonasForAsk resolves persona entries for an ask widget: the card
// body wins when it yields entries, then the plain option list when the
// step label looks persona-shaped.
func PersonasForAsk(w AskUser) []Persona {
	if w.Card != nil {
		if personas := ExtractPersonas(w.Card.Body); len(personas) > 0 {
			return personas
		}
	}
	if len(w.Options) > 0 && IsPersonaStep(w.Step) {
		return PersonasFromOptions(w.Options)
	}
	return nil
}
