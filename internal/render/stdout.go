package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"bp-cli/internal/cards"
	"bp-cli/internal/protocol"
	"bp-cli/internal/util"
)

// StdoutRenderer streams events to a plain text writer.
type StdoutRenderer struct {
	w                io.Writer
	mu               sync.Mutex
	verbose          bool
	quiet            bool
	printedHeader    bool
	endedWithNewline bool
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer, verbose bool, quiet bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose, quiet: quiet}
}

func (r *StdoutRenderer) Emit(event protocol.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case protocol.TypeTextContent:
		if event.Delta == "" {
			return
		}
		if !r.printedHeader {
			fmt.Fprint(r.w, "agent: ")
			r.printedHeader = true
		}
		fmt.Fprint(r.w, event.Delta)
		r.endedWithNewline = strings.HasSuffix(event.Delta, "\n")
	case protocol.TypeTextEnd:
		if r.printedHeader && !r.endedWithNewline {
			fmt.Fprintln(r.w)
			r.endedWithNewline = true
		}
		r.printedHeader = false
	case protocol.TypeToolCallStart:
		if r.quiet || !r.verbose || event.Tool == nil {
			return
		}
		r.breakLine()
		fmt.Fprintf(r.w, "tool: %s\n", event.Tool.Tool)
		if len(event.Tool.Input) > 0 {
			fmt.Fprintf(r.w, "input: %s\n", util.Preview(string(event.Tool.Input), 2, 256))
		}
	case protocol.TypeStateSnapshot:
		if r.quiet || !r.verbose || event.Snapshot == nil {
			return
		}
		r.breakLine()
		snap := event.Snapshot
		fmt.Fprintf(r.w, "phase: %s | project: %s | agents: %d\n",
			snap.Phase, snap.Preview.ProjectName, snap.Preview.AgentCount)
	case protocol.TypeCustom:
		if event.Custom == nil {
			return
		}
		r.breakLine()
		r.renderWidget(event.Custom)
	case protocol.TypeError:
		r.breakLine()
		fmt.Fprintf(r.w, "\nError: %s\n", event.Message)
	}
}

// breakLine ends a partially printed delta line before block output.
func (r *StdoutRenderer) breakLine() {
	if r.printedHeader && !r.endedWithNewline {
		fmt.Fprintln(r.w)
		r.endedWithNewline = true
	}
}

func (r *StdoutRenderer) renderWidget(custom *protocol.CustomPayload) {
	switch custom.Name {
	case cards.WidgetAskUser:
		var ask cards.AskUser
		if err := json.Unmarshal(custom.Value, &ask); err != nil {
			r.renderRaw(custom)
			return
		}
		if ask.Card != nil && ask.Card.Title != "" {
			fmt.Fprintf(r.w, "\n[%s]\n", ask.Card.Title)
			if ask.Card.Subtitle != "" {
				fmt.Fprintf(r.w, "%s\n", ask.Card.Subtitle)
			}
		}
		if ask.Prompt != "" {
			fmt.Fprintf(r.w, "%s\n", ask.Prompt)
		}
		if personas := cards.PersonasForAsk(ask); len(personas) > 0 {
			for i, p := range personas {
				line := fmt.Sprintf("%d. %s", i+1, p.Label)
				if p.Tier != "" {
					line += " (" + p.Tier + ")"
				}
				if p.Summary != "" {
					line += " - " + p.Summary
				}
				fmt.Fprintln(r.w, line)
			}
		} else {
			for i, opt := range ask.Options {
				fmt.Fprintf(r.w, "%d. %s\n", i+1, opt.Label)
			}
		}
		if ask.Card != nil {
			for _, action := range ask.Card.Actions {
				fmt.Fprintf(r.w, "[%s] %s\n", action.ID, action.Label)
			}
		}
	case cards.WidgetDataTable:
		var table cards.DataTable
		if err := json.Unmarshal(custom.Value, &table); err != nil {
			r.renderRaw(custom)
			return
		}
		if table.Title != "" {
			fmt.Fprintf(r.w, "\n[%s]\n", table.Title)
		}
		fmt.Fprintln(r.w, strings.Join(table.Columns, " | "))
		for _, row := range table.Rows {
			fmt.Fprintln(r.w, strings.Join(row, " | "))
		}
	case cards.WidgetProcessMap:
		var pm cards.ProcessMap
		if err := json.Unmarshal(custom.Value, &pm); err != nil {
			r.renderRaw(custom)
			return
		}
		if pm.Title != "" {
			fmt.Fprintf(r.w, "\n[%s]\n", pm.Title)
		}
		for i, step := range pm.Steps {
			line := fmt.Sprintf("%d. %s", i+1, step.Label)
			if step.Detail != "" {
				line += " - " + step.Detail
			}
			fmt.Fprintln(r.w, line)
		}
	case cards.WidgetAgentConfigured:
		var ac cards.AgentConfigured
		if err := json.Unmarshal(custom.Value, &ac); err != nil {
			r.renderRaw(custom)
			return
		}
		fmt.Fprintf(r.w, "\nAgent configured: %s", ac.AgentName)
		if ac.Role != "" {
			fmt.Fprintf(r.w, " (%s)", ac.Role)
		}
		fmt.Fprintln(r.w)
	case cards.WidgetPromptEditor:
		var pe cards.PromptEditor
		if err := json.Unmarshal(custom.Value, &pe); err != nil {
			r.renderRaw(custom)
			return
		}
		if pe.Title != "" {
			fmt.Fprintf(r.w, "\n[%s]\n", pe.Title)
		}
		fmt.Fprintln(r.w, pe.Prompt)
	default:
		r.renderRaw(custom)
	}
}

// renderRaw prints a widget we have no layout for.
func (r *StdoutRenderer) renderRaw(custom *protocol.CustomPayload) {
	fmt.Fprintf(r.w, "\n[%s]\n%s\n", custom.Name, util.Preview(string(custom.Value), 8, 1024))
}

func (r *StdoutRenderer) Close() error {
	return nil
}
