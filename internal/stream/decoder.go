package stream

import "strings"

// Frame is one delimited chunk of raw stream text holding a single
// encoded event. Name is the header-level event type when the endpoint
// provides one; Data is the JSON payload text.
type Frame struct {
	Name string
	Data string
}

// Decoder splits an append-only text stream into frames. Feed may be
// called with arbitrarily fragmented chunks; complete frames are returned
// as soon as their delimiter arrives and partial trailing data is carried
// over to the next call. Flush drains any trailing partial frame at
// stream end.
type Decoder interface {
	Feed(chunk string) []Frame
	Flush() []Frame
}

// RecordDecoder frames on blank lines: each record is a group of
// `event:`/`data:` lines (or a bare JSON object) terminated by two
// consecutive line breaks.
type RecordDecoder struct {
	carry string
}

func (d *RecordDecoder) Feed(chunk string) []Frame {
	d.carry = strings.ReplaceAll(d.carry+chunk, "\r\n", "\n")
	var frames []Frame
	for {
		idx := strings.Index(d.carry, "\n\n")
		if idx < 0 {
			break
		}
		record := d.carry[:idx]
		d.carry = d.carry[idx+2:]
		if fr, ok := parseRecord(record); ok {
			frames = append(frames, fr)
		}
	}
	return frames
}

func (d *RecordDecoder) Flush() []Frame {
	record := d.carry
	d.carry = ""
	if fr, ok := parseRecord(record); ok {
		return []Frame{fr}
	}
	return nil
}

func parseRecord(record string) (Frame, bool) {
	if strings.TrimSpace(record) == "" {
		return Frame{}, false
	}
	var name string
	var data []string
	for _, line := range strings.Split(record, "\n") {
		switch {
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if len(data) == 0 {
		// Some backends emit records as bare JSON without SSE field names.
		trimmed := strings.TrimSpace(record)
		if strings.HasPrefix(trimmed, "{") {
			return Frame{Data: trimmed}, true
		}
		return Frame{}, false
	}
	return Frame{Name: name, Data: strings.Join(data, "\n")}, true
}

// LineDecoder frames on single lines: only lines carrying the `data:`
// marker yield frames, everything else on the stream is ignored.
type LineDecoder struct {
	carry string
}

const lineMarker = "data:"

func (d *LineDecoder) Feed(chunk string) []Frame {
	d.carry = strings.ReplaceAll(d.carry+chunk, "\r\n", "\n")
	var frames []Frame
	for {
		idx := strings.Index(d.carry, "\n")
		if idx < 0 {
			break
		}
		line := d.carry[:idx]
		d.carry = d.carry[idx+1:]
		if fr, ok := parseMarkerLine(line); ok {
			frames = append(frames, fr)
		}
	}
	return frames
}

func (d *LineDecoder) Flush() []Frame {
	line := d.carry
	d.carry = ""
	if fr, ok := parseMarkerLine(line); ok {
		return []Frame{fr}
	}
	return nil
}

func parseMarkerLine(line string) (Frame, bool) {
	if !strings.HasPrefix(line, lineMarker) {
		return Frame{}, false
	}
	data := strings.TrimSpace(strings.TrimPrefix(line, lineMarker))
	if data == "" {
		return Frame{}, false
	}
	return Frame{Data: data}, true
}
