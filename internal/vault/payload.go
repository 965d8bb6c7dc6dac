package vault

import (
	"time"

	"github.com/yungbote/vaultvoice-backend/internal/types"
)

// Payload is either a CSV row or a Markdown document, never both.
type Payload interface {
	kind() string
}

// CSV appends one log record. The service stamps timestamp, local date and
// local time from At (all three from that one instant, in At's zone) and
// closes the row with Source.
type CSV struct {
	File   string
	At     time.Time
	Fields types.Row
	Source string
}

func (CSV) kind() string { return "csv" }

type DocMode int

const (
	// DocUpsert creates or overwrites the document.
	DocUpsert DocMode = iota
	// DocAppend adds Content as a new section; Header seeds a new file.
	DocAppend
	// DocCreate writes a new document and never overwrites.
	DocCreate
)

type Markdown struct {
	File    string
	Header  string
	Content string
	Mode    DocMode
}

func (Markdown) kind() string { return "markdown" }

const defaultSource = "voice"

func stampRow(p CSV) types.Row {
	at := p.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	source := p.Source
	if source == "" {
		source = defaultSource
	}
	out := make(types.Row, 0, len(p.Fields)+4)
	out = append(out,
		types.Field{Key: "timestamp", Value: at.UTC().Format(time.RFC3339)},
		types.Field{Key: "date", Value: at.Format("2006-01-02")},
		types.Field{Key: "time", Value: at.Format("15:04")},
	)
	out = append(out, p.Fields...)
	out = append(out, types.Field{Key: "source", Value: source})
	return out
}
