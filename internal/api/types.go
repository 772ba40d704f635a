package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Year holds a publication year that the backend serves either as a JSON
// number or a string, and which may be null for books without one.
type Year string

// UnmarshalJSON accepts "1684", 1684 and null.
func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == "null" {
		*y = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*y = Year(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*y = Year(n.String())
	return nil
}

// Int parses the year as an integer.
func (y Year) Int() (int, error) {
	n, err := strconv.Atoi(string(y))
	if err != nil {
		return 0, fmt.Errorf("year %q is not numeric: %w", string(y), err)
	}
	return n, nil
}

// IsZero reports whether no year is set.
func (y Year) IsZero() bool {
	return y == ""
}

// Run identifies one tagged batch of character records for a book.
type Run struct {
	ID   string `json:"id"`
	Book string `json:"book,omitempty"`
}

// RunSet lists the runs already recorded for a book, per record kind.
type RunSet struct {
	Pages      []Run `json:"pages"`
	Lines      []Run `json:"lines"`
	Characters []Run `json:"characters"`
}

// Book is the canonical backend entity for one bibliographic work. The
// field set mirrors the backend's create payload; ID and AllRuns are
// populated on reads only.
type Book struct {
	ID      string  `json:"id,omitempty"`
	AllRuns *RunSet `json:"all_runs,omitempty"`

	EEBO           int    `json:"eebo,omitempty"`
	VID            int    `json:"vid,omitempty"`
	TCP            string `json:"tcp"`
	ESTC           string `json:"estc"`
	Zipfile        string `json:"zipfile"`
	PPPublisher    string `json:"pp_publisher"`
	PPAuthor       string `json:"pp_author"`
	PQPublisher    string `json:"pq_publisher"`
	PQTitle        string `json:"pq_title"`
	PQURL          string `json:"pq_url"`
	PQAuthor       string `json:"pq_author"`
	PQYearVerbatim Year   `json:"pq_year_verbatim"`
	PQYearEarly    Year   `json:"pq_year_early"`
	PQYearLate     Year   `json:"pq_year_late"`
	TXYearEarly    Year   `json:"tx_year_early"`
	TXYearLate     Year   `json:"tx_year_late"`
	DateEarly      string `json:"date_early"`
	DateLate       string `json:"date_late"`
	PDF            string `json:"pdf"`
	Starred        bool   `json:"starred"`
	Ignored        bool   `json:"ignored"`
	IsEEBOBook     bool   `json:"is_eebo_book"`
	Prefix         string `json:"prefix,omitempty"`
	Repository     string `json:"repository"`
	PPPrinter      string `json:"pp_printer"`
	ColloqPrinter  string `json:"colloq_printer"`
	PPNotes        string `json:"pp_notes"`
}

// HasNoRecords reports whether the book has no pages, lines or characters
// ingested yet. Such a book has nothing to update, so an update request
// must fall back to creating a fresh run.
func (b *Book) HasNoRecords() bool {
	if b.AllRuns == nil {
		return true
	}
	return len(b.AllRuns.Pages) == 0 && len(b.AllRuns.Lines) == 0 && len(b.AllRuns.Characters) == 0
}

// CharacterClass is one entry of the controlled character vocabulary.
type CharacterClass struct {
	Classname string `json:"classname"`
	Label     string `json:"label"`
}

// PageRecord, LineRecord and CharacterRecord are OCR output records moved
// wholesale into the backend. Their schemas belong to the OCR engine; this
// tool only injects a page side and normalizes character classes, so they
// stay opaque maps rather than structs.
type (
	PageRecord      map[string]any
	LineRecord      map[string]any
	CharacterRecord map[string]any
)

// ID returns the character's backend identifier, if present.
func (c CharacterRecord) ID() string {
	id, _ := c["id"].(string)
	return id
}

// Class returns the character's class code.
func (c CharacterRecord) Class() string {
	class, _ := c["character_class"].(string)
	return class
}

// SetClass overwrites the character's class code.
func (c CharacterRecord) SetClass(class string) {
	c["character_class"] = class
}
