package model

import "time"

// DateLayout is the ISO-8601 form used for entry dates: UTC with millisecond
// precision and a trailing "Z", e.g. "2024-01-15T14:30:00.000Z".
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// Entry is a single journal (blog) post.
type Entry struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Date   string `json:"date"`
	// HTML is trusted markup rendered unescaped by the frontend.
	HTML string `json:"html"`
}

// EntryPatch carries the fields of a partial update. Nil fields, including
// members sent as JSON null, are left untouched; members outside the entry
// shape are ignored. It has no ID field; an entry keeps its id for life.
type EntryPatch struct {
	Title  *string `json:"title,omitempty"`
	Author *string `json:"author,omitempty"`
	Date   *string `json:"date,omitempty"`
	HTML   *string `json:"html,omitempty"`
}

// IsEmpty reports whether the patch sets no fields.
func (p EntryPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Date == nil && p.HTML == nil
}

// Apply returns a copy of e with the non-nil patch fields merged in.
func (e Entry) Apply(p EntryPatch) Entry {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Author != nil {
		e.Author = *p.Author
	}
	if p.Date != nil {
		e.Date = *p.Date
	}
	if p.HTML != nil {
		e.HTML = *p.HTML
	}
	return e
}

// Changes returns the patched fields keyed by their JSON name.
func (p EntryPatch) Changes() map[string]any {
	changes := make(map[string]any)
	if p.Title != nil {
		changes["title"] = *p.Title
	}
	if p.Author != nil {
		changes["author"] = *p.Author
	}
	if p.Date != nil {
		changes["date"] = *p.Date
	}
	if p.HTML != nil {
		changes["html"] = *p.HTML
	}
	return changes
}

// FormatDate renders t in DateLayout after converting it to UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
