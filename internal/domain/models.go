package domain

// Lookup is a record shown in the autocomplete list
type Lookup struct {
	ID   int    `toml:"id" mapstructure:"id"`
	Name string `toml:"name" mapstructure:"name"`
}

// Display returns the text shown in the search box for a lookup.
// A nil lookup displays as the empty string.
func Display(l *Lookup) string {
	if l == nil {
		return ""
	}
	return l.Name
}

// Results is one snapshot of the accumulated list for a search term
type Results struct {
	SessionID string
	Term      string
	Lookups   []Lookup // everything loaded for Term so far
	Page      int      // last page that was fetched
	Done      bool     // an empty page ended the sequence
	Err       error
}

// Empty reports whether the term produced no records at all
func (r Results) Empty() bool {
	return len(r.Lookups) == 0
}
