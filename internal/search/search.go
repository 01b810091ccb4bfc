package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID        string `json:"id"`
	Mood      string `json:"mood"`
	Snippet   string `json:"snippet"`
	Sentiment string `json:"sentiment,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// Query describes a search request. UserID is mandatory: entries are
// private and every query is scoped to their owner.
type Query struct {
	Text       string
	UserID     string
	FilterMood string // empty = all moods
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search over journal entries.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// EntryRecord is the data we index for a journal entry.
type EntryRecord struct {
	ID        string `json:"id"`
	UserID    string `json:"userId"`
	Mood      string `json:"mood"`
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	CreatedAt string `json:"createdAt"`
}
