package domain

// Notification is a user-facing message addressed to one account.
// ID is deterministic per source event and is the only deduplication key downstream.
type Notification struct {
	ID      string            `json:"id"`
	Account string            `json:"account"`
	Title   string            `json:"title"`
	Message string            `json:"message"`
	URL     string            `json:"url,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}
