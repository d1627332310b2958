package domain

// FeedItem is one entry of the CMS push-notification feed.
type FeedItem struct {
	ID       int64
	Account  string
	Data     map[string]any
	Template FeedTemplate
}

// FeedTemplate holds the message templates of a feed item.
type FeedTemplate struct {
	Title       string
	Description string
	URL         string
}
