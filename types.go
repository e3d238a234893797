package main

// ContentFormatMarkdown is the only content format this tool sends
const ContentFormatMarkdown = "markdown"

// Document represents a local file loaded for publishing
type Document struct {
	Path          string
	Title         string
	Body          string
	Format        string
	Tags          []string
	CanonicalURL  string
	PublishStatus string
}

// PublishRequest is the JSON payload sent to the posts endpoint
type PublishRequest struct {
	Title         string   `json:"title"`
	ContentFormat string   `json:"contentFormat"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags,omitempty"`
	CanonicalURL  string   `json:"canonicalUrl,omitempty"`
	PublishStatus string   `json:"publishStatus,omitempty"`
}

// PublishStatus represents the outcome of a publish attempt
type PublishStatus string

const (
	StatusSucceeded PublishStatus = "succeeded"
	StatusFailed    PublishStatus = "failed"
)

// PublishResult is the classified response of the single POST
type PublishResult struct {
	Status     PublishStatus
	StatusCode int
	PostID     string
	URL        string
	Body       string
	Detail     string
	Messages   []string
}

// Succeeded reports whether the remote service created the post
func (r *PublishResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}
