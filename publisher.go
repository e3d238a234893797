package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const defaultScheme = "https"

// Publisher sends a single document to a posts endpoint
type Publisher struct {
	client        *http.Client
	endpoint      string
	token         string
	publishStatus string
	loader        *DocumentLoader
	logger        *zap.Logger
}

// NewPublisher creates a publisher for endpoint authenticated with token
func NewPublisher(endpoint, token string, client *http.Client, logger *zap.Logger) *Publisher {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		client:   client,
		endpoint: endpoint,
		token:    token,
		loader:   NewDocumentLoader(),
		logger:   logger,
	}
}

// SetPublishStatus sets the publish status used when a document has none
func (p *Publisher) SetPublishStatus(status string) {
	p.publishStatus = status
}

// BuildEndpoint returns the posts collection URL for userID on host.
// A host without a scheme is reached over https.
func BuildEndpoint(host, userID string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("host is required")
	}
	if err := validateUserID(userID); err != nil {
		return "", err
	}

	if !strings.Contains(host, "://") {
		host = defaultScheme + "://" + host
	}
	base, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("parsing host %q: %w", host, err)
	}
	if base.Host == "" {
		return "", fmt.Errorf("invalid host %q", host)
	}

	return base.JoinPath("v1", "users", userID, "posts").String(), nil
}

// validateUserID rejects IDs that would leave the user's posts collection
func validateUserID(userID string) error {
	id := strings.TrimSpace(userID)
	switch {
	case id == "":
		return fmt.Errorf("user ID is required")
	case id == "." || id == "..":
		return fmt.Errorf("invalid user ID %q", userID)
	case strings.ContainsAny(id, `/\?#`):
		return fmt.Errorf("invalid user ID %q: must be a single path segment", userID)
	}
	return nil
}

// NewPublishRequest builds the JSON payload for doc
func NewPublishRequest(doc *Document) PublishRequest {
	format := doc.Format
	if format == "" {
		format = ContentFormatMarkdown
	}
	return PublishRequest{
		Title:         doc.Title,
		ContentFormat: format,
		Content:       doc.Body,
		Tags:          doc.Tags,
		CanonicalURL:  doc.CanonicalURL,
		PublishStatus: doc.PublishStatus,
	}
}

// LoadDocument reads path and applies the publisher's defaults
func (p *Publisher) LoadDocument(path, title string) (*Document, error) {
	doc, err := p.loader.Load(path, title)
	if err != nil {
		return nil, err
	}
	if doc.PublishStatus == "" {
		doc.PublishStatus = p.publishStatus
	}
	return doc, nil
}

// PublishFile loads path and publishes it. Nothing is sent if the file
// cannot be loaded.
func (p *Publisher) PublishFile(ctx context.Context, path, title string) (*PublishResult, error) {
	doc, err := p.LoadDocument(path, title)
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}
	return p.Publish(ctx, doc)
}

// Publish performs exactly one POST for doc. A non-201 response is a failed
// result, not an error; errors are reserved for requests that never got a
// response.
func (p *Publisher) Publish(ctx context.Context, doc *Document) (*PublishResult, error) {
	payload, err := json.Marshal(NewPublishRequest(doc))
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Charset", "utf-8")

	p.logger.Debug("publishing document",
		zap.String("path", doc.Path),
		zap.String("title", doc.Title),
		zap.String("endpoint", p.endpoint),
		zap.Int("payload_bytes", len(payload)),
	)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", p.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Warn("reading response body failed", zap.Error(err))
	}

	result := classifyResponse(resp.StatusCode, resp.Header.Get("Content-Type"), body)
	if result.Succeeded() {
		p.logger.Info("post created",
			zap.Int("status", result.StatusCode),
			zap.String("id", result.PostID),
			zap.String("url", result.URL),
		)
	} else {
		p.logger.Warn("post rejected",
			zap.Int("status", result.StatusCode),
			zap.Int("body_bytes", len(body)),
			zap.Strings("messages", result.Messages),
		)
	}

	return result, nil
}

// createdPost is the envelope returned with a 201
type createdPost struct {
	Data struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	} `json:"data"`
}

// apiErrors is the envelope returned with most failures
type apiErrors struct {
	Errors []struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"errors"`
}

// classifyResponse maps a status code and body to a PublishResult
func classifyResponse(statusCode int, contentType string, body []byte) *PublishResult {
	if statusCode == http.StatusCreated {
		result := &PublishResult{Status: StatusSucceeded, StatusCode: statusCode}
		var created createdPost
		if isJSON(contentType) && json.Unmarshal(body, &created) == nil {
			result.PostID = created.Data.ID
			result.URL = created.Data.URL
		}
		return result
	}

	result := &PublishResult{
		Status:     StatusFailed,
		StatusCode: statusCode,
		Body:       string(body),
	}

	var compact bytes.Buffer
	if !isJSON(contentType) || json.Compact(&compact, body) != nil {
		result.Detail = ErrorContentNotJSON
		return result
	}

	result.Detail = compact.String()
	var envelope apiErrors
	if json.Unmarshal(body, &envelope) == nil {
		for _, e := range envelope.Errors {
			if e.Message != "" {
				result.Messages = append(result.Messages, e.Message)
			}
		}
	}
	return result
}

// isJSON reports whether contentType declares a JSON media type
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
