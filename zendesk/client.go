// Package zendesk answers new zendesk support tickets with the question-answering api. It searches
// tickets on a schedule, extracts their question and posts the answer as a private comment
package zendesk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	searchPath = "/api/v2/search.json"
	ticketPath = "/api/v2/tickets/%d.json"

	defaultTimeout = 30 * time.Second

	// maxSearchPages bounds how many result pages a single search follows
	maxSearchPages = 10
)

// APIError is returned when zendesk responds with an unexpected status
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error returns a description of the failed call
func (e *APIError) Error() string {
	return fmt.Sprintf("zendesk %s %s failed with status [%d]: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Ticket is a zendesk ticket, as returned by a search
type Ticket struct {
	ID          int64    `json:"id"`
	Subject     string   `json:"subject"`
	Description string   `json:"description"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

// HasTag returns true if the ticket is tagged with tag
func (t Ticket) HasTag(tag string) bool {
	for _, tt := range t.Tags {
		if tt == tag {
			return true
		}
	}

	return false
}

// Comment is a comment added to a ticket
type Comment struct {
	Body   string `json:"body"`
	Public bool   `json:"public"`
}

// TicketUpdate holds the changes made to a ticket. Tags replace the ticket tags
type TicketUpdate struct {
	Comment Comment  `json:"comment"`
	Status  string   `json:"status,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// SearchQuery selects tickets by status and tags. A ticket matches if it has any of the
// Tags and none of the ExcludedTags
type SearchQuery struct {
	Status       string
	Tags         []string
	ExcludedTags []string
}

// String returns the query in the zendesk search syntax
func (q SearchQuery) String() string {
	terms := []string{"type:ticket"}
	if q.Status != "" {
		terms = append(terms, "status:"+q.Status)
	}

	for _, tag := range q.Tags {
		terms = append(terms, "tags:"+tag)
	}

	for _, tag := range q.ExcludedTags {
		terms = append(terms, "-tags:"+tag)
	}

	return strings.Join(terms, " ")
}

type searchResponse struct {
	Results  []Ticket `json:"results"`
	NextPage *string  `json:"next_page"`
}

type ticketEnvelope struct {
	Ticket TicketUpdate `json:"ticket"`
}

// Client is a zendesk api client authenticating as an agent. It is safe for concurrent use
type Client struct {
	baseURL    *url.URL
	user       string
	secret     string
	httpClient *http.Client
}

// Option defines an option for a Client
type Option func(c *Client)

// OptionHTTPClient sets the http client used to make requests
func OptionHTTPClient(hc *http.Client) func(c *Client) {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// OptionAPIToken authenticates with an api token instead of the agent password
func OptionAPIToken(token string) func(c *Client) {
	return func(c *Client) {
		c.user = strings.TrimSuffix(c.user, "/token") + "/token"
		c.secret = token
	}
}

// New creates a new Client for the zendesk instance at baseURL, authenticating with the agent email and password
func New(baseURL string, email string, password string, options ...Option) (c *Client, err error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid zendesk url [%s]", baseURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid zendesk url [%s]: scheme must be http or https", baseURL)
	}

	c = new(Client)
	c.baseURL = u
	c.user = email
	c.secret = password
	c.httpClient = &http.Client{Timeout: defaultTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	for _, opt := range options {
		opt(c)
	}

	return c, nil
}

// SearchTickets returns the tickets matching the query, following result pages
func (c *Client) SearchTickets(ctx context.Context, query SearchQuery) (tickets []Ticket, err error) {
	next := c.baseURL.String() + searchPath + "?" + url.Values{"query": {query.String()}}.Encode()

	tickets = make([]Ticket, 0)
	for page := 0; next != "" && page < maxSearchPages; page++ {
		var resp searchResponse
		if err = c.do(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, err
		}

		tickets = append(tickets, resp.Results...)

		next = ""
		if resp.NextPage != nil {
			next = *resp.NextPage
		}
	}

	return tickets, nil
}

// UpdateTicket applies the update to the ticket with the given id
func (c *Client) UpdateTicket(ctx context.Context, id int64, update TicketUpdate) (err error) {
	return c.do(ctx, http.MethodPut, c.baseURL.String()+fmt.Sprintf(ticketPath, id), ticketEnvelope{Ticket: update}, nil)
}

// do sends a request with an optional json body and decodes the json response into out, if not nil
func (c *Client) do(ctx context.Context, method string, target string, in interface{}, out interface{}) (err error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return errors.Wrapf(err, "failed to encode request to [%s]", target)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return errors.Wrapf(err, "failed to create request to [%s]", target)
	}

	req.SetBasicAuth(c.user, c.secret)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrapf(err, "zendesk %s failed", method)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Method: method, Path: req.URL.Path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		return nil
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response from [%s]", req.URL.Path)
	}

	return nil
}
