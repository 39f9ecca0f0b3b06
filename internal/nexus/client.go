// Package nexus is a read-only HTTP client for a Blue Brain Nexus
// deployment. It resolves resources by identifier within an
// organization/project bucket and downloads attached files.
package nexus

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mesh-intelligence/protofetch/pkg/types"
)

// Deployment is the base URL of a Nexus deployment.
type Deployment string

// Known deployments.
const (
	Production Deployment = "https://bbp.epfl.ch/nexus/v1"
	Staging    Deployment = "https://staging.nise.bbp.epfl.ch/nexus/v1"
)

// DeploymentFor returns Production when production is set, Staging otherwise.
func DeploymentFor(production bool) Deployment {
	if production {
		return Production
	}
	return Staging
}

// Media types sent in Accept headers.
const (
	MediaJSONLD = "application/ld+json"
	MediaAny    = "*/*"
)

const defaultTimeout = 60 * time.Second

// SearchViews names the Elasticsearch and SPARQL views configured for a
// bucket. Retrieval by identifier does not use them.
type SearchViews struct {
	Elastic string
	Sparql  string
}

// Options configures a Client.
type Options struct {
	Endpoint   Deployment
	Org        string
	Project    string
	Token      string
	Views      SearchViews
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// Client retrieves resources from one Nexus bucket.
type Client struct {
	endpoint string
	org      string
	project  string
	token    string
	views    SearchViews
	http     *http.Client
	log      zerolog.Logger
}

// StatusError reports a non-success HTTP response other than 404.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// New creates a Client. Org and project are required.
func New(opts Options) (*Client, error) {
	if opts.Org == "" || opts.Project == "" {
		return nil, types.ErrBucketEmpty
	}
	endpoint := string(opts.Endpoint)
	if endpoint == "" {
		endpoint = string(Production)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: defaultTimeout}
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		org:      opts.Org,
		project:  opts.Project,
		token:    opts.Token,
		views:    opts.Views,
		http:     hc,
		log:      opts.Logger.With().Str("bucket", opts.Org+"/"+opts.Project).Logger(),
	}
	c.log.Debug().
		Str("endpoint", c.endpoint).
		Str("es_view", c.views.Elastic).
		Str("sp_view", c.views.Sparql).
		Msg("nexus client ready")
	return c, nil
}

// Bucket returns "org/project".
func (c *Client) Bucket() string {
	return c.org + "/" + c.project
}

// ResourceURL returns the URL Retrieve requests for id. Cross-bucket lookups
// go through the project resolvers, which search every project the bucket is
// configured to resolve against.
func (c *Client) ResourceURL(id string, crossBucket bool) string {
	segment := "resources"
	if crossBucket {
		segment = "resolvers"
	}
	return fmt.Sprintf("%s/%s/%s/%s/_/%s",
		c.endpoint, segment, url.PathEscape(c.org), url.PathEscape(c.project), url.QueryEscape(id))
}

// Retrieve fetches and decodes the resource identified by id. A 404 response
// yields types.ErrNotFound.
func (c *Client) Retrieve(ctx context.Context, id string, crossBucket bool) (*types.Entity, error) {
	target := c.ResourceURL(id, crossBucket)
	body, err := c.get(ctx, target, MediaJSONLD)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	e, err := types.DecodeEntity(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", id, err)
	}
	return e, nil
}

// get issues an authenticated GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, target, accept string) (io.ReadCloser, error) {
	return doGet(ctx, c.http, c.log, target, c.token, accept)
}

func doGet(ctx context.Context, hc *http.Client, log zerolog.Logger, target, token, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", accept)
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", target, err)
	}
	log.Debug().
		Str("url", target).
		Str("request_id", reqID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("nexus request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, types.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		defer resp.Body.Close()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{
			Method: http.MethodGet,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(snippet)),
		}
	}
	return resp.Body, nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
