// Package workshop queries the Steam Web API ISteamRemoteStorage endpoints for
// collection children and per-item details.
package workshop

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tacogips/addonsync/internal/config"
	"github.com/tacogips/addonsync/internal/logging"
	"github.com/tacogips/addonsync/internal/model"
)

// API endpoints, relative to the base URL.
const (
	ItemDetailsPath       = "/ISteamRemoteStorage/GetPublishedFileDetails/v1/"
	CollectionDetailsPath = "/ISteamRemoteStorage/GetCollectionDetails/v1/"
)

// UnknownTitle is the collection title used when the lookup fails.
const UnknownTitle = "N/A"

// maxBodySize caps how much of a response body is read.
const maxBodySize = 8 << 20

// Options configures a Client.
type Options struct {
	// BaseURL is the API root, e.g. https://api.steampowered.com.
	BaseURL string
	// Key is an optional Web API key sent with every request.
	Key string
	// Timeout bounds a single request. Zero means 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond paces requests. Zero disables pacing.
	RequestsPerSecond float64
	// BreakerFailures is the consecutive failure count that opens the circuit.
	// Zero disables the breaker so every call reaches the API.
	BreakerFailures uint32
	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration
	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
	// Logger is the parent logger. Nil means the global logger.
	Logger *zerolog.Logger
}

// OptionsFromConfig maps the api config section to client options.
func OptionsFromConfig(cfg config.APIConfig) Options {
	return Options{
		BaseURL:           cfg.URL,
		Key:               cfg.Key,
		Timeout:           cfg.Timeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		BreakerFailures:   cfg.BreakerFailures,
		BreakerTimeout:    cfg.BreakerTimeout,
	}
}

// Client issues one request per item or collection. Each request is paced by
// an optional limiter and, when configured, guarded by a circuit breaker.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[[]byte]
	log        zerolog.Logger
}

// NewClient creates a new workshop API client.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	c := &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		key:        opts.Key,
		httpClient: httpClient,
		log:        logging.ComponentFrom(opts.Logger, "workshop"),
	}

	if opts.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	if opts.BreakerFailures > 0 {
		c.breaker = newBreaker(opts.BreakerFailures, opts.BreakerTimeout, c.log)
	}

	return c
}

func newBreaker(failures uint32, timeout time.Duration, log zerolog.Logger) *gobreaker.CircuitBreaker[[]byte] {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "steam-web-api",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// An id the API does not know is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || IsType(err, ClientNotFound)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
}

type itemDetailsResponse struct {
	Response struct {
		Result               int                    `json:"result"`
		ResultCount          int                    `json:"resultcount"`
		PublishedFileDetails []publishedFileDetails `json:"publishedfiledetails"`
	} `json:"response"`
}

type publishedFileDetails struct {
	PublishedFileID string  `json:"publishedfileid"`
	Result          int     `json:"result"`
	Title           *string `json:"title"`
	TimeUpdated     *int64  `json:"time_updated"`
}

type collectionDetailsResponse struct {
	Response struct {
		Result            int                 `json:"result"`
		ResultCount       int                 `json:"resultcount"`
		CollectionDetails []collectionDetails `json:"collectiondetails"`
	} `json:"response"`
}

type collectionDetails struct {
	PublishedFileID string            `json:"publishedfileid"`
	Result          int               `json:"result"`
	Children        []collectionChild `json:"children"`
}

type collectionChild struct {
	PublishedFileID string `json:"publishedfileid"`
	SortOrder       int    `json:"sortorder"`
	FileType        int    `json:"filetype"`
}

// FetchItemDetails looks up the title and last-updated time of one item.
// Missing fields are logged and left empty; they are not errors.
func (c *Client) FetchItemDetails(ctx context.Context, id model.ItemID) (*model.ItemMetadata, error) {
	form := url.Values{}
	form.Set("itemcount", "1")
	form.Set("publishedfileids[0]", id.String())

	body, err := c.post(ctx, ItemDetailsPath, id.String(), form)
	if err != nil {
		return nil, err
	}

	var resp itemDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewDecodeError(ItemDetailsPath, id.String(), err)
	}
	if len(resp.Response.PublishedFileDetails) == 0 {
		return nil, NewNotFoundError(ItemDetailsPath, id.String())
	}

	details := resp.Response.PublishedFileDetails[0]
	meta := &model.ItemMetadata{ID: id}

	if details.Title == nil {
		c.log.Warn().Str("item", id.String()).Int("result", details.Result).Msg("title not found")
	} else {
		meta.Title = *details.Title
	}

	if details.TimeUpdated == nil {
		c.log.Warn().Str("item", id.String()).Int("result", details.Result).Msg("time_updated not found")
	} else {
		updated := *details.TimeUpdated
		meta.TimeUpdated = &updated
	}

	return meta, nil
}

// CollectionChildren returns the child item ids of a collection in response order.
func (c *Client) CollectionChildren(ctx context.Context, id model.CollectionID) ([]model.ItemID, error) {
	form := url.Values{}
	form.Set("collectioncount", "1")
	form.Set("publishedfileids[0]", id.String())

	body, err := c.post(ctx, CollectionDetailsPath, id.String(), form)
	if err != nil {
		return nil, err
	}

	var resp collectionDetailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, NewDecodeError(CollectionDetailsPath, id.String(), err)
	}
	if len(resp.Response.CollectionDetails) == 0 {
		return nil, NewNotFoundError(CollectionDetailsPath, id.String())
	}

	children := resp.Response.CollectionDetails[0].Children
	ids := make([]model.ItemID, 0, len(children))
	for _, child := range children {
		ids = append(ids, model.ItemID(child.PublishedFileID))
	}
	return ids, nil
}

// ResolveCollection returns the child item ids of a collection, or an empty
// slice when the lookup fails. Failures are logged.
func (c *Client) ResolveCollection(ctx context.Context, id model.CollectionID) []model.ItemID {
	c.log.Info().Str("collection", id.String()).Msg("fetching collection")

	ids, err := c.CollectionChildren(ctx, id)
	if err != nil {
		c.log.Error().Err(err).Str("collection", id.String()).Msg("no collection details found")
		return []model.ItemID{}
	}
	return ids
}

// FetchCollectionTitle returns the display title of the collection itself, or
// UnknownTitle when the lookup fails.
func (c *Client) FetchCollectionTitle(ctx context.Context, id model.CollectionID) string {
	c.log.Debug().Str("collection", id.String()).Msg("fetching collection title")

	meta, err := c.FetchItemDetails(ctx, model.ItemID(id))
	if err != nil {
		c.log.Error().Err(err).Str("collection", id.String()).Msg("no collection title found")
		return UnknownTitle
	}
	return meta.Title
}

func (c *Client) post(ctx context.Context, endpoint, id string, form url.Values) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewFetchError(endpoint, id, err)
		}
	}

	if c.key != "" {
		form.Set("key", c.key)
	}

	if c.breaker == nil {
		return c.do(ctx, endpoint, id, form)
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, id, form)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, NewRejectedError(endpoint, id, err)
	}
	return body, err
}

func (c *Client) do(ctx context.Context, endpoint, id string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, NewFetchError(endpoint, id, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	c.log.Debug().Str("endpoint", endpoint).Str("id", id).Msg("POST")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, NewFetchError(endpoint, id, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewNotFoundError(endpoint, id)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, NewBadStatusError(endpoint, id, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewFetchError(endpoint, id, fmt.Errorf("failed to read body: %w", err))
	}
	return body, nil
}
