// bangumi implementation of [WishListSource] and [CollectionUpdater]
//
// The wish list is only exposed as HTML on the main site; collection changes go through the v0 API.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/bgmx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	DefaultWebURL    = "https://bgm.tv"
	DefaultAPIURL    = "https://api.bgm.tv"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTimeout   = 10 * time.Second
)

// BangumiOpts configures a [BangumiService].
type BangumiOpts struct {
	WebURL    string
	APIURL    string
	UserAgent string
	Username  string
	APIKey    string
	Timeout   time.Duration
	Transport http.RoundTripper // nil uses http.DefaultTransport
}

// BangumiService scrapes wish-list pages and updates collections for one user.
type BangumiService struct {
	username string
	web      *APIService
	api      *APIService
}

// NewBangumiService creates a BangumiService, filling unset options with the public endpoints.
//
// API requests carry "Authorization: Bearer <APIKey>"; site requests carry no credentials.
func NewBangumiService(opts BangumiOpts) *BangumiService {
	if opts.WebURL == "" {
		opts.WebURL = DefaultWebURL
	}
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	webClient := &http.Client{Timeout: opts.Timeout, Transport: opts.Transport}
	apiClient := &http.Client{
		Timeout: opts.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIKey, TokenType: "Bearer"}),
			Base:   opts.Transport,
		},
	}

	return &BangumiService{
		username: opts.Username,
		web:      NewAPIService(opts.WebURL, opts.UserAgent, webClient),
		api:      NewAPIService(opts.APIURL, opts.UserAgent, apiClient),
	}
}

// NewBangumiServiceFromConfig builds a BangumiService from loaded configuration.
//
// A nil transport uses [http.DefaultTransport].
func NewBangumiServiceFromConfig(cfg *shared.Config, transport http.RoundTripper) *BangumiService {
	return NewBangumiService(BangumiOpts{
		WebURL:    cfg.Bangumi.WebURL,
		APIURL:    cfg.Bangumi.APIURL,
		UserAgent: cfg.Bangumi.UserAgent,
		Username:  cfg.Credentials.Username,
		APIKey:    cfg.Credentials.APIKey,
		Timeout:   cfg.Bangumi.Timeout.Duration,
		Transport: transport,
	})
}

// Name returns the service name.
func (b *BangumiService) Name() string {
	return "Bangumi"
}

// WishPagePath returns the site path of one wish-list page ordered by date.
func (b *BangumiService) WishPagePath(page int) string {
	return fmt.Sprintf("/anime/list/%s/wish?orderby=date&page=%d", url.PathEscape(b.username), page)
}

// FetchWishPage retrieves one page of the wish list as UTF-8 markup.
//
// Calls GET /anime/list/{username}/wish?orderby=date&page={page} on the site. Non-2xx responses are errors.
func (b *BangumiService) FetchWishPage(ctx context.Context, page int) (string, error) {
	if page < 1 {
		return "", fmt.Errorf("%w: page %d", shared.ErrInvalidArgument, page)
	}
	if b.username == "" {
		return "", fmt.Errorf("%w: username", shared.ErrMissingCredentials)
	}

	resp, err := b.web.Get(ctx, b.WishPagePath(page))
	if err != nil {
		return "", fmt.Errorf("%w: wish list page %d: %v", shared.ErrAPIRequest, page, err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("%w: wish list page %d: status %d", shared.ErrAPIRequest, page, resp.StatusCode)
	}

	return string(resp.Body), nil
}

type collectionUpdate struct {
	Type CollectionType `json:"type"`
}

// UpdateCollection sets the collection status of a subject for the authenticated user.
//
// Calls POST /v0/users/-/collections/{subject_id} on the API; only 202 Accepted counts as success.
func (b *BangumiService) UpdateCollection(ctx context.Context, subjectID string, status CollectionType) error {
	if subjectID == "" {
		return fmt.Errorf("%w: subject id", shared.ErrMissingArgument)
	}

	path := "/v0/users/-/collections/" + url.PathEscape(subjectID)
	resp, err := b.api.PostJSON(ctx, path, collectionUpdate{Type: status})
	if err != nil {
		return fmt.Errorf("%w: subject %s: %v", shared.ErrAPIRequest, subjectID, err)
	}
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%w: subject %s: HTTP %d: %s", shared.ErrAPIRequest, subjectID, resp.StatusCode, string(resp.Body))
	}

	return nil
}

var (
	_ WishListSource    = (*BangumiService)(nil)
	_ CollectionUpdater = (*BangumiService)(nil)
)
