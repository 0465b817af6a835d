package host

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// ErrHostURLEmpty is returned when rest mode has no base URL.
var ErrHostURLEmpty = errors.New(config.ErrHostURLEmpty)

// RESTHost talks to a Home Assistant instance through its REST API.
// It has no push channel, so Subscribe polls.
type RESTHost struct {
	BaseURL      string
	Token        string
	Client       *http.Client
	PollInterval time.Duration

	safeURL string // scheme://host/path, for logs
}

// NewRESTHost validates the base URL and configures timeouts.
func NewRESTHost(baseURL, token string) (*RESTHost, error) {
	if baseURL == "" {
		return nil, ErrHostURLEmpty
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrInvalidURL, err)
	}

	// Security check: ensure strictly HTTP or HTTPS.
	if u.Scheme != config.SchemeHTTP && u.Scheme != config.SchemeHTTPS {
		return nil, fmt.Errorf("%s: %s", config.ErrProtocol, u.Scheme)
	}

	return &RESTHost{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Token:        token,
		Client:       &http.Client{Timeout: config.HTTPTimeout},
		PollInterval: config.DefaultPollSeconds * time.Second,
		// Query parameters might contain tokens.
		safeURL: u.Scheme + "://" + u.Host + u.Path,
	}, nil
}

func (h *RESTHost) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrRequestCreate, err)
	}
	req.Header.Set(config.HeaderUserAgent, config.UserAgent)
	if h.Token != "" {
		req.Header.Set(config.HeaderAuthorization, config.BearerPrefix+h.Token)
	}
	return req, nil
}

// EntityState fetches /api/states/<entity>. A 404 means the entity does not exist.
func (h *RESTHost) EntityState(ctx context.Context, entityID string) (*engine.Attributes, bool, error) {
	log := slog.With(
		slog.String(config.LogKeyComponent, config.CompHost),
		slog.String(config.LogKeyURL, h.safeURL),
		slog.String(config.LogKeyEntity, entityID),
	)

	req, err := h.newRequest(ctx, http.MethodGet, config.APIStatePath+url.PathEscape(entityID), nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", config.ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, false, nil
	default:
		log.Warn(config.ErrHTTPStatus, slog.Int(config.LogKeyStatus, resp.StatusCode))
		return nil, false, fmt.Errorf("%s: %s", config.ErrHTTPStatus, resp.Status)
	}

	var state EntityState
	if err := json.NewDecoder(io.LimitReader(resp.Body, config.MaxHTTPResponseSize)).Decode(&state); err != nil {
		return nil, false, fmt.Errorf("%s: %w", config.ErrStateDecode, err)
	}

	log.Debug(config.MsgStatePoll, slog.Int(config.LogKeyCount, len(state.Attributes.Days)))
	return &state.Attributes, true, nil
}

// Dispatch posts the command to /api/services/<domain>/<service>.
func (h *RESTHost) Dispatch(ctx context.Context, cmd Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrDispatch, err)
	}

	path := fmt.Sprintf(config.APIServicePath, url.PathEscape(cmd.Domain), url.PathEscape(cmd.Service))
	req, err := h.newRequest(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set(config.HeaderContentType, config.MimeJSON)

	resp, err := h.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrDispatch, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, config.MaxHTTPResponseSize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %s: %s", config.ErrDispatch, config.ErrHTTPStatus, resp.Status)
	}

	slog.Info(config.MsgCommandSent,
		config.LogKeyComponent, config.CompHost,
		config.LogKeyCommand, cmd.ID.String(),
		config.LogKeyService, cmd.Domain+"."+cmd.Service,
		config.LogKeyDate, cmd.Date)
	return nil
}

// Subscribe emits one signal immediately and then one per poll interval.
func (h *RESTHost) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	interval := h.PollInterval
	if interval <= 0 {
		interval = config.DefaultPollSeconds * time.Second
	}

	events := make(chan struct{}, config.ChannelBufferSize)
	events <- struct{}{}

	go func() {
		defer close(events)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case events <- struct{}{}:
				default:
				}
			}
		}
	}()
	return events, nil
}
