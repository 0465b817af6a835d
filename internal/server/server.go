package server

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/tartampluch/go-schoolmenu/internal/card"
	"github.com/tartampluch/go-schoolmenu/internal/config"
	"github.com/tartampluch/go-schoolmenu/internal/engine"
)

// cacheItem stores a rendered document and its metadata for HTTP caching.
type cacheItem struct {
	data         []byte
	etag         string
	lastModified string // RFC1123 format required by HTTP headers
}

func newCacheItem(data []byte) *cacheItem {
	hash := sha256.Sum256(data)
	return &cacheItem{
		data:         data,
		etag:         fmt.Sprintf(config.FormatETag, hex.EncodeToString(hash[:])),
		lastModified: time.Now().UTC().Format(http.TimeFormat),
	}
}

// FeedServer publishes the menu days as an iCalendar feed on / and the
// current card view as JSON on /card.
type FeedServer struct {
	// Both documents are read on every request but replaced only when the
	// host pushes new state, so readers never take a lock.
	feed atomic.Pointer[cacheItem]
	card atomic.Pointer[cacheItem]
	Port string
}

// NewFeedServer creates a new instance of the server.
func NewFeedServer(port string) *FeedServer {
	return &FeedServer{
		Port: port,
	}
}

// Handler returns the routes, for embedding or tests.
func (s *FeedServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(config.RouteRoot, s.handleFeedRequest)
	mux.HandleFunc(config.RouteCard, s.handleCardRequest)
	return mux
}

// Start initializes the HTTP server and blocks until the context is cancelled.
func (s *FeedServer) Start(ctx context.Context) error {
	if s.Port == "" {
		return errors.New(config.ErrPortRequired)
	}

	srv := &http.Server{
		Addr:         config.LocalhostBindAddr + config.AddrSeparator + s.Port,
		Handler:      s.Handler(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	serverError := make(chan error, config.ChannelBufferSize)

	go func() {
		slog.Info(config.MsgServerListen,
			config.LogKeyComponent, config.CompServer,
			config.LogKeyPort, s.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverError <- err
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info(config.MsgServerStop, config.LogKeyComponent, config.CompServer)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("%s: %w", config.ErrServerShutdown, err)
		}
		return nil

	case err := <-serverError:
		return fmt.Errorf("%s: %w", config.ErrServerStartup, err)
	}
}

// UpdateFeed atomically replaces the iCalendar document.
func (s *FeedServer) UpdateFeed(data []byte) {
	item := newCacheItem(data)
	s.feed.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFile, config.RouteRoot,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
}

// UpdateCard atomically replaces the card view document.
func (s *FeedServer) UpdateCard(view card.View) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrCardEncode, err)
	}

	item := newCacheItem(data)
	s.card.Store(item)

	slog.Debug(config.MsgCacheUpdated,
		config.LogKeyComponent, config.CompServer,
		config.LogKeyFile, config.RouteCard,
		config.LogKeySizeBytes, len(data),
		config.LogKeyETag, item.etag,
	)
	return nil
}

// Publish refreshes both documents from one state push. The feed is only
// replaced when the entity published its days.
func (s *FeedServer) Publish(view card.View, attrs *engine.Attributes, cfg engine.CardConfig, clock engine.Clock) error {
	if err := s.UpdateCard(view); err != nil {
		return err
	}
	if attrs == nil || attrs.Days == nil {
		return nil
	}

	data, _, err := engine.GenerateCalendar(attrs.Days, cfg, attrs, clock)
	if err != nil {
		return err
	}
	s.UpdateFeed(data)
	return nil
}

func (s *FeedServer) handleFeedRequest(w http.ResponseWriter, r *http.Request) {
	serveCached(w, r, s.feed.Load(), config.MimeTextCalendar)
}

func (s *FeedServer) handleCardRequest(w http.ResponseWriter, r *http.Request) {
	serveCached(w, r, s.card.Load(), config.MimeJSON)
}

// serveCached writes item with HTTP caching support.
func serveCached(w http.ResponseWriter, r *http.Request, item *cacheItem, mime string) {
	// 1. Method Validation
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set(config.HeaderAllow, config.AllowedMethods)
		http.Error(w, config.HTTPMsgMethodNotAll, http.StatusMethodNotAllowed)
		return
	}

	// 2. Readiness Check
	if item == nil {
		w.Header().Set(config.HeaderRetryAfter, config.RetryAfterSeconds)
		http.Error(w, config.HTTPMsgInitializing, http.StatusServiceUnavailable)
		return
	}

	// 3. Set Response Headers
	w.Header().Set(config.HeaderContentType, mime)
	w.Header().Set(config.HeaderXContentType, config.MimeNoSniff)
	w.Header().Set(config.HeaderCacheControl, config.CacheControlPrivate)
	w.Header().Set(config.HeaderETag, item.etag)
	w.Header().Set(config.HeaderLastModified, item.lastModified)

	// 4. Check Conditional Headers
	if match := r.Header.Get(config.HeaderIfNoneMatch); match == item.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	if since := r.Header.Get(config.HeaderIfModifiedSince); since != "" {
		if clientTime, err := time.Parse(http.TimeFormat, since); err == nil {
			if serverTime, err := time.Parse(http.TimeFormat, item.lastModified); err == nil {
				if !serverTime.After(clientTime) {
					w.WriteHeader(http.StatusNotModified)
					return
				}
			}
		}
	}

	// 5. Serve Content
	if r.Method == http.MethodGet {
		if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
			slog.Error(config.ErrWriteResp,
				config.LogKeyComponent, config.CompServer,
				config.LogKeyError, err,
			)
		}
	}
}
