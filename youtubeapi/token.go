package youtubeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/SNH48Live/official-livestreams/config"
)

// FileTokenStore persists an oauth2 token as JSON at a fixed path. The file is
// provisioned out of band (the OAuth dance is not this service's job); this
// store only reads it and writes refreshed tokens back.
type FileTokenStore struct {
	Path string
	mu   sync.Mutex
}

func (s *FileTokenStore) Load() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read token file: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return &tok, nil
}

func (s *FileTokenStore) Save(tok *oauth2.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(s.Path, raw, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// NewTokenSource returns an oauth2.TokenSource backed by the config token file;
// refreshed access tokens are written back so they survive restarts.
func NewTokenSource(ctx context.Context, cfg *config.Config) (oauth2.TokenSource, error) {
	store := &FileTokenStore{Path: cfg.TokenFile}
	tok, err := store.Load()
	if err != nil {
		return nil, err
	}
	oc := &oauth2.Config{
		ClientID:     cfg.YTClientID,
		ClientSecret: cfg.YTClientSecret,
		Endpoint:     google.Endpoint,
	}
	return &persistingSource{store: store, src: oc.TokenSource(ctx, tok), last: tok.AccessToken}, nil
}

type persistingSource struct {
	store *FileTokenStore
	src   oauth2.TokenSource
	mu    sync.Mutex
	last  string
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.src.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	changed := tok.AccessToken != p.last
	if changed {
		p.last = tok.AccessToken
	}
	p.mu.Unlock()
	if changed {
		if err := p.store.Save(tok); err != nil {
			slog.Warn("persist refreshed token", slog.Any("err", err))
		}
	}
	return tok, nil
}

// StartTokenRefresher launches a goroutine that periodically checks the token
// file and refreshes ahead of expiry so the monitor never polls with a stale
// token. Jittered scheduling avoids synchronized refresh stampedes when several
// instances share a token file.
func StartTokenRefresher(ctx context.Context, cfg *config.Config, interval, window time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if window <= 0 {
		window = 20 * time.Minute
	}
	//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
	initialJitter := time.Duration(rand.Int63n(int64(interval / 2)))
	go func() {
		select {
		case <-ctx.Done():
			return
		case <-time.After(initialJitter):
		}
		for {
			jitterRange := int64(interval / 5)
			//nolint:gosec // G404: math/rand is sufficient for scheduling jitter, not used for security
			jitter := time.Duration(rand.Int63n(jitterRange*2) - jitterRange)
			nextSleep := interval + jitter
			if nextSleep < interval/2 {
				nextSleep = interval / 2
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(nextSleep):
			}
			store := &FileTokenStore{Path: cfg.TokenFile}
			tok, err := store.Load()
			if err != nil || tok.RefreshToken == "" {
				continue
			}
			if time.Until(tok.Expiry) > window {
				continue
			}
			oc := &oauth2.Config{ClientID: cfg.YTClientID, ClientSecret: cfg.YTClientSecret, Endpoint: google.Endpoint}
			newTok, err := oc.TokenSource(ctx, tok).Token()
			if err != nil {
				slog.Warn("token refresh failed", slog.Any("err", err))
				continue
			}
			if newTok.AccessToken != tok.AccessToken {
				if err := store.Save(newTok); err != nil {
					slog.Warn("persist refreshed token", slog.Any("err", err))
				} else {
					slog.Info("youtube token refreshed", slog.Time("expiry", newTok.Expiry))
				}
			}
		}
	}()
}
