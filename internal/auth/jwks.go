package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"
)

const (
	defaultKeySetTTL          = 10 * time.Minute
	defaultKeySetMaxStale     = 30 * time.Minute
	defaultKeySetFetchTimeout = 5 * time.Second
	keySetRetryAttempts       = 3
	keySetRetryBase           = 200 * time.Millisecond
	keySetRetryMax            = 2 * time.Second
)

// KeySetConfig tunes the JWKS cache behavior.
type KeySetConfig struct {
	URL          string
	TTL          time.Duration
	MaxStale     time.Duration
	FetchTimeout time.Duration
}

// KeySet is a thread-safe cache of the identity provider's RSA signing keys,
// indexed by key id. Entries are served fresh within TTL, served stale while a
// background refresh runs, and refetched once on a key-id miss before the
// lookup fails. All requests share one in-flight refresh.
type KeySet struct {
	url          string
	httpClient   *http.Client
	ttl          time.Duration
	maxStale     time.Duration
	fetchTimeout time.Duration
	now          func() time.Time

	mu         sync.RWMutex
	keys       map[string]*rsa.PublicKey
	expiresAt  time.Time
	staleUntil time.Time

	refreshMu sync.Mutex
	refreshCh chan struct{}
	lastErr   error
}

// NewKeySet builds a key set cache for the given JWKS endpoint.
func NewKeySet(cfg KeySetConfig, httpClient *http.Client) *KeySet {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ks := &KeySet{
		url:          cfg.URL,
		httpClient:   httpClient,
		ttl:          cfg.TTL,
		maxStale:     cfg.MaxStale,
		fetchTimeout: cfg.FetchTimeout,
		now:          time.Now,
		keys:         map[string]*rsa.PublicKey{},
	}
	if ks.ttl <= 0 {
		ks.ttl = defaultKeySetTTL
	}
	if ks.maxStale <= 0 {
		ks.maxStale = defaultKeySetMaxStale
	}
	if ks.fetchTimeout <= 0 {
		ks.fetchTimeout = defaultKeySetFetchTimeout
	}
	return ks
}

type keyState int

const (
	keyMissing keyState = iota
	keyFresh
	keyStale
)

// Key returns the public key matching kid, fetching the key set when the
// cache is cold or the kid is unknown. A kid absent after a fresh fetch
// yields ErrKeyNotFound.
func (ks *KeySet) Key(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	if kid == "" {
		return nil, ErrKeyNotFound
	}
	now := ks.now()
	if key, state := ks.lookup(kid, now); state == keyFresh {
		return key, nil
	} else if state == keyStale {
		ks.refreshAsync()
		return key, nil
	}
	if err := ks.refresh(ctx); err != nil {
		return nil, err
	}
	if key, _ := ks.lookup(kid, ks.now()); key != nil {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (ks *KeySet) lookup(kid string, now time.Time) (*rsa.PublicKey, keyState) {
	ks.mu.RLock()
	defer ks.mu.RUnlock()
	key, ok := ks.keys[kid]
	if !ok {
		return nil, keyMissing
	}
	if now.Before(ks.expiresAt) {
		return key, keyFresh
	}
	if !ks.staleUntil.IsZero() && now.Before(ks.staleUntil) {
		return key, keyStale
	}
	return nil, keyMissing
}

func (ks *KeySet) refreshAsync() {
	ctx, cancel := context.WithTimeout(context.Background(), ks.fetchTimeout)
	go func() {
		_ = ks.refresh(ctx)
		cancel()
	}()
}

func (ks *KeySet) refresh(ctx context.Context) error {
	ch, leader := ks.beginRefresh()
	if !leader {
		return ks.waitRefresh(ctx, ch)
	}
	err := ks.doRefresh(ctx)
	ks.finishRefresh(err, ch)
	return err
}

func (ks *KeySet) beginRefresh() (chan struct{}, bool) {
	ks.refreshMu.Lock()
	defer ks.refreshMu.Unlock()
	if ks.refreshCh != nil {
		return ks.refreshCh, false
	}
	ch := make(chan struct{})
	ks.refreshCh = ch
	return ch, true
}

func (ks *KeySet) waitRefresh(ctx context.Context, ch chan struct{}) error {
	select {
	case <-ch:
		ks.refreshMu.Lock()
		defer ks.refreshMu.Unlock()
		return ks.lastErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ks *KeySet) finishRefresh(err error, ch chan struct{}) {
	ks.refreshMu.Lock()
	defer ks.refreshMu.Unlock()
	ks.lastErr = err
	close(ch)
	ks.refreshCh = nil
}

func (ks *KeySet) doRefresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, ks.fetchTimeout)
	defer cancel()

	keys, err := ks.fetchWithRetry(ctx)
	if err != nil {
		return err
	}
	now := ks.now()
	ks.mu.Lock()
	ks.keys = keys
	ks.expiresAt = now.Add(ks.ttl)
	ks.staleUntil = ks.expiresAt.Add(ks.maxStale)
	ks.mu.Unlock()
	return nil
}

func (ks *KeySet) fetchWithRetry(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	delay := keySetRetryBase
	var lastErr error
	for attempt := 0; attempt < keySetRetryAttempts; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			if delay > keySetRetryMax {
				delay = keySetRetryMax
			}
		}
		keys, err := ks.fetchOnce(ctx)
		if err == nil {
			return keys, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

type jwksDocument struct {
	Keys []jwk `json:"keys"`
}

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

func (ks *KeySet) fetchOnce(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ks.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := ks.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("jwks fetch returned status %d", resp.StatusCode)
	}
	var doc jwksDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode jwks document: %w", err)
	}
	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, key := range doc.Keys {
		if key.Kty != "RSA" || key.Kid == "" {
			continue
		}
		pub, err := key.rsaPublicKey()
		if err != nil {
			continue
		}
		keys[key.Kid] = pub
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("jwks document at %s contains no usable keys", ks.url)
	}
	return keys, nil
}

func (k jwk) rsaPublicKey() (*rsa.PublicKey, error) {
	if k.N == "" || k.E == "" {
		return nil, fmt.Errorf("jwk %s is missing rsa parameters", k.Kid)
	}
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}
	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes).Int64()
	if e <= 0 || e > int64(^uint32(0)) {
		return nil, fmt.Errorf("jwk %s has an invalid exponent", k.Kid)
	}
	return &rsa.PublicKey{N: n, E: int(e)}, nil
}

func sleepWithContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
