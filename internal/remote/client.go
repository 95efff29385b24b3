// Package remote fetches entities owned by sibling services.
//
// Every lookup is a single bounded GET of <base>/<id>. Any failure (network
// error, timeout, non-2xx status, undecodable body) yields nil: callers must
// read nil as "could not verify", never as "does not exist", unless they
// deliberately use it to reject input.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shop-backend/config"
	"shop-backend/internal/models"
	"shop-backend/internal/util"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// Lookup kinds, used as metric labels
const (
	KindUser     = "user"
	KindMerchant = "merchant"
	KindProduct  = "product"
)

type Client struct {
	http        *http.Client
	userURL     string
	merchantURL string
	productURL  string
	logger      *zap.Logger
}

// NewClient creates a lookup client for the given services. timeout bounds
// each call end to end.
func NewClient(services config.ServicesConfig, timeout time.Duration) *Client {
	return &Client{
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		userURL:     strings.TrimRight(services.UserURL, "/"),
		merchantURL: strings.TrimRight(services.MerchantURL, "/"),
		productURL:  strings.TrimRight(services.ProductURL, "/"),
		logger:      util.GetLogger(),
	}
}

// GetUser returns the user snapshot, or nil when it could not be fetched.
func (c *Client) GetUser(ctx context.Context, id int64) *models.User {
	return fetch(ctx, c, KindUser, c.userURL, id, func(u *models.User) int64 { return u.ID })
}

// GetMerchant returns the merchant snapshot, or nil.
func (c *Client) GetMerchant(ctx context.Context, id int64) *models.Merchant {
	return fetch(ctx, c, KindMerchant, c.merchantURL, id, func(m *models.Merchant) int64 { return m.ID })
}

// GetProduct returns the product snapshot, or nil.
func (c *Client) GetProduct(ctx context.Context, id int64) *models.Product {
	return fetch(ctx, c, KindProduct, c.productURL, id, func(p *models.Product) int64 { return p.ID })
}

// fetch GETs <base>/<id>. A body describing any other entity than id
// (including an empty object) counts as absent.
func fetch[T any](ctx context.Context, c *Client, kind, base string, id int64, idOf func(*T) int64) *T {
	ctx, span := util.StartSpan(ctx, "remote.Get"+strings.ToUpper(kind[:1])+kind[1:])
	defer span.End()

	start := time.Now()
	v, err := get[T](ctx, c.http, fmt.Sprintf("%s/%d", base, id))
	util.RemoteLookupLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err == nil && idOf(v) != id {
		err = fmt.Errorf("response describes %s %d, want %d", kind, idOf(v), id)
	}

	if err != nil {
		util.RemoteLookupsTotal.WithLabelValues(kind, "absent").Inc()
		c.logger.Warn("Remote lookup failed",
			zap.String("kind", kind),
			zap.Int64("id", id),
			zap.Error(err))
		return nil
	}
	util.RemoteLookupsTotal.WithLabelValues(kind, "found").Inc()
	return v
}

func get[T any](ctx context.Context, hc *http.Client, url string) (*T, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	var v *T
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	if v == nil {
		return nil, fmt.Errorf("empty body from %s", url)
	}
	return v, nil
}
