package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/totegamma/craft-nft"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "craftnft-client"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("craftnft: %d %s", e.Status, e.Message)
}

type Client struct {
	client   *http.Client
	cache    *cache.Cache
	endpoint string
}

// New returns a client for the backend at endpoint, e.g. "http://localhost:5000".
func New(endpoint string) *Client {
	httpClient := http.Client{
		Timeout: defaultTimeout,
	}

	slog.Debug(
		"Initialize client",
		slog.String("endpoint", endpoint),
		slog.String("module", "client"),
	)
	c := &Client{
		client:   &httpClient,
		cache:    cache.New(10*time.Minute, 15*time.Minute),
		endpoint: strings.TrimRight(endpoint, "/"),
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

func (c *Client) do(ctx context.Context, method, path string, body, response any) error {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&failure)
		return &APIError{Status: resp.StatusCode, Message: failure.Error}
	}

	err = json.NewDecoder(resp.Body).Decode(response)
	if err != nil {
		return fmt.Errorf("failed to decode response: %v", err)
	}

	return nil
}

// VerifyPayment submits a purchase. A successful call drops the cached
// listing of the buyer.
func (c *Client) VerifyPayment(ctx context.Context, req craftnft.VerifyPaymentRequest) (craftnft.VerifyPaymentResponse, error) {
	var resp craftnft.VerifyPaymentResponse
	err := c.do(ctx, http.MethodPost, "/verify_payment", req, &resp)
	if err != nil {
		return craftnft.VerifyPaymentResponse{}, err
	}

	c.cache.Delete("nfts:" + req.UserPublicKey)
	return resp, nil
}

func (c *Client) GetNFTs(ctx context.Context, owner string) ([]craftnft.OwnedNFT, error) {
	cacheKey := "nfts:" + owner
	x, found := c.cache.Get(cacheKey)
	if found {
		slog.Debug(
			"Cache hit for owned nfts",
			slog.String("owner", owner),
			slog.String("module", "client"),
		)
		return x.([]craftnft.OwnedNFT), nil
	}

	var owned []craftnft.OwnedNFT
	err := c.do(ctx, http.MethodGet, "/get_nfts/"+url.PathEscape(owner), nil, &owned)
	if err != nil {
		return nil, fmt.Errorf("failed to get nfts: %w", err)
	}

	c.cache.Set(cacheKey, owned, cache.DefaultExpiration)
	return owned, nil
}
