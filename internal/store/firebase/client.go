// Package firebase talks to a Firebase-style realtime database over its REST
// interface: every node is addressable as {base}{path}.json.
package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/cobus/internal/domain"
	"github.com/MrSnakeDoc/cobus/internal/store"
)

// maxErrorBody caps how much of a failed response ends up in the error.
const maxErrorBody = 512

// Options configures a Client.
type Options struct {
	BaseURL    string        // ex: "https://cobus-default-rtdb.firebaseio.com"
	Unit       string        // unit name, selects /{unit}
	Credential string        // opaque token sent as ?auth=
	Timeout    time.Duration // per request, 0 = no timeout
	HTTPClient *http.Client  // optional, overrides Timeout
}

// Client implements store.Adapter for one unit.
type Client struct {
	base       string
	paths      store.Paths
	credential string
	http       *http.Client
}

var _ store.Adapter = (*Client)(nil)

// New validates the options and builds a client. It does not contact the server.
func New(opts Options) (*Client, error) {
	if err := store.ValidateUnit(opts.Unit); err != nil {
		return nil, fmt.Errorf("firebase: %w", err)
	}
	u, err := url.Parse(opts.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("firebase: invalid base url %q", opts.BaseURL)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		base:       strings.TrimRight(opts.BaseURL, "/"),
		paths:      store.Paths{Unit: opts.Unit},
		credential: opts.Credential,
		http:       hc,
	}, nil
}

type currentStateBody struct {
	NumberOfPassengers *int `json:"number_of_passengers"`
}

type pushResponse struct {
	Name string `json:"name"`
}

func (c *Client) ReadCurrentState(ctx context.Context) (domain.CurrentStateResult, error) {
	const op = "read current state"

	var body *currentStateBody
	if err := c.do(ctx, http.MethodGet, c.paths.CurrentState(), nil, nil, &body); err != nil {
		return domain.Missing(), store.Unavailable(op, err)
	}
	if body == nil || body.NumberOfPassengers == nil {
		return domain.Missing(), nil
	}
	return domain.Present(domain.CurrentState{NumberOfPassengers: *body.NumberOfPassengers}), nil
}

func (c *Client) WriteCurrentState(ctx context.Context, n int) error {
	payload := domain.CurrentState{NumberOfPassengers: n}
	if err := c.do(ctx, http.MethodPut, c.paths.CurrentState(), nil, payload, nil); err != nil {
		return store.Unavailable("write current state", err)
	}
	return nil
}

func (c *Client) ReadHistoryHead(ctx context.Context, limit int) ([]domain.RecordState, error) {
	const op = "read history head"

	q := url.Values{}
	q.Set("orderBy", `"$key"`)
	q.Set("limitToFirst", strconv.Itoa(limit))

	var body map[string]domain.RecordState
	if err := c.do(ctx, http.MethodGet, c.paths.RecordStates(), q, nil, &body); err != nil {
		return nil, store.Unavailable(op, err)
	}

	// JSON objects carry no order; restore the key order the query asked for.
	keys := make([]string, 0, len(body))
	for k := range body {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > limit {
		keys = keys[:limit]
	}

	out := make([]domain.RecordState, 0, len(keys))
	for _, k := range keys {
		out = append(out, body[k])
	}
	return out, nil
}

func (c *Client) AppendHistory(ctx context.Context, entry domain.RecordState) error {
	const op = "append history"

	var resp pushResponse
	if err := c.do(ctx, http.MethodPost, c.paths.RecordStates(), nil, entry, &resp); err != nil {
		return store.Unavailable(op, err)
	}
	if resp.Name == "" {
		return store.Unavailable(op, fmt.Errorf("server did not return a generated key"))
	}
	return nil
}

func (c *Client) ClearHistory(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, c.paths.RecordStates(), nil, nil, nil); err != nil {
		return store.Unavailable("clear history", err)
	}
	return nil
}

// do performs one request. A nil in leaves the body empty; a nil out discards
// the response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if c.credential != "" {
		query.Set("auth", c.credential)
	}

	target := c.base + path + ".json"
	if enc := query.Encode(); enc != "" {
		target += "?" + enc
	}

	var reqBody io.Reader = http.NoBody
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, redact(err, c.credential))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// redact keeps the credential out of transport errors, which embed the URL.
func redact(err error, credential string) error {
	if credential == "" {
		return err
	}
	msg := strings.ReplaceAll(err.Error(), url.QueryEscape(credential), "***")
	return errors.New(msg)
}
