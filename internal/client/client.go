// Package client is a typed HTTP client for the product API. It maps
// transport failures and error statuses onto a small error taxonomy the cache
// synchronizer can branch on.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/avolkov/vitrine/internal/catalog"
	"github.com/avolkov/vitrine/pkg/models"
)

// ErrUnreachable wraps transport-level failures: the server could not be
// reached at all. Eligible for user-triggered retry.
var ErrUnreachable = errors.New("product service unreachable")

// StatusError is a non-2xx response from the server, carrying the problem
// detail when one was provided.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("product service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("product service returned status %d: %s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// IsServerError reports whether err is a 5xx from the server.
func IsServerError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}

// Client talks to a single product API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewWithHTTPClient creates a Client using a caller-supplied http.Client,
// typically an httptest client in tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc}
}

// ListProducts fetches one page of the listing selected by spec.
func (c *Client) ListProducts(ctx context.Context, spec catalog.QuerySpec) (*catalog.Page[models.Product], error) {
	reqURL := c.baseURL + "/products?" + spec.Values().Encode()
	var page catalog.Page[models.Product]
	if err := c.do(ctx, http.MethodGet, reqURL, nil, "", &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetProduct fetches a single product by id.
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodGet, c.productURL(id), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, in models.CreateProductInput) (*models.Product, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode product: %w", err)
	}
	var p models.Product
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/products",
		bytes.NewReader(body), "application/json", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct applies a partial update.
func (c *Client) UpdateProduct(ctx context.Context, id int64, in models.UpdateProductInput) (*models.Product, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode update: %w", err)
	}
	var p models.Product
	if err := c.do(ctx, http.MethodPut, c.productURL(id),
		bytes.NewReader(body), "application/json", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProduct deletes a product by id.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.productURL(id), nil, "", nil)
}

// UploadPhoto attaches a photo to a product via a multipart request.
func (c *Client) UploadPhoto(ctx context.Context, id int64, filename, mimeType string, r io.Reader) (*models.Product, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	hdr.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(hdr)
	if err != nil {
		return nil, fmt.Errorf("build multipart: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart: %w", err)
	}

	var p models.Product
	if err := c.do(ctx, http.MethodPost, c.productURL(id)+"/photo",
		&buf, mw.FormDataContentType(), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePhoto clears a product's photo.
func (c *Client) DeletePhoto(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	if err := c.do(ctx, http.MethodDelete, c.productURL(id)+"/photo", nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) productURL(id int64) string {
	return c.baseURL + "/products/" + strconv.FormatInt(id, 10)
}

// do runs one request and decodes the response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Detail: problemDetail(resp.Body)}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// problemDetail pulls the detail field out of an RFC 7807 body, best-effort.
func problemDetail(r io.Reader) string {
	var problem struct {
		Detail string `json:"detail"`
		Title  string `json:"title"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 4096)).Decode(&problem); err != nil {
		return ""
	}
	if problem.Detail != "" {
		return problem.Detail
	}
	return problem.Title
}
