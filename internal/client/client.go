package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/id"
	"github.com/GriffinCanCode/LanDrop/backend/internal/shared/types"
)

// ErrConnection marks failures to reach the server at all.
var ErrConnection = errors.New("connection error")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
	// Kind is the server side error kind (NotFound, Forbidden, ...).
	Kind string
}

func (e *APIError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("server returned %d %s: %s", e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout bounds JSON calls. Uploads and downloads are bounded only by
	// the caller's context.
	Timeout    time.Duration
	RetryCount int
	RetryWait  time.Duration
	Logger     *zap.Logger
}

// DefaultConfig returns the client defaults for baseURL.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:    baseURL,
		Timeout:    30 * time.Second,
		RetryCount: 2,
		RetryWait:  500 * time.Millisecond,
	}
}

// Client talks to a LanDrop server.
type Client struct {
	// reads retries through retryablehttp; writes never replay.
	reads   *resty.Client
	writes  *resty.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// New creates a client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	base, err := NormalizeBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("client")

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.RetryCount
	retryClient.RetryWaitMin = cfg.RetryWait
	retryClient.RetryWaitMax = 10 * cfg.RetryWait
	retryClient.Logger = retryLogger{logger.Sugar()}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	// retryablehttp buffers request bodies, so writes (uploads in
	// particular) use the same pooled transport without it.
	pooled := retryClient.HTTPClient.Transport
	newResty := func(rt http.RoundTripper) *resty.Client {
		return resty.New().
			SetTransport(rt).
			SetBaseURL(base).
			SetHeader("User-Agent", "landrop-cli/1.0")
	}

	return &Client{
		reads:   newResty(&retryablehttp.RoundTripper{Client: retryClient}),
		writes:  newResty(pooled),
		baseURL: base,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// retryLogger routes retryablehttp messages to zap at debug level.
type retryLogger struct{ l *zap.SugaredLogger }

func (r retryLogger) Error(msg string, kv ...interface{}) { r.l.Debugw(msg, kv...) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.l.Debugw(msg, kv...) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.l.Debugw(msg, kv...) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.l.Debugw(msg, kv...) }

// BaseURL returns the normalized server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizeBaseURL trims input, defaults the scheme to http and drops a
// trailing slash. Only http and https are accepted.
func NormalizeBaseURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", errors.New("server address is required")
	}
	if !strings.Contains(s, "://") {
		s = "http://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid server address %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid server address %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server address %q: missing host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	return strings.TrimRight(u.String(), "/"), nil
}

// EscapePath escapes each segment of a relative path for use in a URL.
func EscapePath(rel string) string {
	segs := strings.Split(strings.Trim(rel, "/"), "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func (c *Client) request(ctx context.Context, rc *resty.Client) (*resty.Request, context.CancelFunc) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	return rc.R().SetContext(ctx).SetHeader("Accept", "application/json"), cancel
}

// check turns transport failures and error statuses into typed errors.
func (c *Client) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Debug("Request failed", zap.String("op", op), zap.Error(err))
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", ErrConnection, op, err)
	}
	if resp.IsSuccess() {
		return nil
	}
	return apiError(resp.StatusCode(), resp.Body())
}

func apiError(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var payload types.ErrorResponse
	if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
		apiErr.Message = payload.Message
		apiErr.Kind = payload.Error
	}
	return apiErr
}

// Info fetches the server identity. It doubles as a connectivity check.
func (c *Client) Info(ctx context.Context) (*types.InfoResponse, error) {
	req, cancel := c.request(ctx, c.reads)
	defer cancel()

	var info types.InfoResponse
	resp, err := req.SetResult(&info).Get("/")
	if err := c.check("info", resp, err); err != nil {
		return nil, err
	}
	return &info, nil
}

// List fetches the recursive tree, optionally of a subtree.
func (c *Client) List(ctx context.Context, subtree string) (*types.ListResponse, error) {
	req, cancel := c.request(ctx, c.reads)
	defer cancel()
	if subtree != "" {
		req.SetQueryParam("path", subtree)
	}

	resp, err := req.Get("/api/files")
	if err := c.check("list", resp, err); err != nil {
		return nil, err
	}

	var list types.ListResponse
	if err := json.Unmarshal(resp.Body(), &list); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	return &list, nil
}

// CheckFiles returns the relative paths that already exist on the server.
func (c *Client) CheckFiles(ctx context.Context, relPaths []string) ([]string, error) {
	req, cancel := c.request(ctx, c.writes)
	defer cancel()

	if relPaths == nil {
		relPaths = []string{}
	}
	var out types.CheckFilesResponse
	resp, err := req.
		SetBody(types.CheckFilesRequest{FileNames: relPaths}).
		SetResult(&out).
		Post("/api/check-files")
	if err := c.check("check files", resp, err); err != nil {
		return nil, err
	}
	return out.Conflicts, nil
}

// Delete removes a file or folder and returns the server message.
func (c *Client) Delete(ctx context.Context, rel string) (string, error) {
	req, cancel := c.request(ctx, c.writes)
	defer cancel()

	var out types.MessageResponse
	resp, err := req.SetResult(&out).Delete("/api/files/" + EscapePath(rel))
	if err := c.check("delete", resp, err); err != nil {
		return "", err
	}
	return out.Message, nil
}

// Download streams the file at rel into w and returns the server supplied
// file name and the byte count.
func (c *Client) Download(ctx context.Context, rel string, w io.Writer) (string, int64, error) {
	resp, err := c.reads.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get("/api/download/" + EscapePath(rel))
	if err != nil {
		return "", 0, c.check("download", resp, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if !resp.IsSuccess() {
		data, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		return "", 0, apiError(resp.StatusCode(), data)
	}

	name := path2name(rel)
	if _, params, err := mime.ParseMediaType(resp.Header().Get("Content-Disposition")); err == nil && params["filename"] != "" {
		name = params["filename"]
	}

	n, err := io.Copy(w, body)
	if err != nil {
		return name, n, fmt.Errorf("download %s: %w", rel, err)
	}
	return name, n, nil
}

func path2name(rel string) string {
	rel = strings.TrimRight(rel, "/")
	if i := strings.LastIndex(rel, "/"); i >= 0 {
		return rel[i+1:]
	}
	return rel
}

// UploadFile is one local file to send.
type UploadFile struct {
	// Path is the local file path.
	Path string
	// RelativePath is where the file lands under the storage root.
	RelativePath string
	Size         int64
}

// Progress reports bytes sent of an approximate total.
type Progress func(sent, total int64)

// Upload sends all files in one multipart request under a fresh batch id.
func (c *Client) Upload(ctx context.Context, files []UploadFile, onProgress Progress) (*types.UploadResponse, error) {
	return c.UploadBatch(ctx, id.NewBatchID(), files, onProgress)
}

// UploadBatch sends all files in one multipart request tagged with batch.
// The body is streamed from disk; onProgress, if set, is called as bytes
// go out.
func (c *Client) UploadBatch(ctx context.Context, batch id.BatchID, files []UploadFile, onProgress Progress) (*types.UploadResponse, error) {
	if len(files) == 0 {
		return nil, errors.New("no files to upload")
	}

	var total int64
	for _, f := range files {
		total += f.Size
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeMultipart(mw, files))
	}()

	body := &countingReader{r: pr, total: total, onProgress: onProgress}

	var out types.UploadResponse
	resp, err := c.writes.R().
		SetContext(ctx).
		SetHeader("Content-Type", mw.FormDataContentType()).
		SetHeader("Accept", "application/json").
		SetHeader(types.BatchHeader, batch.String()).
		SetBody(body).
		SetResult(&out).
		Post("/api/upload")
	// Unblock the writer if the request ended early.
	pr.CloseWithError(io.ErrClosedPipe)

	if err := c.check("upload", resp, err); err != nil {
		c.logger.Debug("Batch failed", zap.String("batch", batch.String()), zap.Error(err))
		return nil, err
	}
	c.logger.Debug("Batch uploaded", zap.String("batch", batch.String()), zap.Int("files", len(files)))
	if onProgress != nil {
		onProgress(total, total)
	}
	return &out, nil
}

func writeMultipart(mw *multipart.Writer, files []UploadFile) error {
	// Paths go first so a streaming server sees them before the bytes.
	for i, f := range files {
		if err := mw.WriteField("relativePaths["+strconv.Itoa(i)+"]", f.RelativePath); err != nil {
			return err
		}
	}
	for _, f := range files {
		if err := copyFilePart(mw, f); err != nil {
			return err
		}
	}
	return mw.Close()
}

func copyFilePart(mw *multipart.Writer, f UploadFile) error {
	src, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer src.Close()

	part, err := mw.CreateFormFile("files", path2name(f.RelativePath))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, src)
	return err
}

type countingReader struct {
	r          io.Reader
	sent       atomic.Int64
	total      int64
	onProgress Progress
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.onProgress != nil {
		sent := c.sent.Add(int64(n))
		// Multipart framing makes the body slightly larger than total.
		if sent > c.total {
			sent = c.total
		}
		c.onProgress(sent, c.total)
	}
	return n, err
}
