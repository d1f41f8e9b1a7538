package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/matst80/slask-browse/pkg/types"
)

const (
	defaultBaseUrl   = "http://localhost:8080"
	standardPath     = "/api/documents/search"
	semanticPath     = "/api/documents/search/semantic"
	hierarchyPath    = "/api/hierarchy"
	maxResponseBytes = 32 << 20
)

var (
	// ErrSemanticUnavailable marks any failure of the semantic endpoint.
	ErrSemanticUnavailable = errors.New("semantic search unavailable")
	ErrUnexpectedStatus    = errors.New("unexpected status")
)

// IsSemanticUnavailable reports whether err should downgrade a semantic
// search to the standard endpoint. Timeouts count, cancellation does not.
func IsSemanticUnavailable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	return errors.Is(err, ErrSemanticUnavailable) || errors.Is(err, context.DeadlineExceeded)
}

// HttpTransport talks to the document search api.
type HttpTransport struct {
	BaseUrl    string
	HttpClient *http.Client
	Headers    map[string]string
}

func NewHttpTransport(baseUrl string) *HttpTransport {
	if baseUrl == "" {
		baseUrl = defaultBaseUrl
	}
	return &HttpTransport{
		BaseUrl:    strings.TrimSuffix(baseUrl, "/"),
		HttpClient: &http.Client{},
		Headers:    map[string]string{},
	}
}

func (h *HttpTransport) endpoint(path string, params map[string]string) string {
	u := h.BaseUrl + path
	if len(params) == 0 {
		return u
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return u + "?" + values.Encode()
}

func (h *HttpTransport) get(ctx context.Context, u string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range h.Headers {
		req.Header.Set(k, v)
	}

	resp, err := h.HttpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if err = sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding response: %w", err)
	}
	return nil
}

func (h *HttpTransport) Search(ctx context.Context, kind types.EndpointKind, params map[string]string) (*types.ResultPage, error) {
	path := standardPath
	if kind == types.SemanticSearch {
		path = semanticPath
	}
	page := &types.ResultPage{}
	if err := h.get(ctx, h.endpoint(path, params), page); err != nil {
		if kind == types.SemanticSearch && !errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("%w: %w", ErrSemanticUnavailable, err)
		}
		return nil, fmt.Errorf("%s search: %w", kind, err)
	}
	if page.Items == nil {
		page.Items = []types.ResultItem{}
	}
	return page, nil
}

func (h *HttpTransport) FetchHierarchy(ctx context.Context) (types.FacultyToCourseMap, error) {
	data := types.FacultyToCourseMap{}
	if err := h.get(ctx, h.endpoint(hierarchyPath, nil), &data); err != nil {
		return nil, fmt.Errorf("hierarchy: %w", err)
	}
	return data, nil
}
