package notes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/householdnotes/internal/telemetry/metrics"
	"github.com/2beens/householdnotes/internal/telemetry/tracing"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultApiUrl = "http://localhost:8000"
	apiPrefix     = "/api/v1"
	userAgent     = "hxnotes/1"
)

// Api talks to the notes backend. Every failure it returns is an *ApiError,
// except local validation errors (ErrTitleRequired) which never reach the network.
type Api struct {
	baseUrl    string // e.g. http://localhost:8000, without the /api/v1 prefix
	httpClient *http.Client
	metrics    *metrics.Manager
}

func NewApi(baseUrl string, httpClient *http.Client, metricsManager *metrics.Manager) *Api {
	if baseUrl == "" {
		baseUrl = DefaultApiUrl
	}
	if httpClient == nil {
		httpClient = NewTracedHttpClient(30 * time.Second)
	}
	return &Api{
		baseUrl:    strings.TrimSuffix(baseUrl, "/"),
		httpClient: httpClient,
		metrics:    metricsManager,
	}
}

func NewTracedHttpClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func (a *Api) BaseUrl() string {
	return a.baseUrl
}

// List returns the notes for filter in the order the backend sent them.
// Anything but Ben or Wife lists all notes.
func (a *Api) List(ctx context.Context, filter Filter) (_ []Note, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	path := "/notes/"
	if author, ok := filter.Author(); ok {
		query := url.Values{}
		query.Set("author", string(author))
		path += "?" + query.Encode()
	}
	span.SetAttributes(attribute.String("notes.filter", filter.Label()))

	listResp := &NotesListResponse{}
	if err = a.do(ctx, "list", http.MethodGet, a.apiUrl(path), nil, listResp); err != nil {
		return nil, err
	}

	log.Tracef("notes api: listed %d notes [filter: %s, total: %d]", len(listResp.Items), filter.Label(), listResp.Total)

	if listResp.Items == nil {
		listResp.Items = []Note{}
	}
	return listResp.Items, nil
}

func (a *Api) Get(ctx context.Context, id int) (_ *Note, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("notes.id", id))

	note := &Note{}
	if err = a.do(ctx, "get", http.MethodGet, a.apiUrl(notePath(id)), nil, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (a *Api) Create(ctx context.Context, payload CreateNotePayload) (_ *Note, err error) {
	if err := ValidateTitle(payload.Title); err != nil {
		return nil, err
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.String("notes.author", string(payload.Author)))

	note := &Note{}
	if err = a.do(ctx, "create", http.MethodPost, a.apiUrl("/notes/"), payload, note); err != nil {
		return nil, err
	}

	log.Debugf("notes api: created note %d [%s]", note.Id, note.Author)
	return note, nil
}

func (a *Api) Update(ctx context.Context, id int, payload UpdateNotePayload) (_ *Note, err error) {
	if payload.Title != nil {
		if err := ValidateTitle(*payload.Title); err != nil {
			return nil, err
		}
	}

	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("notes.id", id))

	note := &Note{}
	if err = a.do(ctx, "update", http.MethodPatch, a.apiUrl(notePath(id)), payload, note); err != nil {
		return nil, err
	}

	log.Debugf("notes api: updated note %d", note.Id)
	return note, nil
}

func (a *Api) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("notes.id", id))

	if err = a.do(ctx, "delete", http.MethodDelete, a.apiUrl(notePath(id)), nil, nil); err != nil {
		return err
	}

	log.Debugf("notes api: deleted note %d", id)
	return nil
}

// Health checks the backend liveness endpoint, which lives outside the api prefix.
func (a *Api) Health(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "notesApi.health")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	healthResp := map[string]string{}
	if err = a.do(ctx, "health", http.MethodGet, a.baseUrl+"/health", nil, &healthResp); err != nil {
		return err
	}
	if status := healthResp["status"]; status != "ok" {
		// the response itself was fine, so there is no http status to report
		return &ApiError{
			Message: fmt.Sprintf("backend unhealthy, status %q", status),
		}
	}
	return nil
}

func (a *Api) apiUrl(path string) string {
	return a.baseUrl + apiPrefix + path
}

func notePath(id int) string {
	return "/notes/" + strconv.Itoa(id)
}

// do sends one request and decodes a successful response into target.
// A 204 response, or a nil target, never has its body decoded.
func (a *Api) do(ctx context.Context, operation, method, reqUrl string, body any, target any) error {
	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return &ApiError{Message: fmt.Sprintf("marshal request body: %s", err)}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqUrl, bodyReader)
	if err != nil {
		return &ApiError{Message: fmt.Sprintf("create request: %s", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	log.Tracef("notes api: %s %s", method, reqUrl)

	start := time.Now()
	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.observe(operation, 0, start)
		return &ApiError{Message: fmt.Sprintf("%s %s: %s", method, reqUrl, err)}
	}
	defer resp.Body.Close()
	a.observe(operation, resp.StatusCode, start)

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ApiError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("read response: %s", err),
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := newApiErrorFromResponse(resp.StatusCode, resp.Status, respBytes)
		log.Debugf("notes api: %s %s failed: %s", method, reqUrl, apiErr)
		return apiErr
	}

	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.Unmarshal(respBytes, target); err != nil {
		return &ApiError{
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("decode response: %s", err),
		}
	}

	return nil
}

func (a *Api) observe(operation string, status int, start time.Time) {
	if a.metrics == nil {
		return
	}
	a.metrics.CounterApiRequests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	a.metrics.HistApiRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
