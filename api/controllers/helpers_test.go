package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/invoicedesk/internal/catalog"
	"github.com/angelmondragon/invoicedesk/internal/session"
	"github.com/angelmondragon/invoicedesk/internal/workspace"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type stubLoader struct {
	items []catalog.Item
	err   error
}

func (s stubLoader) Load(ctx context.Context, token string) (*catalog.Snapshot, error) {
	if s.err != nil {
		return nil, s.err
	}
	return catalog.NewSnapshot(s.items, time.Now()), nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func testItems() []catalog.Item {
	return []catalog.Item{
		{ID: 1, Code: "W-1", Name: "Widget", UnitPrice: decimal.RequireFromString("2.50"), Remaining: 10},
		{ID: 2, Code: "G-2", Name: "Gadget", UnitPrice: decimal.RequireFromString("4.00"), Remaining: 3},
	}
}

func newTestWorkspaces(t *testing.T) *workspace.Registry {
	t.Helper()
	reg, err := workspace.NewRegistry(stubLoader{items: testItems()}, testLogger())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

func signedIn(role enums.UserRole) *session.State {
	state := &session.State{ID: "sess-1", CreatedAt: time.Now()}
	state.SetUser(&session.User{ID: 9, Email: "clerk@example.com", Fullname: "Clerk", Role: role}, "backend-token")
	return state
}

// newRequest builds a request carrying state and chi url params.
func newRequest(method, target, body string, state *session.State, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := req.Context()
	if state != nil {
		ctx = session.WithState(ctx, state)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func decodeData(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(bytes.NewReader(resp.Body.Bytes())).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error.Code
}
