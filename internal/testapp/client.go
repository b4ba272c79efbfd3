package testapp

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/information-sharing-networks/newsletter/internal/database"
)

const queryTimeout = 10 * time.Second

// Response is a fully read HTTP response; the body is already closed.
type Response struct {
	StatusCode    int
	Header        http.Header
	ContentLength int64
	Body          []byte
}

// Do sends req with the app's client and reads the whole response.
// A transport error fails the test.
func (a *TestApp) Do(t testing.TB, req *http.Request) *Response {
	t.Helper()

	resp, err := a.Client.Do(req)
	if err != nil {
		t.Fatalf("Failed to execute request %s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body for %s %s: %v", req.Method, req.URL.Path, err)
	}

	return &Response{
		StatusCode:    resp.StatusCode,
		Header:        resp.Header,
		ContentLength: resp.ContentLength,
		Body:          body,
	}
}

// Get requests path (relative to Address).
func (a *TestApp) Get(t testing.TB, path string) *Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, a.Address+path, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	return a.Do(t, req)
}

// Post sends body to path (relative to Address) with the given content type.
func (a *TestApp) Post(t testing.TB, path, contentType, body string) *Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, a.Address+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", contentType)
	return a.Do(t, req)
}

func (a *TestApp) GetHealthCheck(t testing.TB) *Response {
	t.Helper()
	return a.Get(t, "/health_check")
}

// PostSubscriptions submits an already url-encoded form body.
func (a *TestApp) PostSubscriptions(t testing.TB, body string) *Response {
	t.Helper()
	return a.Post(t, "/subscriptions", "application/x-www-form-urlencoded", body)
}

// SubscriptionByEmail reads the stored subscription straight from the database.
func (a *TestApp) SubscriptionByEmail(t testing.TB, email string) database.Subscription {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	subscription, err := a.Queries.GetSubscriptionByEmail(ctx, email)
	if database.IsNotFound(err) {
		t.Fatalf("No subscription was saved for %q", email)
	}
	if err != nil {
		t.Fatalf("Failed to fetch saved subscription for %q: %v", email, err)
	}
	return subscription
}

// Subscriptions returns every stored subscription, oldest first.
func (a *TestApp) Subscriptions(t testing.TB) []database.Subscription {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	subscriptions, err := a.Queries.ListSubscriptions(ctx)
	if err != nil {
		t.Fatalf("Failed to list subscriptions: %v", err)
	}
	return subscriptions
}

func (a *TestApp) CountSubscriptions(t testing.TB) int64 {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout)
	defer cancel()

	n, err := a.Queries.CountSubscriptions(ctx)
	if err != nil {
		t.Fatalf("Failed to count subscriptions: %v", err)
	}
	return n
}
