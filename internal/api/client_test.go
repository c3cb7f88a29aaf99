package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBearerHeaderAttachedWhenTokenPresent(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"chats":[]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "tok-123" })
	if _, err := c.Chats(context.Background()); err != nil {
		t.Fatalf("Chats: %v", err)
	}
	if got != "Bearer tok-123" {
		t.Fatalf("Authorization = %q, want bearer header", got)
	}
}

func TestNoBearerHeaderWhenTokenEmpty(t *testing.T) {
	var got string
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = r.Header.Get("Authorization"), r.Header.Get("Authorization") != ""
		w.Write([]byte(`{"token":"t"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "" })
	if _, err := c.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if present {
		t.Fatalf("Authorization = %q, want header absent", got)
	}
}

func TestStatusErrorCarriesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"account already exists"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "" })
	_, err := c.Register(context.Background(), "n", "a@b.c", "secret1")
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if status.Status != http.StatusConflict || status.Message != "account already exists" {
		t.Fatalf("got %+v", status)
	}
}

func TestStatusErrorToleratesNonJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "" })
	_, err := c.Chats(context.Background())
	var status *StatusError
	if !errors.As(err, &status) {
		t.Fatalf("err = %v, want *StatusError", err)
	}
	if status.Status != http.StatusBadGateway || status.Message != "" {
		t.Fatalf("got %+v", status)
	}
}

func TestForcedLogoutFiresOnceOnAuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"invalid or expired credentials"}`))
	}))
	defer srv.Close()

	var logouts int
	c := New(srv.URL, func() string { return "stale" })
	c.Observe(NewForcedLogout(func() { logouts++ }))

	_, err := c.Chats(context.Background())
	var status *StatusError
	if !errors.As(err, &status) || status.Status != http.StatusUnauthorized {
		t.Fatalf("the rejection must still reach the caller, got %v", err)
	}
	if logouts != 1 {
		t.Fatalf("logouts = %d, want exactly 1", logouts)
	}
}

func TestForcedLogoutIgnoresOtherStatuses(t *testing.T) {
	var logouts int
	f := NewForcedLogout(func() { logouts++ })
	for _, status := range []int{200, 201, 400, 404, 409, 500} {
		f.ObserveResponse(&Attempt{}, status)
	}
	if logouts != 0 {
		t.Fatalf("logouts = %d, want 0 for non-auth statuses", logouts)
	}
}

func TestForcedLogoutAtMostOncePerAttempt(t *testing.T) {
	var logouts int
	f := NewForcedLogout(func() { logouts++ })
	att := &Attempt{}
	// the same attempt handed through multiple pipeline stages
	f.ObserveResponse(att, http.StatusUnauthorized)
	f.ObserveResponse(att, http.StatusForbidden)
	f.ObserveResponse(att, http.StatusUnauthorized)
	if logouts != 1 {
		t.Fatalf("logouts = %d, want 1 per attempt", logouts)
	}
	// a fresh attempt fires again
	f.ObserveResponse(&Attempt{}, http.StatusForbidden)
	if logouts != 2 {
		t.Fatalf("logouts = %d, want one more for the next attempt", logouts)
	}
}
