package sink

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lgreene/fanout-dispatcher/internal/model"
	"github.com/lgreene/fanout-dispatcher/internal/ratelimiter"
	"github.com/lgreene/fanout-dispatcher/pkg/storage"
)

func TestHTTPSink_SuccessOnTwoXX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	limiter := ratelimiter.New(10)
	s := NewHTTPSink(model.RoleREST, srv.URL, limiter)

	ok, err := s.Send(context.Background(), model.Payload("{}"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !ok {
		t.Error("expected success on 2xx")
	}
}

func TestHTTPSink_SoftFailureOnNonTwoXX(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	limiter := ratelimiter.New(10)
	s := NewHTTPSink(model.RoleREST, srv.URL, limiter)

	ok, err := s.Send(context.Background(), model.Payload("{}"))
	if err != nil {
		t.Fatalf("Send returned error, want soft failure: %v", err)
	}
	if ok {
		t.Error("expected soft failure on 500")
	}
}

func TestHTTPSink_SoftFailureOnTransportError(t *testing.T) {
	limiter := ratelimiter.New(10)
	s := NewHTTPSink(model.RoleREST, "http://127.0.0.1:1", limiter)

	ok, err := s.Send(context.Background(), model.Payload("{}"))
	if err != nil {
		t.Fatalf("Send returned error, want soft failure: %v", err)
	}
	if ok {
		t.Error("expected soft failure on unreachable endpoint")
	}
}

func TestStoreSink_SuccessWritesObject(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	limiter := ratelimiter.New(10)
	s := NewStoreSink(model.RoleDB, store, "db", limiter)

	ok, err := s.Send(context.Background(), model.Payload("payload-bytes"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !ok {
		t.Fatal("expected success")
	}

	keys, err := store.List(context.Background(), "db")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
}

func TestStoreSink_WithFailureRateAlwaysFails(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewLocalStore(dir)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	limiter := ratelimiter.New(10)
	s := NewStoreSink(model.RoleDB, store, "db", limiter).WithFailureRate(1.0, 42)

	ok, err := s.Send(context.Background(), model.Payload("x"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if ok {
		t.Error("expected soft failure with FailureRate=1.0")
	}
}
