package web_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/ardanlabs/utxocoin/foundation/web"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type payload struct {
	Amount uint64 `json:"amount"`
}

func (p payload) Validate() error {
	if p.Amount == 0 {
		return errors.New("amount must be positive")
	}
	return nil
}

func TestHandle(t *testing.T) {
	shutdown := make(chan os.Signal, 1)

	var order []string
	mw := func(name string) web.Middleware {
		return func(handler web.Handler) web.Handler {
			return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				order = append(order, name)
				return handler(ctx, w, r)
			}
		}
	}

	app := web.NewApp(shutdown, mw("app"))

	app.Handle(http.MethodPost, "v1", "/echo/:name", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		v, err := web.GetValues(ctx)
		if err != nil {
			return web.NewShutdownError("web value missing from context")
		}

		var p payload
		if err := web.Decode(r, &p); err != nil {
			return web.Respond(ctx, w, err.Error(), http.StatusBadRequest)
		}

		resp := struct {
			Name    string `json:"name"`
			Amount  uint64 `json:"amount"`
			TraceID string `json:"trace_id"`
		}{
			Name:    web.Param(r, "name"),
			Amount:  p.Amount,
			TraceID: v.TraceID,
		}

		return web.Respond(ctx, w, resp, http.StatusOK)
	}, mw("route"))

	app.Handle(http.MethodGet, "v1", "/fatal", func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		return web.NewShutdownError("integrity issue")
	})

	t.Log("Given the need to route requests through middleware.")
	{
		r := httptest.NewRequest(http.MethodPost, "/v1/echo/bill", strings.NewReader(`{"amount":10}`))
		w := httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusOK {
			t.Fatalf("\t%s\tShould receive a 200 status code, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould receive a 200 status code.", success)

		if body := w.Body.String(); !strings.Contains(body, `"name":"bill"`) || !strings.Contains(body, `"amount":10`) {
			t.Fatalf("\t%s\tShould echo the parameter and payload, got %s.", failed, body)
		}
		t.Logf("\t%s\tShould echo the parameter and payload.", success)

		if len(order) != 2 || order[0] != "app" || order[1] != "route" {
			t.Fatalf("\t%s\tShould run the app middleware first, got %v.", failed, order)
		}
		t.Logf("\t%s\tShould run the app middleware first.", success)

		r = httptest.NewRequest(http.MethodPost, "/v1/echo/bill", strings.NewReader(`{"amount":0}`))
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould run the payload validation, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould run the payload validation.", success)

		r = httptest.NewRequest(http.MethodPost, "/v1/echo/bill", strings.NewReader(`{"amount":1,"extra":true}`))
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("\t%s\tShould reject unknown fields, got %d.", failed, w.Code)
		}
		t.Logf("\t%s\tShould reject unknown fields.", success)

		r = httptest.NewRequest(http.MethodGet, "/v1/fatal", nil)
		w = httptest.NewRecorder()
		app.ServeHTTP(w, r)

		select {
		case <-shutdown:
			t.Logf("\t%s\tShould signal a shutdown on an integrity issue.", success)
		default:
			t.Fatalf("\t%s\tShould signal a shutdown on an integrity issue.", failed)
		}
	}
}
