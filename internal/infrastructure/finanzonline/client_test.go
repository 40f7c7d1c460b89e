package finanzonline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedRequest() Request {
	return Request{
		Credentials:   Credentials{ParticipantID: "P1", UserID: "U1", PIN: "secret"},
		InvoiceNumber: "INV-1",
		Signature:     "a.b.c",
	}
}

func TestSimulatedClient(t *testing.T) {
	c := &SimulatedClient{}

	resp, err := c.Submit(context.Background(), "", signedRequest())
	require.NoError(t, err)
	assert.True(t, resp.Accepted)
	assert.NotEmpty(t, resp.Reference)

	unsigned := signedRequest()
	unsigned.Signature = ""
	_, err = c.Submit(context.Background(), "", unsigned)
	assert.ErrorIs(t, err, ErrRejected)
}

func TestHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		switch req.InvoiceNumber {
		case "INV-1":
			_ = json.NewEncoder(w).Encode(Response{Accepted: true, Reference: "R-1"})
		case "BAD":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"message":"bad"}`))
		default:
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	}))
	defer srv.Close()

	c := NewHTTPClient(time.Second)

	resp, err := c.Submit(context.Background(), srv.URL, signedRequest())
	require.NoError(t, err)
	assert.Equal(t, "R-1", resp.Reference)

	bad := signedRequest()
	bad.InvoiceNumber = "BAD"
	_, err = c.Submit(context.Background(), srv.URL, bad)
	assert.ErrorIs(t, err, ErrRejected)

	down := signedRequest()
	down.InvoiceNumber = "DOWN"
	_, err = c.Submit(context.Background(), srv.URL, down)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrRejected)
}
