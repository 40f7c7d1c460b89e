package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/infrastructure/finanzonline"
	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// signedInvoice creates and finalizes an invoice on the connected device.
func (e *testEnv) signedInvoice(t *testing.T, number string) *entity.Invoice {
	t.Helper()
	inv := e.createInvoice(t, number, "48")
	signed, err := e.invoices.FinalizeInvoice(context.Background(), inv.ID, nil)
	require.NoError(t, err)
	return signed
}

func (e *testEnv) pendingInvoices(t *testing.T) int {
	t.Helper()
	device, err := e.fiscal.ConnectedDevice(context.Background())
	require.NoError(t, err)
	require.NotNil(t, device)
	return device.PendingInvoices
}

func TestFinanzOnlineService_NoDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.configureFinanzOnline(t, false)
	inv := env.createInvoice(t, "INV-700", "10")

	row, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	assertKind(t, apperror.KindBadRequest, err)
	require.NotNil(t, row)
	assert.False(t, row.Success)

	history, err := env.finanz.History(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "No connected FinanzOnline-enabled TSE device", history[0].ErrorMessage)
	assert.Equal(t, "INV-700", history[0].InvoiceNumber)
}

func TestFinanzOnlineService_DeviceWithoutFinanzOnline(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.configureFinanzOnline(t, false)
	_, err := env.fiscal.RegisterDevice(ctx, &RegisterDeviceInput{SerialNumber: "TSE-PLAIN"})
	require.NoError(t, err)
	_, err = env.fiscal.Connect(ctx, "TSE-PLAIN")
	require.NoError(t, err)
	inv := env.createInvoice(t, "INV-701", "10")

	_, err = env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	assertKind(t, apperror.KindBadRequest, err)
}

func TestFinanzOnlineService_NotConfiguredOrUnsigned(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	signed := env.signedInvoice(t, "INV-702")

	_, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: signed.ID})
	assertKind(t, apperror.KindBadRequest, err)

	env.configureFinanzOnline(t, false)
	draft := env.createInvoice(t, "INV-703", "10")
	_, err = env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: draft.ID})
	assertKind(t, apperror.KindBadRequest, err)

	history, err := env.finanz.History(ctx, draft.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Invoice is not signed", history[0].ErrorMessage)

	_, err = env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: uuid.New()})
	assertKind(t, apperror.KindNotFound, err)
}

func TestFinanzOnlineService_Success(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	env.configureFinanzOnline(t, false)
	inv := env.signedInvoice(t, "INV-704")
	require.Equal(t, 1, env.pendingInvoices(t))

	row, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.True(t, row.Success)
	assert.Equal(t, 1, row.Attempt)
	assert.Contains(t, row.ResponsePayload, "FON-")
	assert.Contains(t, row.RequestPayload, "****")
	assert.NotContains(t, row.RequestPayload, "secret")
	assert.Equal(t, 0, env.pendingInvoices(t))

	status, err := env.finanz.Status(ctx)
	require.NoError(t, err)
	assert.True(t, status.Enabled)
	assert.True(t, status.DeviceReady)
	assert.Equal(t, "simulated", status.Transport)
	assert.Equal(t, int64(1), status.Stats.Succeeded)
}

func TestFinanzOnlineService_ReportsInvoiceOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.connectDevice(t)
	env.configureFinanzOnline(t, false)
	first := env.signedInvoice(t, "INV-710")
	env.signedInvoice(t, "INV-711")
	require.Equal(t, 2, env.pendingInvoices(t))

	_, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: first.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, env.pendingInvoices(t))

	_, err = env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: first.ID})
	assertKind(t, apperror.KindConflict, err)
	assert.Equal(t, 1, env.pendingInvoices(t))

	// A late queue delivery for the same invoice is acknowledged and changes nothing.
	assert.NoError(t, env.finanz.HandleMessage(ctx, queue.SubmissionMessage{InvoiceID: first.ID}))
	assert.Equal(t, 1, env.pendingInvoices(t))

	history, err := env.finanz.History(ctx, first.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestFinanzOnlineService_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"accepted":true,"reference":"FON-42"}`))
	}))
	defer srv.Close()

	env := newTestEnvWithClient(t, finanzonline.NewHTTPClient(time.Second))
	ctx := context.Background()
	env.connectDevice(t)
	_, err := env.finanz.UpdateConfig(ctx, &UpdateConfigInput{
		ParticipantID: "TID123", UserID: "USER1", PIN: "secret", EndpointURL: srv.URL, Enabled: true,
	})
	require.NoError(t, err)
	inv := env.signedInvoice(t, "INV-705")

	row, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, row.Attempt)

	history, err := env.finanz.History(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.False(t, history[0].Success)
	assert.False(t, history[1].Success)
	assert.True(t, history[2].Success)
}

func TestFinanzOnlineService_RejectionIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"accepted":false,"message":"invalid signature"}`))
	}))
	defer srv.Close()

	env := newTestEnvWithClient(t, finanzonline.NewHTTPClient(time.Second))
	ctx := context.Background()
	env.connectDevice(t)
	_, err := env.finanz.UpdateConfig(ctx, &UpdateConfigInput{
		ParticipantID: "TID123", UserID: "USER1", PIN: "secret", EndpointURL: srv.URL, Enabled: true,
	})
	require.NoError(t, err)
	inv := env.signedInvoice(t, "INV-706")

	row, err := env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	assertKind(t, apperror.KindBadRequest, err)
	require.NotNil(t, row)
	assert.False(t, row.Success)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, env.pendingInvoices(t))

	// Queue deliveries treat the rejection as handled.
	assert.NoError(t, env.finanz.HandleMessage(ctx, queue.SubmissionMessage{InvoiceID: inv.ID}))
}

func TestFinanzOnlineService_UnavailableAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	env := newTestEnvWithClient(t, finanzonline.NewHTTPClient(time.Second))
	ctx := context.Background()
	env.connectDevice(t)
	_, err := env.finanz.UpdateConfig(ctx, &UpdateConfigInput{
		ParticipantID: "TID123", UserID: "USER1", PIN: "secret", EndpointURL: srv.URL, Enabled: true,
	})
	require.NoError(t, err)
	inv := env.signedInvoice(t, "INV-707")

	_, err = env.finanz.SubmitInvoice(ctx, &SubmitInput{InvoiceID: inv.ID})
	assertKind(t, apperror.KindUnavailable, err)

	history, err := env.finanz.History(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestFinanzOnlineService_UpdateConfig(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cfg, err := env.finanz.GetConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "https://finanzonline.test/rksv", cfg.EndpointURL)

	_, err = env.finanz.UpdateConfig(ctx, &UpdateConfigInput{Enabled: true})
	assertKind(t, apperror.KindValidation, err)

	env.configureFinanzOnline(t, true)
	cfg, err = env.finanz.UpdateConfig(ctx, &UpdateConfigInput{
		ParticipantID: "TID123", UserID: "USER2", Enabled: true, AutoSubmit: false,
	})
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.PIN)
	assert.Equal(t, "USER2", cfg.UserID)
	assert.False(t, cfg.AutoSubmit)
}

func TestFinanzOnlineService_ScheduleAutoSubmit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	id := uuid.New()

	env.finanz.ScheduleAutoSubmit(ctx, id, nil)
	assert.Empty(t, env.published.Messages())

	env.configureFinanzOnline(t, true)
	env.finanz.ScheduleAutoSubmit(ctx, id, nil)
	msgs := env.published.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].InvoiceID)
	assert.False(t, msgs[0].EnqueuedAt.IsZero())
}
