package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/infrastructure/cache"
	"github.com/sangkips/kassa-api/internal/infrastructure/finanzonline"
	"github.com/sangkips/kassa-api/internal/infrastructure/queue"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/retry"
)

const finanzOnlineStatusKey = "finanzonline:status"

// FinanzOnlineService reports signed invoices to the tax office. Every
// attempt is written to the audit trail before the caller gets an answer.
type FinanzOnlineService struct {
	repo      repository.FinanzOnlineRepository
	invoices  repository.InvoiceRepository
	devices   repository.TseDeviceRepository
	client    finanzonline.Client
	publisher queue.Publisher
	cache     cache.StatusCache
	policy    retry.Policy
	endpoint  string
	statusTTL time.Duration
	logger    *slog.Logger

	// serializes submissions so an invoice is reported at most once
	mu sync.Mutex
}

// FinanzOnlineOptions holds the transport defaults.
type FinanzOnlineOptions struct {
	Endpoint  string
	Retry     retry.Policy
	StatusTTL time.Duration
}

// NewFinanzOnlineService creates a new FinanzOnline service
func NewFinanzOnlineService(
	repo repository.FinanzOnlineRepository,
	invoices repository.InvoiceRepository,
	devices repository.TseDeviceRepository,
	client finanzonline.Client,
	publisher queue.Publisher,
	statusCache cache.StatusCache,
	opts FinanzOnlineOptions,
	logger *slog.Logger,
) *FinanzOnlineService {
	if statusCache == nil {
		statusCache = cache.NoopStatusCache{}
	}
	return &FinanzOnlineService{
		repo:      repo,
		invoices:  invoices,
		devices:   devices,
		client:    client,
		publisher: publisher,
		cache:     statusCache,
		policy:    opts.Retry,
		endpoint:  opts.Endpoint,
		statusTTL: opts.StatusTTL,
		logger:    logger,
	}
}

// GetConfig returns the saved configuration, or an empty disabled one.
func (s *FinanzOnlineService) GetConfig(ctx context.Context) (*entity.FinanzOnlineConfig, error) {
	cfg, err := s.repo.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &entity.FinanzOnlineConfig{EndpointURL: s.endpoint}
	}
	return cfg, nil
}

// UpdateConfigInput represents the FinanzOnline settings form
type UpdateConfigInput struct {
	ParticipantID string
	UserID        string
	// PIN keeps the stored value when empty.
	PIN         string
	EndpointURL string
	Enabled     bool
	AutoSubmit  bool
}

func (s *FinanzOnlineService) UpdateConfig(ctx context.Context, input *UpdateConfigInput) (*entity.FinanzOnlineConfig, error) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	cfg.ParticipantID = strings.TrimSpace(input.ParticipantID)
	cfg.UserID = strings.TrimSpace(input.UserID)
	if input.PIN != "" {
		cfg.PIN = input.PIN
	}
	if input.EndpointURL != "" {
		cfg.EndpointURL = strings.TrimSpace(input.EndpointURL)
	}
	cfg.Enabled = input.Enabled
	cfg.AutoSubmit = input.AutoSubmit

	if cfg.Enabled && !cfg.HasCredentials() {
		return nil, apperror.NewValidationError(
			apperror.FieldError{Field: "participant_id", Message: "Participant id, user id and PIN are required when enabled"},
		)
	}

	if err := s.repo.SaveConfig(ctx, cfg); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return cfg, nil
}

// FinanzOnlineStatus summarises configuration, device and audit trail.
type FinanzOnlineStatus struct {
	Enabled         bool                        `json:"enabled"`
	AutoSubmit      bool                        `json:"auto_submit"`
	Transport       string                      `json:"transport"`
	DeviceSerial    string                      `json:"device_serial,omitempty"`
	DeviceReady     bool                        `json:"device_ready"`
	PendingInvoices int                         `json:"pending_invoices"`
	Stats           *repository.SubmissionStats `json:"stats"`
}

func (s *FinanzOnlineService) Status(ctx context.Context) (*FinanzOnlineStatus, error) {
	var cached FinanzOnlineStatus
	if ok, err := s.cache.Get(ctx, finanzOnlineStatusKey, &cached); err == nil && ok {
		return &cached, nil
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.SubmissionStats(ctx)
	if err != nil {
		return nil, err
	}
	device, err := s.devices.GetConnected(ctx)
	if err != nil {
		return nil, err
	}

	status := &FinanzOnlineStatus{
		Enabled:    cfg.Enabled,
		AutoSubmit: cfg.AutoSubmit,
		Transport:  s.client.Name(),
		Stats:      stats,
	}
	if device != nil {
		status.DeviceSerial = device.SerialNumber
		status.DeviceReady = device.FinanzOnlineEnabled
		status.PendingInvoices = device.PendingInvoices
	}

	if err := s.cache.Set(ctx, finanzOnlineStatusKey, status, s.statusTTL); err != nil {
		s.logger.Warn("Failed to cache FinanzOnline status", "error", err)
	}
	return status, nil
}

// History lists the audit rows of an invoice, oldest first.
func (s *FinanzOnlineService) History(ctx context.Context, invoiceID uuid.UUID) ([]entity.FinanzOnlineSubmission, error) {
	return s.repo.ListSubmissions(ctx, invoiceID)
}

// SubmitInput names the invoice to report.
type SubmitInput struct {
	InvoiceID   uuid.UUID
	RequestedBy *uuid.UUID
}

// SubmitInvoice reports one signed invoice through the connected,
// FinanzOnline-enabled device. It returns the last audit row written.
// An invoice that was already accepted is a Conflict.
func (s *FinanzOnlineService) SubmitInvoice(ctx context.Context, input *SubmitInput) (*entity.FinanzOnlineSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	invoice, err := s.invoices.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}
	reported, err := s.repo.HasSuccessfulSubmission(ctx, invoice.ID)
	if err != nil {
		return nil, err
	}
	if reported {
		return nil, apperror.NewConflictError("Invoice was already reported to FinanzOnline")
	}

	audit := func(row *entity.FinanzOnlineSubmission) error {
		row.InvoiceID = &invoice.ID
		row.InvoiceNumber = invoice.InvoiceNumber
		row.SubmittedBy = input.RequestedBy
		row.SubmittedAt = time.Now()
		if row.Attempt == 0 {
			row.Attempt = 1
		}
		return s.repo.CreateSubmission(ctx, row)
	}
	reject := func(deviceSerial, msg string) (*entity.FinanzOnlineSubmission, error) {
		row := &entity.FinanzOnlineSubmission{DeviceSerial: deviceSerial, ErrorMessage: msg}
		if err := audit(row); err != nil {
			return nil, err
		}
		s.invalidate(ctx)
		return row, apperror.NewBadRequestError(msg)
	}

	device, err := s.devices.GetConnected(ctx)
	if err != nil {
		return nil, err
	}
	if device == nil || !device.FinanzOnlineEnabled {
		return reject("", "No connected FinanzOnline-enabled TSE device")
	}

	cfg, err := s.GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.Enabled || !cfg.HasCredentials() {
		return reject(device.SerialNumber, "FinanzOnline is not configured")
	}
	if !invoice.IsSigned() {
		return reject(device.SerialNumber, "Invoice is not signed")
	}

	endpoint := cfg.EndpointURL
	if endpoint == "" {
		endpoint = s.endpoint
	}
	req := finanzonline.Request{
		Credentials: finanzonline.Credentials{
			ParticipantID: cfg.ParticipantID,
			UserID:        cfg.UserID,
			PIN:           cfg.PIN,
		},
		InvoiceNumber: invoice.InvoiceNumber,
		DocumentType:  invoice.DocumentType.String(),
		TotalAmount:   invoice.TotalAmount,
		TaxAmount:     invoice.TaxAmount,
		DeviceSerial:  invoice.TseDeviceSerial,
		Signature:     invoice.TseSignature,
		SignedAt:      invoice.TseTimestamp,
	}
	masked := req
	masked.Credentials.PIN = "****"
	requestPayload, _ := json.Marshal(masked)

	var (
		last     *entity.FinanzOnlineSubmission
		auditErr error
	)
	err = retry.Do(ctx, s.policy, func(ctx context.Context, attempt int) error {
		resp, err := s.client.Submit(ctx, endpoint, req)

		row := &entity.FinanzOnlineSubmission{
			DeviceSerial:   device.SerialNumber,
			Attempt:        attempt,
			RequestPayload: string(requestPayload),
			Success:        err == nil,
		}
		if resp != nil {
			raw, _ := json.Marshal(resp)
			row.ResponsePayload = string(raw)
		}
		if err != nil {
			row.ErrorMessage = err.Error()
		}
		if auditErr = audit(row); auditErr != nil {
			return retry.Permanent(auditErr)
		}
		last = row

		if err != nil {
			s.logger.Warn("FinanzOnline submission failed",
				"invoice_id", invoice.ID, "attempt", attempt, "error", err)
			if errors.Is(err, finanzonline.ErrRejected) {
				return retry.Permanent(err)
			}
		}
		return err
	})
	s.invalidate(ctx)

	switch {
	case auditErr != nil:
		return nil, auditErr
	case errors.Is(err, finanzonline.ErrRejected):
		return last, apperror.NewBadRequestError("FinanzOnline rejected the submission")
	case err != nil:
		return last, apperror.NewUnavailableError("FinanzOnline is unavailable", err)
	}

	if err := s.devices.AddPendingInvoices(ctx, device.ID, -1); err != nil {
		return nil, err
	}
	s.logger.Info("Invoice reported to FinanzOnline",
		"invoice_id", invoice.ID, "invoice_number", invoice.InvoiceNumber, "attempts", last.Attempt)
	return last, nil
}

// ScheduleAutoSubmit enqueues the invoice when automatic submission is on.
// Queue failures are logged; the invoice can still be submitted by hand.
func (s *FinanzOnlineService) ScheduleAutoSubmit(ctx context.Context, invoiceID uuid.UUID, requestedBy *uuid.UUID) {
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		s.logger.Warn("Failed to load FinanzOnline config", "error", err)
		return
	}
	if !cfg.Enabled || !cfg.AutoSubmit {
		return
	}
	msg := queue.SubmissionMessage{InvoiceID: invoiceID, RequestedBy: requestedBy, EnqueuedAt: time.Now()}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("Failed to enqueue FinanzOnline submission", "invoice_id", invoiceID, "error", err)
	}
}

// HandleMessage is the queue handler. Business rejections are final and
// already audited, so only internal failures are returned to the queue.
func (s *FinanzOnlineService) HandleMessage(ctx context.Context, msg queue.SubmissionMessage) error {
	_, err := s.SubmitInvoice(ctx, &SubmitInput{InvoiceID: msg.InvoiceID, RequestedBy: msg.RequestedBy})
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) && apperror.KindOf(err) != apperror.KindInternal {
		s.logger.Warn("Queued FinanzOnline submission not accepted", "invoice_id", msg.InvoiceID, "error", err)
		return nil
	}
	return err
}

func (s *FinanzOnlineService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, finanzOnlineStatusKey); err != nil {
		s.logger.Warn("Failed to invalidate status cache", "error", err)
	}
}
