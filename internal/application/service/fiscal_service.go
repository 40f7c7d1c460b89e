package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/internal/infrastructure/cache"
	"github.com/sangkips/kassa-api/internal/infrastructure/fiscal"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/shopspring/decimal"
)

const (
	tseStatusKey = "tse:status"

	// DefaultRegisterID is used in the signed payload when a receipt does not
	// name its register.
	DefaultRegisterID = "1"
)

var errNoDevice = apperror.NewBadRequestError("No TSE device connected")

// FiscalService drives the signature device: connect, sign, disconnect.
// Device I/O never runs inside a database transaction.
type FiscalService struct {
	devices          repository.TseDeviceRepository
	driver           fiscal.Driver
	cache            cache.StatusCache
	handshakeTimeout time.Duration
	signTimeout      time.Duration
	statusTTL        time.Duration
	logger           *slog.Logger

	// mu serializes device operations so the signature chain and counter
	// stay in order.
	mu      sync.Mutex
	handles map[string]fiscal.Device
}

// FiscalOptions tunes the device timeouts.
type FiscalOptions struct {
	HandshakeTimeout time.Duration
	SignTimeout      time.Duration
	StatusTTL        time.Duration
}

// NewFiscalService creates a new fiscal service
func NewFiscalService(
	devices repository.TseDeviceRepository,
	driver fiscal.Driver,
	statusCache cache.StatusCache,
	opts FiscalOptions,
	logger *slog.Logger,
) *FiscalService {
	if statusCache == nil {
		statusCache = cache.NoopStatusCache{}
	}
	return &FiscalService{
		devices:          devices,
		driver:           driver,
		cache:            statusCache,
		handshakeTimeout: opts.HandshakeTimeout,
		signTimeout:      opts.SignTimeout,
		statusTTL:        opts.StatusTTL,
		logger:           logger,
		handles:          make(map[string]fiscal.Device),
	}
}

// Reset marks every device disconnected. Device sessions do not survive a
// restart, so this runs once at startup.
func (s *FiscalService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for serial, h := range s.handles {
		_ = h.Close()
		delete(s.handles, serial)
	}
	s.invalidate(ctx)
	return s.devices.DisconnectAll(ctx)
}

// RegisterDeviceInput represents a new device record
type RegisterDeviceInput struct {
	SerialNumber        string
	Description         string
	FinanzOnlineEnabled bool
}

// RegisterDevice stores a device record. It starts disconnected.
func (s *FiscalService) RegisterDevice(ctx context.Context, input *RegisterDeviceInput) (*entity.TseDevice, error) {
	serial := strings.TrimSpace(input.SerialNumber)
	if serial == "" {
		return nil, apperror.NewFieldError("serial_number", "Serial number is required")
	}

	existing, err := s.devices.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperror.NewConflictError("TSE device already registered")
	}

	device := &entity.TseDevice{
		SerialNumber:        serial,
		Description:         input.Description,
		FinanzOnlineEnabled: input.FinanzOnlineEnabled,
	}
	if err := s.devices.Create(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

func (s *FiscalService) ListDevices(ctx context.Context) ([]entity.TseDevice, error) {
	return s.devices.List(ctx)
}

// TseStatus is the connection state shown to clients.
type TseStatus struct {
	Connected         bool              `json:"connected"`
	CanCreateInvoices bool              `json:"can_create_invoices"`
	Driver            string            `json:"driver"`
	Device            *entity.TseDevice `json:"device,omitempty"`
}

func (s *FiscalService) Status(ctx context.Context) (*TseStatus, error) {
	var cached TseStatus
	if ok, err := s.cache.Get(ctx, tseStatusKey, &cached); err == nil && ok {
		return &cached, nil
	}

	device, err := s.devices.GetConnected(ctx)
	if err != nil {
		return nil, err
	}
	status := &TseStatus{Driver: s.driver.Name(), Device: device}
	if device != nil {
		status.Connected = true
		status.CanCreateInvoices = device.CanCreateInvoices
	}
	if err := s.cache.Set(ctx, tseStatusKey, status, s.statusTTL); err != nil {
		s.logger.Warn("Failed to cache TSE status", "error", err)
	}
	return status, nil
}

// Connect performs the device handshake. Connecting one device disconnects
// every other one.
func (s *FiscalService) Connect(ctx context.Context, serial string) (*entity.TseDevice, error) {
	device, err := s.devices.GetBySerial(ctx, serial)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, apperror.NewNotFoundError("TSE device")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	hctx, cancel := context.WithTimeout(ctx, s.handshakeTimeout)
	handle, err := s.driver.Open(hctx, serial)
	cancel()
	if err != nil {
		s.logger.Warn("TSE handshake failed", "serial", serial, "error", err)
		device.LastError = err.Error()
		if uerr := s.devices.Update(ctx, device); uerr != nil {
			s.logger.Error("Failed to store TSE error", "serial", serial, "error", uerr)
		}
		if errors.Is(err, fiscal.ErrDeviceNotFound) {
			return nil, apperror.NewBadRequestError("TSE device not attached")
		}
		return nil, apperror.NewUnavailableError("TSE handshake failed", err)
	}

	for other, h := range s.handles {
		if other != serial {
			_ = h.Close()
			delete(s.handles, other)
		}
	}
	if old, ok := s.handles[serial]; ok {
		_ = old.Close()
	}
	s.handles[serial] = handle

	if err := s.devices.DisconnectOthers(ctx, device.ID); err != nil {
		return nil, err
	}
	device.MarkConnected(time.Now(), handle.CertificateStatus(), handle.MemoryStatus())
	if err := s.devices.Update(ctx, device); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("TSE connected", "serial", serial, "driver", s.driver.Name())
	return device, nil
}

// Disconnect closes the connected device. Without a connected device it
// does nothing and returns nil.
func (s *FiscalService) Disconnect(ctx context.Context) (*entity.TseDevice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, err := s.devices.GetConnected(ctx)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, nil
	}
	if h, ok := s.handles[device.SerialNumber]; ok {
		_ = h.Close()
		delete(s.handles, device.SerialNumber)
	}
	device.MarkDisconnected()
	if err := s.devices.Update(ctx, device); err != nil {
		return nil, err
	}
	s.invalidate(ctx)

	s.logger.Info("TSE disconnected", "serial", device.SerialNumber)
	return device, nil
}

// ConnectedDevice returns the connected device record or nil.
func (s *FiscalService) ConnectedDevice(ctx context.Context) (*entity.TseDevice, error) {
	return s.devices.GetConnected(ctx)
}

// SignInput is the receipt data sealed by a signature.
type SignInput struct {
	RegisterID    string
	ReceiptNumber string
	Total         decimal.Decimal
	// Taxes splits the total by VAT rate. Without it the total is booked at
	// the normal rate.
	Taxes []entity.TaxLine
}

// Signature is the result of one signing operation.
type Signature struct {
	Value        string    `json:"signature"`
	Payload      string    `json:"payload"`
	DeviceID     uuid.UUID `json:"-"`
	DeviceSerial string    `json:"device_serial"`
	Counter      int64     `json:"counter"`
	SignedAt     time.Time `json:"signed_at"`
}

// Apply copies the signature onto an invoice.
func (sig *Signature) Apply(inv *entity.Invoice) {
	at := sig.SignedAt
	inv.TseSignature = sig.Value
	inv.TseTimestamp = &at
	inv.TseDeviceSerial = sig.DeviceSerial
	inv.TseSignatureCounter = sig.Counter
}

// Sign seals a receipt on the connected device. It fails with BadRequest
// whenever no device is connected, before looking at the input.
func (s *FiscalService) Sign(ctx context.Context, input *SignInput) (*Signature, error) {
	connected, err := s.devices.GetConnected(ctx)
	if err != nil {
		return nil, err
	}
	if connected == nil {
		return nil, errNoDevice
	}

	if strings.TrimSpace(input.ReceiptNumber) == "" {
		return nil, apperror.NewFieldError("invoice_number", "Receipt number is required")
	}
	var buckets fiscal.Buckets
	if len(input.Taxes) == 0 {
		buckets[fiscal.BucketNormal] = input.Total
	}
	for _, t := range input.Taxes {
		if err := buckets.Add(t.Rate, t.Gross); err != nil {
			return nil, apperror.NewFieldError("tax_details", err.Error())
		}
	}
	registerID := input.RegisterID
	if registerID == "" {
		registerID = DefaultRegisterID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-read under the lock for the current chain head.
	device, err := s.devices.GetBySerial(ctx, connected.SerialNumber)
	if err != nil {
		return nil, err
	}
	if device == nil || !device.IsConnected {
		return nil, errNoDevice
	}
	handle, ok := s.handles[device.SerialNumber]
	if !ok {
		// The record says connected but this process holds no session.
		device.MarkDisconnected()
		_ = s.devices.Update(ctx, device)
		s.invalidate(ctx)
		return nil, errNoDevice
	}

	counter, err := s.devices.NextSignatureCounter(ctx, device.ID)
	if err != nil {
		return nil, err
	}

	receipt := fiscal.Receipt{
		RegisterID:        registerID,
		ReceiptNumber:     input.ReceiptNumber,
		Timestamp:         time.Now().Truncate(time.Second),
		Buckets:           buckets,
		Counter:           counter,
		DeviceSerial:      device.SerialNumber,
		PreviousSignature: device.LastSignature,
	}
	payload := receipt.Payload()

	sctx, cancel := context.WithTimeout(ctx, s.signTimeout)
	value, err := fiscal.SignPayload(sctx, handle, payload)
	cancel()
	if err != nil {
		s.logger.Error("TSE signature failed", "serial", device.SerialNumber, "counter", counter, "error", err)
		return nil, apperror.NewUnavailableError("TSE signature failed", err)
	}

	if err := s.devices.RecordSignature(ctx, device.ID, value, receipt.Timestamp); err != nil {
		return nil, fmt.Errorf("record signature: %w", err)
	}
	s.invalidate(ctx)

	return &Signature{
		Value:        value,
		Payload:      payload,
		DeviceID:     device.ID,
		DeviceSerial: device.SerialNumber,
		Counter:      counter,
		SignedAt:     receipt.Timestamp,
	}, nil
}

func (s *FiscalService) invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, tseStatusKey, finanzOnlineStatusKey); err != nil {
		s.logger.Warn("Failed to invalidate status cache", "error", err)
	}
}
