package fiscal

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Identifiers the simulated unit reports during the handshake.
const (
	SimulatedVendorID  = "0x1a86"
	SimulatedProductID = "0x7523"
)

// SimulatedDriver emulates a USB signature unit. The handshake succeeds when
// the configured vendor and product ids match the emulated hardware. Keys are
// generated once per serial and survive reconnects.
type SimulatedDriver struct {
	Latency   time.Duration
	VendorID  string
	ProductID string

	mu   sync.Mutex
	keys map[string]*ecdsa.PrivateKey
}

func NewSimulatedDriver(latency time.Duration, vendorID, productID string) *SimulatedDriver {
	return &SimulatedDriver{
		Latency:   latency,
		VendorID:  vendorID,
		ProductID: productID,
		keys:      make(map[string]*ecdsa.PrivateKey),
	}
}

func (d *SimulatedDriver) Name() string { return "simulated" }

func (d *SimulatedDriver) Open(ctx context.Context, serial string) (Device, error) {
	if err := sleep(ctx, d.Latency); err != nil {
		return nil, err
	}
	if !strings.EqualFold(d.VendorID, SimulatedVendorID) || !strings.EqualFold(d.ProductID, SimulatedProductID) {
		return nil, fmt.Errorf("%w: no unit with id %s:%s", ErrHandshakeFailed, d.VendorID, d.ProductID)
	}

	key, err := d.key(serial)
	if err != nil {
		return nil, err
	}
	return &simulatedDevice{serial: serial, latency: d.Latency, signer: keySigner{key: key}}, nil
}

func (d *SimulatedDriver) key(serial string) (*ecdsa.PrivateKey, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.keys == nil {
		d.keys = make(map[string]*ecdsa.PrivateKey)
	}
	if key, ok := d.keys[serial]; ok {
		return key, nil
	}
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	d.keys[serial] = key
	return key, nil
}

type simulatedDevice struct {
	serial  string
	latency time.Duration
	signer  keySigner

	mu     sync.Mutex
	closed bool
}

func (s *simulatedDevice) Serial() string { return s.serial }

func (s *simulatedDevice) Sign(ctx context.Context, signingInput string) ([]byte, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return nil, ErrDeviceClosed
	}
	if err := sleep(ctx, s.latency); err != nil {
		return nil, err
	}
	return s.signer.sign(signingInput)
}

func (s *simulatedDevice) PublicKey() *ecdsa.PublicKey { return &s.signer.key.PublicKey }

func (s *simulatedDevice) CertificateStatus() string { return CertificateValid }

func (s *simulatedDevice) MemoryStatus() string { return MemoryOK }

func (s *simulatedDevice) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
