// Package fiscal talks to the signature creation unit (TSE) that seals every
// receipt. Drivers hide whether the unit is real USB hardware or simulated.
package fiscal

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"time"
)

var (
	ErrDeviceNotFound  = errors.New("fiscal device not present")
	ErrHandshakeFailed = errors.New("fiscal device handshake failed")
	ErrDeviceClosed    = errors.New("fiscal device closed")
)

const (
	CertificateValid = "valid"
	MemoryOK         = "ok"
)

// Device is an open session with one signature unit.
type Device interface {
	Serial() string
	// Sign returns the raw ES256 signature over the JWS signing input.
	Sign(ctx context.Context, signingInput string) ([]byte, error)
	PublicKey() *ecdsa.PublicKey
	CertificateStatus() string
	MemoryStatus() string
	Close() error
}

// Driver performs the handshake and hands out an open Device. Open must give
// up when ctx is done.
type Driver interface {
	Name() string
	Open(ctx context.Context, serial string) (Device, error)
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// NewDriver picks the driver named in configuration.
func NewDriver(name, sysfsRoot, vendorID, productID, keyFile string, latency time.Duration) (Driver, error) {
	switch name {
	case "", "simulated":
		return NewSimulatedDriver(latency, vendorID, productID), nil
	case "usb":
		return NewUSBDriver(sysfsRoot, vendorID, productID, keyFile), nil
	default:
		return nil, fmt.Errorf("unknown TSE driver %q", name)
	}
}
