package fiscal

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// USBDriver finds the signature unit by vendor id, product id and serial in
// the sysfs USB tree. The signing key is read from a PEM file exported for the
// unit.
type USBDriver struct {
	SysfsRoot string
	VendorID  string
	ProductID string
	KeyFile   string
}

func NewUSBDriver(sysfsRoot, vendorID, productID, keyFile string) *USBDriver {
	return &USBDriver{SysfsRoot: sysfsRoot, VendorID: vendorID, ProductID: productID, KeyFile: keyFile}
}

func (d *USBDriver) Name() string { return "usb" }

func (d *USBDriver) Open(ctx context.Context, serial string) (Device, error) {
	path, err := d.find(ctx, serial)
	if err != nil {
		return nil, err
	}
	key, err := loadKey(d.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHandshakeFailed, err)
	}
	return &usbDevice{serial: serial, path: path, signer: keySigner{key: key}}, nil
}

func (d *USBDriver) find(ctx context.Context, serial string) (string, error) {
	entries, err := os.ReadDir(d.SysfsRoot)
	if err != nil {
		return "", fmt.Errorf("scan usb devices: %w", err)
	}
	vendor := normalizeID(d.VendorID)
	product := normalizeID(d.ProductID)

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		dir := filepath.Join(d.SysfsRoot, e.Name())
		if readAttr(dir, "idVendor") != vendor || readAttr(dir, "idProduct") != product {
			continue
		}
		if serial != "" && readAttr(dir, "serial") != serial {
			continue
		}
		return dir, nil
	}
	return "", fmt.Errorf("%w: %s (%s:%s)", ErrDeviceNotFound, serial, vendor, product)
}

func readAttr(dir, name string) string {
	b, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func normalizeID(id string) string {
	return strings.TrimPrefix(strings.ToLower(id), "0x")
}

func loadKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return nil, errors.New("no key file configured")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("key file is not PEM")
	}
	if key, err := x509.ParseECPrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse key: %w", err)
	}
	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("key is not ECDSA")
	}
	return key, nil
}

type usbDevice struct {
	serial string
	path   string
	signer keySigner

	mu     sync.Mutex
	closed bool
}

func (u *usbDevice) Serial() string { return u.serial }

// Sign fails once the unit has been unplugged.
func (u *usbDevice) Sign(ctx context.Context, signingInput string) ([]byte, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.closed {
		return nil, ErrDeviceClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(u.path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	return u.signer.sign(signingInput)
}

func (u *usbDevice) PublicKey() *ecdsa.PublicKey { return &u.signer.key.PublicKey }

func (u *usbDevice) CertificateStatus() string { return CertificateValid }

func (u *usbDevice) MemoryStatus() string {
	if _, err := os.Stat(u.path); err != nil {
		return "unavailable"
	}
	return MemoryOK
}

func (u *usbDevice) Close() error {
	u.mu.Lock()
	u.closed = true
	u.mu.Unlock()
	return nil
}
