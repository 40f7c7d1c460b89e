package fiscal

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptPayload(t *testing.T) {
	var b Buckets
	require.NoError(t, b.Add(decimal.NewFromInt(20), decimal.RequireFromString("12.00")))
	require.NoError(t, b.Add(decimal.NewFromInt(10), decimal.RequireFromString("4.50")))
	assert.Error(t, b.Add(decimal.NewFromInt(7), decimal.NewFromInt(1)))

	r := Receipt{
		RegisterID:    "1",
		ReceiptNumber: "INV-1",
		Timestamp:     time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC),
		Buckets:       b,
		Counter:       7,
		DeviceSerial:  "SIM-1",
	}
	got := r.Payload()
	want := "_R1-AT1_1_INV-1_2024-05-01T12:30:00_12,00_4,50_0,00_0,00_0,00_7_SIM-1_" + ChainValue("", "1")
	assert.Equal(t, want, got)
}

func TestChainValueDependsOnPredecessor(t *testing.T) {
	first := ChainValue("", "REG-1")
	assert.Equal(t, first, ChainValue("", "REG-1"))
	assert.NotEqual(t, first, ChainValue("prev.sig.value", "REG-1"))
	assert.Len(t, first, 12)
}

func TestSimulatedHandshakeAndSignature(t *testing.T) {
	ctx := context.Background()
	drv := NewSimulatedDriver(0, SimulatedVendorID, SimulatedProductID)

	dev, err := drv.Open(ctx, "SIM-1")
	require.NoError(t, err)
	assert.Equal(t, "SIM-1", dev.Serial())

	jws, err := SignPayload(ctx, dev, "_R1-AT1_payload")
	require.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(jws, ".")))

	payload, err := Verify(jws, dev.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "_R1-AT1_payload", payload)

	again, err := drv.Open(ctx, "SIM-1")
	require.NoError(t, err)
	assert.True(t, dev.PublicKey().Equal(again.PublicKey()))

	require.NoError(t, dev.Close())
	_, err = SignPayload(ctx, dev, "x")
	assert.ErrorIs(t, err, ErrDeviceClosed)
}

func TestSimulatedHandshakeRejectsUnknownHardware(t *testing.T) {
	drv := NewSimulatedDriver(0, "0xdead", SimulatedProductID)
	_, err := drv.Open(context.Background(), "SIM-1")
	assert.ErrorIs(t, err, ErrHandshakeFailed)
}

func TestSimulatedHandshakeHonoursTimeout(t *testing.T) {
	drv := NewSimulatedDriver(time.Second, SimulatedVendorID, SimulatedProductID)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := drv.Open(ctx, "SIM-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestUSBDriverFindsDeviceInSysfs(t *testing.T) {
	root := t.TempDir()
	dev := filepath.Join(root, "1-1")
	require.NoError(t, os.MkdirAll(dev, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "idVendor"), []byte("1a86\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "idProduct"), []byte("7523\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dev, "serial"), []byte("TSE-42\n"), 0o644))

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	der, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)
	keyFile := filepath.Join(root, "tse.pem")
	require.NoError(t, os.WriteFile(keyFile, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}), 0o600))

	drv := NewUSBDriver(root, "0x1A86", "0x7523", keyFile)
	opened, err := drv.Open(context.Background(), "TSE-42")
	require.NoError(t, err)

	jws, err := SignPayload(context.Background(), opened, "payload")
	require.NoError(t, err)
	_, err = Verify(jws, &key.PublicKey)
	assert.NoError(t, err)

	_, err = drv.Open(context.Background(), "OTHER")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	require.NoError(t, os.RemoveAll(dev))
	_, err = SignPayload(context.Background(), opened, "payload")
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestNewDriver(t *testing.T) {
	d, err := NewDriver("simulated", "", SimulatedVendorID, SimulatedProductID, "", 0)
	require.NoError(t, err)
	assert.Equal(t, "simulated", d.Name())

	_, err = NewDriver("serial", "", "", "", "", 0)
	assert.Error(t, err)
}
