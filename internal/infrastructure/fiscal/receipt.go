package fiscal

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Suite identifies the RKSV algorithm suite R1 (ES256, SHA-256) for Austria.
const Suite = "R1-AT1"

// Austrian VAT buckets in payload order.
const (
	BucketNormal = iota
	BucketReduced1
	BucketReduced2
	BucketZero
	BucketSpecial
	bucketCount
)

var bucketRates = [bucketCount]decimal.Decimal{
	BucketNormal:   decimal.NewFromInt(20),
	BucketReduced1: decimal.NewFromInt(10),
	BucketReduced2: decimal.NewFromInt(13),
	BucketZero:     decimal.Zero,
	BucketSpecial:  decimal.NewFromInt(19),
}

// Buckets holds the gross turnover of a receipt per VAT bucket.
type Buckets [bucketCount]decimal.Decimal

// Add books gross under the bucket for rate.
func (b *Buckets) Add(rate, gross decimal.Decimal) error {
	for i, r := range bucketRates {
		if r.Equal(rate) {
			b[i] = b[i].Add(gross)
			return nil
		}
	}
	return fmt.Errorf("no RKSV bucket for tax rate %s%%", rate.String())
}

// Receipt is the data sealed by one signature.
type Receipt struct {
	RegisterID    string
	ReceiptNumber string
	Timestamp     time.Time
	Buckets       Buckets
	Counter       int64
	DeviceSerial  string
	// PreviousSignature is the JWS of the preceding receipt on the same
	// device, empty for the first one.
	PreviousSignature string
}

// Payload renders the machine readable code that gets signed.
func (r Receipt) Payload() string {
	parts := []string{
		"",
		Suite,
		r.RegisterID,
		r.ReceiptNumber,
		r.Timestamp.Format("2006-01-02T15:04:05"),
	}
	for _, amount := range r.Buckets {
		parts = append(parts, strings.Replace(amount.StringFixed(2), ".", ",", 1))
	}
	parts = append(parts,
		strconv.FormatInt(r.Counter, 10),
		r.DeviceSerial,
		ChainValue(r.PreviousSignature, r.RegisterID),
	)
	return strings.Join(parts, "_")
}

// ChainValue links a receipt to its predecessor: base64 of the first 8 bytes
// of SHA-256 over the previous signature, or over the register id when the
// chain starts.
func ChainValue(previous, registerID string) string {
	input := previous
	if input == "" {
		input = registerID
	}
	sum := sha256.Sum256([]byte(input))
	return base64.StdEncoding.EncodeToString(sum[:8])
}
