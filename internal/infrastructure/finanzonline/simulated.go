package finanzonline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SimulatedClient accepts every complete, signed request.
type SimulatedClient struct {
	Latency time.Duration
}

func (c *SimulatedClient) Name() string { return "simulated" }

func (c *SimulatedClient) Submit(ctx context.Context, _ string, req Request) (*Response, error) {
	if c.Latency > 0 {
		t := time.NewTimer(c.Latency)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
	}

	switch {
	case req.Credentials.ParticipantID == "" || req.Credentials.UserID == "":
		return nil, fmt.Errorf("%w: missing FinanzOnline credentials", ErrRejected)
	case req.Signature == "":
		return nil, fmt.Errorf("%w: invoice %s is not signed", ErrRejected, req.InvoiceNumber)
	}

	return &Response{
		Accepted:  true,
		Reference: "FON-" + uuid.NewString()[:8],
		Message:   "accepted",
	}, nil
}
