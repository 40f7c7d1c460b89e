package utils

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// NumberGenerator hands out human-readable, time-ordered document numbers.
// Each API instance needs its own node id.
type NumberGenerator struct {
	node *snowflake.Node
}

func NewNumberGenerator(nodeID int64) (*NumberGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("snowflake node %d: %w", nodeID, err)
	}
	return &NumberGenerator{node: node}, nil
}

// Next returns prefix-XXXXXXXXXXXX, e.g. INV-1J4Z8K2M0Q.
func (g *NumberGenerator) Next(prefix string) string {
	return prefix + "-" + strings.ToUpper(g.node.Generate().Base36())
}

// InvoiceNumber generates a unique invoice number
func (g *NumberGenerator) InvoiceNumber() string {
	return g.Next("INV")
}

// CreditNoteNumber generates a unique credit note number
func (g *NumberGenerator) CreditNoteNumber() string {
	return g.Next("CN")
}

// ProductCode generates a unique product code
func (g *NumberGenerator) ProductCode() string {
	return g.Next("PROD")
}

// TransactionReference generates a register transaction reference
func (g *NumberGenerator) TransactionReference() string {
	return g.Next("KT")
}
