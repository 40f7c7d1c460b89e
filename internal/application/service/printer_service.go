package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/sangkips/kassa-api/internal/domain/entity"
	"github.com/sangkips/kassa-api/internal/domain/repository"
	"github.com/sangkips/kassa-api/pkg/apperror"
	"github.com/sangkips/kassa-api/pkg/printer"
)

// PrinterService handles receipt formatting and thermal printing.
type PrinterService struct {
	printer     printer.Printer
	invoiceRepo repository.InvoiceRepository
	printerType string
	width       int
	logger      *slog.Logger
}

// NewPrinterService creates a new printer service.
func NewPrinterService(
	p printer.Printer,
	invoiceRepo repository.InvoiceRepository,
	printerType string,
	width int,
	logger *slog.Logger,
) *PrinterService {
	return &PrinterService{
		printer:     p,
		invoiceRepo: invoiceRepo,
		printerType: printerType,
		width:       width,
		logger:      logger,
	}
}

// PrinterStatus returns the current printer status information.
type PrinterStatus struct {
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
	Type       string `json:"type"`
}

// GetStatus returns printer connection status.
func (s *PrinterService) GetStatus() *PrinterStatus {
	return &PrinterStatus{
		Configured: s.printerType != "none" && s.printerType != "",
		Connected:  s.printer.IsConnected(),
		Type:       s.printerType,
	}
}

// TestPrint sends a test page to the printer.
// Returns the receipt data so the handler can return it as JSON when printer is disabled.
func (s *PrinterService) TestPrint(ctx context.Context) (*entity.Receipt, error) {
	receipt := &entity.Receipt{
		Header:        entity.ReceiptHeader{StoreName: "DRUCKTEST"},
		DocumentTitle: "Testbeleg",
		InvoiceNo:     "TEST-001",
		Items: []entity.ReceiptItem{
			{Name: "Testartikel 1", Quantity: 1, UnitPrice: "10,00", TaxRate: "20%", Total: "10,00"},
			{Name: "Testartikel 2", Quantity: 2, UnitPrice: "5,00", TaxRate: "10%", Total: "10,00"},
		},
		Total: "20,00",
	}

	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		return receipt, apperror.NewUnavailableError("Test print failed", err)
	}
	return receipt, nil
}

// PrintInvoice prints the receipt of an invoice or credit note, signature
// block included.
func (s *PrinterService) PrintInvoice(ctx context.Context, invoiceID uuid.UUID) (*entity.Receipt, error) {
	invoice, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, apperror.NewNotFoundError("Invoice")
	}

	receipt := invoice.Receipt()
	if err := s.printer.Print(ctx, FormatReceipt(receipt, s.width)); err != nil {
		s.logger.Warn("Printer error", "invoice_id", invoiceID, "error", err)
		return receipt, apperror.NewUnavailableError("Failed to print receipt", err)
	}
	return receipt, nil
}

// FormatReceipt converts a Receipt into ESC/POS bytes.
func FormatReceipt(r *entity.Receipt, width int) []byte {
	doc := printer.NewDocument(width)

	// Header
	doc.SetAlign(printer.AlignCenter).
		SetBold(true).
		SetFontSize(printer.FontDouble).
		Text(r.Header.StoreName).
		SetFontSize(printer.FontNormal).
		SetBold(false)

	if r.Header.Address != "" {
		doc.Wrapped(r.Header.Address)
	}
	if r.Header.TaxID != "" {
		doc.TextF("UID: %s", r.Header.TaxID)
	}
	if r.DocumentTitle != "" {
		doc.LineFeed().SetBold(true).Text(r.DocumentTitle).SetBold(false)
	}

	doc.SetAlign(printer.AlignLeft).
		Separator('-')

	doc.KeyValue("Beleg-Nr:", r.InvoiceNo)
	if r.Date != "" {
		doc.KeyValue("Datum:", r.Date)
	}
	if r.Customer != "" {
		doc.KeyValue("Kunde:", r.Customer)
	}
	if r.Reference != "" {
		doc.KeyValue("Grund:", r.Reference)
	}

	doc.Separator('-')

	// Items
	for _, item := range r.Items {
		doc.ItemLine(item.Quantity, item.Name, item.Total)
		if item.Quantity > 1 || item.Quantity < -1 {
			doc.TextF("  à %s  %s", item.UnitPrice, item.TaxRate)
		}
	}

	doc.Separator('-')

	for _, t := range r.Taxes {
		doc.KeyValue(fmt.Sprintf("MwSt %s von %s", t.Rate, t.Net), t.Tax)
	}
	doc.SetBold(true).
		KeyValue("SUMME EUR:", r.Total).
		SetBold(false)
	if r.Paid != "" && r.Paid != "0,00" {
		doc.KeyValue("Bezahlt:", r.Paid)
	}
	if r.Remaining != "" && r.Remaining != "0,00" {
		doc.KeyValue("Offen:", r.Remaining)
	}

	// Signature block
	if r.Signature != "" {
		doc.Separator('-').
			KeyValue("TSE:", r.DeviceSerial).
			KeyValue("Signaturzähler:", r.SignatureCounter).
			KeyValue("Signiert:", r.SignedAt).
			SetAlign(printer.AlignCenter).
			QRCode(r.Signature, 4).
			SetAlign(printer.AlignLeft)
	} else {
		doc.Separator('-').
			SetAlign(printer.AlignCenter).
			Text("Sicherheitseinrichtung ausgefallen").
			SetAlign(printer.AlignLeft)
	}

	// Footer
	doc.SetAlign(printer.AlignCenter).
		LineFeed().
		Text("Vielen Dank für Ihren Besuch!").
		LineFeed().
		SetAlign(printer.AlignLeft)

	doc.FeedLines(3).
		PartialCut()

	return doc.Bytes()
}
