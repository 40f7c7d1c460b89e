package enum

import "database/sql/driver"

// InvoiceStatus is the settlement state of an invoice
type InvoiceStatus int

const (
	InvoiceStatusDraft         InvoiceStatus = 0
	InvoiceStatusSent          InvoiceStatus = 1
	InvoiceStatusPartiallyPaid InvoiceStatus = 2
	InvoiceStatusPaid          InvoiceStatus = 3
	InvoiceStatusCreditNote    InvoiceStatus = 4
)

var invoiceStatusNames = names{"Draft", "Sent", "PartiallyPaid", "Paid", "CreditNote"}

func (s InvoiceStatus) String() string {
	return invoiceStatusNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s InvoiceStatus) IsValid() bool {
	return invoiceStatusNames.valid(int(s))
}

func ParseInvoiceStatus(str string) InvoiceStatus {
	return InvoiceStatus(invoiceStatusNames.lookup(str))
}

func (s InvoiceStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *InvoiceStatus) UnmarshalJSON(data []byte) error {
	i, err := invoiceStatusNames.parse(data)
	if err != nil {
		return err
	}
	*s = InvoiceStatus(i)
	return nil
}

func (s InvoiceStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *InvoiceStatus) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = InvoiceStatus(i)
	return nil
}
