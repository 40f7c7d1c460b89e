package enum

import "database/sql/driver"

// DocumentType distinguishes invoices from credit notes
type DocumentType int

const (
	DocumentTypeInvoice    DocumentType = 0
	DocumentTypeCreditNote DocumentType = 1
)

var documentTypeNames = names{"Invoice", "CreditNote"}

func (s DocumentType) String() string {
	return documentTypeNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s DocumentType) IsValid() bool {
	return documentTypeNames.valid(int(s))
}

func ParseDocumentType(str string) DocumentType {
	return DocumentType(documentTypeNames.lookup(str))
}

func (s DocumentType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *DocumentType) UnmarshalJSON(data []byte) error {
	i, err := documentTypeNames.parse(data)
	if err != nil {
		return err
	}
	*s = DocumentType(i)
	return nil
}

func (s DocumentType) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *DocumentType) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = DocumentType(i)
	return nil
}
