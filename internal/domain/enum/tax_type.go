package enum

import "database/sql/driver"

// TaxType says whether a product price already contains VAT.
type TaxType int

const (
	TaxTypeInclusive TaxType = 0
	TaxTypeExclusive TaxType = 1
)

var taxTypeNames = names{"Inclusive", "Exclusive"}

func (t TaxType) String() string {
	return taxTypeNames.name(int(t))
}

func (t TaxType) IsValid() bool {
	return taxTypeNames.valid(int(t))
}

func (t TaxType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

func (t *TaxType) UnmarshalJSON(data []byte) error {
	i, err := taxTypeNames.parse(data)
	if err != nil {
		return err
	}
	*t = TaxType(i)
	return nil
}

func (t TaxType) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TaxType) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*t = TaxType(i)
	return nil
}
