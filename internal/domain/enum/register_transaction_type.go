package enum

import "database/sql/driver"

// RegisterTransactionType labels cash register journal entries
type RegisterTransactionType int

const (
	RegisterTransactionTypeOpening RegisterTransactionType = 0
	RegisterTransactionTypeClosing RegisterTransactionType = 1
)

var registerTransactionTypeNames = names{"Opening", "Closing"}

func (s RegisterTransactionType) String() string {
	return registerTransactionTypeNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s RegisterTransactionType) IsValid() bool {
	return registerTransactionTypeNames.valid(int(s))
}

func ParseRegisterTransactionType(str string) RegisterTransactionType {
	return RegisterTransactionType(registerTransactionTypeNames.lookup(str))
}

func (s RegisterTransactionType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *RegisterTransactionType) UnmarshalJSON(data []byte) error {
	i, err := registerTransactionTypeNames.parse(data)
	if err != nil {
		return err
	}
	*s = RegisterTransactionType(i)
	return nil
}

func (s RegisterTransactionType) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *RegisterTransactionType) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = RegisterTransactionType(i)
	return nil
}
