package enum

import "database/sql/driver"

// RegisterStatus is the state of a cash register
type RegisterStatus int

const (
	RegisterStatusClosed RegisterStatus = 0
	RegisterStatusOpen   RegisterStatus = 1
)

var registerStatusNames = names{"Closed", "Open"}

func (s RegisterStatus) String() string {
	return registerStatusNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s RegisterStatus) IsValid() bool {
	return registerStatusNames.valid(int(s))
}

func ParseRegisterStatus(str string) RegisterStatus {
	return RegisterStatus(registerStatusNames.lookup(str))
}

func (s RegisterStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *RegisterStatus) UnmarshalJSON(data []byte) error {
	i, err := registerStatusNames.parse(data)
	if err != nil {
		return err
	}
	*s = RegisterStatus(i)
	return nil
}

func (s RegisterStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *RegisterStatus) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = RegisterStatus(i)
	return nil
}
