package enum

import "database/sql/driver"

// CartStatus is the lifecycle state of a cart
type CartStatus int

const (
	CartStatusActive    CartStatus = 0
	CartStatusCompleted CartStatus = 1
	CartStatusCancelled CartStatus = 2
	CartStatusExpired   CartStatus = 3
)

var cartStatusNames = names{"Active", "Completed", "Cancelled", "Expired"}

func (s CartStatus) String() string {
	return cartStatusNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s CartStatus) IsValid() bool {
	return cartStatusNames.valid(int(s))
}

func ParseCartStatus(str string) CartStatus {
	return CartStatus(cartStatusNames.lookup(str))
}

func (s CartStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *CartStatus) UnmarshalJSON(data []byte) error {
	i, err := cartStatusNames.parse(data)
	if err != nil {
		return err
	}
	*s = CartStatus(i)
	return nil
}

func (s CartStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *CartStatus) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = CartStatus(i)
	return nil
}
