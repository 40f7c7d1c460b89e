package enum

import "database/sql/driver"

// PaymentStatus is the state of a payment
type PaymentStatus int

const (
	PaymentStatusCompleted PaymentStatus = 0
	PaymentStatusCancelled PaymentStatus = 1
)

var paymentStatusNames = names{"Completed", "Cancelled"}

func (s PaymentStatus) String() string {
	return paymentStatusNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s PaymentStatus) IsValid() bool {
	return paymentStatusNames.valid(int(s))
}

func ParsePaymentStatus(str string) PaymentStatus {
	return PaymentStatus(paymentStatusNames.lookup(str))
}

func (s PaymentStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *PaymentStatus) UnmarshalJSON(data []byte) error {
	i, err := paymentStatusNames.parse(data)
	if err != nil {
		return err
	}
	*s = PaymentStatus(i)
	return nil
}

func (s PaymentStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentStatus) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = PaymentStatus(i)
	return nil
}
