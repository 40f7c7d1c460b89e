package enum

import "database/sql/driver"

// PaymentMethod is how a payment was tendered
type PaymentMethod int

const (
	PaymentMethodCash    PaymentMethod = 0
	PaymentMethodCard    PaymentMethod = 1
	PaymentMethodVoucher PaymentMethod = 2
)

var paymentMethodNames = names{"Cash", "Card", "Voucher"}

func (s PaymentMethod) String() string {
	return paymentMethodNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s PaymentMethod) IsValid() bool {
	return paymentMethodNames.valid(int(s))
}

func ParsePaymentMethod(str string) PaymentMethod {
	return PaymentMethod(paymentMethodNames.lookup(str))
}

func (s PaymentMethod) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *PaymentMethod) UnmarshalJSON(data []byte) error {
	i, err := paymentMethodNames.parse(data)
	if err != nil {
		return err
	}
	*s = PaymentMethod(i)
	return nil
}

func (s PaymentMethod) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *PaymentMethod) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = PaymentMethod(i)
	return nil
}
