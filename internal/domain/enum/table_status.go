package enum

import "database/sql/driver"

// TableStatus is the occupancy of a restaurant table
type TableStatus int

const (
	TableStatusFree     TableStatus = 0
	TableStatusOccupied TableStatus = 1
)

var tableStatusNames = names{"Free", "Occupied"}

func (s TableStatus) String() string {
	return tableStatusNames.name(int(s))
}

// IsValid reports whether s is one of the declared values.
func (s TableStatus) IsValid() bool {
	return tableStatusNames.valid(int(s))
}

func ParseTableStatus(str string) TableStatus {
	return TableStatus(tableStatusNames.lookup(str))
}

func (s TableStatus) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *TableStatus) UnmarshalJSON(data []byte) error {
	i, err := tableStatusNames.parse(data)
	if err != nil {
		return err
	}
	*s = TableStatus(i)
	return nil
}

func (s TableStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *TableStatus) Scan(value interface{}) error {
	i, err := scanInt(value)
	if err != nil {
		return err
	}
	*s = TableStatus(i)
	return nil
}
