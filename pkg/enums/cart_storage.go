package enums

import "fmt"

// CartStorage selects where session carts are kept between requests.
type CartStorage string

const (
	CartStorageMemory CartStorage = "memory"
	CartStorageRedis  CartStorage = "redis"
	CartStorageDB     CartStorage = "db"
)

var validCartStorages = []CartStorage{
	CartStorageMemory,
	CartStorageRedis,
	CartStorageDB,
}

// String implements fmt.Stringer.
func (c CartStorage) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartStorage.
func (c CartStorage) IsValid() bool {
	for _, candidate := range validCartStorages {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartStorage converts raw input into a CartStorage.
func ParseCartStorage(value string) (CartStorage, error) {
	for _, candidate := range validCartStorages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart storage %q", value)
}
