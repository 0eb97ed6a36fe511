package canvas

import (
	"errors"
	"fmt"

	"roci.dev/fracdex"
)

var ErrInvalidKey = errors.New("invalid order key")

// KeyBetween returns an order key strictly between a and b. An empty a
// means before every sibling, an empty b after every sibling.
func KeyBetween(a, b string) (string, error) {
	key, err := fracdex.KeyBetween(a, b)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

func keysBetween(a, b string, n int) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	keys, err := fracdex.NKeysBetween(a, b, uint(n))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return keys, nil
}

// validateKey accepts exactly the keys KeyBetween can place a sibling above.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if _, err := fracdex.KeyBetween(key, ""); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidKey, key, err)
	}
	return nil
}
