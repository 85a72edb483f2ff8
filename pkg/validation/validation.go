package validation

import (
	"fmt"
	"strings"
	"time"
)

const (
	MinTimeout = 1 * time.Second
	MaxTimeout = 10 * time.Minute
)

func ValidateNonEmptyString(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

// ValidateNpsso checks that an NPSSO value can be sent as a cookie value.
// It does not check that the provider will accept it.
func ValidateNpsso(npsso string) error {
	if err := ValidateNonEmptyString("NPSSO", npsso); err != nil {
		return err
	}
	if strings.ContainsAny(npsso, " \t\r\n;,\"\\") {
		return fmt.Errorf("NPSSO contains characters that are not allowed in a cookie value")
	}
	return nil
}

// ValidateEpochMillis checks that a timestamp in milliseconds since the epoch is usable.
func ValidateEpochMillis(fieldName string, epoch int64) error {
	if epoch <= 0 {
		return fmt.Errorf("%s must be a positive epoch timestamp in milliseconds, got %d", fieldName, epoch)
	}
	return nil
}

func ValidateTimeout(timeout time.Duration) error {
	if timeout < MinTimeout || timeout > MaxTimeout {
		return fmt.Errorf("timeout must be between %s and %s, got %s", MinTimeout, MaxTimeout, timeout)
	}
	return nil
}
