// Package services contains the server-side business logic: authentication
// and sessions, user administration, the product catalogue and image uploads.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/invkeeper/internal/common"
)

// domainErrors pass through services unchanged. Anything else coming from a
// repository is reported as a storage failure.
var domainErrors = []error{
	common.ErrorNotFound,
	common.ErrDuplicateUsername,
	common.ErrDuplicateEmail,
	common.ErrValidation,
	common.ErrStorageFailure,
}

func storageError(err error) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrStorageFailure, err)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrValidation, fmt.Sprintf(format, args...))
}

// checkUsername rejects empty usernames and ones with surrounding
// whitespace. Usernames are exact, case-sensitive keys and are never
// rewritten.
func checkUsername(username string) error {
	if username == "" {
		return validationError("username is required")
	}
	if strings.TrimSpace(username) != username {
		return validationError("username must not start or end with whitespace")
	}
	return nil
}
