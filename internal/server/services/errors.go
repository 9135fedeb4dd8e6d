package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/videotube/internal/common"
)

// storeError wraps a repository error for op. Answers from the store
// (not found, already exists) keep their kind; anything else is reported as
// common.ErrStoreUnavailable with the cause attached.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) ||
		errors.Is(err, common.ErrAlreadyExists) ||
		errors.Is(err, common.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, common.ErrStoreUnavailable, err)
}
