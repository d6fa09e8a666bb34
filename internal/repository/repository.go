package repository

import (
	"errors"

	"gorm.io/gorm"

	apperrors "recipeshop/internal/errors"
)

// translate maps gorm's not-found error onto the domain sentinel.
func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	return err
}

// IsDuplicate reports whether err is a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
