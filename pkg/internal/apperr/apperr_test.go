package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yeisme/filevault/pkg/internal/apperr"
)

func TestIsMatchesByKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", apperr.NotFound("file not found"))

	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.NotErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "file not found", apperr.Message(err))
}

func TestWrappedCauseIsReachable(t *testing.T) {
	cause := errors.New("disk full")
	err := apperr.IO("write blob", cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, apperr.ErrIO)
	assert.Equal(t, "write blob: disk full", err.Error())
}

func TestKindOfPlainError(t *testing.T) {
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(errors.New("boom")))
	assert.Equal(t, "", apperr.Message(errors.New("boom")))
}
