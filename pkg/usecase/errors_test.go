package usecase_test

import (
	"errors"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/echonotes/pkg/usecase"
)

func TestErrors_ErrorsAreDistinct(t *testing.T) {
	gt.Value(t, usecase.ErrInvalidInput).NotNil()
	gt.Value(t, usecase.ErrNoteNotFound).NotNil()
	gt.Bool(t, errors.Is(usecase.ErrInvalidInput, usecase.ErrNoteNotFound)).False()
}
