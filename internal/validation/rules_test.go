package validation

import (
	"testing"

	validation "github.com/jellydator/validation"
	"github.com/stretchr/testify/assert"

	apperrors "github.com/inesdata/dataspace-tools/internal/errors"
)

func TestEntityName(t *testing.T) {
	tests := []struct {
		name      string
		value     string
		shouldErr bool
	}{
		{name: "simple", value: "demo", shouldErr: false},
		{name: "with hyphen", value: "conn-oeg-provider", shouldErr: false},
		{name: "with digits", value: "ds2-conn1", shouldErr: false},
		{name: "uppercase", value: "Demo", shouldErr: true},
		{name: "underscore", value: "my_ds", shouldErr: true},
		{name: "leading digit", value: "1demo", shouldErr: true},
		{name: "trailing hyphen", value: "demo-", shouldErr: true},
		{name: "double hyphen", value: "de--mo", shouldErr: true},
		{name: "dot", value: "demo.eu", shouldErr: true},
		{name: "space", value: "de mo", shouldErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validation.Validate(tt.value, EntityName)
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateEntityName(t *testing.T) {
	assert.NoError(t, ValidateEntityName("dataspace", "demo"))

	err := ValidateEntityName("connector", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "connector")

	long := make([]byte, EntityNameMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ValidateEntityName("dataspace", string(long)), apperrors.ErrInvalidInput)
	assert.ErrorIs(t, ValidateEntityName("dataspace", "Bad_Name"), apperrors.ErrInvalidInput)
}

func TestNoWhitespace(t *testing.T) {
	assert.NoError(t, validation.Validate("value", NoWhitespace))
	assert.Error(t, validation.Validate(" value", NoWhitespace))
	assert.Error(t, validation.Validate("value ", NoWhitespace))
}

func TestNotBlank(t *testing.T) {
	assert.NoError(t, validation.Validate("value", NotBlank))
	assert.Error(t, validation.Validate("   ", NotBlank))
}

func TestWrapValidationError(t *testing.T) {
	assert.Nil(t, WrapValidationError(nil))
	assert.ErrorIs(t, WrapValidationError(assert.AnError), apperrors.ErrInvalidInput)
}
