package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type signup struct {
	Username string `json:"username" validate:"username"`
	Email    string `json:"email" validate:"omitempty,email"`
}

func TestValidateStruct_Username(t *testing.T) {
	assert.NoError(t, ValidateStruct(&signup{Username: "alice.b+ops@plant-1"}))
	assert.NoError(t, ValidateStruct(&signup{Username: "al"}))
	assert.NoError(t, ValidateStruct(&signup{Username: "a"}))

	err := ValidateStruct(&signup{Username: "alice smith"})
	if assert.Error(t, err) {
		assert.Equal(t, "username may contain only letters, digits and @.+-_ and must be 1-150 characters", err.Error())
	}

	assert.Error(t, ValidateStruct(&signup{Username: ""}))
	assert.Error(t, ValidateStruct(&signup{Username: strings.Repeat("a", 151)}))
}

func TestValidateStruct_Email(t *testing.T) {
	assert.NoError(t, ValidateStruct(&signup{Username: "alice"}))

	err := ValidateStruct(&signup{Username: "alice", Email: "not-an-email"})
	if assert.Error(t, err) {
		assert.Equal(t, "email must be a valid email address", err.Error())
	}
}
