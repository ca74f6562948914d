package validation

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

type registerBody struct {
	Name     string `json:"name" validate:"required,personname"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,pwd"`
	Plan     string `json:"planType" validate:"omitempty,oneof=Premium premium"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	Configure(v)
	return v
}

func TestToDetails_FieldMessages(t *testing.T) {
	err := newValidator().Struct(registerBody{Name: "A", Email: "nope", Password: "123", Plan: "Gold"})

	got := ToDetails(err)
	assert.Equal(t, map[string]string{
		"name":     "must be between 2 and 100 characters long",
		"email":    "must be a valid email",
		"password": "must be between 6 and 72 characters long",
		"planType": "must be one of: Premium, premium",
	}, got)
}

func TestToDetails_Valid(t *testing.T) {
	err := newValidator().Struct(registerBody{Name: "Ann", Email: "a@x.io", Password: "secret1"})
	assert.NoError(t, err)
	assert.Nil(t, ToDetails(err))
}

func TestToDetails_PayloadErrors(t *testing.T) {
	var dst registerBody
	err := json.Unmarshal([]byte(`{"name":`), &dst)
	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))

	assert.Equal(t, map[string]string{"payload": "invalid payload"}, ToDetails(errors.New("EOF")))
}
