package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "recipeshop/internal/errors"
)

type lineRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"min=1"`
}

type sampleRequest struct {
	Email    string        `json:"email" validate:"required,email"`
	Password string        `json:"password" validate:"min=5"`
	Status   string        `json:"status" validate:"omitempty,oneof=Pending Confirmed"`
	Title    string        `json:"title" validate:"max=3"`
	Items    []lineRequest `json:"items" validate:"min=1,dive"`
	Internal string        `json:"-" validate:"required"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	valid := sampleRequest{
		Email:    "a@b.com",
		Password: "secretpw",
		Items:    []lineRequest{{ProductID: 1, Quantity: 1}},
		Internal: "x",
	}
	require.NoError(t, v.Validate(valid))

	err := v.Validate(sampleRequest{
		Email:    "not-an-email",
		Password: "abc",
		Status:   "Lost",
		Title:    "too long",
		Items:    []lineRequest{{ProductID: 1, Quantity: 0}},
		Internal: "x",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)

	assert.Equal(t, []string{"Enter a valid email address."}, verr.Fields["email"])
	assert.Equal(t, []string{"Ensure this field has at least 5 characters."}, verr.Fields["password"])
	assert.Equal(t, []string{`"Lost" is not a valid choice.`}, verr.Fields["status"])
	assert.Equal(t, []string{"Ensure this field has no more than 3 characters."}, verr.Fields["title"])
	assert.Equal(t, []string{"Ensure this value is greater than or equal to 1."}, verr.Fields["items[0].quantity"])
}

func TestValidator_RequiredAndEmptyList(t *testing.T) {
	err := NewValidator().Validate(sampleRequest{Password: "secretpw", Internal: "x"})

	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"This field is required."}, verr.Fields["email"])
	assert.Equal(t, []string{"This list may not be empty."}, verr.Fields["items"])
	assert.Len(t, verr.Fields, 2)
}
