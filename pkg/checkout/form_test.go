package checkout

import (
	"errors"
	"testing"

	"github.com/example/zastore/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() Form {
	return Form{
		FullName:      "Asha Rao",
		Email:         "Asha@Example.com ",
		Phone:         "+91 98765 43210",
		AddressLine1:  "12 MG Road",
		City:          "Bengaluru",
		State:         "Karnataka",
		Pincode:       "560001",
		PaymentMethod: models.PaymentCOD,
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	out := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidateAcceptsAndNormalizes(t *testing.T) {
	form := validForm()
	require.NoError(t, Validate(&form))
	assert.Equal(t, "asha@example.com", form.Email)
	assert.Equal(t, "9876543210", form.Phone)
}

func TestValidateUPIRequiresTransactionID(t *testing.T) {
	for _, txn := range []string{"", "   ", "TX1", "TXN-12345"} {
		form := validForm()
		form.PaymentMethod = models.PaymentUPI
		form.TransactionID = txn

		fields := fieldsOf(t, Validate(&form))
		assert.Contains(t, fields, "transactionId", "txn %q", txn)
	}
}

func TestValidateUPIAcceptsTransactionID(t *testing.T) {
	form := validForm()
	form.PaymentMethod = "upi"
	form.TransactionID = "TXN12345"
	require.NoError(t, Validate(&form))
	assert.Equal(t, models.PaymentUPI, form.PaymentMethod)
	assert.Equal(t, "TXN12345", form.TransactionID)
}

func TestValidateDropsTransactionIDForCOD(t *testing.T) {
	form := validForm()
	form.TransactionID = "TXN12345"
	require.NoError(t, Validate(&form))
	assert.Empty(t, form.TransactionID)
}

func TestValidateRejectsBadAddressFields(t *testing.T) {
	form := validForm()
	form.State = "Atlantis"
	form.Pincode = "012345"
	form.Phone = "12345"
	form.Email = "nope"
	form.PaymentMethod = "CARD"

	fields := fieldsOf(t, Validate(&form))
	assert.Equal(t, "must be an Indian state or union territory", fields["state"])
	assert.Equal(t, "must be a 6-digit pincode", fields["pincode"])
	assert.Equal(t, "must be a 10-digit Indian mobile number", fields["phone"])
	assert.Equal(t, "must be a valid email address", fields["email"])
	assert.Contains(t, fields, "paymentMethod")
}

func TestValidateRequiredFields(t *testing.T) {
	fields := fieldsOf(t, Validate(&Form{}))
	for _, name := range []string{"fullName", "email", "phone", "addressLine1", "city", "state", "pincode", "paymentMethod"} {
		assert.Equal(t, "is required", fields[name], name)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	form := validForm()
	form.Pincode = "1"
	err := Validate(&form)
	require.Error(t, err)
	assert.Equal(t, "pincode: must be a 6-digit pincode", err.Error())
}

func TestValidateLines(t *testing.T) {
	require.NoError(t, ValidateLines([]CartLine{{ProductID: "p1", Quantity: 2}}))

	fields := fieldsOf(t, ValidateLines(nil))
	assert.Equal(t, "cart is empty", fields["items"])

	fields = fieldsOf(t, ValidateLines([]CartLine{
		{ProductID: "p1", Quantity: 1},
		{ProductID: " ", Quantity: 0},
		{ProductID: "p3", Quantity: 1, Customizations: []CustomizationValue{{Value: "x"}}},
	}))
	assert.Equal(t, "is required", fields["items[1].productId"])
	assert.Equal(t, "must be at least 1", fields["items[1].quantity"])
	assert.Equal(t, "is required", fields["items[2].customizations[0].attributeId"])
}

func TestStatesCoverStatesAndTerritories(t *testing.T) {
	assert.Len(t, States, 36)
	assert.True(t, stateSet["Ladakh"])
}
