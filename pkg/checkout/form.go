// Package checkout defines the checkout form and cart line schema shared by the
// HTTP layer and the order creator. Both run the same validation.
package checkout

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/example/zastore/pkg/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// States lists the Indian states and union territories accepted for shipping.
var States = []string{
	"Andhra Pradesh", "Arunachal Pradesh", "Assam", "Bihar", "Chhattisgarh",
	"Goa", "Gujarat", "Haryana", "Himachal Pradesh", "Jharkhand", "Karnataka",
	"Kerala", "Madhya Pradesh", "Maharashtra", "Manipur", "Meghalaya", "Mizoram",
	"Nagaland", "Odisha", "Punjab", "Rajasthan", "Sikkim", "Tamil Nadu",
	"Telangana", "Tripura", "Uttar Pradesh", "Uttarakhand", "West Bengal",
	"Andaman and Nicobar Islands", "Chandigarh",
	"Dadra and Nagar Haveli and Daman and Diu", "Delhi", "Jammu and Kashmir",
	"Ladakh", "Lakshadweep", "Puducherry",
}

var (
	stateSet = func() map[string]bool {
		m := make(map[string]bool, len(States))
		for _, s := range States {
			m[s] = true
		}
		return m
	}()

	pincodePattern       = regexp.MustCompile(`^[1-9][0-9]{5}$`)
	mobilePattern        = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	transactionIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{6,64}$`)
)

// Form is the buyer's checkout submission.
type Form struct {
	FullName      string               `json:"fullName" validate:"required,min=2,max=100"`
	Email         string               `json:"email" validate:"required,email,max=254"`
	Phone         string               `json:"phone" validate:"required,mobile"`
	AddressLine1  string               `json:"addressLine1" validate:"required,min=5,max=200"`
	AddressLine2  string               `json:"addressLine2" validate:"max=200"`
	City          string               `json:"city" validate:"required,min=2,max=100"`
	State         string               `json:"state" validate:"required,indianstate"`
	Pincode       string               `json:"pincode" validate:"required,pincode"`
	Landmark      string               `json:"landmark" validate:"max=200"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod" validate:"required,oneof=COD UPI"`
	TransactionID string               `json:"transactionId"`
}

// CustomizationValue is the buyer's input for one customization attribute.
// File inputs carry the URL returned by the file host.
type CustomizationValue struct {
	AttributeID string `json:"attributeId" validate:"required"`
	Value       string `json:"value"`
}

// CartLine is one line of the client-side cart. Price is what the client
// displayed; it is never used for pricing.
type CartLine struct {
	ProductID      string               `json:"productId" validate:"required,max=64"`
	Quantity       int                  `json:"quantity" validate:"min=1,max=99"`
	Price          *decimal.Decimal     `json:"price,omitempty" validate:"-"`
	Customizations []CustomizationValue `json:"customizations" validate:"dive"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every rejected field of a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("indianstate", func(fl validator.FieldLevel) bool {
			return stateSet[fl.Field().String()]
		})
		_ = v.RegisterValidation("pincode", func(fl validator.FieldLevel) bool {
			return pincodePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return mobilePattern.MatchString(fl.Field().String())
		})
		v.RegisterStructValidation(validatePayment, Form{})
		validate = v
	})
	return validate
}

func validatePayment(sl validator.StructLevel) {
	form := sl.Current().Interface().(Form)
	if form.PaymentMethod == models.PaymentUPI && !transactionIDPattern.MatchString(form.TransactionID) {
		sl.ReportError(form.TransactionID, "transactionId", "TransactionID", "upitxn", "")
	}
}

// Normalize trims whitespace, strips common phone prefixes and drops a
// transaction id sent with a COD order.
func (f *Form) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Phone = normalizePhone(f.Phone)
	f.AddressLine1 = strings.TrimSpace(f.AddressLine1)
	f.AddressLine2 = strings.TrimSpace(f.AddressLine2)
	f.City = strings.TrimSpace(f.City)
	f.State = strings.TrimSpace(f.State)
	f.Pincode = strings.TrimSpace(f.Pincode)
	f.Landmark = strings.TrimSpace(f.Landmark)
	f.PaymentMethod = models.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(f.PaymentMethod))))
	f.TransactionID = strings.TrimSpace(f.TransactionID)
	if f.PaymentMethod != models.PaymentUPI {
		f.TransactionID = ""
	}
}

func normalizePhone(raw string) string {
	phone := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(phone, "+91") && len(phone) == 13:
		phone = phone[3:]
	case strings.HasPrefix(phone, "91") && len(phone) == 12:
		phone = phone[2:]
	case strings.HasPrefix(phone, "0") && len(phone) == 11:
		phone = phone[1:]
	}
	return phone
}

// Validate normalizes form in place and checks it.
func Validate(form *Form) error {
	form.Normalize()
	return describe(instance().Struct(form))
}

// ValidateLines checks the structural rules of cart lines. Whether products
// exist is the pricing engine's concern.
func ValidateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return &ValidationError{Fields: []FieldError{{Field: "items", Message: "cart is empty"}}}
	}
	var fields []FieldError
	for i := range lines {
		lines[i].ProductID = strings.TrimSpace(lines[i].ProductID)
		err := describe(instance().Struct(&lines[i]))
		var verr *ValidationError
		if errors.As(err, &verr) {
			for _, f := range verr.Fields {
				fields = append(fields, FieldError{Field: fmt.Sprintf("items[%d].%s", i, f.Field), Message: f.Message})
			}
		} else if err != nil {
			return err
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func describe(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fieldPath(fe), Message: message(fe)})
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "mobile":
		return "must be a 10-digit Indian mobile number"
	case "indianstate":
		return "must be an Indian state or union territory"
	case "pincode":
		return "must be a 6-digit pincode"
	case "oneof":
		return "must be one of " + fe.Param()
	case "upitxn":
		return "is required for UPI payments (6-64 letters or digits)"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}
