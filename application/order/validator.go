package order

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"orderlifecycle/domain/order"
	"orderlifecycle/domain/shared"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\+\d{8,15}$`)

// Validator checks request shape before the engine touches the store.
// Field names in the reported errors are the JSON paths of the request.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

func NewValidator(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	v := &Validator{validate: validator.New(), now: now}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// decimals are compared as float64 by gt/gte rules
	v.validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	must(v.validate.RegisterValidation("notblank", validators.NotBlank))
	must(v.validate.RegisterValidation("channel", func(fl validator.FieldLevel) bool {
		_, ok := order.ParseChannel(fl.Field().String())
		return ok
	}))
	must(v.validate.RegisterValidation("eventtype", func(fl validator.FieldLevel) bool {
		_, ok := order.ParseStatus(fl.Field().String())
		return ok
	}))
	must(v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	}))
	must(v.validate.RegisterValidation("utc", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		_, offset := t.Zone()
		return offset == 0
	}))
	must(v.validate.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.After(v.now())
	}))

	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// ValidateCreate trims the text fields in place before checking them, so
// length rules and the stored values agree.
func (v *Validator) ValidateCreate(req *CreateOrderRequest) error {
	trimCreate(req)
	return v.check("order", req)
}

// ValidateEvent trims like ValidateCreate.
func (v *Validator) ValidateEvent(req *AddEventRequest) error {
	req.ID = strings.TrimSpace(req.ID)
	req.Type = strings.TrimSpace(req.Type)
	req.User = strings.TrimSpace(req.User)
	return v.check("event", req)
}

func trimCreate(req *CreateOrderRequest) {
	req.ExternalReferenceID = strings.TrimSpace(req.ExternalReferenceID)
	req.Channel = strings.TrimSpace(req.Channel)
	req.Buyer.FirstName = strings.TrimSpace(req.Buyer.FirstName)
	req.Buyer.LastName = strings.TrimSpace(req.Buyer.LastName)
	req.Buyer.DocumentNumber = strings.TrimSpace(req.Buyer.DocumentNumber)
	req.Buyer.Phone = strings.TrimSpace(req.Buyer.Phone)
	for i := range req.Products {
		p := &req.Products[i]
		p.Sku = strings.TrimSpace(p.Sku)
		p.Name = strings.TrimSpace(p.Name)
		p.Description = strings.TrimSpace(p.Description)
	}
}

func (v *Validator) check(entity string, req interface{}) error {
	err := v.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}

	fields := make([]shared.FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields = append(fields, shared.FieldError{
			Field:   fieldPath(fe.Namespace()),
			Message: fieldMessage(fe),
		})
	}
	return shared.NewValidationErrors(entity, fields)
}

// fieldPath drops the struct name validator puts in front of the namespace.
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "min":
		if fe.Kind() == reflect.Slice {
			return "must contain at least " + fe.Param() + " item"
		}
		return "must be at least " + fe.Param() + " characters"
	case "gt":
		return "must be greater than " + fe.Param()
	case "channel":
		return "must be one of " + joinChannels()
	case "eventtype":
		return "must be one of " + joinStatuses()
	case "phone":
		return "must be in international format, e.g. +541143345678"
	case "utc":
		return "must be expressed in UTC"
	case "notfuture":
		return "must not be in the future"
	default:
		return "failed on " + fe.Tag()
	}
}

func joinChannels() string {
	names := make([]string, 0, 4)
	for _, c := range order.Channels() {
		names = append(names, c.String())
	}
	return strings.Join(names, ", ")
}

func joinStatuses() string {
	names := make([]string, 0, 5)
	for _, s := range order.Statuses() {
		names = append(names, s.String())
	}
	return strings.Join(names, ", ")
}
