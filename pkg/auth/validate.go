package auth

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Input limits. Addresses follow the SMTP path limit; passwords follow
// bcrypt's.
const (
	maxEmailLength    = 254
	maxPasswordLength = 72
)

// Validate checks the shape of a login attempt. Email must be a bare
// address; display-name forms such as "Ada <ada@example.com>" are
// rejected.
func (c Credentials) Validate() error {
	return toValidationError(validation.ValidateStruct(&c,
		validation.Field(&c.Email, validation.Required, validation.Length(0, maxEmailLength), is.EmailFormat),
		validation.Field(&c.Password, validation.Required),
	), "Email", "Password")
}

// Validate checks the fields a registration must carry. Callers normalize
// the email first.
func (r Registration) Validate() error {
	return toValidationError(validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, validation.Length(0, maxEmailLength), is.EmailFormat),
		validation.Field(&r.Password, validation.Required, validation.Length(0, maxPasswordLength)),
	), "Email", "Password")
}

// toValidationError maps the first failing field, in the given order, to
// a coded error: a missing value is VAL_002, an overlong one VAL_004 and
// anything else VAL_003.
func toValidationError(err error, fields ...string) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return sserr.Wrap(err, sserr.CodeInternal, "auth: validating input")
	}
	for _, field := range fields {
		fieldErr, ok := errs[field]
		if !ok || fieldErr == nil {
			continue
		}
		code := sserr.CodeValidationFormat
		var ve validation.Error
		if errors.As(fieldErr, &ve) {
			switch ve.Code() {
			case validation.ErrRequired.Code(), validation.ErrNilOrNotEmpty.Code():
				code = sserr.CodeValidationRequired
			case validation.ErrLengthTooLong.Code(), validation.ErrLengthOutOfRange.Code():
				code = sserr.CodeValidationRange
			}
		}
		return sserr.Wrapf(fieldErr, code, "%s %s", strings.ToLower(field), fieldErr.Error())
	}
	return sserr.Wrap(err, sserr.CodeValidation, err.Error())
}
