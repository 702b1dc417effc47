// Package validate adapts ozzo-validation results to common.ValidationError
// and holds the password policy.
package validate

import (
	"errors"
	"regexp"
	"sort"

	"github.com/dmitrijs2005/bookkeeper/internal/common"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Struct runs v.Validate and converts field errors into a
// *common.ValidationError. Internal rule failures are returned unchanged.
func Struct(v validation.Validatable) error {
	return From(v.Validate())
}

// From converts an ozzo error. Field keys come from json tags, sorted so the
// result is stable.
func From(err error) error {
	if err == nil {
		return nil
	}
	var errs validation.Errors
	if !errors.As(err, &errs) {
		return err
	}

	keys := make([]string, 0, len(errs))
	for k := range errs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ve := &common.ValidationError{}
	for _, k := range keys {
		if errs[k] != nil {
			ve.Add(k, errs[k].Error())
		}
	}
	return ve.OrNil()
}

var passwordRules = []validation.Rule{
	validation.Length(8, 0).Error("must be at least 8 characters long"),
	validation.Length(0, 72).Error("must be at most 72 characters long"),
	validation.Match(regexp.MustCompile(`[A-Z]`)).Error("must contain an uppercase letter"),
	validation.Match(regexp.MustCompile(`[a-z]`)).Error("must contain a lowercase letter"),
	validation.Match(regexp.MustCompile(`[0-9]`)).Error("must contain a digit"),
	validation.Match(regexp.MustCompile(`[^A-Za-z0-9]`)).Error("must contain a special character"),
}

// Password checks password against the policy and records one violation per
// broken rule under field.
func Password(ve *common.ValidationError, field, password string) {
	if password == "" {
		ve.Add(field, "cannot be blank")
		return
	}
	for _, rule := range passwordRules {
		if err := validation.Validate(password, rule); err != nil {
			ve.Add(field, err.Error())
		}
	}
}

// PasswordError is Password for a standalone value.
func PasswordError(field, password string) error {
	ve := &common.ValidationError{}
	Password(ve, field, password)
	return ve.OrNil()
}
