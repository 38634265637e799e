package apperr

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	mobilePattern   = regexp.MustCompile(`^\+?[0-9][0-9\s\-]*$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	otpPattern      = regexp.MustCompile(`^\d{6}$`)
	digitPattern    = regexp.MustCompile(`[0-9]`)

	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. It reports json field names and knows
// the mobile, username, hasdigit and otp rules.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
			return IsMobile(fl.Field().String())
		})
		_ = v.RegisterValidation("username", matches(usernamePattern))
		_ = v.RegisterValidation("otp", matches(otpPattern))
		_ = v.RegisterValidation("hasdigit", matches(digitPattern))
		validate = v
	})
	return validate
}

// Struct validates s and returns a *ValidationError on failure.
func Struct(s any) error {
	if err := Validator().Struct(s); err != nil {
		return FromValidator(err)
	}
	return nil
}

func matches(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}

const (
	mobileMinDigits = 7
	mobileMaxDigits = 10
)

// IsMobile reports whether s is an acceptable guest mobile number: an optional
// leading plus, then 7 to 10 digits that may be separated by spaces or dashes.
func IsMobile(s string) bool {
	if !mobilePattern.MatchString(s) {
		return false
	}
	n := len(digitsOnly(s))
	return n >= mobileMinDigits && n <= mobileMaxDigits
}

// NormalizeMobile strips separators, keeping a leading plus, so one number has
// one stored form.
func NormalizeMobile(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "+") {
		return "+" + digitsOnly(s)
	}
	return digitsOnly(s)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
