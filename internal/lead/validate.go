package lead

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Moroccan mobile numbers: +212 or a leading 0, then a 5/6/7 prefix digit,
// then 8 more digits.
var phonePattern = regexp.MustCompile(`^(\+212|0)[5-7]\d{8}$`)

func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// RegisterValidators hooks the ma_phone rule into gin's binding engine so
// request structs can use it in binding tags. Call once at startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("ma_phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
}
