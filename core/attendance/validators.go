package attendance

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/daftari/core"
)

var (
	statusTag  = "attstatus"
	statusText = "invalid attendance status"
)

// InitValidators registers the attendance validators. Call once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, statusValidation)
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)
}

func statusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range Statuses {
		if status == s {
			return true
		}
	}
	return false
}
