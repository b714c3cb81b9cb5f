package student

import (
	"fmt"
	"strings"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/daftari/core"
)

// MinAge is the minimum age (in years) a student must have at creation/edit time.
const MinAge = 3

var (
	NowFunc = time.Now // mockable

	classLevelTag  = "classlevel"
	classLevelText = "invalid class level"

	sectionTag  = "section"
	sectionText = "invalid section"

	minAgeTag  = "minage"
	minAgeText = fmt.Sprintf("date of birth must be in the past and imply an age of at least %d years", MinAge)

	pictureSizeTag  = "picturesize"
	pictureSizeText = "picture may not exceed 5 MiB"
)

// InitValidators registers the student validators. Call once at startup.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(classLevelTag, classLevelValidation)
	core.RegisterCustomTranslation(validate, translator, classLevelTag, classLevelText)

	_ = validate.RegisterValidation(sectionTag, sectionValidation)
	core.RegisterCustomTranslation(validate, translator, sectionTag, sectionText)

	_ = validate.RegisterValidation(minAgeTag, minAgeValidation)
	core.RegisterCustomTranslation(validate, translator, minAgeTag, minAgeText)

	_ = validate.RegisterValidation(pictureSizeTag, pictureSizeValidation)
	core.RegisterCustomTranslation(validate, translator, pictureSizeTag, pictureSizeText)
}

func normalizeClassLevel(lvl string) string {
	return strings.TrimLeft(lvl, "0")
}

func normalizeSection(sec string) string {
	return strings.ToUpper(sec)
}

// Custom Validators

func classLevelValidation(fl validator.FieldLevel) bool {
	lvl := fl.Field().String()
	for _, l := range ClassLevels {
		if lvl == l {
			return true
		}
	}
	return false
}

func sectionValidation(fl validator.FieldLevel) bool {
	sec := fl.Field().String()
	for _, s := range Sections {
		if sec == s {
			return true
		}
	}
	return false
}

// minAgeValidation checks that the date of birth is strictly in the past and
// implies an age of at least MinAge years.
func minAgeValidation(fl validator.FieldLevel) bool {
	dob, ok := fl.Field().Interface().(time.Time)
	if !ok {
		return false
	}
	now := NowFunc()
	if !dob.Before(now) {
		return false
	}
	return !dob.AddDate(MinAge, 0, 0).After(now)
}

func pictureSizeValidation(fl validator.FieldLevel) bool {
	return fl.Field().Len() <= PictureMaxSize
}
