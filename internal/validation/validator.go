package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors сопоставляет имя поля формы (как в JSON) с сообщением об ошибке.
type FieldErrors map[string]string

// Validator проверяет структуры по тегам validate и формирует сообщения для пользователя.
type Validator struct {
	validate *validator.Validate
}

// New создаёт валидатор с зарегистрированным правилом visa.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Регистрация встроенного правила с корректной функцией не может завершиться ошибкой.
	_ = v.RegisterValidation("visa", func(fl validator.FieldLevel) bool {
		return IsVisaNumber(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Check проверяет структуру s и возвращает ошибки по полям. Пустой результат означает, что данные корректны.
func (v *Validator) Check(s any) FieldErrors {
	res := FieldErrors{}

	err := v.validate.Struct(s)
	if err == nil {
		return res
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res[""] = err.Error()
		return res
	}

	t := reflect.TypeOf(s)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	for _, fe := range verrs {
		if _, exists := res[fe.Field()]; exists {
			continue
		}
		res[fe.Field()] = message(fe, label(t, fe))
	}

	return res
}

func label(t reflect.Type, fe validator.FieldError) string {
	if f, ok := t.FieldByName(fe.StructField()); ok {
		if l := f.Tag.Get("label"); l != "" {
			return l
		}
	}
	return fe.Field()
}

func message(fe validator.FieldError, name string) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s field Is Required", name)
	case "len":
		return fmt.Sprintf("%s field Must Contain Exactly %s Characters", name, fe.Param())
	case "min":
		return fmt.Sprintf("%s field Must Contain At Least %s Characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s field Must Contain At Most %s Characters", name, fe.Param())
	case "number":
		return fmt.Sprintf("%s field Must Contain Digits Only", name)
	case "visa":
		return fmt.Sprintf("%s field Must Be A Valid Visa Card Number", name)
	case "datetime":
		return fmt.Sprintf("%s field Must Be A Date In YYYY-MM-DD Format", name)
	default:
		return fmt.Sprintf("%s field Is Invalid", name)
	}
}
