package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

// Init инициализирует общий валидатор запросов
func Init() {
	validate = validator.New()
}

// ValidateStruct проверяет структуру по validate-тегам и возвращает
// человекочитаемую ошибку по первому нарушенному полю
func ValidateStruct(s interface{}) error {
	if validate == nil {
		Init()
	}

	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, fieldErr := range validationErrors {
		messages = append(messages, fmt.Sprintf("field '%s' failed on '%s'", fieldErr.Field(), fieldErr.Tag()))
	}

	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}
