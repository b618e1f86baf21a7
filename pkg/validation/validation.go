// Package validation envuelve go-playground/validator para los DTOs de entrada.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct valida los tags `validate` de s. El error describe cada campo inválido con su
// nombre JSON, ej: "name: required; stock_min: min=0".
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field(), rule))
	}
	return errors.New(strings.Join(parts, "; "))
}

// IsEmail indica si s tiene formato de correo electrónico.
func IsEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}

func init() {
	// Usar el nombre JSON del campo en los mensajes.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}
