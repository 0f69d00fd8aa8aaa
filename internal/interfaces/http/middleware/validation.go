package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joinville/accounts/internal/domain/access"
	"github.com/joinville/accounts/internal/domain/account"
	"github.com/joinville/accounts/internal/interfaces/http/dto"
)

// ValidationFailedMessage is the message of every request validation error
const ValidationFailedMessage = "Dados inválidos."

var (
	setupOnce sync.Once
	setupErr  error
)

// customValidations are the Brazilian document and contact formats used
// by the request bodies
var customValidations = map[string]func(string) bool{
	"cpf":         account.ValidCPF,
	"cnpj":        account.ValidCNPJ,
	"phone_br":    account.ValidPhoneNumber,
	"uf":          account.ValidState,
	"staff_login": access.ValidStaffLogin,
}

// SetupValidator configures the gin validator: JSON names in errors and
// the custom tags. It is safe to call more than once.
func SetupValidator() error {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			setupErr = errors.New("gin validator engine is not validator/v10")
			return
		}

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})

		for tag, fn := range customValidations {
			fn := fn
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return fn(fl.Field().String())
			}); err != nil {
				setupErr = err
				return
			}
		}
	})
	return setupErr
}

// ValidationDetails turns binding errors into field details. Errors that
// are not field validations yield nil.
func ValidationDetails(err error) []dto.ValidationDetail {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	details := make([]dto.ValidationDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, dto.ValidationDetail{
			Field:   e.Field(),
			Message: getValidationMessage(e),
		})
	}
	return details
}

// HandleValidationError answers 400 with the field details of a binding
// error, or a malformed body error when there are none
func HandleValidationError(c *gin.Context, err error) {
	details := ValidationDetails(err)
	if details == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Corpo da requisição inválido.", GetRequestID(c)))
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest,
		dto.NewValidationErrorResponse(ValidationFailedMessage, GetRequestID(c), details))
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "Este campo é obrigatório."
	case "email":
		return "E-mail inválido."
	case "min":
		if e.Kind() == reflect.String {
			return "Deve ter no mínimo " + e.Param() + " caracteres."
		}
		return "Deve ser no mínimo " + e.Param() + "."
	case "max":
		if e.Kind() == reflect.String {
			return "Deve ter no máximo " + e.Param() + " caracteres."
		}
		return "Deve ser no máximo " + e.Param() + "."
	case "len":
		return "Deve ter exatamente " + e.Param() + " caracteres."
	case "eqfield":
		return "Deve ser igual ao campo " + e.Param() + "."
	case "uuid":
		return "Identificador inválido."
	case "oneof":
		return "Deve ser um de: " + e.Param() + "."
	case "url":
		return "URL inválida."
	case "numeric":
		return "Deve conter apenas números."
	case "cpf":
		return "CPF inválido."
	case "cnpj":
		return "CNPJ inválido."
	case "phone_br":
		return "Telefone inválido, use o formato (XX) XXXXXXXXX."
	case "uf":
		return "UF inválida, valor deve possuir duas letras maiúsculas."
	case "staff_login":
		return "Login incorreto, informe o login do usuário no formato uXXXXX."
	default:
		return "Valor inválido."
	}
}
