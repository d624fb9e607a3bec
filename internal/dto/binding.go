package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/openledger-app/openledger/internal/core/domain"
)

// RegisterValidations installs custom binding validators on gin's validator
// engine. Call once at startup.
func RegisterValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("entrykind", validateEntryKind)
}

func validateEntryKind(fl validator.FieldLevel) bool {
	return domain.EntryKind(fl.Field().String()).Valid()
}
