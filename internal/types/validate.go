package types

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var structs = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})
