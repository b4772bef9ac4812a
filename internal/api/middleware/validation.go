package middleware

import (
	"fmt"
	"sync"

	"vehicle_parking/internal/service"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the "vehicleno" and "postalcode" tags to gin's validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err = v.RegisterValidation("vehicleno", func(fl validator.FieldLevel) bool {
			return service.ValidVehicleNo(fl.Field().String())
		}); err != nil {
			return
		}
		err = v.RegisterValidation("postalcode", func(fl validator.FieldLevel) bool {
			return service.ValidPostalCode(fl.Field().String())
		})
	})
	return err
}
