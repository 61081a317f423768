package handler

import (
	"sync"

	"github.com/fyerfyer/contract-filler/internal/template"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators 向gin的校验器注册自定义标签
//
//	gender: template.ParseGender 能识别的值
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("gender", func(fl validator.FieldLevel) bool {
			_, err := template.ParseGender(fl.Field().String())
			return err == nil
		})
	})
}
