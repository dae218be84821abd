// Package validator gin 参数校验器及自定义校验规则
package validator

import (
	"reflect"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Moods 可选的心情标签
var Moods = []string{"happy", "sad", "angry"}

// CustomValidator 实现 gin 的 binding.StructValidator
type CustomValidator struct {
	once     sync.Once
	Validate *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	return &CustomValidator{}
}

func (v *CustomValidator) ValidateStruct(obj interface{}) error {
	if kindOfData(obj) == reflect.Struct {
		v.lazyinit()
		if err := v.Validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *CustomValidator) Engine() interface{} {
	v.lazyinit()
	return v.Validate
}

func (v *CustomValidator) lazyinit() {
	v.once.Do(func() {
		v.Validate = validator.New()
		v.Validate.SetTagName("binding")
	})
}

func kindOfData(data interface{}) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()
	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}

// RegisterCustom 在 gin 当前的校验器上注册自定义规则
//
//	address: 0x 开头的 20 字节十六进制地址
//	mood:    happy / sad / angry，允许为空
func RegisterCustom() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	if err := v.RegisterValidation("address", isAddress); err != nil {
		return err
	}
	return v.RegisterValidation("mood", isMood)
}

func isAddress(fl validator.FieldLevel) bool {
	return common.IsHexAddress(fl.Field().String())
}

func isMood(fl validator.FieldLevel) bool {
	return IsMood(fl.Field().String())
}

// IsMood 空字符串表示未选择心情
func IsMood(s string) bool {
	if s == "" {
		return true
	}
	for _, m := range Moods {
		if m == s {
			return true
		}
	}
	return false
}
