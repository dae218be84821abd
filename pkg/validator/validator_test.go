package validator

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type connectParams struct {
	Address string `binding:"required,address"`
	Mood    string `binding:"mood"`
}

func TestRegisterCustom(t *testing.T) {
	prev := binding.Validator
	defer func() { binding.Validator = prev }()

	binding.Validator = NewCustomValidator()
	require.NoError(t, RegisterCustom())

	v := binding.Validator
	assert.NoError(t, v.ValidateStruct(&connectParams{Address: "0x8ba1f109551bD432803012645Ac136ddd64DBA72"}))
	assert.NoError(t, v.ValidateStruct(&connectParams{Address: "0x8ba1f109551bD432803012645Ac136ddd64DBA72", Mood: "sad"}))
	assert.Error(t, v.ValidateStruct(&connectParams{Address: "not-an-address"}))
	assert.Error(t, v.ValidateStruct(&connectParams{Address: "0x8ba1f109551bD432803012645Ac136ddd64DBA72", Mood: "bored"}))
}

func TestIsMood(t *testing.T) {
	assert.True(t, IsMood(""))
	assert.True(t, IsMood("happy"))
	assert.True(t, IsMood("angry"))
	assert.False(t, IsMood("HAPPY"))
}
