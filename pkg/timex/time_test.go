package timex

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTime_JSON(t *testing.T) {
	at := Time(time.Date(2026, 10, 18, 9, 30, 0, 0, time.Local))

	b, err := sonic.Marshal(struct {
		At Time `json:"at"`
	}{At: at})
	require.NoError(t, err)
	assert.JSONEq(t, `{"at":"2026-10-18 09:30:00"}`, string(b))

	var back Time
	require.NoError(t, back.UnmarshalJSON([]byte(`"2026-10-18 09:30:00"`)))
	assert.Equal(t, at.Unix(), back.Unix())

	// 零值序列化为空字符串
	zero, err := Time{}.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `""`, string(zero))
	require.NoError(t, back.UnmarshalJSON([]byte("null")))
	assert.True(t, back.IsZero())
}

func TestTime_Scan(t *testing.T) {
	var tt Time
	require.NoError(t, tt.Scan("2026-10-18 00:00:01"))
	assert.Equal(t, "2026-10-18 00:00:01", tt.String())

	require.NoError(t, tt.Scan([]byte("2026-10-19 00:00:00")))
	assert.Equal(t, 19, tt.Time().Day())

	require.NoError(t, tt.Scan(nil))
	v, err := tt.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, tt.Scan(42))
}
