package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUTF16Len(t *testing.T) {
	assert.Equal(t, 0, UTF16Len(""))
	assert.Equal(t, 11, UTF16Len("hello world"))
	assert.Equal(t, 2, UTF16Len("日记"))
	// emoji outside the BMP count as a surrogate pair
	assert.Equal(t, 2, UTF16Len("😀"))
	assert.Equal(t, 3, UTF16Len("a😀"))
}

func TestTruncateUTF16(t *testing.T) {
	assert.Equal(t, "hello", TruncateUTF16("hello world", 5))
	assert.Equal(t, "hello world", TruncateUTF16("hello world", 20))
	assert.Equal(t, "a", TruncateUTF16("a😀", 2))
	assert.Equal(t, "a😀", TruncateUTF16("a😀", 3))
	assert.Equal(t, "", TruncateUTF16("abc", 0))

	long := "abcdefghijklmnopqrstuvwxyz"
	assert.Equal(t, 20, UTF16Len(TruncateUTF16(long, 20)))
}

func TestParseDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"7d":  7 * 24 * time.Hour,
		"30":  30 * time.Second,
		"2m":  2 * time.Minute,
		"1h":  time.Hour,
		" 1d": 24 * time.Hour,
	}
	for in, want := range cases {
		got, err := ParseDuration(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDuration("xd")
	assert.Error(t, err)

	assert.Equal(t, time.Minute, MustParseDuration("bad", time.Minute))
	assert.Equal(t, time.Minute, MustParseDuration("", time.Minute))
}

func TestGetRandomString(t *testing.T) {
	a := GetRandomString(32)
	b := GetRandomString(32)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"5MB":   5 << 20,
		"512kb": 512 << 10,
		"100B":  100,
		"2048":  2048,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		assert.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseSize("lots")
	assert.Error(t, err)
}
