package service

import (
	"strings"
	"testing"

	"github.com/haierkeys/onchain-diary-service/internal/domain"
	"github.com/haierkeys/onchain-diary-service/pkg/code"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAddr = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

type composerEnv struct {
	connected  bool
	configured bool
}

func newComposer(env *composerEnv) ComposerService {
	return NewComposerService(
		func(string) bool { return env.connected },
		func() bool { return env.configured },
		nil,
		&ServiceConfig{Image: ImageServiceConfig{MaxSize: 16}},
	)
}

func TestComposer_SetContentTruncates(t *testing.T) {
	c := newComposer(&composerEnv{connected: true, configured: true})

	v := c.SetContent(testAddr, strings.Repeat("a", 25))
	assert.Equal(t, strings.Repeat("a", 20), v.Content)
	assert.Equal(t, 20, v.ContentLength)
	assert.True(t, v.CanSubmit)

	// emoji 占两个 UTF-16 码元，不会被截成半个
	v = c.SetContent(testAddr, strings.Repeat("a", 19)+"😀")
	assert.Equal(t, strings.Repeat("a", 19), v.Content)

	v = c.SetContent(testAddr, "你好")
	assert.Equal(t, 2, v.ContentLength)
}

func TestComposer_MoodAndImageExclusive(t *testing.T) {
	c := newComposer(&composerEnv{connected: true, configured: true})

	_, err := c.SelectMood(testAddr, "bored")
	assert.ErrorIs(t, err, code.ErrorInvalidMood)

	v, err := c.SelectMood(testAddr, domain.MoodHappy)
	require.NoError(t, err)
	assert.Equal(t, "happy", v.Mood)

	v, err = c.SelectImage(testAddr, domain.DraftImage{Name: "a.png", ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Empty(t, v.Mood)
	require.NotNil(t, v.Image)
	assert.Equal(t, 3, v.Image.Size)

	v, err = c.SelectMood(testAddr, domain.MoodSad)
	require.NoError(t, err)
	assert.Nil(t, v.Image)
	assert.Equal(t, "sad", v.Mood)

	_, err = c.SelectImage(testAddr, domain.DraftImage{Data: make([]byte, 17)})
	assert.ErrorIs(t, err, code.ErrorImageTooLarge)

	_, err = c.SelectImage(testAddr, domain.DraftImage{Data: make([]byte, 4)})
	require.NoError(t, err)
	assert.Nil(t, c.ClearImage(testAddr).Image)
}

func TestComposer_CanSubmit(t *testing.T) {
	env := &composerEnv{}
	c := newComposer(env)

	c.SetContent(testAddr, "hello world")
	assert.False(t, c.CanSubmit(testAddr), "not connected")

	env.connected = true
	assert.False(t, c.CanSubmit(testAddr), "contract not configured")

	env.configured = true
	assert.True(t, c.CanSubmit(testAddr))

	c.SetContent(testAddr, "")
	assert.False(t, c.CanSubmit(testAddr), "empty content")

	c.SetContent(testAddr, "hello world")
	c.SetUploading(testAddr, true)
	assert.False(t, c.CanSubmit(testAddr), "uploading")
	c.SetUploading(testAddr, false)
	assert.True(t, c.CanSubmit(testAddr))
}

func TestComposer_BeginFinish(t *testing.T) {
	c := newComposer(&composerEnv{connected: true, configured: true})

	_, err := c.Begin(testAddr, "a1")
	assert.ErrorIs(t, err, code.ErrorContentEmpty)
	assert.NotEmpty(t, c.View(testAddr).Error)

	v := c.SetContent(testAddr, "hello")
	assert.Empty(t, v.Error, "editing clears the error")

	_, err = c.SelectMood(testAddr, domain.MoodAngry)
	require.NoError(t, err)

	snap, err := c.Begin(testAddr, "a1")
	require.NoError(t, err)
	assert.Equal(t, "hello", snap.Content)
	assert.Equal(t, domain.MoodAngry, snap.Mood)

	// 快照是副本，之后的编辑不影响进行中的写入
	c.SetContent(testAddr, "changed")
	assert.Equal(t, "hello", snap.Content)

	_, err = c.Begin(testAddr, "a2")
	assert.ErrorIs(t, err, code.ErrorWriteInFlight)
	assert.False(t, c.CanSubmit(testAddr))

	// 其它写入的结束不影响当前写入
	c.Finish(testAddr, "a2", false, "boom")
	assert.Equal(t, "a1", c.View(testAddr).InFlightAttemptID)

	c.Finish(testAddr, "a1", false, "Daily limit reached")
	v = c.View(testAddr)
	assert.Empty(t, v.InFlightAttemptID)
	assert.Equal(t, "Daily limit reached", v.Error)
	assert.Equal(t, "changed", v.Content, "failed writes keep the draft")

	v = c.DismissError(testAddr)
	assert.Empty(t, v.Error)

	_, err = c.Begin(testAddr, "a3")
	require.NoError(t, err)
	c.Finish(testAddr, "a3", true, "")
	v = c.View(testAddr)
	assert.Empty(t, v.Content)
	assert.Empty(t, v.Mood)

	c.Discard(testAddr)
	assert.Empty(t, c.Snapshot(testAddr).Content)
}
