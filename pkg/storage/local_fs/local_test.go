package local_fs

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS_SendContentAndDelete(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir(), CustomPath: "diary"})
	require.NoError(t, err)

	key, err := client.SendContent(context.Background(), "202610/18/a.png", []byte("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "diary/202610/18/a.png", key)

	saved, err := os.ReadFile(client.FilePath(key))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(saved))

	require.NoError(t, client.Delete(context.Background(), key))
	_, err = os.Stat(client.FilePath(key))
	assert.True(t, os.IsNotExist(err))

	// deleting twice is not an error
	assert.NoError(t, client.Delete(context.Background(), key))
}

func TestLocalFS_CancelledContext(t *testing.T) {
	client, err := NewClient(&Config{SavePath: t.TempDir()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.SendContent(ctx, "a.png", []byte("x"), "")
	assert.ErrorIs(t, err, context.Canceled)
}
