package storage_test

import (
	"context"
	"testing"

	"github.com/haierkeys/onchain-diary-service/pkg/storage"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/aws_s3"
	"github.com/haierkeys/onchain-diary-service/pkg/storage/local_fs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_Local(t *testing.T) {
	client, err := storage.NewClient(context.Background(), &storage.Config{
		Type:     storage.LOCAL,
		SavePath: t.TempDir(),
	}, nil)
	require.NoError(t, err)

	_, ok := client.(*local_fs.LocalFS)
	assert.True(t, ok)
}

func TestNewClient_S3Compatible(t *testing.T) {
	for _, typ := range []storage.Type{storage.S3, storage.MinIO, storage.R2} {
		client, err := storage.NewClient(context.Background(), &storage.Config{
			Type:            typ,
			Region:          "us-east-1",
			Endpoint:        "http://127.0.0.1:9000",
			AccountID:       "acct",
			BucketName:      "diary",
			AccessKeyID:     "ak",
			AccessKeySecret: "sk",
		}, nil)
		require.NoError(t, err, typ)

		s3c, ok := client.(*aws_s3.S3)
		require.True(t, ok, typ)
		assert.Equal(t, "diary", s3c.Config.BucketName)
	}
}

func TestNewClient_Invalid(t *testing.T) {
	_, err := storage.NewClient(context.Background(), &storage.Config{Type: "invalid"}, nil)
	assert.Error(t, err)

	_, err = storage.NewClient(context.Background(), nil, nil)
	assert.Error(t, err)
}
