// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voicegen/internal/objectstore"
)

// StartTestServer starts a JetStream-enabled NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, jetstream.JetStream) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)
	t.Cleanup(natsServer.Shutdown)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	require.NoError(t, err)
	t.Cleanup(natsConnection.Close)

	js, err := jetstream.New(natsConnection)
	require.NoError(t, err)

	return natsServer, js
}

func TestNatsObjectStore_UploadDownload(t *testing.T) {
	t.Parallel()

	_, js := StartTestServer(t)
	ctx := context.Background()

	store, err := objectstore.New(ctx, js, "test-bucket")
	require.NoError(t, err)

	key := "speech/0001.wav"
	uploadData := []byte("RIFF, this is a test")

	require.NoError(t, store.Upload(ctx, key, uploadData))

	downloadData, err := store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)

	replacement := []byte("second version")
	require.NoError(t, store.Upload(ctx, key, replacement))

	downloadData, err = store.Download(ctx, key)
	require.NoError(t, err)
	require.Equal(t, replacement, downloadData)
}

func TestNatsObjectStore_BindsToExistingBucket(t *testing.T) {
	t.Parallel()

	_, js := StartTestServer(t)
	ctx := context.Background()

	first, err := objectstore.New(ctx, js, "shared")
	require.NoError(t, err)
	require.NoError(t, first.Upload(ctx, "text.txt", []byte("Выход 5.")))

	second, err := objectstore.New(ctx, js, "shared")
	require.NoError(t, err)

	data, err := second.Download(ctx, "text.txt")
	require.NoError(t, err)
	require.Equal(t, []byte("Выход 5."), data)
}

func TestNatsObjectStore_MissingObject(t *testing.T) {
	t.Parallel()

	_, js := StartTestServer(t)
	ctx := context.Background()

	store, err := objectstore.New(ctx, js, "empty")
	require.NoError(t, err)

	_, err = store.Download(ctx, "missing")
	require.ErrorIs(t, err, jetstream.ErrObjectNotFound)
}
