// pkg/object/object_test.go

package object

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, s PageBlob) {
	ctx := context.Background()
	ps := s.PageSize()

	_, err := s.GetProperties(ctx)
	require.Equal(t, ContainerNotFound, KindOf(err), "%s", err)
	require.Equal(t, ContainerNotFound, KindOf(s.Create(ctx, 2)))

	require.NoError(t, s.CreateContainerIfNotExists(ctx))
	require.NoError(t, s.CreateContainerIfNotExists(ctx))
	_, err = s.GetPages(ctx, 0, 1)
	require.Equal(t, BlobNotFound, KindOf(err), "%s", err)
	require.Equal(t, BlobNotFound, KindOf(s.Resize(ctx, 1)))
	require.Equal(t, BlobNotFound, KindOf(s.Delete(ctx)))
	require.NoError(t, s.DeleteIfExists(ctx))

	require.NoError(t, s.Create(ctx, 2))
	require.Equal(t, BlobAlreadyExists, KindOf(s.Create(ctx, 2)))
	n, err := s.CreateIfNotExists(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	props, err := s.GetProperties(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(2*ps), props.Size)

	data, err := s.GetPages(ctx, 0, 2)
	require.NoError(t, err)
	require.Equal(t, make([]byte, 2*ps), data)

	page := bytes.Repeat([]byte{7}, ps)
	require.NoError(t, s.SavePages(ctx, 1, page))
	data, err = s.GetPages(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, page, data)

	require.Equal(t, InvalidPageRange, KindOf(s.SavePages(ctx, 2, page)))
	require.Equal(t, InvalidPageRange, KindOf(s.SavePages(ctx, 0, page[:ps-1])))
	_, err = s.GetPages(ctx, 1, 2)
	require.Equal(t, InvalidPageRange, KindOf(err))

	require.NoError(t, s.Resize(ctx, 4))
	all, err := s.Download(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4*ps)
	require.Equal(t, page, all[ps:2*ps])
	require.Equal(t, make([]byte, 2*ps), all[2*ps:])

	require.NoError(t, s.Resize(ctx, 1))
	require.NoError(t, s.Resize(ctx, 2))
	data, err = s.GetPages(ctx, 1, 1)
	require.NoError(t, err)
	require.Equal(t, make([]byte, ps), data, "shrunk pages should not come back")

	huge := make([]byte, MaxRequestBytes+ps)
	require.Equal(t, RequestBodyTooLarge, KindOf(s.SavePages(ctx, 0, huge)))

	require.NoError(t, s.Delete(ctx))
	_, err = s.Download(ctx)
	require.Equal(t, BlobNotFound, KindOf(err))
	require.NoError(t, s.DeleteIfExists(ctx))
}

func TestMem(t *testing.T) {
	s, err := CreateStorage("mem", t.Name(), "container", "blob", 512)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.String(), "mem://"))
	testStorage(t, s)
}

func TestMemContainerBeingDeleted(t *testing.T) {
	ctx := context.Background()
	s, err := CreateStorage("mem", t.Name(), "container", "blob", 512)
	require.NoError(t, err)
	require.NoError(t, s.CreateContainerIfNotExists(ctx))
	require.NoError(t, s.Create(ctx, 1))

	DeleteMemContainer(t.Name(), "container", 2)
	_, err = s.GetProperties(ctx)
	assert.Equal(t, ContainerBeingDeleted, KindOf(err))
	assert.Equal(t, ContainerBeingDeleted, KindOf(s.CreateContainerIfNotExists(ctx)))
	_, err = s.GetProperties(ctx)
	assert.Equal(t, ContainerNotFound, KindOf(err))

	require.NoError(t, s.CreateContainerIfNotExists(ctx))
	_, err = s.GetProperties(ctx)
	assert.Equal(t, BlobNotFound, KindOf(err))
}

func TestMemSharedAccount(t *testing.T) {
	ctx := context.Background()
	a, _ := CreateStorage("mem", t.Name(), "container", "a", 512)
	b, _ := CreateStorage("mem", t.Name(), "container", "b", 512)
	require.NoError(t, a.CreateContainerIfNotExists(ctx))
	require.NoError(t, b.Create(ctx, 1))
	_, err := a.GetProperties(ctx)
	assert.Equal(t, BlobNotFound, KindOf(err))
}

func TestDisk(t *testing.T) {
	s, err := CreateStorage("file", t.TempDir(), "container", "blob", 512)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.String(), "file:///"))
	testStorage(t, s)
}

func TestSftp(t *testing.T) {
	endpoint := os.Getenv("SFTP_TEST_ENDPOINT")
	if endpoint == "" {
		t.SkipNow()
	}
	s, err := CreateStorage("sftp", endpoint, "aveblob-test", "blob", 512)
	require.NoError(t, err)
	_ = s.DeleteIfExists(context.Background())
	testStorage(t, s)
}

func TestRedis(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.SkipNow()
	}
	s, err := CreateStorage("redis", addr, "aveblob-"+strings.ToLower(t.Name()), "blob", 512)
	require.NoError(t, err)
	r := s.(*redisBlob)
	r.rdb.Del(context.Background(), r.containerKey(), r.sizeKey(), r.pagesKey())
	testStorage(t, s)
}

func TestInvalidNames(t *testing.T) {
	for _, name := range []string{"mem", "file", "redis", "sftp"} {
		_, err := CreateStorage(name, t.TempDir(), "Bad_Name", "blob", 512)
		assert.Equal(t, InvalidResourceName, KindOf(err), name)
		_, err = CreateStorage(name, t.TempDir(), "container", "a/b", 512)
		assert.Equal(t, InvalidResourceName, KindOf(err), name)
	}
	_, err := CreateStorage("mem", t.Name(), "container", strings.Repeat("b", 1024), 512)
	assert.NoError(t, err)
	_, err = CreateStorage("mem", t.Name(), "container", strings.Repeat("b", 1025), 512)
	assert.Equal(t, InvalidResourceName, KindOf(err))
	_, err = CreateStorage("mem", t.Name(), "container", "", 512)
	assert.Equal(t, InvalidResourceName, KindOf(err))
	_, err = CreateStorage("unknown", "", "container", "blob", 512)
	assert.Error(t, err)
	_, err = CreateStorage("mem", "", "container", "blob", 0)
	assert.Error(t, err)
}
