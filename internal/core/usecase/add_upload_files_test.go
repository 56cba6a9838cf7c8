package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lemonchikHere/donminiapp/internal/core/domain"
)

func TestAddUploadFiles_PhotosStaged(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	set, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{
		photoFile("kitchen.jpg", "jpeg-bytes"),
		photoFile("balcony.jpg", "more-jpeg-bytes"),
	})
	require.NoError(t, err)

	require.Len(t, set.Photos, 2)
	assert.Nil(t, set.Video)
	assert.Equal(t, "kitchen.jpg", set.Photos[0].FileName)
	assert.Equal(t, int64(len("jpeg-bytes")), set.Photos[0].SizeBytes)
	assert.NotEmpty(t, set.Photos[0].StagePath)
	assert.NotEqual(t, set.Photos[0].ID, set.Photos[1].ID)
	assert.Equal(t, 2, env.assets.liveCount())
}

func TestAddUploadFiles_OversizedPhotoRejectsWholeBatch(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	oversized := photoFile("huge.jpg", "x")
	oversized.SizeBytes = domain.MaxPhotoSizeBytes + 1

	set, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{
		photoFile("ok.jpg", "fine"),
		oversized,
	})

	assert.True(t, errors.Is(err, domain.ErrAssetRejected))
	assert.Empty(t, set.Photos, "one bad file rejects the whole batch")
	assert.Zero(t, env.assets.liveCount(), "nothing reaches staging")
}

func TestAddUploadFiles_UnsupportedMimeRejected(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	gif := domain.IncomingFile{FileName: "cat.gif", MimeType: "image/gif", SizeBytes: 10, Content: strings.NewReader("0123456789")}
	_, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{gif})

	assert.True(t, errors.Is(err, domain.ErrAssetRejected))
	assert.Zero(t, env.assets.liveCount())
}

func TestAddUploadFiles_PhotoLimitCountsExistingAssets(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	first := make([]domain.IncomingFile, 0, domain.MaxPhotoCount-1)
	for i := 0; i < domain.MaxPhotoCount-1; i++ {
		first = append(first, photoFile(fmt.Sprintf("p%d.jpg", i), "data"))
	}
	_, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, first)
	require.NoError(t, err)

	// Девять уже есть, пачка из двух не влезает целиком.
	_, err = uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{
		photoFile("a.jpg", "data"),
		photoFile("b.jpg", "data"),
	})
	assert.True(t, errors.Is(err, domain.ErrAssetRejected))
	assert.Equal(t, domain.MaxPhotoCount-1, env.assets.liveCount())

	set, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{photoFile("last.jpg", "data")})
	require.NoError(t, err)
	assert.Len(t, set.Photos, domain.MaxPhotoCount)
}

func TestAddUploadFiles_VideoReplacesPrevious(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	set, err := uc.Execute(context.Background(), testUserID, domain.AssetVideo, []domain.IncomingFile{videoFile("tour.mp4", "v1")})
	require.NoError(t, err)
	require.NotNil(t, set.Video)
	oldPath := set.Video.StagePath

	set, err = uc.Execute(context.Background(), testUserID, domain.AssetVideo, []domain.IncomingFile{videoFile("tour-v2.mp4", "v2")})
	require.NoError(t, err)
	require.NotNil(t, set.Video)
	assert.Equal(t, "tour-v2.mp4", set.Video.FileName)
	assert.True(t, env.assets.wasRemoved(oldPath), "replaced video file leaves staging")
	assert.Equal(t, 1, env.assets.liveCount())
}

func TestAddUploadFiles_VideoBatchMustBeSingle(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	_, err := uc.Execute(context.Background(), testUserID, domain.AssetVideo, []domain.IncomingFile{
		videoFile("a.mp4", "v1"),
		videoFile("b.mp4", "v2"),
	})

	assert.True(t, errors.Is(err, domain.ErrAssetRejected))
	assert.Zero(t, env.assets.liveCount())
}

func TestAddUploadFiles_OversizedVideoRejected(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	_, err := uc.Execute(context.Background(), testUserID, domain.AssetVideo, []domain.IncomingFile{videoFile("tour.mp4", "v1")})
	require.NoError(t, err)

	huge := videoFile("film.mp4", "v")
	huge.SizeBytes = domain.MaxVideoSizeBytes + 1
	_, err = uc.Execute(context.Background(), testUserID, domain.AssetVideo, []domain.IncomingFile{huge})

	assert.True(t, errors.Is(err, domain.ErrAssetRejected))

	// Негодный кандидат не трогает занятый слот.
	set, err := NewGetUploadAssetsUseCase(env.sessions).Execute(context.Background(), testUserID)
	require.NoError(t, err)
	require.NotNil(t, set.Video)
	assert.Equal(t, "tour.mp4", set.Video.FileName)
	assert.Equal(t, 1, env.assets.liveCount())
}

func TestAddUploadFiles_UnknownKind(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	_, err := uc.Execute(context.Background(), testUserID, "document", []domain.IncomingFile{photoFile("x.jpg", "data")})

	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestAddUploadFiles_EmptyBatchRejected(t *testing.T) {
	env := newTestEnv()
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	_, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, nil)

	assert.True(t, errors.Is(err, domain.ErrAssetRejected))
}

func TestAddUploadFiles_StagingFailureRemovesEarlierFiles(t *testing.T) {
	env := newTestEnv()
	env.assets.failOn = 2
	uc := NewAddUploadFilesUseCase(env.sessions, env.assets)

	_, err := uc.Execute(context.Background(), testUserID, domain.AssetPhoto, []domain.IncomingFile{
		photoFile("first.jpg", "data"),
		photoFile("second.jpg", "data"),
	})

	require.Error(t, err)
	assert.Zero(t, env.assets.liveCount(), "partially staged batch is rolled back")
	assert.Empty(t, env.sessions.Session(testUserID).Uploads().Photos)
}
