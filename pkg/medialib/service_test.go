package medialib_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questgearhub/medialib/pkg/medialib"
	"github.com/questgearhub/medialib/pkg/medialib/objectkey"
	"github.com/questgearhub/medialib/pkg/medialib/repo/memory"
	"github.com/questgearhub/medialib/pkg/medialib/storage/fs"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func newTestService(t *testing.T, opts ...medialib.Option) (medialib.Service, *memory.Repository, *fs.Backend) {
	t.Helper()
	repo := memory.New()
	store := fs.NewMemory()
	options := append([]medialib.Option{
		medialib.WithRepository(repo),
		medialib.WithBlobStore("memory", store),
		medialib.WithLogger(quietLogger),
	}, opts...)
	svc, err := medialib.New(options...)
	require.NoError(t, err)
	return svc, repo, store
}

func upload(t *testing.T, svc medialib.Service, folderID, name, body string) *medialib.Image {
	t.Helper()
	img, err := svc.UploadImage(context.Background(), medialib.UploadImageRequest{
		FolderID:         folderID,
		OriginalFilename: name,
		Reader:           strings.NewReader(body),
	})
	require.NoError(t, err)
	return img
}

func fileExists(t *testing.T, store medialib.BlobStore, key string) bool {
	t.Helper()
	ok, err := store.Exists(context.Background(), key)
	require.NoError(t, err)
	return ok
}

func TestServiceCreation(t *testing.T) {
	tests := []struct {
		name        string
		options     []medialib.Option
		expectError bool
	}{
		{
			name:        "no options should fail",
			options:     []medialib.Option{},
			expectError: true,
		},
		{
			name: "repository without blob store should fail",
			options: []medialib.Option{
				medialib.WithRepository(memory.New()),
			},
			expectError: true,
		},
		{
			name: "with repository and blob store should succeed",
			options: []medialib.Option{
				medialib.WithRepository(memory.New()),
				medialib.WithBlobStore("memory", fs.NewMemory()),
			},
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := medialib.New(tt.options...)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, svc)
			}
		})
	}
}

func TestCreateAndListFolders(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for _, name := range []string{"Trip Photos", "Trip Photos", "Work"} {
		folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: name})
		require.NoError(t, err)
		assert.Equal(t, name, folder.Name)
		assert.False(t, seen[folder.ID], "folder id reused")
		seen[folder.ID] = true
		_, err = uuid.Parse(folder.ID)
		assert.NoError(t, err)
		assert.Equal(t, time.UTC, folder.CreatedAt.Location())
	}

	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 3)
	for _, f := range folders {
		assert.True(t, seen[f.ID])
	}
}

func TestCreateFolder_AnyNameRoundTrips(t *testing.T) {
	ctx := context.Background()

	for _, name := range []string{"", "   ", "Trip Photos", "Trip Photos", "ünïcødé/..\\"} {
		t.Run(name, func(t *testing.T) {
			svc, _, _ := newTestService(t)

			folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: name})
			require.NoError(t, err)
			assert.Equal(t, name, folder.Name)

			folders, err := svc.ListFolders(ctx)
			require.NoError(t, err)
			require.Len(t, folders, 1)
			assert.Equal(t, folder.ID, folders[0].ID)
			assert.Equal(t, name, folders[0].Name)
		})
	}
}

func TestCreateFolder_UsesClock(t *testing.T) {
	fixed := time.Date(2024, 3, 9, 8, 7, 6, 0, time.FixedZone("EST", -5*3600))
	svc, _, _ := newTestService(t, medialib.WithClock(func() time.Time { return fixed }))

	folder, err := svc.CreateFolder(context.Background(), medialib.CreateFolderRequest{Name: "x"})
	require.NoError(t, err)
	assert.True(t, fixed.Equal(folder.CreatedAt))
	assert.Equal(t, time.UTC, folder.CreatedAt.Location())
}

func TestUploadImage(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	img := upload(t, svc, "F1", "beach.jpg", "jpeg bytes")

	assert.Equal(t, "F1", img.FolderID)
	assert.NotEqual(t, "beach.jpg", img.Filename)
	assert.True(t, strings.HasSuffix(img.Filename, ".jpg"))
	assert.Equal(t, "/api/uploads/"+img.Filename, img.URL)
	assert.NotEqual(t, img.ID, strings.TrimSuffix(img.Filename, ".jpg"))
	assert.True(t, fileExists(t, store, img.Filename))

	stored, err := repo.FindImageByID(ctx, img.ID)
	require.NoError(t, err)
	assert.Equal(t, img.Filename, stored.Filename)
}

func TestUploadImage_FilenameCases(t *testing.T) {
	svc, _, _ := newTestService(t)

	tests := []struct {
		original string
		suffix   string
		hasExt   bool
	}{
		{"beach.jpg", ".jpg", true},
		{"archive.tar.gz", ".gz", true},
		{"README", "", false},
		{"../../etc/passwd.png", ".png", true},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			img := upload(t, svc, "F", tt.original, "x")
			assert.NotEqual(t, tt.original, img.Filename)
			assert.NotContains(t, img.Filename, "/")
			if tt.hasExt {
				assert.True(t, strings.HasSuffix(img.Filename, tt.suffix), img.Filename)
			} else {
				assert.NotContains(t, img.Filename, ".")
			}
		})
	}
}

func TestUploadImage_NoFolderCheck(t *testing.T) {
	svc, _, _ := newTestService(t)
	img := upload(t, svc, "does-not-exist", "a.png", "x")
	assert.Equal(t, "does-not-exist", img.FolderID)
}

func TestUploadImage_NilReader(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.UploadImage(context.Background(), medialib.UploadImageRequest{FolderID: "F", OriginalFilename: "a.png"})
	assert.ErrorIs(t, err, medialib.ErrPayloadRequired)
	assert.True(t, medialib.IsValidationError(err))
}

func TestUploadImage_PrefixedKeys(t *testing.T) {
	svc, _, _ := newTestService(t, medialib.WithKeyGenerator(objectkey.NewPrefixedGenerator("img")))
	img := upload(t, svc, "F", "a.png", "x")
	assert.True(t, strings.HasPrefix(img.Filename, "img-"))
	assert.True(t, strings.HasSuffix(img.Filename, ".png"))
}

func TestFetchImage(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	payload := "\x89PNG\r\n\x1a\nfake image"
	img := upload(t, svc, "F", "pic.png", payload)

	content, err := svc.FetchImage(ctx, img.Filename)
	require.NoError(t, err)
	defer content.Reader.Close()

	got, err := io.ReadAll(content.Reader)
	require.NoError(t, err)
	assert.Equal(t, payload, string(got))
	assert.Equal(t, "image/png", content.ContentType)
	assert.Equal(t, int64(len(payload)), content.Size)
	assert.Equal(t, img.Filename, content.Filename)
}

func TestFetchImage_UnknownExtension(t *testing.T) {
	svc, _, _ := newTestService(t)
	img := upload(t, svc, "F", "blob.zzqx", "data")

	content, err := svc.FetchImage(context.Background(), img.Filename)
	require.NoError(t, err)
	defer content.Reader.Close()
	assert.Equal(t, medialib.DefaultContentType, content.ContentType)
}

func TestFetchImage_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, name := range []string{"missing.png", "../secret.png", "a/b.png", "", ".."} {
		_, err := svc.FetchImage(ctx, name)
		assert.ErrorIs(t, err, medialib.ErrFileNotFound, name)
	}
}

func TestDeleteFolder_Cascade(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "Doomed"})
	require.NoError(t, err)
	keep, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "Keep"})
	require.NoError(t, err)

	var owned []*medialib.Image
	for i := 0; i < 3; i++ {
		owned = append(owned, upload(t, svc, folder.ID, "p.jpg", "x"))
	}
	survivor := upload(t, svc, keep.ID, "s.jpg", "y")

	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))

	for _, img := range owned {
		assert.False(t, fileExists(t, store, img.Filename))
		_, err := repo.FindImageByID(ctx, img.ID)
		assert.ErrorIs(t, err, medialib.ErrImageNotFound)
	}

	images, err := svc.ListImages(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, images)

	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, keep.ID, folders[0].ID)

	assert.True(t, fileExists(t, store, survivor.Filename))
	remaining, err := svc.ListImages(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestDeleteFolder_MissingFileTolerated(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "F"})
	require.NoError(t, err)
	a := upload(t, svc, folder.ID, "a.png", "a")
	b := upload(t, svc, folder.ID, "b.png", "b")
	require.NoError(t, store.Delete(ctx, a.Filename))

	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))

	assert.False(t, fileExists(t, store, b.Filename))
	images, err := repo.ListImagesByFolder(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

func TestIdempotentDeletes(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	assert.NoError(t, svc.DeleteFolder(ctx, "no-such-folder"))
	assert.NoError(t, svc.DeleteImage(ctx, "no-such-image"))

	img := upload(t, svc, "F", "a.png", "x")
	assert.NoError(t, svc.DeleteImage(ctx, img.ID))
	assert.NoError(t, svc.DeleteImage(ctx, img.ID))
}

func TestDeleteImage(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	img := upload(t, svc, "F", "a.png", "x")
	other := upload(t, svc, "F", "b.png", "y")

	require.NoError(t, svc.DeleteImage(ctx, img.ID))

	assert.False(t, fileExists(t, store, img.Filename))
	_, err := repo.FindImageByID(ctx, img.ID)
	assert.ErrorIs(t, err, medialib.ErrImageNotFound)

	images, err := svc.ListImages(ctx, "F")
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, other.ID, images[0].ID)
}

func TestDeleteImage_MissingFileTolerated(t *testing.T) {
	svc, repo, store := newTestService(t)
	ctx := context.Background()

	img := upload(t, svc, "F", "a.png", "x")
	require.NoError(t, store.Delete(ctx, img.Filename))

	require.NoError(t, svc.DeleteImage(ctx, img.ID))
	_, err := repo.FindImageByID(ctx, img.ID)
	assert.ErrorIs(t, err, medialib.ErrImageNotFound)
}

func TestListImages_UnknownFolder(t *testing.T) {
	svc, _, _ := newTestService(t)
	images, err := svc.ListImages(context.Background(), "nothing-here")
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func TestTripPhotosScenario(t *testing.T) {
	svc, _, store := newTestService(t)
	ctx := context.Background()

	f1, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "Trip Photos"})
	require.NoError(t, err)

	img := upload(t, svc, f1.ID, "beach.jpg", "sand and sea")
	assert.Equal(t, f1.ID, img.FolderID)
	assert.True(t, strings.HasSuffix(img.Filename, ".jpg"))

	images, err := svc.ListImages(ctx, f1.ID)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, img.ID, images[0].ID)

	require.NoError(t, svc.DeleteFolder(ctx, f1.ID))

	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	for _, f := range folders {
		assert.NotEqual(t, f1.ID, f.ID)
	}
	assert.False(t, fileExists(t, store, img.Filename))

	images, err = svc.ListImages(ctx, f1.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
}

// Collaborators that record calls or inject failures

type callLog struct {
	calls []string
}

func (l *callLog) add(call string) {
	l.calls = append(l.calls, call)
}

type recordingRepo struct {
	medialib.Repository
	log                 *callLog
	deleteImagesErr     error
	insertImageErr      error
	listImagesByFolderE error
}

func (r *recordingRepo) ListImagesByFolder(ctx context.Context, folderID string) ([]*medialib.Image, error) {
	r.log.add("list_images")
	if r.listImagesByFolderE != nil {
		return nil, r.listImagesByFolderE
	}
	return r.Repository.ListImagesByFolder(ctx, folderID)
}

func (r *recordingRepo) DeleteImagesByFolder(ctx context.Context, folderID string) error {
	r.log.add("delete_images")
	if r.deleteImagesErr != nil {
		return r.deleteImagesErr
	}
	return r.Repository.DeleteImagesByFolder(ctx, folderID)
}

func (r *recordingRepo) DeleteFolder(ctx context.Context, id string) error {
	r.log.add("delete_folder")
	return r.Repository.DeleteFolder(ctx, id)
}

func (r *recordingRepo) InsertImage(ctx context.Context, image *medialib.Image) error {
	if r.insertImageErr != nil {
		return r.insertImageErr
	}
	return r.Repository.InsertImage(ctx, image)
}

type recordingStore struct {
	medialib.BlobStore
	log       *callLog
	deleteErr map[string]error
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.log.add("delete_file")
	if err := s.deleteErr[key]; err != nil {
		return err
	}
	return s.BlobStore.Delete(ctx, key)
}

type recordingSink struct {
	medialib.NoopEventSink
	log *callLog
}

func (s *recordingSink) FolderDeleted(ctx context.Context, folderID string, imagesRemoved int) error {
	s.log.add("event_folder_deleted")
	return errors.New("sink unavailable")
}

func newRecordingService(t *testing.T, repo *recordingRepo, store *recordingStore, opts ...medialib.Option) medialib.Service {
	t.Helper()
	options := append([]medialib.Option{
		medialib.WithRepository(repo),
		medialib.WithBlobStore("memory", store),
		medialib.WithLogger(quietLogger),
	}, opts...)
	svc, err := medialib.New(options...)
	require.NoError(t, err)
	return svc
}

func TestDeleteFolder_StepOrder(t *testing.T) {
	log := &callLog{}
	repo := &recordingRepo{Repository: memory.New(), log: log}
	store := &recordingStore{BlobStore: fs.NewMemory(), log: log}
	svc := newRecordingService(t, repo, store, medialib.WithEventSink(&recordingSink{log: log}))
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "F"})
	require.NoError(t, err)
	upload(t, svc, folder.ID, "a.png", "a")
	upload(t, svc, folder.ID, "b.png", "b")
	log.calls = nil

	// A failing event sink does not fail the operation
	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))
	assert.Equal(t, []string{
		"list_images",
		"delete_file",
		"delete_file",
		"delete_images",
		"delete_folder",
		"event_folder_deleted",
	}, log.calls)
}

func TestDeleteFolder_FileFailureSkipped(t *testing.T) {
	log := &callLog{}
	repo := &recordingRepo{Repository: memory.New(), log: log}
	store := &recordingStore{BlobStore: fs.NewMemory(), log: log, deleteErr: map[string]error{}}
	svc := newRecordingService(t, repo, store)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "F"})
	require.NoError(t, err)
	stuck := upload(t, svc, folder.ID, "a.png", "a")
	freed := upload(t, svc, folder.ID, "b.png", "b")
	store.deleteErr[stuck.Filename] = errors.New("permission denied")

	require.NoError(t, svc.DeleteFolder(ctx, folder.ID))

	assert.True(t, fileExists(t, store, stuck.Filename))
	assert.False(t, fileExists(t, store, freed.Filename))

	images, err := svc.ListImages(ctx, folder.ID)
	require.NoError(t, err)
	assert.Empty(t, images)
	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	assert.Empty(t, folders)
}

func TestDeleteFolder_RepositoryFailureAborts(t *testing.T) {
	log := &callLog{}
	repo := &recordingRepo{Repository: memory.New(), log: log}
	store := &recordingStore{BlobStore: fs.NewMemory(), log: log}
	svc := newRecordingService(t, repo, store)
	ctx := context.Background()

	folder, err := svc.CreateFolder(ctx, medialib.CreateFolderRequest{Name: "F"})
	require.NoError(t, err)
	img := upload(t, svc, folder.ID, "a.png", "a")

	repoErr := errors.New("connection reset")
	repo.deleteImagesErr = repoErr
	log.calls = nil

	err = svc.DeleteFolder(ctx, folder.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, repoErr)
	var folderErr *medialib.FolderError
	require.ErrorAs(t, err, &folderErr)
	assert.Equal(t, "delete_images", folderErr.Op)
	assert.NotContains(t, log.calls, "delete_folder")

	// Files already removed stay removed; records survive
	assert.False(t, fileExists(t, store, img.Filename))
	folders, err := svc.ListFolders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 1)
}

func TestDeleteFolder_ListFailure(t *testing.T) {
	log := &callLog{}
	repo := &recordingRepo{Repository: memory.New(), log: log, listImagesByFolderE: medialib.ErrStorageUnavailable}
	store := &recordingStore{BlobStore: fs.NewMemory(), log: log}
	svc := newRecordingService(t, repo, store)

	err := svc.DeleteFolder(context.Background(), "F")
	assert.ErrorIs(t, err, medialib.ErrStorageUnavailable)
	assert.Equal(t, []string{"list_images"}, log.calls)
}

func TestUploadImage_OrphanedFile(t *testing.T) {
	insertErr := errors.New("insert failed")
	fixedKey := medialib.WithKeyGenerator(objectkey.NewCustomFuncGenerator(func(uuid.UUID, string) string {
		return "orphan.png"
	}))

	t.Run("left in place by default", func(t *testing.T) {
		repo := &recordingRepo{Repository: memory.New(), log: &callLog{}, insertImageErr: insertErr}
		store := &recordingStore{BlobStore: fs.NewMemory(), log: &callLog{}}
		svc := newRecordingService(t, repo, store, fixedKey)

		_, err := svc.UploadImage(context.Background(), medialib.UploadImageRequest{
			FolderID: "F", OriginalFilename: "a.png", Reader: bytes.NewReader([]byte("x")),
		})
		require.ErrorIs(t, err, insertErr)
		assert.True(t, fileExists(t, store, "orphan.png"))
	})

	t.Run("removed with compensation", func(t *testing.T) {
		repo := &recordingRepo{Repository: memory.New(), log: &callLog{}, insertImageErr: insertErr}
		store := &recordingStore{BlobStore: fs.NewMemory(), log: &callLog{}}
		svc := newRecordingService(t, repo, store, fixedKey, medialib.WithOrphanCompensation(true))

		_, err := svc.UploadImage(context.Background(), medialib.UploadImageRequest{
			FolderID: "F", OriginalFilename: "a.png", Reader: bytes.NewReader([]byte("x")),
		})
		require.ErrorIs(t, err, insertErr)
		assert.False(t, fileExists(t, store, "orphan.png"))
	})
}

func TestUploadImage_InvalidGeneratedKey(t *testing.T) {
	svc, _, _ := newTestService(t, medialib.WithKeyGenerator(objectkey.NewCustomFuncGenerator(func(uuid.UUID, string) string {
		return "nested/key.png"
	})))

	_, err := svc.UploadImage(context.Background(), medialib.UploadImageRequest{
		FolderID: "F", OriginalFilename: "a.png", Reader: strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, objectkey.ErrInvalidKey)
}
