package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/previewcap/previewcap/internal/model"
	"github.com/previewcap/previewcap/internal/repository"
	"github.com/stretchr/testify/require"
)

// fakeArtifactRepo mimics the unique-constraint semantics of the real
// repository: the first insert for a page wins, later ones read it back.
type fakeArtifactRepo struct {
	mu     sync.Mutex
	byPage map[string]*model.Artifact
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{byPage: map[string]*model.Artifact{}}
}

func (f *fakeArtifactRepo) ByPageID(pageID string) (*model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.byPage[pageID]
	if !ok {
		return nil, repository.ErrArtifactNotFound
	}
	return a, nil
}

func (f *fakeArtifactRepo) CreateIfAbsent(artifact *model.Artifact) (*model.Artifact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byPage[artifact.PageID]; ok {
		return existing, nil
	}
	if artifact.ID == "" {
		artifact.ID = uuid.New().String()
	}
	stored := *artifact
	f.byPage[artifact.PageID] = &stored
	return &stored, nil
}

func (f *fakeArtifactRepo) DeleteByPageID(pageID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byPage, pageID)
	return nil
}

func (f *fakeArtifactRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byPage)
}

type fakeStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
	saves int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{blobs: map[string][]byte{}}
}

func (f *fakeStorage) Save(ctx context.Context, path string, blob io.Reader) error {
	data, err := io.ReadAll(blob)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[path] = data
	f.saves++
	return nil
}

func (f *fakeStorage) Delete(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, path)
	return nil
}

func (f *fakeStorage) URL(path string) string {
	return "https://blobs.test/" + path
}

// failingStorage rejects every write, standing in for an unreachable
// blob backend.
type failingStorage struct{}

func (failingStorage) Save(ctx context.Context, path string, blob io.Reader) error {
	return errors.New("storage unavailable")
}

func (failingStorage) Delete(ctx context.Context, path string) error { return nil }

func (failingStorage) URL(path string) string { return "https://blobs.test/" + path }

func pngPayload(body string) string {
	return screenshotDataURIPrefix + base64.StdEncoding.EncodeToString([]byte(body))
}

func TestPersistRejectsMissingPayload(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	url, err := svc.Persist(context.Background(), "42", "")
	require.ErrorIs(t, err, ErrScreenshotMissing)
	require.Empty(t, url)
	require.Zero(t, repo.count())
	require.Zero(t, store.saves)
}

func TestPersistRejectsMalformedPayload(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	_, err := svc.Persist(context.Background(), "42", screenshotDataURIPrefix+"!!!not-base64!!!")
	require.Error(t, err)
	require.Zero(t, repo.count())
	require.Zero(t, store.saves)
}

func TestPersistCreatesArtifact(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	url, err := svc.Persist(context.Background(), "42", pngPayload("first capture"))
	require.NoError(t, err)
	require.Equal(t, "https://blobs.test/screenshots/page-screenshot-42.png", url)

	artifact, err := repo.ByPageID("42")
	require.NoError(t, err)
	require.Equal(t, "42", artifact.PageID)
	require.Equal(t, url, artifact.URL)
	require.EqualValues(t, len("first capture"), artifact.Size)
	require.Equal(t, []byte("first capture"), store.blobs[artifact.StoragePath])
}

func TestPersistFailedUploadLeavesNoMapping(t *testing.T) {
	repo := newFakeArtifactRepo()
	svc := NewScreenshotService(repo, failingStorage{})

	url, err := svc.Persist(context.Background(), "42", pngPayload("first capture"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrScreenshotMissing)
	require.Empty(t, url)
	// No artifact row may exist for a blob that was never written.
	require.Zero(t, repo.count())

	// Once storage recovers the same page persists cleanly.
	recovered := NewScreenshotService(repo, newFakeStorage())
	url, err = recovered.Persist(context.Background(), "42", pngPayload("first capture"))
	require.NoError(t, err)
	require.Equal(t, "https://blobs.test/screenshots/page-screenshot-42.png", url)
	require.Equal(t, 1, repo.count())
}

// cancelAwareStorage fails the write if the context it is handed has
// already been canceled, the way a real client would.
type cancelAwareStorage struct {
	*fakeStorage
}

func (c cancelAwareStorage) Save(ctx context.Context, path string, blob io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.fakeStorage.Save(ctx, path, blob)
}

func TestPersistSurvivesCallerDisconnect(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := cancelAwareStorage{newFakeStorage()}
	svc := NewScreenshotService(repo, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The first caller dropping its connection must not poison the
	// upload other collapsed callers are waiting on.
	url, err := svc.Persist(ctx, "42", pngPayload("first capture"))
	require.NoError(t, err)
	require.Equal(t, "https://blobs.test/screenshots/page-screenshot-42.png", url)
	require.Equal(t, 1, repo.count())
	require.Equal(t, 1, store.saves)
}

func TestPersistIsIdempotent(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	first, err := svc.Persist(context.Background(), "42", pngPayload("first capture"))
	require.NoError(t, err)

	// Different bytes on the second call: must return the original URL,
	// upload nothing, and leave exactly one artifact.
	second, err := svc.Persist(context.Background(), "42", pngPayload("second capture"))
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.count())
	require.Equal(t, 1, store.saves)
	require.Equal(t, []byte("first capture"), store.blobs["screenshots/page-screenshot-42.png"])
}

func TestPersistDistinctPages(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	urlA, err := svc.Persist(context.Background(), "a", pngPayload("capture a"))
	require.NoError(t, err)
	urlB, err := svc.Persist(context.Background(), "b", pngPayload("capture b"))
	require.NoError(t, err)

	require.NotEqual(t, urlA, urlB)
	require.Equal(t, 2, repo.count())
}

func TestPersistConcurrentFirstCaptures(t *testing.T) {
	repo := newFakeArtifactRepo()
	store := newFakeStorage()
	svc := NewScreenshotService(repo, store)

	const n = 8
	urls := make([]string, n)
	errs := make([]error, n)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			urls[i], errs[i] = svc.Persist(context.Background(), "42", pngPayload(fmt.Sprintf("capture %d", i)))
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, urls[0], urls[i])
	}
	require.Equal(t, 1, repo.count())
}
