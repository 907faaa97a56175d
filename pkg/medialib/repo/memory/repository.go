package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/questgearhub/medialib/pkg/medialib"
)

// Repository implements medialib.Repository using in-memory storage.
// Lists come back in insertion order, the way a document store returns
// records without a sort.
type Repository struct {
	mu          sync.RWMutex
	folders     map[string]*medialib.Folder
	folderOrder []string
	images      map[string]*medialib.Image
	imageOrder  []string
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		folders: make(map[string]*medialib.Folder),
		images:  make(map[string]*medialib.Image),
	}
}

// Folder operations

func (r *Repository) InsertFolder(ctx context.Context, folder *medialib.Folder) error {
	if folder == nil || folder.ID == "" {
		return fmt.Errorf("%w: folder id is required", medialib.ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.folders[folder.ID]; !exists {
		r.folderOrder = append(r.folderOrder, folder.ID)
	}
	// Create a copy to avoid external modifications
	folderCopy := *folder
	r.folders[folder.ID] = &folderCopy

	return nil
}

func (r *Repository) ListFolders(ctx context.Context) ([]*medialib.Folder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*medialib.Folder, 0, len(r.folderOrder))
	for _, id := range r.folderOrder {
		if len(result) == medialib.MaxListResults {
			break
		}
		folderCopy := *r.folders[id]
		result = append(result, &folderCopy)
	}

	return result, nil
}

func (r *Repository) DeleteFolder(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.folders[id]; !exists {
		return nil
	}
	delete(r.folders, id)
	r.folderOrder = removeID(r.folderOrder, id)

	return nil
}

// Image operations

func (r *Repository) InsertImage(ctx context.Context, image *medialib.Image) error {
	if image == nil || image.ID == "" {
		return fmt.Errorf("%w: image id is required", medialib.ErrInvalidRecord)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.images[image.ID]; !exists {
		r.imageOrder = append(r.imageOrder, image.ID)
	}
	imageCopy := *image
	r.images[image.ID] = &imageCopy

	return nil
}

func (r *Repository) ListImagesByFolder(ctx context.Context, folderID string) ([]*medialib.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*medialib.Image, 0)
	for _, id := range r.imageOrder {
		if len(result) == medialib.MaxListResults {
			break
		}
		image := r.images[id]
		if image.FolderID != folderID {
			continue
		}
		imageCopy := *image
		result = append(result, &imageCopy)
	}

	return result, nil
}

func (r *Repository) FindImageByID(ctx context.Context, imageID string) (*medialib.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, exists := r.images[imageID]
	if !exists {
		return nil, medialib.ErrImageNotFound
	}

	// Return a copy to prevent external modifications
	imageCopy := *image
	return &imageCopy, nil
}

func (r *Repository) DeleteImagesByFolder(ctx context.Context, folderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := r.imageOrder[:0]
	for _, id := range r.imageOrder {
		if r.images[id].FolderID == folderID {
			delete(r.images, id)
			continue
		}
		kept = append(kept, id)
	}
	r.imageOrder = kept

	return nil
}

func (r *Repository) DeleteImageByID(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.images[id]; !exists {
		return nil
	}
	delete(r.images, id)
	r.imageOrder = removeID(r.imageOrder, id)

	return nil
}

func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}

var _ medialib.Repository = (*Repository)(nil)
