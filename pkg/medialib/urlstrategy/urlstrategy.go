package urlstrategy

// DefaultPathPrefix is where the HTTP layer serves stored image payloads
const DefaultPathPrefix = "/api/uploads"

// URLStrategy derives the stable retrieval URL recorded on an image from its
// generated filename.
type URLStrategy interface {
	ImageURL(filename string) (string, error)
}
