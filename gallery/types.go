// Package gallery finds embedded [gallery] directives in post bodies,
// resolves the attachments they reference to on-disk sizes, and builds
// one report row per post.
//
// Storage and presentation live outside this package: posts come from a
// PostRepository, attachment metadata from an AssetRegistry, and rows are
// handed to whatever renderer the caller chooses.
package gallery

import "errors"

var (
	// ErrAssetNotFound is returned by an AssetRegistry when an identifier
	// does not resolve to a known attachment.
	ErrAssetNotFound = errors.New("gallery: asset not found")

	// ErrInvalidSort is returned by ParseSort for fields or directions
	// outside the allow-list.
	ErrInvalidSort = errors.New("gallery: invalid sort")
)

// AssetID identifies an attachment. Non-numeric ids in a directive coerce to 0.
type AssetID int64

// Post is the subset of a blog post the report reads.
type Post struct {
	ID      int64
	Title   string
	Slug    string
	Date    string // YYYY-MM-DD
	Content string
	Link    string // path such as /blog/slug/
}

// GalleryDirective is one [gallery] tag found in a post body.
type GalleryDirective struct {
	Offset   int               // byte offset of the tag in the body
	Attrs    map[string]string // lowercased attribute keys
	IDs      []AssetID
	Fallback bool // IDs came from the post's attached images
}

// PhotoCount is the number of referenced attachments.
func (d GalleryDirective) PhotoCount() int {
	return len(d.IDs)
}

// Rendition is a derived size of an attachment, e.g. "thumbnail".
type Rendition struct {
	Name     string `json:"name"`
	File     string `json:"file"`     // basename, in the same directory as Asset.File
	FileSize int64  `json:"filesize"` // cached size; 0 when unknown
}

// Asset is a media attachment as recorded by the registry.
type Asset struct {
	ID            AssetID     `json:"id"`
	PostID        int64       `json:"post_id"`
	MimeType      string      `json:"mime_type"`
	File          string      `json:"file"`                     // slash-separated path relative to the upload root
	FileSize      int64       `json:"filesize"`                 // cached size; 0 when unknown
	OriginalImage string      `json:"original_image,omitempty"` // basename of the pre-scaling source, if kept
	Renditions    []Rendition `json:"renditions,omitempty"`
}

// Rendition names used in error records that are not derived sizes.
const (
	RenditionMain     = "main"
	RenditionOriginal = "original"
	RenditionAsset    = "asset"
)

// RenditionError records a rendition whose size could not be determined.
type RenditionError struct {
	Name   string `json:"name"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason"`
}

// AssetSizeReport is the result of resolving one attachment.
type AssetSizeReport struct {
	AssetID        AssetID
	Total          int64
	MainBytes      int64
	OriginalBytes  int64
	RenditionBytes map[string]int64
	Errors         []RenditionError
	Missing        bool // the registry has no such asset
}

// AssetError ties a rendition error to the asset it came from.
type AssetError struct {
	AssetID AssetID `json:"asset_id"`
	RenditionError
}

// PostGalleryRow is one line of the report. It is not modified after BuildRow returns it.
type PostGalleryRow struct {
	PostID        int64
	Title         string
	Link          string
	Date          string
	Galleries     []int // photo count per directive, in document order
	GalleryCount  int
	Photos        int
	FilesizeBytes int64
	Errors        []AssetError
}

// Pagination describes the page a report covers.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}

// Column is a report column definition handed to renderers.
type Column struct {
	Key      string `json:"key"`
	Label    string `json:"label"`
	Sortable bool   `json:"sortable"`
}

// Column keys.
const (
	ColumnID        = "id"
	ColumnTitle     = "title"
	ColumnDate      = "date"
	ColumnGalleries = "galleries"
	ColumnPhotos    = "photos"
	ColumnFilesize  = "filesize"
)

// DefaultColumns returns the report columns in display order.
func DefaultColumns() []Column {
	return []Column{
		{Key: ColumnID, Label: "ID", Sortable: true},
		{Key: ColumnTitle, Label: "Title"},
		{Key: ColumnDate, Label: "Date"},
		{Key: ColumnGalleries, Label: "Galleries"},
		{Key: ColumnPhotos, Label: "Photos"},
		{Key: ColumnFilesize, Label: "Filesize"},
	}
}
