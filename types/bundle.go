package types

import "io"

const PackageFileName = "package.pck"
const ThumbnailFileName = "thumbnail.png"

// ManifestEntry is one bundle as it appears in the generated listing.
type ManifestEntry struct {
	Name      string `json:"name"`
	Package   string `json:"package"`
	Thumbnail string `json:"thumbnail"`
}

// UploadedFile is a file part of an upload request. Open may be called more
// than once; every returned reader must be closed by the caller.
type UploadedFile struct {
	Filename string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

type BundleUpload struct {
	Name      string
	Package   *UploadedFile
	Thumbnail *UploadedFile
}

// StoredBundle describes a bundle after it has been placed in storage.
type StoredBundle struct {
	Name             string
	Folder           string
	DefaultThumbnail bool
}
