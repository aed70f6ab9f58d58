package gallery

import (
	"errors"
	"io/fs"
	"path"
)

// Resolver computes the on-disk footprint of attachments. FS is rooted
// at the upload directory; asset paths are resolved inside it.
type Resolver struct {
	FS fs.FS

	// IncludeOriginalInTotal adds the pre-scaling source file to Total.
	// It is always measured and reported in OriginalBytes either way.
	IncludeOriginalInTotal bool
}

// NewResolver returns a Resolver reading from fsys.
func NewResolver(fsys fs.FS, includeOriginal bool) *Resolver {
	return &Resolver{FS: fsys, IncludeOriginalInTotal: includeOriginal}
}

// Resolve sums the sizes of an asset's main file and derived renditions.
// Failures are recorded per rendition and contribute zero.
func (r *Resolver) Resolve(a Asset) AssetSizeReport {
	rep := AssetSizeReport{AssetID: a.ID}
	dir := path.Dir(a.File)

	if a.File == "" {
		rep.addError(RenditionMain, "", "no file recorded")
	} else if n, ok := r.size(&rep, RenditionMain, a.File, a.FileSize); ok {
		rep.MainBytes = n
		rep.Total += n
	}

	if a.OriginalImage != "" {
		// The original has no cached size in the registry.
		if n, ok := r.size(&rep, RenditionOriginal, path.Join(dir, a.OriginalImage), 0); ok {
			rep.OriginalBytes = n
			if r.IncludeOriginalInTotal {
				rep.Total += n
			}
		}
	}

	for _, rd := range a.Renditions {
		if rd.File == "" {
			rep.addError(rd.Name, "", "no file recorded")
			continue
		}
		n, ok := r.size(&rep, rd.Name, path.Join(dir, rd.File), rd.FileSize)
		if !ok {
			continue
		}
		if rep.RenditionBytes == nil {
			rep.RenditionBytes = make(map[string]int64, len(a.Renditions))
		}
		rep.RenditionBytes[rd.Name] += n
		rep.Total += n
	}
	return rep
}

// size prefers the cached value and stats the file otherwise.
func (r *Resolver) size(rep *AssetSizeReport, name, p string, cached int64) (int64, bool) {
	if cached > 0 {
		return cached, true
	}
	n, err := r.stat(p)
	if err != nil {
		rep.addError(name, p, statReason(err))
		return 0, false
	}
	return n, true
}

var errNotRegular = errors.New("not a regular file")

func (r *Resolver) stat(p string) (int64, error) {
	if r.FS == nil {
		return 0, fs.ErrNotExist
	}
	if !fs.ValidPath(p) {
		return 0, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrInvalid}
	}
	info, err := fs.Stat(r.FS, p)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, errNotRegular
	}
	return info.Size(), nil
}

func statReason(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "file not found"
	case errors.Is(err, errNotRegular):
		return errNotRegular.Error()
	default:
		return err.Error()
	}
}

func (rep *AssetSizeReport) addError(name, p, reason string) {
	rep.Errors = append(rep.Errors, RenditionError{Name: name, Path: p, Reason: reason})
}
