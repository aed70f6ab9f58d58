package galleryreport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/image/draw"

	"github.com/eringen/galleryreport/gallery"
)

const (
	bigImageThreshold = 2560
	jpegQuality       = 82
	maxUploadSize     = 20 << 20 // 20MB
)

// renditionSpec is a derived size generated on import.
type renditionSpec struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

var defaultRenditions = []renditionSpec{
	{Name: "thumbnail", Width: 150, Height: 150, Crop: true},
	{Name: "medium", Width: 300, Height: 300},
	{Name: "large", Width: 1024, Height: 1024},
}

// fitBox returns the largest size within w×h keeping the aspect ratio.
func fitBox(srcW, srcH, w, h int) (int, int) {
	if srcW <= w && srcH <= h {
		return srcW, srcH
	}
	if srcW*h > srcH*w {
		return w, max(1, srcH*w/srcW)
	}
	return max(1, srcW*h/srcH), h
}

// cropRect returns the centered source rectangle matching the w:h ratio.
func cropRect(b image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	if srcW*h > srcH*w {
		cw := srcH * w / h
		x := b.Min.X + (srcW-cw)/2
		return image.Rect(x, b.Min.Y, x+cw, b.Max.Y)
	}
	ch := srcW * h / w
	y := b.Min.Y + (srcH-ch)/2
	return image.Rect(b.Min.X, y, b.Max.X, y+ch)
}

func scale(src image.Image, sr image.Rectangle, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, sr, draw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// processedImage is an upload decoded and re-encoded into every file it
// needs. File names are derived from a basename chosen afterwards.
type processedImage struct {
	main       []byte // main rendition
	scaled     bool   // main was scaled down past bigImageThreshold
	original   []byte // pre-scaling source, when scaled
	renditions []encodedRendition
}

type encodedRendition struct {
	name   string // rendition name, e.g. "thumbnail"
	suffix string // "-WxH"
	data   []byte
}

// processImage decodes src, scales it down past bigImageThreshold, and
// generates the derived renditions smaller than the result.
func processImage(src io.Reader) (*processedImage, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	out := &processedImage{}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w > bigImageThreshold || h > bigImageThreshold {
		if out.original, err = encodeJPEG(img); err != nil {
			return nil, err
		}
		w, h = fitBox(w, h, bigImageThreshold, bigImageThreshold)
		img = scale(img, b, w, h)
		b = img.Bounds()
		out.scaled = true
	}
	if out.main, err = encodeJPEG(img); err != nil {
		return nil, err
	}

	for _, spec := range defaultRenditions {
		if w <= spec.Width && h <= spec.Height {
			continue
		}
		var (
			rw, rh int
			sr     = b
		)
		if spec.Crop {
			rw, rh = min(spec.Width, w), min(spec.Height, h)
			sr = cropRect(b, rw, rh)
		} else {
			rw, rh = fitBox(w, h, spec.Width, spec.Height)
		}
		data, err := encodeJPEG(scale(img, sr, rw, rh))
		if err != nil {
			return nil, err
		}
		out.renditions = append(out.renditions, encodedRendition{
			name:   spec.Name,
			suffix: "-" + strconv.Itoa(rw) + "x" + strconv.Itoa(rh),
			data:   data,
		})
	}
	return out, nil
}

// importFile is one file an import writes into the month directory.
type importFile struct {
	name string
	data []byte
}

// layout names every file for base. The main file comes first, then
// the original when the upload was scaled, then the renditions.
func (p *processedImage) layout(base string) ([]importFile, []gallery.Rendition) {
	mainName := base + ".jpg"
	if p.scaled {
		mainName = base + "-scaled.jpg"
	}
	files := []importFile{{name: mainName, data: p.main}}
	if p.original != nil {
		files = append(files, importFile{name: base + ".jpg", data: p.original})
	}
	sizes := make([]gallery.Rendition, 0, len(p.renditions))
	for _, r := range p.renditions {
		name := base + r.suffix + ".jpg"
		files = append(files, importFile{name: name, data: r.data})
		sizes = append(sizes, gallery.Rendition{Name: r.name, File: name, FileSize: int64(len(r.data))})
	}
	return files, sizes
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	s := Slugify(strings.TrimSuffix(name, ext))
	if s == "" {
		s = "image"
	}
	return s
}

// Slugify converts a title to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	prev := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prev = false
		default:
			if !prev && b.Len() > 0 {
				b.WriteByte('-')
				prev = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// uniqueBase appends a counter to base until none of the files the
// import would write exist in dir.
func uniqueBase(dir, base string, img *processedImage) string {
	candidate := base
	for counter := 2; ; counter++ {
		files, _ := img.layout(candidate)
		free := true
		for _, f := range files {
			if _, err := os.Lstat(filepath.Join(dir, f.name)); !errors.Is(err, fs.ErrNotExist) {
				free = false
				break
			}
		}
		if free {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, counter)
	}
}

// ImportImage stores an uploaded image under the uploads directory,
// generates its renditions, and registers it as an attachment of postID.
func (a *App) ImportImage(ctx context.Context, postID int64, src io.Reader, originalName string) (gallery.Asset, error) {
	if _, err := a.Store.GetPost(ctx, postID); err != nil {
		return gallery.Asset{}, fmt.Errorf("post %d: %w", postID, err)
	}

	now := a.now()
	sub := path.Join(now.Format("2006"), now.Format("01"))
	dir := filepath.Join(a.Config.UploadsDir, filepath.FromSlash(sub))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return gallery.Asset{}, fmt.Errorf("create uploads dir: %w", err)
	}

	img, err := processImage(src)
	if err != nil {
		return gallery.Asset{}, err
	}
	base := uniqueBase(dir, slugifyFilename(originalName), img)
	files, sizes := img.layout(base)
	asset := gallery.Asset{
		PostID:     postID,
		MimeType:   "image/jpeg",
		File:       path.Join(sub, files[0].name),
		FileSize:   int64(len(img.main)),
		Renditions: sizes,
	}
	if img.original != nil {
		asset.OriginalImage = files[1].name
	}

	var written []string
	cleanup := func() {
		for _, p := range written {
			if err := os.Remove(p); err != nil {
				a.Logger.Warn("remove partial import", zap.String("path", p), zap.Error(err))
			}
		}
	}
	for _, f := range files {
		p := filepath.Join(dir, f.name)
		if err := os.WriteFile(p, f.data, 0o644); err != nil {
			cleanup()
			return gallery.Asset{}, fmt.Errorf("write %s: %w", f.name, err)
		}
		written = append(written, p)
	}

	order, err := a.Store.NextMenuOrder(ctx, postID)
	if err != nil {
		cleanup()
		return gallery.Asset{}, err
	}
	asset, err = a.Store.SaveAttachment(ctx, asset, order)
	if err != nil {
		cleanup()
		return gallery.Asset{}, err
	}
	a.Logger.Info("image imported",
		zap.Int64("post_id", postID),
		zap.Int64("asset_id", int64(asset.ID)),
		zap.String("file", asset.File),
		zap.Int("renditions", len(asset.Renditions)))
	return asset, nil
}

func (a *App) now() time.Time {
	if a.clock != nil {
		return a.clock()
	}
	return time.Now().UTC()
}

func (a *App) handleImageUpload(c echo.Context) error {
	if !IsAdmin(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/")
	}

	postID, err := strconv.ParseInt(c.FormValue("post_id"), 10, 64)
	if err != nil || postID < 1 {
		return c.String(http.StatusBadRequest, "Valid post_id required")
	}
	file, err := c.FormFile("image")
	if err != nil {
		return c.String(http.StatusBadRequest, "No image file provided")
	}
	if file.Size > maxUploadSize {
		return c.String(http.StatusBadRequest, "File too large (max 20MB)")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := a.ImportImage(c.Request().Context(), postID, src, file.Filename); err != nil {
		if isNotFound(err) {
			return c.String(http.StatusNotFound, "Post not found")
		}
		return c.String(http.StatusBadRequest, "Invalid image: "+err.Error())
	}
	return c.Redirect(http.StatusSeeOther, "/admin/galleries/")
}
