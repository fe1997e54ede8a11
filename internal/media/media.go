// Package media stores uploaded post images on disk.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// ImageDir is the directory under Root that holds post images.
const ImageDir = "posts_images"

// ErrUnsupported is returned for files that are not JPEG, PNG, GIF or WebP
// images, whatever their extension says.
var ErrUnsupported = errors.New("unsupported image type")

var allowed = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

// formats are the image.DecodeConfig format names accepted.
var formats = map[string]bool{"jpeg": true, "png": true, "gif": true, "webp": true}

// sniff decodes the image header of r. The returned reader yields the whole
// stream again, header included.
func sniff(r io.Reader) (io.Reader, error) {
	var head bytes.Buffer
	_, format, err := image.DecodeConfig(io.TeeReader(r, &head))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupported, err)
	}
	if !formats[format] {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, format)
	}
	return io.MultiReader(&head, r), nil
}

type Storage struct {
	Root string
}

// Save writes r under a fresh name keeping the extension of filename and
// returns the path relative to Root.
func (s Storage) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowed[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	r, err := sniff(r)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.Root, ImageDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	rel := ImageDir + "/" + uuid.New().String() + ext
	f, err := os.Create(filepath.Join(s.Root, filepath.FromSlash(rel)))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return rel, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s Storage) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s Storage) resolve(rel string) (string, error) {
	root, err := filepath.Abs(s.Root)
	if err != nil {
		return "", err
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("media: path %q escapes storage root", rel)
	}
	return full, nil
}
