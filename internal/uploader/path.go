package uploader

import (
	"path"
	"strings"

	"minicdn/internal/storage"
)

// Target is the resolved location of an upload, relative to the upload root.
type Target struct {
	Directory string // sanitized logical directory, "" for the root
	Filename  string
	Key       string // slash separated, e.g. "pics/abc.png"
}

// URLPath returns the server relative path the file is served under.
func (t Target) URLPath() string {
	return "/" + t.Key
}

// ResolveUpload builds the target for an upload from the optional directory
// query parameter and the filename. Leading and trailing slashes of directory
// are ignored, empty segments are collapsed. Any "." or ".." segment,
// backslash, NUL byte or segment starting with the staging prefix yields
// ErrInvalidPath.
func ResolveUpload(directory, filename string) (Target, error) {
	dir, err := cleanSegments(directory)
	if err != nil {
		return Target{}, err
	}
	if err := validateFilename(filename); err != nil {
		return Target{}, err
	}

	return Target{
		Directory: dir,
		Filename:  filename,
		Key:       path.Join(dir, filename),
	}, nil
}

// ResolveKey sanitizes a slash separated path taken from a URL (the delete
// route). The result may be "" when p names the upload root itself.
func ResolveKey(p string) (string, error) {
	return cleanSegments(p)
}

func cleanSegments(p string) (string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", nil
	}

	parts := strings.Split(p, "/")
	segments := parts[:0]
	for _, segment := range parts {
		if segment == "" {
			continue
		}
		if err := validateSegment(segment); err != nil {
			return "", err
		}
		segments = append(segments, segment)
	}

	return strings.Join(segments, "/"), nil
}

func validateSegment(segment string) error {
	if segment == "." || segment == ".." {
		return ErrInvalidPath
	}
	if strings.ContainsAny(segment, "\\\x00") {
		return ErrInvalidPath
	}
	// reserved for staged uploads
	if strings.HasPrefix(segment, storage.TempPrefix) {
		return ErrInvalidPath
	}
	return nil
}

func validateFilename(name string) error {
	if name == "" || strings.Contains(name, "/") {
		return ErrInvalidPath
	}
	return validateSegment(name)
}
