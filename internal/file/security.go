package file

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
)

var allowedExtensions = map[string]struct{}{
	"txt": {}, "pdf": {}, "png": {}, "jpg": {}, "jpeg": {}, "gif": {},
	"doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {},
	"zip": {}, "rar": {}, "7z": {}, "mp3": {}, "mp4": {}, "avi": {},
	"sql": {}, "py": {}, "js": {}, "html": {}, "css": {}, "json": {}, "xml": {},
}

var (
	imageExtensions    = map[string]struct{}{"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "bmp": {}, "webp": {}, "svg": {}}
	documentExtensions = map[string]struct{}{"txt": {}, "pdf": {}, "doc": {}, "docx": {}, "xls": {}, "xlsx": {}, "ppt": {}, "pptx": {}}
	archiveExtensions  = map[string]struct{}{"zip": {}, "rar": {}, "7z": {}, "tar": {}, "gz": {}, "bz2": {}}
)

// Extension returns the lowercased text after the last dot, or "".
func Extension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

func AllowedExtension(name string) bool {
	_, ok := allowedExtensions[Extension(name)]
	return ok
}

// AllowedExtensions lists the accepted extensions in sorted order.
func AllowedExtensions() []string {
	out := make([]string, 0, len(allowedExtensions))
	for ext := range allowedExtensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// SecureFilename strips directory components and reduces the name to a safe
// ASCII alphabet. A stem that sanitizes to nothing becomes "file" so the
// extension survives non-ASCII names.
func SecureFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == "/" {
		return ""
	}

	ext := Extension(name)
	stem := name
	if ext != "" {
		stem = name[:len(name)-len(ext)-1]
	}

	stem = sanitize(stem)
	ext = sanitize(ext)
	switch {
	case stem == "" && ext == "":
		return ""
	case stem == "":
		stem = "file"
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}

func sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, s)
	s = unsafeFilenameChars.ReplaceAllString(s, "")
	return strings.Trim(s, "._")
}

// HashFilename derives the unique storage name from the original name, the
// current time and 8 random bytes, keeping the lowercased extension.
func HashFilename(original string, now time.Time) (string, error) {
	random := make([]byte, 8)
	if _, err := rand.Read(random); err != nil {
		return "", err
	}
	ts := strconv.FormatFloat(float64(now.UnixNano())/1e9, 'f', 6, 64)
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s_%s_%s", original, ts, hex.EncodeToString(random))))
	hashed := hex.EncodeToString(sum[:])
	if ext := Extension(original); ext != "" {
		return hashed + "." + ext, nil
	}
	return hashed, nil
}

// ClassifyType maps a file to image, document, archive or other. Each
// category matches on extension or MIME prefix, checked in that order, so
// any application/* type counts as a document.
func ClassifyType(name, mimeType string) string {
	ext := Extension(name)
	switch {
	case has(imageExtensions, ext) || strings.HasPrefix(mimeType, "image/"):
		return TypeImage
	case has(documentExtensions, ext) || strings.HasPrefix(mimeType, "application/"):
		return TypeDocument
	case has(archiveExtensions, ext):
		return TypeArchive
	default:
		return TypeOther
	}
}

func has(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

// DetectMIME returns the client supplied type unless it is missing or the
// generic octet-stream, in which case the content head is sniffed. The
// returned reader yields the full content.
func DetectMIME(declared string, r io.Reader) (string, io.Reader, error) {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.HasPrefix(declared, "application/octet-stream") {
		return declared, r, nil
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", nil, err
	}
	head = head[:n]

	detected := mimetype.Detect(head).String()
	if i := strings.IndexByte(detected, ';'); i >= 0 {
		detected = detected[:i]
	}
	return detected, io.MultiReader(bytes.NewReader(head), r), nil
}

func HumanSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
