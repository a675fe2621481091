package wetransfer

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultChunkSize is the part size files are split into for upload (6 MiB).
	DefaultChunkSize = 6291456

	// localIdentifierLength is the server-side key length for local
	// identifiers. Identifiers longer than this are truncated to their
	// suffix; changing it would break the server's deduplication.
	localIdentifierLength = 34

	fileContentIdentifier = "file"
	linkContentIdentifier = "web_content"
)

// Item is a unit that can be registered into a transfer: a local file or a
// web link. Serialize returns the registration payload the API expects.
type Item interface {
	Serialize() any
	fmt.Stringer
}

// lastN returns the trailing n bytes of s, or s unchanged when shorter.
func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// expandUser replaces a leading ~ with the user's home directory.
func expandUser(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// File is a local file registered into a transfer and uploaded in parts.
// LocalIdentifier holds the resolved absolute path; the serialized payload
// carries only its trailing characters as the dedupe key.
type File struct {
	Filename          string
	Filesize          int64
	ChunkSize         int64
	ContentIdentifier string
	LocalIdentifier   string

	// Populated from the add-items response before upload.
	ID                string
	TransferID        string
	MultipartParts    int64
	MultipartUploadID string

	opts options
}

// NewFile builds a File item for a local path. The size is taken once here;
// later mutation of the file is not observed.
func NewFile(path string) (*File, error) {
	abs, err := filepath.Abs(expandUser(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", abs, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory, not a file", abs)
	}

	return &File{
		Filename:          filepath.Base(abs),
		Filesize:          info.Size(),
		ChunkSize:         DefaultChunkSize,
		ContentIdentifier: fileContentIdentifier,
		LocalIdentifier:   abs,
	}, nil
}

type filePayload struct {
	Filename          string `json:"filename"`
	Filesize          int64  `json:"filesize"`
	ContentIdentifier string `json:"content_identifier"`
	LocalIdentifier   string `json:"local_identifier"`
}

// Serialize returns the registration payload for this file.
func (f *File) Serialize() any {
	return filePayload{
		Filename:          f.Filename,
		Filesize:          f.Filesize,
		ContentIdentifier: f.ContentIdentifier,
		LocalIdentifier:   lastN(f.LocalIdentifier, localIdentifierLength),
	}
}

// remoteFileInfo is the server-assigned state a file needs before it can
// upload: its id, the owning transfer, the multipart session and the shared
// client options.
type remoteFileInfo struct {
	id                string
	transferID        string
	multipartParts    int64
	multipartUploadID string
	opts              options
}

func (f *File) loadInfo(info remoteFileInfo) {
	f.ID = info.id
	f.TransferID = info.transferID
	f.MultipartParts = info.multipartParts
	f.MultipartUploadID = info.multipartUploadID
	f.opts = info.opts
}

// Upload reads the file in fixed-size chunks, uploads each part and finishes
// the multipart session. The first failing part aborts the whole upload and
// no finish call is made. A zero-byte file uploads no parts but is still
// finished.
func (f *File) Upload() error {
	fh, err := os.Open(f.LocalIdentifier)
	if err != nil {
		f.opts.logger.Errorf("Failed opening %s for item id: %s: %v", f.LocalIdentifier, f.ID, err)
		return fmt.Errorf("failed to open %s: %w", f.LocalIdentifier, err)
	}
	defer fh.Close()

	if f.opts.partConcurrency > 1 {
		err = f.uploadPartsConcurrent(fh)
	} else {
		err = f.uploadParts(fh)
	}
	if err != nil {
		return err
	}

	return f.finishUpload()
}

// uploadParts splits the reader into chunks and uploads them sequentially,
// numbering parts from 1.
func (f *File) uploadParts(r io.Reader) error {
	buf := make([]byte, f.chunkSize())
	partNumber := int64(1)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			part := make([]byte, n)
			copy(part, buf[:n])
			if uploadErr := f.uploadPart(part, partNumber); uploadErr != nil {
				return uploadErr
			}
			partNumber++
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			f.opts.logger.Errorf("Failed reading %s for item id: %s: %v", f.LocalIdentifier, f.ID, err)
			return fmt.Errorf("failed to read %s: %w", f.LocalIdentifier, err)
		}
	}
}

// uploadPartsConcurrent reads chunks sequentially, so part numbers keep their
// order, but uploads up to partConcurrency of them at a time. The caller only
// finishes the upload after every part has been acknowledged.
func (f *File) uploadPartsConcurrent(r io.Reader) error {
	g := new(errgroup.Group)
	g.SetLimit(f.opts.partConcurrency)

	partNumber := int64(1)
	for {
		buf := make([]byte, f.chunkSize())
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			part := buf[:n]
			number := partNumber
			g.Go(func() error {
				return f.uploadPart(part, number)
			})
			partNumber++
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			f.opts.logger.Errorf("Failed reading %s for item id: %s: %v", f.LocalIdentifier, f.ID, err)
			_ = g.Wait()
			return fmt.Errorf("failed to read %s: %w", f.LocalIdentifier, err)
		}
	}

	return g.Wait()
}

// uploadPart fetches the pre-signed URL for one part and PUTs the raw bytes
// to it. The URL fetch failing means no PUT is attempted.
func (f *File) uploadPart(part []byte, partNumber int64) error {
	path := fmt.Sprintf("/v1/files/%s/uploads/%d/%s", f.ID, partNumber, f.MultipartUploadID)

	resp, err := f.opts.request().get(path)
	if err != nil {
		f.opts.logger.Errorf("Failed fetching url for item id: %s, upload_id: %s, part_number: %d",
			f.ID, f.MultipartUploadID, partNumber)
		return fmt.Errorf("failed to fetch upload url for part %d: %w", partNumber, err)
	}
	defer resp.Body.Close()

	if !httpOK(resp) {
		f.opts.logger.Errorf("Failed fetching url for item id: %s, upload_id: %s, part_number: %d",
			f.ID, f.MultipartUploadID, partNumber)
		return fmt.Errorf("failed to fetch upload url for part %d: %s", partNumber, resp.Status)
	}

	f.opts.logger.Infof("Successfully fetched url for item id: %s, upload_id: %s, part_number: %d",
		f.ID, f.MultipartUploadID, partNumber)

	var body struct {
		UploadURL string `json:"upload_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.UploadURL == "" {
		f.opts.logger.Errorf("Expected 'upload_url' in upload url response for item id: %s, part_number: %d",
			f.ID, partNumber)
		return fmt.Errorf("missing upload_url in response for part %d", partNumber)
	}

	putResp, err := f.opts.request().putRaw(body.UploadURL, part)
	if err != nil {
		f.opts.logger.Errorf("Failed PUT-ing part-number %d for item id: %s", partNumber, f.ID)
		return fmt.Errorf("failed to upload part %d: %w", partNumber, err)
	}
	defer putResp.Body.Close()

	if !httpOK(putResp) {
		f.opts.logger.Errorf("Failed PUT-ing part-number %d for item id: %s", partNumber, f.ID)
		return fmt.Errorf("failed to upload part %d: %s", partNumber, putResp.Status)
	}

	f.opts.logger.Infof("Successfully PUT-ed part-number %d for item id: %s", partNumber, f.ID)
	return nil
}

// finishUpload closes the multipart session once every part is acknowledged.
func (f *File) finishUpload() error {
	resp, err := f.opts.request().post(fmt.Sprintf("/v1/files/%s/uploads/complete", f.ID), nil)
	if err != nil {
		f.opts.logger.Errorf("Failed closing upload for item id: %s", f.ID)
		return fmt.Errorf("failed to finish upload for item %s: %w", f.ID, err)
	}
	defer resp.Body.Close()

	if !httpOK(resp) {
		f.opts.logger.Errorf("Failed closing upload for item id: %s", f.ID)
		return fmt.Errorf("failed to finish upload for item %s: %s", f.ID, resp.Status)
	}

	f.opts.logger.Infof("Successfully closed upload for item id: %s", f.ID)
	return nil
}

func (f *File) chunkSize() int64 {
	if f.ChunkSize > 0 {
		return f.ChunkSize
	}
	return DefaultChunkSize
}

// String returns a formatted string representation of the file item.
func (f *File) String() string {
	return fmt.Sprintf("Transfer item, file type, with size %d, name %s, and local path %s, has %d multi parts",
		f.Filesize, f.Filename, f.LocalIdentifier, f.MultipartParts)
}

// Link is a web link registered into a transfer. It carries no bytes, only
// metadata; its local identifier is derived from the URL itself.
type Link struct {
	URL               string
	Title             string
	ContentIdentifier string
	LocalIdentifier   string
}

// NewLink builds a Link item. The identifier is the trailing part of the
// URL's lowercase hex encoding; URLs with a short encoding keep it whole.
func NewLink(url, title string) *Link {
	return &Link{
		URL:               url,
		Title:             title,
		ContentIdentifier: linkContentIdentifier,
		LocalIdentifier:   lastN(hex.EncodeToString([]byte(url)), localIdentifierLength),
	}
}

type linkMeta struct {
	Title string `json:"title"`
}

type linkPayload struct {
	ContentIdentifier string   `json:"content_identifier"`
	LocalIdentifier   string   `json:"local_identifier"`
	Meta              linkMeta `json:"meta"`
	URL               string   `json:"url"`
}

// Serialize returns the registration payload for this link.
func (l *Link) Serialize() any {
	return linkPayload{
		ContentIdentifier: l.ContentIdentifier,
		LocalIdentifier:   l.LocalIdentifier,
		Meta:              linkMeta{Title: l.Title},
		URL:               l.URL,
	}
}

// String returns a formatted string representation of the link item.
func (l *Link) String() string {
	return fmt.Sprintf("Transfer item, link type, with title %s, url %s and local identifier %s",
		l.Title, l.URL, l.LocalIdentifier)
}
