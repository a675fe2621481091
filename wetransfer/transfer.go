package wetransfer

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Transfer owns one transfer's workflow state: the server-assigned id and
// short URL, the ordered list of registered items and the subset of them
// that are files and therefore upload-eligible.
type Transfer struct {
	// ID is set if and only if the create call succeeded.
	ID           string
	ShortenedURL string

	name  string
	items []Item
	files []*File
	opts  options
}

func newTransfer(name string, opts options) *Transfer {
	return &Transfer{
		name: name,
		opts: opts,
	}
}

// addItemResult is one entry of the add-items response array. The array is
// positionally parallel to the items we sent.
type addItemResult struct {
	ID                string `json:"id"`
	ContentIdentifier string `json:"content_identifier"`
	Meta              struct {
		MultipartParts    int64  `json:"multipart_parts"`
		MultipartUploadID string `json:"multipart_upload_id"`
	} `json:"meta"`
}

// create registers the transfer on the server and stores the returned id and
// shortened URL. On failure the transfer stays uncreated.
func (t *Transfer) create() error {
	resp, err := t.opts.request().post("/v1/transfers", map[string]string{"name": t.name})
	if err != nil {
		t.opts.logger.Error("Failed creating new transfer")
		return fmt.Errorf("failed to create transfer: %w", err)
	}
	defer resp.Body.Close()

	if !httpOK(resp) {
		t.opts.logger.Error("Failed creating new transfer")
		return fmt.Errorf("failed to create transfer: %s", resp.Status)
	}

	t.opts.logger.Info("Successfully created new transfer")

	var body struct {
		ID           string `json:"id"`
		ShortenedURL string `json:"shortened_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.opts.logger.Errorf("Failed decoding create transfer response: %v", err)
		return fmt.Errorf("failed to decode create transfer response: %w", err)
	}

	t.ID = body.ID
	t.ShortenedURL = body.ShortenedURL

	return nil
}

// AddItems appends items to the transfer, registers the accumulated item
// list with the server and uploads every file item. The items stay recorded
// even when registration fails. The returned error reflects the whole chain,
// uploads included, not just the registration step.
func (t *Transfer) AddItems(items ...Item) error {
	t.items = append(t.items, items...)

	payload := make([]any, 0, len(t.items))
	for _, item := range t.items {
		payload = append(payload, item.Serialize())
	}

	resp, err := t.opts.request().post(fmt.Sprintf("/v1/transfers/%s/items", t.ID), map[string]any{"items": payload})
	if err != nil {
		t.opts.logger.Errorf("Failed to add items: %v to transfer %s", t.items, t.ID)
		return fmt.Errorf("failed to add items to transfer %s: %w", t.ID, err)
	}
	defer resp.Body.Close()

	returned, err := t.validateAddItemsResponse(resp)
	if err != nil {
		return err
	}

	t.opts.logger.Infof("Successfully added items: %v to transfer %s", t.items, t.ID)

	// The response array is index-parallel to the items we sent. Every
	// non-link entry carries the server state its file needs for upload.
	for index, result := range returned {
		if result.ContentIdentifier == linkContentIdentifier {
			continue
		}

		file, ok := t.items[index].(*File)
		if !ok {
			t.opts.logger.Errorf("Item at index %d is not a file but server returned content identifier %q",
				index, result.ContentIdentifier)
			return fmt.Errorf("item at index %d is not a file", index)
		}

		file.loadInfo(remoteFileInfo{
			id:                result.ID,
			transferID:        t.ID,
			multipartParts:    result.Meta.MultipartParts,
			multipartUploadID: result.Meta.MultipartUploadID,
			opts:              t.opts,
		})
		t.files = append(t.files, file)
	}

	return t.uploadItems()
}

// validateAddItemsResponse checks status and shape of the add-items response.
// The server must return exactly one entry per item we hold.
func (t *Transfer) validateAddItemsResponse(resp *http.Response) ([]addItemResult, error) {
	if !httpOK(resp) {
		t.opts.logger.Errorf("Failed to add items: %v to transfer %s", t.items, t.ID)
		return nil, fmt.Errorf("failed to add items to transfer %s: %s", t.ID, resp.Status)
	}

	var returned []addItemResult
	if err := json.NewDecoder(resp.Body).Decode(&returned); err != nil {
		t.opts.logger.Errorf("Failed decoding add items response for transfer %s: %v", t.ID, err)
		return nil, fmt.Errorf("failed to decode add items response: %w", err)
	}

	if len(returned) != len(t.items) {
		t.opts.logger.Errorf("Add items API call didn't return same number of items (%d) than what we sent (%d)",
			len(returned), len(t.items))
		return nil, fmt.Errorf("add items returned %d items, sent %d", len(returned), len(t.items))
	}

	return returned, nil
}

// uploadItems uploads every file item in registration order. The first
// failure aborts: remaining files are not attempted and already uploaded
// parts are not rolled back.
func (t *Transfer) uploadItems() error {
	for _, file := range t.files {
		if err := file.Upload(); err != nil {
			t.opts.logger.Errorf("Failed to upload item %s", file)
			return fmt.Errorf("failed to upload item %s: %w", file.Filename, err)
		}
		t.opts.logger.Infof("Successfully uploaded item %s", file)
	}
	return nil
}

// AddFiles builds File items for the given paths and registers and uploads
// them through AddItems.
func (t *Transfer) AddFiles(paths ...string) error {
	items := make([]Item, 0, len(paths))
	for _, path := range paths {
		file, err := NewFile(path)
		if err != nil {
			t.opts.logger.Errorf("Failed to add file %s: %v", path, err)
			return err
		}
		if t.opts.chunkSize > 0 {
			file.ChunkSize = t.opts.chunkSize
		}
		items = append(items, file)
	}
	return t.AddItems(items...)
}

// AddLinks builds Link items for the given URLs and registers them through
// AddItems. The URL doubles as the link's title; use NewLink with AddItems
// for an explicit title.
func (t *Transfer) AddLinks(urls ...string) error {
	items := make([]Item, 0, len(urls))
	for _, url := range urls {
		items = append(items, NewLink(url, url))
	}
	return t.AddItems(items...)
}

// Items returns the registered items in registration order.
func (t *Transfer) Items() []Item {
	return t.items
}

// Files returns the upload-eligible file items in registration order.
func (t *Transfer) Files() []*File {
	return t.files
}

// String returns a formatted string representation of the transfer.
func (t *Transfer) String() string {
	return fmt.Sprintf("Transfer with id: %s, can be found in short url: %s, with following items: %v",
		t.ID, t.ShortenedURL, t.items)
}
