package console

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"inventory.GO/client"
	"inventory.GO/console/notify"
)

// MaxImageSize bounds the files ImageUpload accepts.
const MaxImageSize = 10 << 20

type UploadOutcome int

const (
	NothingDecoded UploadOutcome = iota
	TextDecoded
	ItemFound
)

// ImageUpload decodes a barcode from an image file through the service.
type ImageUpload struct {
	page
	api    API
	name   string
	data   []byte
	result *client.DecodeResult
}

func NewImageUpload(ctx context.Context, api API, notes *notify.Center) *ImageUpload {
	u := &ImageUpload{api: api}
	u.init(ctx, notes)
	u.ready()
	return u
}

// Select keeps data for decoding if it sniffs as an image and fits the
// size limit.
func (u *ImageUpload) Select(name string, data []byte) error {
	if len(data) == 0 {
		return u.reject("Please select an image file")
	}
	if err := u.check(int64(len(data)), data); err != nil {
		return err
	}
	u.mu.Lock()
	u.name, u.data, u.result = name, data, nil
	delete(u.fields, "image")
	u.mu.Unlock()
	return nil
}

// SelectFile is Select for a file on disk. Oversized files are rejected
// before they are read.
func (u *ImageUpload) SelectFile(path string) error {
	st, err := os.Stat(path)
	if err != nil {
		u.notes.Error(fmt.Sprintf("Failed to open %s: %v", path, err))
		return err
	}
	if err := u.check(st.Size(), nil); err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		u.notes.Error(fmt.Sprintf("Failed to read %s: %v", path, err))
		return err
	}
	return u.Select(filepath.Base(path), data)
}

func (u *ImageUpload) check(size int64, data []byte) error {
	if size > MaxImageSize {
		msg := fmt.Sprintf("File size must be less than %s (got %s)", humanize.IBytes(MaxImageSize), humanize.IBytes(uint64(size)))
		return u.reject(msg)
	}
	if data != nil && !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return u.reject("Please select an image file")
	}
	return nil
}

func (u *ImageUpload) reject(msg string) error {
	u.setField("image", msg)
	u.notes.Error(msg)
	return &client.ValidationError{Field: "image", Message: msg}
}

// Decode sends the selected image to the service.
func (u *ImageUpload) Decode() (UploadOutcome, error) {
	u.mu.Lock()
	data := u.data
	u.mu.Unlock()
	if len(data) == 0 {
		return NothingDecoded, u.reject("Please select an image file first")
	}

	ctx, gen, err := u.begin()
	if err != nil {
		return NothingDecoded, err
	}
	res, err := u.api.DecodeBarcodeFromImage(ctx, data)
	if !u.settle(gen, err, func() { u.result = &res }) {
		return NothingDecoded, ErrSuperseded
	}
	if err != nil {
		u.report("Failed to decode barcode from image", err)
		return NothingDecoded, err
	}
	switch {
	case res.MatchedItem != nil:
		u.notes.Success("Found item: " + res.MatchedItem.Name)
		return ItemFound, nil
	case !res.Empty():
		u.notes.Info("Decoded barcode: " + *res.DecodedText)
		return TextDecoded, nil
	default:
		u.notes.Warning("No barcode found in the image")
		return NothingDecoded, nil
	}
}

// UpdateQuantity patches the quantity of the found item and refetches it.
func (u *ImageUpload) UpdateQuantity(quantity int) error {
	u.mu.Lock()
	var id int64
	if u.result != nil && u.result.MatchedItem != nil {
		id = u.result.MatchedItem.ID
	}
	u.mu.Unlock()
	if id == 0 {
		return ErrNotReady
	}

	ctx, gen, err := u.beginWrite()
	if err != nil {
		return err
	}
	if _, err := u.api.UpdateItemQuantity(ctx, id, quantity); err != nil {
		if u.rollback(gen, err) {
			u.report("Failed to update quantity", err)
		}
		return err
	}
	u.notes.Success("Quantity updated successfully")

	item, err := u.api.GetItem(ctx, id)
	applied := u.settle(gen, err, func() {
		if u.result != nil {
			u.result.MatchedItem = &item
		}
	})
	if !applied {
		return ErrSuperseded
	}
	if err != nil {
		u.report("Failed to refresh item data", err)
	}
	return err
}

// Result is the last decode result, nil before the first decode.
func (u *ImageUpload) Result() *client.DecodeResult {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.result
}

func (u *ImageUpload) Selected() (string, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.name, len(u.data)
}

// Clear drops the selection and the result. A decode still in flight is
// discarded.
func (u *ImageUpload) Clear() {
	u.mu.Lock()
	u.name, u.data, u.result = "", nil, nil
	u.fields = make(map[string]string)
	u.gen++
	u.status = Loaded
	u.err = nil
	u.mu.Unlock()
}
