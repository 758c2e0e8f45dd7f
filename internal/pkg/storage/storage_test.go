package storage

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/smithy-go"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestValidateArtwork(t *testing.T) {
	data, mime, ext, err := ValidateArtwork(bytes.NewReader(pngBytes(t)), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mime != "image/png" || ext != ".png" || len(data) == 0 {
		t.Fatalf("unexpected result mime=%s ext=%s len=%d", mime, ext, len(data))
	}

	if _, _, _, err := ValidateArtwork(strings.NewReader(""), 0); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("expected ErrEmptyFile, got %v", err)
	}
	if _, _, _, err := ValidateArtwork(strings.NewReader("plain text"), 0); !errors.Is(err, ErrInvalidMimeType) {
		t.Fatalf("expected ErrInvalidMimeType, got %v", err)
	}
	if _, _, _, err := ValidateArtwork(bytes.NewReader(pngBytes(t)), 8); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
}

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost/uploads")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()

	if err := s.Put(ctx, "games/a/original.png", strings.NewReader("img"), "image/png"); err != nil {
		t.Fatalf("put: %v", err)
	}
	ok, err := s.Exists(ctx, "games/a/original.png")
	if err != nil || !ok {
		t.Fatalf("expected object to exist, ok=%v err=%v", ok, err)
	}

	rc, err := s.Get(ctx, "games/a/original.png")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(rc)
	rc.Close()
	if string(body) != "img" {
		t.Fatalf("unexpected body %q", body)
	}

	if err := s.Delete(ctx, "games/a/original.png"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "games/a/original.png"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := s.GetURL("x.jpg"); got != "http://localhost/uploads/x.jpg" {
		t.Fatalf("unexpected url %s", got)
	}
}

func TestLocalStorageRejectsEscapingKeys(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Put(context.Background(), "../evil", strings.NewReader("x"), ""); err == nil {
		t.Fatal("expected error for escaping key")
	}
}

func TestIsNotFound(t *testing.T) {
	if !isNotFound(&smithy.GenericAPIError{Code: "NoSuchKey"}) {
		t.Fatal("NoSuchKey must be not found")
	}
	if isNotFound(&smithy.GenericAPIError{Code: "AccessDenied"}) {
		t.Fatal("AccessDenied must not be not found")
	}
	if isNotFound(errors.New("boom")) {
		t.Fatal("plain errors must not be not found")
	}
}
