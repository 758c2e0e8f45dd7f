package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

func TestHandlerListPlatformsWithFilter(t *testing.T) {
	repo := newFakeRepo()
	repo.platforms = []Platform{
		{ID: uuid.New(), Name: "Scratch", Category: "coding", IsActive: true},
		{ID: uuid.New(), Name: "Tinkercad", Category: "3d", IsActive: true},
	}
	reader := NewReader(repo, nil)
	reader.Start(context.Background())
	defer reader.Stop()

	srv := httptest.NewServer(NewHandler(reader).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/platforms?category=3d")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success bool       `json:"success"`
		Data    []Platform `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || len(body.Data) != 1 || body.Data[0].Name != "Tinkercad" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestHandlerGetContentNotFound(t *testing.T) {
	reader := NewReader(newFakeRepo(), nil)
	srv := httptest.NewServer(NewHandler(reader).Routes())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/content/" + uuid.NewString())
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
