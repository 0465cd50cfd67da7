package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/civicsite/internal/db"
	"github.com/civicsite/internal/service"
	"github.com/gin-gonic/gin"
)

func seedTestBatch(t *testing.T, api *API) *db.PostBatch {
	t.Helper()
	batch, err := api.batches.Save("Permit Tracker", "https://permits.example", []service.BatchPostInput{
		{Content: "Post one", Hook: "Hook one"},
		{Content: "Post two", Hook: "Hook two"},
	})
	if err != nil {
		t.Fatalf("seed batch: %v", err)
	}
	return batch
}

func TestSaveBatch(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	w := doJSON(t, api.SaveBatch, http.MethodPost, "/admin/api/batches", map[string]any{
		"productName": "Permit Tracker",
		"productUrl":  "https://permits.example",
		"posts": []map[string]string{
			{"content": "Launch note", "hook": "Big news"},
		},
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var created db.PostBatch
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ID == "" || len(created.Posts) != 1 {
		t.Fatalf("unexpected batch: %+v", created)
	}
}

func TestSaveBatchRejectsEmptyPosts(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()

	w := doJSON(t, api.SaveBatch, http.MethodPost, "/admin/api/batches", map[string]any{
		"productName": "Permit Tracker",
		"productUrl":  "https://permits.example",
		"posts":       []map[string]string{},
	}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestListBatches(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	seedTestBatch(t, api)

	w := doJSON(t, api.ListBatches, http.MethodGet, "/admin/api/batches", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var payload struct {
		Batches []db.PostBatch `json:"batches"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Batches) != 1 || len(payload.Batches[0].Posts) != 2 {
		t.Fatalf("unexpected batches payload: %+v", payload.Batches)
	}
}

func TestClaimPost(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	batch := seedTestBatch(t, api)

	params := gin.Params{{Key: "id", Value: batch.ID}, {Key: "index", Value: "0"}}
	w := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/0/claim",
		map[string]string{"name": "Alice"}, params)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var claimed db.BatchPost
	if err := json.Unmarshal(w.Body.Bytes(), &claimed); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if claimed.CopiedBy != "Alice" || claimed.CopiedAt == nil {
		t.Fatalf("unexpected claimed post: %+v", claimed)
	}
}

func TestClaimPostConflict(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	batch := seedTestBatch(t, api)

	params := gin.Params{{Key: "id", Value: batch.ID}, {Key: "index", Value: "1"}}
	first := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/1/claim",
		map[string]string{"name": "Alice"}, params)
	if first.Code != http.StatusOK {
		t.Fatalf("first claim must succeed, got %d", first.Code)
	}

	second := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/1/claim",
		map[string]string{"name": "Bob"}, params)
	if second.Code != http.StatusConflict {
		t.Fatalf("second claim must be 409, got %d", second.Code)
	}

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(second.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.Error == "" {
		t.Fatalf("conflict response must carry an error message")
	}
}

func TestClaimPostValidation(t *testing.T) {
	api, _, cleanup := setupTestAPI(t)
	defer cleanup()
	batch := seedTestBatch(t, api)

	blank := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/0/claim",
		map[string]string{"name": "  "},
		gin.Params{{Key: "id", Value: batch.ID}, {Key: "index", Value: "0"}})
	if blank.Code != http.StatusBadRequest {
		t.Fatalf("blank claimant must be 400, got %d", blank.Code)
	}

	badIndex := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/abc/claim",
		map[string]string{"name": "Alice"},
		gin.Params{{Key: "id", Value: batch.ID}, {Key: "index", Value: "abc"}})
	if badIndex.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric index must be 400, got %d", badIndex.Code)
	}

	outOfRange := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/"+batch.ID+"/posts/9/claim",
		map[string]string{"name": "Alice"},
		gin.Params{{Key: "id", Value: batch.ID}, {Key: "index", Value: "9"}})
	if outOfRange.Code != http.StatusNotFound {
		t.Fatalf("out-of-range index must be 404, got %d", outOfRange.Code)
	}

	missingBatch := doJSON(t, api.ClaimPost, http.MethodPost, "/admin/api/batches/none/posts/0/claim",
		map[string]string{"name": "Alice"},
		gin.Params{{Key: "id", Value: "none"}, {Key: "index", Value: "0"}})
	if missingBatch.Code != http.StatusNotFound {
		t.Fatalf("missing batch must be 404, got %d", missingBatch.Code)
	}
}
