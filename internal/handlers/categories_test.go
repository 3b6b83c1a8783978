package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/weekwise/weekwise/internal/cache"
	"github.com/weekwise/weekwise/internal/models"
	"go.uber.org/zap"
)

func newCategoryTestServer(repo *fakeCategoryRepo) *mux.Router {
	log := zap.NewNop()
	h := NewCategoryHandler(repo, cache.Disabled(log), log)
	r := mux.NewRouter()
	h.RegisterRoutes(r.PathPrefix("/categories").Subrouter())
	return r
}

func TestCreateCategoryAndDuplicate(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	router := newCategoryTestServer(repo)

	req := CreateCategoryRequest{Name: "Work", Color: "#ff8800", Icon: "briefcase"}
	for i, want := range []int{http.StatusCreated, http.StatusConflict} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, authedRequest("POST", "/categories", req, user, time.UTC))
		if w.Code != want {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, want)
		}
	}
	if len(repo.categories) != 1 {
		t.Errorf("stored categories = %d, want 1", len(repo.categories))
	}
}

func TestListCategoriesReturnsEmptyArray(t *testing.T) {
	t.Parallel()

	user := testUser()
	router := newCategoryTestServer(newFakeCategoryRepo())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("GET", "/categories", nil, user, time.UTC))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var categories []*models.Category
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &categories); err != nil {
		t.Fatalf("decode categories: %v", err)
	}
	if categories == nil {
		t.Error("data is null, want empty array")
	}
}

func TestUpdateCategoryRename(t *testing.T) {
	t.Parallel()

	user := testUser()
	repo := newFakeCategoryRepo()
	router := newCategoryTestServer(repo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("POST", "/categories", CreateCategoryRequest{Name: "Helth"}, user, time.UTC))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	var created models.Category
	if err := json.Unmarshal(decodeEnvelope(t, w.Body).Data, &created); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	name := "Health"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("PATCH", "/categories/"+created.ID.String(), UpdateCategoryRequest{Name: &name}, user, time.UTC))
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	if repo.categories[created.ID].Name != "Health" {
		t.Errorf("name = %q, want Health", repo.categories[created.ID].Name)
	}
}

func TestDeleteCategoryNotFound(t *testing.T) {
	t.Parallel()

	user := testUser()
	router := newCategoryTestServer(newFakeCategoryRepo())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authedRequest("DELETE", "/categories/1b4e28ba-2fa1-11d2-883f-0016d3cca427", nil, user, time.UTC))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
