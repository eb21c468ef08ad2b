package tenants

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lobbypass/backend/internal/models"
)

type fakeHostLister struct {
	byTenant map[uuid.UUID][]models.UserPublic
}

func (f *fakeHostLister) ListHostsByTenant(_ context.Context, tenantID uuid.UUID) ([]models.UserPublic, error) {
	return f.byTenant[tenantID], nil
}

func newHostsRouter(hosts HostLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, hosts, nil)
	r := gin.New()
	r.GET("/tenants/:id/hosts", h.ListHosts)
	return r
}

func TestListHosts(t *testing.T) {
	tenantID := uuid.New()
	lister := &fakeHostLister{byTenant: map[uuid.UUID][]models.UserPublic{
		tenantID: {
			{ID: uuid.New(), Email: "ana@acme.example", FullName: "Ana Ruiz", Role: models.RoleHost},
			{ID: uuid.New(), Email: "bo@acme.example", FullName: "Bo Lindqvist", Role: models.RoleHost},
		},
	}}
	r := newHostsRouter(lister)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants/"+tenantID.String()+"/hosts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var envelope struct {
		Data []models.UserPublic `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("expected 2 hosts, got %d", len(envelope.Data))
	}
}

func TestListHostsEmptyTenant(t *testing.T) {
	r := newHostsRouter(&fakeHostLister{byTenant: map[uuid.UUID][]models.UserPublic{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants/"+uuid.New().String()+"/hosts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Fatalf("expected empty list, got %s", w.Body.String())
	}
}

func TestListHostsInvalidID(t *testing.T) {
	r := newHostsRouter(&fakeHostLister{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/tenants/not-a-uuid/hosts", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}
