package visitors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lobbypass/backend/internal/models"
)

type fakeHostDirectory struct {
	users map[uuid.UUID]*models.User
}

func (d *fakeHostDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

type fakeTenantDirectory struct {
	tenants map[uuid.UUID]*models.Tenant
}

func (d *fakeTenantDirectory) GetByID(_ context.Context, id uuid.UUID) (*models.Tenant, error) {
	t, ok := d.tenants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func newCreateRouter(hosts *fakeHostDirectory, tenants *fakeTenantDirectory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(nil, hosts, tenants, nil)
	r := gin.New()
	r.POST("/visitors", h.Create)
	return r
}

func postVisitor(t *testing.T, r *gin.Engine, hostID, tenantID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	body := `{"full_name":"Jane Doe","email":"jane@example.com","phone":"555-0100",` +
		`"purpose":"meeting","host_id":"` + hostID.String() + `","tenant_id":"` + tenantID.String() + `"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/visitors", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestCreateRejectsUnknownHost(t *testing.T) {
	hostID := uuid.New()
	tenantID := uuid.New()
	r := newCreateRouter(
		&fakeHostDirectory{users: map[uuid.UUID]*models.User{}},
		&fakeTenantDirectory{tenants: map[uuid.UUID]*models.Tenant{tenantID: {ID: tenantID, Name: "Acme"}}},
	)

	w := postVisitor(t, r, hostID, tenantID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "host not found") {
		t.Fatalf("expected host error, got %s", w.Body.String())
	}
}

func TestCreateRejectsUnknownTenant(t *testing.T) {
	hostID := uuid.New()
	tenantID := uuid.New()
	r := newCreateRouter(
		&fakeHostDirectory{users: map[uuid.UUID]*models.User{hostID: {ID: hostID, FullName: "Host One", Role: models.RoleHost}}},
		&fakeTenantDirectory{tenants: map[uuid.UUID]*models.Tenant{}},
	)

	w := postVisitor(t, r, hostID, tenantID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "tenant not found") {
		t.Fatalf("expected tenant error, got %s", w.Body.String())
	}
}
