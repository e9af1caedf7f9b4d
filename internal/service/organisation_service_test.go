package service

import (
	"context"
	"math"
	"net/http"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/academic-erp/internal/domain"
	"github.com/spec-kit/academic-erp/internal/events"
	"github.com/spec-kit/academic-erp/internal/repository"
	apperrors "github.com/spec-kit/academic-erp/pkg/util"
)

// fakeOrganisations is an in-memory OrganisationRepository for service tests.
type fakeOrganisations struct {
	nextID int64
	byID   map[int64]domain.Organisation
	err    error
	pages  []repository.PageRequest
}

func newFakeOrganisations() *fakeOrganisations {
	return &fakeOrganisations{byID: map[int64]domain.Organisation{}}
}

func (f *fakeOrganisations) Create(_ context.Context, org *domain.Organisation) error {
	if f.err != nil {
		return f.err
	}
	f.nextID++
	org.ID = f.nextID
	org.HR.OrganisationID = org.ID
	stored := *org
	hr := *org.HR
	stored.HR = &hr
	f.byID[org.ID] = stored
	return nil
}

func (f *fakeOrganisations) GetByID(_ context.Context, id int64) (*domain.Organisation, error) {
	if f.err != nil {
		return nil, f.err
	}
	org, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	hr := *org.HR
	org.HR = &hr
	return &org, nil
}

func (f *fakeOrganisations) List(context.Context) ([]domain.Organisation, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Organisation, 0, len(f.byID))
	for id := int64(1); id <= f.nextID; id++ {
		if org, ok := f.byID[id]; ok {
			out = append(out, org)
		}
	}
	return out, nil
}

func (f *fakeOrganisations) ListPage(ctx context.Context, page repository.PageRequest) ([]domain.Organisation, int64, error) {
	f.pages = append(f.pages, page)
	all, err := f.List(ctx)
	return all, int64(len(all)), err
}

func (f *fakeOrganisations) Search(ctx context.Context, _ string) ([]domain.Organisation, error) {
	return f.List(ctx)
}

func (f *fakeOrganisations) SearchByName(ctx context.Context, _ string) ([]domain.Organisation, error) {
	return f.List(ctx)
}

func (f *fakeOrganisations) Update(_ context.Context, org *domain.Organisation) error {
	if _, ok := f.byID[org.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *org
	hr := *org.HR
	stored.HR = &hr
	f.byID[org.ID] = stored
	return nil
}

func (f *fakeOrganisations) Delete(_ context.Context, id int64) error {
	if _, ok := f.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeOrganisations) Exists(_ context.Context, id int64) (bool, error) {
	_, ok := f.byID[id]
	return ok, f.err
}

func (f *fakeOrganisations) HREmailExists(_ context.Context, email string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, org := range f.byID {
		if org.HR != nil && strings.EqualFold(org.HR.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func newOrganisationService(t *testing.T) (*OrganisationService, *fakeOrganisations, *recordedEvents) {
	t.Helper()
	repo := newFakeOrganisations()
	dispatcher := events.NewInMemoryDispatcher()
	recorded := &recordedEvents{}
	for _, eventType := range events.AllEventTypes {
		dispatcher.Subscribe(eventType, recorded.handler)
	}
	return NewOrganisationService(repo, dispatcher, zap.NewNop()), repo, recorded
}

func newOrg(name, hrEmail string) *domain.Organisation {
	return &domain.Organisation{
		Name:    name,
		Address: "Somewhere",
		HR:      &domain.OrganisationHR{FirstName: "H", LastName: "R", Email: hrEmail},
	}
}

func statusOf(err error) int {
	return apperrors.ToDomainError(err).HTTPStatus
}

func TestOrganisationService_CreateAndConflict(t *testing.T) {
	svc, _, recorded := newOrganisationService(t)
	ctx := context.Background()

	org, err := svc.Create(ctx, newOrg("Acme", "hr@acme.test"), "o@x.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), org.ID)

	_, err = svc.Create(ctx, newOrg("Other", "HR@ACME.test"), "o@x.com")
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = svc.Create(ctx, &domain.Organisation{Name: "NoHR"}, "o@x.com")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	assert.Equal(t, []events.EventType{events.EventOrganisationCreated}, recorded.types())
}

func TestOrganisationService_GetAndDeleteMissing(t *testing.T) {
	svc, _, _ := newOrganisationService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, 42)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	err = svc.Delete(ctx, 42, "o@x.com")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestOrganisationService_UpdatePartial(t *testing.T) {
	svc, repo, _ := newOrganisationService(t)
	ctx := context.Background()

	acme, err := svc.Create(ctx, newOrg("Acme", "hr@acme.test"), "o@x.com")
	require.NoError(t, err)
	_, err = svc.Create(ctx, newOrg("Beta", "hr@beta.test"), "o@x.com")
	require.NoError(t, err)

	name := "Acme Ltd"
	updated, err := svc.Update(ctx, acme.ID, OrganisationPatch{Name: &name}, "o@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated.Name)
	assert.Equal(t, "Somewhere", updated.Address)
	assert.Equal(t, "Acme Ltd", repo.byID[acme.ID].Name)

	sameEmail := "HR@acme.test"
	_, err = svc.Update(ctx, acme.ID, OrganisationPatch{HREmail: &sameEmail}, "o@x.com")
	require.NoError(t, err)

	taken := "hr@beta.test"
	_, err = svc.Update(ctx, acme.ID, OrganisationPatch{HREmail: &taken}, "o@x.com")
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = svc.Update(ctx, 99, OrganisationPatch{Name: &name}, "o@x.com")
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestOrganisationService_ListPageClampsSize(t *testing.T) {
	svc, repo, _ := newOrganisationService(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := svc.Create(ctx, newOrg(name, name+"@hr.test"), "o@x.com")
		require.NoError(t, err)
	}

	page, err := svc.ListPage(ctx, repository.PageRequest{Page: -1, Size: 500, SortBy: "name"})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Page)
	assert.Equal(t, maxPageSize, page.Size)
	assert.Equal(t, int64(3), page.TotalElements)
	assert.Equal(t, 1, page.TotalPages)

	page, err = svc.ListPage(ctx, repository.PageRequest{Size: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, page.TotalPages)

	_, err = svc.ListPage(ctx, repository.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, repo.pages[len(repo.pages)-1].Size)
}

func TestOrganisationService_DatabaseUnavailable(t *testing.T) {
	svc, repo, _ := newOrganisationService(t)
	repo.err = repository.ErrDatabaseUnavailable

	_, err := svc.List(context.Background())
	assert.Equal(t, http.StatusServiceUnavailable, statusOf(err))
}

func TestOrganisationService_Validation(t *testing.T) {
	svc, _, _ := newOrganisationService(t)

	_, err := svc.SearchByName(context.Background(), " ")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = svc.HREmailExists(context.Background(), "")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestOrganisationService_ListPageRejectsOverflowingOffset(t *testing.T) {
	svc, repo, _ := newOrganisationService(t)

	_, err := svc.ListPage(context.Background(), repository.PageRequest{Page: math.MaxInt, Size: 20})
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
	assert.Empty(t, repo.pages)

	_, err = svc.ListPage(context.Background(), repository.PageRequest{Page: math.MaxInt / maxPageSize, Size: maxPageSize})
	require.NoError(t, err)
}
