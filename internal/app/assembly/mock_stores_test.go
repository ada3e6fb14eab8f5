package assembly

import (
	"context"
	"sort"
	"sync"
	"time"

	reportstore "github.com/dalemusser/yar/internal/app/store/reports"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ── mock ReportStore ──

type mockReportRepo struct {
	mu      sync.Mutex
	reports map[primitive.ObjectID]*models.Report

	listErr map[primitive.ObjectID]error
	linkErr error
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{
		reports: make(map[primitive.ObjectID]*models.Report),
		listErr: make(map[primitive.ObjectID]error),
	}
}

func (m *mockReportRepo) Create(_ context.Context, r models.Report) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, x := range m.reports {
		if x.OwnerID == r.OwnerID && x.AcademicYear == r.AcademicYear {
			return models.Report{}, reportstore.ErrDuplicate
		}
	}
	r.ID = primitive.NewObjectID()
	r.ServiceSectionIDs = []primitive.ObjectID{}
	r.AdminComments = []models.AdminComment{}
	r.CreatedAt = time.Now().UTC()
	r.UpdatedAt = r.CreatedAt
	m.reports[r.ID] = &r
	return r, nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.reports[id]; ok {
		return *r, nil
	}
	return models.Report{}, mongo.ErrNoDocuments
}

func (m *mockReportRepo) FindByOwnerYear(_ context.Context, ownerID primitive.ObjectID, year string) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reports {
		if r.OwnerID == ownerID && r.AcademicYear == year {
			return *r, nil
		}
	}
	return models.Report{}, mongo.ErrNoDocuments
}

func (m *mockReportRepo) ListByOwner(_ context.Context, ownerID primitive.ObjectID) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.listErr[ownerID]; err != nil {
		return nil, err
	}
	var out []models.Report
	for _, r := range m.reports {
		if r.OwnerID == ownerID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AcademicYear > out[j].AcademicYear })
	return out, nil
}

func (m *mockReportRepo) UpdateInfo(_ context.Context, id primitive.ObjectID, year, notes string) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return models.Report{}, mongo.ErrNoDocuments
	}
	for _, x := range m.reports {
		if x.ID != id && x.OwnerID == r.OwnerID && x.AcademicYear == year {
			return models.Report{}, reportstore.ErrDuplicate
		}
	}
	r.AcademicYear = year
	r.Notes = notes
	return *r, nil
}

func (m *mockReportRepo) SetNotes(_ context.Context, id primitive.ObjectID, notes string) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return models.Report{}, mongo.ErrNoDocuments
	}
	r.Notes = notes
	return *r, nil
}

func (m *mockReportRepo) UpdateStatus(_ context.Context, id primitive.ObjectID, from string, upd reportstore.StatusUpdate) (models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok {
		return models.Report{}, mongo.ErrNoDocuments
	}
	if r.Status != from {
		return models.Report{}, reportstore.ErrStatusChanged
	}
	r.Status = upd.Status
	r.SubmittedDate = upd.SubmittedDate
	r.ReviewedDate = upd.ReviewedDate
	r.ApprovedDate = upd.ApprovedDate
	if upd.Comment != nil {
		r.AdminComments = append(r.AdminComments, *upd.Comment)
	}
	return *r, nil
}

func (m *mockReportRepo) LinkSection(_ context.Context, reportID primitive.ObjectID, field string, sectionID primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.linkErr != nil {
		return false, m.linkErr
	}
	r, ok := m.reports[reportID]
	if !ok {
		return false, mongo.ErrNoDocuments
	}
	target := &r.TeachingSectionID
	if field == reportstore.FieldResearch {
		target = &r.ResearchSectionID
	}
	if *target != nil {
		return false, nil
	}
	id := sectionID
	*target = &id
	return true, nil
}

func (m *mockReportRepo) AddService(_ context.Context, reportID, serviceID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportID]
	if !ok {
		return mongo.ErrNoDocuments
	}
	for _, id := range r.ServiceSectionIDs {
		if id == serviceID {
			return nil
		}
	}
	r.ServiceSectionIDs = append(r.ServiceSectionIDs, serviceID)
	return nil
}

func (m *mockReportRepo) PullService(_ context.Context, reportID, serviceID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportID]
	if !ok {
		return nil
	}
	kept := r.ServiceSectionIDs[:0]
	for _, id := range r.ServiceSectionIDs {
		if id != serviceID {
			kept = append(kept, id)
		}
	}
	r.ServiceSectionIDs = kept
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reports[id]; !ok {
		return 0, nil
	}
	delete(m.reports, id)
	return 1, nil
}

// ── mock TeachingStore ──

type mockTeachingRepo struct {
	mu       sync.Mutex
	sections map[primitive.ObjectID]*models.TeachingSection // by report id
}

func newMockTeachingRepo() *mockTeachingRepo {
	return &mockTeachingRepo{sections: make(map[primitive.ObjectID]*models.TeachingSection)}
}

func (m *mockTeachingRepo) GetByReport(_ context.Context, reportID primitive.ObjectID) (models.TeachingSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sections[reportID]; ok {
		return *s, nil
	}
	return models.TeachingSection{}, mongo.ErrNoDocuments
}

func (m *mockTeachingRepo) Upsert(_ context.Context, sec models.TeachingSection) (models.TeachingSection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sections[sec.ReportID]; ok {
		sec.ID = cur.ID
		sec.CreatedAt = cur.CreatedAt
		m.sections[sec.ReportID] = &sec
		return sec, false, nil
	}
	sec.ID = primitive.NewObjectID()
	m.sections[sec.ReportID] = &sec
	return sec, true, nil
}

func (m *mockTeachingRepo) DeleteByReport(_ context.Context, reportID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[reportID]; !ok {
		return 0, nil
	}
	delete(m.sections, reportID)
	return 1, nil
}

// ── mock ResearchStore ──

type mockResearchRepo struct {
	mu       sync.Mutex
	sections map[primitive.ObjectID]*models.ResearchSection
}

func newMockResearchRepo() *mockResearchRepo {
	return &mockResearchRepo{sections: make(map[primitive.ObjectID]*models.ResearchSection)}
}

func (m *mockResearchRepo) GetByReport(_ context.Context, reportID primitive.ObjectID) (models.ResearchSection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sections[reportID]; ok {
		return *s, nil
	}
	return models.ResearchSection{}, mongo.ErrNoDocuments
}

func (m *mockResearchRepo) Upsert(_ context.Context, sec models.ResearchSection) (models.ResearchSection, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.sections[sec.ReportID]; ok {
		sec.ID = cur.ID
		m.sections[sec.ReportID] = &sec
		return sec, false, nil
	}
	sec.ID = primitive.NewObjectID()
	m.sections[sec.ReportID] = &sec
	return sec, true, nil
}

func (m *mockResearchRepo) DeleteByReport(_ context.Context, reportID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sections[reportID]; !ok {
		return 0, nil
	}
	delete(m.sections, reportID)
	return 1, nil
}

// ── mock ServiceStore ──

type mockServiceRepo struct {
	mu      sync.Mutex
	entries map[primitive.ObjectID]*models.ServiceEntry
}

func newMockServiceRepo() *mockServiceRepo {
	return &mockServiceRepo{entries: make(map[primitive.ObjectID]*models.ServiceEntry)}
}

func (m *mockServiceRepo) GetByID(_ context.Context, id primitive.ObjectID) (models.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		return *e, nil
	}
	return models.ServiceEntry{}, mongo.ErrNoDocuments
}

func (m *mockServiceRepo) Create(_ context.Context, e models.ServiceEntry) (models.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = primitive.NewObjectID()
	m.entries[e.ID] = &e
	return e, nil
}

func (m *mockServiceRepo) Replace(_ context.Context, id primitive.ObjectID, e models.ServiceEntry) (models.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return models.ServiceEntry{}, mongo.ErrNoDocuments
	}
	e.ID = id
	m.entries[id] = &e
	return e, nil
}

func (m *mockServiceRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.ServiceEntry{}
	for _, id := range ids {
		if e, ok := m.entries[id]; ok {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *mockServiceRepo) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return 0, nil
	}
	delete(m.entries, id)
	return 1, nil
}

func (m *mockServiceRepo) DeleteByReport(_ context.Context, reportID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.ReportID == reportID {
			delete(m.entries, id)
			n++
		}
	}
	return n, nil
}

// ── mock UserStore ──

type mockUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (m *mockUserRepo) add(name, role string) models.User {
	u := models.User{
		ID:       primitive.NewObjectID(),
		NetID:    name,
		FullName: name,
		Role:     role,
		IsActive: true,
	}
	m.users[u.ID] = &u
	return u
}

func (m *mockUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (m *mockUserRepo) ListFaculty(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		if u.Role == models.RoleFaculty && u.IsActive {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (m *mockUserRepo) SetRole(_ context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u.Role = role
	cp := *u
	return &cp, nil
}
