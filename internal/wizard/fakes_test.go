package wizard

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/yar/internal/app/assembly"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeClock hands out timers that only fire when told to.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// FireAll runs every live timer on the calling goroutine.
func (c *fakeClock) FireAll() {
	c.mu.Lock()
	var due []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	c.mu.Unlock()
	for _, t := range due {
		t.f()
	}
}

func (c *fakeClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// fakeClient keeps one report in memory.
type fakeClient struct {
	mu sync.Mutex

	reportID primitive.ObjectID
	notes    string
	teaching *models.TeachingSection
	research *models.ResearchSection
	services []models.ServiceEntry

	createErr        error
	getErr           error
	saveTeachingErr  error
	saveResearchErr  error
	createServiceErr error
	serviceFailAt    int
	submitErr        error

	creates       int
	teachingSaves []assembly.TeachingInput
	researchSaves []assembly.ResearchInput
	notesSaves    []string
	submits       int
	gets          int
}

func newFakeClient() *fakeClient {
	return &fakeClient{reportID: primitive.NewObjectID(), serviceFailAt: -1}
}

func (c *fakeClient) completion() lifecycle.Completion {
	return lifecycle.Completion{
		Teaching: c.teaching != nil,
		Research: c.research != nil,
		Service:  len(c.services) > 0,
	}
}

func (c *fakeClient) CreateReport(_ context.Context, academicYear string) (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++
	if c.createErr != nil {
		return nil, c.createErr
	}
	return &models.Report{ID: c.reportID, AcademicYear: academicYear, Status: models.StatusDraft}, nil
}

func (c *fakeClient) GetReport(_ context.Context, _ string) (*assembly.HydratedReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return &assembly.HydratedReport{
		Report:     models.Report{ID: c.reportID, Status: models.StatusDraft, Notes: c.notes},
		Teaching:   c.teaching,
		Research:   c.research,
		Services:   c.services,
		Completion: c.completion(),
	}, nil
}

func (c *fakeClient) GetTeaching(_ context.Context, _ string) (*models.TeachingSection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.teaching, c.getErr
}

func (c *fakeClient) SaveTeaching(_ context.Context, _ string, in assembly.TeachingInput) (*models.TeachingSection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teachingSaves = append(c.teachingSaves, in)
	if c.saveTeachingErr != nil {
		return nil, c.saveTeachingErr
	}
	c.teaching = &models.TeachingSection{ReportID: c.reportID, Courses: in.Courses, SectionNotes: in.SectionNotes}
	return c.teaching, nil
}

func (c *fakeClient) GetResearch(_ context.Context, _ string) (*models.ResearchSection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	return c.research, c.getErr
}

func (c *fakeClient) SaveResearch(_ context.Context, _ string, in assembly.ResearchInput) (*models.ResearchSection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.researchSaves = append(c.researchSaves, in)
	if c.saveResearchErr != nil {
		return nil, c.saveResearchErr
	}
	c.research = &models.ResearchSection{ReportID: c.reportID, Publications: in.Publications, Grants: in.Grants, Conferences: in.Conferences}
	return c.research, nil
}

func (c *fakeClient) ListServices(_ context.Context, _ string) ([]models.ServiceEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return append([]models.ServiceEntry(nil), c.services...), nil
}

func (c *fakeClient) CreateService(_ context.Context, _ string, in models.ServiceEntry) (*models.ServiceEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.createServiceErr != nil && len(c.services) == c.serviceFailAt {
		return nil, c.createServiceErr
	}
	in.ID = primitive.NewObjectID()
	in.ReportID = c.reportID
	c.services = append(c.services, in)
	return &in, nil
}

func (c *fakeClient) SetNotes(_ context.Context, _ string, notes string) (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notesSaves = append(c.notesSaves, notes)
	c.notes = notes
	return &models.Report{ID: c.reportID, Notes: notes}, nil
}

func (c *fakeClient) Submit(_ context.Context, _ string) (*models.Report, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submits++
	if c.submitErr != nil {
		return nil, c.submitErr
	}
	return &models.Report{ID: c.reportID, Status: models.StatusSubmitted}, nil
}
