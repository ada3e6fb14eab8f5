package wizard

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/yar/internal/app/assembly"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFlow(t *testing.T, c *fakeClient, reportID string) (*Flow, *fakeClock) {
	t.Helper()
	clock := &fakeClock{}
	f := New(c, Options{
		ReportID:     reportID,
		AcademicYear: "2023-2024",
		AfterFunc:    clock.AfterFunc,
	})
	t.Cleanup(f.Close)
	return f, clock
}

func course(name string) assembly.TeachingInput {
	return assembly.TeachingInput{Courses: []models.Course{{Name: name, Credits: 3, Enrollment: 20}}}
}

// advance walks forward to s, failing the test on any error.
func advance(t *testing.T, f *Flow, s Step) {
	t.Helper()
	ctx := context.Background()
	for f.Step() < s {
		require.NoError(t, f.Next(ctx))
	}
}

func TestSteps(t *testing.T) {
	names := []string{}
	for _, s := range Steps() {
		names = append(names, s.String())
	}
	assert.Equal(t, []string{"teaching", "research", "service", "general_notes", "review"}, names)
	assert.True(t, StepTeaching.First())
	assert.True(t, StepReview.Last())
	assert.False(t, StepService.Last())
	assert.Equal(t, "unknown", Step(42).String())

	s, ok := ParseStep("general_notes")
	assert.True(t, ok)
	assert.Equal(t, StepGeneralNotes, s)
	_, ok = ParseStep("notes")
	assert.False(t, ok)
}

func TestStart_ResumingRaisesNotice(t *testing.T) {
	c := newFakeClient()
	c.teaching = &models.TeachingSection{Courses: []models.Course{{Name: "Intro"}}}
	f, _ := newTestFlow(t, c, c.reportID.Hex())

	require.NoError(t, f.Start(context.Background()))
	assert.True(t, f.Resuming())
	assert.Equal(t, ResumeNotice, f.Notice())
	require.Len(t, f.Draft().Teaching.Courses, 1)
	assert.Equal(t, "Intro", f.Draft().Teaching.Courses[0].Name)

	f.DismissNotice()
	assert.Empty(t, f.Notice())
	assert.True(t, f.Resuming())

	// A dismissed notice stays dismissed on later steps.
	c.research = &models.ResearchSection{Publications: []models.Publication{{Title: "Paper"}}}
	require.NoError(t, f.Next(context.Background()))
	assert.Empty(t, f.Notice())
}

func TestStart_FreshReport(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())

	require.NoError(t, f.Start(context.Background()))
	assert.False(t, f.Resuming())
	assert.Empty(t, f.Notice())
	assert.Equal(t, 1, c.gets)
}

func TestStart_UnknownReportLoadsNothing(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, "")

	require.NoError(t, f.Start(context.Background()))
	assert.Zero(t, c.gets)
	assert.Equal(t, StepTeaching, f.Step())
}

func TestStart_LoadErrorIsRecorded(t *testing.T) {
	c := newFakeClient()
	c.getErr = errors.New("offline")
	f, _ := newTestFlow(t, c, c.reportID.Hex())

	err := f.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, err, f.LastError())
}

func TestNext_SavesBeforeAdvancing(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	ctx := context.Background()

	f.EditTeaching(course("Algorithms"))
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepResearch, f.Step())
	require.Len(t, c.teachingSaves, 1)
	assert.Equal(t, "Algorithms", c.teachingSaves[0].Courses[0].Name)

	f.EditResearch(assembly.ResearchInput{Conferences: []models.Conference{{Name: "GopherCon"}}})
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepService, f.Step())
	require.Len(t, c.researchSaves, 1)

	f.EditNotes("ignored until the notes step saves")
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepGeneralNotes, f.Step())

	f.EditNotes("On leave in spring")
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepReview, f.Step())
	assert.Equal(t, []string{"On leave in spring"}, c.notesSaves)

	require.NotNil(t, f.Review())
	comp, ok := f.Completion()
	require.True(t, ok)
	assert.Equal(t, lifecycle.Completion{Teaching: true, Research: true}, comp)

	assert.ErrorIs(t, f.Next(ctx), ErrLastStep)
}

func TestNext_FailedSaveBlocks(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	ctx := context.Background()
	advance(t, f, StepResearch)

	c.saveResearchErr = &APIError{Status: http.StatusBadRequest, Message: "Title is required"}
	err := f.Next(ctx)
	require.Error(t, err)
	assert.Equal(t, StepResearch, f.Step())
	assert.Equal(t, err, f.LastError())

	// Only the latest error is kept.
	c.saveResearchErr = errors.New("connection reset")
	err = f.Next(ctx)
	require.Error(t, err)
	assert.EqualError(t, f.LastError(), "connection reset")

	c.saveResearchErr = nil
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepService, f.Step())
	assert.NoError(t, f.LastError())
}

func TestPrevious_NeverSaves(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	ctx := context.Background()
	advance(t, f, StepResearch)

	f.EditResearch(assembly.ResearchInput{Publications: []models.Publication{{Title: "Unsaved"}}})
	require.NoError(t, f.Previous(ctx))
	assert.Equal(t, StepTeaching, f.Step())
	assert.Empty(t, c.researchSaves)

	// Coming back reloads what the server has.
	require.NoError(t, f.Next(ctx))
	assert.Empty(t, f.Draft().Research.Publications)

	require.NoError(t, f.Previous(ctx))
	assert.ErrorIs(t, f.Previous(ctx), ErrFirstStep)
}

func TestServiceStep_CreatesPendingEntries(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	ctx := context.Background()
	advance(t, f, StepService)

	f.AddService(models.ServiceEntry{Type: "Committee", CommitteeName: "Curriculum"})
	f.AddService(models.ServiceEntry{Type: "Outreach"})
	c.createServiceErr = errors.New("write failed")
	c.serviceFailAt = 1

	require.Error(t, f.Next(ctx))
	assert.Equal(t, StepService, f.Step())
	d := f.Draft()
	require.Len(t, d.Services, 1)
	assert.Equal(t, "Committee", d.Services[0].Type)
	require.Len(t, d.PendingServices, 1)
	assert.Equal(t, "Outreach", d.PendingServices[0].Type)

	c.createServiceErr = nil
	require.NoError(t, f.Next(ctx))
	assert.Equal(t, StepGeneralNotes, f.Step())
	assert.Len(t, c.services, 2)
}

func TestSubmit_OnlyFromReview(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())

	_, err := f.Submit(context.Background())
	assert.ErrorIs(t, err, ErrNotOnReview)
	assert.ErrorIs(t, f.LastError(), ErrNotOnReview)
	assert.Zero(t, c.submits)
}

func TestSubmit_IncompleteSurfacesCompletion(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	advance(t, f, StepReview)

	c.submitErr = &APIError{
		Status:     http.StatusBadRequest,
		Message:    "Report is incomplete",
		Completion: &lifecycle.Completion{Teaching: true},
	}
	_, err := f.Submit(context.Background())
	require.Error(t, err)

	comp, ok := f.Completion()
	require.True(t, ok)
	assert.Equal(t, []string{"research", "service"}, comp.Missing())
	ae, ok := AsAPIError(f.LastError())
	require.True(t, ok)
	assert.Equal(t, "Report is incomplete", ae.Message)
	assert.Nil(t, f.Submitted())
}

func TestSubmit_Success(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, c.reportID.Hex())
	advance(t, f, StepReview)

	rep, err := f.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, rep.Status)
	assert.Equal(t, rep, f.Submitted())
	assert.NoError(t, f.LastError())
}

func TestAutosave_Debounced(t *testing.T) {
	c := newFakeClient()
	f, clock := newTestFlow(t, c, c.reportID.Hex())

	f.EditTeaching(course("A"))
	f.EditTeaching(course("AB"))
	f.EditTeaching(course("ABC"))
	assert.Equal(t, 1, clock.Active())
	assert.Empty(t, c.teachingSaves)

	clock.FireAll()
	require.Len(t, c.teachingSaves, 1)
	assert.Equal(t, "ABC", c.teachingSaves[0].Courses[0].Name)
	assert.Equal(t, SaveSaved, f.Badge().Status)

	// The next edit clears the badge.
	f.EditTeaching(course("ABCD"))
	assert.Equal(t, SaveIdle, f.Badge().Status)
}

func TestAutosave_DefaultDelay(t *testing.T) {
	c := newFakeClient()
	f, clock := newTestFlow(t, c, c.reportID.Hex())

	f.EditTeaching(course("A"))
	require.Len(t, clock.timers, 1)
	assert.Equal(t, 3*time.Second, clock.timers[0].d)
}

func TestAutosave_FailureOnlySetsBadge(t *testing.T) {
	c := newFakeClient()
	f, clock := newTestFlow(t, c, c.reportID.Hex())

	c.saveTeachingErr = errors.New("timeout")
	f.EditTeaching(course("A"))
	clock.FireAll()

	b := f.Badge()
	assert.Equal(t, SaveFailed, b.Status)
	assert.EqualError(t, b.Err, "timeout")
	assert.NoError(t, f.LastError())

	c.saveTeachingErr = nil
	require.NoError(t, f.Next(context.Background()))
	assert.Equal(t, StepResearch, f.Step())
}

func TestManualSaveCancelsAutosave(t *testing.T) {
	c := newFakeClient()
	f, clock := newTestFlow(t, c, c.reportID.Hex())

	f.EditTeaching(course("A"))
	require.NoError(t, f.SaveTeaching(context.Background()))
	assert.Zero(t, clock.Active())
	require.Len(t, c.teachingSaves, 1)

	clock.FireAll()
	assert.Len(t, c.teachingSaves, 1)
}

func TestClose_CancelsAutosave(t *testing.T) {
	c := newFakeClient()
	f, clock := newTestFlow(t, c, c.reportID.Hex())

	f.EditTeaching(course("A"))
	f.Close()
	assert.Zero(t, clock.Active())
	clock.FireAll()
	assert.Empty(t, c.teachingSaves)

	assert.ErrorIs(t, f.Next(context.Background()), ErrClosed)
	f.EditTeaching(course("B"))
	assert.Zero(t, clock.Active())
}

func TestFirstSave_CreatesReport(t *testing.T) {
	c := newFakeClient()
	f, _ := newTestFlow(t, c, "")

	f.EditTeaching(course("A"))
	require.NoError(t, f.Next(context.Background()))
	assert.Equal(t, 1, c.creates)
	assert.Equal(t, c.reportID.Hex(), f.ReportID())

	require.NoError(t, f.Next(context.Background()))
	assert.Equal(t, 1, c.creates)
}

func TestFirstSave_AdoptsExistingReport(t *testing.T) {
	c := newFakeClient()
	c.createErr = &APIError{Status: http.StatusBadRequest, Message: "duplicate", ExistingID: "65a000000000000000000001"}
	f, _ := newTestFlow(t, c, "")

	require.NoError(t, f.SaveTeaching(context.Background()))
	assert.Equal(t, "65a000000000000000000001", f.ReportID())
}

func TestFirstSave_CreateFailureBlocks(t *testing.T) {
	c := newFakeClient()
	c.createErr = &APIError{Status: http.StatusBadRequest, Message: "Invalid academic year"}
	f, _ := newTestFlow(t, c, "")

	require.Error(t, f.Next(context.Background()))
	assert.Equal(t, StepTeaching, f.Step())
	assert.Empty(t, f.ReportID())
	assert.Empty(t, c.teachingSaves)
}
