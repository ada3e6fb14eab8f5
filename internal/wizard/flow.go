package wizard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/yar/internal/app/assembly"
	"github.com/dalemusser/yar/internal/domain/lifecycle"
	"github.com/dalemusser/yar/internal/domain/models"
	"go.uber.org/zap"
)

var (
	ErrNotOnReview = errors.New("the report can only be submitted from the review step")
	ErrFirstStep   = errors.New("already on the first step")
	ErrLastStep    = errors.New("already on the last step")
	ErrNoReport    = errors.New("no report to submit")
	ErrClosed      = errors.New("wizard is closed")
)

// ResumeNotice is shown when a step opens with previously saved data.
const ResumeNotice = "You have saved progress on this report. Pick up where you left off."

// SaveStatus is the state of the auto-save badge.
type SaveStatus int

const (
	SaveIdle SaveStatus = iota
	SaveSaving
	SaveSaved
	SaveFailed
)

func (s SaveStatus) String() string {
	switch s {
	case SaveSaving:
		return "saving"
	case SaveSaved:
		return "saved"
	case SaveFailed:
		return "failed"
	default:
		return "idle"
	}
}

// Badge is the transient auto-save indicator. It is reset by the next edit.
type Badge struct {
	Status SaveStatus
	At     time.Time
	Err    error
}

// Draft is the form state of every step. PendingServices are entries the
// user added that have not been saved yet.
type Draft struct {
	Teaching        assembly.TeachingInput
	Research        assembly.ResearchInput
	Services        []models.ServiceEntry
	PendingServices []models.ServiceEntry
	Notes           string
}

// Options configures a Flow. ReportID may be empty, in which case a report
// for AcademicYear is created on the first save.
type Options struct {
	ReportID      string
	AcademicYear  string
	AutosaveDelay time.Duration
	AfterFunc     AfterFunc
	Logger        *zap.Logger
	Now           func() time.Time
}

// Flow is one run through the wizard. Navigation methods are meant to be
// called from a single goroutine; the auto-save timer runs on its own.
type Flow struct {
	client Client
	log    *zap.Logger
	now    func() time.Time
	year   string

	ctx      context.Context
	cancel   context.CancelFunc
	autosave *Debouncer

	createMu   sync.Mutex // one report creation at a time
	teachingMu sync.Mutex // orders teaching saves so a manual save lands last

	mu              sync.Mutex
	reportID        string
	step            Step
	resuming        bool
	notice          string
	noticeDismissed bool
	lastErr         error
	badge           Badge
	draft           Draft
	review          *assembly.HydratedReport
	completion      *lifecycle.Completion
	submitted       *models.Report
	closed          bool
}

func New(client Client, opts Options) *Flow {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &Flow{
		client:   client,
		log:      opts.Logger,
		now:      opts.Now,
		year:     opts.AcademicYear,
		ctx:      ctx,
		cancel:   cancel,
		reportID: opts.ReportID,
		step:     StepTeaching,
	}
	f.autosave = NewDebouncer(opts.AutosaveDelay, opts.AfterFunc, f.autosaveTeaching)
	return f
}

func (f *Flow) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

func (f *Flow) ReportID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reportID
}

// Resuming reports whether any step opened with saved data.
func (f *Flow) Resuming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resuming
}

// Notice is the resume notice, or "" once dismissed.
func (f *Flow) Notice() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.notice
}

func (f *Flow) DismissNotice() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notice = ""
	f.noticeDismissed = true
}

// LastError is the most recent navigation or save error, nil after a
// successful step change.
func (f *Flow) LastError() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Flow) Badge() Badge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.badge
}

func (f *Flow) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Review is the report as loaded by the review step.
func (f *Flow) Review() *assembly.HydratedReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.review
}

// Completion is the latest section breakdown seen, from the review load or
// a rejected submit.
func (f *Flow) Completion() (lifecycle.Completion, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.completion == nil {
		return lifecycle.Completion{}, false
	}
	return *f.completion, true
}

// Submitted is the report returned by a successful Submit.
func (f *Flow) Submitted() *models.Report {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

/*─────────────────────────────────────────────────────────────────────────────*
| Edits                                                                         |
*─────────────────────────────────────────────────────────────────────────────*/

// EditTeaching replaces the teaching draft and restarts the auto-save wait.
func (f *Flow) EditTeaching(in assembly.TeachingInput) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.draft.Teaching = in
	f.badge = Badge{}
	f.mu.Unlock()
	f.autosave.Trigger()
}

func (f *Flow) EditResearch(in assembly.ResearchInput) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Research = in
}

// AddService queues an entry to be created when the service step is saved.
func (f *Flow) AddService(e models.ServiceEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.PendingServices = append(f.draft.PendingServices, e)
}

func (f *Flow) EditNotes(notes string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.draft.Notes = notes
}

/*─────────────────────────────────────────────────────────────────────────────*
| Navigation                                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Start loads the current step.
func (f *Flow) Start(ctx context.Context) error {
	if f.isClosed() {
		return ErrClosed
	}
	return f.mount(ctx, f.Step())
}

// Next saves the current step and moves forward. A failed save leaves the
// flow where it was. If the save worked but the next step fails to load,
// the flow has still moved and the load error is returned.
func (f *Flow) Next(ctx context.Context) error {
	if f.isClosed() {
		return ErrClosed
	}
	cur := f.Step()
	if cur.Last() {
		return ErrLastStep
	}
	if err := f.save(ctx, cur); err != nil {
		return f.fail(err)
	}
	f.moveTo(cur + 1)
	f.log.Debug("wizard step", zap.String("from", cur.String()), zap.String("to", (cur+1).String()))
	return f.mount(ctx, cur+1)
}

// Previous moves back without saving. Unsaved edits on the step being
// left are dropped when that step is next loaded.
func (f *Flow) Previous(ctx context.Context) error {
	if f.isClosed() {
		return ErrClosed
	}
	cur := f.Step()
	if cur.First() {
		return ErrFirstStep
	}
	f.moveTo(cur - 1)
	f.log.Debug("wizard step", zap.String("from", cur.String()), zap.String("to", (cur-1).String()))
	return f.mount(ctx, cur-1)
}

// SaveTeaching saves the teaching draft now, replacing any pending
// auto-save.
func (f *Flow) SaveTeaching(ctx context.Context) error {
	if f.isClosed() {
		return ErrClosed
	}
	if err := f.saveTeaching(ctx); err != nil {
		return f.fail(err)
	}
	return nil
}

// Submit submits the report from the review step. A rejected submit for an
// incomplete report records the section breakdown.
func (f *Flow) Submit(ctx context.Context) (*models.Report, error) {
	if f.isClosed() {
		return nil, ErrClosed
	}
	if !f.Step().Last() {
		return nil, f.fail(ErrNotOnReview)
	}
	id := f.ReportID()
	if id == "" {
		return nil, f.fail(ErrNoReport)
	}
	rep, err := f.client.Submit(ctx, id)
	if err != nil {
		if ae, ok := AsAPIError(err); ok && ae.Completion != nil {
			c := *ae.Completion
			f.mu.Lock()
			f.completion = &c
			f.mu.Unlock()
		}
		return nil, f.fail(err)
	}
	f.autosave.Cancel()
	f.mu.Lock()
	f.submitted = rep
	f.lastErr = nil
	f.mu.Unlock()
	f.log.Info("report submitted", zap.String("report_id", id))
	return rep, nil
}

// Close stops the auto-save timer and aborts an auto-save in flight.
func (f *Flow) Close() {
	f.autosave.Close()
	f.cancel()
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

/*─────────────────────────────────────────────────────────────────────────────*
| Internals                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func (f *Flow) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Flow) fail(err error) error {
	f.mu.Lock()
	f.lastErr = err
	f.mu.Unlock()
	return err
}

func (f *Flow) moveTo(s Step) {
	if s != StepTeaching {
		f.autosave.Cancel()
	}
	f.mu.Lock()
	f.step = s
	f.lastErr = nil
	f.mu.Unlock()
}

func (f *Flow) markLoaded(nonEmpty bool) {
	if !nonEmpty {
		return
	}
	f.resuming = true
	if !f.noticeDismissed {
		f.notice = ResumeNotice
	}
}

// mount loads a step's saved data into the draft.
func (f *Flow) mount(ctx context.Context, s Step) error {
	id := f.ReportID()
	if id == "" {
		return nil
	}

	switch s {
	case StepTeaching:
		sec, err := f.client.GetTeaching(ctx, id)
		if err != nil {
			return f.fail(err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.draft.Teaching = assembly.TeachingInput{}
		if sec != nil {
			f.draft.Teaching = assembly.TeachingInput{
				Courses:           sec.Courses,
				TaughtOutsideDept: sec.TaughtOutsideDept,
				SectionNotes:      sec.SectionNotes,
			}
			f.markLoaded(len(sec.Courses) > 0 || sec.SectionNotes != "")
		}

	case StepResearch:
		sec, err := f.client.GetResearch(ctx, id)
		if err != nil {
			return f.fail(err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.draft.Research = assembly.ResearchInput{}
		if sec != nil {
			f.draft.Research = assembly.ResearchInput{
				Publications: sec.Publications,
				Grants:       sec.Grants,
				Conferences:  sec.Conferences,
			}
			f.markLoaded(len(sec.Publications)+len(sec.Grants)+len(sec.Conferences) > 0)
		}

	case StepService:
		list, err := f.client.ListServices(ctx, id)
		if err != nil {
			return f.fail(err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		f.draft.Services = list
		f.draft.PendingServices = nil
		f.markLoaded(len(list) > 0)

	case StepGeneralNotes, StepReview:
		rep, err := f.client.GetReport(ctx, id)
		if err != nil {
			return f.fail(err)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if s == StepReview {
			f.review = rep
			c := rep.Completion
			f.completion = &c
			return nil
		}
		f.draft.Notes = rep.Notes
		f.markLoaded(rep.Notes != "")
	}
	return nil
}

// save writes the step's draft. The review step has nothing to save.
func (f *Flow) save(ctx context.Context, s Step) error {
	if s == StepReview {
		return nil
	}
	if s == StepTeaching {
		return f.saveTeaching(ctx)
	}

	id, err := f.ensureReport(ctx)
	if err != nil {
		return err
	}
	d := f.Draft()

	switch s {
	case StepResearch:
		_, err = f.client.SaveResearch(ctx, id, d.Research)
		return err

	case StepService:
		for _, e := range d.PendingServices {
			created, err := f.client.CreateService(ctx, id, e)
			if err != nil {
				return err
			}
			f.mu.Lock()
			f.draft.Services = append(f.draft.Services, *created)
			f.draft.PendingServices = f.draft.PendingServices[1:]
			f.mu.Unlock()
		}
		return nil

	case StepGeneralNotes:
		_, err = f.client.SetNotes(ctx, id, d.Notes)
		return err
	}
	return nil
}

func (f *Flow) saveTeaching(ctx context.Context) error {
	f.autosave.Cancel()
	f.teachingMu.Lock()
	defer f.teachingMu.Unlock()

	id, err := f.ensureReport(ctx)
	if err != nil {
		return err
	}
	in := f.Draft().Teaching
	if _, err := f.client.SaveTeaching(ctx, id, in); err != nil {
		return err
	}
	f.mu.Lock()
	f.badge = Badge{Status: SaveSaved, At: f.now()}
	f.mu.Unlock()
	return nil
}

// autosaveTeaching runs on the timer. Failures only touch the badge.
func (f *Flow) autosaveTeaching() {
	f.teachingMu.Lock()
	defer f.teachingMu.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	in := f.draft.Teaching
	f.badge = Badge{Status: SaveSaving, At: f.now()}
	f.mu.Unlock()

	id, err := f.ensureReport(f.ctx)
	if err == nil {
		_, err = f.client.SaveTeaching(f.ctx, id, in)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.badge = Badge{Status: SaveFailed, At: f.now(), Err: err}
		f.log.Warn("teaching auto-save failed", zap.Error(err), zap.String("report_id", id))
		return
	}
	f.badge = Badge{Status: SaveSaved, At: f.now()}
}

// ensureReport returns the report id, creating the report on first use.
// When the year already has a report its id is adopted.
func (f *Flow) ensureReport(ctx context.Context) (string, error) {
	f.createMu.Lock()
	defer f.createMu.Unlock()

	if id := f.ReportID(); id != "" {
		return id, nil
	}
	var id string
	rep, err := f.client.CreateReport(ctx, f.year)
	switch {
	case err == nil:
		id = rep.ID.Hex()
	default:
		ae, ok := AsAPIError(err)
		if !ok || ae.ExistingID == "" {
			return "", err
		}
		id = ae.ExistingID
		f.log.Info("report exists for year, continuing it", zap.String("report_id", id))
	}
	f.mu.Lock()
	f.reportID = id
	f.mu.Unlock()
	return id, nil
}
