package services

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/intake/modules/intake/domain/aggregates/section"
	"github.com/iota-uz/intake/modules/intake/domain/directive"
	"github.com/iota-uz/intake/modules/intake/domain/requiredfields"
	"github.com/iota-uz/intake/modules/intake/domain/roles"
	"github.com/iota-uz/intake/pkg/constants"
	"github.com/iota-uz/intake/pkg/eventbus"
	"github.com/iota-uz/intake/pkg/logging"
	"github.com/iota-uz/intake/pkg/poll"
	"github.com/iota-uz/intake/pkg/scheduler"
	"github.com/iota-uz/intake/pkg/serrors"
)

type State string

const (
	StateInitializing State = "initializing"
	StateAdvancing    State = "advancing"
	StatePolling      State = "polling"
	StateFinished     State = "finished"
	StateHalted       State = "halted"
)

type Timings struct {
	PollInterval      time.Duration
	PollMinElapsed    time.Duration
	PollCeiling       time.Duration
	BootstrapInterval time.Duration
	BootstrapCeiling  time.Duration
	BootstrapSettle   time.Duration
	NextReloadDelay   time.Duration
	RevealNextDelay   time.Duration
}

func DefaultTimings() Timings {
	return Timings{
		PollInterval:      150 * time.Millisecond,
		PollMinElapsed:    500 * time.Millisecond,
		PollCeiling:       10 * time.Second,
		BootstrapInterval: 100 * time.Millisecond,
		BootstrapCeiling:  5 * time.Second,
		BootstrapSettle:   300 * time.Millisecond,
		NextReloadDelay:   150 * time.Millisecond,
		RevealNextDelay:   time.Second,
	}
}

type Deps struct {
	API        PortalAPI
	Roles      RoleSource
	Loader     SectionLoader
	Orgs       OrgLookup
	Translator Translator
	View       View
	Scheduler  scheduler.Scheduler
	Bus        eventbus.EventBus
	Logger     *logrus.Entry
}

type Options struct {
	Timings      Timings
	TermsSection string
	OrgsSection  string
	// Reloaded is set when the browser reported a reload navigation.
	Reloaded bool
}

// Controller walks one user through the incomplete sections of the intake page. All
// entry points are serialized on mu; timers and poll callbacks re-enter through it.
type Controller struct {
	mu sync.Mutex

	deps Deps
	opts Options
	log  *logrus.Entry

	ctx    context.Context
	cancel context.CancelFunc

	state    State
	userID   string
	page     section.Page
	registry *section.Registry
	needed   requiredfields.Set

	userRoles    []string
	roleRequired bool

	acceptOnNext bool
	acceptFields []string
	completionUI bool

	progressBuilt bool
	opened        string

	// fieldsBound is set once the bootstrap has bound fields; openPending records that a
	// save was in flight at that moment and the first section opens when it settles.
	fieldsBound bool
	openPending bool

	save    *poll.Task
	saveGen uint64
	boot    *poll.Task

	// currentLoaded mirrors whether the first incomplete section has loaded; the bootstrap
	// poll reads it from its tick without taking mu.
	currentLoaded atomic.Bool

	haltErr error
	closed  bool
}

func NewController(deps Deps, opts Options) *Controller {
	if deps.Translator == nil {
		deps.Translator = englishTranslator{}
	}
	if deps.Scheduler == nil {
		deps.Scheduler = scheduler.NewReal()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.TermsSection == "" {
		opts.TermsSection = "topTerms"
	}
	if opts.OrgsSection == "" {
		opts.OrgsSection = "orgsContainer"
	}
	return &Controller{
		deps:     deps,
		opts:     opts,
		log:      deps.Logger,
		state:    StateInitializing,
		registry: section.NewRegistry(),
		ctx:      context.Background(),
		cancel:   func() {},
	}
}

// Initialize resolves the user, loads the required fields and registers the page's
// sections, then waits for the current section's data before driving the user.
func (c *Controller) Initialize(ctx context.Context, page section.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deps.API == nil || c.deps.View == nil {
		return ErrMissingPorts
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.page = page
	c.completionUI = page.HasCompletionUI
	c.state = StateInitializing

	c.userID = page.UserID
	if c.userID == "" {
		id, err := c.deps.API.CurrentUserID(c.ctx)
		if err != nil {
			c.log.WithError(err).Warn("intake: current user lookup failed")
		}
		c.userID = id
	}
	if c.userID == "" {
		c.state = StateHalted
		c.haltErr = ErrUserIDRequired
		c.render(directive.Alert{Message: c.deps.Translator.T(msgUserIDRequired)})
		return ErrUserIDRequired
	}
	c.log = c.log.WithField("user_id", c.userID)

	if err := c.initConfigLocked(); err != nil {
		c.haltLocked("", err)
		return err
	}
	if err := c.refreshRolesLocked(false); err != nil {
		return err
	}

	c.registerSectionsLocked(page.Sections)
	c.initSectionDataLocked()
	c.refreshCurrentLoadedLocked()

	c.boot = poll.Start(c.deps.Scheduler, poll.Options{
		Name:      "bootstrap",
		Interval:  c.opts.Timings.BootstrapInterval,
		Ceiling:   c.opts.Timings.BootstrapCeiling,
		Pending:   func() bool { return !c.currentLoaded.Load() },
		OnReady:   func(time.Duration) { c.afterBootstrap() },
		OnCeiling: func(time.Duration) { c.afterBootstrap() },
		Logger:    c.log,
	})
	return nil
}

func (c *Controller) initConfigLocked() error {
	items, err := c.deps.API.StillNeeded(c.ctx, c.userID)
	if err == nil {
		c.applyStillNeededLocked(items)
		return nil
	}
	c.log.WithError(err).Warn("intake: still needed unavailable, falling back to REQUIRED_CORE_DATA")

	fields, ferr := c.deps.API.RequiredCoreData(c.ctx)
	if ferr != nil {
		return errors.Wrap(ErrConfigUnavailable, ferr.Error())
	}
	c.needed = requiredfields.FromFields(fields)
	return nil
}

func (c *Controller) registerSectionsLocked(descs []section.Descriptor) {
	for _, d := range descs {
		if err := constants.Validate.Struct(d); err != nil {
			c.log.WithError(err).WithField("section_id", d.ID).Warn("intake: skipping invalid section container")
			continue
		}
		if err := c.registry.Add(d.Section()); err != nil {
			c.log.WithError(err).WithField("section_id", d.ID).Warn("intake: skipping section container")
			continue
		}
		if c.deps.Loader == nil || !c.deps.Loader.Supports(d.ID) {
			_ = c.registry.MarkLoaded(d.ID)
		}
	}
}

// initSectionDataLocked fetches data for the first incomplete section that has a loader.
func (c *Controller) initSectionDataLocked() {
	if c.deps.Loader == nil {
		return
	}
	for _, s := range c.registry.All() {
		if !c.deps.Loader.Supports(s.ID()) || s.Complete(c.needed) {
			continue
		}
		id := s.ID()
		_ = c.registry.MarkLoading(id)
		c.deps.Scheduler.After(0, func() { c.loadSection(id) })
		return
	}
}

func (c *Controller) loadSection(id string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	ctx, userID := c.ctx, c.userID
	c.mu.Unlock()

	payload, err := c.deps.Loader.LoadSection(ctx, userID, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err != nil {
		c.log.WithError(err).WithField("section_id", id).Warn("intake: section data load failed")
	} else if len(payload) > 0 {
		c.render(directive.SectionData{SectionID: id, Payload: payload})
	}
	_ = c.registry.MarkLoaded(id)
	c.refreshCurrentLoadedLocked()
}

func (c *Controller) refreshCurrentLoadedLocked() {
	s, ok := c.registry.FirstIncomplete(c.needed)
	c.currentLoaded.Store(!ok || s.Loaded())
}

func (c *Controller) afterBootstrap() {
	c.deps.Scheduler.After(c.opts.Timings.BootstrapSettle, c.fieldsDidInit)
}

func (c *Controller) fieldsDidInit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.fieldsBound || c.terminal() {
		return
	}
	c.fieldsBound = true

	var bind []string
	for _, s := range c.registry.All() {
		if !s.Complete(c.needed) {
			bind = append(bind, s.ID())
		}
	}
	if len(bind) > 0 {
		c.render(directive.BindFields{SectionIDs: bind})
	}

	c.constructProgressLocked()

	switch c.state {
	case StatePolling:
		c.openPending = true
	case StateInitializing:
		c.openFirstLocked()
	}
}

// openFirstLocked opens the terms section while it is incomplete, otherwise the first
// incomplete section.
func (c *Controller) openFirstLocked() {
	terms := c.opts.TermsSection
	if c.registry.Has(terms) && !c.registry.IsComplete(terms, c.needed) {
		c.state = StateAdvancing
		c.render(directive.ShowForm{FullSize: true})
		c.handleIncompleteLocked(terms)
		c.render(directive.OpenSection{SectionID: terms})
		c.opened = terms
		c.publish(&SectionOpenedEvent{UserID: c.userID, SectionID: terms})
		return
	}
	c.render(directive.ShowForm{FullSize: false})
	c.advanceLocked("")
}

func (c *Controller) constructProgressLocked() {
	terms := c.opts.TermsSection
	if c.registry.Has(terms) && !c.registry.IsComplete(terms, c.needed) {
		return
	}
	if c.registry.Len() <= 1 {
		c.render(directive.RemoveProgress{})
		return
	}
	items := make([]directive.ProgressItem, 0, c.registry.Len())
	for _, s := range c.registry.All() {
		complete := s.Complete(c.needed)
		items = append(items, directive.ProgressItem{
			SectionID: s.ID(),
			Display:   s.Display(),
			Active:    (s.ID() == terms && complete) || (c.roleRequired && complete),
		})
	}
	c.render(directive.BuildProgress{Items: items})
	c.progressBuilt = true
}

// IsSectionComplete is false for sections the page did not register.
func (c *Controller) IsSectionComplete(sectionID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.IsComplete(sectionID, c.needed)
}

// AdvanceToNextIncompleteSection opens the lowest-index incomplete section, or finishes
// when there is none.
func (c *Controller) AdvanceToNextIncompleteSection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return
	}
	c.advanceLocked("")
}

func (c *Controller) advanceLocked(fromSection string) {
	next, ok := c.registry.FirstIncomplete(c.needed)
	if !ok {
		c.finishLocked(fromSection)
		return
	}
	c.state = StateAdvancing
	c.handleIncompleteLocked(next.ID())
	c.render(directive.OpenSection{SectionID: next.ID()})
	c.stopContinueLocked(next.ID())
	if c.opened != next.ID() {
		c.opened = next.ID()
		c.publish(&SectionOpenedEvent{UserID: c.userID, SectionID: next.ID()})
	}
}

func (c *Controller) handleIncompleteLocked(sectionID string) {
	switch sectionID {
	case c.opts.TermsSection:
		d := directive.ShowTerms{FullSize: true, DisableNavigation: true}
		if c.opts.Reloaded && !c.acceptOnNext {
			d.Reminder = c.deps.Translator.T(msgTermsReminder)
		}
		c.render(d)
	case c.opts.OrgsSection:
		clinic := c.page.PreselectClinic
		if clinic == "" {
			return
		}
		d := directive.PreselectClinic{ClinicID: clinic}
		if c.deps.Orgs != nil {
			top, err := c.deps.Orgs.TopLevelOrg(c.ctx, clinic)
			if err != nil {
				c.log.WithError(err).WithField("clinic_id", clinic).Warn("intake: top level org lookup failed")
			}
			d.ConsentOrgID = top
		}
		c.render(d)
	}
}

func (c *Controller) stopContinueLocked(sectionID string) {
	if sectionID != "" {
		c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
	}
	c.render(directive.StopContinue{SectionID: sectionID})
	c.setProgressLocked(sectionID)
}

func (c *Controller) continueToNextLocked(sectionID string) {
	c.setProgressLocked(sectionID)
	c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
	c.render(directive.ContinueToNext{SectionID: sectionID})
}

func (c *Controller) setProgressLocked(sectionID string) {
	if !c.progressBuilt || !c.registry.Has(sectionID) {
		return
	}
	c.render(directive.SetProgress{
		SectionID: sectionID,
		Active:    c.registry.IsComplete(sectionID, c.needed),
	})
}

func (c *Controller) finishLocked(sectionID string) {
	c.stopPollsLocked()
	c.state = StateFinished
	if sectionID != "" {
		c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
	}
	reload := !c.completionUI || c.acceptOnNext
	if reload {
		c.render(directive.Reload{})
	} else {
		c.render(directive.ShowCompletion{})
	}
	c.log.WithField("reload", reload).Info("intake: all sections complete")
	c.publish(&FinishedEvent{UserID: c.userID, Reloaded: reload})
}

// SubmitSectionChange starts the save-confirmation poll for a section whose field save
// has just been dispatched. A running poll is superseded.
func (c *Controller) SubmitSectionChange(sectionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitLocked(sectionID)
}

func (c *Controller) submitLocked(sectionID string) error {
	if c.userID == "" {
		return ErrNotInitialized
	}
	if c.terminal() {
		c.log.WithField("section_id", sectionID).Debug("intake: ignoring save after controller stopped")
		return nil
	}
	if !c.registry.Has(sectionID) {
		return ErrUnknownSection
	}

	c.save.Cancel()
	c.saveGen++
	gen := c.saveGen
	c.state = StatePolling

	c.render(directive.SavingIndicator{SectionID: sectionID, Visible: true})
	c.save = poll.Start(c.deps.Scheduler, poll.Options{
		Name:       "save_confirmation",
		Interval:   c.opts.Timings.PollInterval,
		MinElapsed: c.opts.Timings.PollMinElapsed,
		Ceiling:    c.opts.Timings.PollCeiling,
		Pending:    func() bool { return c.deps.View.SavingInProgress(sectionID) },
		OnReady:    func(elapsed time.Duration) { c.onSaveSettled(gen, sectionID, elapsed) },
		OnCeiling:  func(elapsed time.Duration) { c.onSaveCeiling(gen, sectionID, elapsed) },
		Logger:     c.log.WithField("section_id", sectionID),
	})
	return nil
}

func (c *Controller) onSaveSettled(gen uint64, sectionID string, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.saveGen || c.state != StatePolling {
		return
	}

	if c.deps.View.SectionHasError(sectionID) {
		c.haltLocked(sectionID, ErrSectionInvalid)
		return
	}

	items, err := c.deps.API.StillNeeded(c.ctx, c.userID)
	if err != nil {
		c.haltLocked(sectionID, err)
		return
	}
	if len(items) == 0 {
		c.needed = requiredfields.New(nil)
		c.publish(&SaveConfirmedEvent{UserID: c.userID, SectionID: sectionID, Elapsed: elapsed, Complete: true})
		c.finishLocked(sectionID)
		return
	}

	c.applyStillNeededLocked(items)
	if err := c.refreshRolesLocked(true); err != nil {
		c.haltLocked(sectionID, err)
		return
	}

	c.state = StateAdvancing
	complete := c.registry.IsComplete(sectionID, c.needed)
	c.publish(&SaveConfirmedEvent{
		UserID:    c.userID,
		SectionID: sectionID,
		Elapsed:   elapsed,
		Remaining: c.needed.Len(),
		Complete:  complete,
	})
	if !c.fieldsBound {
		// bootstrap still running; fieldsDidInit opens the first section
		c.state = StateInitializing
		c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
		return
	}
	if c.openPending {
		c.openPending = false
		if complete {
			c.continueToNextLocked(sectionID)
		} else {
			c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
		}
		c.openFirstLocked()
		return
	}
	if !complete {
		c.render(directive.SavingIndicator{SectionID: sectionID, Visible: false})
		return
	}
	c.continueToNextLocked(sectionID)
	c.advanceLocked(sectionID)
}

func (c *Controller) onSaveCeiling(gen uint64, sectionID string, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || gen != c.saveGen || c.state != StatePolling {
		return
	}
	c.publish(&SaveUnresolvedEvent{UserID: c.userID, SectionID: sectionID, Elapsed: elapsed})
	c.haltLocked(sectionID, ErrSaveUnconfirmed)
}

// HandleSectionError halts progression after the page reported a validation error in a
// section. The only way forward is the reload behind the retry affordance.
func (c *Controller) HandleSectionError(sectionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateFinished {
		return
	}
	c.haltLocked(sectionID, ErrSectionInvalid)
}

func (c *Controller) haltLocked(sectionID string, cause error) {
	c.stopPollsLocked()
	c.state = StateHalted
	c.haltErr = cause
	if sectionID == "" {
		c.render(directive.ShowError{Message: c.deps.Translator.T(msgConfigUnavailable)})
	}
	c.stopContinueLocked(sectionID)
	c.render(directive.ShowRetry{SectionID: sectionID, Label: c.deps.Translator.T(msgTryAgain)})

	reason := serrors.CodeOf(cause)
	if reason == "" {
		reason = "fetch_failed"
	}
	c.log.WithError(cause).WithFields(logrus.Fields{
		"section_id": sectionID,
		"reason":     reason,
	}).Warn("intake: progression halted")
	c.publish(&HaltedEvent{UserID: c.userID, SectionID: sectionID, Reason: reason})
}

// NextClicked handles the page's "next" control.
func (c *Controller) NextClicked() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.terminal() {
		return nil
	}
	if c.acceptOnNext {
		for _, f := range c.acceptFields {
			c.render(directive.ClickAgreement{Field: f})
		}
		return c.submitLocked(c.opts.TermsSection)
	}
	c.deps.Scheduler.After(c.opts.Timings.NextReloadDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.closed {
			c.render(directive.Reload{})
		}
	})
	return nil
}

// Retry is the manual recovery path: the page is reloaded and initialization starts over.
func (c *Controller) Retry() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopPollsLocked()
	c.render(directive.Reload{})
}

func (c *Controller) applyStillNeededLocked(items []requiredfields.Item) {
	c.needed = requiredfields.New(items)
	c.handleAcceptOnNextLocked()
}

func (c *Controller) handleAcceptOnNextLocked() {
	var accept []string
	for _, it := range c.needed.Items() {
		if !c.page.HasTermsItem(it.Field) {
			continue
		}
		c.render(directive.MarkTermsRequired{Field: it.Field, CollectionMethod: it.CollectionMethod})
		if it.IsAcceptOnNext() {
			accept = append(accept, it.Field)
		}
	}
	if len(accept) == 0 {
		return
	}

	first := !c.acceptOnNext
	c.acceptOnNext = true
	c.acceptFields = accept
	c.completionUI = false
	c.render(directive.AcceptOnNext{Fields: accept})
	if !first {
		return
	}
	c.deps.Scheduler.After(c.opts.Timings.RevealNextDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.closed && !c.terminal() {
			c.render(directive.RevealNext{})
		}
	})
}

// refreshRolesLocked reloads the user's roles. With strict unset a failure only clears
// the role requirement.
func (c *Controller) refreshRolesLocked(strict bool) error {
	if c.deps.Roles == nil {
		return nil
	}
	names, err := c.deps.Roles.UserRoles(c.ctx, c.userID)
	if err != nil {
		if strict {
			return errors.Wrap(err, "user roles")
		}
		c.log.WithError(err).Warn("intake: user roles unavailable")
		c.userRoles = nil
		c.roleRequired = false
		return nil
	}
	c.userRoles = names
	c.roleRequired = roles.Required(names)
	return nil
}

func (c *Controller) stopPollsLocked() {
	c.save.Cancel()
	c.boot.Cancel()
}

func (c *Controller) terminal() bool {
	return c.state == StateFinished || c.state == StateHalted
}

func (c *Controller) render(d directive.Directive) {
	if c.deps.View != nil {
		c.deps.View.Render(d)
	}
}

func (c *Controller) publish(event interface{}) {
	if c.deps.Bus != nil {
		c.deps.Bus.Publish(event)
	}
}

// Close stops all timers and cancels in-flight fetches. It is safe to call more than once.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.stopPollsLocked()
	c.cancel()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Controller) OpenedSection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.opened
}

func (c *Controller) RequiredFields() requiredfields.Set {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.needed
}

func (c *Controller) AcceptOnNextActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.acceptOnNext
}

func (c *Controller) RoleRequired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roleRequired
}

func (c *Controller) Sections() []section.Section {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.All()
}

// HaltReason is the error that stopped progression, nil unless halted.
func (c *Controller) HaltReason() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.haltErr
}
