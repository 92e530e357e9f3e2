package escalation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vkarpenko/ops_awareness_system/internal/models"
)

// State is the observable phase of one panic-button activation.
type State string

const (
	StateIdle        State = "idle"
	StatePressing    State = "pressing"
	StateTriggering  State = "triggering"
	StateDispatching State = "dispatching"
	StateSucceeded   State = "succeeded"
	StateFailed      State = "failed"
)

// Identity is the operator on whose behalf the escalation runs.
type Identity struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// IdentityProvider resolves the current operator. On failure the pipeline
// proceeds with a generic identity rather than aborting.
type IdentityProvider interface {
	Current(ctx context.Context) (Identity, error)
}

// IncidentCreator is the single write path this pipeline has into the
// entity store.
type IncidentCreator interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
}

// Message is a notification addressed to the operations desk.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier dispatches a notification. Delivery failures fold into the
// Failed terminal state; they are never left unhandled.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Locator performs a single-shot geolocation read.
type Locator interface {
	Resolve(ctx context.Context) (models.Coordinate, error)
}

// Outcome is the user-visible result of one escalation attempt. Every
// attempt ends in an explicit acknowledgment, success or backup path,
// never silence.
type Outcome struct {
	State          State             `json:"state"`
	Acknowledgment string            `json:"acknowledgment"`
	IncidentID     uuid.UUID         `json:"incident_id,omitempty"`
	Coordinate     models.Coordinate `json:"coordinate"`
	Operator       string            `json:"operator"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// OutcomeHandler is called once per escalation when it reaches a terminal
// state.
type OutcomeHandler func(Outcome)

// Config carries the pipeline timing knobs.
type Config struct {
	HoldDuration    time.Duration // press-and-hold threshold
	GeoTimeout      time.Duration // single-shot geolocation bound
	DispatchTimeout time.Duration // upper bound on create+notify
	Cooldown        time.Duration // window before the button rearms
	OpsEmail        string        // fixed operations address
}

const (
	ackSent   = "Emergency alert sent. Responders have been notified."
	ackBackup = "Emergency alert sent via backup path. Responders have been notified."

	fallbackOperator = "Unknown Operator"
)

// Pipeline is the panic-button state machine: press detection, geolocation
// acquisition with sentinel fallback, incident creation, notification
// dispatch and cooldown. A pipeline instance is single-flight; a press
// while not idle is a no-op.
type Pipeline struct {
	cfg      Config
	identity IdentityProvider
	store    IncidentCreator
	notifier Notifier
	locator  Locator
	logger   *logrus.Logger

	mu            sync.Mutex
	state         State
	pressedCoord  *models.Coordinate
	holdTimer     *time.Timer
	cooldownTimer *time.Timer
	outcome       *Outcome
	handlers      []OutcomeHandler
}

// NewPipeline creates an idle pipeline.
func NewPipeline(cfg Config, identity IdentityProvider, store IncidentCreator, notifier Notifier, locator Locator, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		identity: identity,
		store:    store,
		notifier: notifier,
		locator:  locator,
		logger:   logger,
		state:    StateIdle,
	}
}

// AddHandler registers a callback for terminal outcomes.
func (p *Pipeline) AddHandler(h OutcomeHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers = append(p.handlers, h)
}

// Press starts hold detection. The optional coordinate is a client-supplied
// position that, when finite, skips the geolocation read. Returns false
// when the pipeline is not idle (single-flight, cooldown included).
func (p *Pipeline) Press(coord *models.Coordinate) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateIdle {
		return false
	}

	p.state = StatePressing
	p.pressedCoord = coord
	p.outcome = nil
	p.holdTimer = time.AfterFunc(p.cfg.HoldDuration, p.trigger)

	p.logger.WithFields(logrus.Fields{
		"component": "escalation_pipeline",
		"hold":      p.cfg.HoldDuration.String(),
	}).Info("Panic button pressed, hold detection armed")
	return true
}

// Release cancels a pending hold. Releasing before the hold threshold has
// zero side effects: the timer is stopped, not merely ignored. Returns
// true when a pending press was actually canceled.
func (p *Pipeline) Release() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePressing {
		return false
	}

	p.holdTimer.Stop()
	p.holdTimer = nil
	p.pressedCoord = nil
	p.state = StateIdle

	p.logger.WithField("component", "escalation_pipeline").Info("Panic button released before hold threshold, escalation cancelled")
	return true
}

// trigger fires when the hold threshold elapses.
func (p *Pipeline) trigger() {
	p.mu.Lock()
	if p.state != StatePressing {
		// Lost the race against Release; the stopped timer already fired.
		p.mu.Unlock()
		return
	}
	p.state = StateTriggering
	coord := p.pressedCoord
	p.pressedCoord = nil
	p.mu.Unlock()

	go p.run(coord)
}

// run drives the escalation to a terminal state. It is bounded: the
// geolocation read and the dispatch phase each carry their own timeout, so
// the pipeline can never be left stuck in Triggering or Dispatching.
func (p *Pipeline) run(pressed *models.Coordinate) {
	log := p.logger.WithField("component", "escalation_pipeline")
	log.Warn("Hold threshold reached, escalating")

	coord := p.acquireLocation(pressed)

	p.mu.Lock()
	p.state = StateDispatching
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.DispatchTimeout)
	defer cancel()

	operator := p.resolveIdentity(ctx)
	now := time.Now().UTC()

	incident := &models.Incident{
		ID:          uuid.New(),
		Title:       fmt.Sprintf("EMERGENCY: Panic button activated by %s", operator.FullName),
		Description: fmt.Sprintf("%s triggered the panic button at %s.", operator.FullName, now.Format(time.RFC3339)),
		ThreatType:  "emergency",
		Severity:    models.SeverityCritical,
		Status:      models.StatusActive,
		Location:    &coord,
		Verified:    true,
		Source:      "Panic Button",
		CreatedAt:   now,
	}

	// Incident creation always precedes notification; the two calls are
	// best-effort and non-transactional. A created incident is never rolled
	// back on a later failure: losing record of an attempted emergency is
	// worse than a duplicate.
	createErr := p.store.CreateIncident(ctx, incident)
	if createErr != nil {
		log.WithError(createErr).Error("Failed to create emergency incident")
	}

	notifyErr := p.notifier.Send(ctx, p.buildMessage(operator, coord, now))
	if notifyErr != nil {
		log.WithError(notifyErr).Error("Failed to dispatch emergency notification")
	}

	outcome := Outcome{
		State:          StateSucceeded,
		Acknowledgment: ackSent,
		Coordinate:     coord,
		Operator:       operator.FullName,
		CompletedAt:    time.Now().UTC(),
	}
	if createErr == nil {
		outcome.IncidentID = incident.ID
	}
	if createErr != nil || notifyErr != nil {
		outcome.State = StateFailed
		outcome.Acknowledgment = ackBackup
	}

	p.finish(outcome)
}

// acquireLocation returns the pressed coordinate when usable, otherwise a
// single-shot geolocation read bounded by the geo timeout. Denial,
// unsupported capability or timeout falls back to the (0,0) sentinel; an
// emergency is never dropped for lack of location.
func (p *Pipeline) acquireLocation(pressed *models.Coordinate) models.Coordinate {
	if pressed.Valid() {
		return *pressed
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cfg.GeoTimeout)
	defer cancel()

	coord, err := p.locator.Resolve(ctx)
	if err != nil {
		p.logger.WithField("component", "escalation_pipeline").WithError(err).
			Warn("Geolocation unavailable, falling back to sentinel coordinate")
		return models.Coordinate{}
	}
	if !(&coord).Valid() {
		return models.Coordinate{}
	}
	return coord
}

func (p *Pipeline) resolveIdentity(ctx context.Context) Identity {
	operator, err := p.identity.Current(ctx)
	if err != nil {
		p.logger.WithField("component", "escalation_pipeline").WithError(err).
			Warn("No current operator, proceeding with generic identity")
		return Identity{FullName: fallbackOperator}
	}
	if operator.FullName == "" {
		operator.FullName = fallbackOperator
	}
	return operator
}

func (p *Pipeline) buildMessage(operator Identity, coord models.Coordinate, at time.Time) Message {
	mapLink := fmt.Sprintf("https://maps.google.com/?q=%f,%f", coord.Latitude, coord.Longitude)
	return Message{
		To:      p.cfg.OpsEmail,
		Subject: fmt.Sprintf("EMERGENCY ALERT: %s", operator.FullName),
		Body: fmt.Sprintf("Panic button activated.\n\nOperator: %s\nEmail: %s\nTime: %s\nLocation: %s\n",
			operator.FullName, operator.Email, at.Format(time.RFC3339), mapLink),
	}
}

// finish records the terminal outcome, notifies handlers and arms the
// cooldown that returns the pipeline to idle.
func (p *Pipeline) finish(outcome Outcome) {
	p.mu.Lock()
	p.state = outcome.State
	p.outcome = &outcome
	handlers := make([]OutcomeHandler, len(p.handlers))
	copy(handlers, p.handlers)
	p.cooldownTimer = time.AfterFunc(p.cfg.Cooldown, p.reset)
	p.mu.Unlock()

	p.logger.WithFields(logrus.Fields{
		"component": "escalation_pipeline",
		"state":     string(outcome.State),
		"operator":  outcome.Operator,
	}).Warn("Escalation reached terminal state")

	for _, h := range handlers {
		h(outcome)
	}
}

// reset rearms the button after the cooldown. The last outcome stays
// readable until the next press so the acknowledgment is never lost.
func (p *Pipeline) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateSucceeded || p.state == StateFailed {
		p.state = StateIdle
	}
}

// Status returns the current state and, when an attempt has completed, its
// outcome.
func (p *Pipeline) Status() (State, *Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.outcome == nil {
		return p.state, nil
	}
	out := *p.outcome
	return p.state, &out
}

// Stop cancels any pending timers. A dispatch already in flight still runs
// to its terminal state.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.holdTimer != nil {
		p.holdTimer.Stop()
	}
	if p.cooldownTimer != nil {
		p.cooldownTimer.Stop()
	}
}
