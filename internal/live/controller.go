package live

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/iglive/internal/eventbus"
	"github.com/five82/iglive/internal/instagram"
)

var (
	// ErrAlreadyStarted is returned by Start unless the controller is Disconnected.
	ErrAlreadyStarted = errors.New("live session already started")
	// ErrStartAborted is returned by Start when Disconnect interrupted setup.
	ErrStartAborted = errors.New("live session start aborted by disconnect")
	// ErrNoTarget is returned by Start without a target id or username.
	ErrNoTarget = errors.New("no target user id or username configured")
)

// Controller drives one live polling session: login, target resolution,
// descriptor fetch, then heartbeat and comment polls until the broadcast
// ends or a poll fails.
type Controller struct {
	cfg   Config
	inv   Invokers
	sched Scheduler
	bus   *eventbus.Bus[EventKind, Event]
	log   zerolog.Logger
	now   func() time.Time

	// dispatchMu serializes tick result handling across both polls.
	// Public methods never take it, so handlers may call them.
	dispatchMu    sync.Mutex
	heartbeatBusy atomic.Bool
	commentBusy   atomic.Bool

	// Events are queued under mu, together with the state change they
	// report, and published by one goroutine at a time in queue order.
	// queueMu may be taken while holding mu, never the other way round.
	queueMu  sync.Mutex
	queue    []queuedEvent
	draining bool

	mu        sync.Mutex
	state     State
	epoch     uint64
	creds     instagram.Credentials
	session   *Session
	heartbeat *instagram.Heartbeat
	cursor    int64
	hbHandle  Handle
	cmHandle  Handle
	ctx       context.Context
	cancel    context.CancelFunc
}

// Option configures a Controller.
type Option func(*Controller)

// WithScheduler replaces the default TickerScheduler.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithLogger sets the controller logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) { c.log = l.With().Str("component", "live").Logger() }
}

// WithClock overrides the wall clock used for the comment cursor.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		if now != nil {
			c.now = now
		}
	}
}

// NewController builds a Disconnected controller.
func NewController(cfg Config, inv Invokers, opts ...Option) (*Controller, error) {
	if err := inv.validate(); err != nil {
		return nil, fmt.Errorf("invalid invokers: %w", err)
	}
	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:   cfg,
		inv:   inv,
		sched: TickerScheduler{},
		log:   zerolog.Nop(),
		now:   time.Now,
		creds: cfg.Credentials,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.bus = eventbus.New[EventKind, Event](eventbus.WithRecover(func(kind EventKind, r any) {
		c.log.Error().Err(eventbus.PanicError(r)).Str("event", string(kind)).Msg("event handler panicked")
	}))
	return c, nil
}

// StartOption adjusts a single Start call.
type StartOption func(*startOptions)

type startOptions struct {
	targetID     string
	refreshLogin bool
}

// WithTargetUserID skips the username lookup and uses id directly.
func WithTargetUserID(id string) StartOption {
	return func(o *startOptions) { o.targetID = id }
}

// WithoutLoginRefresh skips the login step, reusing the transport session.
func WithoutLoginRefresh() StartOption {
	return func(o *startOptions) { o.refreshLogin = false }
}

// Login stores creds for later Start calls and authenticates with them.
// It does not change the connection state.
func (c *Controller) Login(ctx context.Context, creds instagram.Credentials) error {
	c.mu.Lock()
	c.creds = creds
	c.mu.Unlock()
	if err := c.inv.Login.Login(ctx, creds); err != nil {
		return fmt.Errorf("login: %w", err)
	}
	return nil
}

// Start connects to the target broadcast and begins polling. On success
// the controller is Connected, both polls are scheduled and
// EventConnected has been published, or queued behind the current handler
// when Start is called from one. On failure it is Disconnected and nothing
// was published.
func (c *Controller) Start(ctx context.Context, opts ...StartOption) error {
	o := startOptions{refreshLogin: true}
	for _, opt := range opts {
		opt(&o)
	}

	c.mu.Lock()
	if c.state != Disconnected {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.state = Connecting
	c.epoch++
	epoch := c.epoch
	creds := c.creds
	setupCtx, cancelSetup := context.WithCancel(ctx)
	c.cancel = cancelSetup
	c.mu.Unlock()

	targetID, info, err := c.connect(setupCtx, o, creds)
	cancelSetup()

	at := c.now()
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		if err != nil {
			return err
		}
		return ErrStartAborted
	}
	if err != nil {
		c.resetLocked()
		c.mu.Unlock()
		c.log.Warn().Err(err).Msg("start failed")
		return err
	}

	c.ctx, c.cancel = context.WithCancel(context.WithoutCancel(ctx))
	c.session = newSession(targetID, info)
	c.heartbeat = nil
	c.cursor = 0
	c.hbHandle = c.sched.Schedule(c.cfg.HeartbeatFetchInterval, c.heartbeatTick)
	c.cmHandle = c.sched.Schedule(c.cfg.CommentFetchInterval, c.commentTick)
	c.state = Connected
	session := *c.session
	c.enqueueLocked(Event{Kind: EventConnected, Time: at, Session: &session}, 0)
	c.mu.Unlock()

	c.log.Info().
		Str("live_id", session.LiveID).
		Str("owner", session.Owner.Username).
		Int64("viewers", session.ViewerCount).
		Msg("connected")
	c.flush()
	return nil
}

func (c *Controller) connect(ctx context.Context, o startOptions, creds instagram.Credentials) (string, *instagram.LiveInfo, error) {
	if o.refreshLogin {
		if err := c.inv.Login.Login(ctx, creds); err != nil {
			return "", nil, fmt.Errorf("login: %w", err)
		}
	}

	targetID := o.targetID
	if targetID == "" {
		if c.cfg.Username == "" {
			return "", nil, ErrNoTarget
		}
		id, err := c.inv.Lookup.LookupUserID(ctx, c.cfg.Username)
		if err != nil {
			return "", nil, fmt.Errorf("lookup target user id: %w", err)
		}
		targetID = id
	}

	info, err := c.inv.LiveInfo.FetchLiveInfo(ctx, targetID)
	if err != nil {
		return "", nil, fmt.Errorf("fetch live info: %w", err)
	}
	if info == nil {
		return "", nil, errors.New("fetch live info: empty response")
	}
	return targetID, info, nil
}

// Disconnect stops polling and clears session state. cause is delivered
// with EventDisconnected, which is only published when the controller was
// Connected. Disconnect during Start aborts the start. It reports whether
// a Connected session was ended.
//
// Called from an event handler, Disconnect returns before the handler's
// own dispatch finishes; EventDisconnected is delivered right after it.
func (c *Controller) Disconnect(cause error) bool {
	at := c.now()
	c.mu.Lock()
	if c.state == Disconnected {
		c.mu.Unlock()
		return false
	}
	wasConnected := c.state == Connected
	c.resetLocked()
	if wasConnected {
		c.enqueueLocked(Event{Kind: EventDisconnected, Time: at, Err: cause}, 0)
	}
	c.mu.Unlock()

	if !wasConnected {
		return false
	}
	c.logDisconnect(cause)
	c.flush()
	return true
}

// endSession is Disconnect scoped to one session epoch. When report is set
// a non-nil cause is also published as EventError, queued together with
// EventDisconnected so nothing can come between them.
func (c *Controller) endSession(epoch uint64, cause error, report bool) bool {
	at := c.now()
	c.mu.Lock()
	if c.epoch != epoch || c.state != Connected {
		c.mu.Unlock()
		return false
	}
	c.resetLocked()
	c.enqueueLocked(Event{Kind: EventDisconnected, Time: at, Err: cause}, 0)
	if report && cause != nil {
		c.enqueueLocked(Event{Kind: EventError, Time: at, Err: cause}, 0)
	}
	c.mu.Unlock()

	c.logDisconnect(cause)
	c.flush()
	return true
}

func (c *Controller) logDisconnect(cause error) {
	if cause != nil {
		c.log.Warn().Err(cause).Msg("disconnected")
		return
	}
	c.log.Info().Msg("disconnected")
}

// resetLocked returns to Disconnected. Caller holds mu.
func (c *Controller) resetLocked() {
	if c.hbHandle != nil {
		c.hbHandle.Cancel()
		c.hbHandle = nil
	}
	if c.cmHandle != nil {
		c.cmHandle.Cancel()
		c.cmHandle = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.ctx = nil
	c.session = nil
	c.heartbeat = nil
	c.cursor = 0
	c.state = Disconnected
	c.epoch++
}

type tick struct {
	epoch  uint64
	liveID string
	cursor int64
	ctx    context.Context
}

func (c *Controller) beginTick() (tick, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Connected || c.session == nil {
		return tick{}, false
	}
	return tick{epoch: c.epoch, liveID: c.session.LiveID, cursor: c.cursor, ctx: c.ctx}, true
}

func (c *Controller) currentLocked(epoch uint64) bool {
	return c.epoch == epoch && c.state == Connected
}

func (c *Controller) current(epoch uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked(epoch)
}

// fail ends the session with err and reports it.
func (c *Controller) fail(epoch uint64, err error) {
	c.endSession(epoch, err, true)
}

func (c *Controller) heartbeatTick() {
	if !c.heartbeatBusy.CompareAndSwap(false, true) {
		c.log.Debug().Msg("heartbeat still in flight, skipping tick")
		return
	}
	defer c.heartbeatBusy.Store(false)

	t, ok := c.beginTick()
	if !ok {
		return
	}
	hb, err := c.inv.Heartbeat.FetchHeartbeat(t.ctx, t.liveID)

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	if err == nil && hb == nil {
		err = errors.New("fetch heartbeat: empty response")
	}
	if err != nil {
		c.fail(t.epoch, err)
		return
	}

	at := c.now()
	c.mu.Lock()
	if !c.currentLocked(t.epoch) {
		c.mu.Unlock()
		return
	}
	c.heartbeat = hb.Clone()
	next := *c.session
	next.ViewerCount = int64(hb.ViewerCount)
	next.BroadcastStatus = hb.BroadcastStatus
	c.session = &next
	c.enqueueLocked(Event{Kind: EventFetchHeartbeat, Time: at, Heartbeat: hb.Clone()}, t.epoch)
	c.mu.Unlock()

	c.log.Debug().
		Int64("viewers", int64(hb.ViewerCount)).
		Str("status", string(hb.BroadcastStatus)).
		Msg("heartbeat")
	c.flush()

	if hb.BroadcastStatus == instagram.BroadcastStopped {
		c.endSession(t.epoch, nil, false)
	}
}

func (c *Controller) commentTick() {
	if !c.commentBusy.CompareAndSwap(false, true) {
		c.log.Debug().Msg("comment fetch still in flight, skipping tick")
		return
	}
	defer c.commentBusy.Store(false)

	t, ok := c.beginTick()
	if !ok {
		return
	}
	batch, err := c.inv.Comments.FetchComments(t.ctx, t.liveID, formatCursor(t.cursor))

	c.dispatchMu.Lock()
	defer c.dispatchMu.Unlock()

	if err != nil {
		c.fail(t.epoch, err)
		return
	}
	if batch == nil {
		batch = &instagram.CommentBatch{}
	}

	c.log.Debug().
		Int("comments", len(batch.Comments)).
		Int("system_comments", len(batch.SystemComments)).
		Msg("comments fetched")
	if !c.publish(t.epoch, Event{Kind: EventFetchComments, Comments: batch}) {
		return
	}

	// The cursor moves after FetchComments handlers ran, so they still see
	// the value this batch was requested with.
	if batch.Len() > 0 {
		now := c.now().Unix()
		c.mu.Lock()
		if c.currentLocked(t.epoch) {
			// Wall-clock cursor; max keeps it monotonic if the clock steps back.
			c.cursor = max(c.cursor, now)
		}
		c.mu.Unlock()
	}

	// A handler may end the session mid-batch; nothing follows its disconnect.
	for i := range batch.Comments {
		comment := batch.Comments[i]
		if !c.publish(t.epoch, Event{Kind: EventUserComment, Comment: &comment}) {
			return
		}
	}
	for i := range batch.SystemComments {
		sc := batch.SystemComments[i]
		if !c.publish(t.epoch, Event{Kind: EventSystemComment, SystemComment: &sc}) {
			return
		}
		if sc.IsJoin() && !c.publish(t.epoch, Event{Kind: EventJoin, SystemComment: &sc}) {
			return
		}
	}
}

func formatCursor(ts int64) string {
	if ts <= 0 {
		return ""
	}
	return strconv.FormatInt(ts, 10)
}

type queuedEvent struct {
	event Event
	// epoch ties a poll event to its session. Zero means publish regardless.
	epoch uint64
}

// publish queues e for the session epoch and flushes. It reports false,
// queueing nothing, once that session has ended.
func (c *Controller) publish(epoch uint64, e Event) bool {
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	c.mu.Lock()
	if !c.currentLocked(epoch) {
		c.mu.Unlock()
		return false
	}
	c.enqueueLocked(e, epoch)
	c.mu.Unlock()
	c.flush()
	return true
}

// enqueueLocked appends e to the publish queue. Caller holds mu.
func (c *Controller) enqueueLocked(e Event, epoch uint64) {
	c.queueMu.Lock()
	c.queue = append(c.queue, queuedEvent{event: e, epoch: epoch})
	c.queueMu.Unlock()
}

// flush publishes queued events in order. If another goroutine is already
// publishing, it returns at once and that goroutine delivers them, which
// also covers handlers calling back into the controller. Poll events whose
// session ended while they waited are dropped.
func (c *Controller) flush() {
	c.queueMu.Lock()
	if c.draining {
		c.queueMu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue[0] = queuedEvent{}
		c.queue = c.queue[1:]
		c.queueMu.Unlock()

		if next.epoch == 0 || c.current(next.epoch) {
			c.bus.Publish(next.event.Kind, next.event)
		}

		c.queueMu.Lock()
	}
	c.queue = nil
	c.draining = false
	c.queueMu.Unlock()
}

// State returns the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// IsConnected reports whether polls are running.
func (c *Controller) IsConnected() bool { return c.State() == Connected }

// Session returns a copy of the current session, or false when not connected.
func (c *Controller) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Heartbeat returns a copy of the last heartbeat of this session, or nil.
func (c *Controller) Heartbeat() *instagram.Heartbeat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.heartbeat.Clone()
}

// LiveID returns the connected broadcast id, or "".
func (c *Controller) LiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return ""
	}
	return c.session.LiveID
}

// ViewerCount returns the viewer count of the last heartbeat, or zero
// before the first heartbeat of a session.
func (c *Controller) ViewerCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.heartbeat == nil {
		return 0
	}
	return int64(c.heartbeat.ViewerCount)
}

// Cursor returns the comment cursor sent as last_comment_ts, or "".
func (c *Controller) Cursor() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return formatCursor(c.cursor)
}

// Username returns the configured broadcaster username.
func (c *Controller) Username() string { return c.cfg.Username }

// Subscribe registers fn for kind. The returned func unsubscribes.
// Handlers run synchronously on the goroutine that produced the event.
func (c *Controller) Subscribe(kind EventKind, fn func(Event)) func() {
	return c.bus.Subscribe(kind, fn)
}

// SubscribeAll registers fn for every event kind.
func (c *Controller) SubscribeAll(fn func(Event)) func() {
	unsubs := make([]func(), 0, len(EventKinds))
	for _, kind := range EventKinds {
		unsubs = append(unsubs, c.bus.Subscribe(kind, fn))
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (c *Controller) OnConnected(fn func(Session)) func() {
	return c.Subscribe(EventConnected, func(e Event) { fn(*e.Session) })
}

func (c *Controller) OnDisconnected(fn func(error)) func() {
	return c.Subscribe(EventDisconnected, func(e Event) { fn(e.Err) })
}

func (c *Controller) OnError(fn func(error)) func() {
	return c.Subscribe(EventError, func(e Event) { fn(e.Err) })
}

func (c *Controller) OnHeartbeat(fn func(*instagram.Heartbeat)) func() {
	return c.Subscribe(EventFetchHeartbeat, func(e Event) { fn(e.Heartbeat) })
}

func (c *Controller) OnComments(fn func(*instagram.CommentBatch)) func() {
	return c.Subscribe(EventFetchComments, func(e Event) { fn(e.Comments) })
}

func (c *Controller) OnUserComment(fn func(instagram.UserComment)) func() {
	return c.Subscribe(EventUserComment, func(e Event) { fn(*e.Comment) })
}

func (c *Controller) OnSystemComment(fn func(instagram.SystemComment)) func() {
	return c.Subscribe(EventSystemComment, func(e Event) { fn(*e.SystemComment) })
}

func (c *Controller) OnJoin(fn func(instagram.SystemComment)) func() {
	return c.Subscribe(EventJoin, func(e Event) { fn(*e.SystemComment) })
}
