package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Options struct {
	Palette          []string
	DefaultMaxRounds int
	DefaultTimeLimit int
	InboxSize        int
	CommandTimeout   time.Duration
	// Store is read when a rejoin names a room that is not in memory.
	Store     Store
	Persister *Persister
	Logger    zerolog.Logger
}

// Directory maps room codes to their actors. Its lock only guards the maps;
// it is never held while waiting on an actor.
type Directory struct {
	mu     sync.RWMutex
	rooms  map[string]*Actor
	// closed records when each room destroyed in this process went away,
	// so a stale stored copy is never restored.
	closed map[string]time.Time

	codes          *CodeGenerator
	catalog        Catalog
	broadcast      Broadcaster
	store          Store
	persist        *Persister
	palette        []string
	maxRounds      int
	timeLimit      int
	inboxSize      int
	commandTimeout time.Duration
	log            zerolog.Logger

	pick func(n int) int
	now  func() time.Time
}

func NewDirectory(catalog Catalog, broadcast Broadcaster, opts Options) *Directory {
	if broadcast == nil {
		broadcast = nopBroadcaster{}
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	if opts.DefaultMaxRounds <= 0 {
		opts.DefaultMaxRounds = 2
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = 64
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = 5 * time.Second
	}
	return &Directory{
		rooms:          make(map[string]*Actor),
		closed:         make(map[string]time.Time),
		codes:          NewCodeGenerator(),
		catalog:        catalog,
		broadcast:      broadcast,
		store:          opts.Store,
		persist:        opts.Persister,
		palette:        append([]string(nil), opts.Palette...),
		maxRounds:      opts.DefaultMaxRounds,
		timeLimit:      opts.DefaultTimeLimit,
		inboxSize:      opts.InboxSize,
		commandTimeout: opts.CommandTimeout,
		log:            opts.Logger,
		pick:           rand.IntN,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Dispatch routes one command. roomCode is ignored for create_room.
func (d *Directory) Dispatch(ctx context.Context, clientID, roomCode string, cmd Command) Result {
	if c, ok := cmd.(CreateRoom); ok {
		code, err := d.Create(ctx, c)
		if err != nil {
			return d.fail(clientID, cmd, err)
		}
		ev := RoomCreated{Code: code}
		d.broadcast.ToClient(clientID, ev)
		return Result{Events: []Event{ev}}
	}

	code := NormalizeCode(roomCode)
	actor, ok := d.Lookup(code)
	if !ok {
		if _, rejoin := cmd.(RejoinRoom); rejoin && d.store != nil {
			restored, err := d.restore(ctx, code)
			if err != nil {
				return d.fail(clientID, cmd, err)
			}
			actor, ok = restored, true
		}
	}
	if !ok {
		return d.fail(clientID, cmd, fmt.Errorf("%w: room %s", ErrNotFound, code))
	}
	return actor.Do(ctx, clientID, cmd)
}

func (d *Directory) fail(clientID string, cmd Command, err error) Result {
	if CodeOf(err) == CodeInternal {
		d.log.Error().Err(err).Str("command", cmd.Name()).Msg("command failed")
	}
	failure := failureFor(cmd, err)
	if clientID != "" {
		d.broadcast.ToClient(clientID, failure)
	}
	return Result{Events: []Event{failure}, Err: err}
}

// Create opens a new room and starts its actor.
func (d *Directory) Create(ctx context.Context, cmd CreateRoom) (string, error) {
	maxRounds, timeLimit := cmd.MaxRounds, cmd.TimeLimit
	if maxRounds < 0 || timeLimit < 0 {
		return "", fmt.Errorf("%w: rounds and time limit must not be negative", ErrInvalidState)
	}
	if maxRounds == 0 {
		maxRounds = d.maxRounds
	}
	if timeLimit == 0 {
		timeLimit = d.timeLimit
	}
	category, err := d.catalog.PickRandom(ctx)
	if err != nil {
		return "", fmt.Errorf("pick category: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	code, err := d.codes.Generate(func(code string) bool {
		_, live := d.rooms[code]
		return live
	})
	if err != nil {
		return "", err
	}
	session := newSession(code, maxRounds, timeLimit, category, d.palette, d.now())
	actor := newActor(d, session, d.inboxSize)
	d.rooms[code] = actor
	delete(d.closed, code)
	d.persist.Save(code, KindSession, session.record())
	go actor.run()
	d.log.Info().Str("room_code", code).Int("max_rounds", maxRounds).Int("time_limit", timeLimit).Msg("room created")
	return code, nil
}

func (d *Directory) restore(ctx context.Context, code string) (*Actor, error) {
	if d.wasClosed(code) {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, code)
	}
	ctx, cancel := context.WithTimeout(ctx, d.commandTimeout)
	defer cancel()
	loaded, err := d.store.Load(ctx, KindSession, code)
	if err != nil {
		return nil, err
	}
	snap, ok := loaded.(RoomSnapshot)
	if !ok || snap.Session.Status == StatusClosed || len(snap.Players) == 0 {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, code)
	}
	category, err := d.catalog.ByID(ctx, snap.Session.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("restore category: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.rooms[code]; ok {
		return existing, nil
	}
	if _, gone := d.closed[code]; gone {
		return nil, fmt.Errorf("%w: room %s", ErrNotFound, code)
	}
	actor := newActor(d, sessionFromSnapshot(snap, category, d.now()), d.inboxSize)
	d.rooms[code] = actor
	go actor.run()
	d.log.Info().Str("room_code", code).Msg("room restored")
	return actor, nil
}

// View runs read against the room's session in line with its other commands.
func (d *Directory) View(ctx context.Context, code string, read func(s *Session)) error {
	actor, ok := d.Lookup(code)
	if !ok {
		return fmt.Errorf("%w: room %s", ErrNotFound, NormalizeCode(code))
	}
	return actor.Do(ctx, "", viewRoom{read: read}).Err
}

func (d *Directory) Lookup(code string) (*Actor, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	actor, ok := d.rooms[NormalizeCode(code)]
	return actor, ok
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

func (d *Directory) forget(actor *Actor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.rooms[actor.code] == actor {
		delete(d.rooms, actor.code)
		if actor.closed {
			d.closed[actor.code] = d.now()
		}
	}
}

func (d *Directory) wasClosed(code string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, gone := d.closed[code]
	return gone
}

// Sweep asks every room to close itself if it has been idle for ttl. The
// request is queued like any client command.
func (d *Directory) Sweep(ttl time.Duration) {
	now := d.now()
	d.mu.Lock()
	actors := make([]*Actor, 0, len(d.rooms))
	for _, actor := range d.rooms {
		actors = append(actors, actor)
	}
	for code, at := range d.closed {
		if now.Sub(at) >= ttl {
			delete(d.closed, code)
		}
	}
	d.mu.Unlock()

	for _, actor := range actors {
		if !actor.tell(expireRoom{now: now, ttl: ttl}) {
			d.log.Debug().Str("room_code", actor.code).Msg("sweep skipped busy room")
		}
	}
}

// RunSweeper calls Sweep every interval until ctx ends.
func (d *Directory) RunSweeper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep(ttl)
		}
	}
}

// Close stops every actor. Rooms stay in the store.
func (d *Directory) Close() {
	d.mu.RLock()
	actors := make([]*Actor, 0, len(d.rooms))
	for _, actor := range d.rooms {
		actors = append(actors, actor)
	}
	d.mu.RUnlock()
	for _, actor := range actors {
		actor.stop()
	}
}
