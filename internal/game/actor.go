package game

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const maxNameLength = 64

// Result is what the requester of a command gets back. Events holds the
// events addressed to the requester, including any failure.
type Result struct {
	Events []Event
	Err    error
}

type envelope struct {
	ctx      context.Context
	clientID string
	cmd      Command
	reply    chan Result
}

// Actor owns one room. Every command for the room runs on the actor's
// goroutine, one at a time, in the order it was enqueued.
type Actor struct {
	code    string
	session *Session
	dir     *Directory
	log     zerolog.Logger

	inbox    chan envelope
	done     chan struct{}
	quit     chan struct{}
	quitOnce sync.Once

	out    []delivery
	closed bool
}

func newActor(dir *Directory, session *Session, inboxSize int) *Actor {
	return &Actor{
		code:    session.Code,
		session: session,
		dir:     dir,
		log:     dir.log.With().Str("room_code", session.Code).Logger(),
		inbox:   make(chan envelope, inboxSize),
		done:    make(chan struct{}),
		quit:    make(chan struct{}),
	}
}

func (a *Actor) Code() string {
	return a.code
}

// Do enqueues cmd and waits for its result. Once enqueued the command runs
// even if ctx ends first; the caller just stops waiting.
func (a *Actor) Do(ctx context.Context, clientID string, cmd Command) Result {
	env := envelope{ctx: context.WithoutCancel(ctx), clientID: clientID, cmd: cmd, reply: make(chan Result, 1)}
	select {
	case a.inbox <- env:
	case <-a.done:
		return a.gone(clientID, cmd)
	case <-ctx.Done():
		err := fmt.Errorf("%w: room %s is busy: %v", ErrUnavailable, a.code, ctx.Err())
		return a.dir.fail(clientID, cmd, err)
	}
	select {
	case res := <-env.reply:
		return res
	case <-a.done:
		select {
		case res := <-env.reply:
			return res
		default:
			return a.gone(clientID, cmd)
		}
	case <-ctx.Done():
		return Result{Err: fmt.Errorf("%w: waiting for room %s: %v", ErrUnavailable, a.code, ctx.Err())}
	}
}

// tell enqueues cmd without waiting. It reports false when the room is gone
// or its inbox is full.
func (a *Actor) tell(cmd Command) bool {
	env := envelope{ctx: context.Background(), cmd: cmd, reply: make(chan Result, 1)}
	select {
	case a.inbox <- env:
		return true
	case <-a.done:
		return false
	default:
		return false
	}
}

// stop ends the actor without closing the room and waits for it to exit.
func (a *Actor) stop() {
	a.quitOnce.Do(func() { close(a.quit) })
	<-a.done
}

func (a *Actor) gone(clientID string, cmd Command) Result {
	return a.dir.fail(clientID, cmd, fmt.Errorf("%w: room %s", ErrNotFound, a.code))
}

func (a *Actor) run() {
	defer close(a.done)
	defer a.dir.forget(a)
	for {
		select {
		case env := <-a.inbox:
			env.reply <- a.handle(env)
			if a.closed {
				return
			}
		case <-a.quit:
			return
		}
	}
}

func (a *Actor) handle(env envelope) (res Result) {
	a.out = a.out[:0]
	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Str("command", env.cmd.Name()).Interface("panic", r).Msg("command panicked")
			res = a.reject(env, fmt.Errorf("command %s panicked", env.cmd.Name()))
		}
	}()

	switch env.cmd.(type) {
	case expireRoom, viewRoom:
	default:
		a.session.LastActive = a.dir.now()
	}
	if err := a.apply(env); err != nil {
		return a.reject(env, err)
	}
	var mine []Event
	for _, d := range a.out {
		if d.kind == deliverClient && d.clientID == env.clientID {
			mine = append(mine, d.event)
		}
	}
	flush(a.dir.broadcast, a.code, a.out)
	return Result{Events: mine}
}

// reject drops everything the failed command queued and tells only the requester.
func (a *Actor) reject(env envelope, err error) Result {
	a.out = a.out[:0]
	if CodeOf(err) == CodeInternal {
		a.log.Error().Err(err).Str("command", env.cmd.Name()).Msg("command failed")
	} else {
		a.log.Debug().Err(err).Str("command", env.cmd.Name()).Msg("command rejected")
	}
	failure := failureFor(env.cmd, err)
	if env.clientID != "" {
		a.dir.broadcast.ToClient(env.clientID, failure)
	}
	return Result{Events: []Event{failure}, Err: err}
}

func (a *Actor) apply(env envelope) error {
	switch cmd := env.cmd.(type) {
	case JoinRoom:
		return a.join(env.clientID, cmd)
	case LeaveRoom:
		return a.leave(env.clientID, cmd)
	case AssignColor:
		return a.assignColor(env.clientID, cmd)
	case StartGame:
		return a.start()
	case GetTopic:
		return a.topic(env.clientID, cmd)
	case SubmitStroke:
		return a.submitStroke(cmd)
	case GetStrokes:
		a.toClient(env.clientID, Strokes{Strokes: a.session.Drawing.Replay(cmd.KnownCount)})
		return nil
	case CastVote:
		return a.castVote(env.clientID, cmd)
	case CheckVoting:
		a.checkVoting()
		return nil
	case QuitGame:
		a.toRoom(GameQuit{Reason: "quit"})
		a.destroy("quit")
		return nil
	case GetTurn:
		a.toClient(env.clientID, TurnState{Turn: a.session.Turns.Turn, Round: a.session.Turns.Round})
		return nil
	case FetchPlayers:
		a.toClient(env.clientID, Players{Roster: a.session.Players.Roster(), Palette: a.session.Colors.Entries()})
		return nil
	case RejoinRoom:
		return a.rejoin(env.clientID, cmd)
	case HasVoted:
		return a.hasVoted(env.clientID, cmd)
	case SetReady:
		return a.setReady(env.clientID, cmd)
	case NextRoom:
		return a.nextRoom(env.ctx, env.clientID)
	case GetNextRoom:
		if a.session.NextSessionCode != "" {
			a.toClient(env.clientID, NextRoomCreated{Code: a.session.NextSessionCode})
		}
		return nil
	case FindRoom:
		a.toClient(env.clientID, RoomFound{Code: a.code, Status: a.session.Status, Locked: a.session.Locked})
		return nil
	case viewRoom:
		cmd.read(a.session)
		return nil
	case expireRoom:
		if cmd.now.Sub(a.session.LastActive) >= cmd.ttl {
			a.toRoom(GameQuit{Reason: "expired"})
			a.destroy("expired")
		}
		return nil
	default:
		return fmt.Errorf("%w: %s is not a room command", ErrInvalidState, env.cmd.Name())
	}
}

func (a *Actor) join(clientID string, cmd JoinRoom) error {
	s := a.session
	name := strings.TrimSpace(cmd.PlayerName)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidState)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name is longer than %d characters", ErrInvalidState, maxNameLength)
	}
	if s.Status != StatusOpen {
		return fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	if s.Locked {
		return fmt.Errorf("%w: room is closed to new players", ErrInvalidState)
	}

	player := &Player{
		ID:          uuid.NewString(),
		SessionCode: s.Code,
		Name:        name,
		TurnOrder:   s.Players.NextTurnOrder(),
		IsSpectator: cmd.IsSpectator,
		JoinedAt:    a.dir.now(),
		RejoinToken: uuid.NewString(),
		ClientID:    clientID,
	}
	s.Players.Add(player)
	if s.Players.Len() >= s.Colors.Size() {
		s.Locked = true
	}

	a.toRoom(PlayerJoined{Player: player.Public()})
	a.subscribe(clientID)
	a.toClient(clientID, RoomJoined{
		Code:     s.Code,
		PlayerID: player.ID,
		Token:    player.RejoinToken,
		Status:   s.Status,
		Roster:   s.Players.Roster(),
		Palette:  s.Colors.Entries(),
	})
	a.savePlayer(player)
	a.saveSession()
	return nil
}

// owned returns the player only when clientID is the connection acting as it.
func (a *Actor) owned(clientID, playerID string) (*Player, error) {
	player, ok := a.session.Players.Get(playerID)
	if !ok {
		return nil, fmt.Errorf("%w: player %s", ErrNotFound, playerID)
	}
	if clientID == "" || player.ClientID != clientID {
		return nil, fmt.Errorf("%w: player %s belongs to another connection", ErrInvalidState, playerID)
	}
	return player, nil
}

func (a *Actor) leave(clientID string, cmd LeaveRoom) error {
	s := a.session
	player, err := a.owned(clientID, cmd.PlayerID)
	if err != nil {
		return err
	}
	slot := s.Players.ActiveIndex(player.ID)
	s.Players.Remove(player.ID)
	s.Colors.Release(player.ID)
	for _, voter := range s.Votes.Forget(player.ID) {
		if p, ok := s.Players.Get(voter); ok {
			p.Vote = ""
			a.savePlayer(p)
		}
	}

	a.toRoom(PlayerLeft{PlayerID: player.ID})
	a.unsubscribe(clientID)
	a.dir.persist.Delete(s.Code, KindPlayer, player.ID)

	if s.Players.Len() == 0 {
		a.destroy("empty")
		return nil
	}
	if s.Status == StatusInProgress && slot >= 0 {
		s.Turns.Leave(slot, s.ActiveCount())
		a.toRoom(TurnAdvanced{Turn: s.Turns.Turn, Round: s.Turns.Round, DrawingDone: s.DrawingDone()})
	}
	if s.Status == StatusOpen && s.Players.Len() < s.Colors.Size() {
		s.Locked = false
	}
	a.saveSession()
	return nil
}

func (a *Actor) assignColor(clientID string, cmd AssignColor) error {
	s := a.session
	player, err := a.owned(clientID, cmd.PlayerID)
	if err != nil {
		return err
	}
	if s.Status != StatusOpen {
		return fmt.Errorf("%w: colors are fixed once the game starts", ErrInvalidState)
	}
	if player.IsSpectator {
		return fmt.Errorf("%w: spectators do not draw", ErrInvalidState)
	}
	if err := s.Colors.Take(cmd.ColorID, player.ID); err != nil {
		return err
	}
	player.Color = cmd.ColorID

	a.toRoom(ColorsUpdated{PlayerID: player.ID, ColorID: player.Color, Palette: s.Colors.Entries()})
	a.savePlayer(player)
	a.saveSession()
	return nil
}

func (a *Actor) start() error {
	s := a.session
	if s.Status != StatusOpen {
		return fmt.Errorf("%w: game already started", ErrInvalidState)
	}
	active := s.Players.Active()
	if len(active) == 0 {
		return fmt.Errorf("%w: no players to start with", ErrInvalidState)
	}
	missing := 0
	for _, p := range active {
		if p.Color == "" {
			missing++
		}
	}
	free := 0
	for _, entry := range s.Colors.Entries() {
		if !entry.Taken {
			free++
		}
	}
	if missing > free {
		return fmt.Errorf("%w: not enough colors for every player", ErrResourceExhausted)
	}

	s.Status = StatusInProgress
	s.Locked = true
	s.Turns.Reset()
	s.Votes.Reset()
	for _, p := range s.Players.All() {
		p.IsHiddenRole = false
		p.Vote = ""
	}
	hidden := active[a.dir.pick(len(active))]
	hidden.IsHiddenRole = true
	s.HiddenRoleID = hidden.ID

	assigned := false
	for _, p := range active {
		if p.Color != "" {
			continue
		}
		color, err := s.Colors.TakeNext(p.ID)
		if err != nil {
			return err
		}
		p.Color = color
		assigned = true
	}

	if assigned {
		a.toRoom(PlayersUpdated{Roster: s.Players.Roster()})
	}
	a.toRoom(GameStarted{
		Roster:    s.Players.Roster(),
		TimeLimit: s.TimeLimit,
		MaxRounds: s.MaxRounds,
	})
	for _, p := range s.Players.All() {
		a.savePlayer(p)
	}
	a.saveSession()
	a.log.Info().Int("players", len(active)).Msg("game started")
	return nil
}

func (a *Actor) topic(clientID string, cmd GetTopic) error {
	s := a.session
	player, err := a.owned(clientID, cmd.PlayerID)
	if err != nil {
		return err
	}
	if s.Status != StatusInProgress {
		return fmt.Errorf("%w: the topic is revealed when the game starts", ErrInvalidState)
	}
	subject := s.Category.Subject
	if player.IsHiddenRole {
		subject = MaskedSubject
	}
	a.toClient(clientID, Topic{Topic: s.Category.Topic, Subject: subject})
	return nil
}

func (a *Actor) submitStroke(cmd SubmitStroke) error {
	s := a.session
	if s.Status != StatusInProgress {
		return fmt.Errorf("%w: game has not started", ErrInvalidState)
	}
	if len(cmd.StrokeData) == 0 {
		return fmt.Errorf("%w: stroke data is required", ErrInvalidState)
	}
	active := s.ActiveCount()
	if active == 0 {
		return fmt.Errorf("%w: no players are drawing", ErrInvalidState)
	}
	if s.DrawingDone() {
		return fmt.Errorf("%w: drawing is finished", ErrInvalidState)
	}

	stroke := s.Drawing.Append(cmd.StrokeData)
	s.Turns.Advance(active)

	a.toRoom(StrokeAdded{Stroke: stroke})
	a.toRoom(TurnAdvanced{Turn: s.Turns.Turn, Round: s.Turns.Round, DrawingDone: s.DrawingDone()})
	a.dir.persist.Save(s.Code, KindStroke, StrokeRecord{SessionCode: s.Code, Stroke: stroke})
	a.saveSession()
	return nil
}

func (a *Actor) castVote(clientID string, cmd CastVote) error {
	s := a.session
	if s.Status != StatusInProgress {
		return fmt.Errorf("%w: game has not started", ErrInvalidState)
	}
	if s.Votes.Revealed() {
		return fmt.Errorf("%w: voting is closed", ErrInvalidState)
	}
	voter, err := a.owned(clientID, cmd.VoterID)
	if err != nil {
		return err
	}
	target, ok := s.Players.Get(cmd.TargetID)
	if !ok {
		return fmt.Errorf("%w: player %s", ErrNotFound, cmd.TargetID)
	}
	if voter.ID == target.ID {
		return fmt.Errorf("%w: players cannot vote for themselves", ErrInvalidState)
	}
	if voter.IsSpectator || target.IsSpectator {
		return fmt.Errorf("%w: spectators take no part in voting", ErrInvalidState)
	}

	s.Votes.Record(voter.ID, target.ID)
	voter.Vote = target.ID

	a.toClient(clientID, VoteRecorded{TargetID: target.ID})
	a.savePlayer(voter)
	return nil
}

func (a *Actor) checkVoting() {
	s := a.session
	tally, ok := s.Votes.Reveal(s.Players.ActiveIDs())
	if !ok {
		return
	}
	_, present := s.Players.Get(s.HiddenRoleID)
	a.toRoom(VotingComplete{HiddenRoleID: s.HiddenRoleID, Tally: tally, HiddenRoleLeft: !present})
	a.saveSession()
	a.log.Info().Msg("voting complete")
}

func (a *Actor) rejoin(clientID string, cmd RejoinRoom) error {
	s := a.session
	if cmd.PlayerID != "" {
		player, ok := s.Players.Get(cmd.PlayerID)
		if !ok {
			return fmt.Errorf("%w: player %s", ErrNotFound, cmd.PlayerID)
		}
		if cmd.Token == "" || cmd.Token != player.RejoinToken {
			return fmt.Errorf("%w: rejoin token does not match player %s", ErrInvalidState, cmd.PlayerID)
		}
		player.ClientID = clientID
	}
	a.subscribe(clientID)
	a.toClient(clientID, RoomRejoined{
		Code:     s.Code,
		PlayerID: cmd.PlayerID,
		Status:   s.Status,
		Roster:   s.Players.Roster(),
		Palette:  s.Colors.Entries(),
		Turn:     s.Turns.Turn,
		Round:    s.Turns.Round,
		Strokes:  s.Drawing.Replay(0),
	})
	return nil
}

func (a *Actor) hasVoted(clientID string, cmd HasVoted) error {
	player, err := a.owned(clientID, cmd.PlayerID)
	if err != nil {
		return err
	}
	if player.Vote != "" {
		a.toClient(clientID, VoteRecorded{TargetID: player.Vote})
	}
	return nil
}

func (a *Actor) setReady(clientID string, cmd SetReady) error {
	player, err := a.owned(clientID, cmd.PlayerID)
	if err != nil {
		return err
	}
	player.IsReady = cmd.Ready
	a.toRoom(PlayersUpdated{Roster: a.session.Players.Roster()})
	a.savePlayer(player)
	return nil
}

func (a *Actor) nextRoom(ctx context.Context, clientID string) error {
	s := a.session
	if s.NextSessionCode != "" {
		a.toClient(clientID, NextRoomCreated{Code: s.NextSessionCode})
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, a.dir.commandTimeout)
	defer cancel()
	code, err := a.dir.Create(ctx, CreateRoom{MaxRounds: s.MaxRounds, TimeLimit: s.TimeLimit})
	if err != nil {
		return err
	}
	s.NextSessionCode = code
	a.toRoom(NextRoomCreated{Code: code})
	a.saveSession()
	return nil
}

// destroy closes the room. The actor stops after the current command and
// the directory drops it.
func (a *Actor) destroy(reason string) {
	a.session.Status = StatusClosed
	a.closed = true
	a.out = append(a.out, delivery{kind: deliverClose})
	// The closed copy keeps the room from being restored if the delete is lost.
	a.saveSession()
	a.dir.persist.Delete(a.code, KindSession, a.code)
	a.log.Info().Str("reason", reason).Msg("room destroyed")
}

func (a *Actor) toRoom(ev Event) {
	a.out = append(a.out, delivery{kind: deliverRoom, event: ev})
}

func (a *Actor) toClient(clientID string, ev Event) {
	a.out = append(a.out, delivery{kind: deliverClient, clientID: clientID, event: ev})
}

func (a *Actor) subscribe(clientID string) {
	a.out = append(a.out, delivery{kind: deliverSubscribe, clientID: clientID})
}

func (a *Actor) unsubscribe(clientID string) {
	a.out = append(a.out, delivery{kind: deliverUnsubscribe, clientID: clientID})
}

func (a *Actor) saveSession() {
	a.dir.persist.Save(a.code, KindSession, a.session.record())
}

func (a *Actor) savePlayer(p *Player) {
	a.dir.persist.Save(a.code, KindPlayer, *p)
}
