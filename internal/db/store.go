package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"fake-artist/internal/game"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists rooms to Postgres. It implements game.Store.
type Store struct {
	conn *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) Save(ctx context.Context, kind game.EntityKind, entity any) error {
	tx := s.conn.WithContext(ctx)
	switch e := entity.(type) {
	case game.SessionRecord:
		row, err := sessionRow(e)
		if err != nil {
			return err
		}
		return storeError(tx.Omit(clause.Associations).Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error)
	case game.Player:
		row := playerRow(e)
		return storeError(tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error)
	case game.StrokeRecord:
		row := Stroke{
			SessionCode:    e.SessionCode,
			SequenceNumber: e.Stroke.Sequence,
			Data:           datatypes.JSON(e.Stroke.Data),
		}
		err := tx.Create(&row).Error
		if isUniqueViolation(err) {
			// Retried insert that already landed.
			return nil
		}
		return storeError(err)
	default:
		return fmt.Errorf("save %s: unsupported entity %T", kind, entity)
	}
}

// Load returns a game.RoomSnapshot for KindSession. Other kinds are not
// loaded on their own.
func (s *Store) Load(ctx context.Context, kind game.EntityKind, id string) (any, error) {
	if kind != game.KindSession {
		return nil, fmt.Errorf("%w: cannot load %s by id", game.ErrNotFound, kind)
	}
	var row Session
	err := s.conn.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("turn_order") }).
		Preload("Strokes", func(tx *gorm.DB) *gorm.DB { return tx.Order("sequence_number") }).
		First(&row, "code = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: room %s", game.ErrNotFound, id)
	}
	if err != nil {
		return nil, storeError(err)
	}
	return snapshotFromRow(row)
}

func (s *Store) Delete(ctx context.Context, kind game.EntityKind, id string) error {
	tx := s.conn.WithContext(ctx)
	switch kind {
	case game.KindSession:
		return storeError(tx.Delete(&Session{}, "code = ?", id).Error)
	case game.KindPlayer:
		return storeError(tx.Delete(&Player{}, "id = ?", id).Error)
	default:
		return fmt.Errorf("delete %s: unsupported kind", kind)
	}
}

// paletteSlot is the stored form of a color slot; unlike the wire form it
// keeps the holder.
type paletteSlot struct {
	ColorID string `json:"colorId"`
	TakenBy string `json:"takenBy,omitempty"`
}

func sessionRow(rec game.SessionRecord) (Session, error) {
	slots := make([]paletteSlot, len(rec.Palette))
	for i, slot := range rec.Palette {
		slots[i] = paletteSlot{ColorID: slot.ColorID, TakenBy: slot.TakenBy}
	}
	palette, err := json.Marshal(slots)
	if err != nil {
		return Session{}, fmt.Errorf("encode palette: %w", err)
	}
	return Session{
		Code:            rec.Code,
		Status:          string(rec.Status),
		Locked:          rec.Locked,
		MaxRounds:       rec.MaxRounds,
		TimeLimit:       rec.TimeLimit,
		CategoryID:      rec.CategoryID,
		RoundNumber:     rec.RoundNumber,
		TurnNumber:      rec.TurnNumber,
		Palette:         datatypes.JSON(palette),
		NextSessionCode: rec.NextSessionCode,
		HiddenRoleID:    rec.HiddenRoleID,
		Revealed:        rec.Revealed,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	}, nil
}

func playerRow(p game.Player) Player {
	return Player{
		ID:           p.ID,
		SessionCode:  p.SessionCode,
		Name:         p.Name,
		TurnOrder:    p.TurnOrder,
		Color:        p.Color,
		IsSpectator:  p.IsSpectator,
		IsHiddenRole: p.IsHiddenRole,
		Vote:         p.Vote,
		IsReady:      p.IsReady,
		RejoinToken:  p.RejoinToken,
		JoinedAt:     p.JoinedAt,
	}
}

func snapshotFromRow(row Session) (game.RoomSnapshot, error) {
	var slots []paletteSlot
	if len(row.Palette) > 0 {
		if err := json.Unmarshal(row.Palette, &slots); err != nil {
			return game.RoomSnapshot{}, fmt.Errorf("decode palette for %s: %w", row.Code, err)
		}
	}
	snap := game.RoomSnapshot{
		Session: game.SessionRecord{
			Code:            row.Code,
			Status:          game.Status(row.Status),
			Locked:          row.Locked,
			MaxRounds:       row.MaxRounds,
			TimeLimit:       row.TimeLimit,
			CategoryID:      row.CategoryID,
			RoundNumber:     row.RoundNumber,
			TurnNumber:      row.TurnNumber,
			Palette:         make([]game.ColorSlot, len(slots)),
			NextSessionCode: row.NextSessionCode,
			HiddenRoleID:    row.HiddenRoleID,
			Revealed:        row.Revealed,
			CreatedAt:       row.CreatedAt,
			UpdatedAt:       row.UpdatedAt,
		},
		Players: make([]game.Player, 0, len(row.Players)),
		Strokes: make([]game.Stroke, 0, len(row.Strokes)),
	}
	for i, slot := range slots {
		snap.Session.Palette[i] = game.ColorSlot{ColorID: slot.ColorID, TakenBy: slot.TakenBy}
	}
	for _, p := range row.Players {
		snap.Players = append(snap.Players, game.Player{
			ID:           p.ID,
			SessionCode:  p.SessionCode,
			Name:         p.Name,
			TurnOrder:    p.TurnOrder,
			Color:        p.Color,
			IsSpectator:  p.IsSpectator,
			IsHiddenRole: p.IsHiddenRole,
			Vote:         p.Vote,
			IsReady:      p.IsReady,
			RejoinToken:  p.RejoinToken,
			JoinedAt:     p.JoinedAt,
		})
	}
	for _, s := range row.Strokes {
		snap.Strokes = append(snap.Strokes, game.Stroke{Sequence: s.SequenceNumber, Data: json.RawMessage(s.Data)})
	}
	return snap, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// storeError marks timeouts and connection failures as ErrUnavailable so the
// persister and the directory can tell them apart from bad data.
func storeError(err error) error {
	if err == nil {
		return nil
	}
	var connErr *pgconn.ConnectError
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		pgconn.Timeout(err) || errors.As(err, &connErr) {
		return fmt.Errorf("%w: %v", game.ErrUnavailable, err)
	}
	return err
}
