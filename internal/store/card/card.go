package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"board-automator-api/internal/database"
	"board-automator-api/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrCardNotFound is returned when no card exists for the given id.
var ErrCardNotFound = errors.New("card not found")

// CreateCommentParams contains parameters for posting a comment.
type CreateCommentParams struct {
	CardID   uuid.UUID
	AuthorID uuid.UUID
	Content  string
}

// CreateNotificationParams contains parameters for an in-app notification.
type CreateNotificationParams struct {
	UserID      uuid.UUID
	WorkspaceID uuid.UUID
	BoardID     uuid.UUID
	CardID      uuid.UUID
	Type        string
	Message     string
}

// CardContext is a card snapshot plus the ids a producer needs to build an event.
type CardContext struct {
	Card        domain.CardSnapshot
	WorkspaceID uuid.UUID
	CreatedBy   uuid.UUID
}

// CardStorer defines the interface for card mutations and snapshot reads.
type CardStorer interface {
	MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error
	AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error
	AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error
	SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error
	CreateComment(ctx context.Context, arg CreateCommentParams) error
	CreateNotification(ctx context.Context, arg CreateNotificationParams) error

	GetCardContext(ctx context.Context, cardID uuid.UUID) (CardContext, error)
	ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]CardContext, error)
	ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]CardContext, error)
}

// CardStore handles card-related database operations
type CardStore struct {
	pool database.Querier
}

// NewCardStore creates a new CardStore
func NewCardStore(pool database.Querier) CardStorer {
	return &CardStore{pool: pool}
}

// snapshotColumns selecteert een card snapshot inclusief labels en assignees.
// Verwacht aliassen c (cards) en b (boards).
const snapshotColumns = `
        c.id, c.board_id, c.list_id, c.priority, c.due_at, b.workspace_id, c.created_by,
        ARRAY(SELECT cl.label_id FROM card_labels cl WHERE cl.card_id = c.id ORDER BY cl.created_at) AS label_ids,
        ARRAY(SELECT ca.user_id FROM card_assignees ca WHERE ca.card_id = c.id ORDER BY ca.assigned_at) AS assignee_ids`

func scanCardContext(row pgx.Row) (CardContext, error) {
	var cc CardContext
	err := row.Scan(
		&cc.Card.ID,
		&cc.Card.BoardID,
		&cc.Card.ListID,
		&cc.Card.Priority,
		&cc.Card.DueAt,
		&cc.WorkspaceID,
		&cc.CreatedBy,
		&cc.Card.LabelIDs,
		&cc.Card.AssigneeIDs,
	)
	return cc, err
}

// MoveCard zet de lijst en positie van een kaart.
func (s *CardStore) MoveCard(ctx context.Context, cardID, listID uuid.UUID, position float64) error {
	query := `
    UPDATE cards
    SET list_id = $1, position = $2, updated_at = now()
    WHERE id = $3;
    `
	cmdTag, err := s.pool.Exec(ctx, query, listID, position, cardID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// AddCardLabel koppelt een label aan een kaart. Idempotent.
func (s *CardStore) AddCardLabel(ctx context.Context, cardID, labelID uuid.UUID) error {
	query := `
    INSERT INTO card_labels (card_id, label_id)
    VALUES ($1, $2)
    ON CONFLICT (card_id, label_id) DO NOTHING;
    `
	if _, err := s.pool.Exec(ctx, query, cardID, labelID); err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	return nil
}

// AssignCardMember wijst een gebruiker toe aan een kaart. Idempotent; een
// bestaande toewijzing behoudt de oorspronkelijke assigned_by.
func (s *CardStore) AssignCardMember(ctx context.Context, cardID, userID, assignedBy uuid.UUID) error {
	query := `
    INSERT INTO card_assignees (card_id, user_id, assigned_by)
    VALUES ($1, $2, $3)
    ON CONFLICT (card_id, user_id) DO NOTHING;
    `
	if _, err := s.pool.Exec(ctx, query, cardID, userID, assignedBy); err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	return nil
}

// SetCardDueDate zet due_at en reset de scanner-markers, zodat de nieuwe
// deadline opnieuw due_soon en overdue kan triggeren.
func (s *CardStore) SetCardDueDate(ctx context.Context, cardID uuid.UUID, dueAt time.Time) error {
	query := `
    UPDATE cards
    SET due_at = $1, due_soon_fired_at = NULL, overdue_fired_at = NULL, updated_at = now()
    WHERE id = $2;
    `
	cmdTag, err := s.pool.Exec(ctx, query, dueAt, cardID)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrCardNotFound
	}
	return nil
}

// CreateComment
func (s *CardStore) CreateComment(ctx context.Context, arg CreateCommentParams) error {
	query := `
    INSERT INTO comments (card_id, author_id, content)
    VALUES ($1, $2, $3);
    `
	if _, err := s.pool.Exec(ctx, query, arg.CardID, arg.AuthorID, arg.Content); err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	return nil
}

// CreateNotification
func (s *CardStore) CreateNotification(ctx context.Context, arg CreateNotificationParams) error {
	query := `
    INSERT INTO notifications (user_id, workspace_id, board_id, card_id, type, message)
    VALUES ($1, $2, $3, $4, $5, $6);
    `
	_, err := s.pool.Exec(ctx, query,
		arg.UserID,
		arg.WorkspaceID,
		arg.BoardID,
		arg.CardID,
		arg.Type,
		arg.Message,
	)
	if err != nil {
		return fmt.Errorf("db exec error: %w", err)
	}
	return nil
}

// GetCardContext laadt de actuele snapshot van een kaart.
func (s *CardStore) GetCardContext(ctx context.Context, cardID uuid.UUID) (CardContext, error) {
	query := `
    SELECT` + snapshotColumns + `
    FROM cards c
    JOIN boards b ON b.id = c.board_id
    WHERE c.id = $1;
    `
	cc, err := scanCardContext(s.pool.QueryRow(ctx, query, cardID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CardContext{}, ErrCardNotFound
		}
		return CardContext{}, fmt.Errorf("db query error: %w", err)
	}
	return cc, nil
}

// ClaimDueSoonCards markeert kaarten waarvan de deadline binnen window valt en
// die nog geen due_soon hebben gehad, en geeft ze terug. Claimen en markeren
// gebeurt in een statement, dus een kaart wordt maar een keer geclaimd.
func (s *CardStore) ClaimDueSoonCards(ctx context.Context, now time.Time, window time.Duration, limit int) ([]CardContext, error) {
	query := `
    WITH due AS (
        SELECT id FROM cards
        WHERE due_at IS NOT NULL
          AND due_soon_fired_at IS NULL
          AND due_at > $1
          AND due_at <= $2
        ORDER BY due_at
        LIMIT $3
        FOR UPDATE SKIP LOCKED
    )
    UPDATE cards c
    SET due_soon_fired_at = $1
    FROM due, boards b
    WHERE c.id = due.id AND b.id = c.board_id
    RETURNING` + snapshotColumns + `;
    `
	rows, err := s.pool.Query(ctx, query, now, now.Add(window), limit)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return collectCardContexts(rows)
}

// ClaimOverdueCards markeert verlopen kaarten die nog geen overdue hebben gehad.
func (s *CardStore) ClaimOverdueCards(ctx context.Context, now time.Time, limit int) ([]CardContext, error) {
	query := `
    WITH due AS (
        SELECT id FROM cards
        WHERE due_at IS NOT NULL
          AND overdue_fired_at IS NULL
          AND due_at <= $1
        ORDER BY due_at
        LIMIT $2
        FOR UPDATE SKIP LOCKED
    )
    UPDATE cards c
    SET overdue_fired_at = $1
    FROM due, boards b
    WHERE c.id = due.id AND b.id = c.board_id
    RETURNING` + snapshotColumns + `;
    `
	rows, err := s.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("db query error: %w", err)
	}
	return collectCardContexts(rows)
}

func collectCardContexts(rows pgx.Rows) ([]CardContext, error) {
	defer rows.Close()

	var cards []CardContext
	for rows.Next() {
		cc, err := scanCardContext(rows)
		if err != nil {
			return nil, fmt.Errorf("db row scan error: %w", err)
		}
		cards = append(cards, cc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db rows error: %w", err)
	}
	return cards, nil
}
