package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-triage/internal/domain"
)

// TicketHistoryRepository stores append-only audit entries.
type TicketHistoryRepository interface {
	Create(ctx context.Context, history *domain.TicketHistory) error
	CreateTx(ctx context.Context, tx pgx.Tx, history *domain.TicketHistory) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

const historyInsert = `
        INSERT INTO ticket_history (ticket_id, actor_id, change_type, action, created_at)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id`

func (r *ticketHistoryRepository) Create(ctx context.Context, history *domain.TicketHistory) error {
	return r.pool.QueryRow(ctx, historyInsert,
		history.TicketID,
		history.ActorID,
		history.ChangeType,
		history.Action,
		history.CreatedAt,
	).Scan(&history.ID)
}

// CreateTx appends an entry inside a run transaction.
func (r *ticketHistoryRepository) CreateTx(ctx context.Context, tx pgx.Tx, history *domain.TicketHistory) error {
	return tx.QueryRow(ctx, historyInsert,
		history.TicketID,
		history.ActorID,
		history.ChangeType,
		history.Action,
		history.CreatedAt,
	).Scan(&history.ID)
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, actor_id, change_type, action, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var history domain.TicketHistory
		if err := rows.Scan(
			&history.ID,
			&history.TicketID,
			&history.ActorID,
			&history.ChangeType,
			&history.Action,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}
