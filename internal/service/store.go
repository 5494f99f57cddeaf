package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/olumide-dev/bankledger/internal/domain"
	"github.com/olumide-dev/bankledger/internal/models"
	"github.com/olumide-dev/bankledger/internal/repository"
)

// QueryStore defines the minimal data access contract required by services.
type QueryStore interface {
	Queries() repository.Querier
	RunInTx(ctx context.Context, fn func(q repository.Querier) error) error
}

// ErrForbidden is returned when an operation requires an admin actor.
var ErrForbidden = errors.New("insufficient permissions")

// requireAdmin re-checks the actor's role against persisted state: the role
// claim in the transport token is not trusted for sensitive operations.
func requireAdmin(ctx context.Context, q repository.Querier, actorID uuid.UUID) error {
	user, err := q.GetUser(ctx, actorID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrForbidden
		}
		return fmt.Errorf("load actor: %w", err)
	}
	if user.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func requireExactlyOne(rows int64, operation string) error {
	if rows != 1 {
		return fmt.Errorf("%s affected %d rows", operation, rows)
	}
	return nil
}
