package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var (
	_ limits.TxRunner       = (*TxRunner)(nil)
	_ subscription.TxRunner = (*TxRunner)(nil)
	_ organization.TxRunner = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL (READ COMMITTED).
// La serialización por organización la dan los SELECT ... FOR UPDATE de los repositorios.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunLimits inicia una transacción con repos de organizaciones, miembros y libros.
func (r *TxRunner) RunLimits(ctx context.Context, fn func(
	orgs repository.OrganizationRepository,
	members repository.MembershipRepository,
	books repository.BookRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewOrganizationRepository(tx), NewUserRepository(tx), NewBookRepository(tx))
	})
}

// RunSync inicia una transacción con repos de organizaciones y suscripciones (sincronizador de cobro).
func (r *TxRunner) RunSync(ctx context.Context, fn func(
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewOrganizationRepository(tx), NewSubscriptionRepository(tx))
	})
}

// RunOrganization inicia una transacción con el repo de organizaciones.
func (r *TxRunner) RunOrganization(ctx context.Context, fn func(orgs repository.OrganizationRepository) error) error {
	return r.run(ctx, func(tx pgx.Tx) error {
		return fn(NewOrganizationRepository(tx))
	})
}

// run hace Begin, ejecuta fn y Commit; cualquier error (o panic) deja la tx en Rollback.
func (r *TxRunner) run(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
