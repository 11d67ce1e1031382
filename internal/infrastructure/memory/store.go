// Package memory implementa los puertos de persistencia en memoria para desarrollo y tests.
//
// Las escrituras y transacciones se serializan con un único mutex y trabajan sobre una copia
// del estado que solo se publica si fn termina sin error (rollback = descartar la copia).
// Es un escritor único global, más fuerte que el bloqueo por organización de PostgreSQL.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/Biblioteca-api/internal/application/limits"
	"github.com/jhoicas/Biblioteca-api/internal/application/organization"
	"github.com/jhoicas/Biblioteca-api/internal/application/subscription"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var (
	_ limits.TxRunner       = (*Store)(nil)
	_ subscription.TxRunner = (*Store)(nil)
	_ organization.TxRunner = (*Store)(nil)
)

type state struct {
	orgs   map[string]entity.Organization
	subs   map[string]entity.Subscription // por organization_id
	users  map[string]entity.User
	books  map[string]entity.Book
	events map[string]entity.BillingEvent
}

func newState() *state {
	return &state{
		orgs:   map[string]entity.Organization{},
		subs:   map[string]entity.Subscription{},
		users:  map[string]entity.User{},
		books:  map[string]entity.Book{},
		events: map[string]entity.BillingEvent{},
	}
}

func (s *state) clone() *state {
	c := &state{
		orgs:   make(map[string]entity.Organization, len(s.orgs)),
		subs:   make(map[string]entity.Subscription, len(s.subs)),
		users:  make(map[string]entity.User, len(s.users)),
		books:  make(map[string]entity.Book, len(s.books)),
		events: make(map[string]entity.BillingEvent, len(s.events)),
	}
	for k, v := range s.orgs {
		c.orgs[k] = v
	}
	for k, v := range s.subs {
		c.subs[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.books {
		c.books[k] = v
	}
	for k, v := range s.events {
		c.events[k] = v
	}
	return c
}

// Store estado compartido y punto de entrada de los repositorios en memoria.
type Store struct {
	writeMu sync.Mutex   // serializa escrituras y transacciones
	mu      sync.RWMutex // protege st
	st      *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// Organizations repositorio de organizaciones fuera de transacción.
func (s *Store) Organizations() *OrganizationRepo { return &OrganizationRepo{view{s: s}} }

// Subscriptions repositorio de suscripciones fuera de transacción.
func (s *Store) Subscriptions() *SubscriptionRepo { return &SubscriptionRepo{view{s: s}} }

// Users repositorio de usuarios/miembros fuera de transacción.
func (s *Store) Users() *UserRepo { return &UserRepo{view{s: s}} }

// Books repositorio de libros fuera de transacción.
func (s *Store) Books() *BookRepo { return &BookRepo{view{s: s}} }

// BillingEvents bitácora de eventos de cobro.
func (s *Store) BillingEvents() *BillingEventRepo { return &BillingEventRepo{view{s: s}} }

// RunLimits ejecuta fn como una transacción con repos de organizaciones, miembros y libros.
func (s *Store) RunLimits(ctx context.Context, fn func(
	orgs repository.OrganizationRepository,
	members repository.MembershipRepository,
	books repository.BookRepository,
) error) error {
	return s.update(ctx, func(st *state) error {
		v := view{s: s, tx: st}
		return fn(&OrganizationRepo{v}, &UserRepo{v}, &BookRepo{v})
	})
}

// RunSync ejecuta fn como una transacción con repos de organizaciones y suscripciones.
func (s *Store) RunSync(ctx context.Context, fn func(
	orgs repository.OrganizationRepository,
	subs repository.SubscriptionRepository,
) error) error {
	return s.update(ctx, func(st *state) error {
		v := view{s: s, tx: st}
		return fn(&OrganizationRepo{v}, &SubscriptionRepo{v})
	})
}

// RunOrganization ejecuta fn como una transacción con el repo de organizaciones.
func (s *Store) RunOrganization(ctx context.Context, fn func(orgs repository.OrganizationRepository) error) error {
	return s.update(ctx, func(st *state) error {
		return fn(&OrganizationRepo{view{s: s, tx: st}})
	})
}

func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	next := s.st.clone()
	s.mu.RUnlock()

	if err := fn(next); err != nil {
		return err
	}
	s.mu.Lock()
	s.st = next
	s.mu.Unlock()
	return nil
}

// view es el estado que ve un repositorio: el de la transacción en curso o el publicado.
type view struct {
	s  *Store
	tx *state
}

func (v view) read(fn func(st *state)) {
	if v.tx != nil {
		fn(v.tx)
		return
	}
	v.s.mu.RLock()
	defer v.s.mu.RUnlock()
	fn(v.s.st)
}

func (v view) write(ctx context.Context, fn func(st *state) error) error {
	if v.tx != nil {
		return fn(v.tx)
	}
	return v.s.update(ctx, fn)
}
