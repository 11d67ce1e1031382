package memory

import (
	"context"
	"fmt"

	"github.com/jhoicas/Biblioteca-api/internal/domain"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.SubscriptionRepository = (*SubscriptionRepo)(nil)

// SubscriptionRepo suscripciones en memoria, una por organización.
type SubscriptionRepo struct{ v view }

func (r *SubscriptionRepo) GetByOrganization(_ context.Context, organizationID string) (*entity.Subscription, error) {
	var out *entity.Subscription
	r.v.read(func(st *state) {
		if s, ok := st.subs[organizationID]; ok {
			out = &s
		}
	})
	return out, nil
}

func (r *SubscriptionRepo) GetByCustomerID(_ context.Context, customerID string) (*entity.Subscription, error) {
	var out *entity.Subscription
	if customerID == "" {
		return nil, nil
	}
	r.v.read(func(st *state) {
		for _, s := range st.subs {
			if s.BillingCustomerID == customerID {
				s := s
				out = &s
				return
			}
		}
	})
	return out, nil
}

// Upsert conserva id y created_at de la fila existente, como ON CONFLICT en PostgreSQL.
func (r *SubscriptionRepo) Upsert(ctx context.Context, sub *entity.Subscription) error {
	return r.v.write(ctx, func(st *state) error {
		if _, ok := st.orgs[sub.OrganizationID]; !ok {
			return fmt.Errorf("upsert subscription: organización %s: %w", sub.OrganizationID, domain.ErrNotFound)
		}
		if sub.BillingCustomerID != "" {
			for orgID, s := range st.subs {
				if orgID != sub.OrganizationID && s.BillingCustomerID == sub.BillingCustomerID {
					return fmt.Errorf("cliente de cobro %s ya asociado a otra organización: %w", sub.BillingCustomerID, domain.ErrConflict)
				}
			}
		}
		if cur, ok := st.subs[sub.OrganizationID]; ok {
			sub.ID, sub.CreatedAt = cur.ID, cur.CreatedAt
		} else {
			sub.CreatedAt = sub.UpdatedAt
		}
		st.subs[sub.OrganizationID] = *sub
		return nil
	})
}
