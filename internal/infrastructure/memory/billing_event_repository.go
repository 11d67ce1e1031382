package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
)

var _ repository.BillingEventRepository = (*BillingEventRepo)(nil)

// BillingEventRepo bitácora de eventos de cobro en memoria.
type BillingEventRepo struct{ v view }

func (r *BillingEventRepo) Record(ctx context.Context, ev *entity.BillingEvent) error {
	return r.v.write(ctx, func(st *state) error {
		if cur, ok := st.events[ev.ID]; ok {
			cur.Outcome, cur.Reason = ev.Outcome, ev.Reason
			st.events[ev.ID] = cur
			return nil
		}
		st.events[ev.ID] = *ev
		return nil
	})
}

func (r *BillingEventRepo) ListByCustomer(_ context.Context, customerID string, limit int) ([]*entity.BillingEvent, error) {
	var list []*entity.BillingEvent
	r.v.read(func(st *state) {
		for _, e := range st.events {
			if e.CustomerID == customerID {
				e := e
				list = append(list, &e)
			}
		}
	})
	sort.Slice(list, func(i, j int) bool { return list[i].ReceivedAt.After(list[j].ReceivedAt) })
	if limit <= 0 {
		limit = 50
	}
	return page(list, limit, 0), nil
}
