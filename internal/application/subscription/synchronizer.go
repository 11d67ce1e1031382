package subscription

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/internal/domain/plan"
	"github.com/jhoicas/Biblioteca-api/internal/domain/repository"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
	"github.com/jhoicas/Biblioteca-api/pkg/metrics"
)

// Resultados de Apply.
const (
	OutcomeApplied = "applied"
	OutcomeIgnored = "ignored"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// Outcome qué hizo el sincronizador con un evento.
type Outcome struct {
	Result string
	Reason string
}

func applied() Outcome              { return Outcome{Result: OutcomeApplied} }
func ignored(reason string) Outcome { return Outcome{Result: OutcomeIgnored, Reason: reason} }
func dropped(reason string) Outcome { return Outcome{Result: OutcomeDropped, Reason: reason} }

// Synchronizer mantiene Subscription y Organization.plan/status alineados con los eventos del proveedor.
//
// Cada paso corre en una transacción que bloquea primero la fila de la organización, de modo que
// los eventos de una misma organización se aplican uno a la vez y Subscription.plan ==
// Organization.plan tras cada commit. Las escrituras toman sus valores de la instantánea del
// evento, así que reaplicar el mismo evento no cambia nada. Eventos sin metadatos o sin filas
// asociadas se registran y se descartan sin error.
type Synchronizer struct {
	tx      TxRunner
	subs    repository.SubscriptionRepository
	events  repository.BillingEventRepository
	prices  PriceTable
	log     *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSynchronizer construye el sincronizador. subs se usa para localizar la organización
// de un evento antes de abrir la transacción; events (opcional) guarda la bitácora.
func NewSynchronizer(
	tx TxRunner,
	subs repository.SubscriptionRepository,
	events repository.BillingEventRepository,
	prices PriceTable,
	log *logger.Logger,
	m *metrics.Metrics,
) *Synchronizer {
	return &Synchronizer{
		tx:      tx,
		subs:    subs,
		events:  events,
		prices:  prices,
		log:     log.Component("subscription"),
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Apply aplica un evento. Solo devuelve error ante fallos de infraestructura; los descartes
// quedan en el Outcome.
func (s *Synchronizer) Apply(ctx context.Context, ev Event) (Outcome, error) {
	var (
		out Outcome
		err error
	)
	switch e := ev.(type) {
	case CheckoutCompleted:
		out, err = s.checkoutCompleted(ctx, e)
	case SubscriptionUpdated:
		out, err = s.subscriptionUpdated(ctx, e)
	case SubscriptionDeleted:
		out, err = s.subscriptionDeleted(ctx, e)
	case InvoicePaymentFailed:
		out, err = s.invoicePaymentFailed(ctx, e)
	case InvoicePaid:
		out = ignored("factura cobrada, solo informativo")
		s.log.Info().
			Str("event_id", e.ID).
			Str("customer_id", e.CustomerID).
			Str("invoice_id", e.InvoiceID).
			Str("amount", e.AmountPaid.StringFixed(2)).
			Str("currency", e.Currency).
			Msg("factura cobrada")
	case Malformed:
		out = dropped("cuerpo no interpretable: " + e.Reason)
	default:
		out = ignored("tipo de evento no manejado")
	}

	meta := ev.Meta()
	if err != nil {
		out = Outcome{Result: OutcomeFailed, Reason: err.Error()}
		s.metrics.RecordBillingEvent(meta.Type, OutcomeFailed)
		s.log.Error().Err(err).Str("event_id", meta.ID).Str("event_type", meta.Type).Msg("error aplicando evento de cobro")
		s.record(ctx, ev, out)
		return out, err
	}
	s.metrics.RecordBillingEvent(meta.Type, out.Result)
	s.record(ctx, ev, out)
	evt := s.log.Info()
	if out.Result == OutcomeDropped {
		evt = s.log.Warn()
	}
	evt.Str("event_id", meta.ID).Str("event_type", meta.Type).Str("outcome", out.Result).Str("reason", out.Reason).Msg("evento de cobro procesado")
	return out, nil
}

func (s *Synchronizer) checkoutCompleted(ctx context.Context, e CheckoutCompleted) (Outcome, error) {
	if e.OrganizationID == "" || !e.Plan.Valid() {
		return dropped("metadatos organization_id/plan ausentes o inválidos"), nil
	}

	out := applied()
	err := s.tx.RunSync(ctx, func(orgs repository.OrganizationRepository, subs repository.SubscriptionRepository) error {
		org, err := orgs.GetForUpdate(ctx, e.OrganizationID)
		if err != nil {
			return err
		}
		if org == nil {
			out = dropped("organización inexistente")
			return nil
		}
		sub, err := subs.GetByOrganization(ctx, org.ID)
		if err != nil {
			return err
		}
		if sub != nil && sub.Status == entity.SubStatusCancelled &&
			e.SubscriptionID != "" && e.SubscriptionID == sub.BillingSubscriptionID {
			out = ignored("checkout de una suscripción ya cancelada")
			return nil
		}
		now := s.now()
		if sub == nil {
			sub = &entity.Subscription{ID: uuid.New().String(), OrganizationID: org.ID, CreatedAt: now}
		}
		setIfPresent(&sub.BillingCustomerID, e.CustomerID)
		setIfPresent(&sub.BillingSubscriptionID, e.SubscriptionID)
		setIfPresent(&sub.BillingPriceID, e.PriceID)
		sub.Plan = e.Plan
		sub.Status = entity.SubStatusActive
		sub.UpdatedAt = now

		if err := subs.Upsert(ctx, sub); err != nil {
			return err
		}
		return orgs.SetPlan(ctx, org.ID, e.Plan, entity.OrgStatusActive)
	})
	return out, err
}

func (s *Synchronizer) subscriptionUpdated(ctx context.Context, e SubscriptionUpdated) (Outcome, error) {
	return s.withSubscription(ctx, e.CustomerID, func(orgs repository.OrganizationRepository, subs repository.SubscriptionRepository, org *entity.Organization, sub *entity.Subscription) (Outcome, error) {
		// Cancelada: solo una instancia nueva la reactiva. Vigente: solo se acepta su propia instancia.
		if sub.Status == entity.SubStatusCancelled {
			if sameInstance(sub, e.SubscriptionID) {
				return ignored("suscripción ya cancelada"), nil
			}
		} else if !sameInstance(sub, e.SubscriptionID) {
			return ignored("evento de una suscripción anterior"), nil
		}

		setIfPresent(&sub.BillingSubscriptionID, e.SubscriptionID)
		setIfPresent(&sub.BillingPriceID, e.PriceID)
		sub.Status = MapProviderStatus(e.ProviderStatus)
		sub.CurrentPeriodStart = e.CurrentPeriodStart
		sub.CurrentPeriodEnd = e.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = e.CancelAtPeriodEnd
		sub.UpdatedAt = s.now()

		p, known := s.prices.PlanFor(e.PriceID)
		if known {
			sub.Plan = p
		}
		if err := subs.Upsert(ctx, sub); err != nil {
			return Outcome{}, err
		}
		if known && p != org.Plan {
			if err := orgs.SetPlan(ctx, org.ID, p, org.Status); err != nil {
				return Outcome{}, err
			}
		}
		return applied(), nil
	})
}

func (s *Synchronizer) subscriptionDeleted(ctx context.Context, e SubscriptionDeleted) (Outcome, error) {
	return s.withSubscription(ctx, e.CustomerID, func(orgs repository.OrganizationRepository, subs repository.SubscriptionRepository, org *entity.Organization, sub *entity.Subscription) (Outcome, error) {
		if !sameInstance(sub, e.SubscriptionID) {
			return ignored("evento de una suscripción anterior"), nil
		}
		sub.Status = entity.SubStatusCancelled
		sub.Plan = plan.Trial
		sub.UpdatedAt = s.now()
		if err := subs.Upsert(ctx, sub); err != nil {
			return Outcome{}, err
		}
		if err := orgs.SetPlan(ctx, org.ID, plan.Trial, entity.OrgStatusActive); err != nil {
			return Outcome{}, err
		}
		return applied(), nil
	})
}

func (s *Synchronizer) invoicePaymentFailed(ctx context.Context, e InvoicePaymentFailed) (Outcome, error) {
	return s.withSubscription(ctx, e.CustomerID, func(_ repository.OrganizationRepository, subs repository.SubscriptionRepository, org *entity.Organization, sub *entity.Subscription) (Outcome, error) {
		if sub.Status == entity.SubStatusCancelled {
			return ignored("suscripción ya cancelada"), nil
		}
		if !sameInstance(sub, e.SubscriptionID) {
			return ignored("evento de una suscripción anterior"), nil
		}
		sub.Status = entity.SubStatusPastDue
		sub.UpdatedAt = s.now()
		if err := subs.Upsert(ctx, sub); err != nil {
			return Outcome{}, err
		}
		s.log.Warn().
			Str("org_id", org.ID).
			Str("customer_id", e.CustomerID).
			Str("invoice_id", e.InvoiceID).
			Str("amount_due", e.AmountDue.StringFixed(2)).
			Str("currency", e.Currency).
			Msg("cobro fallido, suscripción en mora")
		return applied(), nil
	})
}

// record guarda el evento en la bitácora. Un fallo aquí no afecta al resultado.
func (s *Synchronizer) record(ctx context.Context, ev Event, out Outcome) {
	if s.events == nil {
		return
	}
	meta := ev.Meta()
	entry := &entity.BillingEvent{
		ID:         meta.ID,
		Type:       meta.Type,
		Outcome:    out.Result,
		Reason:     out.Reason,
		ReceivedAt: s.now(),
	}
	switch e := ev.(type) {
	case CheckoutCompleted:
		entry.CustomerID = e.CustomerID
	case SubscriptionUpdated:
		entry.CustomerID = e.CustomerID
	case SubscriptionDeleted:
		entry.CustomerID = e.CustomerID
	case InvoicePaymentFailed:
		entry.CustomerID, entry.Amount, entry.Currency = e.CustomerID, &e.AmountDue, e.Currency
	case InvoicePaid:
		entry.CustomerID, entry.Amount, entry.Currency = e.CustomerID, &e.AmountPaid, e.Currency
	}
	if entry.ID == "" {
		return
	}
	if err := s.events.Record(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("event_id", meta.ID).Msg("no se pudo registrar el evento en la bitácora")
	}
}

type syncStep func(orgs repository.OrganizationRepository, subs repository.SubscriptionRepository, org *entity.Organization, sub *entity.Subscription) (Outcome, error)

// withSubscription localiza la suscripción por customer id, bloquea su organización y relee la
// suscripción dentro de la transacción antes de ejecutar step.
func (s *Synchronizer) withSubscription(ctx context.Context, customerID string, step syncStep) (Outcome, error) {
	if customerID == "" {
		return dropped("evento sin customer id"), nil
	}
	found, err := s.subs.GetByCustomerID(ctx, customerID)
	if err != nil {
		return Outcome{}, err
	}
	if found == nil {
		return dropped("suscripción inexistente para el cliente"), nil
	}

	var out Outcome
	err = s.tx.RunSync(ctx, func(orgs repository.OrganizationRepository, subs repository.SubscriptionRepository) error {
		org, err := orgs.GetForUpdate(ctx, found.OrganizationID)
		if err != nil {
			return err
		}
		if org == nil {
			out = dropped("organización inexistente")
			return nil
		}
		sub, err := subs.GetByCustomerID(ctx, customerID)
		if err != nil {
			return err
		}
		if sub == nil || sub.OrganizationID != org.ID {
			out = dropped("suscripción inexistente para el cliente")
			return nil
		}
		out, err = step(orgs, subs, org, sub)
		return err
	})
	return out, err
}

// sameInstance indica si el evento se refiere a la suscripción registrada (o no trae id).
func sameInstance(sub *entity.Subscription, subscriptionID string) bool {
	return subscriptionID == "" || sub.BillingSubscriptionID == "" || sub.BillingSubscriptionID == subscriptionID
}

func setIfPresent(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
