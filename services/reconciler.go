package services

import (
	"context"
	"strings"
	"time"

	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/metrics"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/models"
	"github.com/noahgodinhocastellobranco-hub/aproviapagina-sub000/utils"
	"go.uber.org/zap"
)

// Subscription sources reported by check-subscription
const (
	SourceAdmin = "admin"
	SourceLocal = "local"
	SourceCakto = "cakto"
)

// FailurePolicy names how an endpoint treats internal errors
type FailurePolicy string

// FailOpenToNoAccess answers "no subscription" instead of surfacing an error
const FailOpenToNoAccess FailurePolicy = "fail_open_to_no_access"

// ReconcilerPolicy is the policy Check applies to lookup errors
const ReconcilerPolicy = FailOpenToNoAccess

var (
	activeSubscriptionStatuses = []string{"active", "ativa", "paid"}
	paidOrderStatuses          = []string{"approved", "paid", "aprovado", "pago", "completed", "complete"}
)

// SubscriptionStatus is the check-subscription answer
type SubscriptionStatus struct {
	HasSubscription bool       `json:"hasSubscription"`
	SubscriptionEnd *time.Time `json:"subscriptionEnd"`
	Source          string     `json:"source,omitempty"`
}

// AdminLookup reports whether a local user holds the admin role
type AdminLookup interface {
	IsAdmin(ctx context.Context, userID uint) (bool, error)
}

// Reconciler decides whether a user has access: admin role, then the local store,
// then provider subscriptions, then provider orders.
type Reconciler struct {
	admins   AdminLookup
	store    *SubscriptionStore
	provider PaymentProvider
	logger   *zap.Logger
	metrics  metrics.Recorder
}

// NewReconciler creates a reconciler
func NewReconciler(admins AdminLookup, store *SubscriptionStore, provider PaymentProvider, logger *zap.Logger, recorder metrics.Recorder) *Reconciler {
	return &Reconciler{
		admins:   admins,
		store:    store,
		provider: provider,
		logger:   logger,
		metrics:  recorder,
	}
}

// Check never returns an error; every failure degrades to the next source or to no access
func (r *Reconciler) Check(ctx context.Context, user *models.User) SubscriptionStatus {
	status := r.check(ctx, user)
	r.metrics.RecordSubscriptionCheck(status.Source, status.HasSubscription)
	return status
}

func (r *Reconciler) check(ctx context.Context, user *models.User) SubscriptionStatus {
	if user == nil {
		return SubscriptionStatus{}
	}
	email := utils.NormalizeEmail(user.Email)
	log := r.logger.With(zap.String("email", email), zap.String("policy", string(ReconcilerPolicy)))

	isAdmin, err := r.admins.IsAdmin(ctx, user.ID)
	if err != nil {
		log.Warn("Admin role lookup failed; continuing", zap.Error(err))
	}
	if isAdmin {
		return SubscriptionStatus{HasSubscription: true, Source: SourceAdmin}
	}

	local, err := r.store.FindActive(ctx, email)
	if err != nil {
		log.Warn("Local subscription lookup failed; asking provider", zap.Error(err))
	}
	if local != nil {
		return SubscriptionStatus{HasSubscription: true, SubscriptionEnd: local.ExpiresAt, Source: SourceLocal}
	}

	subs, err := r.provider.ListSubscriptions(ctx, ListQuery{CustomerEmail: email})
	if err != nil {
		log.Warn("Provider subscription lookup failed; checking orders", zap.Error(err))
	}
	for _, s := range subs {
		if !sameEmail(s.Email(), email) || !statusIn(s.Status, activeSubscriptionStatuses) {
			continue
		}
		return r.cache(ctx, log, ActivateParams{
			Email:               email,
			UserID:              &user.ID,
			CaktoSubscriptionID: string(s.ID),
			ExpiresAt:           s.PeriodEnd(),
		})
	}

	orders, err := r.provider.ListOrders(ctx, ListQuery{CustomerEmail: email})
	if err != nil {
		log.Warn("Provider order lookup failed; denying access", zap.Error(err))
		return SubscriptionStatus{}
	}
	for _, o := range orders {
		if !sameEmail(o.Email(), email) || !statusIn(o.Status, paidOrderStatuses) {
			continue
		}
		return r.cache(ctx, log, ActivateParams{
			Email:               email,
			UserID:              &user.ID,
			CaktoOrderID:        string(o.ID),
			CaktoSubscriptionID: string(o.SubscriptionID),
		})
	}

	return SubscriptionStatus{}
}

// cache writes a provider match to the local store; a write failure still grants access
func (r *Reconciler) cache(ctx context.Context, log *zap.Logger, params ActivateParams) SubscriptionStatus {
	sub, _, err := r.store.Activate(ctx, params)
	if err != nil {
		log.Warn("Failed to cache provider subscription", zap.Error(err))
		end := time.Now().Add(DefaultSubscriptionPeriod)
		if params.ExpiresAt != nil {
			end = *params.ExpiresAt
		}
		return SubscriptionStatus{HasSubscription: true, SubscriptionEnd: &end, Source: SourceCakto}
	}
	return SubscriptionStatus{HasSubscription: true, SubscriptionEnd: sub.ExpiresAt, Source: SourceCakto}
}

// sameEmail treats a record without an email as matching, since the provider already filtered by it
func sameEmail(recordEmail, email string) bool {
	return recordEmail == "" || utils.NormalizeEmail(recordEmail) == email
}

func statusIn(status string, allowed []string) bool {
	status = strings.ToLower(strings.TrimSpace(status))
	for _, s := range allowed {
		if status == s {
			return true
		}
	}
	return false
}
