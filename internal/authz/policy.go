// Package authz implements the payment-gated access policy and the role
// guards applied to every protected route.
package authz

import (
	"context"
	"errors"
	"time"

	"social-service/internal/model"
	"social-service/internal/store"
	"social-service/pkg/cache"
	"social-service/pkg/logger"
	"social-service/prometheus"

	"go.uber.org/zap"
)

// Reason explains a deny decision
type Reason string

const (
	ReasonUserNotFound   Reason = "USER_NOT_FOUND"
	ReasonNoTenant       Reason = "NO_TENANT"
	ReasonTenantNotFound Reason = "TENANT_NOT_FOUND"
	ReasonTenantInactive Reason = "TENANT_INACTIVE"
	ReasonPaymentPending Reason = "PAYMENT_PENDING"
	ReasonInternalError  Reason = "INTERNAL_ERROR"
)

// Decision is the outcome of one access check. It is recomputed per request
// and never persisted.
type Decision struct {
	Allowed bool                  `json:"allowed"`
	Reason  Reason                `json:"reason,omitempty"`
	Empresa *model.EmpresaSummary `json:"empresa,omitempty"`

	// Usuario is carried for middleware consumers; not part of the JSON shape.
	Usuario *model.Usuario `json:"-"`
}

// UserFinder resolves identity-provider subjects to local usuarios
type UserFinder interface {
	FindBySubject(ctx context.Context, subjectID string) (*model.Usuario, error)
}

// EmpresaFinder resolves empresa ids, including inactive rows
type EmpresaFinder interface {
	FindByID(ctx context.Context, id uint) (*model.Empresa, error)
}

// adminEmpresa is the synthetic tenant marker returned for administrators,
// who are not bound to any empresa.
var adminEmpresa = model.EmpresaSummary{
	Name:            "Administrador",
	Slug:            "admin",
	Active:          true,
	PaymentReceived: true,
}

// Checker evaluates the access policy. Decisions are cached per subject for
// DecisionTTL so hot paths skip the two lookups; the cache is TTL-bounded
// and swept by its janitor.
type Checker struct {
	Users       UserFinder
	Empresas    EmpresaFinder
	Cache       *cache.Cache
	DecisionTTL time.Duration
}

// NewChecker creates a policy checker. cache may be nil to disable caching.
func NewChecker(users UserFinder, empresas EmpresaFinder, c *cache.Cache, ttl time.Duration) *Checker {
	return &Checker{Users: users, Empresas: empresas, Cache: c, DecisionTTL: ttl}
}

// CheckAccess resolves whether the subject may use tenant-scoped features.
// The checks run in a fixed order and short-circuit: user exists, admin
// bypass, tenant assigned, tenant exists, tenant active, payment received.
// It never returns an error; any data-access failure degrades to deny with
// INTERNAL_ERROR and is logged here.
func (ch *Checker) CheckAccess(ctx context.Context, subjectID string) Decision {
	if ch.Cache != nil {
		if v, ok := ch.Cache.Get(decisionKey(subjectID)); ok {
			if d, ok := v.(Decision); ok {
				return d
			}
		}
	}

	d := ch.evaluate(ctx, subjectID)
	prometheus.RecordAccessCheck(d.Allowed, string(d.Reason))

	// Deny-by-failure is never cached: the next request should retry the lookups.
	if ch.Cache != nil && d.Reason != ReasonInternalError {
		ch.Cache.SetWithTTL(decisionKey(subjectID), d, ch.DecisionTTL)
	}
	return d
}

func (ch *Checker) evaluate(ctx context.Context, subjectID string) Decision {
	log := logger.FromContext(ctx)

	usuario, err := ch.Users.FindBySubject(ctx, subjectID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Decision{Allowed: false, Reason: ReasonUserNotFound}
		}
		log.Error("access check: user lookup failed", zap.String("subject_id", subjectID), zap.Error(err))
		return Decision{Allowed: false, Reason: ReasonInternalError}
	}

	if usuario.Role == model.RoleAdmin {
		empresa := adminEmpresa
		return Decision{Allowed: true, Empresa: &empresa, Usuario: usuario}
	}

	if usuario.EmpresaID == nil {
		return Decision{Allowed: false, Reason: ReasonNoTenant, Usuario: usuario}
	}

	empresa, err := ch.Empresas.FindByID(ctx, *usuario.EmpresaID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Decision{Allowed: false, Reason: ReasonTenantNotFound, Usuario: usuario}
		}
		log.Error("access check: empresa lookup failed",
			zap.String("subject_id", subjectID),
			zap.Uint("empresa_id", *usuario.EmpresaID),
			zap.Error(err))
		return Decision{Allowed: false, Reason: ReasonInternalError, Usuario: usuario}
	}

	summary := empresa.Summary()

	if !empresa.Active {
		return Decision{Allowed: false, Reason: ReasonTenantInactive, Empresa: &summary, Usuario: usuario}
	}

	if !empresa.PaymentReceived {
		return Decision{Allowed: false, Reason: ReasonPaymentPending, Empresa: &summary, Usuario: usuario}
	}

	return Decision{Allowed: true, Empresa: &summary, Usuario: usuario}
}

// Invalidate drops any cached decision for the subject. Called after admin
// edits that change a user's standing.
func (ch *Checker) Invalidate(subjectID string) {
	if ch.Cache != nil {
		ch.Cache.Delete(decisionKey(subjectID))
	}
}

// InvalidateAll drops every cached decision. An empresa edit changes the
// standing of all its users at once; decisions are keyed by subject, so a
// full flush is the correct (and cheap, empresa edits are rare) reset.
func (ch *Checker) InvalidateAll() {
	if ch.Cache != nil {
		ch.Cache.Flush()
	}
}

func decisionKey(subjectID string) string {
	return "access:" + subjectID
}
