package identity

import (
	"context"
	"errors"
	"fmt"

	"social-service/internal/model"
	"social-service/internal/store"
	"social-service/pkg/logger"

	"go.uber.org/zap"
)

// Event types sent by the identity provider
const (
	EventUserCreated = "user.created"
	EventUserUpdated = "user.updated"
	EventUserDeleted = "user.deleted"
)

// Event is one identity lifecycle notification
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData carries the provider's user payload. ID is the subject id the
// local usuario row is keyed on.
type EventData struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

// ErrUnknownEvent reports an event type this service does not handle
var ErrUnknownEvent = errors.New("unknown webhook event type")

// UserLifecycleStore is the slice of the usuario accessor the processor needs
type UserLifecycleStore interface {
	FindBySubjectAnyState(ctx context.Context, subjectID string) (*model.Usuario, error)
	Create(ctx context.Context, u *model.Usuario) error
	Save(ctx context.Context, u *model.Usuario) error
	SoftDelete(ctx context.Context, subjectID string) error
}

// Processor applies identity lifecycle events to the usuarios table
type Processor struct {
	Usuarios UserLifecycleStore
}

// NewProcessor creates an event processor
func NewProcessor(usuarios UserLifecycleStore) *Processor {
	return &Processor{Usuarios: usuarios}
}

// Apply dispatches one event. Untracked event types return ErrUnknownEvent
// so the handler can acknowledge them without failing the delivery.
func (p *Processor) Apply(ctx context.Context, event Event) error {
	if event.Data.ID == "" {
		return fmt.Errorf("webhook event %q missing user id", event.Type)
	}

	switch event.Type {
	case EventUserCreated:
		return p.applyCreated(ctx, event.Data)
	case EventUserUpdated:
		return p.applyUpdated(ctx, event.Data)
	case EventUserDeleted:
		return p.applyDeleted(ctx, event.Data)
	default:
		return ErrUnknownEvent
	}
}

// applyCreated upserts the usuario row. A re-created identity reactivates
// its soft-deleted row instead of inserting a duplicate subject.
func (p *Processor) applyCreated(ctx context.Context, data EventData) error {
	log := logger.FromContext(ctx)

	existing, err := p.Usuarios.FindBySubjectAnyState(ctx, data.ID)
	if err == nil {
		existing.Email = data.Email
		existing.FirstName = data.FirstName
		existing.LastName = data.LastName
		existing.ImageURL = data.ImageURL
		existing.Active = true
		if err := p.Usuarios.Save(ctx, existing); err != nil {
			return err
		}
		log.Info("usuario reactivated from webhook", zap.String("subject_id", data.ID))
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	usuario := model.Usuario{
		SubjectID: data.ID,
		Email:     data.Email,
		FirstName: data.FirstName,
		LastName:  data.LastName,
		ImageURL:  data.ImageURL,
		Role:      model.RoleCliente,
		Active:    true,
	}
	if err := p.Usuarios.Create(ctx, &usuario); err != nil {
		return err
	}

	log.Info("usuario created from webhook",
		zap.String("subject_id", data.ID),
		zap.String("email", data.Email))
	return nil
}

// applyUpdated refreshes profile fields only; role and empresa assignment
// are owned by admins, not the identity provider.
func (p *Processor) applyUpdated(ctx context.Context, data EventData) error {
	usuario, err := p.Usuarios.FindBySubjectAnyState(ctx, data.ID)
	if err != nil {
		return err
	}

	usuario.Email = data.Email
	usuario.FirstName = data.FirstName
	usuario.LastName = data.LastName
	usuario.ImageURL = data.ImageURL
	return p.Usuarios.Save(ctx, usuario)
}

// applyDeleted soft-deletes the row; identities are never hard-removed
func (p *Processor) applyDeleted(ctx context.Context, data EventData) error {
	err := p.Usuarios.SoftDelete(ctx, data.ID)
	if errors.Is(err, store.ErrNotFound) {
		// Deleting an unknown user is a no-op, not a failure.
		return nil
	}
	return err
}
