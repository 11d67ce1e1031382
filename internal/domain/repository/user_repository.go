package repository

import (
	"context"

	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
)

// MembershipRepository puerto para el vínculo usuario → organización.
// Los usuarios los gestiona otro módulo; aquí solo se leen y se (des)vinculan.
type MembershipRepository interface {
	CreateUser(ctx context.Context, user *entity.User) error
	GetUser(ctx context.Context, userID string) (*entity.User, error)
	// GetUserForUpdate bloquea la fila del usuario (SELECT FOR UPDATE).
	GetUserForUpdate(ctx context.Context, userID string) (*entity.User, error)
	CountByOrganization(ctx context.Context, organizationID string) (int, error)
	// SetOrganization vincula el usuario a la organización; organizationID vacío limpia el vínculo.
	SetOrganization(ctx context.Context, userID, organizationID string) (*entity.User, error)
	ListByOrganization(ctx context.Context, organizationID string) ([]*entity.User, error)
}
