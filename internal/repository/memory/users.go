package memory

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/asset-tracker/internal/domain"
)

type userRepository struct {
	s session
}

func (r *userRepository) Create(_ context.Context, user *domain.User) error {
	return r.s.write(func(st *state) error {
		if emailTaken(st, user.Email, "") {
			return uniqueViolation("email")
		}
		user.ID = newID()
		user.CreatedAt = r.s.db.now()
		user.UpdatedAt = user.CreatedAt
		st.users[user.ID] = *user
		return nil
	})
}

func (r *userRepository) Update(_ context.Context, user *domain.User) error {
	return r.s.write(func(st *state) error {
		current, ok := st.users[user.ID]
		if !ok {
			return pgx.ErrNoRows
		}
		if emailTaken(st, user.Email, user.ID) {
			return uniqueViolation("email")
		}
		user.CreatedAt = current.CreatedAt
		user.UpdatedAt = r.s.db.now()
		st.users[user.ID] = *user
		return nil
	})
}

func emailTaken(st *state, email, excludeID string) bool {
	for id, user := range st.users {
		if id != excludeID && strings.EqualFold(user.Email, email) {
			return true
		}
	}
	return false
}

func (r *userRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	var result *domain.User
	err := r.s.read(func(st *state) error {
		user, ok := st.users[id]
		if !ok {
			return pgx.ErrNoRows
		}
		result = &user
		return nil
	})
	return result, err
}

func (r *userRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	var result *domain.User
	err := r.s.read(func(st *state) error {
		for _, user := range st.users {
			if strings.EqualFold(user.Email, email) {
				user := user
				result = &user
				return nil
			}
		}
		return pgx.ErrNoRows
	})
	return result, err
}
