// Package service holds the business rules that sit between HTTP handlers and repositories.
package service

import (
	"context"
	"unicode/utf8"

	"petconnect/internal/models"
	"petconnect/internal/repository"
)

// AdminChecker resolves admin status from the stored role, never from a token.
func AdminChecker(userRepo repository.UserRepository) func(ctx context.Context, userID uint) (bool, error) {
	return func(ctx context.Context, userID uint) (bool, error) {
		user, err := userRepo.GetByID(ctx, userID)
		if err != nil {
			return false, err
		}
		return user.IsAdmin(), nil
	}
}

// ownerOrAdmin passes when userID owns the resource or is an admin.
func ownerOrAdmin(ctx context.Context, isAdmin func(context.Context, uint) (bool, error), userID, ownerID uint, message string) error {
	if userID == ownerID {
		return nil
	}
	if isAdmin != nil {
		admin, err := isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError(message)
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
