package service

import (
	"context"
	"fmt"
	"strings"

	"petconnect/internal/models"
	"petconnect/internal/repository"
)

type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   *NotificationService
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifier *NotificationService) *FollowService {
	return &FollowService{followRepo: followRepo, userRepo: userRepo, notifier: notifier}
}

// Follow sends a connection request from follower to target. It reports false
// when a request or connection in that direction already exists.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (bool, error) {
	if followerID == targetID {
		return false, models.NewValidationError("You cannot connect with yourself")
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return false, err
	}
	existing, err := s.followRepo.Get(ctx, followerID, target.ID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}

	edge := &models.Follow{FollowerID: followerID, FollowingID: target.ID, Status: models.FollowStatusPending}
	if err := s.followRepo.Create(ctx, edge); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return false, nil
		}
		return false, err
	}

	if follower, err := s.userRepo.GetByID(ctx, followerID); err == nil {
		sender := followerID
		s.notifier.Notify(ctx, NotifyInput{
			UserID:   target.ID,
			Type:     models.NotificationConnectionRequest,
			Message:  fmt.Sprintf("%s wants to connect with you.", follower.FullName),
			SenderID: &sender,
		})
	}
	return true, nil
}

// AcceptRequest is called by the recipient to accept requester's pending request.
func (s *FollowService) AcceptRequest(ctx context.Context, requesterID, recipientID uint) (bool, error) {
	edge, err := s.followRepo.Get(ctx, requesterID, recipientID)
	if err != nil {
		return false, err
	}
	if edge == nil || edge.Status != models.FollowStatusPending {
		return false, nil
	}
	if err := s.followRepo.SetStatus(ctx, edge.ID, models.FollowStatusAccepted); err != nil {
		return false, err
	}

	if recipient, err := s.userRepo.GetByID(ctx, recipientID); err == nil {
		sender := recipientID
		s.notifier.Notify(ctx, NotifyInput{
			UserID:   requesterID,
			Type:     models.NotificationConnectionAccepted,
			Message:  fmt.Sprintf("%s accepted your connection request.", recipient.FullName),
			SenderID: &sender,
		})
	}
	return true, nil
}

// Unfollow drops every edge between the two users in both directions.
func (s *FollowService) Unfollow(ctx context.Context, a, b uint) (bool, error) {
	if _, err := s.followRepo.DeleteBetween(ctx, a, b); err != nil {
		return false, err
	}
	return true, nil
}

// CancelRequest withdraws requester's own pending request.
func (s *FollowService) CancelRequest(ctx context.Context, requesterID, targetID uint) (bool, error) {
	return s.followRepo.DeletePending(ctx, requesterID, targetID)
}

// GetStatus describes b as seen from a.
func (s *FollowService) GetStatus(ctx context.Context, a, b uint) (models.ConnectionStatus, error) {
	if a == b {
		return models.ConnectionNone, nil
	}
	edges, err := s.followRepo.EdgesBetween(ctx, a, []uint{b})
	if err != nil {
		return "", err
	}
	return statusFromEdges(a, b, edges), nil
}

func statusFromEdges(a, b uint, edges []models.Follow) models.ConnectionStatus {
	var outgoingPending, incomingPending bool
	for _, e := range edges {
		isOut := e.FollowerID == a && e.FollowingID == b
		isIn := e.FollowerID == b && e.FollowingID == a
		if !isOut && !isIn {
			continue
		}
		if e.Status == models.FollowStatusAccepted {
			return models.ConnectionAccepted
		}
		if isOut {
			outgoingPending = true
		} else {
			incomingPending = true
		}
	}
	switch {
	case outgoingPending:
		return models.ConnectionPending
	case incomingPending:
		return models.ConnectionIncoming
	default:
		return models.ConnectionNone
	}
}

func (s *FollowService) Connections(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followRepo.ListConnections(ctx, userID)
}

func (s *FollowService) PendingRequests(ctx context.Context, userID uint) ([]models.PendingRequest, error) {
	edges, err := s.followRepo.ListIncomingPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]models.PendingRequest, 0, len(edges))
	for i := range edges {
		out = append(out, models.PendingRequest{
			FollowID:  edges[i].ID,
			From:      models.NewUserSummary(edges[i].Follower),
			CreatedAt: edges[i].CreatedAt,
		})
	}
	return out, nil
}

func (s *FollowService) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	return s.userRepo.Suggestions(ctx, userID, limit)
}

// Search finds users by name, username or email and tags each hit with the
// caller's connection status.
func (s *FollowService) Search(ctx context.Context, userID uint, query string) ([]models.UserSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserSearchResult{}, nil
	}
	users, err := s.userRepo.Search(ctx, query, userID, 20)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	edges, err := s.followRepo.EdgesBetween(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	out := make([]models.UserSearchResult, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, models.UserSearchResult{
			UserSummary:  models.NewUserSummary(u),
			Email:        u.Email,
			FollowStatus: statusFromEdges(userID, u.ID, edges),
		})
	}
	return out, nil
}
