package models

import "strings"

// Role is the authorization role stored on a user.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// ParseRole accepts any casing and returns the canonical role.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// FollowStatus is the state of a directed follow edge.
type FollowStatus string

const (
	FollowStatusPending  FollowStatus = "PENDING"
	FollowStatusAccepted FollowStatus = "ACCEPTED"
)

// ConnectionStatus is the relationship between two users as seen by one of them.
type ConnectionStatus string

const (
	ConnectionNone     ConnectionStatus = "NONE"
	ConnectionPending  ConnectionStatus = "PENDING"
	ConnectionIncoming ConnectionStatus = "INCOMING"
	ConnectionAccepted ConnectionStatus = "ACCEPTED"
)

// ReportStatus is the lifecycle state of a missing pet report.
type ReportStatus string

const (
	ReportStatusMissing  ReportStatus = "MISSING"
	ReportStatusFound    ReportStatus = "FOUND"
	ReportStatusReunited ReportStatus = "REUNITED"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusMissing, ReportStatusFound, ReportStatusReunited:
		return true
	}
	return false
}

// Opposite returns the status a matching report must carry. Only MISSING and
// FOUND have an opposite.
func (s ReportStatus) Opposite() (ReportStatus, bool) {
	switch s {
	case ReportStatusMissing:
		return ReportStatusFound, true
	case ReportStatusFound:
		return ReportStatusMissing, true
	}
	return "", false
}

func ParseReportStatus(s string) (ReportStatus, bool) {
	r := ReportStatus(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	o := OrderStatus(strings.ToUpper(strings.TrimSpace(s)))
	return o, o.Valid()
}

// Visibility controls who can read a post.
type Visibility string

const (
	VisibilityPublic      Visibility = "PUBLIC"
	VisibilityConnections Visibility = "CONNECTIONS"
)

func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityConnections
}

// ParseVisibility defaults an empty value to PUBLIC.
func ParseVisibility(s string) (Visibility, bool) {
	if strings.TrimSpace(s) == "" {
		return VisibilityPublic, true
	}
	v := Visibility(strings.ToUpper(strings.TrimSpace(s)))
	return v, v.Valid()
}

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationLike               NotificationType = "LIKE"
	NotificationComment            NotificationType = "COMMENT"
	NotificationConnectionRequest  NotificationType = "CONNECTION_REQUEST"
	NotificationConnectionAccepted NotificationType = "CONNECTION_ACCEPTED"
	NotificationUrgent             NotificationType = "URGENT"
	NotificationMatchFound         NotificationType = "MATCH_FOUND"
)
