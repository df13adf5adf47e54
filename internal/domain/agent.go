package domain

import "time"

// AgentRole enumerates operator ranks.
type AgentRole string

const (
	AgentRoleAgent      AgentRole = "AGENT"
	AgentRoleSupervisor AgentRole = "SUPERVISOR"
	AgentRoleDirector   AgentRole = "DIRECTOR"
	AgentRoleAdmin      AgentRole = "ADMIN"
)

// Agent models a support operator. Supervisory ranks never receive
// redistributed tickets; neither does the reserved system identity.
type Agent struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         AgentRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
