package domain

import "time"

// Department represents an organizational unit used to partition agents
// and tickets during redistribution.
type Department struct {
	ID          string
	Name        string
	Description string
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
