package domain

import (
	"time"
)

// Record is anything the reconciler can merge by identity.
type Record interface {
	Identity() string
}

type Assignment struct {
	ID          string           `json:"id"`
	CreatorID   string           `json:"creatorId"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Deadline    time.Time        `json:"deadline"`
	FileID      *string          `json:"fileId,omitempty"`
	Status      AssignmentStatus `json:"status"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

func (a Assignment) Identity() string {
	return a.ID
}

func (a Assignment) Owner() string {
	return a.CreatorID
}

func (a Assignment) Label() string {
	return a.Title
}

type NewAssignment struct {
	CreatorID   string    `json:"creatorId" validate:"required"`
	Title       string    `json:"title" validate:"required,notblank,max=255"`
	Description string    `json:"description" validate:"max=10000"`
	Deadline    time.Time `json:"deadline" validate:"required"`
	FileID      *string   `json:"fileId,omitempty" validate:"omitempty,notblank"`
}
