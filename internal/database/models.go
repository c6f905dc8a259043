package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Intake struct {
	ID          uuid.UUID
	ObjectKey   string
	Mime        string
	FormProfile json.RawMessage
	Status      string
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Job struct {
	ID              int64
	Title           string
	Industry        string
	Location        string
	Remote          bool
	ExperienceLevel string
	RequiredSkills  []string
	Open            bool
	CreatedAt       time.Time
}

type Course struct {
	ID            int64
	Name          string
	Category      string
	Level         string
	Skills        []string
	Prerequisites []string
	CreatedAt     time.Time
}

type Recommendation struct {
	ID        uuid.UUID
	IntakeID  uuid.UUID
	Profile   json.RawMessage
	Jobs      json.RawMessage
	Courses   json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}
