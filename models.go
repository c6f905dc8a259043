package main

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/config"
	"github.com/talentmatch/matchworker/internal/database"
	"github.com/talentmatch/matchworker/internal/extract"
	"github.com/talentmatch/matchworker/internal/match"
	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// Intake lifecycle statuses, mirrored to the database and the update
// exchange.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

type WorkerConfig struct {
	DB         *database.Queries
	Cfg        *config.Config
	Tax        *taxonomy.Taxonomy
	AwsConfig  *aws.Config
	RabbitConn *amqp.Connection
	Machine    *extract.Machine
	Engine     *match.Engine
	Log        *zap.Logger
}

// IntakeMessage is the queue payload announcing one uploaded resume.
type IntakeMessage struct {
	ID uuid.UUID `json:"id"`
}

// ProfileReport is the profile side of a recommendation row: the fused
// profile plus how its extraction went.
type ProfileReport struct {
	Profile         *profile.Fused `json:"profile"`
	ExtractionState extract.State  `json:"extraction_state"`
	Confidence      float64        `json:"confidence"`
	ExtractionError string         `json:"extraction_error,omitempty"`
	Attempts        int            `json:"attempts"`
	SkillGaps       []string       `json:"skill_gaps"`
	ProcessedMs     int64          `json:"processed_ms"`
}
