package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/database"
	"github.com/talentmatch/matchworker/internal/document"
	"github.com/talentmatch/matchworker/internal/extract"
	"github.com/talentmatch/matchworker/internal/match"
	"github.com/talentmatch/matchworker/internal/profile"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

// retry retries a function up to `attempts` times with backoff
func retry[T any](attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		wait := time.Duration(500*(i+1)) * time.Millisecond
		time.Sleep(wait)
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// parseFormProfile turns the intake's form JSON into a candidate profile.
// A missing or malformed form is tolerated; extraction may still carry
// the intake.
func parseFormProfile(raw json.RawMessage, tax *taxonomy.Taxonomy, log *zap.Logger) *profile.Candidate {
	if len(raw) == 0 {
		return nil
	}
	var snap profile.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		log.Warn("unparseable form profile", zap.Error(err))
		return nil
	}
	if err := snap.Validate(); err != nil {
		log.Warn("invalid form profile", zap.Error(err))
		return nil
	}
	return profile.FromSnapshot(&snap, profile.OriginForm, 1.0, tax)
}

// runExtraction downloads the stored document and takes it through the
// extraction state machine. Downloads are retried; network failures are
// transient.
func runExtraction(ctx context.Context, intake database.Intake, workerConfig *WorkerConfig) (extract.Outcome, error) {
	if intake.ObjectKey == "" {
		return extract.Outcome{State: extract.StateFailed}, fmt.Errorf("intake %v has no stored document", intake.ID)
	}

	client := newStorageClient(workerConfig.AwsConfig, workerConfig.Cfg.Storage.AccountID)
	raw, err := retry(3, func() ([]byte, error) {
		return DownloadFromR2(ctx, client, workerConfig.Cfg.Storage.Bucket, intake.ObjectKey)
	})
	if err != nil {
		return extract.Outcome{State: extract.StateFailed}, fmt.Errorf("file download error: %w", err)
	}

	return workerConfig.Machine.Run(ctx, document.Raw{Data: raw, Mime: intake.Mime})
}

// processIntake runs the full pipeline for one intake: download, extract,
// fuse, rank, persist. A dead extraction degrades to a form-only profile
// with the error recorded; only an intake with no usable source at all
// fails.
func processIntake(ctx context.Context, msg IntakeMessage, workerConfig *WorkerConfig) error {
	started := time.Now()
	log := workerConfig.Log.With(zap.String("intake_id", msg.ID.String()))

	intake, err := workerConfig.DB.GetIntake(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("error getting intake %v: %w", msg.ID, err)
	}

	form := parseFormProfile(intake.FormProfile, workerConfig.Tax, log)

	outcome, extractErr := runExtraction(ctx, intake, workerConfig)
	if extractErr != nil {
		if ctx.Err() != nil {
			return extractErr
		}
		log.Warn("extraction failed, continuing with form data", zap.Error(extractErr))
	}

	if form == nil && outcome.Profile == nil {
		return fmt.Errorf("no usable profile sources: %w", extractErr)
	}

	fused := profile.Merge(form, outcome.Profile, workerConfig.Tax)

	jobRows, err := workerConfig.DB.ListOpenJobs(ctx)
	if err != nil {
		return fmt.Errorf("error listing jobs: %w", err)
	}
	courseRows, err := workerConfig.DB.ListCourses(ctx)
	if err != nil {
		return fmt.Errorf("error listing courses: %w", err)
	}

	jobResults, err := workerConfig.Engine.RankJobs(ctx, fused, toJobs(jobRows))
	if err != nil {
		return fmt.Errorf("error ranking jobs: %w", err)
	}
	gaps := workerConfig.Engine.AggregateGaps(jobResults)
	courseResults, err := workerConfig.Engine.RankCourses(ctx, fused, toCourses(courseRows), gaps)
	if err != nil {
		return fmt.Errorf("error ranking courses: %w", err)
	}

	report := ProfileReport{
		Profile:         fused,
		ExtractionState: outcome.State,
		Confidence:      outcome.Confidence,
		ExtractionError: errString(extractErr),
		Attempts:        outcome.Attempts,
		SkillGaps:       gaps,
		ProcessedMs:     time.Since(started).Milliseconds(),
	}
	profileJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal profile report: %w", err)
	}
	jobsJSON, err := json.Marshal(jobResults)
	if err != nil {
		return fmt.Errorf("failed to marshal job results: %w", err)
	}
	coursesJSON, err := json.Marshal(courseResults)
	if err != nil {
		return fmt.Errorf("failed to marshal course results: %w", err)
	}

	_, err = retry(3, func() (any, error) {
		return nil, workerConfig.DB.CreateOrUpdateRecommendations(ctx, database.CreateOrUpdateRecommendationsParams{
			Profile:  profileJSON,
			Jobs:     jobsJSON,
			Courses:  coursesJSON,
			IntakeID: intake.ID,
		})
	})
	if err != nil {
		return fmt.Errorf("failed to save recommendations after retries: %w", err)
	}

	log.Info("intake processed",
		zap.String("state", string(outcome.State)),
		zap.Float64("completeness", fused.Completeness),
		zap.Int("jobs", len(jobResults)),
		zap.Int("courses", len(courseResults)),
		zap.Int64("elapsed_ms", report.ProcessedMs))
	return nil
}

func toJobs(rows []database.Job) []match.Job {
	jobs := make([]match.Job, len(rows))
	for i, r := range rows {
		jobs[i] = match.Job{
			ID:             r.ID,
			Title:          r.Title,
			Industry:       r.Industry,
			Location:       r.Location,
			Remote:         r.Remote,
			Level:          r.ExperienceLevel,
			RequiredSkills: r.RequiredSkills,
		}
	}
	return jobs
}

func toCourses(rows []database.Course) []match.Course {
	courses := make([]match.Course, len(rows))
	for i, r := range rows {
		courses[i] = match.Course{
			ID:            r.ID,
			Name:          r.Name,
			Category:      r.Category,
			Level:         r.Level,
			Skills:        r.Skills,
			Prerequisites: r.Prerequisites,
		}
	}
	return courses
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// setStatus records a lifecycle change in the database and announces it
// on the update exchange. Both writes are best-effort.
func setStatus(workerConfig *WorkerConfig, id uuid.UUID, status, message, errMsg string, log *zap.Logger) {
	err := workerConfig.DB.UpdateIntakeStatus(context.Background(), database.UpdateIntakeStatusParams{
		Status: status,
		Error:  errMsg,
		ID:     id,
	})
	if err != nil {
		log.Warn("failed to update intake status", zap.String("status", status), zap.Error(err))
	}
	err = publishIntakeUpdate(workerConfig.RabbitConn, workerConfig.Cfg.Worker.UpdateExchange, id, status, message)
	if err != nil {
		log.Warn("failed to publish update", zap.Error(err))
	}
}

func worker(id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	log := workerConfig.Log.With(zap.Int("worker", id+1))

	//    to consume messages on the queue
	conn, err := amqp.Dial(workerConfig.Cfg.RabbitURL)
	if err != nil {
		log.Fatal("error dialling rabbitmq", zap.Error(err))
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal("error connecting to rabbitmq channel", zap.Error(err))
	}
	defer ch.Close()

	queue := workerConfig.Cfg.Worker.IntakeQueue
	_, err = ch.QueueDeclare(
		queue, // queue name
		true,  // durable (survives broker restarts)
		false, // auto-delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("failed to declare queue", zap.Error(err))
	}

	msgs, err := ch.Consume(
		queue, // queue name
		"",    // consumer tag
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		log.Fatal("error consuming rabbitmq messages", zap.Error(err))
	}

	for msg := range msgs {
		var intakeMsg IntakeMessage
		if err := json.Unmarshal(msg.Body, &intakeMsg); err != nil {
			log.Error("error unmarshalling message body", zap.Error(err))
			continue
		}
		ilog := log.With(zap.String("intake_id", intakeMsg.ID.String()))
		ilog.Info("processing intake")

		setStatus(workerConfig, intakeMsg.ID, StatusProcessing, "analysis started", "", ilog)

		err := processIntake(context.Background(), intakeMsg, workerConfig)
		if err != nil {
			ilog.Error("error processing intake", zap.Error(err))
			setStatus(workerConfig, intakeMsg.ID, StatusFailed, "analysis failed", err.Error(), ilog)
			continue
		}

		setStatus(workerConfig, intakeMsg.ID, StatusCompleted, "analysis completed", "", ilog)
	}
}

func (workerConfig *WorkerConfig) StartConsumerWorkerPool(numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := range numWorkers {
		workerConfig.Log.Info("worker started", zap.Int("worker", i+1))
		go worker(i, workerConfig, &wg)
	}
	wg.Wait() // block until all workers finish
}
