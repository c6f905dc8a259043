package main

import (
	"context"
	"database/sql"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/talentmatch/matchworker/internal/config"
	"github.com/talentmatch/matchworker/internal/database"
	"github.com/talentmatch/matchworker/internal/extract"
	"github.com/talentmatch/matchworker/internal/gemini"
	"github.com/talentmatch/matchworker/internal/logger"
	"github.com/talentmatch/matchworker/internal/match"
	"github.com/talentmatch/matchworker/internal/taxonomy"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("error loading config. err: ", err)
	}

	zlog := logger.New(cfg.Log.Debug, cfg.Log.JSON, cfg.Log.File)
	defer zlog.Sync()

	if cfg.DatabaseURL == "" {
		zlog.Fatal("empty DB_URL in environment")
	}
	if cfg.RabbitURL == "" {
		zlog.Fatal("empty RABBITMQ_URL in environment")
	}
	for name, val := range map[string]string{
		"R2_ACCOUNT_ID": cfg.Storage.AccountID,
		"R2_BUCKET":     cfg.Storage.Bucket,
		"R2_ACCESS_KEY": cfg.Storage.AccessKey,
		"R2_SECRET_KEY": cfg.Storage.SecretKey,
	} {
		if val == "" {
			zlog.Fatal("empty " + name + " in environment")
		}
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("error opening db", zap.Error(err))
	}
	dbqueries := database.New(db)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.Storage.AccessKey, cfg.Storage.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		zlog.Fatal("error creating aws config", zap.Error(err))
	}

	var tax *taxonomy.Taxonomy
	if cfg.TaxonomyFile != "" {
		tax, err = taxonomy.LoadFile(cfg.TaxonomyFile)
	} else {
		tax, err = taxonomy.Default()
	}
	if err != nil {
		zlog.Fatal("error loading taxonomy", zap.Error(err))
	}

	// Without an API key every resume takes the heuristic path.
	var structurer extract.Structurer
	if cfg.Gemini.APIKey != "" {
		structurer, err = gemini.New(context.Background(), gemini.Config{
			APIKey:            cfg.Gemini.APIKey,
			Model:             cfg.Gemini.Model,
			RequestsPerMinute: cfg.Gemini.RequestsPerMinute,
		}, zlog)
		if err != nil {
			zlog.Fatal("failed to create structurer", zap.Error(err))
		}
	} else {
		zlog.Warn("empty GOOGLE_API_KEY in environment, resumes take the heuristic path")
	}

	machine := extract.NewMachine(structurer, tax, extract.Config{
		AcceptanceThreshold: cfg.Matching.AcceptanceThreshold,
		DegradedCeiling:     cfg.Matching.DegradedCeiling,
		MaxRetries:          cfg.Gemini.MaxRetries,
		Backoff:             cfg.Gemini.Backoff,
		Timeout:             cfg.Gemini.Timeout,
	}, zlog)

	engine := match.NewEngine(match.Config{
		Weights: match.Weights{
			Skills:     cfg.Matching.Weights.Skills,
			Experience: cfg.Matching.Weights.Experience,
			Industry:   cfg.Matching.Weights.Industry,
			Location:   cfg.Matching.Weights.Location,
		},
		AdjacentBonus:    cfg.Matching.AdjacentBonus,
		AdjacentBonusCap: cfg.Matching.AdjacentBonusCap,
		PartialIndustry:  cfg.Matching.PartialIndustry,
		ExplanationFloor: cfg.Matching.ExplanationFloor,
		MinScore:         cfg.Matching.MinScore,
		MaxResults:       cfg.Matching.MaxResults,
		GapSources:       cfg.Matching.GapSources,
	}, tax, zlog)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		zlog.Fatal("error connecting to RabbitMQ", zap.Error(err))
	}

	workerConfig := WorkerConfig{
		DB:         dbqueries,
		Cfg:        cfg,
		Tax:        tax,
		AwsConfig:  &awsCfg,
		RabbitConn: conn,
		Machine:    machine,
		Engine:     engine,
		Log:        zlog,
	}

	zlog.Info("starting consumer pool", zap.Int("workers", cfg.Worker.Workers))
	workerConfig.StartConsumerWorkerPool(cfg.Worker.Workers)
}
