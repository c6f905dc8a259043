package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// newStorageClient builds an S3 client pointed at the Cloudflare R2
// endpoint for the account.
func newStorageClient(awsConfig *aws.Config, accountID string) *s3.Client {
	return s3.NewFromConfig(*awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
}

// --- File Download ---

func DownloadFromR2(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// publishIntakeUpdate fans a status change out on the update exchange so
// the API side can stream progress back to the uploader.
func publishIntakeUpdate(rabbitConn *amqp.Connection, exchange string, intakeID uuid.UUID, status, message string) error {
	ch, err := rabbitConn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	update := map[string]any{
		"intake_id": intakeID,
		"status":    status,
		"message":   message,
		"timestamp": time.Now(),
	}
	body, _ := json.Marshal(update)
	routingKey := fmt.Sprintf("intake.%s", intakeID)

	return ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}
