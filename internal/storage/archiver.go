// Package storage archives execution reports to S3 for audit and offline
// analysis.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/hcp-engage/internal/domain"
)

// s3PutAPI is the slice of the S3 client the archiver uses.
type s3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// ReportArchiver writes execution reports as JSON objects under
// plans/<id>/report-<ts>.json.
type ReportArchiver struct {
	client s3PutAPI
	bucket string
	now    func() time.Time
}

// NewReportArchiver creates an archiver using the default AWS config chain.
// An empty profile uses the ambient credentials.
func NewReportArchiver(ctx context.Context, bucket, region, profile string) (*ReportArchiver, error) {
	var (
		cfg aws.Config
		err error
	)
	if profile != "" {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return &ReportArchiver{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		now:    time.Now,
	}, nil
}

// NewReportArchiverWithClient creates an archiver over an existing client.
func NewReportArchiverWithClient(client s3PutAPI, bucket string) *ReportArchiver {
	return &ReportArchiver{client: client, bucket: bucket, now: time.Now}
}

// ArchiveReport stores the report and returns the object key.
func (a *ReportArchiver) ArchiveReport(ctx context.Context, report *domain.ExecutionReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	key := fmt.Sprintf("plans/%s/report-%s.json", report.PlanID, a.now().UTC().Format("20060102T150405Z"))
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading report to s3: %w", err)
	}
	return key, nil
}
