// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"hopline/pkg/assets"
	"hopline/pkg/blobstore"
	"hopline/pkg/config"
	"hopline/pkg/engine"
	"hopline/pkg/lambdainvoke"
	"hopline/pkg/logging"
	"hopline/pkg/overflow"
	"hopline/pkg/producers"
	"hopline/pkg/queue"
	"hopline/pkg/topic"
	"hopline/pkg/triggers"
)

// run loads cfgPath, wires every AWS-backed collaborator, builds the
// Engine and its Producer, and drives the pipeline until the Producer is
// exhausted or a fatal Producer-level error occurs.
func run(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel <= logging.LevelDebug)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading aws config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg)
	sqsClient := sqs.NewFromConfig(awsCfg)
	snsClient := sns.NewFromConfig(awsCfg)
	lambdaClient := lambda.NewFromConfig(awsCfg)

	store := blobstore.NewS3Store(s3Client)
	q := queue.NewSqsQueue(sqsClient, func(ctx context.Context, queueName string) (string, error) {
		out, err := sqsClient.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: &queueName})
		if err != nil {
			return "", err
		}
		return *out.QueueUrl, nil
	})
	tp := topic.NewSnsTopic(snsClient)
	fn := lambdainvoke.NewLambdaInvoker(lambdaClient)

	producer, err := producers.New(cfg.ProducerName, cfg.ProducerArgs, producers.Deps{Queue: q})
	if err != nil {
		return fmt.Errorf("resolving producer %q: %w", cfg.ProducerName, err)
	}

	e := &engine.Engine{
		Localizer: assets.NewLocalizer(store, ""),
		Dispatcher: &triggers.Dispatcher{
			Topic:        tp,
			Queue:        q,
			Lambda:       fn,
			Store:        store,
			HTTPClient:   http.DefaultClient,
			RandomSuffix: overflow.DefaultRandomSuffix,
		},
		Config: engine.Config{
			Command:     cfg.Command,
			LockCommand: cfg.LockCommand,
			PID:         cfg.PID,
		},
		Logger: logger,
	}

	logger.Info("starting hopline", logging.NewField("producer", cfg.ProducerName), logging.NewField("config", cfg.ConfigPath))
	return e.Run(ctx, producer)
}
