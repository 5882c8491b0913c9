// SPDX-License-Identifier: AGPL-3.0-or-later

package lambdainvoke

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// lambdaAPI is the subset of the Lambda client this package calls.
type lambdaAPI interface {
	Invoke(ctx context.Context, in *lambda.InvokeInput, opts ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker implements FunctionInvoker against AWS Lambda.
type LambdaInvoker struct {
	client lambdaAPI
}

// NewLambdaInvoker wraps an *lambda.Client (or any lambdaAPI-compatible
// fake).
func NewLambdaInvoker(client lambdaAPI) *LambdaInvoker {
	return &LambdaInvoker{client: client}
}

func (l *LambdaInvoker) InvokeEvent(ctx context.Context, name string, payload []byte) (int32, error) {
	out, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(name),
		InvocationType: types.InvocationTypeEvent,
		Payload:        payload,
	})
	if err != nil {
		return 0, fmt.Errorf("lambdainvoke: invoke %s: %w", name, err)
	}
	return out.StatusCode, nil
}
