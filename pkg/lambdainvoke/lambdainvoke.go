// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lambdainvoke defines the function-invocation interface
// consumed by the Lambda Trigger, and an AWS Lambda-backed
// implementation of it.
package lambdainvoke

import "context"

// FunctionInvoker is the external collaborator spec.md leaves
// unspecified beyond its interface.
type FunctionInvoker interface {
	// InvokeEvent invokes name with the invocation type "Event" (fire
	// and forget), returning the status code the service responded
	// with. The Lambda Trigger treats anything but 202 as a failure.
	InvokeEvent(ctx context.Context, name string, payload []byte) (statusCode int32, err error)
}
