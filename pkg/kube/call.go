package kube

import (
	"context"
	"errors"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"

	perrors "github.com/matzehuels/topoview/pkg/errors"
	"github.com/matzehuels/topoview/pkg/observability"
)

// Call runs one API request. It reports the request to the Kubernetes hooks
// and wraps a failure in a coded error: NOT_FOUND for missing objects,
// KUBE_REQUEST otherwise.
func Call[T any](ctx context.Context, verb, resource string, fn func() (T, error)) (T, error) {
	hooks := observability.Kube()
	hooks.OnRequest(ctx, verb, resource)
	start := time.Now()
	v, err := fn()
	hooks.OnResponse(ctx, verb, resource, time.Since(start), err)
	if err != nil {
		var zero T
		return zero, wrap(err, verb, resource)
	}
	return v, nil
}

func wrap(err error, verb, resource string) error {
	code := perrors.ErrCodeKube
	if apierrors.IsNotFound(err) {
		code = perrors.ErrCodeNotFound
	}
	return perrors.Wrap(code, err, "%s %s", verb, resource)
}

// Reason returns the text a user should see for err: the API server's
// status message when there is one, the error text otherwise.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var status apierrors.APIStatus
	if errors.As(err, &status) {
		if msg := status.Status().Message; msg != "" {
			return msg
		}
	}
	var coded *perrors.Error
	if errors.As(err, &coded) && coded.Cause != nil {
		return coded.Cause.Error()
	}
	return err.Error()
}
