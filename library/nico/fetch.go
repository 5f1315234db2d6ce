package nico

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	errors "github.com/Laisky/errors/v2"
	gmw "github.com/Laisky/gin-middlewares/v7"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
)

// normalizedResult is a decoded response that knows its final status.
type normalizedResult interface {
	translated() (Status, int)
}

// fetch posts query to path on its own goroutine and settles the returned future
// with the decoded result. The request is detached from ctx's cancellation;
// only timeout bounds it.
func fetch[T normalizedResult](
	ctx context.Context,
	c *client,
	op, path string,
	query any,
	timeout time.Duration,
	decode func(io.Reader) (T, error),
) *Future[T] {
	future := newFuture[T]()
	logger := c.requestLogger(ctx).With(
		zap.String("op", op),
		zap.String("request_id", uuid.NewString()),
	)

	body, err := json.Marshal(query)
	if err != nil {
		var zero T
		err = errors.Wrap(err, "marshal query")
		c.obs.observe(logger, op, time.Now(), err)
		future.settle(zero, err)
		return future
	}

	reqCtx := context.WithoutCancel(ctx)
	go func() {
		startAt := time.Now()
		res, err := roundTrip(reqCtx, c.transport, path, body, timeout, decode)
		c.obs.observe(logger, op, startAt, err)
		future.settle(res, err)
	}()

	return future
}

func roundTrip[T normalizedResult](
	ctx context.Context,
	transport Transport,
	path string,
	body []byte,
	timeout time.Duration,
	decode func(io.Reader) (T, error),
) (T, error) {
	var zero T

	raw, err := transport.Post(ctx, path, body, timeout)
	if err != nil {
		return zero, errors.Wrapf(err, "post `%s`", path)
	}

	res, err := decode(bytes.NewReader(raw))
	if err != nil {
		return zero, errors.Wrapf(err, "decode `%s` response", path)
	}

	if st, code := res.translated(); st.Code != statusOK.Code {
		return zero, errors.WithStack(newAPIError(code, st))
	}

	return res, nil
}

// requestLogger prefers the logger attached to ctx by the gin middleware.
func (c *client) requestLogger(ctx context.Context) logSDK.Logger {
	if ctxLogger := gmw.GetLogger(ctx); ctxLogger != nil {
		return ctxLogger.Named("nico")
	}
	return c.logger
}
