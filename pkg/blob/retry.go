// pkg/blob/retry.go

package blob

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"AveBlob/pkg/object"
)

type outcome int

const (
	fatal outcome = iota
	recoverable
	healContainer
	healBlob
)

// healing tells which missing resources may be created to serve a call.
type healing struct {
	container bool
	blob      bool
}

func (r *runner) dataHealing() healing {
	return healing{container: r.conf.AutoCreateContainer, blob: r.conf.AutoCreateBlob}
}

// runner calls the remote blob, retrying the recoverable failures.
type runner struct {
	store object.PageBlob
	conf  *Config
	data  *cachedData
	sleep func(time.Duration)
}

func classify(err error, h healing) outcome {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fatal
	}
	switch object.KindOf(err) {
	case object.ContainerNotFound:
		if h.container {
			return healContainer
		}
		return fatal
	case object.BlobNotFound:
		if h.blob {
			return healBlob
		}
		return fatal
	case object.ContainerAlreadyExists, object.BlobAlreadyExists,
		object.InvalidPageRange, object.RequestBodyTooLarge, object.InvalidResourceName:
		return fatal
	case object.ContainerBeingDeleted:
		return recoverable
	default:
		return recoverable
	}
}

// do runs f until it succeeds, fails with a fatal error or runs out of attempts.
// Running out of attempts drops what is known about the blob.
func (r *runner) do(ctx context.Context, op string, h healing, f func() error) error {
	var failures, heals int
	for {
		start := time.Now()
		err := f()
		remoteRequests.WithLabelValues(op).Inc()
		remoteDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
		if err == nil {
			return nil
		}
		remoteErrors.WithLabelValues(op, object.KindOf(err).String()).Inc()

		switch classify(err, h) {
		case fatal:
			logger.Debugf("%s on %s: %s", op, r.store, err)
			return err
		case healContainer, healBlob:
			heals++
			if heals > r.conf.RetryAttempts {
				logger.Warnf("%s on %s: gave up healing after %d attempts: %s", op, r.store, heals-1, err)
				return err
			}
			var herr error
			if object.KindOf(err) == object.ContainerNotFound {
				herr = r.createContainer(ctx)
			} else {
				herr = r.createBlob(ctx)
			}
			if herr != nil {
				return errors.Wrapf(herr, "%s: heal %s", op, object.KindOf(err))
			}
		case recoverable:
			failures++
			if failures >= r.conf.RetryAttempts {
				logger.Warnf("%s on %s failed after %d attempts: %s", op, r.store, failures, err)
				r.data.invalidate()
				return err
			}
			remoteRetries.WithLabelValues(op).Inc()
			logger.Infof("%s on %s failed (%d/%d): %s, retry after %s", op, r.store, failures, r.conf.RetryAttempts, err, r.conf.RetryDelay)
			r.sleep(r.conf.RetryDelay)
		}
	}
}

func (r *runner) createContainer(ctx context.Context) error {
	logger.Infof("Create container for %s", r.store)
	selfHeals.WithLabelValues("container").Inc()
	return r.do(ctx, "create container", healing{}, func() error {
		return r.store.CreateContainerIfNotExists(ctx)
	})
}

func (r *runner) createBlob(ctx context.Context) error {
	logger.Infof("Create %s with %d pages", r.store, r.conf.InitPages)
	selfHeals.WithLabelValues("blob").Inc()
	return r.do(ctx, "create blob", healing{container: r.conf.AutoCreateContainer}, func() error {
		n, err := r.store.CreateIfNotExists(ctx, r.conf.InitPages)
		if err == nil {
			r.data.setPages(n)
		}
		return err
	})
}
