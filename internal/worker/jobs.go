package worker

import (
	"context"

	"github.com/vytor/flashdeck/internal/errors"
	"github.com/vytor/flashdeck/internal/logger"
	"github.com/vytor/flashdeck/internal/models"
)

// MultimediaPreviewer is the part of the multimedia service prefetch needs.
type MultimediaPreviewer interface {
	PreviewMultimediaContent(ctx context.Context, word string) (*models.MultimediaResult, error)
}

// PrefetchMultimediaJob warms the multimedia cache for one word.
type PrefetchMultimediaJob struct {
	Multimedia MultimediaPreviewer
	Word       string
}

func (j *PrefetchMultimediaJob) Name() string { return "prefetch_multimedia" }

func (j *PrefetchMultimediaJob) Run(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("word", j.Word)

	res, err := j.Multimedia.PreviewMultimediaContent(ctx, j.Word)
	if err != nil {
		// Nothing was found; the next request retries.
		if errors.CodeOf(err) == errors.ErrCodeServiceUnavailable {
			log.Debug("nothing to prefetch: %v", err)
			return nil
		}
		return err
	}
	log.Debug("prefetched: %s", res.Message)
	return nil
}
