package gmi

import (
	"context"
	"fmt"

	"genstudio/internal/domain"
	"genstudio/internal/providers/video"
)

// VideoProvider exists so routing stays uniform across servers. GMI does not
// expose a video queue yet, so both operations report not implemented.
type VideoProvider struct{}

var _ video.Provider = (*VideoProvider)(nil)

func NewVideoProvider() *VideoProvider {
	return &VideoProvider{}
}

func (p *VideoProvider) Submit(ctx context.Context, req video.GenerateRequest) (*video.Submission, error) {
	return nil, fmt.Errorf("%w: video generation is not available on this server", domain.ErrNotImplemented)
}

func (p *VideoProvider) Await(ctx context.Context, apiKey string, resume video.Resume) (*video.Result, error) {
	return nil, fmt.Errorf("%w: video generation is not available on this server", domain.ErrNotImplemented)
}
