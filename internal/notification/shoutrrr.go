package notification

import (
	"context"
	"errors"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// ShoutrrrProvider delivers payloads through shoutrrr service URLs
// (ntfy, telegram, discord, ...). One payload fans out to every
// configured URL.
type ShoutrrrProvider struct {
	name    string
	enabled bool
	router  *router.ServiceRouter
	log     logger.Logger
}

// NewShoutrrrProvider validates the service URLs and builds the sender.
func NewShoutrrrProvider(name string, enabled bool, urls []string, log logger.Logger) (*ShoutrrrProvider, error) {
	p := &ShoutrrrProvider{name: name, enabled: enabled, log: log}
	if len(urls) == 0 {
		p.enabled = false
		return p, nil
	}
	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, err
	}
	p.router = sender
	return p, nil
}

// Ready reports whether delivery is currently permitted.
func (p *ShoutrrrProvider) Ready() bool {
	return p.enabled && p.router != nil
}

// Send delivers the payload to every configured service. Per-service
// failures are joined into one error.
func (p *ShoutrrrProvider) Send(_ context.Context, payload *Payload) error {
	if !p.Ready() {
		return errors.New("shoutrrr provider not ready")
	}
	params := &types.Params{"title": payload.Title}
	sendErrs := p.router.Send(payload.Body, params)

	var errs []error
	for _, err := range sendErrs {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	p.log.Debug("notification delivered",
		logger.String("provider", p.name),
		logger.String("tag", payload.Tag))
	return nil
}
