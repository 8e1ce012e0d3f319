//go:build !linux

package facts

import (
	"context"
	"errors"
)

// LiveProvider is only implemented on Linux; elsewhere use a facts file.
type LiveProvider struct{}

var _ Provider = (*LiveProvider)(nil)

func NewLiveProvider() *LiveProvider {
	return &LiveProvider{}
}

func (p *LiveProvider) Gather(_ context.Context) (Facts, error) {
	return nil, errors.New("live facts require linux; set facts_file to a facter dump")
}
