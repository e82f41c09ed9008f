package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// PublisherMock records audit publishes; it satisfies telemetry.Publisher
// (asserted where that interface lives, to keep this package import-light).
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	args := m.Called(ctx, routingKey, event)
	return args.Error(0)
}

func (m *PublisherMock) Close() error {
	args := m.Called()
	return args.Error(0)
}
