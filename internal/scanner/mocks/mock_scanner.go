package mocks

import (
	"context"

	"github.com/XF2S/document-service/internal/scanner"
	"github.com/stretchr/testify/mock"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, content []byte) (scanner.Result, error) {
	args := m.Called(ctx, content)
	return args.Get(0).(scanner.Result), args.Error(1)
}
