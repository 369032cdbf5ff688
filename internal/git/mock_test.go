package git

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockGitCommander is a test mock for the Commander interface.
type MockGitCommander struct {
	mock.Mock
}

var _ Commander = (*MockGitCommander)(nil)

func (m *MockGitCommander) Run(_ context.Context, workDir string, args ...string) (stdout, stderr []byte, err error) {
	mockArgs := []interface{}{workDir}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	called := m.Called(mockArgs...)
	return called.Get(0).([]byte), called.Get(1).([]byte), called.Error(2)
}

func (m *MockGitCommander) RunQuiet(_ context.Context, workDir string, args ...string) error {
	mockArgs := []interface{}{workDir}
	for _, arg := range args {
		mockArgs = append(mockArgs, arg)
	}
	called := m.Called(mockArgs...)
	return called.Error(0)
}

func exitErr(code int, stderr string, args ...string) error {
	return &GitError{Command: "git", Args: args, Stderr: stderr, ExitCode: code}
}
