package util

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCloser struct {
	mu         sync.Mutex
	closed     int
	closeError error
	order      *[]int
	id         int
}

func (m *mockCloser) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	if m.order != nil {
		*m.order = append(*m.order, m.id)
	}
	return m.closeError
}

func resetClosers() {
	closeMutex.Lock()
	closeOnExit = nil
	closeMutex.Unlock()
}

func TestCloseAllReverseOrder(t *testing.T) {
	resetClosers()
	var order []int
	for i := 1; i <= 3; i++ {
		RegisterCloser(&mockCloser{id: i, order: &order})
	}

	require.NoError(t, CloseAll())
	assert.Equal(t, []int{3, 2, 1}, order)
}

func TestCloseAllContinuesAfterError(t *testing.T) {
	resetClosers()
	boom := errors.New("close error")
	first := &mockCloser{}
	failing := &mockCloser{closeError: boom}
	last := &mockCloser{}
	RegisterCloser(first)
	RegisterCloser(failing)
	RegisterCloser(last)

	err := CloseAll()
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, first.closed)
	assert.Equal(t, 1, failing.closed)
	assert.Equal(t, 1, last.closed)
}

func TestCloseAllIdempotent(t *testing.T) {
	resetClosers()
	c := &mockCloser{}
	RegisterCloser(c)
	RegisterCloser(nil)

	require.NoError(t, CloseAll())
	require.NoError(t, CloseAll())
	assert.Equal(t, 1, c.closed)
}

func TestRegisterCloserThreadSafety(t *testing.T) {
	resetClosers()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			RegisterCloser(&mockCloser{})
		}()
	}
	wg.Wait()

	closeMutex.Lock()
	count := len(closeOnExit)
	closeMutex.Unlock()
	assert.Equal(t, 100, count)
	require.NoError(t, CloseAll())
}

func TestCheckFileHelpers(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	assert.True(t, CheckFileExists(file))
	assert.True(t, CheckFileExists(dir))
	assert.False(t, CheckFileExists(filepath.Join(dir, "missing")))
	assert.True(t, CheckDirExists(dir))
	assert.False(t, CheckDirExists(file))
}

func TestAbsPath(t *testing.T) {
	abs, err := AbsPath("/var/../tmp/x")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", abs)

	wd, err := os.Getwd()
	require.NoError(t, err)
	rel, err := AbsPath("staging")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "staging"), rel)
}

func TestEnvironmentErrorUnwraps(t *testing.T) {
	err := &EnvironmentError{Op: "getwd", Err: os.ErrNotExist}
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, "environment: getwd: file does not exist", err.Error())
}

func TestUserHomeReturnsPath(t *testing.T) {
	assert.NotEmpty(t, UserHome())
}
