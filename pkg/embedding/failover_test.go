package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubProvider struct {
	vec   []float32
	err   error
	dims  int
	calls int
}

func (s *stubProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.vec, nil
}

func (s *stubProvider) Dimensions() int {
	return s.dims
}

func TestFailoverUsesPrimaryWhenHealthy(t *testing.T) {
	primary := &stubProvider{vec: []float32{0.1, 0.2}, dims: 2}
	secondary := &stubProvider{vec: []float32{0.9, 0.9}, dims: 2}

	gw := NewFailover(primary, secondary)
	vec, err := gw.Embed(context.Background(), "list active ecus")

	assert.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2}, vec)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, secondary.calls)
}

func TestFailoverRetriesSecondaryExactlyOnce(t *testing.T) {
	primary := &stubProvider{err: errors.New("quota exceeded"), dims: 2}
	secondary := &stubProvider{vec: []float32{0.3, 0.4}, dims: 2}

	gw := NewFailover(primary, secondary)
	vec, err := gw.Embed(context.Background(), "list active ecus")

	assert.NoError(t, err)
	assert.Equal(t, []float32{0.3, 0.4}, vec)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFailoverSurfacesSecondaryError(t *testing.T) {
	primaryErr := errors.New("primary down")
	secondaryErr := errors.New("secondary down")
	primary := &stubProvider{err: primaryErr}
	secondary := &stubProvider{err: secondaryErr}

	gw := NewFailover(primary, secondary)
	_, err := gw.Embed(context.Background(), "anything")

	assert.ErrorIs(t, err, secondaryErr)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, secondary.calls)
}

func TestFailoverDimensionsComeFromPrimary(t *testing.T) {
	gw := NewFailover(&stubProvider{dims: 768}, &stubProvider{dims: 1024})
	assert.Equal(t, 768, gw.Dimensions())
}
