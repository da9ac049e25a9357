package cronrunner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunnerRunsJobs(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	ran := make(chan struct{}, 4)

	_, err := r.Add("tick", "* * * * * *", func(context.Context) error {
		ran <- struct{}{}
		return errors.New("ignored")
	})
	require.NoError(t, err)
	assert.Equal(t, 1, r.Entries())

	r.Start()
	defer r.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestRunnerRejectsBadSpec(t *testing.T) {
	r := New(nil, nil)
	_, err := r.Add("bad", "every minute", func(context.Context) error { return nil })
	assert.Error(t, err)
}
