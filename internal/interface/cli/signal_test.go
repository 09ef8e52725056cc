package cli

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/YoshitsuguKoike/donothing/internal/app"
	"github.com/YoshitsuguKoike/donothing/internal/application/workflow"
	"github.com/YoshitsuguKoike/donothing/internal/domain/model/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// syncBuffer is written by the interrupt watcher and the run at once
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestExecuteUntilInterrupted(t *testing.T) {
	const interrupted = "Interrupted: stopping before the next step"

	tests := []struct {
		name          string
		interruptAt   int
		wantErr       error
		wantRestores  int
		wantStepsDone []int
	}{
		{name: "interrupt during first step", interruptAt: 0, wantErr: context.Canceled, wantRestores: 1, wantStepsDone: []int{0}},
		{name: "no interrupt", interruptAt: -1, wantStepsDone: []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer goleak.VerifyNone(t)
			t.Setenv(app.HomeEnv, testHome)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var done []int
			step := func(i int) workflow.Step {
				return workflow.Step{Run: func(*workflow.Engine) error {
					done = append(done, i)
					if i == tt.interruptAt {
						cancel()
					}
					return nil
				}}
			}
			def := &workflow.Static{
				WorkflowName: "Demo",
				Fields:       progress.MustSchema(progress.Int("count", 0)),
				Sequence:     []workflow.Step{step(0), step(1)},
			}

			var restores int
			var out, errOut syncBuffer
			root := newRoot(def, newTestFs(t), testClock)
			root.SetIn(strings.NewReader(""))
			root.SetOut(&out)
			root.SetErr(&errOut)
			root.SetArgs([]string{"new"})

			err := executeUntilInterrupted(ctx, func() { restores++ }, root)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, errOut.String(), interrupted)
			} else {
				require.NoError(t, err)
				assert.NotContains(t, errOut.String(), interrupted)
			}
			assert.Equal(t, tt.wantRestores, restores)
			assert.Equal(t, tt.wantStepsDone, done)
		})
	}
}
