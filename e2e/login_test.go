//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/thesyncim/logincheck/pkg/login"
)

var wantStates = []login.State{
	login.StateInit,
	login.StateSessionOpen,
	login.StateNavigated,
	login.StateCredentialsEntered,
	login.StateSubmitted,
	login.StateVerified,
	login.StateClosed,
}

func newRunner(t *testing.T, opener login.Opener, opts ...login.Option) *login.Runner {
	t.Helper()
	opts = append([]login.Option{login.WithLogger(zaptest.NewLogger(t))}, opts...)
	r, err := login.NewRunner(opener, opts...)
	require.NoError(t, err)
	return r
}

// TestLogin_RandomChoice is the data-provider row: one random record and
// method per driver.
func TestLogin_RandomChoice(t *testing.T) {
	url := targetURL(t)

	for name, opener := range drivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			res := newRunner(t, opener).Run(ctx, url)
			t.Logf("run %s: %s valid=%t via %s in %v",
				res.RunID, res.Choice.Record.Username, res.Choice.Record.Valid, res.Choice.Method, res.Elapsed)
			require.NoError(t, res.Err)
			assert.Equal(t, wantStates, res.States)
		})
	}
}

// TestLogin_AllScenarios forces each record and method combination.
func TestLogin_AllScenarios(t *testing.T) {
	url := targetURL(t)
	catalog := login.DefaultCatalog()
	stable := os.Getenv("LOGINCHECK_TARGET_URL") == ""

	for name, opener := range drivers(t) {
		for i, rec := range catalog.Records() {
			for _, method := range []login.SubmissionMethod{login.ProgrammaticSubmit, login.ClickButton} {
				t.Run(fmt.Sprintf("%s/%s/%s", name, rec.Username, method), func(t *testing.T) {
					ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
					defer cancel()

					opts := []login.Option{login.WithSource(login.FixedChoice(i, method))}
					// The reference site also answers to the id-based layout.
					if stable && method == login.ClickButton {
						opts = append(opts, login.WithLayout(login.StableLayout()))
					}

					res := newRunner(t, opener, opts...).Run(ctx, url)
					require.NoError(t, res.Err)
					assert.Equal(t, rec, res.Choice.Record)
					assert.Equal(t, method, res.Choice.Method)
					assert.Equal(t, login.StateClosed, res.Final)
				})
			}
		}
	}
}
