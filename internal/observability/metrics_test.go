package observability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestMetrics_Gather ensures recorded instruments show up in the registry.
func TestMetrics_Gather(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.RecordRelease(ctx, "x86", StatusSuccess)
	m.RecordUpload(ctx, 1024, nil)
	m.RecordUpload(ctx, 10, errors.New("access denied"))
	m.ObserveStage(ctx, "archive", time.Now().Add(-time.Second))

	names, err := m.Gather()
	require.NoError(t, err)

	joined := strings.Join(names, "\n")
	require.Contains(t, joined, "deploy_releases")
	require.Contains(t, joined, "deploy_uploads")
	require.Contains(t, joined, "deploy_uploaded_bytes")
	require.Contains(t, joined, "deploy_stage_duration")

	require.NoError(t, m.Shutdown(ctx))
}

// TestMetrics_WriteTextfile checks the textfile is written with the release counter.
func TestMetrics_WriteTextfile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	m, err := NewMetrics()
	require.NoError(t, err)

	m.RecordRelease(ctx, "x64", StatusFailed)

	path := filepath.Join(t.TempDir(), "graphite-deploy.prom")
	require.NoError(t, m.WriteTextfile(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "deploy_releases")
	require.Contains(t, string(contents), `arch="x64"`)

	require.NoError(t, m.Shutdown(ctx))
}
