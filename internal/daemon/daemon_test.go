package daemon

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/treetracer/internal/metrics"
)

type passLog struct {
	mu       sync.Mutex
	triggers []string
}

func (l *passLog) add(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.triggers = append(l.triggers, reason)
}

func (l *passLog) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.triggers...)
}

func runDaemon(t *testing.T, d *Daemon) (cancel func()) {
	t.Helper()
	ctx, cancelCtx := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()
	return func() {
		cancelCtx()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("daemon did not stop")
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config{}, nil)
	require.Error(t, err)
	_, err = New(Config{Every: -time.Second}, func(context.Context, string) error { return nil })
	require.Error(t, err)
}

func TestDaemon_StartupAndManualTriggers(t *testing.T) {
	log := &passLog{}
	d, err := New(Config{}, func(_ context.Context, reason string) error {
		log.add(reason)
		if reason == "fail" {
			return errors.New("boom")
		}
		return nil
	})
	require.NoError(t, err)

	stop := runDaemon(t, d)
	require.Eventually(t, func() bool { return d.Passes() == 1 }, 2*time.Second, 10*time.Millisecond)

	d.Trigger("fail")
	require.Eventually(t, func() bool { return d.Passes() == 2 }, 2*time.Second, 10*time.Millisecond)
	d.Trigger("again")
	require.Eventually(t, func() bool { return d.Passes() == 3 }, 2*time.Second, 10*time.Millisecond)
	stop()

	assert.Equal(t, []string{TriggerStartup, "fail", "again"}, log.snapshot())
	assert.Equal(t, int64(1), d.Failures())
}

func TestDaemon_TriggersCoalesceWhileBusy(t *testing.T) {
	release := make(chan struct{})
	log := &passLog{}
	d, err := New(Config{}, func(_ context.Context, reason string) error {
		log.add(reason)
		if reason == TriggerStartup {
			<-release
		}
		return nil
	})
	require.NoError(t, err)

	stop := runDaemon(t, d)
	require.Eventually(t, func() bool { return len(log.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	d.Trigger("a")
	d.Trigger("b")
	d.Trigger("c")
	close(release)

	require.Eventually(t, func() bool { return d.Passes() == 2 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	stop()
	assert.Equal(t, []string{TriggerStartup, "a"}, log.snapshot())
}

func TestDaemon_Schedule(t *testing.T) {
	log := &passLog{}
	d, err := New(Config{Every: 50 * time.Millisecond}, func(_ context.Context, reason string) error {
		log.add(reason)
		return nil
	})
	require.NoError(t, err)

	stop := runDaemon(t, d)
	require.Eventually(t, func() bool {
		for _, r := range log.snapshot() {
			if r == TriggerSchedule {
				return true
			}
		}
		return false
	}, 3*time.Second, 20*time.Millisecond)
	stop()
}

func TestDaemon_WatchesSources(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".gitignore"), []byte("*.log\n"), 0o600))
	log := &passLog{}
	d, err := New(Config{Roots: []string{root}, IgnoreRoot: root, Debounce: 20 * time.Millisecond},
		func(_ context.Context, reason string) error {
			log.add(reason)
			return nil
		})
	require.NoError(t, err)

	stop := runDaemon(t, d)
	defer stop()
	require.Eventually(t, func() bool { return d.Passes() == 1 }, 2*time.Second, 10*time.Millisecond)
	// Give the watcher time to register before touching files.
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "ignored.log"), []byte("x"), 0o600))
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int64(1), d.Passes())

	require.NoError(t, os.WriteFile(filepath.Join(root, "index.hbs"), []byte("x"), 0o600))
	require.Eventually(t, func() bool {
		s := log.snapshot()
		return len(s) == 2 && s[1] == TriggerChange
	}, 3*time.Second, 20*time.Millisecond)
}

func TestDaemon_OwnWritesDoNotRetrigger(t *testing.T) {
	root := t.TempDir()
	tracePath := filepath.Join(root, "trace.log")
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("a"), 0o600))

	d, err := New(Config{
		Roots:      []string{root},
		IgnoreRoot: root,
		Exclude:    []string{tracePath, outDir},
		Debounce:   20 * time.Millisecond,
	}, func(_ context.Context, reason string) error {
		f, err := os.OpenFile(tracePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		_, _ = f.WriteString("Tree: " + reason + "\n")
		_ = f.Close()
		if err := os.MkdirAll(outDir, 0o750); err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(outDir, "a.js"), []byte(reason), 0o600)
	})
	require.NoError(t, err)

	stop := runDaemon(t, d)
	defer stop()
	require.Eventually(t, func() bool { return d.Passes() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.js"), []byte("b"), 0o600))
	require.Eventually(t, func() bool { return d.Passes() == 2 }, 3*time.Second, 10*time.Millisecond)

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int64(2), d.Passes())
	assert.Equal(t, int64(0), d.Failures())
}

func TestDaemon_ServesMetrics(t *testing.T) {
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	d, err := New(Config{MetricsAddr: "127.0.0.1:0", Registry: reg}, func(context.Context, string) error {
		rec.IncBuildOutcome(metrics.OutcomeSuccess)
		return nil
	})
	require.NoError(t, err)

	// The daemon binds its own listener, so probe the server directly.
	ms, err := NewMetricsServer("127.0.0.1:0", prom.NewRegistry())
	require.NoError(t, err)
	go func() { _ = ms.Serve() }()
	defer func() { _ = ms.Shutdown(context.Background()) }()

	resp, err := http.Get("http://" + ms.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	stop := runDaemon(t, d)
	require.Eventually(t, func() bool { return d.Passes() == 1 }, 2*time.Second, 10*time.Millisecond)
	stop()
}
