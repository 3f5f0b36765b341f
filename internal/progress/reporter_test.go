package progress_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"sieve/internal/progress"
)

func TestFuncReporter(t *testing.T) {
	var got []string
	r := progress.Func(func(i, total int, label string) {
		got = append(got, label)
	})
	r.Step(0, 2, "a")
	r.Step(1, 2, "b")
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestOrNop(t *testing.T) {
	assert.Equal(t, progress.Nop, progress.OrNop(nil))
	progress.OrNop(nil).Step(1, 1, "ignored")
}

func TestLogReporterSamples(t *testing.T) {
	var buf bytes.Buffer
	r := progress.NewLogReporter(slog.New(slog.NewTextHandler(&buf, nil)))

	for i := 0; i <= 100; i++ {
		r.Step(i, 100, "comparing")
	}
	lines := strings.Count(buf.String(), "\n")
	assert.Equal(t, 11, lines, "one line per 10%% bucket")
}

func TestBarWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	bar := progress.NewBar(&buf)
	bar.Step(1, 4, "loading")
	bar.Step(4, 4, "loading")
	bar.Finish()
	assert.NotEmpty(t, buf.String())
}
