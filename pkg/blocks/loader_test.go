package blocks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/usage-meter/pkg/discovery"
	"github.com/0xmhha/usage-meter/pkg/logger"
	"github.com/0xmhha/usage-meter/pkg/parser"
)

type stubDiscoverer struct {
	files []discovery.SessionFile
	err   error
}

func (s *stubDiscoverer) Discover() ([]discovery.SessionFile, error) {
	return s.files, s.err
}

func (s *stubDiscoverer) DiscoverProject(string) ([]discovery.SessionFile, error) {
	return s.files, s.err
}

// stubReader hands out the queued entries for a path once, mimicking the
// incremental position tracking of the real reader.
type stubReader struct {
	pending map[string][]parser.UsageEntry
	errs    map[string]error
	reads   int
}

func (s *stubReader) Read(_ context.Context, path string) ([]parser.UsageEntry, error) {
	s.reads++
	if err := s.errs[path]; err != nil {
		return nil, err
	}
	entries := s.pending[path]
	delete(s.pending, path)
	return entries, nil
}

func (s *stubReader) ReadFrom(_ context.Context, path string, offset int64) ([]parser.UsageEntry, int64, error) {
	return nil, offset, nil
}

func (s *stubReader) Reset(string) error { return nil }
func (s *stubReader) Close() error       { return nil }

func TestNewLoader_Validation(t *testing.T) {
	t.Parallel()

	log := logger.Noop()

	_, err := NewLoader(LoaderConfig{Reader: &stubReader{}}, log)
	assert.ErrorIs(t, err, ErrNoDiscoverer)

	_, err = NewLoader(LoaderConfig{Discoverer: &stubDiscoverer{}}, log)
	assert.ErrorIs(t, err, ErrNoReader)
}

func TestLoader_LoadSessionBlocks(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	now := base.Add(time.Hour)

	disc := &stubDiscoverer{files: []discovery.SessionFile{
		{SessionID: "s1", FilePath: "/tmp/s1.jsonl"},
	}}
	rdr := &stubReader{pending: map[string][]parser.UsageEntry{
		"/tmp/s1.jsonl": {
			makeEntry(base, "claude-3-5-sonnet-20241022", 100, 50, 0, 0),
		},
	}}

	loader, err := NewLoader(LoaderConfig{
		Discoverer: disc,
		Reader:     rdr,
		CostMode:   CostModeCalculate,
		Now:        func() time.Time { return now },
	}, logger.Noop())
	require.NoError(t, err)

	result, err := loader.LoadSessionBlocks(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 150, result[0].TokenCounts.Total())

	// A second load finds no new entries but still returns the
	// accumulated set.
	result, err = loader.LoadSessionBlocks(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 150, result[0].TokenCounts.Total())
	assert.Equal(t, 2, rdr.reads)
}

func TestLoader_SkipsUnreadableFiles(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	disc := &stubDiscoverer{files: []discovery.SessionFile{
		{SessionID: "ok", FilePath: "/tmp/ok.jsonl"},
		{SessionID: "bad", FilePath: "/tmp/bad.jsonl"},
	}}
	rdr := &stubReader{
		pending: map[string][]parser.UsageEntry{
			"/tmp/ok.jsonl": {makeEntry(base, "claude-3-5-sonnet-20241022", 100, 0, 0, 0)},
		},
		errs: map[string]error{
			"/tmp/bad.jsonl": errors.New("permission denied"),
		},
	}

	loader, err := NewLoader(LoaderConfig{
		Discoverer: disc,
		Reader:     rdr,
		Now:        func() time.Time { return base.Add(time.Minute) },
	}, logger.Noop())
	require.NoError(t, err)

	result, err := loader.LoadSessionBlocks(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 100, result[0].TokenCounts.Total())
}

func TestLoader_DiscoveryFailure(t *testing.T) {
	t.Parallel()

	loader, err := NewLoader(LoaderConfig{
		Discoverer: &stubDiscoverer{err: errors.New("no dirs")},
		Reader:     &stubReader{},
	}, logger.Noop())
	require.NoError(t, err)

	_, err = loader.LoadSessionBlocks(context.Background(), 5)
	assert.Error(t, err)
}

func TestLoader_LoadDailyAggregates(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	disc := &stubDiscoverer{files: []discovery.SessionFile{
		{SessionID: "s1", FilePath: "/tmp/s1.jsonl"},
	}}
	rdr := &stubReader{pending: map[string][]parser.UsageEntry{
		"/tmp/s1.jsonl": {
			makeEntry(base, "claude-3-5-sonnet-20241022", 100, 0, 0, 0),
			makeEntry(base.Add(time.Hour), "claude-3-5-sonnet-20241022", 200, 0, 0, 0),
		},
	}}

	loader, err := NewLoader(LoaderConfig{Discoverer: disc, Reader: rdr, Location: time.UTC}, logger.Noop())
	require.NoError(t, err)

	daily, err := loader.LoadDailyAggregates(context.Background())
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, "2025-06-01", daily[0].Date)
	assert.Equal(t, 300, daily[0].TotalTokens)
}
