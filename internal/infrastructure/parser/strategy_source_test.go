package parser

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/domain"
	"NewsAggregator/internal/scanner"
)

type funcScanner struct {
	name string
	scan func(ctx context.Context, req scanner.Request) ([]domain.Article, error)
}

func (f funcScanner) Name() string { return f.name }

func (f funcScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
	return f.scan(ctx, req)
}

func fixed(name string, delay time.Duration, titles ...string) funcScanner {
	return funcScanner{name: name, scan: func(ctx context.Context, req scanner.Request) ([]domain.Article, error) {
		time.Sleep(delay)
		out := make([]domain.Article, 0, len(titles))
		for _, title := range titles {
			out = append(out, domain.Article{Title: title, Link: "https://x/" + title})
		}
		return out, nil
	}}
}

func site(name, scannerName string, limit int) config.SourceConfig {
	return config.SourceConfig{Name: name, Scanner: scannerName, BaseURL: "https://" + name, FetchLimit: limit}
}

func TestFetchAllIsolatesFailingSources(t *testing.T) {
	t.Parallel()

	reg := scanner.NewRegistry(
		// finishes last but comes first in configuration
		fixed("slow", 50*time.Millisecond, "a1", "a2"),
		funcScanner{name: "broken", scan: func(context.Context, scanner.Request) ([]domain.Article, error) {
			return nil, errors.New("connection reset")
		}},
		funcScanner{name: "panics", scan: func(context.Context, scanner.Request) ([]domain.Article, error) {
			panic("nil selection")
		}},
		funcScanner{name: "hangs", scan: func(ctx context.Context, _ scanner.Request) ([]domain.Article, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}},
		fixed("fast", 0, "b1", "b2", "b3"),
	)

	src := NewStrategySource(reg, []config.SourceConfig{
		site("A", "slow", 10),
		site("Broken", "broken", 10),
		site("Panics", "panics", 10),
		site("Hangs", "hangs", 10),
		site("B", "fast", 2),
		site("Unknown", "missing", 10),
	}, SourceOptions{Workers: 3, Timeout: 100 * time.Millisecond}, nil)

	res, err := src.FetchAll(context.Background())
	require.NoError(t, err)

	var got []string
	for _, a := range res.Articles {
		got = append(got, a.Source+":"+a.Title)
	}
	assert.Equal(t, "A:a1,A:a2,B:b1,B:b2", strings.Join(got, ","))

	require.Len(t, res.Failures, 4, "%+v", res.Failures)
	for i, name := range []string{"Broken", "Panics", "Hangs", "Unknown"} {
		assert.Equal(t, name, res.Failures[i].Source, "failure %d", i)
	}
	assert.Contains(t, res.Failures[1].Error, "panicked")
	assert.Contains(t, res.Failures[2].Error, "deadline")
	assert.Contains(t, res.Failures[3].Error, scanner.ErrUnknownScanner.Error())
}

func TestFetchAllPassesRequest(t *testing.T) {
	t.Parallel()

	var got scanner.Request
	reg := scanner.NewRegistry(funcScanner{name: "recorder", scan: func(_ context.Context, req scanner.Request) ([]domain.Article, error) {
		got = req
		return nil, nil
	}})

	cfg := site("Recorder", "recorder", 7)
	cfg.Options = map[string]string{"url": "https://recorder/front"}

	res, err := NewStrategySource(reg, []config.SourceConfig{cfg}, SourceOptions{}, nil).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, res.Articles)
	assert.Empty(t, res.Failures)

	assert.Equal(t, "Recorder", got.SiteName)
	assert.Equal(t, "https://Recorder", got.BaseURL)
	assert.Equal(t, 7, got.Limit)
	assert.Equal(t, "https://recorder/front", got.Options["url"])
}

func TestFetchAllWithoutRegistry(t *testing.T) {
	t.Parallel()

	_, err := NewStrategySource(nil, nil, SourceOptions{}, nil).FetchAll(context.Background())
	assert.Error(t, err)
}
