package main

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alias1177/ForceGold/internal/api/csvfile"
	"github.com/Alias1177/ForceGold/models"
)

func writeSeries(t *testing.T, dir string, s models.PriceSeries) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, csvfile.Write(&buf, s))
	require.NoError(t, os.WriteFile(filepath.Join(dir, csvfile.FileName(s.Symbol)), buf.Bytes(), 0o600))
}

func fixtureDir(t *testing.T) string {
	dir := t.TempDir()
	end := time.Now().UTC().Truncate(24 * time.Hour)
	first := end.AddDate(0, 0, -3)

	series := map[string]func(i int) float64{
		"XAU_USD": func(i int) float64 { return 2000 * (1 + 0.01*math.Sin(float64(i)/7)) },
		"UUP":     func(i int) float64 { return 56000 / (2000 * (1 + 0.01*math.Sin(float64(i)/7))) },
		"EUR/USD": func(i int) float64 { return 1.08 + 0.002*math.Cos(float64(i)/5) },
		"USD/JPY": func(i int) float64 { return 150 + 0.5*math.Sin(float64(i)/3) },
	}
	for name, price := range series {
		symbol := name
		if name == "XAU_USD" {
			symbol = "XAU/USD"
		}
		s := models.PriceSeries{Symbol: symbol}
		for i := 0; i < 400; i++ {
			s.Points = append(s.Points, models.Point{Time: first.Add(time.Duration(i) * 5 * time.Minute), Price: price(i)})
		}
		writeSeries(t, dir, s)
	}
	return dir
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(context.Background())
	root.SetOut(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCorrelationCommand(t *testing.T) {
	t.Setenv("CSV_DIR", fixtureDir(t))

	out, err := run(t, "correlation", "--provider", "csv", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "XAU/USD vs UUP: -1.0000")
	assert.Contains(t, out, "STRONG_NEGATIVE")
}

func TestStrengthCommand(t *testing.T) {
	t.Setenv("CSV_DIR", fixtureDir(t))

	out, err := run(t, "strength", "--provider", "csv", "--pairs", "EUR/USD,USD/JPY", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "XAU/USD STRENGTH INDEX")
	assert.Contains(t, out, "XAU/USD, XAU/EUR, XAU/JPY")
}

func TestCommand_Errors(t *testing.T) {
	t.Setenv("CSV_DIR", t.TempDir())

	_, err := run(t, "correlation", "--provider", "csv", "--log-level", "error")
	assert.Error(t, err)

	_, err = run(t, "correlation", "--provider", "bloomberg")
	assert.Error(t, err)

	t.Setenv("DB_HOST", "")
	_, err = run(t, "history", "--log-level", "error")
	assert.ErrorContains(t, err, "DB_HOST")
}

func TestClearCacheCommand(t *testing.T) {
	mr := miniredis.RunT(t)
	require.NoError(t, mr.Set("forcegold:series:twelvedata:XAU/USD:300:0:0:0", "{}"))
	require.NoError(t, mr.Set("forcegold:series:massive:C:UUP:300:0:0:0", "{}"))
	require.NoError(t, mr.Set("sessions:1", "keep"))
	t.Setenv("REDIS_ADDR", mr.Addr())

	out, err := run(t, "clear-cache", "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 cached series")
	assert.True(t, mr.Exists("sessions:1"))
	assert.False(t, mr.Exists("forcegold:series:massive:C:UUP:300:0:0:0"))

	t.Setenv("REDIS_ADDR", "")
	_, err = run(t, "clear-cache", "--log-level", "error")
	assert.ErrorContains(t, err, "REDIS_ADDR")
}
