package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"chartjobs/internal/eventbus"
	logx "chartjobs/pkg/logx"
)

func TestOpenDisabled(t *testing.T) {
	t.Parallel()
	for _, driver := range []string{"", "none", " NONE "} {
		st, err := Open(Config{Driver: driver}, logx.Nop())
		if err != nil || st != nil {
			t.Fatalf("Open(%q) = %v, %v; want nil, nil", driver, st, err)
		}
	}
	if _, err := Open(Config{Driver: "mongo"}, logx.Nop()); err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if _, err := Open(Config{Driver: "redis", Path: "http://not-redis"}, logx.Nop()); err == nil {
		t.Fatal("expected error for bad redis url")
	}
	if _, err := Open(Config{Driver: "file"}, logx.Nop()); err == nil {
		t.Fatal("expected error for missing path")
	}
}

func TestStoresRoundTrip(t *testing.T) {
	t.Parallel()
	drivers := []struct {
		name string
		cfg  func(t *testing.T) Config
	}{
		{"file", func(t *testing.T) Config {
			return Config{Driver: "file", Path: filepath.Join(t.TempDir(), "history.db")}
		}},
		{"sqlite", func(t *testing.T) Config {
			return Config{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "history.db"), BusyTimeout: time.Second}
		}},
		{"redis", func(t *testing.T) Config {
			srv := miniredis.RunT(t)
			return Config{Driver: "redis", Path: "redis://" + srv.Addr() + "/0", BusyTimeout: time.Second}
		}},
	}
	for _, d := range drivers {
		t.Run(d.name, func(t *testing.T) {
			t.Parallel()
			st, err := Open(d.cfg(t), logx.Nop())
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer st.Close()

			ctx := context.Background()
			base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
			for i := 0; i < 5; i++ {
				rec := CompletionRecord{At: base.Add(time.Duration(i) * time.Second), JobID: i, Job: "render", Pass: 1 + i%2, DurationMS: int64(i), Format: "png", Bytes: 10 * i, Points: i}
				if i == 3 {
					rec.Error = "boom"
					rec.Format = ""
				}
				if err := st.AppendCompletion(ctx, rec); err != nil {
					t.Fatalf("AppendCompletion: %v", err)
				}
			}

			got, err := st.Recent(ctx, 3)
			if err != nil {
				t.Fatalf("Recent: %v", err)
			}
			if len(got) != 3 {
				t.Fatalf("len = %d, want 3", len(got))
			}
			for i, want := range []int{4, 3, 2} {
				if got[i].JobID != want {
					t.Fatalf("Recent[%d].JobID = %d, want %d", i, got[i].JobID, want)
				}
			}
			if got[1].OK() || got[1].Error != "boom" || got[1].Format != "" {
				t.Fatalf("failed record = %+v", got[1])
			}
			if !got[0].At.Equal(base.Add(4*time.Second)) || got[0].Bytes != 40 {
				t.Fatalf("newest record = %+v", got[0])
			}

			all, err := st.Recent(ctx, 100)
			if err != nil || len(all) != 5 {
				t.Fatalf("Recent(100) = %d records, err %v", len(all), err)
			}
		})
	}
}

func TestRecorderPersistsEvents(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	reg := eventbus.NewRegistry(logx.Nop())
	reg.Register(NewRecorder(st, logx.Nop()))

	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	reg.Publish(eventbus.CompletionEvent{
		Source:   eventbus.Source{JobID: 9, Name: "render.9"},
		Pass:     2,
		Started:  started,
		Finished: started.Add(1500 * time.Millisecond),
		Err:      errors.New("render failed"),
	})

	got, err := st.Recent(context.Background(), 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("Recent = %v, %v", got, err)
	}
	r := got[0]
	if r.JobID != 9 || r.Job != "render.9" || r.Pass != 2 || r.DurationMS != 1500 || r.Error != "render failed" {
		t.Fatalf("record = %+v", r)
	}
}

func TestRecorderWithoutStoreFails(t *testing.T) {
	t.Parallel()
	if err := NewRecorder(nil, logx.Nop()).OnComplete(eventbus.CompletionEvent{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("err = %v, want ErrDisabled", err)
	}
}

func TestRedisStoreSkipsBadEntries(t *testing.T) {
	t.Parallel()
	srv := miniredis.RunT(t)
	st, err := Open(Config{Driver: "redis", Path: "redis://" + srv.Addr()}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.AppendCompletion(ctx, CompletionRecord{JobID: 1, Job: "render"}); err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Lpush(redisKey, "not json"); err != nil {
		t.Fatal(err)
	}
	got, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].JobID != 1 || got[0].At.IsZero() {
		t.Fatalf("Recent = %+v", got)
	}

	srv.Close()
	if err := st.AppendCompletion(ctx, CompletionRecord{JobID: 2}); err == nil {
		t.Fatal("expected error with server down")
	}
}

func TestRecorderTracesRecords(t *testing.T) {
	t.Parallel()
	st, err := Open(Config{Driver: "file", Path: filepath.Join(t.TempDir(), "h")}, logx.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	var buf bytes.Buffer
	rec := NewRecorder(st, logx.NewJSON(&buf, "trace"))
	started := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := rec.OnComplete(eventbus.CompletionEvent{
		Source:   eventbus.Source{JobID: 4, Name: "render.4"},
		Pass:     1,
		Started:  started,
		Finished: started.Add(250 * time.Millisecond),
	}); err != nil {
		t.Fatal(err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if line["level"] != "trace" || line["duration_ms"] != float64(250) || line["job_id"] != float64(4) {
		t.Fatalf("trace line = %v", line)
	}
	if _, ok := line["at"]; !ok {
		t.Fatalf("missing at: %v", line)
	}
}
