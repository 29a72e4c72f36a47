package source_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/contestboard/internal/adapters/source"
	"github.com/okian/contestboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const sampleCSV = "STAFF NAME,Contest Total NET\nANU,\"1,000\"\nBINU,500\n"

func TestHTTPFetcher(t *testing.T) {
	Convey("Given a source server", t, func() {
		ctx := context.Background()

		Convey("When it answers 200", func() {
			methods := make(chan string, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				methods <- r.Method
				_, _ = w.Write([]byte(sampleCSV))
			}))
			defer srv.Close()

			text, err := source.NewHTTPFetcher().Fetch(ctx, srv.URL)

			Convey("Then the body is returned as text", func() {
				So(err, ShouldBeNil)
				So(<-methods, ShouldEqual, http.MethodGet)
				So(text, ShouldEqual, sampleCSV)
			})
		})

		Convey("When it answers with an error status", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			_, err := source.NewHTTPFetcher().Fetch(ctx, srv.URL)

			Convey("Then the failure is reported", func() {
				So(errors.Is(err, source.ErrUnexpectedStatus), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "503")
			})
		})

		Convey("When the body is larger than allowed", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			}))
			defer srv.Close()

			_, err := source.NewHTTPFetcher(source.WithMaxBodyBytes(16)).Fetch(ctx, srv.URL)

			Convey("Then ErrBodyTooLarge is returned", func() {
				So(errors.Is(err, source.ErrBodyTooLarge), ShouldBeTrue)
			})
		})

		Convey("When the server is slower than the timeout", func() {
			release := make(chan struct{})
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-release:
				case <-r.Context().Done():
				}
			}))
			defer srv.Close()
			defer close(release)

			_, err := source.NewHTTPFetcher(source.WithTimeout(20*time.Millisecond)).Fetch(ctx, srv.URL)

			Convey("Then the fetch fails", func() {
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
			})
		})

		Convey("When the URL is unreachable", func() {
			_, err := source.NewHTTPFetcher().Fetch(ctx, "http://127.0.0.1:1/sheet.csv")

			Convey("Then ErrFetch is returned", func() {
				So(errors.Is(err, source.ErrFetch), ShouldBeTrue)
			})
		})
	})
}

// fakeFetcher counts calls and returns scripted results.
type fakeFetcher struct {
	calls   atomic.Int64
	delay   time.Duration
	mu      sync.Mutex
	results []error
	text    string
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	n := f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(n) <= len(f.results) && f.results[n-1] != nil {
		return "", f.results[n-1]
	}
	return f.text, nil
}

func TestCache_GetOrFetch(t *testing.T) {
	Convey("Given a cache over a fake fetcher", t, func() {
		ctx := context.Background()
		url := "https://example.test/sheet.csv"

		Convey("When the document is requested twice", func() {
			f := &fakeFetcher{text: sampleCSV}
			c := source.NewCache(f)

			first, err1 := c.GetOrFetch(ctx, url)
			second, err2 := c.GetOrFetch(ctx, url)

			Convey("Then it is fetched and parsed once", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(f.calls.Load(), ShouldEqual, 1)
				So(first.ID, ShouldNotBeEmpty)
				So(second.ID, ShouldEqual, first.ID)
				So(len(first.Table.Records), ShouldEqual, 2)
				So(first.Table.Records[0]["Contest Total NET"], ShouldEqual, "1,000")
			})
		})

		Convey("When many callers ask at the same time", func() {
			f := &fakeFetcher{text: sampleCSV, delay: 50 * time.Millisecond}
			c := source.NewCache(f)

			var wg sync.WaitGroup
			ids := make([]string, 10)
			errs := make([]error, 10)
			for i := range ids {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					doc, err := c.GetOrFetch(ctx, url)
					ids[i], errs[i] = doc.ID, err
				}(i)
			}
			wg.Wait()

			Convey("Then they share one fetch and observe one result", func() {
				So(f.calls.Load(), ShouldEqual, 1)
				for i := range ids {
					So(errs[i], ShouldBeNil)
					So(ids[i], ShouldEqual, ids[0])
				}
			})
		})

		Convey("When the first fetch fails", func() {
			boom := errors.New("boom")
			f := &fakeFetcher{text: sampleCSV, results: []error{boom}}
			c := source.NewCache(f)

			_, err := c.GetOrFetch(ctx, url)
			doc, retryErr := c.GetOrFetch(ctx, url)

			Convey("Then the error propagates and the next call retries", func() {
				So(errors.Is(err, boom), ShouldBeTrue)
				So(retryErr, ShouldBeNil)
				So(len(doc.Table.Records), ShouldEqual, 2)
				So(f.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When a document is invalidated", func() {
			f := &fakeFetcher{text: sampleCSV}
			c := source.NewCache(f)
			first, _ := c.GetOrFetch(ctx, url)
			c.Invalidate(url)
			_, cached := c.Peek(url)
			second, err := c.GetOrFetch(ctx, url)

			Convey("Then the next call fetches a new snapshot", func() {
				So(cached, ShouldBeFalse)
				So(err, ShouldBeNil)
				So(f.calls.Load(), ShouldEqual, 2)
				So(second.ID, ShouldNotEqual, first.ID)
			})
		})

		Convey("When a slow fetch finishes after an invalidation", func() {
			f := newGatedFetcher("A\nold\n", "A\nnew\n", nil)
			c := source.NewCache(f)

			done := make(chan struct{})
			go func() {
				defer close(done)
				_, _ = c.GetOrFetch(ctx, url)
			}()
			<-f.started
			c.Invalidate(url)
			fresh, err := c.GetOrFetch(ctx, url)
			close(f.release)
			<-done
			after, afterErr := c.GetOrFetch(ctx, url)

			Convey("Then the newer document is kept", func() {
				So(err, ShouldBeNil)
				So(fresh.Table.Records[0]["A"], ShouldEqual, "new")
				So(afterErr, ShouldBeNil)
				So(after.ID, ShouldEqual, fresh.ID)
				So(after.Table.Records[0]["A"], ShouldEqual, "new")
				So(f.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When a slow fetch fails after an invalidation", func() {
			f := newGatedFetcher("", "A\nnew\n", errors.New("boom"))
			c := source.NewCache(f)

			done := make(chan struct{})
			go func() {
				defer close(done)
				_, _ = c.GetOrFetch(ctx, url)
			}()
			<-f.started
			c.Invalidate(url)
			fresh, _ := c.GetOrFetch(ctx, url)
			close(f.release)
			<-done
			kept, ok := c.Peek(url)

			Convey("Then the newer document is not dropped", func() {
				So(ok, ShouldBeTrue)
				So(kept.ID, ShouldEqual, fresh.ID)
				So(f.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the TTL has elapsed", func() {
			now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
			clock := func() time.Time { return now }
			f := &fakeFetcher{text: sampleCSV}
			c := source.NewCache(f, source.WithTTL(time.Minute), source.WithClock(clock))

			_, _ = c.GetOrFetch(ctx, url)
			now = now.Add(30 * time.Second)
			_, _ = c.GetOrFetch(ctx, url)
			callsBeforeExpiry := f.calls.Load()
			now = now.Add(time.Minute)
			_, _ = c.GetOrFetch(ctx, url)

			Convey("Then the document is refetched only after expiry", func() {
				So(callsBeforeExpiry, ShouldEqual, 1)
				So(f.calls.Load(), ShouldEqual, 2)
			})
		})

		Convey("When the caller's context is already cancelled", func() {
			f := &fakeFetcher{text: sampleCSV, delay: 20 * time.Millisecond}
			c := source.NewCache(f)
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			_, err := c.GetOrFetch(cctx, url)

			Convey("Then the caller stops waiting", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})
	})
}

// gatedFetcher blocks its first call until release is closed and answers it
// with first (or firstErr). Later calls return later immediately.
type gatedFetcher struct {
	calls    atomic.Int64
	started  chan struct{}
	release  chan struct{}
	first    string
	firstErr error
	later    string
}

func newGatedFetcher(first, later string, firstErr error) *gatedFetcher {
	return &gatedFetcher{
		started:  make(chan struct{}),
		release:  make(chan struct{}),
		first:    first,
		firstErr: firstErr,
		later:    later,
	}
}

func (f *gatedFetcher) Fetch(_ context.Context, _ string) (string, error) {
	if f.calls.Add(1) > 1 {
		return f.later, nil
	}
	close(f.started)
	<-f.release
	return f.first, f.firstErr
}
