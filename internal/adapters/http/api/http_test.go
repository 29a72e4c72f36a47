package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/contestboard/internal/adapters/export"
	"github.com/okian/contestboard/internal/adapters/http/api"
	service "github.com/okian/contestboard/internal/app"
	"github.com/okian/contestboard/internal/domain/model"
	"github.com/okian/contestboard/internal/domain/types"
	"github.com/okian/contestboard/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies implements api.Dependencies with canned answers.
type mockDependencies struct {
	entries []types.Entry
	report  types.Report
	err     error

	gotContest model.ContestType
	gotLimit   int
	gotFilter  types.Filter
	gotName    string
	gotCompany string
	gotQuery   string
}

func (m *mockDependencies) Leaderboard(_ context.Context, c model.ContestType, limit int) ([]types.Entry, error) {
	m.gotContest, m.gotLimit = c, limit
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.entries) {
		return m.entries[:limit], nil
	}
	return m.entries, nil
}

func (m *mockDependencies) Report(_ context.Context, c model.ContestType) ([]types.Entry, error) {
	m.gotContest = c
	if m.err != nil {
		return nil, m.err
	}
	return m.entries[:1], nil
}

func (m *mockDependencies) Overall(_ context.Context, f types.Filter, limit int) ([]types.Entry, error) {
	m.gotFilter, m.gotLimit = f, limit
	return m.entries, m.err
}

func (m *mockDependencies) Employee(_ context.Context, name, company string) (types.Report, error) {
	m.gotName, m.gotCompany = name, company
	if m.err != nil {
		return types.Report{}, m.err
	}
	return m.report, nil
}

func (m *mockDependencies) Companies(context.Context) ([]types.Company, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []types.Company{{Name: "Kerala Gramin Bank", Short: "KGB"}}, nil
}

func (m *mockDependencies) Suggest(_ context.Context, q, company string, limit int) ([]string, error) {
	m.gotQuery, m.gotCompany, m.gotLimit = q, company, limit
	return []string{"ANU", "ANITA"}, m.err
}

func (m *mockDependencies) Refresh(context.Context) (types.Snapshot, error) {
	if m.err != nil {
		return types.Snapshot{}, m.err
	}
	return types.Snapshot{ID: "snap-1", Records: 3, FetchedAt: time.Unix(0, 0).UTC()}, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func sampleEntries() []types.Entry {
	return []types.Entry{
		{Rank: 1, StaffName: "ANU", Company: "Kerala Gramin Bank", Display: types.Display{Percentage: "200.00%"}},
		{Rank: 2, StaffName: "BINU", Company: "Kerala Gramin Bank", Display: types.Display{Percentage: "150.00%"}},
		{Rank: 3, StaffName: "FAIZ", Company: "KGLS", Display: types.Display{Percentage: "90.00%"}},
	}
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]any{"records": 3}}, api.WithMaxLimit(100))
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func serve(mux *http.ServeMux, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	So(json.NewDecoder(w.Body).Decode(&body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{entries: sampleEntries()}
		mux := newMux(deps)

		routes := []struct {
			method, target string
		}{
			{http.MethodGet, "/healthz"},
			{http.MethodGet, "/metrics"},
			{http.MethodGet, "/stats"},
			{http.MethodGet, "/leaderboard?contest=domestic"},
			{http.MethodGet, "/report?contest=international"},
			{http.MethodGet, "/overall"},
			{http.MethodGet, "/employees/ANU"},
			{http.MethodGet, "/companies"},
			{http.MethodGet, "/suggest?q=an"},
			{http.MethodPost, "/refresh"},
			{http.MethodGet, "/export.xlsx?contest=domestic"},
		}
		for _, rt := range routes {
			Convey(fmt.Sprintf("When calling %s %s", rt.method, rt.target), func() {
				w := serve(mux, rt.method, rt.target)

				Convey("Then it answers 200 with a request id", func() {
					So(w.Code, ShouldEqual, http.StatusOK)
					So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
				})
			})
		}

		Convey("When an unknown path is requested", func() {
			w := serve(mux, http.MethodGet, "/unknown")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When a route is called with the wrong method", func() {
			w := serve(mux, http.MethodGet, "/refresh")

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	Convey("Given a handler behind the request id middleware", t, func() {
		var seen string
		h := api.RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			seen = logger.RequestID(r.Context())
		}))

		Convey("When the caller supplies an id", func() {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Convey("Then it is echoed and placed in the context", func() {
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
				So(seen, ShouldEqual, "abc-123")
			})
		})

		Convey("When no id is supplied", func() {
			w := httptest.NewRecorder()
			h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			Convey("Then a fresh one is generated", func() {
				So(seen, ShouldNotBeEmpty)
				So(w.Header().Get(api.RequestIDHeader), ShouldEqual, seen)
			})
		})
	})
}

func TestLeaderboardHandler(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := &mockDependencies{entries: sampleEntries()}
		handler := api.NewLeaderboardHandler(deps, 100)

		get := func(target string, fn http.HandlerFunc) *httptest.ResponseRecorder {
			w := httptest.NewRecorder()
			fn(w, httptest.NewRequest(http.MethodGet, target, nil))
			return w
		}

		Convey("When requesting a contest with a limit", func() {
			w := get("/leaderboard?contest=domestic&limit=2", handler.HandleGetLeaderboard)

			Convey("Then the standings are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")
				var got []types.Entry
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].StaffName, ShouldEqual, "ANU")
				So(got[1].Display.Percentage, ShouldEqual, "150.00%")
				So(deps.gotContest, ShouldEqual, model.Domestic)
				So(deps.gotLimit, ShouldEqual, 2)
			})
		})

		Convey("When no limit is given", func() {
			w := get("/leaderboard?contest=foreign", handler.HandleGetLeaderboard)

			Convey("Then the service default applies", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotLimit, ShouldEqual, 0)
				So(deps.gotContest, ShouldEqual, model.International)
			})
		})

		Convey("When the contest is missing", func() {
			w := get("/leaderboard", handler.HandleGetLeaderboard)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When the contest is unknown", func() {
			w := get("/leaderboard?contest=galactic", handler.HandleGetLeaderboard)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit is not a positive integer", func() {
			for _, limit := range []string{"0", "-1", "ten"} {
				w := get("/leaderboard?contest=domestic&limit="+limit, handler.HandleGetLeaderboard)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("When the limit exceeds the maximum", func() {
			w := get("/leaderboard?contest=domestic&limit=101", handler.HandleGetLeaderboard)

			Convey("Then limit_exceeded is reported", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the report view is requested", func() {
			w := get("/report?contest=international", handler.HandleGetReport)

			Convey("Then the report entries are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []types.Entry
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(len(got), ShouldEqual, 1)
			})
		})

		Convey("When the method is not GET", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodPost, "/leaderboard?contest=domestic", nil))

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestErrorClassification(t *testing.T) {
	Convey("Given service failures", t, func() {
		cases := []struct {
			err    error
			status int
			code   string
		}{
			{fmt.Errorf("%w: boom", service.ErrSourceUnavailable), http.StatusBadGateway, "source_unavailable"},
			{fmt.Errorf("%w: missing", service.ErrSchema), http.StatusInternalServerError, "schema_error"},
			{service.ErrNotConfigured, http.StatusInternalServerError, "not_configured"},
			{context.DeadlineExceeded, http.StatusGatewayTimeout, "timeout"},
			{errors.New("unexpected"), http.StatusInternalServerError, "internal_error"},
		}
		for _, tc := range cases {
			Convey(fmt.Sprintf("When the service fails with %v", tc.err), func() {
				mux := newMux(&mockDependencies{entries: sampleEntries(), err: tc.err})
				w := serve(mux, http.MethodGet, "/leaderboard?contest=domestic")

				Convey("Then it maps to the matching status and code", func() {
					So(w.Code, ShouldEqual, tc.status)
					So(decodeError(w).Code, ShouldEqual, tc.code)
				})
			})
		}
	})
}

func TestOverallHandler(t *testing.T) {
	Convey("Given an overall handler", t, func() {
		deps := &mockDependencies{entries: sampleEntries()}
		handler := api.NewOverallHandler(deps, 100)

		Convey("When filtering by company and name", func() {
			w := httptest.NewRecorder()
			handler.HandleGetOverall(w, httptest.NewRequest(http.MethodGet, "/overall?company=KGLS&q=fa&limit=5", nil))

			Convey("Then the filter reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotFilter, ShouldResemble, types.Filter{Company: "KGLS", Search: "fa"})
				So(deps.gotLimit, ShouldEqual, 5)
			})
		})
	})
}

func TestEmployeeHandler(t *testing.T) {
	Convey("Given an employee handler", t, func() {
		deps := &mockDependencies{report: types.Report{StaffName: "ANU", OverallRank: 1, CompanyRank: 1}}
		handler := api.NewEmployeeHandler(deps)

		Convey("When requesting an existing employee", func() {
			w := httptest.NewRecorder()
			handler.HandleGetEmployee(w, httptest.NewRequest(http.MethodGet, "/employees/ANU?company=KGLS", nil))

			Convey("Then the personal report is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Report
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.StaffName, ShouldEqual, "ANU")
				So(got.OverallRank, ShouldEqual, 1)
				So(deps.gotName, ShouldEqual, "ANU")
				So(deps.gotCompany, ShouldEqual, "KGLS")
			})
		})

		Convey("When the name is percent-encoded", func() {
			w := httptest.NewRecorder()
			handler.HandleGetEmployee(w, httptest.NewRequest(http.MethodGet, "/employees/ANU%20K", nil))

			Convey("Then it is decoded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotName, ShouldEqual, "ANU K")
			})
		})

		Convey("When the name is empty", func() {
			w := httptest.NewRecorder()
			handler.HandleGetEmployee(w, httptest.NewRequest(http.MethodGet, "/employees/", nil))

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the employee does not exist", func() {
			deps.err = fmt.Errorf("%w: %q", service.ErrEmployeeNotFound, "NOBODY")
			w := httptest.NewRecorder()
			handler.HandleGetEmployee(w, httptest.NewRequest(http.MethodGet, "/employees/NOBODY", nil))

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w).Code, ShouldEqual, "not_found")
			})
		})
	})
}

func TestDirectoryHandler(t *testing.T) {
	Convey("Given a directory handler", t, func() {
		deps := &mockDependencies{}
		handler := api.NewDirectoryHandler(deps)

		Convey("When listing companies", func() {
			w := httptest.NewRecorder()
			handler.HandleGetCompanies(w, httptest.NewRequest(http.MethodGet, "/companies", nil))

			Convey("Then names and short names are returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got []types.Company
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got, ShouldResemble, []types.Company{{Name: "Kerala Gramin Bank", Short: "KGB"}})
			})
		})

		Convey("When asking for suggestions", func() {
			w := httptest.NewRecorder()
			handler.HandleGetSuggest(w, httptest.NewRequest(http.MethodGet, "/suggest?q=an&company=KGB&limit=3", nil))

			Convey("Then the query reaches the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.gotQuery, ShouldEqual, "an")
				So(deps.gotCompany, ShouldEqual, "KGB")
				So(deps.gotLimit, ShouldEqual, 3)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, `["ANU","ANITA"]`)
			})
		})
	})
}

func TestRefreshHandler(t *testing.T) {
	Convey("Given a refresh handler", t, func() {
		deps := &mockDependencies{}
		handler := api.NewRefreshHandler(deps)

		Convey("When posting a refresh", func() {
			w := httptest.NewRecorder()
			handler.HandlePostRefresh(w, httptest.NewRequest(http.MethodPost, "/refresh", nil))

			Convey("Then the new snapshot is described", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got types.Snapshot
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got.ID, ShouldEqual, "snap-1")
				So(got.Records, ShouldEqual, 3)
			})
		})

		Convey("When the source cannot be reached", func() {
			deps.err = fmt.Errorf("%w: 503", service.ErrSourceUnavailable)
			w := httptest.NewRecorder()
			handler.HandlePostRefresh(w, httptest.NewRequest(http.MethodPost, "/refresh", nil))

			Convey("Then it is a bad gateway", func() {
				So(w.Code, ShouldEqual, http.StatusBadGateway)
			})
		})
	})
}

func TestExportHandler(t *testing.T) {
	Convey("Given an export handler", t, func() {
		deps := &mockDependencies{entries: sampleEntries()}
		handler := api.NewExportHandler(deps, 100)

		Convey("When exporting a leaderboard", func() {
			w := httptest.NewRecorder()
			handler.HandleGetExport(w, httptest.NewRequest(http.MethodGet, "/export.xlsx?contest=domestic", nil))

			Convey("Then a workbook attachment is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, export.ContentType)
				So(w.Header().Get("Content-Disposition"), ShouldContainSubstring, export.Filename(model.Domestic))

				f, err := excelize.OpenReader(w.Body)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				rows, err := f.GetRows(export.SheetName(model.Domestic))
				So(err, ShouldBeNil)
				So(len(rows), ShouldEqual, 4)
				So(rows[1][1], ShouldEqual, "ANU")
			})
		})

		Convey("When exporting the report view", func() {
			w := httptest.NewRecorder()
			handler.HandleGetExport(w, httptest.NewRequest(http.MethodGet, "/export.xlsx?contest=domestic&view=report", nil))

			Convey("Then only report entries are written", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				f, err := excelize.OpenReader(w.Body)
				So(err, ShouldBeNil)
				defer func() { _ = f.Close() }()
				rows, _ := f.GetRows(export.SheetName(model.Domestic))
				So(len(rows), ShouldEqual, 2)
			})
		})

		Convey("When the report view is given a limit", func() {
			w := httptest.NewRecorder()
			handler.HandleGetExport(w, httptest.NewRequest(http.MethodGet, "/export.xlsx?contest=domestic&view=report&limit=5", nil))

			Convey("Then it is a bad request and nothing is ranked", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
				So(deps.gotContest, ShouldEqual, model.ContestType(""))
			})
		})

		Convey("When the contest is missing", func() {
			w := httptest.NewRecorder()
			handler.HandleGetExport(w, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given health and stats handlers", t, func() {
		Convey("When health is requested as JSON", func() {
			w := httptest.NewRecorder()
			api.NewHealthHandler().HandleHealth(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			Convey("Then the status is ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When health is requested as text", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set("Accept", "text/plain")
			w := httptest.NewRecorder()
			api.NewHealthHandler().HandleHealth(w, req)

			Convey("Then Prometheus metrics are served", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, "contest_leaderboard_")
			})
		})

		Convey("When stats are requested", func() {
			h := api.NewStatsHandler(&mockStatsProvider{stats: map[string]any{"records": 3, "started": true}})
			w := httptest.NewRecorder()
			h.HandleStats(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Convey("Then the provider's stats are encoded", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var got map[string]any
				So(json.NewDecoder(w.Body).Decode(&got), ShouldBeNil)
				So(got["records"], ShouldEqual, 3)
				So(got["started"], ShouldEqual, true)
			})
		})
	})
}

func TestError(t *testing.T) {
	Convey("Given API errors", t, func() {
		cause := errors.New("cause")

		Convey("Then kinds and causes are both matchable", func() {
			err := api.WrapKind("api.op", api.ErrBadRequest, cause)
			So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
			So(errors.Is(err, cause), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: bad request: cause")
		})

		Convey("Then Wrap keeps nil as nil", func() {
			So(api.Wrap("api.op", nil), ShouldBeNil)
		})

		Convey("Then NewKind has no cause", func() {
			err := api.NewKind("api.op", api.ErrLimitExceeded)
			So(errors.Is(err, api.ErrLimitExceeded), ShouldBeTrue)
			So(err.Error(), ShouldEqual, "api.op: limit exceeded")
		})
	})
}
