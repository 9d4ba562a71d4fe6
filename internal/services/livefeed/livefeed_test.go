package livefeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"MandiPulse/internal/domain/models"
	pkgcache "MandiPulse/pkg/cache"
	xhttp "MandiPulse/pkg/http"
)

var fetchDay = time.Date(2024, 10, 20, 9, 30, 0, 0, time.UTC)

type stubSource struct {
	name  string
	recs  []models.PriceRecord
	err   error
	calls atomic.Int32
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Fetch(context.Context, string) ([]models.PriceRecord, error) {
	s.calls.Add(1)
	return s.recs, s.err
}

type recordingPublisher struct {
	commodity, source string
	n                 int
}

func (p *recordingPublisher) PublishSnapshot(_ context.Context, commodity, source string, recs []models.PriceRecord) error {
	p.commodity, p.source, p.n = commodity, source, len(recs)
	return nil
}
func (p *recordingPublisher) Close() error { return nil }

func onionRecord() models.PriceRecord {
	return models.PriceRecord{Commodity: "onion", Market: "lasalgaon", PriceDate: fetchDay, ModalPrice: 2100, MinPrice: 2000, MaxPrice: 2200}
}

func TestOrchestratorFallsBackToSecondary(t *testing.T) {
	primary := &stubSource{name: "primary"}
	secondary := &stubSource{name: "secondary", recs: []models.PriceRecord{onionRecord()}}
	pub := &recordingPublisher{}
	o := NewOrchestrator([]Source{primary, secondary}, WithPublisher(pub))

	got := o.FetchLive(context.Background(), " Onion ")
	if !got.Live || got.Source != "secondary" || len(got.Records) != 1 {
		t.Fatalf("expected live result from secondary, got %+v", got)
	}
	if primary.calls.Load() != 1 || secondary.calls.Load() != 1 {
		t.Fatalf("both sources should be tried once")
	}
	if pub.commodity != "onion" || pub.source != "secondary" || pub.n != 1 {
		t.Fatalf("snapshot not published: %+v", pub)
	}
}

func TestOrchestratorSourcesInPriorityOrder(t *testing.T) {
	o := NewOrchestrator([]Source{&stubSource{name: "data.gov.in"}, &stubSource{name: "ceda"}})
	got := o.Sources()
	if len(got) != 2 || got[0] != "data.gov.in" || got[1] != "ceda" {
		t.Fatalf("unexpected sources %v", got)
	}
}

func TestOrchestratorStopsAtFirstSuccess(t *testing.T) {
	primary := &stubSource{name: "primary", recs: []models.PriceRecord{onionRecord()}}
	secondary := &stubSource{name: "secondary"}
	got := NewOrchestrator([]Source{primary, secondary}).FetchLive(context.Background(), "onion")
	if !got.Live || got.Source != "primary" || secondary.calls.Load() != 0 {
		t.Fatalf("secondary must not be called after primary succeeds: %+v", got)
	}
}

func TestOrchestratorFinalErrorCodes(t *testing.T) {
	cases := []struct {
		name    string
		sources []Source
		want    string
	}{
		{"none", nil, CodeNoSources},
		{"all empty", []Source{&stubSource{name: "a"}, &stubSource{name: "b"}}, CodeNoData},
		{"keys missing", []Source{
			&stubSource{name: "a", err: newFeedError("a", CodeNoAPIKey, nil)},
			&stubSource{name: "b", err: newFeedError("b", CodeNoAPIKey, nil)},
		}, CodeNoAPIKey},
		{"key missing then not found", []Source{
			&stubSource{name: "a", err: newFeedError("a", CodeNoAPIKey, nil)},
			&stubSource{name: "b", err: newFeedError("b", CodeCommodityNotFound, nil)},
		}, CodeCommodityNotFound},
		{"failure then missing key", []Source{
			&stubSource{name: "a", err: errors.New("boom")},
			&stubSource{name: "b", err: newFeedError("b", CodeNoAPIKey, nil)},
		}, CodeFetchFailed},
	}
	for _, tc := range cases {
		got := NewOrchestrator(tc.sources).FetchLive(context.Background(), "onion")
		if got.Live || got.ErrorCode != tc.want || got.Message == "" || got.Records == nil {
			t.Fatalf("%s: expected %s, got %+v", tc.name, tc.want, got)
		}
	}
}

func TestOrchestratorCachesResults(t *testing.T) {
	src := &stubSource{name: "primary", recs: []models.PriceRecord{onionRecord()}}
	o := NewOrchestrator([]Source{src}, WithResultCache(pkgcache.NewMemoryCache(), time.Minute))
	first := o.FetchLive(context.Background(), "onion")
	second := o.FetchLive(context.Background(), "ONION")
	if src.calls.Load() != 1 {
		t.Fatalf("second call should be served from cache, calls=%d", src.calls.Load())
	}
	if !second.Live || second.Source != first.Source || len(second.Records) != 1 {
		t.Fatalf("cached result differs: %+v", second)
	}
}

func TestOrchestratorTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	src := NewDataGovSource(DataGovConfig{APIKey: "k", BaseURL: slow.URL, Resources: []string{"r1"}}, xhttp.NewClient(), nil)
	o := NewOrchestrator([]Source{src}, WithTimeout(50*time.Millisecond))
	got := o.FetchLive(context.Background(), "onion")
	if got.Live || got.ErrorCode != CodeFetchFailed {
		t.Fatalf("expected fetch_failed on timeout, got %+v", got)
	}
}

func TestDataGovSource(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		seen = append(seen, r.URL.Path+"?"+q.Get("filters[commodity]"))
		if q.Get("api-key") != "secret" || q.Get("format") != "json" || q.Get("offset") != "0" || q.Get("limit") != "100" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path == "/res-a" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "records": []interface{}{}})
			return
		}
		if q.Get("filters[commodity]") != "onion" {
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "records": []interface{}{}})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"records": []interface{}{
				map[string]interface{}{"State": "Maharashtra", "District": "Nashik", "Market": "Lasalgaon",
					"Commodity": "Onion", "Arrival_Date": "20/10/2024", "Min_x0020_Price": "1,900", "Max_x0020_Price": "2300", "Modal_x0020_Price": "2,100"},
				map[string]interface{}{"state": "Karnataka", "market": "Kolar", "modal_price": 1800.0},
				map[string]interface{}{"state": "Karnataka", "market": "Hubli", "modal_price": "0"},
			},
		})
	}))
	defer srv.Close()

	src := NewDataGovSource(DataGovConfig{APIKey: "secret", BaseURL: srv.URL, Resources: []string{"res-a", "res-b"}}, xhttp.NewClient(), nil)
	src.now = func() time.Time { return fetchDay }
	recs, err := src.Fetch(context.Background(), "onion")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records (zero price dropped), got %d", len(recs))
	}
	first := recs[0]
	if first.Market != "lasalgaon" || first.ModalPrice != 2100 || first.MinPrice != 1900 || first.MaxPrice != 2300 {
		t.Fatalf("unexpected first record %+v", first)
	}
	if !first.PriceDate.Equal(time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date %v", first.PriceDate)
	}
	second := recs[1]
	if second.Commodity != "onion" || !second.PriceDate.Equal(time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC)) || second.MinPrice != 1800 {
		t.Fatalf("missing fields should default, got %+v", second)
	}
	want := []string{"/res-a?Onion", "/res-a?onion", "/res-b?Onion", "/res-b?onion"}
	if len(seen) != len(want) {
		t.Fatalf("unexpected candidate order %v", seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("candidate %d = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestDataGovSourceErrors(t *testing.T) {
	src := NewDataGovSource(DataGovConfig{}, nil, nil)
	if _, err := src.Fetch(context.Background(), "onion"); CodeOf(err) != CodeNoAPIKey {
		t.Fatalf("expected no_api_key, got %v", err)
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	src = NewDataGovSource(DataGovConfig{APIKey: "k", BaseURL: broken.URL}, xhttp.NewClient(), nil)
	if _, err := src.Fetch(context.Background(), "onion"); CodeOf(err) != CodeFetchFailed {
		t.Fatalf("expected fetch_failed, got %v", err)
	}

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer garbage.Close()
	src = NewDataGovSource(DataGovConfig{APIKey: "k", BaseURL: garbage.URL}, xhttp.NewClient(), nil)
	if _, err := src.Fetch(context.Background(), "onion"); CodeOf(err) != CodeFetchFailed {
		t.Fatalf("expected fetch_failed for malformed json, got %v", err)
	}
}

func cedaServer(t *testing.T, catalogHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ceda-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/commodities":
			catalogHits.Add(1)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"output": map[string]interface{}{"data": []interface{}{
					map[string]interface{}{"commodity_id": 23, "commodity_name": "Onion Green"},
					map[string]interface{}{"commodity_id": 17, "commodity_name": "Onion"},
					map[string]interface{}{"id": "5", "name": "Paddy(Dhan)(Common)"},
				}},
			})
		case "/prices":
			if r.URL.Query().Get("commodity_id") != "17" {
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{}})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{
				map[string]interface{}{"state_name": "Gujarat", "district_name": "Rajkot", "market_name": "Gondal",
					"date": "2024-10-19", "modal_price": 1750, "min_price": 1500, "max_price": 1900},
			}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestCEDASource(t *testing.T) {
	var hits atomic.Int32
	srv := cedaServer(t, &hits)
	defer srv.Close()

	src := NewCEDASource(CEDAConfig{APIKey: "ceda-key", BaseURL: srv.URL}, xhttp.NewClient(), nil, nil)
	recs, err := src.Fetch(context.Background(), "ONION")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(recs) != 1 || recs[0].Commodity != "onion" || recs[0].Market != "gondal" || recs[0].ModalPrice != 1750 {
		t.Fatalf("unexpected records %+v", recs)
	}

	if _, err := src.Fetch(context.Background(), "saffron"); CodeOf(err) != CodeCommodityNotFound {
		t.Fatalf("expected commodity_not_found, got %v", err)
	}
	if _, err := src.Fetch(context.Background(), "paddy"); CodeOf(err) != CodeNoData {
		t.Fatalf("expected no_data for empty price list, got %v", err)
	}
	if hits.Load() != 1 {
		t.Fatalf("catalog should be fetched once, got %d", hits.Load())
	}

	list, err := src.Commodities(context.Background())
	if err != nil || len(list) != 3 || list[0].ID != "23" {
		t.Fatalf("unexpected catalog %+v %v", list, err)
	}
}

func TestCEDASourceWithoutKey(t *testing.T) {
	src := NewCEDASource(CEDAConfig{BaseURL: "http://127.0.0.1:1"}, nil, nil, nil)
	if _, err := src.Fetch(context.Background(), "onion"); CodeOf(err) != CodeNoAPIKey {
		t.Fatalf("expected no_api_key, got %v", err)
	}
}

func TestCEDACatalogSurvivesCancelledCaller(t *testing.T) {
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case arrived <- struct{}{}:
		default:
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"data": []interface{}{
			map[string]interface{}{"id": 17, "name": "Onion"},
		}})
	}))
	defer srv.Close()
	defer close(release)

	src := NewCEDASource(CEDAConfig{APIKey: "ceda-key", BaseURL: srv.URL}, xhttp.NewClient(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := src.Commodities(ctx)
		first <- err
	}()
	<-arrived

	type result struct {
		list []models.Commodity
		err  error
	}
	second := make(chan result, 1)
	go func() {
		list, err := src.Commodities(context.Background())
		second <- result{list, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	if err := <-first; CodeOf(err) != CodeFetchFailed || !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller should fail with its own ctx error, got %v", err)
	}
	release <- struct{}{}

	select {
	case res := <-second:
		if res.err != nil || len(res.list) != 1 || res.list[0].ID != "17" {
			t.Fatalf("second caller should still get the catalog, got %+v %v", res.list, res.err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second caller never returned")
	}
}

func TestResolveCommodity(t *testing.T) {
	catalog := []models.Commodity{
		{ID: "1", Name: "Green Chilli"},
		{ID: "2", Name: "Chilli Red"},
		{ID: "3", Name: "Chilli"},
	}
	cases := map[string]string{"chilli": "3", "CHILLI R": "2", "green": "1", "red": "2"}
	for q, want := range cases {
		got, ok := ResolveCommodity(catalog, q)
		if !ok || got.ID != want {
			t.Fatalf("ResolveCommodity(%q) = %+v, %v; want id %s", q, got, ok, want)
		}
	}
	if _, ok := ResolveCommodity(catalog, "  "); ok {
		t.Fatalf("blank query must not match")
	}
}
