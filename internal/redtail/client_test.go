package redtail

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fakeCRM - httptest-сервер с ответами по путям и счётчиком вызовов.
type fakeCRM struct {
	mu     sync.Mutex
	calls  map[string]int
	auth   []string
	routes map[string]func(w http.ResponseWriter, r *http.Request)
}

func newFakeCRM(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) (*fakeCRM, *httptest.Server) {
	t.Helper()
	f := &fakeCRM{calls: map[string]int{}, routes: routes}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		h, ok := f.routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeCRM) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

func jsonBody(body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func testClient(url string) *Client {
	return NewClient(Config{BaseURL: url, APIKey: "key", Username: "user", Password: "pw"})
}

const contactJSON = `{"contacts":[{
	"id": 4242,
	"first_name": "Ada",
	"middle_name": "byron",
	"last_name": "Lovelace",
	"suffix": "",
	"tax_id": "123-45-6789",
	"dob": "1985-12-10",
	"full_name": "Ada Lovelace",
	"nickname": "Ada",
	"job_title": "Analyst",
	"addresses": [{"street": "1 Main St", "city": "Austin", "state": "TX", "zip": "78701", "country": "US"},
	              {"street": "2 Other Rd", "city": "Dallas"}],
	"phones": [
		{"phone_type_description": "Mobile", "number": "555-0001"},
		{"phone_type_description": "Work", "number": "555-0002"},
		{"phone_type_description": "Mobile", "number": "555-0003"}
	]
}]}`

func TestGatherFullRecord(t *testing.T) {
	crm, srv := newFakeCRM(t, map[string]func(http.ResponseWriter, *http.Request){
		"/contacts/search": func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("email") != "ada@example.com" {
				t.Errorf("email query = %q", r.URL.Query().Get("email"))
			}
			jsonBody(contactJSON)(w, r)
		},
		"/contacts/4242/identifications": jsonBody(`{"identifications":[
			{"identification_type":"Passport","number":"P1"},
			{"identification_type":"State Drivers License","number":"D123","state":"TX","expiration_date":"2030-01-01","issue_date":"2022-01-01"}
		]}`),
		"/contacts/4242/banks": jsonBody(`{"contact_banks":[
			{"name":"First Bank","account_number":"000111","routing_number":"111000025"},
			{"name":"Second Bank"}
		]}`),
	})

	rec, err := testClient(srv.URL).Gather(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	want := Record{
		Email: "ada@example.com", RedtailID: 4242,
		FirstName: "Ada", MiddleName: "byron", LastName: "Lovelace",
		TaxID: "123-45-6789", DOB: "1985-12-10", FullName: "Ada Lovelace",
		Nickname: "Ada", JobTitle: "Analyst",
		StreetAddress: "1 Main St", City: "Austin", State: "TX", Zip: "78701", Country: "US",
		WorkPhone: "555-0002", MobilePhone: "555-0001", HomePhone: "",
		MiddleInitial: "B",
		DOBYear:       "1985", DOBMonth: "12", DOBDay: "10",
		DOBMMDDYYYYDash: "12-10-1985", DOBDDMMYYYYDash: "10-12-1985",
		DOBMMDDYYYYSlash: "12/10/1985", DOBYYYYMMDDSlash: "1985/12/10", DOBDDMMYYYYSlash: "10/12/1985",
		Identification: Identification{
			DriversLicenseNumber: "D123", DriversLicenseState: "TX",
			DriversLicenseExpiration: "2030-01-01", DriversLicenseIssueDate: "2022-01-01",
		},
		Bank: Bank{BankName: "First Bank", AccountNumber: "000111", RoutingNumber: "111000025"},
	}
	if diff := cmp.Diff(want, rec); diff != "" {
		t.Fatalf("Gather() mismatch (-want +got):\n%s", diff)
	}

	wantAuth := "Basic " + base64.StdEncoding.EncodeToString([]byte("key:user:pw"))
	for _, got := range crm.auth {
		if got != wantAuth {
			t.Fatalf("Authorization = %q, want %q", got, wantAuth)
		}
	}
}

func TestGatherNoContactSkipsSubLookups(t *testing.T) {
	crm, srv := newFakeCRM(t, map[string]func(http.ResponseWriter, *http.Request){
		"/contacts/search": jsonBody(`{"contacts":[]}`),
	})

	rec, err := testClient(srv.URL).Gather(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if rec.RedtailID != -1 {
		t.Fatalf("RedtailID = %d, want -1", rec.RedtailID)
	}
	for key, v := range rec.Values() {
		switch key {
		case "redtail_id":
			if v != "-1" {
				t.Errorf("redtail_id = %q", v)
			}
		case "email":
			if v != "nobody@example.com" {
				t.Errorf("email = %q", v)
			}
		default:
			if v != "" {
				t.Errorf("%s = %q, want empty", key, v)
			}
		}
	}
	if n := crm.count("/contacts/-1/identifications") + crm.count("/contacts/-1/banks"); n != 0 {
		t.Fatalf("sub-lookups called %d times, want 0", n)
	}
	if len(crm.calls) != 1 {
		t.Fatalf("calls = %v, want only contact search", crm.calls)
	}
}

func TestGatherContactSearchFailureIsHard(t *testing.T) {
	_, srv := newFakeCRM(t, map[string]func(http.ResponseWriter, *http.Request){
		"/contacts/search": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusBadGateway)
		},
	})
	if _, err := testClient(srv.URL).Gather(context.Background(), "a@example.com"); err == nil {
		t.Fatal("Gather() error = nil, want status error")
	}
}

func TestGatherTransportFailureIsHard(t *testing.T) {
	_, srv := newFakeCRM(t, nil)
	url := srv.URL
	srv.Close()
	if _, err := testClient(url).Gather(context.Background(), "a@example.com"); err == nil {
		t.Fatal("Gather() error = nil, want transport error")
	}
}

func TestGatherSubLookupFailuresAreAbsorbed(t *testing.T) {
	_, srv := newFakeCRM(t, map[string]func(http.ResponseWriter, *http.Request){
		"/contacts/search": jsonBody(`{"contacts":[{"id":7,"first_name":"Grace"}]}`),
		"/contacts/7/identifications": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "down", http.StatusInternalServerError)
		},
		"/contacts/7/banks": jsonBody(`{"contact_banks":[]}`),
	})

	rec, err := testClient(srv.URL).Gather(context.Background(), "grace@example.com")
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if rec.RedtailID != 7 || rec.FirstName != "Grace" {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Identification != (Identification{}) || rec.Bank != (Bank{}) {
		t.Fatalf("sub-records = %+v / %+v, want empty", rec.Identification, rec.Bank)
	}
	if rec.DOBYear != "" || rec.DOBMMDDYYYYSlash != "" || rec.MiddleInitial != "" {
		t.Fatalf("derived fields without source = %+v", rec)
	}
}

func TestGatherZeroIDBecomesSentinel(t *testing.T) {
	crm, srv := newFakeCRM(t, map[string]func(http.ResponseWriter, *http.Request){
		"/contacts/search": jsonBody(`{"contacts":[{"first_name":"NoID"}]}`),
	})
	rec, err := testClient(srv.URL).Gather(context.Background(), "x@example.com")
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	if rec.RedtailID != NoContactID || rec.FirstName != "NoID" {
		t.Fatalf("record = %+v", rec)
	}
	if len(crm.calls) != 1 {
		t.Fatalf("calls = %v", crm.calls)
	}
}

func TestSplitDate(t *testing.T) {
	tests := []struct {
		in      string
		y, m, d string
		ok      bool
	}{
		{"1985-12-10", "1985", "12", "10", true},
		{"1985-12-10T00:00:00Z", "1985", "12", "10", true},
		{"", "", "", "", false},
		{"12/10/1985", "", "", "", false},
	}
	for _, tt := range tests {
		y, m, d, ok := splitDate(tt.in)
		if y != tt.y || m != tt.m || d != tt.d || ok != tt.ok {
			t.Errorf("splitDate(%q) = %q %q %q %v", tt.in, y, m, d, ok)
		}
	}
}

func TestKeysMatchValues(t *testing.T) {
	vals := Record{}.Values()
	if len(vals) != len(Keys()) {
		t.Fatalf("len(Values) = %d, len(Keys) = %d", len(vals), len(Keys()))
	}
	for _, k := range Keys() {
		if _, ok := vals[k]; !ok {
			t.Errorf("key %s missing from Values", k)
		}
		if strings.TrimSpace(k) != k {
			t.Errorf("key %q has spaces", k)
		}
	}
}
