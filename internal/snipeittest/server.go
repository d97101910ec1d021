// Package snipeittest provides an in-memory fake of the inventory API for
// tests. It speaks the same envelopes as the real service, including
// 200-with-status-error validation failures, and records every mutating call.
package snipeittest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/agentstation/assetsync/pkg/snipeit"
)

// BasePath is the API root the fake serves under.
const BasePath = "/api/v1"

// Token is the bearer token the fake expects.
const Token = "test-token"

// Call is one recorded mutating request.
type Call struct {
	Method string
	Path   string
	Body   map[string]any
}

// Fault overrides the response to one matching request.
type Fault struct {
	Method string
	Path   string
	// Status and Body are written instead of handling the request. A zero
	// Status acknowledges the request with a success envelope but does not
	// apply it, which is how the fake models a write the remote lost.
	Status int
	Body   string
}

// Server is a fake inventory API.
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	nextID        int
	manufacturers map[int]snipeit.Named
	categories    map[int]snipeit.Named
	statusLabels  map[int]snipeit.StatusLabel
	locations     map[int]snipeit.Named
	companies     map[int]snipeit.Named
	models        map[int]snipeit.Model
	users         map[int]snipeit.User
	hardware      map[int]snipeit.Hardware
	calls         []Call
	faults        []Fault
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		manufacturers: make(map[int]snipeit.Named),
		categories:    make(map[int]snipeit.Named),
		statusLabels:  make(map[int]snipeit.StatusLabel),
		locations:     make(map[int]snipeit.Named),
		companies:     make(map[int]snipeit.Named),
		models:        make(map[int]snipeit.Model),
		users:         make(map[int]snipeit.User),
		hardware:      make(map[int]snipeit.Hardware),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"/manufacturers", s.handleList(func() []entry { return entries(s.manufacturers, nameOf, identity[snipeit.Named]) }))
	mux.HandleFunc("GET "+BasePath+"/categories", s.handleList(func() []entry { return entries(s.categories, nameOf, identity[snipeit.Named]) }))
	mux.HandleFunc("GET "+BasePath+"/statuslabels", s.handleList(func() []entry {
		return entries(s.statusLabels, func(l snipeit.StatusLabel) string { return l.Name }, identity[snipeit.StatusLabel])
	}))
	mux.HandleFunc("GET "+BasePath+"/locations", s.handleList(func() []entry { return entries(s.locations, nameOf, identity[snipeit.Named]) }))
	mux.HandleFunc("GET "+BasePath+"/companies", s.handleList(func() []entry { return entries(s.companies, nameOf, identity[snipeit.Named]) }))
	mux.HandleFunc("GET "+BasePath+"/models", s.handleList(func() []entry {
		return entries(s.models, func(m snipeit.Model) string { return m.Name }, identity[snipeit.Model])
	}))
	mux.HandleFunc("GET "+BasePath+"/users", s.handleList(func() []entry {
		return entries(s.users, func(u snipeit.User) string { return u.Username }, identity[snipeit.User])
	}))
	mux.HandleFunc("GET "+BasePath+"/hardware", s.handleList(func() []entry {
		return entries(s.hardware, func(h snipeit.Hardware) string { return h.AssetTag }, s.hardwareJSON)
	}))
	mux.HandleFunc("POST "+BasePath+"/manufacturers", s.createManufacturer)
	mux.HandleFunc("POST "+BasePath+"/models", s.createModel)
	mux.HandleFunc("POST "+BasePath+"/users", s.createUser)
	mux.HandleFunc("POST "+BasePath+"/hardware", s.createHardware)
	mux.HandleFunc("GET "+BasePath+"/hardware/{id}", s.getHardware)
	mux.HandleFunc("PUT "+BasePath+"/hardware/{id}", s.updateHardware)
	mux.HandleFunc("PATCH "+BasePath+"/hardware/{id}", s.updateHardware)
	mux.HandleFunc("DELETE "+BasePath+"/hardware/{id}", s.deleteHardware)
	mux.HandleFunc("POST "+BasePath+"/hardware/{id}/checkin", s.checkin)
	mux.HandleFunc("POST "+BasePath+"/hardware/{id}/checkout", s.checkout)

	s.Server = httptest.NewServer(s.intercept(mux))
	t.Cleanup(s.Close)
	return s
}

// URL returns the API root to hand to a client.
func (s *Server) URL() string {
	return s.Server.URL + BasePath
}

// intercept checks auth, records mutating calls and applies faults.
func (s *Server) intercept(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"status": "error", "messages": "Unauthenticated."})
			return
		}

		path := strings.TrimPrefix(r.URL.Path, BasePath)
		var raw []byte
		if r.Body != nil {
			raw, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(raw))
		}

		s.mu.Lock()
		if r.Method != http.MethodGet {
			var body map[string]any
			_ = json.Unmarshal(raw, &body)
			s.calls = append(s.calls, Call{Method: r.Method, Path: path, Body: body})
		}
		fault, faulted := s.takeFault(r.Method, path)
		s.mu.Unlock()

		if faulted {
			if fault.Status == 0 {
				writeJSON(w, http.StatusOK, map[string]any{"status": "success", "messages": "ok", "payload": map[string]any{}})
				return
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(fault.Status)
			_, _ = w.Write([]byte(fault.Body))
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFault(method, path string) (Fault, bool) {
	for i, f := range s.faults {
		if f.Method == method && f.Path == path {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

// AddFault queues a one-shot response override.
func (s *Server) AddFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, f)
}

// Calls returns every recorded mutating call.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsTo returns recorded calls with method whose path starts with prefix
// and, when suffix is non-empty, ends with suffix.
func (s *Server) CallsTo(method, prefix, suffix string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Method == method && strings.HasPrefix(c.Path, prefix) && strings.HasSuffix(c.Path, suffix) {
			out = append(out, c)
		}
	}
	return out
}

// ResetCalls forgets recorded calls.
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}

func (s *Server) id() int {
	s.nextID++
	return s.nextID
}

// AddManufacturer seeds a manufacturer.
func (s *Server) AddManufacturer(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.manufacturers[id] = snipeit.Named{ID: id, Name: name}
	return id
}

// AddCategory seeds a category.
func (s *Server) AddCategory(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.categories[id] = snipeit.Named{ID: id, Name: name}
	return id
}

// AddStatusLabel seeds a status label.
func (s *Server) AddStatusLabel(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.statusLabels[id] = snipeit.StatusLabel{ID: id, Name: name}
	return id
}

// AddLocation seeds a location.
func (s *Server) AddLocation(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.locations[id] = snipeit.Named{ID: id, Name: name}
	return id
}

// AddCompany seeds a company.
func (s *Server) AddCompany(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.companies[id] = snipeit.Named{ID: id, Name: name}
	return id
}

// AddModel seeds a model.
func (s *Server) AddModel(name string, manufacturerID, categoryID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.models[id] = snipeit.Model{
		ID:           id,
		Name:         name,
		Manufacturer: ref(s.manufacturers, manufacturerID),
		Category:     ref(s.categories, categoryID),
	}
	return id
}

// AddUser seeds a user.
func (s *Server) AddUser(username, employeeNum, email string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.id()
	s.users[id] = snipeit.User{ID: id, Username: username, EmployeeNum: employeeNum, Email: email}
	return id
}

// AddHardware seeds a hardware record and returns its assigned ID.
func (s *Server) AddHardware(h snipeit.Hardware) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	h.ID = s.id()
	if h.AssignedTo.ID != 0 && h.AssignedTo.Type == "" {
		h.AssignedTo.Type = "user"
	}
	s.hardware[h.ID] = h
	return h.ID
}

// Hardware returns the stored hardware record.
func (s *Server) Hardware(id int) (snipeit.Hardware, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.hardware[id]
	return h, ok
}

// HardwareByTag returns the stored hardware record with asset tag tag.
func (s *Server) HardwareByTag(tag string) (snipeit.Hardware, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hardware {
		if strings.EqualFold(h.AssetTag, tag) {
			return h, true
		}
	}
	return snipeit.Hardware{}, false
}

// UserByUsername returns the stored user with username.
func (s *Server) UserByUsername(username string) (snipeit.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return snipeit.User{}, false
}

// ManufacturerByName returns the stored manufacturer with name.
func (s *Server) ManufacturerByName(name string) (snipeit.Named, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.manufacturers {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return snipeit.Named{}, false
}

// Models returns every stored model.
func (s *Server) Models() []snipeit.Model {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]snipeit.Model, 0, len(s.models))
	for _, e := range entries(s.models, func(m snipeit.Model) string { return m.Name }, identity[snipeit.Model]) {
		out = append(out, e.value.(snipeit.Model))
	}
	return out
}

func ref(m map[int]snipeit.Named, id int) *snipeit.Named {
	if n, ok := m[id]; ok {
		return &snipeit.Named{ID: n.ID, Name: n.Name}
	}
	return nil
}

func nameOf(n snipeit.Named) string { return n.Name }

func identity[T any](v T) any { return v }

// entry is one collection row with the text the search filter matches on.
type entry struct {
	key   string
	value any
}

// entries returns m's rows ordered by ID.
func entries[T any](m map[int]T, key func(T) string, render func(T) any) []entry {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, entry{key: key(m[id]), value: render(m[id])})
	}
	return out
}
