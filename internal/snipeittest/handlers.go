package snipeittest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/agentstation/assetsync/pkg/snipeit"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func success(w http.ResponseWriter, payload any) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "messages": "ok", "payload": payload})
}

// validationError mirrors the API: HTTP 200 with a status "error" envelope.
func validationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "error",
		"messages": map[string][]string{field: {message}},
		"payload":  nil,
	})
}

func notFound(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "error", "messages": what + " does not exist.", "payload": nil})
}

func decode(r *http.Request) map[string]any {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body == nil {
		body = map[string]any{}
	}
	return body
}

func str(body map[string]any, key string) string {
	if v, ok := body[key].(string); ok {
		return v
	}
	return ""
}

func num(body map[string]any, key string) int {
	switch v := body[key].(type) {
	case float64:
		return int(v)
	case string:
		n, _ := strconv.Atoi(v)
		return n
	}
	return 0
}

func (s *Server) handleList(rows func() []entry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 || limit > 500 {
			limit = 50
		}
		offset, _ := strconv.Atoi(q.Get("offset"))
		term := strings.ToLower(q.Get("search"))

		s.mu.Lock()
		all := rows()
		s.mu.Unlock()

		filtered := make([]any, 0, len(all))
		for _, e := range all {
			if term == "" || strings.Contains(strings.ToLower(e.key), term) {
				filtered = append(filtered, e.value)
			}
		}

		total := len(filtered)
		if offset > total {
			offset = total
		}
		end := offset + limit
		if end > total {
			end = total
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": total, "rows": filtered[offset:end]})
	}
}

func (s *Server) createManufacturer(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	name := strings.TrimSpace(str(body, "name"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if name == "" {
		validationError(w, "name", "The name field is required.")
		return
	}
	for _, m := range s.manufacturers {
		if strings.EqualFold(m.Name, name) {
			validationError(w, "name", "The name has already been taken.")
			return
		}
	}
	id := s.id()
	s.manufacturers[id] = snipeit.Named{ID: id, Name: name}
	success(w, s.manufacturers[id])
}

func (s *Server) createModel(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	name := strings.TrimSpace(str(body, "name"))
	manufacturerID := num(body, "manufacturer_id")
	categoryID := num(body, "category_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[categoryID]; !ok {
		validationError(w, "category_id", "The category id field is required.")
		return
	}
	for _, m := range s.models {
		if strings.EqualFold(m.Name, name) && m.Manufacturer != nil && m.Manufacturer.ID == manufacturerID &&
			m.Category != nil && m.Category.ID == categoryID {
			validationError(w, "name", "The name has already been taken.")
			return
		}
	}
	id := s.id()
	s.models[id] = snipeit.Model{
		ID:           id,
		Name:         name,
		ModelNumber:  str(body, "model_number"),
		Manufacturer: ref(s.manufacturers, manufacturerID),
		Category:     ref(s.categories, categoryID),
	}
	success(w, s.models[id])
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	username := strings.TrimSpace(str(body, "username"))

	s.mu.Lock()
	defer s.mu.Unlock()
	if str(body, "password") == "" || str(body, "password") != str(body, "password_confirmation") {
		validationError(w, "password", "The password confirmation does not match.")
		return
	}
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			validationError(w, "username", "The username has already been taken.")
			return
		}
	}
	id := s.id()
	s.users[id] = snipeit.User{
		ID:          id,
		Username:    username,
		EmployeeNum: str(body, "employee_num"),
		Email:       str(body, "email"),
		FirstName:   str(body, "first_name"),
		LastName:    str(body, "last_name"),
	}
	success(w, s.users[id])
}

func (s *Server) createHardware(w http.ResponseWriter, r *http.Request) {
	body := decode(r)
	tag := strings.TrimSpace(str(body, "asset_tag"))

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, h := range s.hardware {
		if strings.EqualFold(h.AssetTag, tag) {
			validationError(w, "asset_tag", "The asset tag has already been taken.")
			return
		}
	}
	if _, ok := s.models[num(body, "model_id")]; !ok {
		validationError(w, "model_id", "The selected model id is invalid.")
		return
	}
	id := s.id()
	h := snipeit.Hardware{
		ID:          id,
		AssetTag:    tag,
		Name:        str(body, "name"),
		Serial:      str(body, "serial"),
		Notes:       str(body, "notes"),
		StatusLabel: s.label(num(body, "status_id")),
	}
	s.hardware[id] = h
	success(w, s.hardwareJSON(h))
}

func (s *Server) lookupHardware(w http.ResponseWriter, r *http.Request) (snipeit.Hardware, bool) {
	id, _ := strconv.Atoi(r.PathValue("id"))
	h, ok := s.hardware[id]
	if !ok {
		notFound(w, "Asset")
	}
	return h, ok
}

func (s *Server) getHardware(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lookupHardware(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.hardwareJSON(h))
}

func (s *Server) updateHardware(w http.ResponseWriter, r *http.Request) {
	body := decode(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lookupHardware(w, r)
	if !ok {
		return
	}
	if _, set := body["name"]; set {
		h.Name = str(body, "name")
	}
	if _, set := body["notes"]; set {
		h.Notes = str(body, "notes")
	}
	if _, set := body["status_id"]; set {
		h.StatusLabel = s.label(num(body, "status_id"))
	}
	s.hardware[h.ID] = h
	success(w, s.hardwareJSON(h))
}

func (s *Server) deleteHardware(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lookupHardware(w, r)
	if !ok {
		return
	}
	delete(s.hardware, h.ID)
	success(w, nil)
}

func (s *Server) checkin(w http.ResponseWriter, r *http.Request) {
	body := decode(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lookupHardware(w, r)
	if !ok {
		return
	}
	if h.AssignedTo.ID == 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "messages": "That asset is already checked in.", "payload": nil})
		return
	}
	h.AssignedTo = snipeit.Assignment{}
	if id := num(body, "status_id"); id != 0 {
		h.StatusLabel = s.label(id)
	}
	s.hardware[h.ID] = h
	success(w, map[string]any{"asset": h.AssetTag})
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	body := decode(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.lookupHardware(w, r)
	if !ok {
		return
	}
	userID := num(body, "assigned_user")
	user, exists := s.users[userID]
	if str(body, "checkout_to_type") != "user" || !exists {
		validationError(w, "assigned_user", "The selected assigned user is invalid.")
		return
	}
	if h.AssignedTo.ID != 0 {
		writeJSON(w, http.StatusOK, map[string]any{"status": "error", "messages": "That asset is not available for checkout!", "payload": nil})
		return
	}
	h.AssignedTo = snipeit.Assignment{ID: user.ID, Username: user.Username, Type: "user"}
	if id := num(body, "status_id"); id != 0 {
		h.StatusLabel = s.label(id)
	}
	s.hardware[h.ID] = h
	success(w, map[string]any{"asset": h.AssetTag})
}

func (s *Server) label(id int) snipeit.StatusLabel {
	if l, ok := s.statusLabels[id]; ok {
		return l
	}
	return snipeit.StatusLabel{ID: id}
}

// hardwareJSON renders h the way the API does: assigned_to is null when
// the asset is not checked out.
func (s *Server) hardwareJSON(h snipeit.Hardware) any {
	var assigned any
	if h.AssignedTo.ID != 0 {
		assigned = h.AssignedTo
	}
	return map[string]any{
		"id":           h.ID,
		"asset_tag":    h.AssetTag,
		"name":         h.Name,
		"serial":       h.Serial,
		"notes":        h.Notes,
		"status_label": s.label(h.StatusLabel.ID),
		"assigned_to":  assigned,
	}
}
