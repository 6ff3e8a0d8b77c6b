package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	toastSuccess = "success"
	toastError   = "error"

	toastTTL     = 30 * time.Second
	maxUserToast = 20
)

type Toast struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Message         string    `json:"message"`
	Kind            string    `json:"kind"`
	DurationSeconds int       `json:"duration_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// toastStore queues notifications per user until they are read and dismissed or expire.
type toastStore struct {
	mu     sync.Mutex
	byUser map[string][]Toast
	now    func() time.Time
}

func newToastStore() *toastStore {
	return &toastStore{byUser: make(map[string][]Toast), now: time.Now}
}

func (s *toastStore) Add(key string, toast Toast) {
	if key == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := append(s.byUser[key], toast)
	if len(list) > maxUserToast {
		list = list[len(list)-maxUserToast:]
	}
	s.byUser[key] = list
}

func (s *toastStore) List(key string) []Toast {
	if key == "" {
		return []Toast{}
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	active := s.byUser[key][:0]
	for _, toast := range s.byUser[key] {
		if toast.DurationSeconds > 0 && now.After(toast.CreatedAt.Add(time.Duration(toast.DurationSeconds)*time.Second)) {
			continue
		}
		active = append(active, toast)
	}
	if len(active) == 0 {
		delete(s.byUser, key)
		return []Toast{}
	}
	s.byUser[key] = active
	out := make([]Toast, len(active))
	copy(out, active)
	return out
}

func (s *toastStore) Remove(key, id string) bool {
	if key == "" || id == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	toasts := s.byUser[key]
	next := toasts[:0]
	removed := false
	for _, toast := range toasts {
		if toast.ID == id {
			removed = true
			continue
		}
		next = append(next, toast)
	}
	if len(next) == 0 {
		delete(s.byUser, key)
	} else {
		s.byUser[key] = next
	}
	return removed
}

func toastKey(r *http.Request) string {
	if user, ok := CurrentUser(r.Context()); ok {
		return "user:" + user.Name
	}
	return ""
}

func (s *Server) addToast(r *http.Request, kind, title, message string) {
	s.toasts.Add(toastKey(r), Toast{
		ID:              uuid.NewString(),
		Title:           title,
		Message:         message,
		Kind:            kind,
		DurationSeconds: int(toastTTL / time.Second),
		CreatedAt:       s.toasts.now(),
	})
}

// fail queues an error toast for a mutating request and writes the error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, title string, err error) {
	s.addToast(r, toastError, title, err.Error())
	writeError(w, r, err)
}
