package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

var backendSecret = []byte("cinex-test-secret")

type backendUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"full_name,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Location string `json:"location,omitempty"`
	Age      *int   `json:"age,omitempty"`
	Avatar   string `json:"avatar_url,omitempty"`

	password string
}

type backendMovie struct {
	ID          int     `json:"id"`
	TMDBID      int     `json:"tmdb_id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreID     int     `json:"-"`
}

type libraryEntry struct {
	ID         int    `json:"id"`
	MovieID    int    `json:"movie_id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
	AddedAt    string `json:"added_at,omitempty"`
	WatchedAt  string `json:"watched_at,omitempty"`
}

// Backend is an in-memory fake of the movie recommendation API served over httptest.
//
// It keeps users, watchlists and watch history, and issues HS256 tokens.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[int]*backendUser
	movies    []backendMovie
	watchlist map[int][]int
	history   map[int][]int
	failures  map[string]int
	nextID    int
	calls     atomic.Int64
}

// BackendMovieCount is the number of seeded movies.
const BackendMovieCount = 45

var backendGenres = []map[string]any{
	{"id": 28, "name": "Action"},
	{"id": 18, "name": "Drama"},
	{"id": 35, "name": "Comedy"},
}

// NewBackend starts a fake backend and closes it when the test ends.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		users:     map[int]*backendUser{},
		watchlist: map[int][]int{},
		history:   map[int][]int{},
		failures:  map[string]int{},
		nextID:    1,
	}
	for i := 1; i <= BackendMovieCount; i++ {
		b.movies = append(b.movies, backendMovie{
			ID:          i,
			TMDBID:      1000 + i,
			Title:       fmt.Sprintf("Movie %d", i),
			Overview:    fmt.Sprintf("Overview of movie %d", i),
			PosterPath:  fmt.Sprintf("/poster-%d.jpg", i),
			ReleaseDate: "2020-01-02",
			VoteAverage: 5 + float64(i%5),
			GenreID:     backendGenres[i%len(backendGenres)]["id"].(int),
		})
	}

	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the backend origin.
func (b *Backend) URL() string { return b.Server.URL }

// Calls returns the number of requests served.
func (b *Backend) Calls() int { return int(b.calls.Load()) }

// Fail makes every request whose path starts with prefix answer with status.
func (b *Backend) Fail(prefix string, status int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[prefix] = status
}

// AddUser registers a user directly and returns its id.
func (b *Backend) AddUser(username, email, password string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUser(&backendUser{Username: username, Email: email, FullName: username, password: password})
}

func (b *Backend) addUser(u *backendUser) int {
	u.ID = b.nextID
	b.nextID++
	b.users[u.ID] = u
	return u.ID
}

// Token issues a valid token for userID.
func (b *Backend) Token(userID int) string {
	return b.sign(userID, time.Now().Add(time.Hour))
}

// ExpiredToken issues a correctly signed token that expired an hour ago.
func (b *Backend) ExpiredToken(userID int) string {
	return b.sign(userID, time.Now().Add(-time.Hour))
}

func (b *Backend) sign(userID int, exp time.Time) string {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(backendSecret)
	if err != nil {
		panic(err)
	}
	return s
}

// Watchlist returns the movie ids on a user's watchlist.
func (b *Backend) Watchlist(userID int) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.watchlist[userID]...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.count, b.injectFailures)

	r.Route("/movies", func(r chi.Router) {
		r.Get("/popular", b.handlePopular)
		r.Get("/genres", b.handleGenres)
		r.Get("/search", b.handleSearch)
		r.Get("/genre/{id}", b.handleByGenre)
		r.Get("/{id}", b.handleMovie)
		r.Get("/{id}/similar", b.handleSimilar)
	})

	r.Post("/auth/login", b.handleLogin)
	r.Post("/auth/register", b.handleRegister)
	r.With(b.requireAuth).Get("/auth/me", b.handleMe)

	r.Get("/users/avatars", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"avatars": []string{"/avatars/1.png", "/avatars/2.png"}})
	})
	r.Get("/recommendations/by-genre/{id}", b.handleRecsByGenre)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)
		r.Post("/users/watch-list/toggle", b.handleToggle)
		r.Get("/users/watch-list", b.handleWatchlist)
		r.Post("/users/watch-history", b.handleAddHistory)
		r.Get("/users/watch-history", b.handleHistory)
		r.Delete("/users/watch-history/{id}", b.handleRemoveHistory)
		r.Put("/users/profile", b.handleProfile)
		r.Post("/users/avatar", b.handleAvatar)
		r.Get("/users/demographics", b.handleGetDemographics)
		r.Put("/users/demographics", b.handlePutDemographics)
		r.Get("/recommendations/personalized", b.handlePersonalized)
	})
	return r
}

func (b *Backend) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.calls.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		status := 0
		for prefix, s := range b.failures {
			if strings.HasPrefix(r.URL.Path, prefix) {
				status = s
			}
		}
		b.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		var claims jwt.RegisteredClaims
		_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
			return backendSecret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		id, _ := strconv.Atoi(claims.Subject)
		b.mu.Lock()
		_, exists := b.users[id]
		b.mu.Unlock()
		if !exists {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		r.Header.Set("X-User-ID", claims.Subject)
		next.ServeHTTP(w, r)
	})
}

func userID(r *http.Request) int {
	id, _ := strconv.Atoi(r.Header.Get("X-User-ID"))
	return id
}

func intParam(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func (b *Backend) movie(id int) (backendMovie, bool) {
	if id < 1 || id > len(b.movies) {
		return backendMovie{}, false
	}
	return b.movies[id-1], true
}

func paginate(movies []backendMovie, page, size int) []backendMovie {
	start := (page - 1) * size
	if start >= len(movies) {
		return []backendMovie{}
	}
	return movies[start:min(start+size, len(movies))]
}

func (b *Backend) handlePopular(w http.ResponseWriter, r *http.Request) {
	page := intParam(r, "page", 1)
	writeJSON(w, http.StatusOK, map[string]any{
		"movies":        paginate(b.movies, page, 20),
		"page":          page,
		"total_results": len(b.movies),
	})
}

func (b *Backend) handleGenres(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backendGenres)
}

func (b *Backend) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("query"))
	page := intParam(r, "page", 1)

	var matches []backendMovie
	for _, m := range b.movies {
		if strings.Contains(strings.ToLower(m.Title), q) {
			matches = append(matches, m)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":          page,
		"results":       paginate(matches, page, 20),
		"total_pages":   (len(matches) + 19) / 20,
		"total_results": len(matches),
	})
}

func (b *Backend) byGenre(genreID int) []backendMovie {
	var out []backendMovie
	for _, m := range b.movies {
		if m.GenreID == genreID {
			out = append(out, m)
		}
	}
	return out
}

func (b *Backend) handleByGenre(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	page := intParam(r, "page", 1)
	matches := b.byGenre(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"page":          page,
		"results":       paginate(matches, page, 20),
		"total_pages":   (len(matches) + 19) / 20,
		"total_results": len(matches),
	})
}

func (b *Backend) handleMovie(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	m, ok := b.movie(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Movie not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":           m.ID,
		"tmdb_id":      m.TMDBID,
		"title":        m.Title,
		"overview":     m.Overview,
		"poster_path":  m.PosterPath,
		"release_date": m.ReleaseDate,
		"vote_average": m.VoteAverage,
		"genres":       []map[string]any{{"id": m.GenreID, "name": genreName(m.GenreID)}},
	})
}

func genreName(id int) string {
	for _, g := range backendGenres {
		if g["id"] == id {
			return g["name"].(string)
		}
	}
	return ""
}

func (b *Backend) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	m, ok := b.movie(id)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Movie not found")
		return
	}
	page := intParam(r, "page", 1)
	limit := intParam(r, "limit", 8)

	var similar []backendMovie
	for _, other := range b.byGenre(m.GenreID) {
		if other.ID != m.ID {
			similar = append(similar, other)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results":       paginate(similar, page, limit),
		"total_results": len(similar),
	})
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid form")
		return
	}
	email, password := r.PostForm.Get("username"), r.PostForm.Get("password")

	b.mu.Lock()
	var found *backendUser
	for _, u := range b.users {
		if u.Email == email && u.password == password {
			found = u
		}
	}
	b.mu.Unlock()

	if found == nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": b.Token(found.ID),
		"token_type":   "bearer",
		"user":         found,
	})
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Age      *int   `json:"age"`
		Gender   string `json:"gender"`
		Location string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": "field required", "type": "value_error.missing"}},
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.Email == req.Email {
			writeDetail(w, http.StatusBadRequest, "Email already registered")
			return
		}
	}
	u := &backendUser{
		Username: req.Username, Email: req.Email, FullName: req.FullName,
		Age: req.Age, Gender: req.Gender, Location: req.Location, password: req.Password,
	}
	b.addUser(u)
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := *b.users[userID(r)]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, u)
}

func (b *Backend) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovieID int `json:"movie_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if _, ok := b.movie(req.MovieID); !ok {
		writeDetail(w, http.StatusNotFound, "Movie not found")
		return
	}

	uid := userID(r)
	b.mu.Lock()
	list := b.watchlist[uid]
	removed := false
	for i, id := range list {
		if id == req.MovieID {
			list = append(list[:i:i], list[i+1:]...)
			removed = true
			break
		}
	}
	if !removed {
		list = append(list, req.MovieID)
	}
	b.watchlist[uid] = list
	b.mu.Unlock()

	status := "added"
	if removed {
		status = "removed"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Watchlist updated",
		"status":       status,
		"movie_id":     req.MovieID,
		"in_watchlist": !removed,
	})
}

func (b *Backend) entries(ids []int, history bool) []libraryEntry {
	out := make([]libraryEntry, 0, len(ids))
	for i, id := range ids {
		m, _ := b.movie(id)
		e := libraryEntry{ID: i + 1, MovieID: id, Title: m.Title, PosterPath: m.PosterPath}
		if history {
			e.WatchedAt = "2024-05-01T12:00:00"
		} else {
			e.AddedAt = "2024-05-01T12:00:00"
		}
		out = append(out, e)
	}
	return out
}

func (b *Backend) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	ids := append([]int(nil), b.watchlist[userID(r)]...)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"watchlist": b.entries(ids, false)})
}

func (b *Backend) handleAddHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MovieID int `json:"movie_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if _, ok := b.movie(req.MovieID); !ok {
		writeDetail(w, http.StatusNotFound, "Movie not found")
		return
	}
	b.mu.Lock()
	b.history[userID(r)] = append(b.history[userID(r)], req.MovieID)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "Added to watch history", "movie_id": req.MovieID})
}

func (b *Backend) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 12)
	b.mu.Lock()
	ids := append([]int(nil), b.history[userID(r)]...)
	b.mu.Unlock()
	if len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": b.entries(ids, true)})
}

func (b *Backend) handleRemoveHistory(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	uid := userID(r)

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.history[uid][:0:0]
	for _, m := range b.history[uid] {
		if m != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(b.history[uid]) {
		writeDetail(w, http.StatusNotFound, "History entry not found")
		return
	}
	b.history[uid] = kept
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) handleProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form")
		return
	}

	b.mu.Lock()
	u := b.users[userID(r)]
	if v := r.FormValue("full_name"); v != "" {
		u.FullName = v
	}
	if v := r.FormValue("username"); v != "" {
		u.Username = v
	}
	if v := r.FormValue("location"); v != "" {
		u.Location = v
	}
	if v := r.FormValue("gender"); v != "" {
		u.Gender = v
	}
	if v, err := strconv.Atoi(r.FormValue("age")); err == nil {
		u.Age = &v
	}
	out := *u
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleAvatar(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "expected multipart form")
		return
	}
	_, header, err := r.FormFile("avatar")
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "avatar file is required")
		return
	}

	b.mu.Lock()
	u := b.users[userID(r)]
	u.Avatar = "/uploads/" + header.Filename
	out := *u
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) handleGetDemographics(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	u := *b.users[userID(r)]
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"age": u.Age, "gender": u.Gender, "location": u.Location})
}

func (b *Backend) handlePutDemographics(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Age      *int    `json:"age"`
		Gender   *string `json:"gender"`
		Location *string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	u := b.users[userID(r)]
	if req.Age != nil {
		u.Age = req.Age
	}
	if req.Gender != nil {
		u.Gender = *req.Gender
	}
	if req.Location != nil {
		u.Location = *req.Location
	}
	out := *u
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"age": out.Age, "gender": out.Gender, "location": out.Location})
}

func (b *Backend) handlePersonalized(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 12)
	writeJSON(w, http.StatusOK, paginate(b.movies, 1, limit))
}

func (b *Backend) handleRecsByGenre(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	limit := intParam(r, "limit", 8)
	writeJSON(w, http.StatusOK, paginate(b.byGenre(id), 1, limit))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
