// Package ecocitotest provides an in-process fake of the Ecocito portal
// for tests.
package ecocitotest

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"testing"
)

const sessionCookie = ".AspNet.Cookies"

type Portal struct {
	Server *httptest.Server

	Username string
	Password string

	lock sync.Mutex
	// status overrides, 0 means 200
	loginStatus  int
	fetchStatus  int
	logoutStatus int
	// raw listing body, replaces the json rendering of rows
	rawListing *string
	rows       []map[string]any

	sessions map[string]bool
	counter  int
	queries  []url.Values
	logins   int
	logouts  int
}

// New starts a fake portal accepting username "user" and password
// "secret", it is closed when the test ends.
func New(t testing.TB) *Portal {
	p := &Portal{
		Username: "user",
		Password: "secret",
		sessions: map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/Usager/Profil/Connexion", p.handleLogin)
	mux.HandleFunc("/Usager/Collecte/GetCollecte", p.handleListing)
	mux.HandleFunc("/Usager/Profil/Deconnexion", p.handleLogout)
	p.Server = httptest.NewServer(mux)
	t.Cleanup(p.Server.Close)

	return p
}

func (p *Portal) URL() string {
	return p.Server.URL
}

// SetRows replaces the collection rows served by the listing endpoint.
func (p *Portal) SetRows(rows ...map[string]any) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.rows = rows
	p.rawListing = nil
}

// SetRawListing makes the listing endpoint answer with body verbatim.
func (p *Portal) SetRawListing(body string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.rawListing = &body
}

func (p *Portal) SetStatus(login, fetch, logout int) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.loginStatus = login
	p.fetchStatus = fetch
	p.logoutStatus = logout
}

// Queries returns the query string of every listing request received.
func (p *Portal) Queries() []url.Values {
	p.lock.Lock()
	defer p.lock.Unlock()
	return append([]url.Values{}, p.queries...)
}

func (p *Portal) Logins() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.logins
}

func (p *Portal) Logouts() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.logouts
}

// ActiveSessions is the number of sessions logged in but not logged out.
func (p *Portal) ActiveSessions() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return len(p.sessions)
}

func status(override int) int {
	if override == 0 {
		return http.StatusOK
	}
	return override
}

const loginErrorPage = `<html><body>
<form action="/Usager/Profil/Connexion" method="post">
<div class="validation-summary-errors" data-valmsg-summary="true"><ul><li>%s</li>
</ul></div>
</form>
</body></html>`

const welcomePage = `<html><body><div class="dashboard">Bienvenue</div></body></html>`

func (p *Portal) handleLogin(w http.ResponseWriter, r *http.Request) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if code := status(p.loginStatus); code != http.StatusOK {
		w.WriteHeader(code)
		return
	}
	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("MaintenirConnexion") != "false" || r.PostForm.Get("FranceConnectActif") != "false" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("Identifiant") != p.Username || r.PostForm.Get("MotDePasse") != p.Password {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, loginErrorPage, html.EscapeString("Invalid credentials"))
		return
	}

	p.counter++
	p.logins++
	token := strconv.Itoa(p.counter)
	p.sessions[token] = true
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: token, Path: "/"})
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(welcomePage))
}

func (p *Portal) authenticated(r *http.Request) bool {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return p.sessions[cookie.Value]
}

func (p *Portal) handleListing(w http.ResponseWriter, r *http.Request) {
	p.lock.Lock()
	defer p.lock.Unlock()

	p.queries = append(p.queries, r.URL.Query())

	if code := status(p.fetchStatus); code != http.StatusOK {
		w.WriteHeader(code)
		return
	}
	if !p.authenticated(r) {
		// the real portal answers with the login form
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`<html><body><form action="/Usager/Profil/Connexion"></form></body></html>`))
		return
	}
	if p.rawListing != nil {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(*p.rawListing))
		return
	}

	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	take, err := strconv.Atoi(r.URL.Query().Get("take"))
	if err != nil || take <= 0 {
		take = len(p.rows)
	}
	page := []map[string]any{}
	for i := skip; i < len(p.rows) && i < skip+take; i++ {
		page = append(page, p.rows[i])
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{"data": page})
}

func (p *Portal) handleLogout(w http.ResponseWriter, r *http.Request) {
	p.lock.Lock()
	defer p.lock.Unlock()

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	cookie, err := r.Cookie(sessionCookie)
	if err == nil {
		delete(p.sessions, cookie.Value)
	}
	p.logouts++

	w.WriteHeader(status(p.logoutStatus))
}
