// Package web serves the operator-facing HTML pages: the one-time code login
// and the settings form bound to an authenticated session.
package web

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/stb-lab/websettings/session"
	"github.com/stb-lab/websettings/settings"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// UI holds the dependencies of the browser handlers.
type UI struct {
	engine  *session.Engine
	logger  *slog.Logger
	limiter *redeemRateLimiter
}

// Option configures the UI instance.
type Option func(*UI)

// WithLogger sets the structured logger.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(u *UI) {
		u.logger = logger
	}
}

// New creates the browser UI around the given engine.
func New(engine *session.Engine, opts ...Option) *UI {
	u := &UI{
		engine:  engine,
		limiter: newRedeemRateLimiter(),
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return u
}

// Router returns a chi.Router with the browser routes mounted at the root.
func (u *UI) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", u.LoginPage)
	r.Post("/", u.Redeem)
	r.Get("/settings", u.SettingsPage)
	r.Post("/settings", u.SubmitSettings)
	return r
}

type loginView struct {
	T     messages
	Error string
}

type settingsView struct {
	T      messages
	Error  string
	CSRF   string
	Fields []fieldView
}

// fieldView flattens one settings.Item into what the form template needs.
// Type discriminates which input control the template renders.
type fieldView struct {
	Name    string
	Title   string
	Type    string
	Text    string
	Number  uint32
	Min     uint32
	Max     uint32
	Checked bool
	Options []optionView
}

type optionView struct {
	Value    string
	Title    string
	Selected bool
}

func fieldViews(items []settings.Item) []fieldView {
	fields := make([]fieldView, 0, len(items))
	for _, it := range items {
		f := fieldView{Name: it.Name, Title: it.Title, Type: string(it.Value.Type())}
		switch v := it.Value.(type) {
		case *settings.StringValue:
			f.Text = v.Value
		case *settings.IntegerValue:
			f.Number, f.Min, f.Max = v.Value, v.Min, v.Max
		case *settings.SelectionValue:
			for _, opt := range v.Options {
				f.Options = append(f.Options, optionView{
					Value:    opt.Value,
					Title:    opt.Title,
					Selected: opt.Value == v.Value,
				})
			}
		case *settings.BoolValue:
			f.Checked = v.Value
		}
		fields = append(fields, f)
	}
	return fields
}

// LoginPage handles GET /.
func (u *UI) LoginPage(w http.ResponseWriter, r *http.Request) {
	u.renderLogin(w, r, http.StatusOK, "")
}

// Redeem handles POST /: exchanges the one-time code for a session cookie.
func (u *UI) Redeem(w http.ResponseWriter, r *http.Request) {
	msgs := messagesFor(r)
	ip := clientIP(r)

	if blocked, _ := u.limiter.check(ip); blocked {
		u.logger.Warn("code redemption rate limited", slog.String("client_ip", ip))
		u.renderLogin(w, r, http.StatusTooManyRequests, msgs.ErrTooManyAttempts)
		return
	}

	if err := r.ParseForm(); err != nil {
		u.renderLogin(w, r, http.StatusBadRequest, msgs.ErrCodeRequired)
		return
	}
	code := r.PostFormValue("code")
	if code == "" {
		u.renderLogin(w, r, http.StatusBadRequest, msgs.ErrCodeRequired)
		return
	}

	secret, err := u.engine.Auth(code)
	if err != nil {
		u.limiter.recordFailure(ip)
		u.logger.Warn("code redemption failed",
			slog.String("reason", err.Error()),
			slog.String("client_ip", ip))
		u.renderLogin(w, r, http.StatusOK, msgs.authError(err))
		return
	}
	u.limiter.recordSuccess(ip)

	writeSessionCookie(w, r, string(secret))
	writeCSRFCookie(w, r)
	http.Redirect(w, r, "/settings", http.StatusFound)
}

// SettingsPage handles GET /settings.
func (u *UI) SettingsPage(w http.ResponseWriter, r *http.Request) {
	secret, ok := secretFromCookie(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	items, err := u.engine.Settings(secret)
	if err != nil {
		clearSessionCookie(w, r)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	u.renderSettings(w, r, http.StatusOK, "", items)
}

// SubmitSettings handles POST /settings.
func (u *UI) SubmitSettings(w http.ResponseWriter, r *http.Request) {
	msgs := messagesFor(r)

	secret, ok := secretFromCookie(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if !checkCSRF(r) {
		http.Error(w, "invalid CSRF token", http.StatusForbidden)
		return
	}

	// Checkboxes post a hidden "" twin plus "on" when checked; the last
	// value submitted for a name wins.
	values := make(map[string]string, len(r.PostForm))
	for name, vs := range r.PostForm {
		if name == csrfFieldName || len(vs) == 0 {
			continue
		}
		values[name] = vs[len(vs)-1]
	}

	err := u.engine.Update(secret, values)
	switch {
	case err == nil:
		u.render(w, "submitted.html", http.StatusOK, loginView{T: msgs})
	case errors.Is(err, settings.ErrBadValue):
		items, serr := u.engine.Settings(secret)
		if serr != nil {
			clearSessionCookie(w, r)
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		u.renderSettings(w, r, http.StatusBadRequest, msgs.ErrBadValue+": "+err.Error(), items)
	case errors.Is(err, session.ErrInvalidSession):
		clearSessionCookie(w, r)
		http.Redirect(w, r, "/", http.StatusFound)
	default:
		u.logger.Error("settings update failed", slog.String("error", err.Error()))
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (u *UI) renderLogin(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	u.render(w, "login.html", status, loginView{T: messagesFor(r), Error: errMsg})
}

func (u *UI) renderSettings(w http.ResponseWriter, r *http.Request, status int, errMsg string, items []settings.Item) {
	u.render(w, "settings.html", status, settingsView{
		T:      messagesFor(r),
		Error:  errMsg,
		CSRF:   ensureCSRFCookie(w, r),
		Fields: fieldViews(items),
	})
}

func (u *UI) render(w http.ResponseWriter, name string, status int, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplates.ExecuteTemplate(w, name, data); err != nil {
		u.logger.Error("template render failed",
			slog.String("template", name),
			slog.String("error", err.Error()))
	}
}
