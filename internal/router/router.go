// Package router exposes the HTTP surface of the authentication gateway:
// the login and registration forms, the form submission endpoints and the
// session-gated profile page. Every failure path answers with a redirect
// plus a one-time flash message; nothing here terminates the process.
package router

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/authgate/internal/auth"
	"github.com/patric-chuzhbe/authgate/internal/authenticator"
	"github.com/patric-chuzhbe/authgate/internal/logger"
	"github.com/patric-chuzhbe/authgate/internal/models"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.gohtml"))

// Flash messages shown after redirects.
const (
	MsgRegistered         = "User registered successfully. Please log in."
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgUsernameTaken      = "This username is already taken."
	MsgUsernameNotFound   = "Username not found."
	MsgIncorrectPassword  = "Incorrect password."
	MsgLoginFailed        = "Login failed. Please try again."
	MsgMustBeLoggedIn     = "You must be logged in to access the profile."
)

type sessionsKeeper interface {
	BindUser(sessionID string, userID int)
	UserID(sessionID string) (int, bool)
	SetFlash(sessionID, message string)
	PopFlash(sessionID string) string
	Unbind(sessionID string)
}

type authFlow interface {
	Register(ctx context.Context, username, password string) (int, error)
	Login(ctx context.Context, username, password string) (int, error)
	GetProfile(ctx context.Context, userID int) (models.Profile, error)
}

type pageData struct {
	Message string
	Profile models.Profile
}

// Router holds the handler dependencies: the auth flow service and the
// server-side session store.
type Router struct {
	svc      authFlow
	sessions sessionsKeeper
	validate *validator.Validate
}

func sessionIDFromRequest(request *http.Request) string {
	sessionID, _ := request.Context().Value(auth.SessionIDKey).(string)
	return sessionID
}

func (rt *Router) render(response http.ResponseWriter, templateName string, data pageData) {
	response.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(response, templateName, data); err != nil {
		logger.Log.Debugln("Error calling the `templates.ExecuteTemplate()`: ", zap.Error(err))
		http.Error(response, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (rt *Router) flashAndRedirect(
	response http.ResponseWriter,
	request *http.Request,
	message string,
	location string,
) {
	rt.sessions.SetFlash(sessionIDFromRequest(request), message)
	http.Redirect(response, request, location, http.StatusFound)
}

func (rt *Router) credentialsFromForm(request *http.Request) (models.CredentialsForm, error) {
	if err := request.ParseForm(); err != nil {
		return models.CredentialsForm{}, err
	}

	credentials := models.CredentialsForm{
		Username: request.PostFormValue("username"),
		Password: request.PostFormValue("password"),
	}

	return credentials, rt.validate.Struct(credentials)
}

// GetLoginPage renders the login form with any pending flash message.
func (rt *Router) GetLoginPage(response http.ResponseWriter, request *http.Request) {
	rt.render(response, "login.gohtml", pageData{
		Message: rt.sessions.PopFlash(sessionIDFromRequest(request)),
	})
}

// GetRegistrationPage renders the registration form with any pending flash message.
func (rt *Router) GetRegistrationPage(response http.ResponseWriter, request *http.Request) {
	rt.render(response, "inscription.gohtml", pageData{
		Message: rt.sessions.PopFlash(sessionIDFromRequest(request)),
	})
}

// PostRegister handles the registration form. On success the user is created
// but not logged in, and the browser is sent back to the login page.
func (rt *Router) PostRegister(response http.ResponseWriter, request *http.Request) {
	credentials, err := rt.credentialsFromForm(request)
	if err != nil {
		rt.flashAndRedirect(response, request, MsgRegistrationFailed, "/inscription")
		return
	}

	_, err = rt.svc.Register(request.Context(), credentials.Username, credentials.Password)
	switch {
	case err == nil:
		rt.flashAndRedirect(response, request, MsgRegistered, "/")
	case errors.Is(err, models.ErrUsernameTaken):
		rt.flashAndRedirect(response, request, MsgUsernameTaken, "/inscription")
	default:
		logger.Log.Debugln("Error calling the `rt.svc.Register()`: ", zap.Error(err))
		rt.flashAndRedirect(response, request, MsgRegistrationFailed, "/inscription")
	}
}

// PostLogin handles the login form. Success binds the current session to the
// user id and redirects to the profile page; every failure redirects back to
// the login page and leaves the session anonymous.
func (rt *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	credentials, err := rt.credentialsFromForm(request)
	if err != nil {
		rt.flashAndRedirect(response, request, MsgLoginFailed, "/")
		return
	}

	userID, err := rt.svc.Login(request.Context(), credentials.Username, credentials.Password)
	switch {
	case err == nil:
		rt.sessions.BindUser(sessionIDFromRequest(request), userID)
		http.Redirect(response, request, "/profil", http.StatusFound)
	case errors.Is(err, models.ErrUserNotFound):
		rt.flashAndRedirect(response, request, MsgUsernameNotFound, "/")
	case errors.Is(err, models.ErrIncorrectPassword):
		rt.flashAndRedirect(response, request, MsgIncorrectPassword, "/")
	default:
		logger.Log.Debugln("Error calling the `rt.svc.Login()`: ", zap.Error(err))
		rt.flashAndRedirect(response, request, MsgLoginFailed, "/")
	}
}

// GetProfilePage renders the profile of the authenticated user. Anonymous
// visitors and sessions referencing a deleted user are redirected to the
// login page; the latter additionally lose their user binding.
func (rt *Router) GetProfilePage(response http.ResponseWriter, request *http.Request) {
	sessionID := sessionIDFromRequest(request)

	userID, authenticated := rt.sessions.UserID(sessionID)
	if !authenticated {
		rt.flashAndRedirect(response, request, MsgMustBeLoggedIn, "/")
		return
	}

	profile, err := rt.svc.GetProfile(request.Context(), userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			// Unbind rather than Destroy: the session must survive to carry
			// the flash message through the redirect.
			rt.sessions.Unbind(sessionID)
		} else {
			logger.Log.Debugln("Error calling the `rt.svc.GetProfile()`: ", zap.Error(err))
		}
		rt.flashAndRedirect(response, request, MsgMustBeLoggedIn, "/")
		return
	}

	rt.render(response, "profil.gohtml", pageData{Profile: profile})
}

// New wires the handlers into a chi mux behind the logging and session
// middleware.
func New(
	svc authFlow,
	sessions sessionsKeeper,
	theAuthenticator authenticator.Authenticator,
) http.Handler {
	rt := &Router{
		svc:      svc,
		sessions: sessions,
		validate: validator.New(),
	}

	router := chi.NewRouter()
	router.Use(logger.WithLoggingHTTPMiddleware)
	router.Use(theAuthenticator.WithSession)

	router.Get(`/`, rt.GetLoginPage)
	router.Get(`/inscription`, rt.GetRegistrationPage)
	router.Post(`/inscription`, rt.PostRegister)
	router.Post(`/connexion`, rt.PostLogin)
	router.Get(`/profil`, rt.GetProfilePage)

	return router
}
