package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/StricklySoft/stricklysoft-auth/pkg/auth"
	sserr "github.com/StricklySoft/stricklysoft-auth/pkg/errors"
)

// Response messages.
const (
	MessageRegistered = "User registered successfully"
	MessageLoggedOut  = "Logged out successfully"
	MessageGreeting   = "Hello from the auth service! & Welcome"
)

// Permissions guarding the message routes.
const (
	ResourceMessages = "messages"
	ActionRead       = "read"
	ActionWrite      = "write"
)

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued pair and the account it belongs to.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	User         UserSummary `json:"user"`
}

// UserSummary is the public view of an account.
type UserSummary struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func summarize(user auth.User) UserSummary {
	identity := user.Identity()
	return UserSummary{
		ID:        identity.ID,
		Name:      identity.DisplayName,
		Email:     identity.Email,
		Role:      identity.Role,
		Roles:     identity.Authorities(),
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
}

// RegisterRequest is the body of POST /api/auth/register. Role is ignored
// unless the server allows role selection.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// RefreshRequest accepts the token under either spelling.
type RefreshRequest struct {
	RefreshToken      string `json:"refreshToken"`
	RefreshTokenSnake string `json:"refresh_token"`
}

func (r RefreshRequest) token() string {
	if t := strings.TrimSpace(r.RefreshToken); t != "" {
		return t
	}
	return strings.TrimSpace(r.RefreshTokenSnake)
}

// MessageBody is the message payload, also used for plain acknowledgements.
type MessageBody struct {
	Message string `json:"message"`
}

// Login handles POST /api/auth/login.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeRequest(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	res, err := a.svc.Login(r.Context(), auth.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		User:         summarize(res.User),
	})
}

// Register handles POST /api/auth/register. It does not log the new
// account in.
func (a *API) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeRequest(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	_, err := a.svc.Register(r.Context(), auth.Registration{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, MessageBody{Message: MessageRegistered})
}

// Refresh handles POST /api/auth/refresh-token. Every token failure is
// reported with one message; the code still distinguishes them.
func (a *API) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := decodeRequest(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	pair, err := a.svc.Refresh(r.Context(), req.token())
	if err != nil {
		if sserr.IsAuthentication(err) {
			a.logger.InfoContext(r.Context(), "api: refresh rejected", "code", sserr.GetCode(err))
			err = sserr.Wrap(err, sserr.GetCode(err), auth.MessageRefreshInvalid)
		}
		a.writeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, pair)
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so the
// client discards them and the server only acknowledges.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, http.StatusOK, MessageBody{Message: MessageLoggedOut})
}

// CurrentUser handles GET /api/user. The account is reloaded so the
// summary carries its timestamps.
func (a *API) CurrentUser(w http.ResponseWriter, r *http.Request) {
	identity := auth.MustIdentityFromContext(r.Context())
	user, err := a.svc.CurrentUser(r.Context(), identity.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, summarize(user))
}

// GetMessage handles GET /api/message and needs messages:read.
func (a *API) GetMessage(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, http.StatusOK, MessageBody{Message: MessageGreeting})
}

// PostMessage handles POST /api/message by echoing the body's message. It
// needs messages:write.
func (a *API) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageBody
	if err := decodeRequest(w, r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	returnJSON(w, http.StatusOK, req)
}

// Healthz handles GET /healthz.
func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	if a.health != nil {
		if err := a.health.Health(r.Context()); err != nil {
			a.logger.WarnContext(r.Context(), "api: health check failed", "error", err)
			returnJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	returnJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
