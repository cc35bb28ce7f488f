package http

import (
	"net/http"

	"github.com/vncsmyrnk/evaluation/internal/core/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleLoginRequest struct {
	Credential string `json:"credential"`
}

type clientLoginRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setAccessTokenCookie(w, session.Token)
	writeJSON(w, r, http.StatusOK, session)
}

// LoginWithGoogle accepts the Google ID token either as the credential
// form value posted by the sign-in button or as a JSON body.
func (h *Handler) LoginWithGoogle(w http.ResponseWriter, r *http.Request) {
	credential := r.FormValue("credential")
	if credential == "" {
		var req googleLoginRequest
		if err := decode(r, &req); err != nil {
			h.writeError(w, r, err)
			return
		}
		credential = req.Credential
	}
	if credential == "" {
		h.writeError(w, r, domain.Errorf(domain.ErrValidation, "Missing credential."))
		return
	}

	session, err := h.svc.Auth.LoginWithGoogle(r.Context(), credential)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	setAccessTokenCookie(w, session.Token)
	writeJSON(w, r, http.StatusOK, session)
}

func (h *Handler) LoginClient(w http.ResponseWriter, r *http.Request) {
	var req clientLoginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	session, err := h.svc.Clients.LoginClient(r.Context(), req.Email, req.Code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, session)
}

func setAccessTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     "access_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}
