package fakebackend

import (
	"net/http"
	"strings"

	"github.com/jrsteele09/go-cowork-client/api"
)

func (m *Member) toAPI() *api.User {
	return &api.User{
		ID:        m.ID,
		Name:      m.Name,
		Email:     m.Email,
		Phone:     m.Phone,
		Company:   m.Company,
		AvatarURL: m.AvatarURL,
		Role:      string(m.Role),
	}
}

func (b *Backend) writeAuthResult(w http.ResponseWriter, status int, member *Member, message string) {
	token, err := b.tokens.CreateAccessToken(member)
	if err != nil {
		b.logger.Error().Err(err).Msg("fakebackend: create access token")
		writeError(w, http.StatusInternalServerError, "Server Error")
		return
	}
	writeData(w, status, api.AuthResult{Token: token, User: member.toAPI()}, message)
}

func (b *Backend) registerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		errs := validationErrors{}
		if strings.TrimSpace(req.Name) == "" {
			errs.add("name", "The name field is required.")
		}
		if !strings.Contains(req.Email, "@") {
			errs.add("email", "The email must be a valid email address.")
		} else if _, err := b.members.GetByEmail(req.Email); err == nil {
			errs.add("email", "The email has already been taken.")
		}
		if req.Password == "" {
			errs.add("password", "The password field is required.")
		}
		if req.PasswordConfirmation != "" && req.PasswordConfirmation != req.Password {
			errs.add("password", "The password confirmation does not match.")
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		member, err := b.AddMember(strings.TrimSpace(req.Name), req.Email, req.Password, RoleMember)
		if err != nil {
			b.logger.Error().Err(err).Msg("fakebackend: register")
			writeError(w, http.StatusInternalServerError, "Server Error")
			return
		}
		if req.Phone != "" {
			member, _ = b.members.Update(member.ID, func(m *Member) { m.Phone = req.Phone })
		}
		b.notify(member.ID, "Welcome", "Your account is ready.")
		b.writeAuthResult(w, http.StatusCreated, member, "Registration successful.")
	}
}

func (b *Backend) loginHandler(adminOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.LoginRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		errs := validationErrors{}
		if req.Email == "" {
			errs.add("email", "The email field is required.")
		}
		if req.Password == "" {
			errs.add("password", "The password field is required.")
		}
		if len(errs) > 0 {
			writeValidation(w, errs)
			return
		}

		member, err := b.members.GetByEmail(req.Email)
		if err != nil || !CheckPasswordHash(req.Password, member.PasswordHash) {
			errs.add("email", "These credentials do not match our records.")
			writeValidation(w, errs)
			return
		}
		if adminOnly && member.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "Admin access required.")
			return
		}
		member, _ = b.members.Update(member.ID, func(m *Member) { m.LastLogin = b.now() })
		b.writeAuthResult(w, http.StatusOK, member, "Login successful.")
	}
}

func otpDestination(phone, email string) string {
	if phone != "" {
		return phone
	}
	return strings.ToLower(email)
}

func (b *Backend) sendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SendOTPRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		destination := otpDestination(req.Phone, req.Email)
		if destination == "" {
			writeValidation(w, validationErrors{"phone": {"A phone number or email is required."}})
			return
		}
		code := b.otpCode()
		b.lock.Lock()
		b.otps[destination] = code
		b.lock.Unlock()
		b.logger.Info().Str("destination", destination).Str("code", code).Msg("fakebackend: one-time code issued")
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Verification code sent."})
	}
}

// verifyOTPHandler signs in the owner of the destination, creating an account
// the first time a destination is verified.
func (b *Backend) verifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.VerifyOTPRequest
		if !decodeJSON(r, &req) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		destination := otpDestination(req.Phone, req.Email)
		b.lock.Lock()
		code, ok := b.otps[destination]
		if ok && code == req.OTP {
			delete(b.otps, destination)
		}
		b.lock.Unlock()
		if !ok || code != req.OTP {
			writeValidation(w, validationErrors{"otp": {"The verification code is invalid."}})
			return
		}

		var member *Member
		var err error
		if req.Phone != "" {
			member, err = b.members.GetByPhone(req.Phone)
		} else {
			member, err = b.members.GetByEmail(req.Email)
		}
		if err != nil {
			member = &Member{Email: req.Email, Phone: req.Phone, Role: RoleMember, DateJoined: b.now()}
			b.members.Upsert(member)
			b.account(member.ID)
		}
		b.writeAuthResult(w, http.StatusOK, member, "Verification successful.")
	}
}

func (b *Backend) logoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jti, _ := r.Context().Value(contextKeyJTI).(string); jti != "" {
			b.tokens.Revoke(jti)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Logged out."})
	}
}

func (b *Backend) profileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, memberFrom(r).toAPI(), "")
	}
}

// profileUpdateHandler accepts JSON, or multipart/form-data carrying an
// avatar file.
func (b *Backend) profileUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update api.ProfileUpdate
		var avatarURL string
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(4 << 20); err != nil {
				writeError(w, http.StatusBadRequest, "Malformed multipart body.")
				return
			}
			for field, target := range map[string]**string{"name": &update.Name, "phone": &update.Phone, "company": &update.Company} {
				if values, ok := r.MultipartForm.Value[field]; ok && len(values) > 0 {
					value := values[0]
					*target = &value
				}
			}
			if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
				avatarURL = "/avatars/" + memberFrom(r).ID + "/" + files[0].Filename
			}
		} else if r.Method == http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed.")
			return
		} else if !decodeJSON(r, &update) {
			writeError(w, http.StatusBadRequest, "Malformed request body.")
			return
		}
		if update.Name != nil && strings.TrimSpace(*update.Name) == "" {
			writeValidation(w, validationErrors{"name": {"The name field cannot be empty."}})
			return
		}

		member, err := b.members.Update(memberFrom(r).ID, func(m *Member) {
			if update.Name != nil {
				m.Name = strings.TrimSpace(*update.Name)
			}
			if update.Phone != nil {
				m.Phone = *update.Phone
			}
			if update.Company != nil {
				m.Company = *update.Company
			}
			if avatarURL != "" {
				m.AvatarURL = avatarURL
			}
		})
		if err != nil {
			writeError(w, http.StatusNotFound, "Not found.")
			return
		}
		writeData(w, http.StatusOK, member.toAPI(), "Profile updated.")
	}
}
