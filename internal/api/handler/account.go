package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/climatica/climatica/internal/account"
	"github.com/climatica/climatica/internal/api/middleware"
	"github.com/climatica/climatica/internal/api/models"
	"github.com/climatica/climatica/internal/api/response"
	"github.com/climatica/climatica/internal/auth"
)

// AccountHandler handles registration, login and account endpoints.
type AccountHandler struct {
	accounts *account.Service
	auth     *auth.Service
	log      zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *account.Service, authService *auth.Service, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		auth:     authService,
		log:      log,
	}
}

// Register handles POST /registration - create an account.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.GetAccountID(r.Context()); ok {
		response.Forbidden(w, r, "authenticated accounts cannot register new accounts")
		return
	}

	var input models.RegistrationRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.accounts.Register(r.Context(), &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.Created(w, r, "/accounts/"+strconv.FormatInt(created.ID, 10), created)
}

// Login handles POST /login - exchange credentials for an access token.
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	token, err := h.auth.Login(r.Context(), &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, token)
}

// SearchAccounts handles GET /accounts/search - page through accounts.
func (h *AccountHandler) SearchAccounts(w http.ResponseWriter, r *http.Request) {
	from, size, err := page(r)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	filter := models.AccountSearch{
		FirstName: optionalQuery(r, "firstName"),
		LastName:  optionalQuery(r, "lastName"),
		Email:     optionalQuery(r, "email"),
	}

	found, err := h.accounts.Search(r.Context(), filter, from, size)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, found)
}

// GetAccount handles GET /accounts/{accountId} - get an account.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	a, err := h.accounts.Get(r.Context(), id)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, a)
}

// UpdateAccount handles PUT /accounts/{accountId} - replace an account's profile.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	var input models.AccountUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.accounts.Update(r.Context(), actorID(r.Context()), id, &input)
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteAccount handles DELETE /accounts/{accountId} - delete an account.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "accountId")
	if err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	if err := h.accounts.Delete(r.Context(), actorID(r.Context()), id); err != nil {
		response.FromError(w, r, h.log, err)
		return
	}

	response.NoContent(w, r)
}
