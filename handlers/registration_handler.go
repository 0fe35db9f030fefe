package handlers

import (
	"net/http"

	"github.com/arenaops/tournament-hub/middleware"
	"github.com/arenaops/tournament-hub/models"
	"github.com/arenaops/tournament-hub/services"
)

type RegistrationHandler struct {
	registrationService *services.RegistrationService
}

func NewRegistrationHandler(registrationService *services.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{registrationService: registrationService}
}

// Submit signs the authenticated user up for a tournament.
// @Summary      Register for a tournament
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        tournamentID path int true "Tournament ID"
// @Param        input body services.SubmitRegistrationInput true "Registration payload"
// @Success      201 {object} models.Registration
// @Failure      409 {object} map[string]string
// @Router       /tournaments/{tournamentID}/registrations [post]
func (h *RegistrationHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid or missing authentication token")
		return
	}

	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SubmitRegistrationInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.SubmitRegistration(r.Context(), tournamentID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List returns the registrations for a tournament, newest first.
// @Summary      List tournament registrations
// @Tags         registrations
// @Produce      json
// @Param        tournamentID path int true "Tournament ID"
// @Success      200 {array} models.Registration
// @Failure      404 {object} map[string]string
// @Router       /tournaments/{tournamentID}/registrations [get]
func (h *RegistrationHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registrations, err := h.registrationService.ListTournamentRegistrations(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registrations": registrations}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateStatus moves a registration between pending, approved and rejected.
// @Summary      Update registration status
// @Tags         registrations
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Registration ID"
// @Param        input body object true "New status"
// @Success      200 {object} models.Registration
// @Failure      403 {object} map[string]string
// @Failure      409 {object} map[string]string
// @Router       /registrations/{id} [patch]
func (h *RegistrationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid or missing authentication token")
		return
	}

	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status string `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	registration, err := h.registrationService.UpdateRegistrationStatus(
		r.Context(), id, userID, models.RegistrationStatus(input.Status))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
