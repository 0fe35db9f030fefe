package handlers

import (
	"net/http"
	"strconv"

	"github.com/arenaops/tournament-hub/middleware"
	"github.com/arenaops/tournament-hub/models"
	"github.com/arenaops/tournament-hub/repositories"
	"github.com/arenaops/tournament-hub/services"
)

const maxBannerSize = 10 << 20 // 10MB

type TournamentHandler struct {
	tournamentService *services.TournamentService
}

func NewTournamentHandler(tournamentService *services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: tournamentService}
}

// Create creates a tournament owned by the authenticated user.
// @Summary      Create a tournament
// @Tags         tournaments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body services.CreateTournamentInput true "Tournament payload"
// @Success      201 {object} models.Tournament
// @Failure      400 {object} map[string]string
// @Router       /tournaments [post]
func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "invalid or missing authentication token")
		return
	}

	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.CreateTournament(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetByID returns a single tournament.
// @Summary      Get a tournament
// @Tags         tournaments
// @Produce      json
// @Param        id path int true "Tournament ID"
// @Success      200 {object} models.Tournament
// @Failure      404 {object} map[string]string
// @Router       /tournaments/{id} [get]
func (h *TournamentHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.GetTournamentByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// List returns tournaments, optionally filtered by query parameters.
// @Summary      List tournaments
// @Tags         tournaments
// @Produce      json
// @Param        status       query string false "Filter by status"
// @Param        game         query string false "Filter by game"
// @Param        organizer_id query int    false "Filter by organizer"
// @Param        limit        query int    false "Page size"
// @Param        offset       query int    false "Page offset"
// @Success      200 {array} models.Tournament
// @Router       /tournaments [get]
func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := listFilterFromQuery(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournaments, err := h.tournamentService.ListTournaments(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Update applies a partial update to a tournament.
// @Summary      Update a tournament
// @Tags         tournaments
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int true "Tournament ID"
// @Param        input body services.UpdateTournamentDetailsInput true "Fields to update"
// @Success      200 {object} models.Tournament
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /tournaments/{id} [patch]
func (h *TournamentHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input services.UpdateTournamentDetailsInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	tournament, err := h.tournamentService.UpdateTournamentDetails(r.Context(), id, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Delete removes a tournament and all of its registrations.
// @Summary      Delete a tournament
// @Tags         tournaments
// @Security     BearerAuth
// @Param        id path int true "Tournament ID"
// @Success      204 "No Content"
// @Failure      403 {object} map[string]string
// @Failure      404 {object} map[string]string
// @Router       /tournaments/{id} [delete]
func (h *TournamentHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.tournamentService.DeleteTournament(r.Context(), id, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UploadBanner replaces the tournament banner image.
// @Summary      Upload a tournament banner
// @Tags         tournaments
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id     path     int  true "Tournament ID"
// @Param        banner formData file true "Banner image"
// @Success      200 {object} models.Tournament
// @Failure      403 {object} map[string]string
// @Router       /tournaments/{id}/banner [put]
func (h *TournamentHandler) UploadBanner(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxBannerSize)
	if err := r.ParseMultipartForm(maxBannerSize); err != nil {
		errorResponse(w, r, http.StatusBadRequest, "could not parse multipart form, file may be too large")
		return
	}

	file, header, err := r.FormFile("banner")
	if err != nil {
		errorResponse(w, r, http.StatusBadRequest, "banner file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	tournament, err := h.tournamentService.UploadBanner(r.Context(), id, userID, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func listFilterFromQuery(r *http.Request) (repositories.ListTournamentsFilter, error) {
	var filter repositories.ListTournamentsFilter
	q := r.URL.Query()

	if statusStr := q.Get("status"); statusStr != "" {
		status := models.TournamentStatus(statusStr)
		filter.Status = &status
	}
	if game := q.Get("game"); game != "" {
		filter.Game = &game
	}
	if organizer := q.Get("organizer_id"); organizer != "" {
		id, err := strconv.Atoi(organizer)
		if err != nil || id <= 0 {
			return filter, errorInvalidQueryParam("organizer_id")
		}
		filter.OrganizerID = &id
	}
	if limitStr := q.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return filter, errorInvalidQueryParam("limit")
		}
		filter.Limit = limit
	}
	if offsetStr := q.Get("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return filter, errorInvalidQueryParam("offset")
		}
		filter.Offset = offset
	}
	return filter, nil
}
