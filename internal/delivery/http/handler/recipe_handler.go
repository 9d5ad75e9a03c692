package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/user/recipe-service/internal/delivery/http/response"
	"github.com/user/recipe-service/internal/entity"
	"github.com/user/recipe-service/internal/repository"
)

func (h *Handler) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := entity.RecipeFilter{Query: strings.TrimSpace(q.Get("q"))}

	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil || filter.Limit < 0 {
			h.writeJSONError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil || filter.Offset < 0 {
			h.writeJSONError(w, "Invalid offset", http.StatusBadRequest)
			return
		}
	}

	records, err := h.recipes.List(r.Context(), filter)
	if err != nil {
		slog.Error("Failed to list recipes", "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	resp := response.RecipeListResponse{Recipes: make([]response.RecipeResponse, 0, len(records))}
	for _, rec := range records {
		resp.Recipes = append(resp.Recipes, response.NewRecipeResponse(rec, false))
	}
	resp.Count = len(resp.Recipes)
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	rec, err := h.recipes.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Recipe not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to get recipe", "id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.NewRecipeResponse(rec, true))
}

func (h *Handler) HandleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := h.recipeID(w, r)
	if !ok {
		return
	}

	if err := h.recipes.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			h.writeJSONError(w, "Recipe not found", http.StatusNotFound)
			return
		}
		slog.Error("Failed to delete recipe", "id", id, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, response.DeleteRecipeResponse{Success: true, DeletedID: id})
}

func (h *Handler) recipeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeJSONError(w, "Invalid recipe id", http.StatusBadRequest)
		return "", false
	}
	return id, true
}
