package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/groceryguru/internal/pantry"
	ws "github.com/dukerupert/groceryguru/internal/websocket"
)

// PantryHandler serves lists, list items and pantry items.
type PantryHandler struct {
	svc    *pantry.Service
	hub    Broadcaster
	logger *slog.Logger
}

func NewPantryHandler(svc *pantry.Service, hub Broadcaster, logger *slog.Logger) *PantryHandler {
	return &PantryHandler{svc: svc, hub: orNop(hub), logger: logger}
}

type listItemRequest struct {
	List     string   `json:"list"`
	Name     string   `json:"name"`
	Quantity quantity `json:"quantity"`
}

type pantryItemRequest struct {
	Name       string   `json:"name"`
	Count      quantity `json:"count"`
	Expiration string   `json:"expiration"`
	Notes      string   `json:"notes"`
}

type moveRequest struct {
	Expiration string `json:"expiration"`
}

func (h *PantryHandler) Lists(w http.ResponseWriter, r *http.Request) {
	lists, err := h.svc.Lists(r.Context(), personID(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "list lists")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(lists))
}

func (h *PantryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListItems(r.Context(), personID(r), r.PathValue("name"))
	if err != nil {
		writeServiceError(w, h.logger, err, "list items")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

func (h *PantryHandler) CreateListItem(w http.ResponseWriter, r *http.Request) {
	var req listItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	item, err := h.svc.AddListItem(r.Context(), owner, req.List, req.Name, int(req.Quantity))
	if err != nil {
		writeServiceError(w, h.logger, err, "add list item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("list_item", "created", item.ID, map[string]any{"list_id": item.ListID}))
	writeJSON(w, http.StatusCreated, item)
}

func (h *PantryHandler) GetListItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, err := h.svc.GetListItem(r.Context(), personID(r), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get list item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) UpdateListItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req listItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	item, err := h.svc.UpdateListItem(r.Context(), owner, id, int(req.Quantity))
	if err != nil {
		writeServiceError(w, h.logger, err, "update list item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("list_item", "updated", item.ID, map[string]any{"list_id": item.ListID}))
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) DeleteListItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	owner := personID(r)
	if err := h.svc.SoftDeleteListItem(r.Context(), owner, id); err != nil {
		writeServiceError(w, h.logger, err, "delete list item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("list_item", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

// MoveToPantry checks a list item off into the pantry.
func (h *PantryHandler) MoveToPantry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req moveRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	out, err := h.svc.MoveListItemToPantry(r.Context(), owner, id, req.Expiration)
	if err != nil {
		writeServiceError(w, h.logger, err, "move list item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("list_item", "deleted", id, nil))
	h.broadcastStock(owner, out)
	writeJSON(w, http.StatusOK, out)
}

func (h *PantryHandler) broadcastStock(owner int64, out *pantry.Outcome) {
	action := "created"
	if out.Merged {
		action = "merged"
	}
	h.hub.BroadcastTo(owner, ws.NewMessage("inventory_item", action, out.Item.ID, map[string]any{"count": out.Item.Count}))
}

func (h *PantryHandler) PantryItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.PantryItems(r.Context(), personID(r))
	if err != nil {
		writeServiceError(w, h.logger, err, "list pantry")
		return
	}
	writeJSON(w, http.StatusOK, nonNil(items))
}

// CreatePantryItem responds 200 when the addition merged into an existing
// row and 201 when it created one.
func (h *PantryHandler) CreatePantryItem(w http.ResponseWriter, r *http.Request) {
	var req pantryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	out, err := h.svc.AddPantryItem(r.Context(), owner, pantry.NewPantryItem{
		Name:       req.Name,
		Count:      int(req.Count),
		Expiration: req.Expiration,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "add pantry item")
		return
	}

	h.broadcastStock(owner, out)
	status := http.StatusCreated
	if out.Merged {
		status = http.StatusOK
	}
	writeJSON(w, status, out)
}

func (h *PantryHandler) GetPantryItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	item, err := h.svc.GetPantryItem(r.Context(), personID(r), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get pantry item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) UpdatePantryItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req pantryItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	owner := personID(r)
	item, err := h.svc.UpdateInventoryItem(r.Context(), owner, id, pantry.PantryUpdate{
		Count:      int(req.Count),
		Expiration: req.Expiration,
		Notes:      req.Notes,
	})
	if err != nil {
		writeServiceError(w, h.logger, err, "update pantry item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("inventory_item", "updated", item.ID, nil))
	writeJSON(w, http.StatusOK, item)
}

func (h *PantryHandler) DeletePantryItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	owner := personID(r)
	if err := h.svc.SoftDeleteInventoryItem(r.Context(), owner, id); err != nil {
		writeServiceError(w, h.logger, err, "delete pantry item")
		return
	}

	h.hub.BroadcastTo(owner, ws.NewMessage("inventory_item", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}
