package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"assetd/internal/events"
	"assetd/internal/models"
	"assetd/internal/policy"
	"assetd/internal/store"
)

type assetListData struct {
	User       *models.User
	Title      string
	Assets     []models.Asset
	Categories []string
	Statuses   []models.AssetStatus
	Filter     store.Filter
}

type assetDetailData struct {
	User      *models.User
	Title     string
	Asset     models.Asset
	CanManage bool
}

type attributeRow struct {
	Index int
	ID    string
	Name  string
	Value string
}

type assetFormData struct {
	User         *models.User
	Title        string
	Action       string
	Errors       store.ValidationError
	Name         string
	Category     string
	Status       models.AssetStatus
	Depreciation string
	Assignee     string
	Statuses     []models.AssetStatus
	Users        []models.User
	Attributes   []attributeRow
	NextIndex    int
}

type assetConfirmData struct {
	User  *models.User
	Title string
	Asset models.Asset
}

type assignFormData struct {
	User   *models.User
	Title  string
	Asset  models.Asset
	Users  []models.User
	Errors store.ValidationError
}

func (h *Handler) listAssets(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())

	q := r.URL.Query()
	filter := store.Filter{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   models.AssetStatus(q.Get("status")),
	}

	assets, err := h.store.ListAssets(r.Context(), user, filter)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	data := assetListData{
		User:       &user,
		Title:      "Assets",
		Assets:     assets,
		Categories: categories,
		Statuses:   models.AssetStatuses(),
		Filter:     filter,
	}
	if err := h.renderer.Render(w, http.StatusOK, "asset_list.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}

func (h *Handler) assetDetail(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}

	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanView(user, asset); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	data := assetDetailData{
		User:      &user,
		Title:     asset.Name,
		Asset:     asset,
		CanManage: policy.CanManage(user, asset).Allowed(),
	}
	if err := h.renderer.Render(w, http.StatusOK, "asset_detail.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}

func (h *Handler) createAssetForm(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	if d := policy.CanCreate(user); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}
	h.renderAssetForm(w, r, http.StatusOK, "New asset", "/asset/create", store.AssetInput{}, nil)
}

func (h *Handler) createAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	if d := policy.CanCreate(user); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	in, errs := parseAssetForm(r)
	if errs == nil {
		errs = in.Validate()
	}
	if errs != nil {
		h.renderAssetForm(w, r, http.StatusUnprocessableEntity, "New asset", "/asset/create", in, errs)
		return
	}

	asset, err := h.store.CreateAsset(r.Context(), user, in)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	assetOps.WithLabelValues("create").Inc()
	h.publish(r, events.SubjectAssetCreated, map[string]any{
		"asset_id": asset.ID,
		"name":     asset.Name,
		"actor":    user.Username,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) editAssetForm(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanManage(user, asset); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	action := fmt.Sprintf("/asset/%s/edit", asset.ID)
	h.renderAssetForm(w, r, http.StatusOK, "Edit "+asset.Name, action, inputFromAsset(asset), nil)
}

func (h *Handler) editAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanManage(user, asset); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	action := fmt.Sprintf("/asset/%s/edit", asset.ID)
	in, errs := parseAssetForm(r)
	if errs == nil {
		errs = in.Validate()
	}
	if errs != nil {
		h.renderAssetForm(w, r, http.StatusUnprocessableEntity, "Edit "+asset.Name, action, in, errs)
		return
	}

	updated, err := h.store.UpdateAsset(r.Context(), user, id, in)
	if err != nil {
		var verr store.ValidationError
		if errors.As(err, &verr) {
			h.renderAssetForm(w, r, http.StatusUnprocessableEntity, "Edit "+asset.Name, action, in, verr)
			return
		}
		h.storeError(w, r, err)
		return
	}

	assetOps.WithLabelValues("update").Inc()
	h.publish(r, events.SubjectAssetUpdated, map[string]any{
		"asset_id": updated.ID,
		"name":     updated.Name,
		"actor":    user.Username,
	})
	http.Redirect(w, r, fmt.Sprintf("/asset/%s/", updated.ID), http.StatusSeeOther)
}

func (h *Handler) deleteAssetForm(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanManage(user, asset); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	data := assetConfirmData{User: &user, Title: "Delete " + asset.Name, Asset: asset}
	if err := h.renderer.Render(w, http.StatusOK, "asset_confirm_delete.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}

func (h *Handler) deleteAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanManage(user, asset); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	if err := h.store.DeleteAsset(r.Context(), user, id); err != nil {
		h.storeError(w, r, err)
		return
	}

	assetOps.WithLabelValues("delete").Inc()
	h.publish(r, events.SubjectAssetDeleted, map[string]any{
		"asset_id": id,
		"name":     asset.Name,
		"actor":    user.Username,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) duplicateAssetForm(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	source, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanView(user, source); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}
	if d := policy.CanCreate(user); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	action := fmt.Sprintf("/asset/%s/duplicate", source.ID)
	h.renderAssetForm(w, r, http.StatusOK, "Duplicate "+source.Name, action, store.DuplicateInput(source), nil)
}

func (h *Handler) duplicateAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	source, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}
	if d := policy.CanCreate(user); !d.Allowed() {
		h.forbidden(w, r, d.Reason())
		return
	}

	action := fmt.Sprintf("/asset/%s/duplicate", source.ID)
	in, errs := parseAssetForm(r)
	// Duplicates always start unassigned, whatever the form says.
	in.AssignedToID = nil
	if errs == nil {
		errs = in.Validate()
	}
	if errs != nil {
		h.renderAssetForm(w, r, http.StatusUnprocessableEntity, "Duplicate "+source.Name, action, in, errs)
		return
	}

	copyAsset, err := h.store.CreateAsset(r.Context(), user, in)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	assetOps.WithLabelValues("duplicate").Inc()
	h.publish(r, events.SubjectAssetCreated, map[string]any{
		"asset_id": copyAsset.ID,
		"name":     copyAsset.Name,
		"actor":    user.Username,
	})
	http.Redirect(w, r, fmt.Sprintf("/asset/%s/", copyAsset.ID), http.StatusSeeOther)
}

func (h *Handler) assignAssetForm(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	data := assignFormData{User: &user, Title: "Assign " + asset.Name, Asset: asset, Users: users}
	if err := h.renderer.Render(w, http.StatusOK, "assign_form.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}

func (h *Handler) assignAsset(w http.ResponseWriter, r *http.Request) {
	user, _ := userFrom(r.Context())
	id, ok := assetID(r)
	if !ok {
		h.notFound(w, r)
		return
	}
	asset, err := h.store.GetAsset(r.Context(), id)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, http.StatusBadRequest, "Bad request", "Malformed form submission.")
		return
	}
	assigneeID, err := uuid.Parse(r.PostFormValue("user_id"))
	if err != nil {
		users, lerr := h.store.ListUsers(r.Context())
		if lerr != nil {
			h.internalError(w, r, lerr)
			return
		}
		data := assignFormData{
			User:   &user,
			Title:  "Assign " + asset.Name,
			Asset:  asset,
			Users:  users,
			Errors: store.ValidationError{"user_id": "pick a user"},
		}
		if err := h.renderer.Render(w, http.StatusUnprocessableEntity, "assign_form.tmpl", data); err != nil {
			h.internalError(w, r, err)
		}
		return
	}

	updated, err := h.store.AssignAsset(r.Context(), user, id, assigneeID)
	if err != nil {
		h.storeError(w, r, err)
		return
	}

	assetOps.WithLabelValues("assign").Inc()
	h.publish(r, events.SubjectAssetAssigned, map[string]any{
		"asset_id": updated.ID,
		"assignee": assigneeID,
		"actor":    user.Username,
	})
	http.Redirect(w, r, fmt.Sprintf("/asset/%s/", updated.ID), http.StatusSeeOther)
}

func (h *Handler) renderAssetForm(w http.ResponseWriter, r *http.Request, status int, title, action string, in store.AssetInput, errs store.ValidationError) {
	user, _ := userFrom(r.Context())
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	data := assetFormData{
		User:     &user,
		Title:    title,
		Action:   action,
		Errors:   errs,
		Name:     in.Name,
		Category: in.Category,
		Status:   in.Status,
		Statuses: models.AssetStatuses(),
		Users:    users,
	}
	if data.Status == "" {
		data.Status = models.StatusOperational
	}
	if in.Depreciation != nil {
		data.Depreciation = in.Depreciation.Format("2006-01-02")
	}
	if in.AssignedToID != nil {
		data.Assignee = in.AssignedToID.String()
	}
	for i, attr := range in.Attributes {
		row := attributeRow{Index: i, Name: attr.Name, Value: attr.Value}
		if attr.ID != uuid.Nil {
			row.ID = attr.ID.String()
		}
		data.Attributes = append(data.Attributes, row)
	}
	data.NextIndex = len(data.Attributes)

	if err := h.renderer.Render(w, status, "asset_form.tmpl", data); err != nil {
		h.internalError(w, r, err)
	}
}

// parseAssetForm decodes the submitted asset form, including the indexed
// attribute rows (attr-0-name, attr-0-value, ...).
func parseAssetForm(r *http.Request) (store.AssetInput, store.ValidationError) {
	errs := store.ValidationError{}
	if err := r.ParseForm(); err != nil {
		return store.AssetInput{}, store.ValidationError{"form": "malformed submission"}
	}

	in := store.AssetInput{
		Name:     r.PostFormValue("name"),
		Category: r.PostFormValue("category"),
		Status:   models.AssetStatus(r.PostFormValue("status")),
	}

	if v := strings.TrimSpace(r.PostFormValue("depreciation")); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			errs["depreciation"] = "must be a date like 2026-01-31"
		} else {
			in.Depreciation = &t
		}
	}
	if v := r.PostFormValue("assigned_to"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			errs["assigned_to"] = "unknown user"
		} else {
			in.AssignedToID = &id
		}
	}

	for i := 0; r.PostForm.Has(attrKey(i, "name")) || r.PostForm.Has(attrKey(i, "id")); i++ {
		row := store.AttributeInput{
			Name:   r.PostFormValue(attrKey(i, "name")),
			Value:  r.PostFormValue(attrKey(i, "value")),
			Delete: r.PostFormValue(attrKey(i, "delete")) == "on",
		}
		if v := r.PostFormValue(attrKey(i, "id")); v != "" {
			if id, err := uuid.Parse(v); err == nil {
				row.ID = id
			}
		}
		in.Attributes = append(in.Attributes, row)
	}

	if len(errs) == 0 {
		return in, nil
	}
	return in, errs
}

func attrKey(i int, field string) string {
	return fmt.Sprintf("attr-%d-%s", i, field)
}

func inputFromAsset(a models.Asset) store.AssetInput {
	in := store.AssetInput{
		Name:         a.Name,
		Category:     a.Category,
		Status:       a.Status,
		Depreciation: a.Depreciation,
		AssignedToID: a.AssignedToID,
	}
	for _, attr := range a.Attributes {
		in.Attributes = append(in.Attributes, store.AttributeInput{ID: attr.ID, Name: attr.Name, Value: attr.Value})
	}
	return in
}

func (h *Handler) publish(r *http.Request, subject string, payload map[string]any) {
	if err := h.events.Publish(r.Context(), subject, payload); err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("publish event")
	}
}
