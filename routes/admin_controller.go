package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/model"
	"github.com/mbolis/formdesk/routes/middlewares"
)

// urlID reads an id path parameter, answering 400 itself when it is malformed.
func urlID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	id := chi.URLParam(r, name)
	err := database.CheckID(id)
	if err != nil {
		httpx.LogError(w, r, "request.get_url_param."+name, err)
		return "", false
	}
	return id, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := render.DecodeJSON(r.Body, v)
	if err != nil {
		httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "request.parse_body", "Invalid request body")
		return false
	}
	return true
}

func CreateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middlewares.IdentityFrom(r.Context())

		var in model.FormInput
		if !decodeBody(w, r, &in) {
			return
		}

		form, err := app.Store.CreateForm(r.Context(), id.UserID, in)
		if err != nil {
			httpx.LogError(w, r, "create_form", err)
			return
		}

		log.WithFields(log.Fields{"form": form.ID, "assignedTo": form.AssignedTo.ID}).Info("form created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "Form created successfully",
			"form":    form,
		})
	}
}

func ListForms(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Store.ListForms(r.Context())
		if err != nil {
			httpx.LogError(w, r, "get_forms", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func GetFormById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		form, err := app.Store.GetForm(r.Context(), formID)
		if err != nil {
			httpx.LogError(w, r, "get_form", err)
			return
		}
		render.JSON(w, r, form)
	}
}

func UpdateForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		var patch model.FormPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		form, err := app.Store.UpdateForm(r.Context(), formID, patch)
		if err != nil {
			httpx.LogError(w, r, "update_form", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Form updated successfully",
			"form":    form,
		})
	}
}

func DeleteForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		deleted, err := app.Store.DeleteForm(r.Context(), formID)
		if err != nil {
			httpx.LogError(w, r, "delete_form", err)
			return
		}

		log.WithFields(log.Fields{"form": formID, "responses": deleted}).Info("form deleted")
		render.JSON(w, r, map[string]any{
			"message":          "Form deleted successfully",
			"deletedResponses": deleted,
		})
	}
}

func Dashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := app.Store.Dashboard(r.Context())
		if err != nil {
			httpx.LogError(w, r, "dashboard", err)
			return
		}
		render.JSON(w, r, d)
	}
}
