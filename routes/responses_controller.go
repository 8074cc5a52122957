package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/httpx"
)

func ListResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Store.ListResponses(r.Context(), database.ResponseFilter{})
		if err != nil {
			httpx.LogError(w, r, "get_responses", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func ListFormResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		formID, ok := urlID(w, r, "formId")
		if !ok {
			return
		}

		list, err := app.Store.ListResponses(r.Context(), database.ResponseFilter{FormID: formID})
		if err != nil {
			httpx.LogError(w, r, "get_form_responses", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func ListUserResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := urlID(w, r, "userId")
		if !ok {
			return
		}

		list, err := app.Store.ListResponses(r.Context(), database.ResponseFilter{UserID: userID})
		if err != nil {
			httpx.LogError(w, r, "get_user_responses", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func GetResponseById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responseID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		resp, err := app.Store.GetResponse(r.Context(), responseID)
		if err != nil {
			httpx.LogError(w, r, "get_response", err)
			return
		}
		render.JSON(w, r, resp)
	}
}
