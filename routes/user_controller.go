package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/database"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/model"
	"github.com/mbolis/formdesk/routes/middlewares"
)

type myFormResponse struct {
	HasForm      bool            `json:"hasForm"`
	Message      string          `json:"message,omitempty"`
	Form         *model.Form     `json:"form,omitempty"`
	HasSubmitted bool            `json:"hasSubmitted"`
	Response     *model.Response `json:"response,omitempty"`
}

// MyForm returns the caller's active form and whether they already answered it.
func MyForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middlewares.IdentityFrom(r.Context())

		form, ok, err := app.Store.ActiveFormFor(r.Context(), id.UserID)
		if err != nil {
			httpx.LogError(w, r, "my_form", err)
			return
		}
		if !ok {
			render.JSON(w, r, myFormResponse{Message: "No form assigned"})
			return
		}

		resp, submitted, err := app.Store.ResponseFor(r.Context(), form.ID, id.UserID)
		if err != nil {
			httpx.LogError(w, r, "my_form.response", err)
			return
		}

		body := myFormResponse{HasForm: true, Form: &form, HasSubmitted: submitted}
		if submitted {
			body.Response = &resp
		}
		render.JSON(w, r, body)
	}
}

func SubmitForm(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middlewares.IdentityFrom(r.Context())

		var sub model.Submission
		if !decodeBody(w, r, &sub) {
			return
		}

		resp, err := app.Store.Submit(r.Context(), id.UserID, sub)
		if err != nil {
			httpx.LogError(w, r, "submit_form", err)
			return
		}

		log.WithFields(log.Fields{"form": sub.FormID, "user": id.UserID}).Info("form submitted")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message":  "Form submitted successfully",
			"response": resp,
		})
	}
}

func MyResponses(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := middlewares.IdentityFrom(r.Context())

		list, err := app.Store.ListResponses(r.Context(), database.ResponseFilter{UserID: id.UserID})
		if err != nil {
			httpx.LogError(w, r, "my_responses", err)
			return
		}
		render.JSON(w, r, list)
	}
}
