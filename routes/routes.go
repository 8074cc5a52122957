package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/routes/middlewares"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(app.Config.RequestTimeout),
		render.SetContentType(render.ContentTypeJSON),
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogNotFound(w, r, "route."+r.URL.Path, "Route not found")
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.LogStatus(w, r, http.StatusMethodNotAllowed, log.DebugLevel, "route.method_not_allowed")
	})

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Route("/auth", func(r chi.Router) {
		r.Post("/signin", Signin(app))
		r.Post("/refresh", Refresh(app))
	})

	api.Group(func(r chi.Router) {
		r.Use(middlewares.Authenticate(app.Config.TokenSecret))

		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewares.Admin)

			// CRUD form
			r.Post("/forms", CreateForm(app))
			r.Get("/forms", ListForms(app))
			r.Get("/forms/{id}", GetFormById(app))
			r.Put("/forms/{id}", UpdateForm(app))
			r.Delete("/forms/{id}", DeleteForm(app))

			r.Get("/responses", ListResponses(app))
			r.Get("/responses/form/{formId}", ListFormResponses(app))
			r.Get("/responses/user/{userId}", ListUserResponses(app))
			r.Get("/responses/{id}", GetResponseById(app))

			// CRUD user
			r.Post("/users", CreateUser(app))
			r.Get("/users", ListUsers(app))
			r.Get("/users/{id}", GetUserById(app))
			r.Put("/users/{id}", UpdateUser(app))
			r.Delete("/users/{id}", DeleteUser(app))

			r.Get("/dashboard", Dashboard(app))
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/my-form", MyForm(app))
			r.Post("/submit-form", SubmitForm(app))
			r.Get("/my-responses", MyResponses(app))
		})
	})

	return api
}
