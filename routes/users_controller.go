package routes

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/mbolis/formdesk/app"
	"github.com/mbolis/formdesk/httpx"
	"github.com/mbolis/formdesk/log"
	"github.com/mbolis/formdesk/model"
)

func CreateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in model.UserInput
		if !decodeBody(w, r, &in) {
			return
		}

		u, err := app.Store.CreateUser(r.Context(), in)
		if err != nil {
			httpx.LogError(w, r, "create_user", err)
			return
		}

		log.WithFields(log.Fields{"user": u.ID, "role": u.Role}).Info("user created")
		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "User created successfully",
			"user":    u,
		})
	}
}

// ListUsers lists the accounts forms can be assigned to.
func ListUsers(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := app.Store.ListUsers(r.Context(), model.RoleUser)
		if err != nil {
			httpx.LogError(w, r, "get_users", err)
			return
		}
		render.JSON(w, r, list)
	}
}

func GetUserById(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		u, err := app.Store.GetUser(r.Context(), userID)
		if err != nil {
			httpx.LogError(w, r, "get_user", err)
			return
		}
		render.JSON(w, r, u)
	}
}

func UpdateUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		var patch model.UserPatch
		if !decodeBody(w, r, &patch) {
			return
		}

		u, err := app.Store.UpdateUser(r.Context(), userID, patch)
		if err != nil {
			httpx.LogError(w, r, "update_user", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "User updated successfully",
			"user":    u,
		})
	}
}

func DeleteUser(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := urlID(w, r, "id")
		if !ok {
			return
		}

		err := app.Store.DeleteUser(r.Context(), userID)
		if err != nil {
			httpx.LogError(w, r, "delete_user", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "User deleted successfully",
		})
	}
}
