package controllers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/angelmondragon/invoicedesk/api/responses"
	"github.com/angelmondragon/invoicedesk/api/validators"
	"github.com/angelmondragon/invoicedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/invoicedesk/pkg/errors"
	"github.com/angelmondragon/invoicedesk/pkg/inventoryapi"
	"github.com/angelmondragon/invoicedesk/pkg/logger"
	"github.com/shopspring/decimal"
)

// Directory is the inventory backend's record-keeping surface, passed
// through with the session's backend token.
type Directory interface {
	ListClients(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Client], error)
	CreateClient(ctx context.Context, token string, in inventoryapi.CreateClientRequest) (*inventoryapi.Client, error)
	ListGroups(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Group], error)
	CreateGroup(ctx context.Context, token string, in inventoryapi.CreateGroupRequest) (*inventoryapi.Group, error)
	ListInventory(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.InventoryItem], error)
	CreateInventory(ctx context.Context, token string, in inventoryapi.CreateInventoryRequest) (*inventoryapi.InventoryItem, error)
	UploadInventoryCSV(ctx context.Context, token, filename string, file io.Reader) error
	ListActivities(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.Activity], error)
	ListUsers(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[inventoryapi.User], error)
	CreateUser(ctx context.Context, token string, in inventoryapi.CreateUserRequest) error
}

type listFunc[T any] func(ctx context.Context, token string, params inventoryapi.ListParams) (*inventoryapi.Page[T], error)

func listHandler[T any](fetch listFunc[T], logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := parseListParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := fetch(r.Context(), state.BackendToken, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type createClientBody struct {
	Name string `json:"name" validate:"required,max=200"`
}

type createGroupBody struct {
	Name        string `json:"name" validate:"required,max=100"`
	BelongsToID string `json:"belongs_to_id" validate:"omitempty,numeric"`
}

type createInventoryBody struct {
	Name    string          `json:"name" validate:"required,max=255"`
	GroupID string          `json:"group_id" validate:"required,numeric"`
	Total   int             `json:"total" validate:"gte=0"`
	Price   decimal.Decimal `json:"price"`
	Photo   string          `json:"photo" validate:"omitempty,url"`
}

type createUserBody struct {
	Email    string `json:"email" validate:"required,email"`
	Fullname string `json:"fullname" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=admin creator sale"`
}

func ClientsList(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return listHandler(dir.ListClients, logg)
}

func GroupsList(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return listHandler(dir.ListGroups, logg)
}

func InventoryList(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return listHandler(dir.ListInventory, logg)
}

func ActivitiesList(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return listHandler(dir.ListActivities, logg)
}

func UsersList(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return listHandler(dir.ListUsers, logg)
}

func ClientsCreate(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createClientBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		client, err := dir.CreateClient(r.Context(), state.BackendToken, inventoryapi.CreateClientRequest{
			Name: validators.SanitizeString(body.Name, 200),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, client)
	}
}

func GroupsCreate(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createGroupBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		group, err := dir.CreateGroup(r.Context(), state.BackendToken, inventoryapi.CreateGroupRequest{
			Name:        validators.SanitizeString(body.Name, 100),
			BelongsToID: body.BelongsToID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, group)
	}
}

// InventoryCreate adds a catalog item. Sessions see it after a catalog refresh.
func InventoryCreate(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body createInventoryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.Price.IsNegative() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"price": "must not be negative"}))
			return
		}
		item, err := dir.CreateInventory(r.Context(), state.BackendToken, inventoryapi.CreateInventoryRequest{
			Name:    validators.SanitizeString(body.Name, 255),
			GroupID: body.GroupID,
			Total:   body.Total,
			Price:   body.Price,
			Photo:   body.Photo,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, item)
	}
}

const (
	inventoryCSVField    = "data"
	maxInventoryCSVBytes = 5 << 20
)

type inventoryUploadResponse struct {
	Filename string           `json:"filename"`
	Catalog  *catalogResponse `json:"catalog,omitempty"`
}

// InventoryUploadCSV forwards a bulk inventory file to the backend and then
// reloads the session catalog so the new items are sellable right away. A
// failed reload does not fail the upload; the response omits the catalog.
func InventoryUploadCSV(dir Directory, spaces Workspaces, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		state, err := signedInState(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxInventoryCSVBytes)
		file, header, err := r.FormFile(inventoryCSVField)
		if err != nil {
			responses.WriteError(ctx, logg, w, csvFormError(err))
			return
		}
		defer file.Close()
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{inventoryCSVField: "must be a .csv file"}))
			return
		}

		if err := dir.UploadInventoryCSV(ctx, state.BackendToken, header.Filename, file); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := inventoryUploadResponse{Filename: header.Filename}
		snap, err := spaces.RefreshCatalog(ctx, state.ID, state.BackendToken)
		if err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "catalog refresh after csv upload failed")
			}
		} else {
			view := toCatalogResponse(snap, "")
			out.Catalog = &view
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, out)
	}
}

func csvFormError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{inventoryCSVField: "file exceeds 5 MiB"})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed").
		WithDetails(map[string]string{inventoryCSVField: "multipart file is required"})
}

// UsersCreate invites a staff member. Routed behind the admin role.
func UsersCreate(dir Directory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := signedInState(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if state.Role() != enums.UserRoleAdmin {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can create users"))
			return
		}
		var body createUserBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := dir.CreateUser(r.Context(), state.BackendToken, inventoryapi.CreateUserRequest{
			Email:    body.Email,
			Fullname: validators.SanitizeString(body.Fullname, 200),
			Role:     body.Role,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]string{"status": "created", "email": body.Email})
	}
}
