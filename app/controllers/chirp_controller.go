package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/Chirper/internal/pkg/apperror"
	"github.com/ManuelReschke/Chirper/internal/pkg/chirps"
	"github.com/ManuelReschke/Chirper/internal/pkg/constants"
	"github.com/ManuelReschke/Chirper/internal/pkg/respond"
	"github.com/ManuelReschke/Chirper/internal/pkg/usercontext"
	"github.com/ManuelReschke/Chirper/internal/pkg/viewmodel"
)

// ChirpController serves chirps to both the web pages and the JSON API.
type ChirpController struct {
	chirps *chirps.Service
}

func NewChirpController(chirps *chirps.Service) *ChirpController {
	return &ChirpController{chirps: chirps}
}

// HandleIndex lists the latest chirps
func (cc *ChirpController) HandleIndex(c *fiber.Ctx) error {
	list, err := cc.chirps.Latest()
	if err != nil {
		return respond.Error(c, err, "", nil)
	}
	if respond.WantsJSON(c) {
		return c.JSON(list)
	}
	return c.Render("home", fiber.Map{
		"Layout": viewmodel.NewLayout(c, "Home Feed"),
		"Chirps": list,
	}, layoutMain)
}

// HandleShow returns a single chirp
func (cc *ChirpController) HandleShow(c *fiber.Ctx) error {
	id, err := chirps.ParseID(c.Params("id"))
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	chirp, err := cc.chirps.Get(id)
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	return c.JSON(chirp)
}

// HandleStore creates a chirp for the current user
func (cc *ChirpController) HandleStore(c *fiber.Ctx) error {
	var in chirps.Input
	if err := parseBody(c, &in); err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}

	chirp, err := cc.chirps.Create(usercontext.User(c), in)
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, fiber.Map{"message": in.Message})
	}

	return respond.Send(c, respond.Result{
		Status:   fiber.StatusCreated,
		Message:  "Chirp created!",
		Body:     chirp,
		Redirect: constants.RouteHome,
	})
}

// HandleEdit renders the edit form for a chirp owned by the current user
func (cc *ChirpController) HandleEdit(c *fiber.Ctx) error {
	id, err := chirps.ParseID(c.Params("id"))
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	chirp, err := cc.chirps.Edit(usercontext.User(c), id)
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	return c.Render("chirps/edit", fiber.Map{
		"Layout": viewmodel.NewLayout(c, "Edit Chirp"),
		"Chirp":  chirp,
	}, layoutMain)
}

// HandleUpdate replaces the message of a chirp
func (cc *ChirpController) HandleUpdate(c *fiber.Ctx) error {
	id, err := chirps.ParseID(c.Params("id"))
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	var in chirps.Input
	if err := parseBody(c, &in); err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}

	chirp, err := cc.chirps.Update(usercontext.User(c), id, in)
	if err != nil {
		back := constants.RouteHome
		if apperror.Is(err, apperror.KindValidation) {
			back = constants.RouteChirps + "/" + c.Params("id") + "/edit"
		}
		return respond.Error(c, err, back, nil)
	}

	return respond.Send(c, respond.Result{
		Status:   fiber.StatusOK,
		Message:  "Chirp updated!",
		Body:     chirp,
		Redirect: constants.RouteHome,
	})
}

// HandleDestroy deletes a chirp
func (cc *ChirpController) HandleDestroy(c *fiber.Ctx) error {
	id, err := chirps.ParseID(c.Params("id"))
	if err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	if err := cc.chirps.Delete(usercontext.User(c), id); err != nil {
		return respond.Error(c, err, constants.RouteHome, nil)
	}
	return respond.Send(c, respond.Result{
		Status:   fiber.StatusNoContent,
		Message:  "Chirp deleted!",
		Redirect: constants.RouteHome,
	})
}
