package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	camperdomain "github.com/office562/campbaraisa-sub000/internal/camper/domain"
)

type createCamperRequest struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	ParentFirstName string `json:"parent_first_name"`
	ParentLastName  string `json:"parent_last_name"`
	ParentEmail     string `json:"parent_email"`
	ParentPhone     string `json:"parent_phone"`
}

// @Summary      Create Camper
// @Description  Register a camper and their family contact
// @Tags         campers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body createCamperRequest true "Create Camper Request"
// @Success      200  {object}  camperdomain.Camper
// @Router       /campers [post]
func (s *Server) CreateCamper(c *gin.Context) {
	var req createCamperRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.camperSvc.Create(c.Request.Context(), camperdomain.CreateCamperRequest{
		FirstName:       strings.TrimSpace(req.FirstName),
		LastName:        strings.TrimSpace(req.LastName),
		ParentFirstName: strings.TrimSpace(req.ParentFirstName),
		ParentLastName:  strings.TrimSpace(req.ParentLastName),
		ParentEmail:     strings.TrimSpace(req.ParentEmail),
		ParentPhone:     strings.TrimSpace(req.ParentPhone),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      List Campers
// @Description  List registered campers with balance rollups
// @Tags         campers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  []camperdomain.Camper
// @Router       /campers [get]
func (s *Server) ListCampers(c *gin.Context) {
	resp, err := s.camperSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// @Summary      Get Camper
// @Description  Fetch one camper by id
// @Tags         campers
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Camper ID"
// @Success      200  {object}  camperdomain.Camper
// @Router       /campers/{id} [get]
func (s *Server) GetCamper(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		AbortWithError(c, notFoundError("camper_not_found"))
		return
	}

	resp, err := s.camperSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}
