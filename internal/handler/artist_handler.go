package handler

import (
	"net/http"

	"musicsocial/internal/middleware"
	"musicsocial/internal/model"
	"musicsocial/internal/service"
	"musicsocial/pkg/pagination"
	"musicsocial/pkg/response"

	"github.com/gin-gonic/gin"
)

type ArtistHandler struct {
	artistService service.ArtistService
}

func NewArtistHandler(artistService service.ArtistService) *ArtistHandler {
	return &ArtistHandler{artistService: artistService}
}

func (h *ArtistHandler) RegisterRoutes(router *gin.RouterGroup, require Guard) {
	artists := router.Group("/api/artists")
	{
		artists.GET("", require(PermArtistReadAll), h.ListArtists)
		artists.GET("/:id", require(PermArtistRead), h.GetArtist)
		artists.POST("", require(PermArtistCreate), h.CreateArtist)
		artists.POST("/admin", require(PermArtistCreateAdm), h.CreateArtistAsAdmin)
		artists.PATCH("/:id", require(PermArtistUpdate), h.UpdateArtist)
		artists.POST("/:id/accept", require(PermArtistAccept), h.AcceptArtist)
		artists.POST("/:id/reject", require(PermArtistReject), h.RejectArtist)
		artists.DELETE("/:id", require(PermArtistDelete), h.DeleteArtist)
	}
}

// ListArtists returns a page of artists, optionally filtered by status
// @Summary      List artists
// @Tags         artists
// @Security     BearerAuth
// @Produce      json
// @Param        status  query     string  false  "PENDING, ACTIVE, REJECTED or DELETED"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Number of items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Failure      400     {object}  response.Response
// @Router       /api/artists [get]
func (h *ArtistHandler) ListArtists(c *gin.Context) {
	params := pagination.Parse(c)
	artists, total, err := h.artistService.List(c.Request.Context(), service.ArtistListFilter{
		Status: model.ArtistStatus(c.Query("status")),
		Params: params,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"artists":    artists,
		"pagination": params.MetaFor(total),
	}))
}

// GetArtist returns an artist by ID
// @Summary      Get artist
// @Tags         artists
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Artist ID"
// @Success      200  {object}  response.Response{data=model.Artist}
// @Failure      404  {object}  response.Response
// @Router       /api/artists/{id} [get]
func (h *ArtistHandler) GetArtist(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	artist, err := h.artistService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, artist))
}

// CreateArtist submits an artist profile owned by the caller for approval
// @Summary      Create artist
// @Description  The artist starts PENDING and is owned by the caller
// @Tags         artists
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateArtistRequest  true  "Artist"
// @Success      201      {object}  response.Response{data=model.Artist}
// @Failure      400      {object}  response.Response
// @Router       /api/artists [post]
func (h *ArtistHandler) CreateArtist(c *gin.Context) {
	var req service.CreateArtistRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, err := middleware.UserID(c)
	if err != nil {
		response.Fail(c, err)
		return
	}
	artist, err := h.artistService.Create(c.Request.Context(), req, &userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, artist))
}

// CreateArtistAsAdmin creates an ACTIVE, verified artist with no owner
// @Summary      Create artist (admin)
// @Tags         artists
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateArtistRequest  true  "Artist"
// @Success      201      {object}  response.Response{data=model.Artist}
// @Failure      400      {object}  response.Response
// @Router       /api/artists/admin [post]
func (h *ArtistHandler) CreateArtistAsAdmin(c *gin.Context) {
	var req service.CreateArtistRequest
	if !bindJSON(c, &req) {
		return
	}
	artist, err := h.artistService.CreateAsAdmin(c.Request.Context(), req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, artist))
}

// UpdateArtist changes profile fields; status is untouched
// @Summary      Update artist
// @Description  Without artist.update_any only the caller's own artist can be changed
// @Tags         artists
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int                          true  "Artist ID"
// @Param        payload  body      service.UpdateArtistRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Artist}
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/artists/{id} [patch]
func (h *ArtistHandler) UpdateArtist(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateArtistRequest
	if !bindJSON(c, &req) {
		return
	}
	var artist *model.Artist
	var err error
	if hasPermission(middleware.PermissionsFrom(c), PermArtistUpdateAny) {
		artist, err = h.artistService.Update(c.Request.Context(), id, req)
	} else {
		var userID uint
		if userID, err = middleware.UserID(c); err == nil {
			artist, err = h.artistService.UpdateOwned(c.Request.Context(), id, userID, req)
		}
	}
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, artist))
}

// AcceptArtist approves a PENDING artist and grants the owner the artist role
// @Summary      Accept artist
// @Description  role_grant reports the owner's role outcome; the acceptance stands either way
// @Tags         artists
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Artist ID"
// @Success      200  {object}  response.Response{data=service.AcceptResult}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/artists/{id}/accept [post]
func (h *ArtistHandler) AcceptArtist(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := h.artistService.Accept(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectArtist rejects a PENDING artist
// @Summary      Reject artist
// @Tags         artists
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Artist ID"
// @Success      200  {object}  response.Response{data=model.Artist}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/artists/{id}/reject [post]
func (h *ArtistHandler) RejectArtist(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	artist, err := h.artistService.Reject(c.Request.Context(), id)
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, artist))
}

// DeleteArtist marks an artist DELETED
// @Summary      Delete artist
// @Tags         artists
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Artist ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/artists/{id} [delete]
func (h *ArtistHandler) DeleteArtist(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.artistService.LogicalDelete(c.Request.Context(), id); err != nil {
		response.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Artist deleted successfully"}))
}
