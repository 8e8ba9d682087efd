package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yasarair/flightcore/internal/domain"
	"github.com/yasarair/flightcore/internal/service/members"
)

type MemberHandler struct {
	service members.MemberUseCase
}

type registerMemberRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	MiddleName  string `json:"middle_name"`
	LastName    string `json:"last_name" binding:"required"`
	DateOfBirth string `json:"date_of_birth"`
	Email       string `json:"email"`
}

type addMilesRequest struct {
	MemberNumber string `json:"member_number" binding:"required"`
	Miles        int64  `json:"miles" binding:"required"`
	Description  string `json:"description"`
}

func NewMemberHandler(service members.MemberUseCase) *MemberHandler {
	return &MemberHandler{service: service}
}

func (h *MemberHandler) Register(router *gin.RouterGroup) {
	router.POST("/register", h.register)
	router.GET("/profile", h.profile)
	router.GET("/miles-transactions", h.statement)
	router.POST("/add-miles", h.addMiles)
	router.GET("/:memberNumber", h.get)
}

func (h *MemberHandler) register(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}

	var req registerMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var dob *time.Time
	if req.DateOfBirth != "" {
		parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_of_birth, expected YYYY-MM-DD"})
			return
		}
		dob = &parsed
	}

	email := req.Email
	if email == "" {
		email = claims.Email
	}

	member, err := h.service.Register(c.Request.Context(), members.RegisterInput{
		SubjectID:   claims.Subject,
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		DateOfBirth: dob,
		Email:       email,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"member_number": member.MemberNumber,
		"message":       "Member registered successfully",
	})
}

func (h *MemberHandler) profile(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	member, err := h.service.ProfileBySubject(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberView(member))
}

func (h *MemberHandler) get(c *gin.Context) {
	member, err := h.service.GetByNumber(c.Request.Context(), c.Param("memberNumber"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, memberView(member))
}

func (h *MemberHandler) addMiles(c *gin.Context) {
	var req addMilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.service.AddExternalMiles(c.Request.Context(), req.MemberNumber, req.Miles, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"member_number": req.MemberNumber,
		"new_balance":   newBalance,
		"message":       "Miles added successfully",
	})
}

func (h *MemberHandler) statement(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
		return
	}
	txs, err := h.service.Statement(c.Request.Context(), claims.Subject)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs})
}

func memberView(m *domain.Member) gin.H {
	return gin.H{
		"member_number": m.MemberNumber,
		"first_name":    m.FirstName,
		"last_name":     m.LastName,
		"email":         m.Email,
		"miles_points":  m.MilesPoints,
	}
}
