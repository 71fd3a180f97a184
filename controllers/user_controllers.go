package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/DevenGibbs/starter-restaurant-reservation/models"
	"github.com/DevenGibbs/starter-restaurant-reservation/utils"
)

// Roles a staff account may hold.
var Roles = map[string]bool{
	"admin": true,
	"staff": true,
	"host":  true,
}

var errAdminSelfRegister = errors.New("admin accounts are created by an admin")

type UserController struct {
	DB *gorm.DB
}

func NewUserController(db *gorm.DB) *UserController {
	return &UserController{DB: db}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required"` // admin, staff, host
}

// Register user baru lewat endpoint publik; role admin tidak boleh
func (uc *UserController) Register(c *gin.Context) {
	uc.createUser(c, false)
}

// CreateUser -> khusus admin, boleh membuat role apa pun
func (uc *UserController) CreateUser(c *gin.Context) {
	uc.createUser(c, true)
}

func (uc *UserController) createUser(c *gin.Context, allowAdmin bool) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	req.Role = strings.ToLower(req.Role)
	if !Roles[req.Role] {
		utils.RespondError(c, http.StatusBadRequest, errors.New("role must be one of admin, staff, host"))
		return
	}
	if req.Role == "admin" && !allowAdmin {
		utils.RespondError(c, http.StatusForbidden, errAdminSelfRegister)
		return
	}

	var count int64
	if err := uc.DB.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, errors.New("email already registered"))
		return
	}

	user, err := newUser(req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if err := uc.DB.Create(user).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New user registered: %s (role=%s)", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusCreated, "User registered", gin.H{
		"user_id": user.ID,
	})
}

func newUser(name, email, password, role string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return &models.User{Name: name, Email: email, Password: string(hashed), Role: role}, nil
}

// EnsureAdmin creates the admin account for email unless one already
// exists. It is how the first admin gets in, since /register refuses the role.
func EnsureAdmin(db *gorm.DB, email, password string) error {
	var count int64
	if err := db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up admin %s: %w", email, err)
	}
	if count > 0 {
		return nil
	}

	user, err := newUser("Administrator", email, password, "admin")
	if err != nil {
		return err
	}
	if err := db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create admin %s: %w", email, err)
	}
	utils.InfoLogger.Printf("Admin account seeded: %s", email)
	return nil
}

// Login user -> return JWT
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.Where("email = ?", input.Email).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid credentials"))
		return
	}

	token, err := utils.GenerateToken(user.ID, user.Role)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Login successful for user: %s, role: %s", user.Email, user.Role)

	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"token":     token,
		"user_role": strings.ToLower(user.Role),
	})
}

// GetProfile -> memeriksa user dari JWT
func (uc *UserController) GetProfile(c *gin.Context) {
	userIDInterface, exists := c.Get("userID")
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, errors.New("user id not found in context"))
		return
	}

	userID, ok := userIDInterface.(uint)
	if !ok {
		utils.RespondError(c, http.StatusInternalServerError, errors.New("invalid user id type"))
		return
	}

	var user models.User
	if err := uc.DB.First(&user, userID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, errors.New("user not found"))
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Profile data retrieved successfully", gin.H{
		"id":    user.ID,
		"name":  user.Name,
		"email": user.Email,
		"role":  user.Role,
	})
}

// GetAllUsers -> khusus admin, dijaga RoleCheck di router
func (uc *UserController) GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := uc.DB.Order("id").Find(&users).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "All users", users)
}
